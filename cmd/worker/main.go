package main

import (
	"context"
	"log"
	"os"

	"closetapi/dbhelper"
	"closetapi/services"
	"closetapi/tasks"

	"github.com/hibiken/asynq"

	firebase "firebase.google.com/go/v4"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{

		LogLevel: asynq.InfoLevel,
	})

	scheduled := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 6 * * *", // 6:00 AM daily, before people pick an outfit
			task: tasks.NewWeatherSyncTask(),
			desc: "Daily weather forecast sync",
		},
	}

	for _, t := range scheduled {
		entryID, err := scheduler.Register(t.cron, t.task)
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"process": 7,
			"default": 3,
		}},
	)
	awsService := &services.AWSService{}
	extractor := &services.GeminiAttributeExtractor{}
	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("[Queue] Failed to initialize AWS provider: S3")
	}
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}
	weather := services.NewWeatherService(services.WeatherConfigFromEnv())

	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	mux.HandleFunc(tasks.TypeItemProcessing, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleProcessItemTask(ctx, t, db, extractor, awsService, app)
	})
	mux.HandleFunc(tasks.TypeWeatherSync, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleWeatherSyncTask(ctx, t, db, weather)
	})

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
