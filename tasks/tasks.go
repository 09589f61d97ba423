package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"closetapi/models"
	"closetapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	TypeItemProcessing = "process:item"
	TypeWeatherSync    = "weather:sync"
)

const maxProcessRetries = 3

type ItemProcessingPayload struct {
	ItemID uint `json:"item_id"`
}

func NewItemProcessingTask(itemID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ItemProcessingPayload{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeItemProcessing, payload), nil
}

func NewWeatherSyncTask() *asynq.Task {
	return asynq.NewTask(TypeWeatherSync, nil)
}

func cleanAIResponseText(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

func getFileForItem(ctx context.Context, awsService services.AWSServiceProvider, item *models.WardrobeItem) ([]byte, string, error) {
	if item.ImageKey == nil || *item.ImageKey == "" {
		return nil, "", fmt.Errorf("[Item: %v] has no image attached", item.ID)
	}
	bucketName := services.GetEnv("R2_BUCKET_NAME", "closet-wardrobe")
	fileURL, err := awsService.GetPresignedR2FileReadURL(ctx, bucketName, *item.ImageKey)
	if err != nil {
		return nil, "", fmt.Errorf("[Item: %v] failed to presign image read url: %v", item.ID, err)
	}
	content, err := services.ReadFileFromUrl(fileURL)
	if err != nil {
		return nil, "", fmt.Errorf("[Item: %v] failed to download image: %v", item.ID, err)
	}
	return content, *item.ImageKey, nil
}

func saveItemProcessingFail(db *gorm.DB, item *models.WardrobeItem, message string, shouldRetry bool) {
	fmt.Printf("[Item: %v] processing failed: %s\n", item.ID, message)
	sentry.CaptureException(fmt.Errorf("[Item: %v] processing failed: %s", item.ID, message))
	item.ProcessRetryTimes++
	item.ProcessErrorMessage = services.StrPointer(message)
	if !shouldRetry || item.ProcessRetryTimes >= maxProcessRetries {
		item.ProcessingStatus = "failed"
	} else {
		item.ProcessingStatus = "pending"
	}
	db.Save(item)
}

// filterKnownTags keeps only tags present in the allowed set, normalized.
func filterKnownTags(tags []string, allowed map[string]bool) []string {
	var kept []string
	for _, tag := range tags {
		normalized := services.NormalizeAttribute(tag)
		if allowed[normalized] {
			kept = append(kept, normalized)
		}
	}
	return kept
}

var allowedSeasonTags = map[string]bool{
	"spring": true, "summer": true, "autumn": true, "winter": true, "all_season": true,
}

var allowedStyleTags = map[string]bool{
	"casual": true, "formal": true, "business": true, "sport": true, "elegant": true,
}

// HandleProcessItemTask downloads the item photo, runs attribute extraction
// and embeds the resulting catalog text. Transient failures requeue the item
// up to maxProcessRetries times.
func HandleProcessItemTask(ctx context.Context, t *asynq.Task, db *gorm.DB, extractor services.AttributeExtractor, awsService services.AWSServiceProvider, fbApp *firebase.App) error {
	var payload ItemProcessingPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	fmt.Println("[Queue] Processing wardrobe item: ", payload.ItemID)

	var item models.WardrobeItem
	if err := db.First(&item, payload.ItemID).Error; err != nil {
		return fmt.Errorf("wardrobe item %v not found: %v: %w", payload.ItemID, err, asynq.SkipRetry)
	}

	item.ProcessingStatus = "processing"
	db.Save(&item)

	imageBytes, imageKey, err := getFileForItem(ctx, awsService, &item)
	if err != nil {
		saveItemProcessingFail(db, &item, err.Error(), true)
		return err
	}

	// whiten the backdrop before analysis, product shots on busy
	// backgrounds confuse the extractor
	processedBytes, err := services.WhitenGarmentBackground(imageBytes, 200, 245, 0.6)
	if err != nil {
		fmt.Printf("[Item: %v] background whitening failed, using original image: %v\n", item.ID, err)
		processedBytes = imageBytes
	}

	tempPath, err := services.CreateTempFile(processedBytes, imageKey+".png")
	if err != nil {
		saveItemProcessingFail(db, &item, fmt.Sprintf("failed to create temp file: %v", err), true)
		return err
	}
	defer os.Remove(tempPath)

	llmResponse, err := extractor.ExtractAttributes(tempPath, services.Flash20)
	if err != nil {
		saveItemProcessingFail(db, &item, fmt.Sprintf("attribute extraction failed: %v", err), true)
		return err
	}

	var attributes services.ItemAttributesResponse
	cleaned := cleanAIResponseText(llmResponse.Response)
	if err := json.Unmarshal([]byte(cleaned), &attributes); err != nil {
		saveItemProcessingFail(db, &item, fmt.Sprintf("failed to parse attributes response: %v", err), true)
		return err
	}

	if attributes.Category == "" {
		saveItemProcessingFail(db, &item, "no clothing item detected in the photo", false)
		return fmt.Errorf("[Item: %v] no clothing item detected: %w", item.ID, asynq.SkipRetry)
	}

	if item.Name == "" && attributes.Name != "" {
		item.Name = attributes.Name
	}
	if models.ValidateCategoryRaw(attributes.Category) {
		item.Category = models.ScanCategory(attributes.Category)
	}
	item.ColorPrimary = services.NormalizeAttribute(attributes.ColorPrimary)
	item.ColorSecondary = services.NormalizeAttributePtr(&attributes.ColorSecondary)
	item.Pattern = services.NormalizeAttributePtr(&attributes.Pattern)
	item.Material = services.NormalizeAttributePtr(&attributes.Material)
	item.SeasonTags = filterKnownTags(attributes.Seasons, allowedSeasonTags)
	item.StyleTags = filterKnownTags(attributes.Styles, allowedStyleTags)
	if attributes.Description != "" {
		item.Description = services.StrPointer(attributes.Description)
	}

	embeddingText := buildEmbeddingText(item, attributes.Description)
	vector, err := extractor.EmbedItemText(embeddingText)
	if err != nil {
		// similarity search degrades gracefully without an embedding
		fmt.Printf("[Item: %v] embedding failed, item stays unembedded: %v\n", item.ID, err)
		sentry.CaptureException(fmt.Errorf("[Item: %v] embedding failed: %v", item.ID, err))
	} else {
		item.Embedding = services.NormalizeEmbedding(vector)
	}

	item.ProcessingStatus = "completed"
	item.ProcessErrorMessage = nil
	if err := db.Save(&item).Error; err != nil {
		return fmt.Errorf("[Item: %v] failed to save processed item: %v", item.ID, err)
	}
	fmt.Printf("[Item: %v] processed: %s %s %s\n", item.ID, item.ColorPrimary, item.Category, item.Name)

	var owner models.UserAccount
	if fbApp != nil && db.First(&owner, item.OwnerID).Error == nil && owner.ReceiveNotifications {
		services.SendNotification(fbApp, db, owner.ID, "Wardrobe item ready",
			fmt.Sprintf("%s is cataloged and ready for outfits", item.Name),
			map[string]string{"item_id": fmt.Sprint(item.ID)})
	}
	return nil
}

func buildEmbeddingText(item models.WardrobeItem, description string) string {
	fields := []string{
		item.Name,
		string(item.Category),
		item.ColorPrimary,
	}
	if item.Pattern != nil {
		fields = append(fields, *item.Pattern)
	}
	if item.Material != nil {
		fields = append(fields, *item.Material)
	}
	if description != "" {
		fields = append(fields, description)
	}
	var nonEmpty []string
	for _, field := range fields {
		if field != "" {
			nonEmpty = append(nonEmpty, field)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// HandleWeatherSyncTask refreshes the daily forecast cache. Runs on a cron
// schedule and on demand.
func HandleWeatherSyncTask(ctx context.Context, t *asynq.Task, db *gorm.DB, weather *services.WeatherService) error {
	forecast := weather.GetForecast(ctx, 5)
	for _, day := range forecast {
		record := models.WeatherDay{
			Date:      day.Date,
			Temp:      day.Temp,
			TempMin:   day.TempMin,
			TempMax:   day.TempMax,
			Condition: day.Condition,
			Humidity:  day.Humidity,
			WindSpeed: day.WindSpeed,
		}
		var existing models.WeatherDay
		result := db.Where("date = ?", day.Date).First(&existing)
		if result.Error == nil {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			if err := db.Save(&record).Error; err != nil {
				return fmt.Errorf("failed to update weather day %s: %v", day.Date, err)
			}
			continue
		}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to store weather day %s: %v", day.Date, err)
		}
	}
	fmt.Printf("[Queue] Weather sync stored %d forecast days\n", len(forecast))
	return nil
}
