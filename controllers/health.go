package controllers

import (
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthHandler reports readiness of the database and the task queue.
func HealthHandler(c echo.Context) error {
	components := map[string]string{
		"database": "ok",
		"queue":    "ok",
	}
	status := http.StatusOK

	db, ok := c.Get("__db").(*gorm.DB)
	if !ok || db == nil {
		components["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
		components["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	inspector, ok := c.Get("__asynqinspector").(*asynq.Inspector)
	if !ok || inspector == nil {
		components["queue"] = "disabled"
	} else if _, err := inspector.Queues(); err != nil {
		components["queue"] = "unavailable"
	}

	body := echo.Map{"status": "ok", "components": components}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	return c.JSON(status, body)
}
