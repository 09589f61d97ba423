package controllers

import (
	"net/http"
	"strconv"

	"closetapi/services"

	"github.com/labstack/echo/v4"
)

type WeatherController struct {
	Weather *services.WeatherService
}

func (controller *WeatherController) WeatherRoutes(g *echo.Group) {

	g.GET("/current", func(c echo.Context) error {
		return c.JSON(http.StatusOK, controller.Weather.GetCurrent(c.Request().Context()))
	})

	g.GET("/forecast", func(c echo.Context) error {
		days := 5
		if raw := c.QueryParam("days"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				days = parsed
			}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"forecast": controller.Weather.GetForecast(c.Request().Context(), days),
		})
	})

	g.GET("/recommendation", func(c echo.Context) error {
		snapshot := controller.Weather.GetCurrent(c.Request().Context())
		return c.JSON(http.StatusOK, echo.Map{
			"weather": snapshot,
			"advice":  services.ClothingRecommendation(snapshot),
		})
	})
}
