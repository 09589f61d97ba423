package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"closetapi/models"
	"closetapi/services"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type OutfitsController struct {
	Weather   *services.WeatherService
	Generator *services.OutfitGenerator
}

type CreateOutfitIn struct {
	ItemIDs  []int64    `json:"item_ids" validate:"required,min=1"`
	WornDate *time.Time `json:"worn_date"`
	Occasion *string    `json:"occasion"`
	Rating   *int       `json:"rating"`
	Notes    *string    `json:"notes"`
}

type RateOutfitIn struct {
	Rating int     `json:"rating"`
	Notes  *string `json:"notes"`
}

type GenerateOutfitsIn struct {
	Count      int                      `json:"count"`
	Schedule   []services.ScheduleEntry `json:"schedule"`
	UseWeather *bool                    `json:"use_weather"`
}

type OutfitResponse struct {
	models.Outfit
	Items []models.WardrobeItem `json:"items,omitempty"`
}

func (controller *OutfitsController) fetchOwnedOutfit(c echo.Context, db *gorm.DB) (*models.Outfit, error) {
	user := c.Get("currentUser").(models.UserAccount)
	outfitId, err := strconv.Atoi(c.Param("outfitId"))
	if err != nil || outfitId < 1 {
		return nil, echo.ErrBadRequest
	}
	var outfit models.Outfit
	result := db.Limit(1).Find(&outfit, "id = ? and owner_id = ?", outfitId, user.ID)
	if result.Error != nil {
		fmt.Println("Failed to fetch outfit", result.Error)
		return nil, echo.ErrInternalServerError
	}
	if result.RowsAffected == 0 {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Outfit not found")
	}
	return &outfit, nil
}

func validRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group) {

	g.GET("", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)

		var outfits []models.Outfit
		if err := db.Where("owner_id = ?", user.ID).Order("created_at desc").Find(&outfits).Error; err != nil {
			fmt.Println("Failed to list outfits", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, outfits)
	})

	g.POST("", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		var req CreateOutfitIn
		if err := c.Bind(&req); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		if req.Rating != nil && !validRating(*req.Rating) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Rating must be between 1 and 5"})
		}

		db := c.Get("__db").(*gorm.DB)
		var items []models.WardrobeItem
		if err := db.Where("owner_id = ? and id in ?", user.ID, []int64(req.ItemIDs)).Find(&items).Error; err != nil {
			fmt.Println("Failed to verify outfit items", err)
			return echo.ErrInternalServerError
		}
		if len(items) != len(req.ItemIDs) {
			return echo.NewHTTPError(http.StatusNotFound, "Some wardrobe items were not found")
		}

		outfit := models.Outfit{
			OwnerID:  user.ID,
			ItemIDs:  pq.Int64Array(req.ItemIDs),
			WornDate: req.WornDate,
			Occasion: req.Occasion,
			Rating:   req.Rating,
			Notes:    req.Notes,
		}
		snapshot := controller.Weather.GetCurrent(c.Request().Context())
		outfit.WeatherTemp = Float64Pointer(snapshot.Temp)
		outfit.WeatherCondition = StrPointer(snapshot.Condition)

		if err := db.Create(&outfit).Error; err != nil {
			fmt.Println("Failed to create outfit", err)
			return echo.ErrInternalServerError
		}

		if req.WornDate != nil {
			for i := range items {
				items[i].WearCount++
				items[i].LastWornDate = req.WornDate
			}
			if err := db.Save(&items).Error; err != nil {
				fmt.Println("Failed to bump wear counts", err)
			}
		}

		return c.JSON(http.StatusCreated, outfit)
	})

	g.POST("/generate", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		var req GenerateOutfitsIn
		if err := c.Bind(&req); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}

		db := c.Get("__db").(*gorm.DB)
		// drafts still waiting on attribute extraction carry no useful
		// signal for the stylist
		var items []models.WardrobeItem
		if err := db.Where("owner_id = ? and processing_status in ?", user.ID, []string{"completed", "idle"}).Find(&items).Error; err != nil {
			fmt.Println("Failed to load wardrobe for generation", err)
			return echo.ErrInternalServerError
		}
		var recent []models.Outfit
		if err := db.Where("owner_id = ?", user.ID).Order("created_at desc").Limit(5).Find(&recent).Error; err != nil {
			fmt.Println("Failed to load recent outfits", err)
			return echo.ErrInternalServerError
		}

		var weather *services.WeatherSnapshot
		if req.UseWeather == nil || *req.UseWeather {
			snapshot := controller.Weather.GetCurrent(c.Request().Context())
			weather = &snapshot
		}

		result := controller.Generator.Generate(c.Request().Context(), items, weather, req.Schedule, recent, req.Count)
		return c.JSON(http.StatusOK, echo.Map{
			"suggestions": result.Suggestions,
			"source":      result.Source,
		})
	})

	g.GET("/:outfitId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		outfit, err := controller.fetchOwnedOutfit(c, db)
		if err != nil {
			return err
		}
		var items []models.WardrobeItem
		if len(outfit.ItemIDs) > 0 {
			if err := db.Where("id in ?", []int64(outfit.ItemIDs)).Find(&items).Error; err != nil {
				fmt.Println("Failed to resolve outfit items", err)
				return echo.ErrInternalServerError
			}
		}
		return c.JSON(http.StatusOK, OutfitResponse{Outfit: *outfit, Items: items})
	})

	g.DELETE("/:outfitId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		outfit, err := controller.fetchOwnedOutfit(c, db)
		if err != nil {
			return err
		}
		if err := db.Delete(outfit).Error; err != nil {
			fmt.Println("Failed to delete outfit", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
	})

	g.PUT("/:outfitId/rating", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		outfit, err := controller.fetchOwnedOutfit(c, db)
		if err != nil {
			return err
		}
		var req RateOutfitIn
		if err := c.Bind(&req); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if !validRating(req.Rating) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Rating must be between 1 and 5"})
		}
		outfit.Rating = &req.Rating
		if req.Notes != nil {
			outfit.Notes = req.Notes
		}
		if err := db.Save(outfit).Error; err != nil {
			fmt.Println("Failed to save rating", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, outfit)
	})
}
