package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"closetapi/models"
	"closetapi/services"
	"closetapi/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type WardrobeController struct {
	AWSService  services.AWSServiceProvider
	FirebaseApp *firebase.App
	URLCache    services.URLCacheServiceProvider
}

type CreateWardrobeItemIn struct {
	Name             string   `json:"name" validate:"required"`
	Category         string   `json:"category" validate:"required,category"`
	ColorPrimary     string   `json:"color_primary"`
	ColorSecondary   *string  `json:"color_secondary"`
	Pattern          *string  `json:"pattern"`
	Material         *string  `json:"material"`
	Brand            *string  `json:"brand"`
	SeasonTags       []string `json:"season_tags"`
	StyleTags        []string `json:"style_tags"`
	Description      *string  `json:"description"`
	CareInstructions *string  `json:"care_instructions"`
	FileName         *string  `json:"file_name"`
	AutoProcess      *bool    `json:"auto_process"`
}

type UpdateWardrobeItemIn struct {
	Name             *string   `json:"name"`
	Category         *string   `json:"category"`
	ColorPrimary     *string   `json:"color_primary"`
	ColorSecondary   *string   `json:"color_secondary"`
	Pattern          *string   `json:"pattern"`
	Material         *string   `json:"material"`
	Brand            *string   `json:"brand"`
	SeasonTags       *[]string `json:"season_tags"`
	StyleTags        *[]string `json:"style_tags"`
	Description      *string   `json:"description"`
	CareInstructions *string   `json:"care_instructions"`
}

type WardrobeItemResponse struct {
	models.WardrobeItem
	ImageURL *string `json:"image_url"`
}

type WardrobeItemCreatedResponse struct {
	WardrobeItemResponse
	FileUploadUrl *string `json:"file_upload_url"`
}

type WardrobeListResponse struct {
	Tops        []WardrobeItemResponse `json:"tops"`
	Bottoms     []WardrobeItemResponse `json:"bottoms"`
	Outer       []WardrobeItemResponse `json:"outer"`
	Shoes       []WardrobeItemResponse `json:"shoes"`
	Dresses     []WardrobeItemResponse `json:"dresses"`
	Bags        []WardrobeItemResponse `json:"bags"`
	Hats        []WardrobeItemResponse `json:"hats"`
	Accessories []WardrobeItemResponse `json:"accessories"`
	Total       int                    `json:"total"`
}

// populatePresignedItemImages resolves read URLs for all responses
// concurrently through the URL cache, falling back to a direct presign when
// the cache layer misbehaves.
func (controller *WardrobeController) populatePresignedItemImages(ctx context.Context, items []*WardrobeItemResponse) {
	bucketName := services.GetEnv("R2_BUCKET_NAME", "closet-wardrobe")
	var wg sync.WaitGroup
	for _, item := range items {
		if item.ImageKey == nil || *item.ImageKey == "" {
			continue
		}
		wg.Add(1)
		go func(response *WardrobeItemResponse) {
			defer wg.Done()
			objectKey := *response.ImageKey
			imageUrl, err := controller.URLCache.GetReadURL(ctx, objectKey)
			if err != nil {
				fmt.Printf("CACHE WARNING: could not get url from cache for key '%s': %v. Falling back to direct generation.\n", objectKey, err)
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("failure_type", "cache_system")
					scope.SetExtra("objectKey", objectKey)
					sentry.CaptureException(err)
				})
				imageUrl, err = controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
				if err != nil {
					fmt.Printf("CRITICAL: R2 url could not be generated for key '%s': %v\n", objectKey, err)
					sentry.CaptureException(err)
					return
				}
			}
			response.ImageURL = &imageUrl
		}(item)
	}
	wg.Wait()
}

func (controller *WardrobeController) fetchOwnedItem(c echo.Context, db *gorm.DB) (*models.WardrobeItem, error) {
	user := c.Get("currentUser").(models.UserAccount)
	itemId, err := strconv.Atoi(c.Param("itemId"))
	if err != nil || itemId < 1 {
		return nil, echo.ErrBadRequest
	}
	var item models.WardrobeItem
	result := db.Limit(1).Find(&item, "id = ? and owner_id = ?", itemId, user.ID)
	if result.Error != nil {
		fmt.Println("Failed to fetch wardrobe item", result.Error)
		return nil, echo.ErrInternalServerError
	}
	if result.RowsAffected == 0 {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Wardrobe item not found")
	}
	return &item, nil
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {

	g.POST("", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		var req CreateWardrobeItemIn
		if err := c.Bind(&req); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		db, ok := c.Get("__db").(*gorm.DB)
		if !ok {
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Our service is not available, please try again a bit later"})
		}

		item := models.WardrobeItem{
			OwnerID:          user.ID,
			Name:             req.Name,
			Category:         models.ScanCategory(req.Category),
			ColorPrimary:     services.NormalizeAttribute(req.ColorPrimary),
			ColorSecondary:   services.NormalizeAttributePtr(req.ColorSecondary),
			Pattern:          services.NormalizeAttributePtr(req.Pattern),
			Material:         services.NormalizeAttributePtr(req.Material),
			Brand:            req.Brand,
			SeasonTags:       req.SeasonTags,
			StyleTags:        req.StyleTags,
			Description:      req.Description,
			CareInstructions: req.CareInstructions,
			ImageStatus:      "draft",
			ProcessingStatus: "idle",
		}

		var uploadUrl *string
		if req.FileName != nil && *req.FileName != "" {
			if !services.IsAllowedImageFile(*req.FileName) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported image file type"})
			}
			bucketName := services.GetEnv("R2_BUCKET_NAME", "closet-wardrobe")
			safeFileName := fmt.Sprintf("wardrobe/%v/%s", user.ID, *req.FileName)
			presignedUrl, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, safeFileName)
			if presignErr != nil {
				fmt.Printf("Unable to presign upload for %s: %s\n", user.Name, presignErr)
				sentry.CaptureException(presignErr)
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"message": "Error while preparing your image upload, please try again",
				})
			}
			uploadUrl = &presignedUrl
			item.ImageKey = &safeFileName
			item.ProcessingStatus = "pending"
		}

		if err := db.Create(&item).Error; err != nil {
			fmt.Println("Failed to create wardrobe item", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to save wardrobe item"})
		}

		autoProcess := req.AutoProcess == nil || *req.AutoProcess
		if item.ImageKey != nil && autoProcess {
			asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
			if !ok || asynqClient == nil {
				fmt.Println("Queue client missing, item stays pending: ", item.ID)
			} else {
				task, err := tasks.NewItemProcessingTask(item.ID)
				if err != nil {
					sentry.CaptureException(err)
					return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not schedule item processing"})
				}
				info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("process"))
				if err != nil {
					sentry.CaptureException(err)
					return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not schedule item processing"})
				}
				fmt.Println("[Queue] Item processing task submitted. Task ID: ", info.ID)
			}
		}

		return c.JSON(http.StatusCreated, WardrobeItemCreatedResponse{
			WardrobeItemResponse: WardrobeItemResponse{WardrobeItem: item},
			FileUploadUrl:        uploadUrl,
		})
	})

	g.GET("/list", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)

		var items []models.WardrobeItem
		if err := db.Where("owner_id = ?", user.ID).Order("created_at desc").Find(&items).Error; err != nil {
			fmt.Println("Failed to list wardrobe", err)
			return echo.ErrInternalServerError
		}

		response := WardrobeListResponse{
			Tops:        []WardrobeItemResponse{},
			Bottoms:     []WardrobeItemResponse{},
			Outer:       []WardrobeItemResponse{},
			Shoes:       []WardrobeItemResponse{},
			Dresses:     []WardrobeItemResponse{},
			Bags:        []WardrobeItemResponse{},
			Hats:        []WardrobeItemResponse{},
			Accessories: []WardrobeItemResponse{},
			Total:       len(items),
		}
		// resolve URLs over the flat slice first, group afterwards
		responses := make([]WardrobeItemResponse, len(items))
		all := make([]*WardrobeItemResponse, len(items))
		for i, item := range items {
			responses[i] = WardrobeItemResponse{WardrobeItem: item}
			all[i] = &responses[i]
		}
		controller.populatePresignedItemImages(c.Request().Context(), all)

		for _, item := range responses {
			switch item.Category {
			case models.CategoryTops:
				response.Tops = append(response.Tops, item)
			case models.CategoryBottoms:
				response.Bottoms = append(response.Bottoms, item)
			case models.CategoryOuter:
				response.Outer = append(response.Outer, item)
			case models.CategoryShoes:
				response.Shoes = append(response.Shoes, item)
			case models.CategoryDress:
				response.Dresses = append(response.Dresses, item)
			case models.CategoryBag:
				response.Bags = append(response.Bags, item)
			case models.CategoryHat:
				response.Hats = append(response.Hats, item)
			default:
				response.Accessories = append(response.Accessories, item)
			}
		}
		return c.JSON(http.StatusOK, response)
	})

	g.GET("/gaps", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)

		var items []models.WardrobeItem
		if err := db.Where("owner_id = ?", user.ID).Find(&items).Error; err != nil {
			fmt.Println("Failed to load wardrobe for gap analysis", err)
			return echo.ErrInternalServerError
		}
		analyzer := services.NewWardrobeGapAnalyzer()
		return c.JSON(http.StatusOK, analyzer.Analyze(items))
	})

	g.GET("/combinations", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)

		var items []models.WardrobeItem
		if err := db.Where("owner_id = ?", user.ID).Find(&items).Error; err != nil {
			fmt.Println("Failed to load wardrobe for combinations", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, echo.Map{
			"combinations": services.OutfitCombinations(items),
		})
	})

	g.GET("/:itemId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		item, err := controller.fetchOwnedItem(c, db)
		if err != nil {
			return err
		}
		response := WardrobeItemResponse{WardrobeItem: *item}
		controller.populatePresignedItemImages(c.Request().Context(), []*WardrobeItemResponse{&response})
		return c.JSON(http.StatusOK, response)
	})

	g.PUT("/:itemId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		item, err := controller.fetchOwnedItem(c, db)
		if err != nil {
			return err
		}
		var req UpdateWardrobeItemIn
		if err := c.Bind(&req); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if req.Category != nil {
			if !models.ValidateCategoryRaw(*req.Category) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown category"})
			}
			item.Category = models.ScanCategory(*req.Category)
		}
		if req.Name != nil {
			item.Name = *req.Name
		}
		if req.ColorPrimary != nil {
			item.ColorPrimary = services.NormalizeAttribute(*req.ColorPrimary)
		}
		if req.ColorSecondary != nil {
			item.ColorSecondary = services.NormalizeAttributePtr(req.ColorSecondary)
		}
		if req.Pattern != nil {
			item.Pattern = services.NormalizeAttributePtr(req.Pattern)
		}
		if req.Material != nil {
			item.Material = services.NormalizeAttributePtr(req.Material)
		}
		if req.Brand != nil {
			item.Brand = req.Brand
		}
		if req.SeasonTags != nil {
			item.SeasonTags = *req.SeasonTags
		}
		if req.StyleTags != nil {
			item.StyleTags = *req.StyleTags
		}
		if req.Description != nil {
			item.Description = req.Description
		}
		if req.CareInstructions != nil {
			item.CareInstructions = req.CareInstructions
		}
		if err := db.Save(item).Error; err != nil {
			fmt.Println("Failed to update wardrobe item", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, WardrobeItemResponse{WardrobeItem: *item})
	})

	g.DELETE("/:itemId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		item, err := controller.fetchOwnedItem(c, db)
		if err != nil {
			return err
		}
		if err := db.Delete(item).Error; err != nil {
			fmt.Println("Failed to delete wardrobe item", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
	})

	g.POST("/:itemId/wear", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		item, err := controller.fetchOwnedItem(c, db)
		if err != nil {
			return err
		}
		now := time.Now()
		item.WearCount++
		item.LastWornDate = &now
		if err := db.Save(item).Error; err != nil {
			fmt.Println("Failed to record wear", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, echo.Map{
			"wear_count":     item.WearCount,
			"last_worn_date": item.LastWornDate,
		})
	})

	g.GET("/:itemId/similar", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		item, err := controller.fetchOwnedItem(c, db)
		if err != nil {
			return err
		}
		limit := 5
		if raw := c.QueryParam("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
				limit = parsed
			}
		}
		if len(item.Embedding) == 0 {
			return c.JSON(http.StatusOK, echo.Map{
				"results": []services.SimilarItem{},
				"message": "Item is not processed yet",
			})
		}
		var candidates []models.WardrobeItem
		if err := db.Where("owner_id = ?", user.ID).Find(&candidates).Error; err != nil {
			fmt.Println("Failed to load wardrobe for similarity search", err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, echo.Map{
			"results": services.FindSimilarItems(candidates, *item, limit),
		})
	})
}
