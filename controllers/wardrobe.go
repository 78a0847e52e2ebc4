package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"closetapi/models"
	"closetapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type WardrobeListOut struct {
	Jackets     []models.WardrobeItemOut `json:"jackets"`
	Overshirts  []models.WardrobeItemOut `json:"overshirts"`
	Tops        []models.WardrobeItemOut `json:"tops"`
	Bottoms     []models.WardrobeItemOut `json:"bottoms"`
	Shoes       []models.WardrobeItemOut `json:"shoes"`
	Accessories []models.WardrobeItemOut `json:"accessories"`
	Other       []models.WardrobeItemOut `json:"other"`
}

type WardrobeController struct {
	AWSService services.AWSServiceProvider
	URLCache   services.URLCacheServiceProvider
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {
	g.POST("/items", controller.CreateItem)
	g.GET("/items", controller.ListItems)
	g.DELETE("/items/:id", controller.DeleteItem)
}

func (controller *WardrobeController) CreateItem(c echo.Context) error {
	var req models.CreateWardrobeItemIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var category models.Category
	if err := db.Where(models.Category{Name: req.CategoryName}).FirstOrCreate(&category).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to resolve category"})
	}

	item := models.WardrobeItem{
		Name:           req.Name,
		OwnerID:        user.ID,
		CategoryID:     category.ID,
		Category:       category,
		Brand:          req.Brand,
		Material:       req.Material,
		Color:          req.Color,
		FormalityScore: req.FormalityScore,
		Seasons:        req.Seasons,
		Status:         "in_closet",
	}

	var uploadUrl string
	if req.FileName != nil && *req.FileName != "" {
		bucketName := services.GetEnv("R2_BUCKET_NAME", "")
		safeFileName := fmt.Sprintf("wardrobe/%s", *req.FileName)
		url, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, safeFileName)
		if presignErr != nil {
			log.Printf("Unable to presign upload for %s, %s", item.Name, presignErr)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"message": "Error while creating item with attachment",
			})
		}
		uploadUrl = url
		item.ImageURL = &safeFileName
	}

	if err := db.Create(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save item"})
	}

	return c.JSON(http.StatusCreated, models.WardrobeItemCreatedOut{
		Item:          wardrobeItemOut(item, nil),
		FileUploadUrl: uploadUrl,
	})
}

func (controller *WardrobeController) ListItems(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var items []models.WardrobeItem
	if err := db.Preload("Category").Where("owner_id = ?", user.ID).Order("id asc").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch items"})
	}

	processed := controller.populatePresignedItemImages(c.Request().Context(), items)

	response := WardrobeListOut{
		Jackets:     []models.WardrobeItemOut{},
		Overshirts:  []models.WardrobeItemOut{},
		Tops:        []models.WardrobeItemOut{},
		Bottoms:     []models.WardrobeItemOut{},
		Shoes:       []models.WardrobeItemOut{},
		Accessories: []models.WardrobeItemOut{},
		Other:       []models.WardrobeItemOut{},
	}
	for i, out := range processed {
		slot, known := services.SlotForCategory(items[i].Category.Name)
		if !known {
			response.Other = append(response.Other, out)
			continue
		}
		switch slot {
		case services.SlotJacket:
			response.Jackets = append(response.Jackets, out)
		case services.SlotOvershirt:
			response.Overshirts = append(response.Overshirts, out)
		case services.SlotShirt, services.SlotUndershirt:
			response.Tops = append(response.Tops, out)
		case services.SlotPants:
			response.Bottoms = append(response.Bottoms, out)
		case services.SlotShoes:
			response.Shoes = append(response.Shoes, out)
		case services.SlotBelt, services.SlotWatch:
			response.Accessories = append(response.Accessories, out)
		}
	}

	return c.JSON(http.StatusOK, response)
}

func (controller *WardrobeController) DeleteItem(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var item models.WardrobeItem
	if err := db.Where("id = ? AND owner_id = ?", c.Param("id"), user.ID).Take(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Item not found"})
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch item"})
	}
	if err := db.Delete(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete item"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}

// populatePresignedItemImages enriches raw wardrobe rows with presigned read
// URLs concurrently, with a manual R2 failsafe for when the cache layer
// itself fails.
func (controller *WardrobeController) populatePresignedItemImages(ctx context.Context, items []models.WardrobeItem) []models.WardrobeItemOut {
	if len(items) == 0 {
		return []models.WardrobeItemOut{}
	}

	var wg sync.WaitGroup
	processed := make([]models.WardrobeItemOut, len(items))
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")

	for i, wardrobeItem := range items {
		wg.Add(1)
		go func(index int, item models.WardrobeItem) {
			defer wg.Done()

			var imageUrl string
			if item.ImageURL != nil && *item.ImageURL != "" {
				objectKey := *item.ImageURL
				url, err := controller.URLCache.GetReadURL(ctx, objectKey)
				if err == nil {
					imageUrl = url
				} else {
					log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)
					sentry.WithScope(func(scope *sentry.Scope) {
						scope.SetTag("failure_type", "cache_system")
						scope.SetExtra("objectKey", objectKey)
						sentry.CaptureException(err)
					})
					fallbackUrl, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
					if fallbackErr != nil {
						log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
						sentry.CaptureException(fallbackErr)
					} else {
						imageUrl = fallbackUrl
					}
				}
			}
			var uri *string
			if imageUrl != "" {
				uri = &imageUrl
			}
			processed[index] = wardrobeItemOut(item, uri)
		}(i, wardrobeItem)
	}

	wg.Wait()
	return processed
}

func wardrobeItemOut(item models.WardrobeItem, uri *string) models.WardrobeItemOut {
	return models.WardrobeItemOut{
		ID:             item.ID,
		Name:           item.Name,
		Category:       item.Category.Name,
		Brand:          item.Brand,
		Material:       item.Material,
		Color:          item.Color,
		FormalityScore: item.FormalityScore,
		Seasons:        item.Seasons,
		Status:         item.Status,
		Uri:            uri,
		CreatedAt:      item.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      item.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
