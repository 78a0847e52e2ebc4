package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"closetapi/models"
	"closetapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type OutfitScoreOut struct {
	Breakdown services.ScoreBreakdown `json:"breakdown"`
	TuckStyle string                  `json:"tuck_style"`
}

type OutfitsController struct {
	URLCache services.URLCacheServiceProvider
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group) {
	g.POST("/outfits", controller.CreateOutfit)
	g.GET("/outfits", controller.ListOutfits)
	g.POST("/outfits/score", controller.ScoreOutfit)
}

func (controller *OutfitsController) CreateOutfit(c echo.Context) error {
	var req models.CreateOutfitIn
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

	name := req.Name
	if name == "" {
		name = "My Outfit"
	}
	tuckStyle := req.TuckStyle
	if tuckStyle == "" {
		tuckStyle = "untucked"
	}

	store := services.GormOutfitStore{DB: db}
	saved, err := store.CreateOutfit(c.Request().Context(), user.ID, name, "saved", tuckStyle, req.ItemIDs)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateOutfit) {
			existing, findErr := store.FindOutfitBySignature(c.Request().Context(), user.ID, services.ItemSignature(req.ItemIDs))
			if findErr == nil && existing != nil {
				return c.JSON(http.StatusConflict, echo.Map{
					"error":              "An outfit with this exact item combination already exists",
					"existing_outfit_id": existing.ID,
				})
			}
			return c.JSON(http.StatusConflict, map[string]string{"error": "An outfit with this exact item combination already exists"})
		}
		if errors.Is(err, services.ErrUnknownItems) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Some items do not exist in your closet"})
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save outfit"})
	}

	return c.JSON(http.StatusCreated, models.OutfitOut{
		ID:        saved.ID,
		Name:      saved.Name,
		Source:    saved.Source,
		TuckStyle: tuckStyle,
		ItemIDs:   saved.ItemIDs,
	})
}

func (controller *OutfitsController) ListOutfits(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var outfits []models.Outfit
	if err := db.Preload("Items.WardrobeItem.Category").Where("owner_id = ?", user.ID).Order("id asc").Find(&outfits).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch outfits"})
	}

	ctx := c.Request().Context()
	response := make([]models.OutfitOut, 0, len(outfits))
	for _, outfit := range outfits {
		out := models.OutfitOut{
			ID:        outfit.ID,
			Name:      outfit.Name,
			Source:    outfit.Source,
			TuckStyle: outfit.TuckStyle,
			ItemIDs:   make([]uint, 0, len(outfit.Items)),
			Slots:     make([]string, 0, len(outfit.Items)),
			Items:     make([]models.WardrobeItemOut, 0, len(outfit.Items)),
			CreatedAt: outfit.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		for _, item := range outfit.Items {
			out.ItemIDs = append(out.ItemIDs, item.WardrobeItemID)
			out.Slots = append(out.Slots, item.Slot)
			out.Items = append(out.Items, wardrobeItemOut(item.WardrobeItem, controller.itemReadURL(ctx, item.WardrobeItem)))
		}
		response = append(response, out)
	}
	return c.JSON(http.StatusOK, response)
}

func (controller *OutfitsController) itemReadURL(ctx context.Context, item models.WardrobeItem) *string {
	if item.ImageURL == nil || *item.ImageURL == "" {
		return nil
	}
	url, err := controller.URLCache.GetReadURL(ctx, *item.ImageURL)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("failed to presign outfit item image %q: %w", *item.ImageURL, err))
		return nil
	}
	if url == "" {
		return nil
	}
	return &url
}

func (controller *OutfitsController) ScoreOutfit(c echo.Context) error {
	var req models.ScoreOutfitIn
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

	var items []models.WardrobeItem
	if err := db.Preload("Category").Where("id IN ? AND owner_id = ?", req.ItemIDs, user.ID).Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch items"})
	}
	if len(items) != len(dedupeIDs(req.ItemIDs)) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Some items do not exist in your closet"})
	}

	slots := map[services.Slot]services.EnrichedItem{}
	for _, item := range items {
		enriched := services.Enrich(item)
		if !enriched.SlotKnown {
			continue
		}
		// first item wins a contested slot, matching collection order
		if _, taken := slots[enriched.Slot]; taken {
			continue
		}
		slots[enriched.Slot] = enriched
	}

	breakdown := services.ScoreSlots(slots)
	return c.JSON(http.StatusOK, OutfitScoreOut{
		Breakdown: breakdown,
		TuckStyle: services.TuckStyleFor(breakdown.FormalityScore),
	})
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
