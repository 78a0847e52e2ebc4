package services

import (
	"testing"

	"closetapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeItem(id uint, category string, formality *int, seasons []string) models.WardrobeItem {
	item := models.WardrobeItem{
		Name:           category,
		Category:       models.Category{Name: category},
		FormalityScore: formality,
		Seasons:        seasons,
		Status:         "in_closet",
	}
	item.ID = id
	return item
}

func intPtr(i int) *int {
	return &i
}

func TestEnrichDefaults(t *testing.T) {
	enriched := Enrich(fakeItem(1, "Shirt", nil, nil))

	assert.Equal(t, SlotShirt, enriched.Slot)
	assert.True(t, enriched.SlotKnown)
	assert.Equal(t, ColorUnknown, enriched.InferredColor)
	assert.Equal(t, 5, enriched.FormalityScore)
	assert.Equal(t, BandSmartCasual, enriched.FormalityBand)
}

func TestEnrichClampsFormality(t *testing.T) {
	low := Enrich(fakeItem(1, "Shirt", intPtr(0), nil))
	assert.Equal(t, 1, low.FormalityScore)
	assert.Equal(t, BandCasual, low.FormalityBand)

	high := Enrich(fakeItem(2, "Shirt", intPtr(15), nil))
	assert.Equal(t, 10, high.FormalityScore)
	assert.Equal(t, BandRefined, high.FormalityBand)
}

func TestEnrichDoesNotMutateItem(t *testing.T) {
	formality := 12
	item := fakeItem(1, "Shirt", &formality, nil)
	Enrich(item)

	require.NotNil(t, item.FormalityScore)
	assert.Equal(t, 12, *item.FormalityScore, "enrichment must not write back into the raw item")
}

func TestFormalityBandBoundaries(t *testing.T) {
	assert.Equal(t, BandCasual, FormalityBandFor(3))
	assert.Equal(t, BandSmartCasual, FormalityBandFor(4))
	assert.Equal(t, BandSmartCasual, FormalityBandFor(6))
	assert.Equal(t, BandRefined, FormalityBandFor(7))
}

func TestWeatherWeightSeasonalAdjustment(t *testing.T) {
	// winter-only jacket pushes past the scale, clamps at 3
	jacket := Enrich(fakeItem(1, "Jacket", nil, []string{"Winter"}))
	assert.Equal(t, 3, jacket.WeatherWeight)

	// summer-only t-shirt would go negative, clamps at 0
	tshirt := Enrich(fakeItem(2, "T-Shirt", nil, []string{"Summer"}))
	assert.Equal(t, 0, tshirt.WeatherWeight)

	// opposing seasons cancel out
	shirt := Enrich(fakeItem(3, "Shirt", nil, []string{"Summer", "Winter"}))
	assert.Equal(t, 1, shirt.WeatherWeight)

	// no seasons means the raw category base
	plain := Enrich(fakeItem(4, "Sweater", nil, nil))
	assert.Equal(t, 2, plain.WeatherWeight)
}

func TestWeatherWeightAlwaysInRange(t *testing.T) {
	categories := []string{"Jacket", "Coat", "Sweater", "Shirt", "T-Shirt", "Pants", "Shorts", "Boots", "Sandals", "Belt", "Watch", "Poncho"}
	seasonSets := [][]string{nil, {"Summer"}, {"Winter"}, {"Winter", "Winter"}, {"Spring", "Fall"}}

	for _, category := range categories {
		for _, seasons := range seasonSets {
			enriched := Enrich(fakeItem(1, category, nil, seasons))
			assert.GreaterOrEqual(t, enriched.WeatherWeight, 0, "category %s seasons %v", category, seasons)
			assert.LessOrEqual(t, enriched.WeatherWeight, 3, "category %s seasons %v", category, seasons)
		}
	}
}

func TestEnrichUnknownCategory(t *testing.T) {
	enriched := Enrich(fakeItem(1, "Poncho", nil, nil))

	assert.False(t, enriched.SlotKnown)
	assert.Equal(t, 2, enriched.WeatherWeight)
}

func TestEnrichAllKeepsOrder(t *testing.T) {
	items := []models.WardrobeItem{
		fakeItem(7, "Shirt", nil, nil),
		fakeItem(3, "Pants", nil, nil),
	}
	enriched := EnrichAll(items)

	require.Len(t, enriched, 2)
	assert.Equal(t, uint(7), enriched[0].Item.ID)
	assert.Equal(t, uint(3), enriched[1].Item.ID)
}
