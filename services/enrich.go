package services

import (
	"math"

	"closetapi/models"
)

type Slot string

const (
	SlotJacket     Slot = "jacket"
	SlotOvershirt  Slot = "overshirt"
	SlotShirt      Slot = "shirt"
	SlotUndershirt Slot = "undershirt"
	SlotPants      Slot = "pants"
	SlotShoes      Slot = "shoes"
	SlotBelt       Slot = "belt"
	SlotWatch      Slot = "watch"
)

// SlotOrder is the fixed fill order: outerwear, tops, bottoms, footwear, accessories.
var SlotOrder = []Slot{SlotJacket, SlotOvershirt, SlotShirt, SlotUndershirt, SlotPants, SlotShoes, SlotBelt, SlotWatch}

// categorySlots maps category names to slots. Anything not listed here is
// simply not placeable in a candidate, it is ignored rather than coerced.
var categorySlots = map[string]Slot{
	"Jacket":     SlotJacket,
	"Coat":       SlotJacket,
	"Blazer":     SlotJacket,
	"Overshirt":  SlotOvershirt,
	"Sweater":    SlotOvershirt,
	"Cardigan":   SlotOvershirt,
	"Hoodie":     SlotOvershirt,
	"Shirt":      SlotShirt,
	"Polo":       SlotShirt,
	"T-Shirt":    SlotShirt,
	"Undershirt": SlotUndershirt,
	"Tank Top":   SlotUndershirt,
	"Pants":      SlotPants,
	"Jeans":      SlotPants,
	"Chinos":     SlotPants,
	"Shorts":     SlotPants,
	"Shoes":      SlotShoes,
	"Sneakers":   SlotShoes,
	"Boots":      SlotShoes,
	"Loafers":    SlotShoes,
	"Sandals":    SlotShoes,
	"Belt":       SlotBelt,
	"Watch":      SlotWatch,
}

// categoryBaseWeights is the warmth base per category before the seasonal
// adjustment. Outerwear 2-3, mid layers 1-2, minimal coverage 0.
var categoryBaseWeights = map[string]int{
	"Jacket":     3,
	"Coat":       3,
	"Blazer":     2,
	"Overshirt":  2,
	"Sweater":    2,
	"Cardigan":   2,
	"Hoodie":     2,
	"Shirt":      1,
	"Polo":       1,
	"T-Shirt":    0,
	"Undershirt": 0,
	"Tank Top":   0,
	"Pants":      1,
	"Jeans":      1,
	"Chinos":     1,
	"Shorts":     0,
	"Shoes":      1,
	"Sneakers":   1,
	"Boots":      2,
	"Loafers":    1,
	"Sandals":    0,
	"Belt":       0,
	"Watch":      0,
}

const unknownCategoryBaseWeight = 2

const (
	BandCasual      = "casual"
	BandSmartCasual = "smart-casual"
	BandRefined     = "refined"
)

const ColorUnknown = "unknown"

const defaultFormalityScore = 5

// EnrichedItem is a WardrobeItem plus derived comparison attributes. It is
// computed on demand and never persisted, the derived fields are a pure
// function of the raw item.
type EnrichedItem struct {
	Item           models.WardrobeItem
	Slot           Slot
	SlotKnown      bool
	InferredColor  string
	FormalityScore int // clamped to 1..10, defaulted to 5
	FormalityBand  string
	WeatherWeight  int // 0..3
}

func (e EnrichedItem) IsAccessory() bool {
	return e.Slot == SlotBelt || e.Slot == SlotWatch
}

func SlotForCategory(categoryName string) (Slot, bool) {
	slot, ok := categorySlots[categoryName]
	return slot, ok
}

// Enrich derives comparison attributes for one wardrobe item. It always
// produces a value, missing fields fall back to unknown/defaults.
func Enrich(item models.WardrobeItem) EnrichedItem {
	slot, slotKnown := SlotForCategory(item.Category.Name)

	color := ColorUnknown
	if item.Color != nil && *item.Color != "" {
		color = *item.Color
	}

	formality := defaultFormalityScore
	if item.FormalityScore != nil {
		formality = clampInt(*item.FormalityScore, 1, 10)
	}

	return EnrichedItem{
		Item:           item,
		Slot:           slot,
		SlotKnown:      slotKnown,
		InferredColor:  color,
		FormalityScore: formality,
		FormalityBand:  FormalityBandFor(formality),
		WeatherWeight:  weatherWeightFor(item),
	}
}

func EnrichAll(items []models.WardrobeItem) []EnrichedItem {
	enriched := make([]EnrichedItem, 0, len(items))
	for _, item := range items {
		enriched = append(enriched, Enrich(item))
	}
	return enriched
}

// FormalityBandFor classifies a 1-10 formality score, clamping out of range
// input: 1-3 casual, 4-6 smart-casual, 7-10 refined.
func FormalityBandFor(score int) string {
	score = clampInt(score, 1, 10)
	switch {
	case score <= 3:
		return BandCasual
	case score <= 6:
		return BandSmartCasual
	default:
		return BandRefined
	}
}

func weatherWeightFor(item models.WardrobeItem) int {
	base, ok := categoryBaseWeights[item.Category.Name]
	if !ok {
		base = unknownCategoryBaseWeight
	}
	if len(item.Seasons) == 0 {
		return clampInt(base, 0, 3)
	}

	var total float64
	for _, season := range item.Seasons {
		switch models.Season(season) {
		case models.SeasonSummer:
			total -= 1
		case models.SeasonWinter:
			total += 1
		}
	}
	adjusted := float64(base) + total/float64(len(item.Seasons))
	return clampInt(int(math.Round(adjusted)), 0, 3)
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
