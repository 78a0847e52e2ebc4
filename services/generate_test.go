package services

import (
	"errors"
	"testing"

	"closetapi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mildWeather() WeatherContext {
	// mean 14°C, target weight 2
	return WeatherContext{Source: WeatherSourceNeutral, Condition: "mild", HighTemp: 18, LowTemp: 10, PrecipChance: 20, TargetWeight: 2}
}

func TestItemSignature(t *testing.T) {
	assert.Equal(t, "1,2,3", ItemSignature([]uint{3, 1, 2}))
	assert.Equal(t, ItemSignature([]uint{5, 9}), ItemSignature([]uint{9, 5}))
	assert.Equal(t, "4,7", ItemSignature([]uint{7, 4, 7}), "duplicates collapse")
	assert.Equal(t, "", ItemSignature(nil))
}

func TestGenerateMissingPants(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Shirt", intPtr(5), nil),
		fakeItem(2, "Shoes", intPtr(5), nil),
	})

	candidate, err := GenerateCandidate(pool, mildWeather(), nil)

	require.Nil(t, candidate)
	var insufficient *InsufficientWardrobeError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, SlotPants, insufficient.Slot)
	assert.Contains(t, err.Error(), "Pants")
}

func TestGenerateMissingTopNamesShirt(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Pants", intPtr(5), nil),
		fakeItem(2, "Shoes", intPtr(5), nil),
	})

	_, err := GenerateCandidate(pool, mildWeather(), nil)

	var insufficient *InsufficientWardrobeError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, SlotShirt, insufficient.Slot, "no shirt and no undershirt reports the shirt slot")
}

func TestGenerateUndershirtStandsInForShirt(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Undershirt", intPtr(4), nil),
		fakeItem(2, "Pants", intPtr(5), nil),
	})

	candidate, err := GenerateCandidate(pool, mildWeather(), nil)

	require.NoError(t, err)
	assert.Contains(t, candidate.Slots, SlotUndershirt)
	assert.NotContains(t, candidate.Slots, SlotShirt)
}

func TestGenerateMildDayKeepsItLean(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Shirt", intPtr(6), nil),
		fakeItem(2, "Undershirt", intPtr(4), nil),
		fakeItem(3, "Pants", intPtr(5), nil),
		fakeItem(4, "Shoes", intPtr(5), nil),
	})

	candidate, err := GenerateCandidate(pool, mildWeather(), nil)

	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 3, 4}, candidate.ItemIDs(), "the undershirt stays in the drawer when the shirt already covers the warmth target")
	assert.Equal(t, 53, candidate.Score.FormalityScore)
	assert.Equal(t, 15, candidate.Score.ConsistencyBonus)
	assert.Equal(t, 52, candidate.Score.Total)
	assert.Equal(t, "untucked", candidate.TuckStyle)
}

func TestGenerateColdDayAddsLayers(t *testing.T) {
	cold := WeatherContext{Source: WeatherSourceSeasonal, Condition: "cold", HighTemp: 4, LowTemp: -3, PrecipChance: 40, TargetWeight: 3}
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Jacket", intPtr(6), nil),
		fakeItem(2, "Shirt", intPtr(6), nil),
		fakeItem(3, "Pants", intPtr(5), nil),
		fakeItem(4, "Boots", intPtr(5), nil),
	})

	candidate, err := GenerateCandidate(pool, cold, nil)

	require.NoError(t, err)
	assert.Contains(t, candidate.Slots, SlotJacket)
	assert.Contains(t, candidate.Slots, SlotShirt)
	assert.Contains(t, candidate.Slots, SlotPants)
}

func TestGenerateHotDaySkipsOuterwear(t *testing.T) {
	hot := WeatherContext{Source: WeatherSourceForecast, Condition: "warm", HighTemp: 32, LowTemp: 22, PrecipChance: 5, TargetWeight: 0}
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Jacket", intPtr(6), nil),
		fakeItem(2, "T-Shirt", intPtr(3), nil),
		fakeItem(3, "Shorts", intPtr(2), nil),
		fakeItem(4, "Sandals", intPtr(2), nil),
	})

	candidate, err := GenerateCandidate(pool, hot, nil)

	require.NoError(t, err)
	assert.NotContains(t, candidate.Slots, SlotJacket)
}

func TestGenerateRespectsExclusions(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Shirt", intPtr(5), nil),
		fakeItem(2, "Pants", intPtr(5), nil),
		fakeItem(3, "Pants", intPtr(5), nil),
	})

	candidate, err := GenerateCandidate(pool, mildWeather(), map[uint]bool{2: true})

	require.NoError(t, err)
	assert.Equal(t, uint(3), candidate.Slots[SlotPants].Item.ID)
}

func TestGenerateExclusionCanStarveMandatorySlot(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Shirt", intPtr(5), nil),
		fakeItem(2, "Pants", intPtr(5), nil),
	})

	_, err := GenerateCandidate(pool, mildWeather(), map[uint]bool{2: true})

	var insufficient *InsufficientWardrobeError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, SlotPants, insufficient.Slot)
}

func TestGenerateTieBreaksByPoolOrder(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(10, "Shirt", intPtr(5), nil),
		fakeItem(11, "Shirt", intPtr(5), nil),
		fakeItem(12, "Pants", intPtr(5), nil),
	})

	candidate, err := GenerateCandidate(pool, mildWeather(), nil)

	require.NoError(t, err)
	assert.Equal(t, uint(10), candidate.Slots[SlotShirt].Item.ID, "equal candidates keep collection order")
}

func TestGenerateDeterministic(t *testing.T) {
	pool := EnrichAll([]models.WardrobeItem{
		fakeItem(1, "Jacket", intPtr(6), []string{"Winter"}),
		fakeItem(2, "Shirt", intPtr(6), nil),
		fakeItem(3, "Shirt", intPtr(4), []string{"Summer"}),
		fakeItem(4, "Pants", intPtr(5), nil),
		fakeItem(5, "Shoes", intPtr(5), nil),
		fakeItem(6, "Belt", intPtr(5), nil),
	})

	first, err := GenerateCandidate(pool, mildWeather(), nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := GenerateCandidate(pool, mildWeather(), nil)
		require.NoError(t, err)
		assert.Equal(t, first.Signature(), again.Signature())
	}
}

func TestTuckStyleThreshold(t *testing.T) {
	assert.Equal(t, "tucked", TuckStyleFor(60))
	assert.Equal(t, "untucked", TuckStyleFor(59))
}
