package services

import "math"

const (
	formalityWeight   = 0.7
	consistencyWeight = 0.3
)

const (
	visibleLayerWeight   = 1.0
	coveredLayerWeight   = 0.8
	accessoryLayerWeight = 0.5
)

const (
	LayerReasonVisible   = "visible"
	LayerReasonCovered   = "covered"
	LayerReasonAccessory = "accessory"
)

type LayerAdjustment struct {
	ItemID        uint    `json:"item_id"`
	Slot          Slot    `json:"slot"`
	OriginalScore int     `json:"original_score"`
	Weight        float64 `json:"weight"`
	AdjustedScore float64 `json:"adjusted_score"`
	Reason        string  `json:"reason"`
}

type ScoreBreakdown struct {
	FormalityScore    int               `json:"formality_score"` // 0-100
	FormalityWeight   float64           `json:"formality_weight"`
	ConsistencyBonus  int               `json:"consistency_bonus"` // 0, 10 or 15
	ConsistencyWeight float64           `json:"consistency_weight"`
	LayerAdjustments  []LayerAdjustment `json:"layer_adjustments"`
	Total             int               `json:"total"`
	Percentage        int               `json:"percentage"`
}

// ScoreSlots computes the compatibility score for a set of populated slots.
// Pure, no failure modes: an empty slot set scores zero.
//
// The consistency bonus values (15/10/0) already carry the 0.3 weighting as a
// percentage delta, so the total is formality*0.7 + bonus, capped to [0,100].
func ScoreSlots(slots map[Slot]EnrichedItem) ScoreBreakdown {
	breakdown := ScoreBreakdown{
		FormalityWeight:   formalityWeight,
		ConsistencyWeight: consistencyWeight,
		LayerAdjustments:  []LayerAdjustment{},
	}

	var formalities []float64
	for _, slot := range SlotOrder {
		item, ok := slots[slot]
		if !ok {
			continue
		}
		if !item.IsAccessory() {
			formalities = append(formalities, float64(item.FormalityScore))
		}
		weight, reason := layerWeight(slot, slots)
		breakdown.LayerAdjustments = append(breakdown.LayerAdjustments, LayerAdjustment{
			ItemID:        item.Item.ID,
			Slot:          slot,
			OriginalScore: item.FormalityScore,
			Weight:        weight,
			AdjustedScore: float64(item.FormalityScore) * weight,
			Reason:        reason,
		})
	}

	if len(formalities) == 0 {
		return breakdown
	}

	mean := meanOf(formalities)
	breakdown.FormalityScore = int(math.Round(mean * 10))
	breakdown.ConsistencyBonus = consistencyBonusFor(varianceOf(formalities, mean))

	total := math.Round(float64(breakdown.FormalityScore)*formalityWeight + float64(breakdown.ConsistencyBonus))
	breakdown.Total = clampInt(int(total), 0, 100)
	breakdown.Percentage = breakdown.Total
	return breakdown
}

// low variance means the pieces sit in the same formality register
func consistencyBonusFor(variance float64) int {
	switch {
	case variance < 2:
		return 15
	case variance < 4:
		return 10
	default:
		return 0
	}
}

func layerWeight(slot Slot, slots map[Slot]EnrichedItem) (float64, string) {
	_, hasJacket := slots[SlotJacket]
	_, hasOvershirt := slots[SlotOvershirt]
	_, hasShirt := slots[SlotShirt]

	switch slot {
	case SlotBelt, SlotWatch:
		return accessoryLayerWeight, LayerReasonAccessory
	case SlotOvershirt:
		if hasJacket {
			return coveredLayerWeight, LayerReasonCovered
		}
	case SlotShirt:
		if hasJacket || hasOvershirt {
			return coveredLayerWeight, LayerReasonCovered
		}
	case SlotUndershirt:
		if hasJacket || hasOvershirt || hasShirt {
			return coveredLayerWeight, LayerReasonCovered
		}
	}
	return visibleLayerWeight, LayerReasonVisible
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
