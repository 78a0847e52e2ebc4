package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var slotDisplayNames = map[Slot]string{
	SlotJacket:     "Jacket",
	SlotOvershirt:  "Overshirt",
	SlotShirt:      "Shirt",
	SlotUndershirt: "Undershirt",
	SlotPants:      "Pants",
	SlotShoes:      "Shoes",
	SlotBelt:       "Belt",
	SlotWatch:      "Watch",
}

// InsufficientWardrobeError means a mandatory slot had zero unexcluded
// candidates. The caller must surface it rather than accept a torso-only outfit.
type InsufficientWardrobeError struct {
	Slot Slot
}

func (e *InsufficientWardrobeError) Error() string {
	return fmt.Sprintf("insufficient wardrobe: no eligible item for mandatory slot %s", slotDisplayNames[e.Slot])
}

// OutfitCandidate maps slots to selected items. It exists only during
// generation and scoring, persistence happens elsewhere.
type OutfitCandidate struct {
	Slots     map[Slot]EnrichedItem
	TuckStyle string
	Score     ScoreBreakdown
}

// ItemIDs returns selected item ids in slot order.
func (c *OutfitCandidate) ItemIDs() []uint {
	ids := make([]uint, 0, len(c.Slots))
	for _, slot := range SlotOrder {
		if item, ok := c.Slots[slot]; ok {
			ids = append(ids, item.Item.ID)
		}
	}
	return ids
}

func (c *OutfitCandidate) Signature() string {
	return ItemSignature(c.ItemIDs())
}

// ItemSignature is the order-independent identity of an item combination:
// sorted, de-duplicated ids joined with commas.
func ItemSignature(itemIDs []uint) string {
	seen := make(map[uint]bool, len(itemIDs))
	unique := make([]uint, 0, len(itemIDs))
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	parts := make([]string, len(unique))
	for i, id := range unique {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

// GenerateCandidate builds one outfit from the enriched pool for the given
// weather, skipping excluded item ids. Greedy over the fixed slot order:
// every slot ranks its candidates by weather-weight closeness, then by
// formality proximity to the running average of already chosen pieces, ties
// resolved by the pool's original collection order (sort is stable).
//
// A top (shirt, or undershirt standing in for one) and pants are mandatory.
// Warmth layers (jacket, overshirt, a second top) are only added while the
// projected outfit warmth sits below the weather target. Shoes, belt and
// watch fill whenever the closet has something eligible.
func GenerateCandidate(pool []EnrichedItem, weather WeatherContext, excludedIDs map[uint]bool) (*OutfitCandidate, error) {
	slots := make(map[Slot]EnrichedItem)
	target := weather.TargetWeight

	warmth := 0
	formalitySum := 0
	pantsPending := true
	topPending := true

	projected := func() int {
		p := warmth
		if topPending {
			p++
		}
		if pantsPending {
			p++
		}
		return p
	}
	runningFormality := func() float64 {
		if len(slots) == 0 {
			return float64(defaultFormalityScore)
		}
		return float64(formalitySum) / float64(len(slots))
	}
	choose := func(slot Slot, item EnrichedItem) {
		slots[slot] = item
		if !item.IsAccessory() {
			warmth += item.WeatherWeight
		}
		formalitySum += item.FormalityScore
	}

	for _, slot := range SlotOrder {
		candidates := eligibleForSlot(pool, slot, excludedIDs, slots)

		switch slot {
		case SlotJacket, SlotOvershirt:
			if projected() >= target || len(candidates) == 0 {
				continue
			}
			choose(slot, rankCandidates(candidates, target-projected(), runningFormality(), false)[0])

		case SlotShirt:
			if len(candidates) == 0 {
				// an undershirt may still satisfy the top requirement
				continue
			}
			choose(slot, rankCandidates(candidates, minInt(1, target), runningFormality(), false)[0])
			topPending = false

		case SlotUndershirt:
			if !topPending {
				// already have a shirt, undershirt becomes a warmth layer
				if projected() >= target || len(candidates) == 0 {
					continue
				}
				choose(slot, rankCandidates(candidates, target-projected(), runningFormality(), false)[0])
				continue
			}
			if len(candidates) == 0 {
				return nil, &InsufficientWardrobeError{Slot: SlotShirt}
			}
			choose(slot, rankCandidates(candidates, minInt(1, target), runningFormality(), false)[0])
			topPending = false

		case SlotPants:
			if len(candidates) == 0 {
				return nil, &InsufficientWardrobeError{Slot: SlotPants}
			}
			choose(slot, rankCandidates(candidates, minInt(1, target), runningFormality(), false)[0])
			pantsPending = false

		case SlotShoes:
			if len(candidates) == 0 {
				continue
			}
			choose(slot, rankCandidates(candidates, minInt(1, target), runningFormality(), false)[0])

		case SlotBelt, SlotWatch:
			if len(candidates) == 0 {
				continue
			}
			choose(slot, rankCandidates(candidates, 0, runningFormality(), true)[0])
		}
	}

	candidate := &OutfitCandidate{Slots: slots}
	candidate.Score = ScoreSlots(slots)
	candidate.TuckStyle = TuckStyleFor(candidate.Score.FormalityScore)
	return candidate, nil
}

func eligibleForSlot(pool []EnrichedItem, slot Slot, excludedIDs map[uint]bool, chosen map[Slot]EnrichedItem) []EnrichedItem {
	usedIDs := make(map[uint]bool, len(chosen))
	for _, item := range chosen {
		usedIDs[item.Item.ID] = true
	}

	var out []EnrichedItem
	for _, item := range pool {
		if !item.SlotKnown || item.Slot != slot {
			continue
		}
		if excludedIDs[item.Item.ID] || usedIDs[item.Item.ID] {
			continue
		}
		out = append(out, item)
	}
	return out
}

// rankCandidates orders by warmth closeness to the slot's share of the
// target, then formality proximity. formalityOnly skips the warmth term
// (accessories carry no warmth). Stable, so pool order breaks ties.
func rankCandidates(candidates []EnrichedItem, desiredWeight int, runningFormality float64, formalityOnly bool) []EnrichedItem {
	ranked := make([]EnrichedItem, len(candidates))
	copy(ranked, candidates)
	if desiredWeight < 0 {
		desiredWeight = 0
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if !formalityOnly {
			di := absInt(ranked[i].WeatherWeight - desiredWeight)
			dj := absInt(ranked[j].WeatherWeight - desiredWeight)
			if di != dj {
				return di < dj
			}
		}
		fi := absFloat(float64(ranked[i].FormalityScore) - runningFormality)
		fj := absFloat(float64(ranked[j].FormalityScore) - runningFormality)
		return fi < fj
	})
	return ranked
}

func TuckStyleFor(formalityScore int) string {
	if formalityScore >= 60 {
		return "tucked"
	}
	return "untucked"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
