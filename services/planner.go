package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"closetapi/models"

	"github.com/getsentry/sentry-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrDuplicateOutfit is returned by OutfitStore.CreateOutfit when an outfit
// with the identical item signature already exists for the owner.
var ErrDuplicateOutfit = errors.New("outfit with identical item set already exists")

// SavedOutfit is the store's view of a persisted outfit.
type SavedOutfit struct {
	ID      uint
	Name    string
	Source  string
	ItemIDs []uint
}

type OutfitStore interface {
	CreateOutfit(ctx context.Context, ownerID uint, name, source, tuckStyle string, itemIDs []uint) (*SavedOutfit, error)
	// FindOutfitBySignature returns nil, nil when no outfit carries the signature.
	FindOutfitBySignature(ctx context.Context, ownerID uint, signature string) (*SavedOutfit, error)
}

type NewCalendarEntry struct {
	OwnerID  uint
	Date     string
	TripID   *uint
	OutfitID uint
	Status   string
	Weather  WeatherContext
}

type CalendarStore interface {
	EntryIDsForDate(ctx context.Context, ownerID uint, date string) ([]uint, error)
	DeleteEntries(ctx context.Context, ownerID uint, entryIDs []uint) error
	CreateEntry(ctx context.Context, entry NewCalendarEntry) (uint, error)
}

const (
	OutcomeGeneratedSaved  = "generated-saved"
	OutcomeGeneratedAI     = "generated-ai"
	OutcomeSkippedExisting = "skipped-existing"
	OutcomeOverwritten     = "overwritten"
)

type DayPlanResult struct {
	Date       string         `json:"date"`
	OutfitID   uint           `json:"outfit_id"`
	OutfitName string         `json:"outfit_name"`
	ItemIDs    []uint         `json:"item_ids"`
	Weather    WeatherContext `json:"weather"`
	Outcome    string         `json:"outcome"`
}

type PlanCounts struct {
	MatchedSaved int `json:"matched_saved"`
	GeneratedAI  int `json:"generated_ai"`
	Skipped      int `json:"skipped"`
	Overwritten  int `json:"overwritten"`
}

type PlanRangeResult struct {
	Results []DayPlanResult `json:"results"`
	Counts  PlanCounts      `json:"counts"`
}

type PlanOptions struct {
	OwnerID        uint
	TripID         *uint
	MixStrategy    models.MixStrategy
	ExistingPolicy models.ExistingPolicy
	LookbackDays   int
}

type Planner struct {
	Weather  *WeatherResolver
	Outfits  OutfitStore
	Calendar CalendarStore
}

var titleCaser = cases.Title(language.English)

// PlanRange walks the dates in order, deciding one day at a time. Each day
// folds its chosen items into the usage history before the next date runs, so
// a generated Tuesday never repeats Monday's combination even though Monday
// was only just persisted. Matched saved looks are the exception: they stay
// eligible for later dates so a strategy that prefers saved outfits can reuse
// them. Dates are strictly sequential: every external write is awaited before
// the exclusion state moves on.
//
// A generator failure or a store failure aborts the remaining dates; already
// recorded days stay recorded and come back in the partial result alongside
// the error. Cancellation is honored between dates, never mid-date.
func (p *Planner) PlanRange(
	ctx context.Context,
	dates []string,
	pool []EnrichedItem,
	savedOutfits []SavedOutfit,
	history UsageHistory,
	opts PlanOptions,
) (PlanRangeResult, error) {
	run := PlanRangeResult{Results: []DayPlanResult{}}

	poolByID := make(map[uint]EnrichedItem, len(pool))
	for _, item := range pool {
		poolByID[item.Item.ID] = item
	}

	for index, date := range dates {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("plan run aborted before %s: %w", date, err)
		}

		result, updated, err := p.planOneDate(ctx, index, date, pool, poolByID, savedOutfits, history, opts)
		if err != nil {
			return run, err
		}
		history = updated

		run.Results = append(run.Results, result)
		switch result.Outcome {
		case OutcomeGeneratedSaved:
			run.Counts.MatchedSaved++
		case OutcomeGeneratedAI:
			run.Counts.GeneratedAI++
		case OutcomeSkippedExisting:
			run.Counts.Skipped++
		case OutcomeOverwritten:
			run.Counts.Overwritten++
		}
	}
	return run, nil
}

func (p *Planner) planOneDate(
	ctx context.Context,
	index int,
	date string,
	pool []EnrichedItem,
	poolByID map[uint]EnrichedItem,
	savedOutfits []SavedOutfit,
	history UsageHistory,
	opts PlanOptions,
) (DayPlanResult, UsageHistory, error) {
	existingIDs, err := p.Calendar.EntryIDsForDate(ctx, opts.OwnerID, date)
	if err != nil {
		return DayPlanResult{}, history, fmt.Errorf("failed to check existing entries for %s: %w", date, err)
	}

	overwrote := false
	if len(existingIDs) > 0 {
		if opts.ExistingPolicy != models.PolicyOverwrite {
			log.Printf("[Plan %v] %s already has %v entr(ies), skipping", opts.OwnerID, date, len(existingIDs))
			return DayPlanResult{Date: date, Outcome: OutcomeSkippedExisting}, history, nil
		}
		if err := p.Calendar.DeleteEntries(ctx, opts.OwnerID, existingIDs); err != nil {
			return DayPlanResult{}, history, fmt.Errorf("failed to overwrite entries for %s: %w", date, err)
		}
		overwrote = true
	}

	weather := p.Weather.Resolve(ctx, date)

	var chosen *SavedOutfit
	savedMatch := false
	outcome := OutcomeGeneratedAI
	if preferSaved(index, opts.MixStrategy) {
		chosen = bestSavedOutfit(savedOutfits, poolByID, history, weather)
		if chosen != nil {
			savedMatch = true
			outcome = OutcomeGeneratedSaved
		}
	}

	if chosen == nil {
		candidate, err := GenerateCandidate(pool, weather, history.WornItemIDs)
		if err != nil {
			return DayPlanResult{}, history, fmt.Errorf("generation failed for %s: %w", date, err)
		}
		chosen, err = p.persistCandidate(ctx, opts.OwnerID, date, candidate)
		if err != nil {
			return DayPlanResult{}, history, err
		}
	}

	_, err = p.Calendar.CreateEntry(ctx, NewCalendarEntry{
		OwnerID:  opts.OwnerID,
		Date:     date,
		TripID:   opts.TripID,
		OutfitID: chosen.ID,
		Status:   "planned",
		Weather:  weather,
	})
	if err != nil {
		sentry.CaptureException(fmt.Errorf("failed to record plan entry for %s: %w", date, err))
		return DayPlanResult{}, history, fmt.Errorf("failed to record plan entry for %s: %w", date, err)
	}

	if overwrote {
		outcome = OutcomeOverwritten
	}

	// Only the generating branch retires the combination: a matched saved look
	// stays eligible for later dates of the same run, while its pieces still
	// count as recently worn for the generated dates in between.
	updated := history.With(chosen.ItemIDs)
	if savedMatch {
		updated = history.WithWorn(chosen.ItemIDs)
	}

	log.Printf("[Plan %v] %s -> outfit %v (%s, weather %s)", opts.OwnerID, date, chosen.ID, outcome, weather.Source)
	return DayPlanResult{
		Date:       date,
		OutfitID:   chosen.ID,
		OutfitName: chosen.Name,
		ItemIDs:    chosen.ItemIDs,
		Weather:    weather,
		Outcome:    outcome,
	}, updated, nil
}

func (p *Planner) persistCandidate(ctx context.Context, ownerID uint, date string, candidate *OutfitCandidate) (*SavedOutfit, error) {
	created, err := p.Outfits.CreateOutfit(ctx, ownerID, outfitNameFor(date), "generated", candidate.TuckStyle, candidate.ItemIDs())
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, ErrDuplicateOutfit) {
		sentry.CaptureException(fmt.Errorf("failed to save generated outfit for %s: %w", date, err))
		return nil, fmt.Errorf("failed to save generated outfit for %s: %w", date, err)
	}

	// identical combination already saved, reuse it instead of failing the date
	existing, lookupErr := p.Outfits.FindOutfitBySignature(ctx, ownerID, candidate.Signature())
	if lookupErr != nil {
		return nil, fmt.Errorf("failed to resolve duplicate outfit for %s: %w", date, lookupErr)
	}
	if existing == nil {
		return nil, fmt.Errorf("duplicate outfit reported for %s but signature lookup found nothing", date)
	}
	log.Printf("[Plan] Duplicate combination for %s, reusing outfit %v", date, existing.ID)
	return existing, nil
}

// preferSaved decides per date index whether to reach for a saved outfit
// before generating: saved-heavy always, balanced on even indices, ai-heavy
// only on every third index.
func preferSaved(index int, strategy models.MixStrategy) bool {
	switch strategy {
	case models.MixSavedHeavy:
		return true
	case models.MixAIHeavy:
		return index%3 == 0
	default:
		return index%2 == 0
	}
}

// bestSavedOutfit picks the closest weather/formality match among saved
// outfits whose combination is not already recent. Outfits referencing items
// no longer in the pool are ignored. Ties keep the earliest outfit.
func bestSavedOutfit(savedOutfits []SavedOutfit, poolByID map[uint]EnrichedItem, history UsageHistory, weather WeatherContext) *SavedOutfit {
	var best *SavedOutfit
	bestWeatherGap := 0
	bestTotal := 0

	for i := range savedOutfits {
		outfit := &savedOutfits[i]
		if history.HasSignature(outfit.ItemIDs) {
			continue
		}

		slots := make(map[Slot]EnrichedItem, len(outfit.ItemIDs))
		warmth := 0
		complete := true
		for _, id := range outfit.ItemIDs {
			item, ok := poolByID[id]
			if !ok || !item.SlotKnown {
				complete = false
				break
			}
			slots[item.Slot] = item
			if !item.IsAccessory() {
				warmth += item.WeatherWeight
			}
		}
		if !complete {
			continue
		}

		weatherGap := absInt(clampInt(warmth, 0, 3) - weather.TargetWeight)
		total := ScoreSlots(slots).Total
		if best == nil || weatherGap < bestWeatherGap || (weatherGap == bestWeatherGap && total > bestTotal) {
			best = outfit
			bestWeatherGap = weatherGap
			bestTotal = total
		}
	}
	return best
}

func outfitNameFor(date string) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "Planned Look"
	}
	return titleCaser.String(strings.ToLower(day.Weekday().String()) + " look")
}

// With returns the history extended by one day's combination. The planner
// threads the returned value into the next date, keeping the day-to-day
// dependency explicit instead of hiding it in shared mutable state.
func (h UsageHistory) With(itemIDs []uint) UsageHistory {
	next := h.clone()
	next.Add(itemIDs)
	return next
}

// WithWorn folds only the individual items, not the combination signature.
// Used for matched saved looks, which the mix strategy may pick again on a
// later date of the same run.
func (h UsageHistory) WithWorn(itemIDs []uint) UsageHistory {
	next := h.clone()
	for _, id := range itemIDs {
		next.WornItemIDs[id] = true
	}
	return next
}

func (h UsageHistory) clone() UsageHistory {
	next := NewUsageHistory()
	for sig := range h.Signatures {
		next.Signatures[sig] = true
	}
	for id := range h.WornItemIDs {
		next.WornItemIDs[id] = true
	}
	return next
}
