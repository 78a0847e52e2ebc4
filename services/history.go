package services

import (
	"log"
	"time"
)

// DayPlanRecord is the slice of a calendar entry the history tracker needs.
type DayPlanRecord struct {
	Date    string // 2006-01-02
	Status  string // planned, worn, skipped
	ItemIDs []uint
}

// UsageHistory tracks item combinations and individual items seen inside the
// lookback window. The planner also feeds each freshly decided day back in, so
// later dates of the same run treat earlier ones as recent before anything is
// externally visible.
type UsageHistory struct {
	Signatures  map[string]bool
	WornItemIDs map[uint]bool
}

func NewUsageHistory() UsageHistory {
	return UsageHistory{
		Signatures:  make(map[string]bool),
		WornItemIDs: make(map[uint]bool),
	}
}

// BuildUsageHistory collects signatures and worn item ids from records whose
// status qualifies and whose date falls within [from - lookbackDays, from],
// both ends inclusive.
func BuildUsageHistory(records []DayPlanRecord, lookbackDays int, from time.Time, qualifyingStatuses []string) UsageHistory {
	history := NewUsageHistory()

	qualifies := make(map[string]bool, len(qualifyingStatuses))
	for _, status := range qualifyingStatuses {
		qualifies[status] = true
	}

	windowStart := from.AddDate(0, 0, -lookbackDays)
	for _, record := range records {
		if !qualifies[record.Status] {
			continue
		}
		day, err := time.Parse("2006-01-02", record.Date)
		if err != nil {
			log.Printf("[History] Skipping record with unparsable date %q", record.Date)
			continue
		}
		if day.Before(windowStart) || day.After(from) {
			continue
		}
		history.Add(record.ItemIDs)
	}
	return history
}

// Add marks a combination and its members as recently used.
func (h UsageHistory) Add(itemIDs []uint) {
	if len(itemIDs) == 0 {
		return
	}
	h.Signatures[ItemSignature(itemIDs)] = true
	for _, id := range itemIDs {
		h.WornItemIDs[id] = true
	}
}

func (h UsageHistory) HasSignature(itemIDs []uint) bool {
	return h.Signatures[ItemSignature(itemIDs)]
}
