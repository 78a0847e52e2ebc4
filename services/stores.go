package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"closetapi/models"

	"gorm.io/gorm"
)

// ErrUnknownItems means an outfit referenced item ids that do not belong to
// the owner's wardrobe.
var ErrUnknownItems = errors.New("outfit references items outside the wardrobe")

// GormOutfitStore persists outfits with their item sets and signatures.
type GormOutfitStore struct {
	DB *gorm.DB
}

func (s *GormOutfitStore) CreateOutfit(ctx context.Context, ownerID uint, name, source, tuckStyle string, itemIDs []uint) (*SavedOutfit, error) {
	signature := ItemSignature(itemIDs)

	existing, err := s.FindOutfitBySignature(ctx, ownerID, signature)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateOutfit
	}

	var items []models.WardrobeItem
	if err := s.DB.WithContext(ctx).Preload("Category").Where("owner_id = ? AND id IN ?", ownerID, itemIDs).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items for outfit: %w", err)
	}
	if len(items) != len(strings.Split(signature, ",")) {
		return nil, fmt.Errorf("%w: %v referenced, %v in wardrobe", ErrUnknownItems, len(itemIDs), len(items))
	}

	outfit := models.Outfit{
		Name:      name,
		OwnerID:   ownerID,
		Source:    source,
		TuckStyle: tuckStyle,
		Signature: signature,
	}
	slotByID := make(map[uint]Slot, len(items))
	for _, item := range items {
		slot, _ := SlotForCategory(item.Category.Name)
		slotByID[item.ID] = slot
	}
	for _, id := range itemIDs {
		outfit.Items = append(outfit.Items, models.OutfitItem{
			WardrobeItemID: id,
			Slot:           string(slotByID[id]),
		})
	}

	if err := s.DB.WithContext(ctx).Create(&outfit).Error; err != nil {
		// the unique owner/signature index may still fire on a concurrent save
		if raced, lookupErr := s.FindOutfitBySignature(ctx, ownerID, signature); lookupErr == nil && raced != nil {
			return nil, ErrDuplicateOutfit
		}
		return nil, fmt.Errorf("failed to create outfit: %w", err)
	}
	saved := savedOutfitFrom(outfit)
	return &saved, nil
}

func (s *GormOutfitStore) FindOutfitBySignature(ctx context.Context, ownerID uint, signature string) (*SavedOutfit, error) {
	var outfit models.Outfit
	result := s.DB.WithContext(ctx).Preload("Items").Where("owner_id = ? AND signature = ?", ownerID, signature).Take(&outfit)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to look up outfit by signature: %w", result.Error)
	}
	saved := savedOutfitFrom(outfit)
	return &saved, nil
}

// ListSavedOutfits returns all of the owner's outfits as the planner sees them.
func (s *GormOutfitStore) ListSavedOutfits(ctx context.Context, ownerID uint) ([]SavedOutfit, error) {
	var outfits []models.Outfit
	if err := s.DB.WithContext(ctx).Preload("Items").Where("owner_id = ?", ownerID).Order("id asc").Find(&outfits).Error; err != nil {
		return nil, fmt.Errorf("failed to list outfits: %w", err)
	}
	saved := make([]SavedOutfit, 0, len(outfits))
	for _, outfit := range outfits {
		saved = append(saved, savedOutfitFrom(outfit))
	}
	return saved, nil
}

func savedOutfitFrom(outfit models.Outfit) SavedOutfit {
	ids := make([]uint, 0, len(outfit.Items))
	for _, item := range outfit.Items {
		ids = append(ids, item.WardrobeItemID)
	}
	return SavedOutfit{ID: outfit.ID, Name: outfit.Name, Source: outfit.Source, ItemIDs: ids}
}

// GormCalendarStore persists per-date plan entries.
type GormCalendarStore struct {
	DB *gorm.DB
}

func (s *GormCalendarStore) EntryIDsForDate(ctx context.Context, ownerID uint, date string) ([]uint, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).Model(&models.CalendarEntry{}).
		Where("owner_id = ? AND date = ?", ownerID, date).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries for %s: %w", date, err)
	}
	return ids, nil
}

func (s *GormCalendarStore) DeleteEntries(ctx context.Context, ownerID uint, entryIDs []uint) error {
	if len(entryIDs) == 0 {
		return nil
	}
	err := s.DB.WithContext(ctx).Where("owner_id = ? AND id IN ?", ownerID, entryIDs).Delete(&models.CalendarEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

func (s *GormCalendarStore) CreateEntry(ctx context.Context, entry NewCalendarEntry) (uint, error) {
	row := models.CalendarEntry{
		OwnerID:          entry.OwnerID,
		Date:             entry.Date,
		TripID:           entry.TripID,
		OutfitID:         &entry.OutfitID,
		Status:           entry.Status,
		WeatherSource:    entry.Weather.Source,
		WeatherCondition: entry.Weather.Condition,
		HighTemp:         entry.Weather.HighTemp,
		LowTemp:          entry.Weather.LowTemp,
		PrecipChance:     entry.Weather.PrecipChance,
		TargetWeight:     entry.Weather.TargetWeight,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to create calendar entry: %w", err)
	}
	return row.ID, nil
}

// HistoryRecords loads the owner's calendar entries with their outfit item
// sets, shaped for BuildUsageHistory.
func (s *GormCalendarStore) HistoryRecords(ctx context.Context, ownerID uint) ([]DayPlanRecord, error) {
	var entries []models.CalendarEntry
	err := s.DB.WithContext(ctx).Preload("Outfit.Items").
		Where("owner_id = ?", ownerID).
		Order("date asc").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load plan history: %w", err)
	}

	records := make([]DayPlanRecord, 0, len(entries))
	for _, entry := range entries {
		record := DayPlanRecord{Date: entry.Date, Status: entry.Status}
		if entry.Outfit != nil {
			for _, item := range entry.Outfit.Items {
				record.ItemIDs = append(record.ItemIDs, item.WardrobeItemID)
			}
		}
		records = append(records, record)
	}
	return records, nil
}
