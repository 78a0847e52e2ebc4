package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"closetapi/models"
	"closetapi/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	TypePlanRange        = "plan:range"
	TypeDailyOutfitAlert = "alert:daily_outfit"
)

type PlanRangePayload struct {
	UserID         uint     `json:"user_id"`
	Dates          []string `json:"dates"`
	TripID         *uint    `json:"trip_id,omitempty"`
	MixStrategy    string   `json:"mix_strategy"`
	ExistingPolicy string   `json:"existing_policy"`
	LookbackDays   int      `json:"lookback_days"`
}

// Client initializes an asynq client for enqueuing tasks
func NewClient() (*asynq.Client, error) {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: services.GetEnv("REDIS_ADDR", "127.0.0.1:6379")}), nil
}

func NewPlanRangeTask(payload PlanRangePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePlanRange, data), nil
}

func NewDailyOutfitAlertTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeDailyOutfitAlert, nil), nil
}

// HandlePlanRangeTask runs the planner over the payload's dates for one user.
// Dates already planned in a previous attempt are skipped (or overwritten,
// per the payload policy) on retry, so the task is safe to re-run.
func HandlePlanRangeTask(ctx context.Context, t *asynq.Task, db *gorm.DB, weatherProvider services.WeatherProvider, fbApp *firebase.App) error {
	var payload PlanRangePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		sentry.CaptureException(fmt.Errorf("[Plan] Unreadable payload: %v", err))
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if len(payload.Dates) == 0 {
		return nil
	}
	fmt.Printf("[Plan %v] Planning %d dates starting %s\n", payload.UserID, len(payload.Dates), payload.Dates[0])

	var user models.UserAccount
	if err := db.Take(&user, payload.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %v not found: %w", payload.UserID, asynq.SkipRetry)
		}
		return err
	}

	resolver, err := services.NewWeatherResolver(weatherProvider, user.Hemisphere)
	if err != nil {
		sentry.CaptureException(err)
		return err
	}

	var items []models.WardrobeItem
	if err := db.Preload("Category").Where("owner_id = ? AND status = ?", user.ID, "in_closet").Order("id asc").Find(&items).Error; err != nil {
		return err
	}
	pool := services.EnrichAll(items)

	outfitStore := services.GormOutfitStore{DB: db}
	calendarStore := services.GormCalendarStore{DB: db}

	savedOutfits, err := outfitStore.ListSavedOutfits(ctx, user.ID)
	if err != nil {
		return err
	}

	from, parseErr := time.Parse("2006-01-02", payload.Dates[0])
	if parseErr != nil {
		return fmt.Errorf("invalid first date %q: %v: %w", payload.Dates[0], parseErr, asynq.SkipRetry)
	}
	records, err := calendarStore.HistoryRecords(ctx, user.ID)
	if err != nil {
		return err
	}
	history := services.BuildUsageHistory(records, payload.LookbackDays, from, []string{"planned", "worn"})

	planner := services.Planner{
		Weather:  resolver,
		Outfits:  &outfitStore,
		Calendar: &calendarStore,
	}
	result, err := planner.PlanRange(ctx, payload.Dates, pool, savedOutfits, history, services.PlanOptions{
		OwnerID:        user.ID,
		TripID:         payload.TripID,
		MixStrategy:    models.MixStrategy(payload.MixStrategy),
		ExistingPolicy: models.ExistingPolicy(payload.ExistingPolicy),
		LookbackDays:   payload.LookbackDays,
	})
	if err != nil {
		var insufficient *services.InsufficientWardrobeError
		if errors.As(err, &insufficient) {
			// retrying cannot grow the wardrobe, tell the user instead
			fmt.Printf("[Plan %v] Stopped after %d days: %v\n", user.ID, len(result.Results), err)
			services.SendNotification(fbApp, db, user.ID,
				"Plan incomplete",
				fmt.Sprintf("We planned %d of %d days but ran out of options. Add more items to your closet and try again.", len(result.Results), len(payload.Dates)),
				map[string]string{"type": "plan_incomplete", "slot": string(insufficient.Slot)})
			return nil
		}
		sentry.CaptureException(fmt.Errorf("[Plan %v] Run failed after %d days: %v", user.ID, len(result.Results), err))
		return err
	}

	fmt.Printf("[Plan %v] Done: %d saved, %d generated, %d skipped, %d overwritten\n",
		user.ID, result.Counts.MatchedSaved, result.Counts.GeneratedAI, result.Counts.Skipped, result.Counts.Overwritten)
	services.SendNotification(fbApp, db, user.ID,
		"Your outfits are planned",
		fmt.Sprintf("Planned %d days: %d from your saved looks, %d freshly generated.",
			len(result.Results), result.Counts.MatchedSaved, result.Counts.GeneratedAI),
		map[string]string{"type": "plan_ready", "start_date": payload.Dates[0]})
	return nil
}

// HandleDailyOutfitAlertTask sends every opted-in user a morning reminder of
// their planned outfit for today.
func HandleDailyOutfitAlertTask(ctx context.Context, t *asynq.Task, db *gorm.DB, fbApp *firebase.App) error {
	today := time.Now().UTC().Format("2006-01-02")
	fmt.Printf("[Outfit Alert] Processing for all users, date %s\n", today)

	var users []models.UserAccount
	if err := db.Where("banned = ? AND receive_notifications = ?", false, true).Find(&users).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[Outfit Alert] Error fetching users: %v", err))
		return err
	}

	for _, user := range users {
		var entry models.CalendarEntry
		err := db.Preload("Outfit").Where("owner_id = ? AND date = ? AND status = ?", user.ID, today, "planned").Take(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			fmt.Printf("[Outfit Alert] Failed to fetch entry for user %d: %v\n", user.ID, err)
			sentry.CaptureException(err)
			continue
		}

		outfitName := "your planned outfit"
		if entry.Outfit != nil && entry.Outfit.Name != "" {
			outfitName = entry.Outfit.Name
		}
		services.SendNotification(fbApp, db, user.ID,
			"Today's outfit is ready",
			fmt.Sprintf("It's %s today (%.0f°/%.0f°). Time for %s.", entry.WeatherCondition, entry.HighTemp, entry.LowTemp, outfitName),
			map[string]string{"type": "daily_outfit", "entry_id": fmt.Sprintf("%d", entry.ID)})
		time.Sleep(1 * time.Second) // To avoid hitting rate limits
	}

	return nil
}
