package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"closetapi/models"
	"closetapi/services"
	"closetapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const defaultLookbackDays = 7

type SuggestedOutfitOut struct {
	Items     map[string]models.WardrobeItemOut `json:"items"` // keyed by slot
	ItemIDs   []uint                            `json:"item_ids"`
	TuckStyle string                            `json:"tuck_style"`
	Score     services.ScoreBreakdown           `json:"score"`
	Weather   services.WeatherContext           `json:"weather"`
}

type PlanSubmittedOut struct {
	Message string   `json:"message"`
	Dates   []string `json:"dates"`
}

type PlannerController struct {
}

func (controller *PlannerController) PlannerRoutes(g *echo.Group) {
	g.POST("/suggest", controller.Suggest)
	g.POST("/plan/week", controller.PlanWeek)
	g.POST("/plan/trip/:tripId", controller.PlanTrip)
	g.GET("/plan", controller.ListPlan)
}

func (controller *PlannerController) Suggest(c echo.Context) error {
	var req models.SuggestOutfitIn
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
	weather, ok := c.Get("__weather").(*services.WeatherResolver)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Weather service error"})
	}

	var items []models.WardrobeItem
	if err := db.Preload("Category").Where("owner_id = ? AND status = ?", user.ID, "in_closet").Order("id asc").Find(&items).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch wardrobe"})
	}
	pool := services.EnrichAll(items)

	excluded := map[uint]bool{}
	for _, id := range req.ExcludedIDs {
		excluded[id] = true
	}
	if req.IgnoreRecently == nil || !*req.IgnoreRecently {
		lookback := req.LookbackDays
		if lookback == 0 {
			lookback = defaultLookbackDays
		}
		from, _ := time.Parse("2006-01-02", req.Date)
		calendar := services.GormCalendarStore{DB: db}
		records, err := calendar.HistoryRecords(c.Request().Context(), user.ID)
		if err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch plan history"})
		}
		history := services.BuildUsageHistory(records, lookback, from, []string{"planned", "worn"})
		for id := range history.WornItemIDs {
			excluded[id] = true
		}
	}

	dayWeather := weather.Resolve(c.Request().Context(), req.Date)
	candidate, err := services.GenerateCandidate(pool, dayWeather, excluded)
	if err != nil {
		var insufficient *services.InsufficientWardrobeError
		if errors.As(err, &insufficient) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error": err.Error(),
				"slot":  string(insufficient.Slot),
			})
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate a suggestion"})
	}

	out := SuggestedOutfitOut{
		Items:     map[string]models.WardrobeItemOut{},
		ItemIDs:   candidate.ItemIDs(),
		TuckStyle: candidate.TuckStyle,
		Score:     candidate.Score,
		Weather:   dayWeather,
	}
	for slot, enriched := range candidate.Slots {
		out.Items[string(slot)] = wardrobeItemOut(enriched.Item, nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *PlannerController) PlanWeek(c echo.Context) error {
	var req models.PlanRangeIn
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

	days := req.Days
	if days == 0 {
		days = 7
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid start date"})
	}
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format("2006-01-02"))
	}

	return controller.enqueuePlan(c, user, req.MixStrategy, req.ExistingPolicy, req.LookbackDays, dates, nil)
}

func (controller *PlannerController) PlanTrip(c echo.Context) error {
	var req models.TripPlanIn
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

	var trip models.Trip
	if err := db.Where("id = ? AND owner_id = ?", c.Param("tripId"), user.ID).Take(&trip).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Trip not found"})
		}
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch trip"})
	}

	start, err := time.Parse("2006-01-02", trip.StartDate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Trip has an invalid start date"})
	}
	end, err := time.Parse("2006-01-02", trip.EndDate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Trip has an invalid end date"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Trip ends before it starts"})
	}

	var dates []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format("2006-01-02"))
	}

	return controller.enqueuePlan(c, user, req.MixStrategy, req.ExistingPolicy, req.LookbackDays, dates, &trip.ID)
}

func (controller *PlannerController) enqueuePlan(c echo.Context, user models.UserAccount, strategy, policy string, lookback int, dates []string, tripID *uint) error {
	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	if strategy == "" {
		strategy = string(models.MixBalanced)
	}
	if policy == "" {
		policy = string(models.PolicySkip)
	}
	if lookback == 0 {
		lookback = defaultLookbackDays
	}

	task, err := tasks.NewPlanRangeTask(tasks.PlanRangePayload{
		UserID:         user.ID,
		Dates:          dates,
		TripID:         tripID,
		MixStrategy:    strategy,
		ExistingPolicy: policy,
		LookbackDays:   lookback,
	})
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start planning, please try again"})
	}
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("plan"))
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not start planning, please try again"})
	}
	fmt.Println("[Queue] Plan range task submitted, User ID: ", user.ID, " Task ID: ", info.ID)

	return c.JSON(http.StatusAccepted, PlanSubmittedOut{
		Message: "Planning started",
		Dates:   dates,
	})
}

func (controller *PlannerController) ListPlan(c echo.Context) error {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	query := db.Preload("Outfit").Where("owner_id = ?", user.ID)
	if from := c.QueryParam("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.QueryParam("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var entries []models.CalendarEntry
	if err := query.Order("date asc").Find(&entries).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch plan"})
	}

	response := make([]models.CalendarEntryOut, 0, len(entries))
	for _, entry := range entries {
		out := models.CalendarEntryOut{
			ID:               entry.ID,
			Date:             entry.Date,
			TripID:           entry.TripID,
			OutfitID:         entry.OutfitID,
			Status:           entry.Status,
			WeatherSource:    entry.WeatherSource,
			WeatherCondition: entry.WeatherCondition,
			HighTemp:         entry.HighTemp,
			LowTemp:          entry.LowTemp,
			TargetWeight:     entry.TargetWeight,
		}
		if entry.Outfit != nil {
			out.OutfitName = entry.Outfit.Name
		}
		response = append(response, out)
	}
	return c.JSON(http.StatusOK, response)
}
