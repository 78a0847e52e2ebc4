package models

type Outfit struct {
	JsonModel
	Name    string      `json:"name"`
	Owner   UserAccount `json:"-"`
	OwnerID uint        `gorm:"index:idx_owner_signature,unique" json:"-"`
	// saved (user made it), generated (planner made it)
	Source    string `json:"source"`
	TuckStyle string `json:"tuck_style"` // tucked, untucked
	// sorted de-duplicated item id list, joined with commas. Unique per owner so an
	// identical combination cannot be saved twice.
	Signature string       `gorm:"index:idx_owner_signature,unique" json:"-"`
	Items     []OutfitItem `json:"items"`
}

type OutfitItem struct {
	JsonModel
	OutfitID       uint         `json:"-"`
	WardrobeItemID uint         `json:"wardrobe_item_id"`
	WardrobeItem   WardrobeItem `json:"wardrobe_item"`
	Slot           string       `json:"slot"` // jacket, overshirt, shirt, undershirt, pants, shoes, belt, watch
}

type Trip struct {
	JsonModel
	Name      string      `json:"name"`
	Owner     UserAccount `json:"-"`
	OwnerID   uint        `json:"-"`
	StartDate string      `json:"start_date"` // 2006-01-02
	EndDate   string      `json:"end_date"`
}

// CalendarEntry is one planned day. Trip days are ordinary entries carrying a
// TripID, so week planning and trip planning share the same persistence path.
type CalendarEntry struct {
	JsonModel
	Owner    UserAccount `json:"-"`
	OwnerID  uint        `json:"-"`
	Date     string      `gorm:"index" json:"date"` // 2006-01-02
	TripID   *uint       `json:"trip_id"`
	OutfitID *uint       `json:"outfit_id"`
	Outfit   *Outfit     `json:"outfit"`
	Status   string      `json:"status"` // planned, worn, skipped
	// weather snapshot at planning time
	WeatherSource    string  `json:"weather_source"` // forecast, seasonal-fallback, neutral
	WeatherCondition string  `json:"weather_condition"`
	HighTemp         float64 `json:"high_temp"`
	LowTemp          float64 `json:"low_temp"`
	PrecipChance     int     `json:"precip_chance"`
	TargetWeight     int     `json:"target_weight"`
}

type CreateOutfitIn struct {
	Name      string `json:"name" validate:"omitempty,max=100"`
	ItemIDs   []uint `json:"item_ids" validate:"required,min=1"`
	TuckStyle string `json:"tuck_style" validate:"omitempty,oneof=tucked untucked"`
}

type ScoreOutfitIn struct {
	ItemIDs []uint `json:"item_ids" validate:"required,min=1"`
}

type SuggestOutfitIn struct {
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	ExcludedIDs    []uint `json:"excluded_ids"`
	LookbackDays   int    `json:"lookback_days" validate:"omitempty,min=0,max=60"`
	IgnoreRecently *bool  `json:"ignore_recently_worn"`
}

// TripPlanIn tunes a trip plan run. The date range comes from the trip itself.
type TripPlanIn struct {
	MixStrategy    string `json:"mix_strategy" validate:"omitempty,mixstrategy"`
	ExistingPolicy string `json:"existing_policy" validate:"omitempty,existingpolicy"`
	LookbackDays   int    `json:"lookback_days" validate:"omitempty,min=0,max=60"`
}

type PlanRangeIn struct {
	StartDate      string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Days           int    `json:"days" validate:"omitempty,min=1,max=30"`
	MixStrategy    string `json:"mix_strategy" validate:"omitempty,mixstrategy"`
	ExistingPolicy string `json:"existing_policy" validate:"omitempty,existingpolicy"`
	LookbackDays   int    `json:"lookback_days" validate:"omitempty,min=0,max=60"`
}

type OutfitOut struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Source    string            `json:"source"`
	TuckStyle string            `json:"tuck_style"`
	ItemIDs   []uint            `json:"item_ids"`
	Slots     []string          `json:"slots"`
	Items     []WardrobeItemOut `json:"items,omitempty"`
	CreatedAt string            `json:"created_at"`
}

type CalendarEntryOut struct {
	ID               uint    `json:"id"`
	Date             string  `json:"date"`
	TripID           *uint   `json:"trip_id,omitempty"`
	OutfitID         *uint   `json:"outfit_id"`
	OutfitName       string  `json:"outfit_name"`
	Status           string  `json:"status"`
	WeatherSource    string  `json:"weather_source"`
	WeatherCondition string  `json:"weather_condition"`
	HighTemp         float64 `json:"high_temp"`
	LowTemp          float64 `json:"low_temp"`
	TargetWeight     int     `json:"target_weight"`
}
