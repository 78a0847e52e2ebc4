package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/getsentry/sentry-go"
)

const (
	WeatherSourceForecast = "forecast"
	WeatherSourceSeasonal = "seasonal-fallback"
	WeatherSourceNeutral  = "neutral"
)

// ForecastDay is one day of provider data, temperatures in celsius.
type ForecastDay struct {
	Date              string  `json:"date"` // 2006-01-02
	Condition         string  `json:"condition"`
	HighTempC         float64 `json:"high_temp_c"`
	LowTempC          float64 `json:"low_temp_c"`
	PrecipitationProb int     `json:"precipitation_probability"`
}

// WeatherContext is the resolved conditions for one target date. TargetWeight
// is the aggregate warmth (0-3) an outfit should land on for these conditions.
type WeatherContext struct {
	Source       string  `json:"source"`
	Condition    string  `json:"condition"`
	HighTemp     float64 `json:"high_temp"`
	LowTemp      float64 `json:"low_temp"`
	PrecipChance int     `json:"precip_chance"`
	TargetWeight int     `json:"target_weight"`
}

type WeatherProvider interface {
	// ForecastFor returns nil, nil when the provider has no entry for the date.
	ForecastFor(ctx context.Context, date string) (*ForecastDay, error)
}

// WeatherResolver maps a target date to a WeatherContext. It never fails:
// forecast data when the provider has the date, a seasonal estimate from the
// calendar month otherwise, a neutral mid-range context as the last resort.
type WeatherResolver struct {
	provider   WeatherProvider
	hemisphere string
	cache      *cache.LoadableCache[*ForecastDay]
}

const forecastCacheTTL = 30 * time.Minute

func NewWeatherResolver(provider WeatherProvider, hemisphere string) (*WeatherResolver, error) {
	resolver := &WeatherResolver{provider: provider, hemisphere: hemisphere}
	if provider == nil {
		return resolver, nil
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	loadFunction := func(ctx context.Context, key any) (*ForecastDay, []store.Option, error) {
		date, ok := key.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid key type provided to forecast cache: expected string, got %T", key)
		}
		day, err := provider.ForecastFor(ctx, date)
		return day, []store.Option{store.WithExpiration(forecastCacheTTL)}, err
	}
	resolver.cache = cache.NewLoadable[*ForecastDay](
		loadFunction,
		cache.New[*ForecastDay](ristrettoStore),
	)
	return resolver, nil
}

// Resolve never returns an error, missing data degrades the source tier instead.
func (r *WeatherResolver) Resolve(ctx context.Context, date string) WeatherContext {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		log.Printf("[Weather] Unparsable date %q, falling back to neutral context", date)
		return neutralContext()
	}

	if r.provider != nil {
		forecast, err := r.forecastFor(ctx, date)
		if err != nil {
			log.Printf("[Weather] Provider failed for %s: %v. Falling back to seasonal estimate.", date, err)
			sentry.CaptureException(fmt.Errorf("weather provider failed for %s: %w", date, err))
		} else if forecast != nil {
			return contextFrom(WeatherSourceForecast, forecast.Condition, forecast.HighTempC, forecast.LowTempC, forecast.PrecipitationProb)
		}
	}

	return r.seasonalContext(day.Month())
}

func (r *WeatherResolver) forecastFor(ctx context.Context, date string) (*ForecastDay, error) {
	if r.cache != nil {
		return r.cache.Get(ctx, date)
	}
	return r.provider.ForecastFor(ctx, date)
}

// month norms, northern hemisphere reading. A southern user gets the table
// shifted by six months.
var seasonalNorms = map[time.Month]ForecastDay{
	time.December: {Condition: "cold", HighTempC: 5, LowTempC: -2, PrecipitationProb: 40},
	time.January:  {Condition: "cold", HighTempC: 4, LowTempC: -3, PrecipitationProb: 40},
	time.February: {Condition: "cold", HighTempC: 6, LowTempC: -1, PrecipitationProb: 35},
	time.March:    {Condition: "mild", HighTempC: 12, LowTempC: 4, PrecipitationProb: 35},
	time.April:    {Condition: "mild", HighTempC: 16, LowTempC: 7, PrecipitationProb: 30},
	time.May:      {Condition: "mild", HighTempC: 20, LowTempC: 11, PrecipitationProb: 25},
	time.June:     {Condition: "warm", HighTempC: 26, LowTempC: 16, PrecipitationProb: 20},
	time.July:     {Condition: "warm", HighTempC: 29, LowTempC: 18, PrecipitationProb: 15},
	time.August:   {Condition: "warm", HighTempC: 28, LowTempC: 17, PrecipitationProb: 15},
	time.September: {Condition: "cool", HighTempC: 22, LowTempC: 13,
		PrecipitationProb: 25},
	time.October:  {Condition: "cool", HighTempC: 16, LowTempC: 8, PrecipitationProb: 30},
	time.November: {Condition: "cool", HighTempC: 10, LowTempC: 3, PrecipitationProb: 35},
}

func (r *WeatherResolver) seasonalContext(month time.Month) WeatherContext {
	if r.hemisphere == "south" {
		month = time.Month((int(month)+5)%12 + 1)
	}
	norm, ok := seasonalNorms[month]
	if !ok {
		return neutralContext()
	}
	return contextFrom(WeatherSourceSeasonal, norm.Condition, norm.HighTempC, norm.LowTempC, norm.PrecipitationProb)
}

func neutralContext() WeatherContext {
	return contextFrom(WeatherSourceNeutral, "mild", 18, 10, 20)
}

func contextFrom(source, condition string, high, low float64, precip int) WeatherContext {
	return WeatherContext{
		Source:       source,
		Condition:    condition,
		HighTemp:     high,
		LowTemp:      low,
		PrecipChance: precip,
		TargetWeight: targetWeightFor(high, low),
	}
}

// colder days want a heavier aggregate outfit weight
func targetWeightFor(high, low float64) int {
	mean := (high + low) / 2
	switch {
	case mean >= 25:
		return 0
	case mean >= 18:
		return 1
	case mean >= 8:
		return 2
	default:
		return 3
	}
}

// OpenMeteoProvider fetches a multi-day forecast keyed by date. Coordinates
// come from the environment, same deal as the rest of the external services.
type OpenMeteoProvider struct {
	Latitude  string
	Longitude string
}

func NewOpenMeteoProvider() *OpenMeteoProvider {
	return &OpenMeteoProvider{
		Latitude:  GetEnv("WEATHER_LATITUDE", "40.4093"),
		Longitude: GetEnv("WEATHER_LONGITUDE", "49.8671"),
	}
}

type openMeteoDaily struct {
	Time                     []string  `json:"time"`
	Temperature2mMax         []float64 `json:"temperature_2m_max"`
	Temperature2mMin         []float64 `json:"temperature_2m_min"`
	PrecipitationProbability []int     `json:"precipitation_probability_max"`
	WeatherCode              []int     `json:"weather_code"`
}

type openMeteoResponse struct {
	Daily openMeteoDaily `json:"daily"`
}

func (p *OpenMeteoProvider) ForecastFor(ctx context.Context, date string) (*ForecastDay, error) {
	url := fmt.Sprintf(
		"https://api.open-meteo.com/v1/forecast?latitude=%s&longitude=%s&daily=temperature_2m_max,temperature_2m_min,precipitation_probability_max,weather_code&timezone=auto",
		p.Latitude, p.Longitude,
	)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("forecast request failed, status code: %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed openMeteoResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	for i, day := range parsed.Daily.Time {
		if day != date {
			continue
		}
		forecast := &ForecastDay{Date: date}
		if i < len(parsed.Daily.Temperature2mMax) {
			forecast.HighTempC = parsed.Daily.Temperature2mMax[i]
		}
		if i < len(parsed.Daily.Temperature2mMin) {
			forecast.LowTempC = parsed.Daily.Temperature2mMin[i]
		}
		if i < len(parsed.Daily.PrecipitationProbability) {
			forecast.PrecipitationProb = parsed.Daily.PrecipitationProbability[i]
		}
		if i < len(parsed.Daily.WeatherCode) {
			forecast.Condition = conditionForCode(parsed.Daily.WeatherCode[i])
		}
		return forecast, nil
	}
	// date beyond the provider horizon, not an error
	return nil, nil
}

func conditionForCode(code int) string {
	switch {
	case code == 0:
		return "clear"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "fog"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "showers"
	default:
		return "storm"
	}
}
