package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"closetapi/dbhelper"
	"closetapi/models"
	"closetapi/services"
	"closetapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestOutfit(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	shirt := test.FakeItem(db, user.ID, "Shirt", "Oxford", test.IntPointer(6), nil)
	pants := test.FakeItem(db, user.ID, "Pants", "Chinos", test.IntPointer(5), nil)
	shoes := test.FakeItem(db, user.ID, "Shoes", "Derbies", test.IntPointer(5), nil)

	r := test.NewJSONAuthRequest("POST", "/closet/suggest", strconv.FormatUint(uint64(user.ID), 10),
		models.SuggestOutfitIn{Date: "2026-03-09"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response SuggestedOutfitOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.ElementsMatch(t, []uint{shirt.ID, pants.ID, shoes.ID}, response.ItemIDs)
	assert.Equal(t, 52, response.Score.Total)
	assert.Equal(t, services.WeatherSourceSeasonal, response.Weather.Source)
	assert.Contains(t, response.Items, "shirt")
	assert.Contains(t, response.Items, "pants")
}

func TestSuggestOutfitInsufficientWardrobe(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	test.FakeItem(db, user.ID, "Shirt", "Only A Shirt", nil, nil)

	r := test.NewJSONAuthRequest("POST", "/closet/suggest", strconv.FormatUint(uint64(user.ID), 10),
		models.SuggestOutfitIn{Date: "2026-03-09"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "pants", response["slot"])
	assert.Contains(t, response["error"], "Pants")
}

func TestSuggestAvoidsRecentlyPlannedItems(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	wornShirt := test.FakeItem(db, user.ID, "Shirt", "Worn Shirt", test.IntPointer(5), nil)
	wornPants := test.FakeItem(db, user.ID, "Pants", "Worn Pants", test.IntPointer(5), nil)
	freshShirt := test.FakeItem(db, user.ID, "Shirt", "Fresh Shirt", test.IntPointer(5), nil)
	freshPants := test.FakeItem(db, user.ID, "Pants", "Fresh Pants", test.IntPointer(5), nil)

	outfitStore := services.GormOutfitStore{DB: db}
	planned, err := outfitStore.CreateOutfit(context.Background(), user.ID, "Yesterday", "generated", "untucked", []uint{wornShirt.ID, wornPants.ID})
	require.NoError(t, err)
	calendarStore := services.GormCalendarStore{DB: db}
	_, err = calendarStore.CreateEntry(context.Background(), services.NewCalendarEntry{
		OwnerID:  user.ID,
		Date:     "2026-03-08",
		OutfitID: planned.ID,
		Status:   "planned",
		Weather:  services.WeatherContext{Source: services.WeatherSourceSeasonal, Condition: "mild", HighTemp: 12, LowTemp: 4, TargetWeight: 2},
	})
	require.NoError(t, err)

	r := test.NewJSONAuthRequest("POST", "/closet/suggest", strconv.FormatUint(uint64(user.ID), 10),
		models.SuggestOutfitIn{Date: "2026-03-09"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var response SuggestedOutfitOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.ElementsMatch(t, []uint{freshShirt.ID, freshPants.ID}, response.ItemIDs)
}

func TestSuggestIgnoreRecentlyWornFlag(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	shirt := test.FakeItem(db, user.ID, "Shirt", "Only Shirt", test.IntPointer(5), nil)
	pants := test.FakeItem(db, user.ID, "Pants", "Only Pants", test.IntPointer(5), nil)

	outfitStore := services.GormOutfitStore{DB: db}
	planned, err := outfitStore.CreateOutfit(context.Background(), user.ID, "Yesterday", "generated", "untucked", []uint{shirt.ID, pants.ID})
	require.NoError(t, err)
	calendarStore := services.GormCalendarStore{DB: db}
	_, err = calendarStore.CreateEntry(context.Background(), services.NewCalendarEntry{
		OwnerID: user.ID, Date: "2026-03-08", OutfitID: planned.ID, Status: "planned",
	})
	require.NoError(t, err)

	ignore := true
	r := test.NewJSONAuthRequest("POST", "/closet/suggest", strconv.FormatUint(uint64(user.ID), 10),
		models.SuggestOutfitIn{Date: "2026-03-09", IgnoreRecently: &ignore})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, "with the flag set, yesterday's pieces are fair game")
	var response SuggestedOutfitOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.ElementsMatch(t, []uint{shirt.ID, pants.ID}, response.ItemIDs)
}

func TestPlanWeekRejectsBadStrategy(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	r := test.NewJSONAuthRequest("POST", "/closet/plan/week", strconv.FormatUint(uint64(user.ID), 10),
		models.PlanRangeIn{StartDate: "2026-03-09", MixStrategy: "chaotic"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanWeekRejectsBadDate(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	r := test.NewJSONAuthRequest("POST", "/closet/plan/week", strconv.FormatUint(uint64(user.ID), 10),
		models.PlanRangeIn{StartDate: "next tuesday"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanTripUnknownTrip(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	r := test.NewJSONAuthRequest("POST", "/closet/plan/trip/424242", strconv.FormatUint(uint64(user.ID), 10), models.TripPlanIn{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlan(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	shirt := test.FakeItem(db, user.ID, "Shirt", "Oxford", nil, nil)
	pants := test.FakeItem(db, user.ID, "Pants", "Chinos", nil, nil)
	outfitStore := services.GormOutfitStore{DB: db}
	planned, err := outfitStore.CreateOutfit(context.Background(), user.ID, "Monday Look", "generated", "untucked", []uint{shirt.ID, pants.ID})
	require.NoError(t, err)
	calendarStore := services.GormCalendarStore{DB: db}
	for _, date := range []string{"2026-03-09", "2026-03-10"} {
		_, err = calendarStore.CreateEntry(context.Background(), services.NewCalendarEntry{
			OwnerID:  user.ID,
			Date:     date,
			OutfitID: planned.ID,
			Status:   "planned",
			Weather:  services.WeatherContext{Source: services.WeatherSourceSeasonal, Condition: "mild", HighTemp: 12, LowTemp: 4, TargetWeight: 2},
		})
		require.NoError(t, err)
	}

	r := test.NewJSONAuthRequest("GET", "/closet/plan?from=2026-03-09&to=2026-03-09", strconv.FormatUint(uint64(user.ID), 10), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var response []models.CalendarEntryOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1, "the to filter cuts off the second day")
	assert.Equal(t, "2026-03-09", response[0].Date)
	assert.Equal(t, "Monday Look", response[0].OutfitName)
	assert.Equal(t, services.WeatherSourceSeasonal, response[0].WeatherSource)
}
