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

func TestCreateOutfitOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	shirt := test.FakeItem(db, user.ID, "Shirt", "Oxford", test.IntPointer(7), nil)
	pants := test.FakeItem(db, user.ID, "Pants", "Chinos", test.IntPointer(6), nil)

	reqBody := models.CreateOutfitIn{Name: "Office Look", ItemIDs: []uint{shirt.ID, pants.ID}, TuckStyle: "tucked"}
	req := test.NewJSONAuthRequest("POST", "/closet/outfits", strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response models.OutfitOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Office Look", response.Name)
	assert.Equal(t, "saved", response.Source)
	assert.ElementsMatch(t, []uint{shirt.ID, pants.ID}, response.ItemIDs)

	var outfit models.Outfit
	require.NoError(t, db.Preload("Items").Where("owner_id = ?", user.ID).Take(&outfit).Error)
	assert.Equal(t, services.ItemSignature([]uint{shirt.ID, pants.ID}), outfit.Signature)
	assert.Len(t, outfit.Items, 2)
}

func TestCreateOutfitDuplicateCombination(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	shirt := test.FakeItem(db, user.ID, "Shirt", "Oxford", nil, nil)
	pants := test.FakeItem(db, user.ID, "Pants", "Chinos", nil, nil)

	first := test.NewJSONAuthRequest("POST", "/closet/outfits", strconv.FormatUint(uint64(user.ID), 10),
		models.CreateOutfitIn{Name: "Look A", ItemIDs: []uint{shirt.ID, pants.ID}})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	// same items in a different order is still the same combination
	second := test.NewJSONAuthRequest("POST", "/closet/outfits", strconv.FormatUint(uint64(user.ID), 10),
		models.CreateOutfitIn{Name: "Look B", ItemIDs: []uint{pants.ID, shirt.ID}})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, second)

	require.Equal(t, http.StatusConflict, rec.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotNil(t, response["existing_outfit_id"])

	var count int64
	db.Model(&models.Outfit{}).Where("owner_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateOutfitForeignItems(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	other := models.UserAccount{Name: "Other", Email: "other@example.com", Status: "FINISHED_AUTH"}
	require.NoError(t, db.Create(&other).Error)
	foreign := test.FakeItem(db, other.ID, "Shirt", "Not Yours", nil, nil)

	req := test.NewJSONAuthRequest("POST", "/closet/outfits", strconv.FormatUint(uint64(user.ID), 10),
		models.CreateOutfitIn{ItemIDs: []uint{foreign.ID}})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOutfits(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	mockReadUrl := "https://cdn.example.com/presigned/read"
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{MockUrl: mockReadUrl}, weather)
	user := test.FakeUser(db)

	shirt := test.FakeItem(db, user.ID, "Shirt", "Oxford", nil, nil)
	pants := test.FakeItem(db, user.ID, "Pants", "Chinos", nil, nil)
	require.NoError(t, db.Model(shirt).Update("image_url", "wardrobe/oxford.jpg").Error)
	store := services.GormOutfitStore{DB: db}
	_, err = store.CreateOutfit(context.Background(), user.ID, "Look A", "saved", "untucked", []uint{shirt.ID, pants.ID})
	require.NoError(t, err)

	r := test.NewJSONAuthRequest("GET", "/closet/outfits", strconv.FormatUint(uint64(user.ID), 10), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var response []models.OutfitOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Look A", response[0].Name)
	assert.Contains(t, response[0].Slots, "shirt")
	assert.Contains(t, response[0].Slots, "pants")

	require.Len(t, response[0].Items, 2)
	byID := map[uint]models.WardrobeItemOut{}
	for _, item := range response[0].Items {
		byID[item.ID] = item
	}
	require.NotNil(t, byID[shirt.ID].Uri, "item with an image gets a presigned read url")
	assert.Equal(t, mockReadUrl, *byID[shirt.ID].Uri)
	assert.Equal(t, "Shirt", byID[shirt.ID].Category)
	assert.Nil(t, byID[pants.ID].Uri, "item without an image has no url")
}

func TestScoreOutfitEndpoint(t *testing.T) {
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

	reqBody := models.ScoreOutfitIn{ItemIDs: []uint{shirt.ID, pants.ID, shoes.ID}}
	r := test.NewJSONAuthRequest("POST", "/closet/outfits/score", strconv.FormatUint(uint64(user.ID), 10), reqBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response OutfitScoreOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 53, response.Breakdown.FormalityScore)
	assert.Equal(t, 15, response.Breakdown.ConsistencyBonus)
	assert.Equal(t, 52, response.Breakdown.Total)
	assert.Equal(t, "untucked", response.TuckStyle)
	assert.Len(t, response.Breakdown.LayerAdjustments, 3)
}

func TestScoreOutfitUnknownItem(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	weather, err := services.NewWeatherResolver(nil, "north")
	require.NoError(t, err)
	e := SetupServer(db, test.GoogleServiceMock{}, test.AppleServiceMock{}, &test.AWSProviderMock{}, nil, nil, &test.URLCacheMock{}, weather)
	user := test.FakeUser(db)

	r := test.NewJSONAuthRequest("POST", "/closet/outfits/score", strconv.FormatUint(uint64(user.ID), 10), models.ScoreOutfitIn{ItemIDs: []uint{88888}})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
