package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"closetapi/dbhelper"
	"closetapi/models"
	"closetapi/services"
	"closetapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestServer(db *gorm.DB) *echo.Echo {
	return SetupServer(
		db, test.GoogleServiceMock{}, &test.AWSProviderMock{}, nil,
		nil, nil, &test.URLCacheMock{},
		services.NewWeatherService(services.WeatherConfig{}),
		test.CompletionMock{},
	)
}

func userPk(user *models.UserAccount) string {
	return strconv.FormatUint(uint64(user.ID), 10)
}

func TestCreateWardrobeItemOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	reqBody := CreateWardrobeItemIn{
		Name:         "Blue Oxford Shirt",
		Category:     "tops",
		ColorPrimary: "Blue",
		SeasonTags:   []string{"spring", "autumn"},
		StyleTags:    []string{"business"},
		FileName:     StrPointer("shirt.jpg"),
	}

	req := test.NewJSONAuthRequest("POST", "/closet/wardrobe", userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, "Expected status code 201 Created, got %d", rec.Code)

	var response WardrobeItemCreatedResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	require.Equal(t, reqBody.Name, response.Name)
	require.Equal(t, models.CategoryTops, response.Category)
	require.Equal(t, "blue", response.ColorPrimary)
	require.NotNil(t, response.FileUploadUrl)
	require.Contains(t, *response.FileUploadUrl, fmt.Sprintf("wardrobe/%v/shirt.jpg", user.ID))
	require.Equal(t, "pending", response.ProcessingStatus)
}

func TestCreateWardrobeItemInvalidCategory(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	reqBody := CreateWardrobeItemIn{
		Name:     "Mystery thing",
		Category: "spacesuit",
	}

	req := test.NewJSONAuthRequest("POST", "/closet/wardrobe", userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWardrobeItemUnsupportedFileType(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	reqBody := CreateWardrobeItemIn{
		Name:     "Shirt",
		Category: "tops",
		FileName: StrPointer("shirt.exe"),
	}

	req := test.NewJSONAuthRequest("POST", "/closet/wardrobe", userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWardrobeItemUnauthorized(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	test.FakeUser(db)

	reqBody := CreateWardrobeItemIn{Name: "Shirt", Category: "tops"}
	req := test.NewJSONAuthRequest("POST", "/closet/wardrobe", "", reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListWardrobeGroupsByCategory(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	test.FakeWardrobeItem(db, user.ID, "Tee", models.CategoryTops, "white")
	test.FakeWardrobeItem(db, user.ID, "Jeans", models.CategoryBottoms, "blue")
	test.FakeWardrobeItem(db, user.ID, "Coat", models.CategoryOuter, "black")

	// another user's closet must not leak in
	stranger := &models.UserAccount{Name: "Other", Email: "other@example.com", Status: "FINISHED_AUTH"}
	db.Create(&stranger)
	test.FakeWardrobeItem(db, stranger.ID, "Not yours", models.CategoryTops, "red")

	req := test.NewJSONAuthRequest("GET", "/closet/wardrobe/list", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response WardrobeListResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 3, response.Total)
	assert.Len(t, response.Tops, 1)
	assert.Len(t, response.Bottoms, 1)
	assert.Len(t, response.Outer, 1)
	assert.Empty(t, response.Shoes)
}

func TestListWardrobePopulatesEveryImageURL(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	for i := 0; i < 3; i++ {
		item := test.FakeWardrobeItem(db, user.ID, fmt.Sprintf("Tee %v", i), models.CategoryTops, "white")
		item.ImageKey = test.NewRefString(fmt.Sprintf("wardrobe/%v/tee-%v.jpg", user.ID, i))
		db.Save(item)
	}

	req := test.NewJSONAuthRequest("GET", "/closet/wardrobe/list", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response WardrobeListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Tops, 3)
	for _, top := range response.Tops {
		require.NotNil(t, top.ImageURL, "item %v lost its read url", top.Name)
		assert.Contains(t, *top.ImageURL, "https://fakereadurl.com/")
	}
}

func TestGetWardrobeItemNotFound(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	req := test.NewJSONAuthRequest("GET", "/closet/wardrobe/99999", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateWardrobeItem(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)
	item := test.FakeWardrobeItem(db, user.ID, "Tee", models.CategoryTops, "white")

	reqBody := UpdateWardrobeItemIn{
		Name:         StrPointer("Favourite tee"),
		ColorPrimary: StrPointer("  Off White "),
	}
	req := test.NewJSONAuthRequest("PUT", fmt.Sprintf("/closet/wardrobe/%v", item.ID), userPk(user), reqBody)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response WardrobeItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Favourite tee", response.Name)
	assert.Equal(t, "off white", response.ColorPrimary)
}

func TestDeleteWardrobeItemOwnedByOther(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	stranger := &models.UserAccount{Name: "Other", Email: "other@example.com", Status: "FINISHED_AUTH"}
	db.Create(&stranger)
	item := test.FakeWardrobeItem(db, stranger.ID, "Not yours", models.CategoryTops, "red")

	req := test.NewJSONAuthRequest("DELETE", fmt.Sprintf("/closet/wardrobe/%v", item.ID), userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var survivor models.WardrobeItem
	assert.NoError(t, db.First(&survivor, item.ID).Error)
}

func TestWearWardrobeItem(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)
	item := test.FakeWardrobeItem(db, user.ID, "Tee", models.CategoryTops, "white")

	req := test.NewJSONAuthRequest("POST", fmt.Sprintf("/closet/wardrobe/%v/wear", item.ID), userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.WardrobeItem
	require.NoError(t, db.First(&updated, item.ID).Error)
	assert.Equal(t, 1, updated.WearCount)
	assert.NotNil(t, updated.LastWornDate)
}

func TestSimilarItemsUnprocessed(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)
	item := test.FakeWardrobeItem(db, user.ID, "Tee", models.CategoryTops, "white")

	req := test.NewJSONAuthRequest("GET", fmt.Sprintf("/closet/wardrobe/%v/similar", item.ID), userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Empty(t, response["results"])
}

func TestSimilarItemsRanked(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	target := test.FakeWardrobeItem(db, user.ID, "Blue shirt", models.CategoryTops, "blue")
	target.Embedding = services.NormalizeEmbedding([]float64{1, 0, 0})
	db.Save(target)

	near := test.FakeWardrobeItem(db, user.ID, "Navy shirt", models.CategoryTops, "navy")
	near.Embedding = services.NormalizeEmbedding([]float64{0.9, 0.1, 0})
	db.Save(near)

	far := test.FakeWardrobeItem(db, user.ID, "Red dress", models.CategoryDress, "red")
	far.Embedding = services.NormalizeEmbedding([]float64{0, 1, 0})
	db.Save(far)

	req := test.NewJSONAuthRequest("GET", fmt.Sprintf("/closet/wardrobe/%v/similar?limit=1", target.ID), userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Results []services.SimilarItem `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Results, 1)
	assert.Equal(t, "Navy shirt", response.Results[0].Item.Name)
}

func TestWardrobeGapsReport(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	test.FakeWardrobeItem(db, user.ID, "Tee", models.CategoryTops, "white")
	test.FakeWardrobeItem(db, user.ID, "Jeans", models.CategoryBottoms, "blue")

	req := test.NewJSONAuthRequest("GET", "/closet/wardrobe/gaps", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var report services.WardrobeGapReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalItems)
	assert.Equal(t, 1, report.OutfitCombinations)
	assert.NotEmpty(t, report.Recommendations)
}

func TestWardrobeCombinations(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	test.FakeWardrobeItem(db, user.ID, "Tee", models.CategoryTops, "white")
	test.FakeWardrobeItem(db, user.ID, "Shirt", models.CategoryTops, "blue")
	test.FakeWardrobeItem(db, user.ID, "Jeans", models.CategoryBottoms, "blue")
	test.FakeWardrobeItem(db, user.ID, "Coat", models.CategoryOuter, "black")

	req := test.NewJSONAuthRequest("GET", "/closet/wardrobe/combinations", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 4, response["combinations"])
}
