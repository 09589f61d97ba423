package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"closetapi/dbhelper"
	"closetapi/services"
	"closetapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentWeather(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	req := test.NewJSONAuthRequest("GET", "/closet/weather/current", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot services.WeatherSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.Mock)
	assert.Equal(t, 20.0, snapshot.Temp)
}

func TestWeatherForecastDaysParam(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	req := test.NewJSONAuthRequest("GET", "/closet/weather/forecast?days=3", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Forecast []services.ForecastDay `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Forecast, 3)
}

func TestWeatherRecommendation(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)

	req := test.NewJSONAuthRequest("GET", "/closet/weather/recommendation", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Weather services.WeatherSnapshot `json:"weather"`
		Advice  services.ClothingAdvice  `json:"advice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	// mock snapshot sits at 20°C, midweight advice applies
	assert.Contains(t, response.Advice.Suggestions, "long sleeve shirt")
	assert.False(t, response.Advice.OuterRecommended)
}

func TestWeatherRequiresAuth(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	req := test.NewJSONRequest("GET", "/closet/weather/current", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
