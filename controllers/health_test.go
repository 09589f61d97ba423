package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"closetapi/dbhelper"
	"closetapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthOk(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)

	req := test.NewJSONRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "ok", response.Components["database"])
	// no inspector wired in tests
	assert.Equal(t, "disabled", response.Components["queue"])
}

func TestBannedUserLockedOut(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	e := setupTestServer(db)
	user := test.FakeUser(db)
	user.Banned = true
	db.Save(user)

	req := test.NewJSONAuthRequest("GET", "/closet/profile/me", userPk(user), nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
}
