package tasks

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"closetapi/dbhelper"
	"closetapi/models"
	"closetapi/services"
	"closetapi/test"

	"github.com/stretchr/testify/assert"
)

func fakeItemPhoto(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 60, B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessItemTask(t *testing.T) {
	fmt.Println("Starting TestProcessItemTask")
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	item := models.WardrobeItem{
		OwnerID:          user.ID,
		Name:             "",
		Category:         models.CategoryAccessory,
		ImageKey:         test.NewRefString(fmt.Sprintf("wardrobe/%v/shirt.png", user.ID)),
		ImageStatus:      "uploaded",
		ProcessingStatus: "pending",
	}
	db.Create(&item)

	photo := fakeItemPhoto(t)
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(photo)
	}))
	defer mockServer.Close()

	fakeTask, err := NewItemProcessingTask(item.ID)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	awsServiceMock := &test.AWSProviderMock{MockUrl: mockServer.URL}

	tempFilesBefore, _ := filepath.Glob(filepath.Join(os.TempDir(), "temp-*.png"))

	err = HandleProcessItemTask(context.Background(), fakeTask, db, test.MockAttributeExtractor{}, awsServiceMock, nil)
	assert.NoError(t, err)

	// the processing temp file must not outlive the task
	tempFilesAfter, _ := filepath.Glob(filepath.Join(os.TempDir(), "temp-*.png"))
	assert.Equal(t, len(tempFilesBefore), len(tempFilesAfter))

	var updated models.WardrobeItem
	err = db.Where("id = ?", item.ID).First(&updated).Error
	assert.NoError(t, err)
	assert.Equal(t, "completed", updated.ProcessingStatus)
	assert.Equal(t, "Blue Oxford Shirt", updated.Name)
	assert.Equal(t, models.CategoryTops, updated.Category)
	assert.Equal(t, "blue", updated.ColorPrimary)
	assert.NotNil(t, updated.Material)
	assert.Equal(t, "cotton", *updated.Material)
	assert.True(t, test.Contains(updated.SeasonTags, "spring"))
	assert.True(t, test.Contains(updated.StyleTags, "business"))
	assert.Equal(t, services.EmbeddingDim(), len(updated.Embedding))
	assert.Nil(t, updated.ProcessErrorMessage)
}

func TestProcessItemTaskKeepsUserGivenName(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	item := models.WardrobeItem{
		OwnerID:          user.ID,
		Name:             "My favourite shirt",
		Category:         models.CategoryAccessory,
		ImageKey:         test.NewRefString(fmt.Sprintf("wardrobe/%v/fav.png", user.ID)),
		ImageStatus:      "uploaded",
		ProcessingStatus: "pending",
	}
	db.Create(&item)

	photo := fakeItemPhoto(t)
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(photo)
	}))
	defer mockServer.Close()

	fakeTask, err := NewItemProcessingTask(item.ID)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	err = HandleProcessItemTask(context.Background(), fakeTask, db, test.MockAttributeExtractor{}, &test.AWSProviderMock{MockUrl: mockServer.URL}, nil)
	assert.NoError(t, err)

	var updated models.WardrobeItem
	db.Where("id = ?", item.ID).First(&updated)
	assert.Equal(t, "My favourite shirt", updated.Name)
	assert.Equal(t, models.CategoryTops, updated.Category)
}

func TestProcessItemTaskFailsWithoutImage(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	user := test.FakeUser(db)

	item := models.WardrobeItem{
		OwnerID:          user.ID,
		Name:             "Ghost item",
		Category:         models.CategoryTops,
		ImageStatus:      "draft",
		ProcessingStatus: "pending",
	}
	db.Create(&item)

	fakeTask, err := NewItemProcessingTask(item.ID)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	err = HandleProcessItemTask(context.Background(), fakeTask, db, test.MockAttributeExtractor{}, &test.AWSProviderMock{}, nil)
	assert.Error(t, err)

	var updated models.WardrobeItem
	db.Where("id = ?", item.ID).First(&updated)
	assert.Equal(t, "pending", updated.ProcessingStatus)
	assert.Equal(t, 1, updated.ProcessRetryTimes)
	assert.NotNil(t, updated.ProcessErrorMessage)
}

func TestWeatherSyncTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	// no API key configured, the service serves its mock forecast
	weather := services.NewWeatherService(services.WeatherConfig{})

	err := HandleWeatherSyncTask(context.Background(), NewWeatherSyncTask(), db, weather)
	assert.NoError(t, err)

	var count int64
	db.Model(&models.WeatherDay{}).Count(&count)
	assert.Equal(t, int64(5), count)

	// rerun updates rows in place instead of duplicating them
	err = HandleWeatherSyncTask(context.Background(), NewWeatherSyncTask(), db, weather)
	assert.NoError(t, err)
	db.Model(&models.WeatherDay{}).Count(&count)
	assert.Equal(t, int64(5), count)
}
