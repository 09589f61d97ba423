package models

import (
	"time"

	"github.com/lib/pq"
)

type WardrobeItem struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	Name           string   `json:"name"`
	Category       Category `sql:"type:ENUM('tops', 'bottoms', 'outer', 'shoes', 'dress', 'bag', 'hat', 'accessory')" json:"category"`
	ColorPrimary   string   `json:"color_primary"`
	ColorSecondary *string  `json:"color_secondary"`
	Pattern        *string  `json:"pattern"`
	Material       *string  `json:"material"`
	Brand          *string  `json:"brand"`

	SeasonTags pq.StringArray `gorm:"type:text[]" json:"season_tags"`
	StyleTags  pq.StringArray `gorm:"type:text[]" json:"style_tags"`

	Description      *string    `gorm:"type:text" json:"description"`
	CareInstructions *string    `gorm:"type:text" json:"care_instructions"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	LastWornDate     *time.Time `json:"last_worn_date"`
	WearCount        int        `gorm:"default:0" json:"wear_count"`

	// object key under the wardrobe bucket, nil until an image is attached
	ImageKey *string `json:"-"`
	// "draft" until the client confirms the upload, then "uploaded"
	ImageStatus string `json:"image_status"`

	// "idle", "pending", "processing", "completed", "failed"
	ProcessingStatus    string  `json:"processing_status"`
	ProcessRetryTimes   int     `gorm:"default:0" json:"-"`
	ProcessErrorMessage *string `json:"-"`

	// L2-normalized item embedding, empty until processing completes
	Embedding pq.Float64Array `gorm:"type:double precision[]" json:"-"`
}

type Outfit struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	ItemIDs  pq.Int64Array `gorm:"type:bigint[]" json:"item_ids"`
	WornDate *time.Time    `json:"worn_date"`

	// weather snapshot captured when the outfit was created
	WeatherTemp      *float64 `json:"weather_temp"`
	WeatherCondition *string  `json:"weather_condition"`

	Occasion *string `json:"occasion"`
	Rating   *int    `json:"rating"`
	Notes    *string `gorm:"type:text" json:"notes"`
}

// WeatherDay is the forecast cache filled by the weather sync task.
type WeatherDay struct {
	JsonModel
	Date      string  `gorm:"uniqueIndex" json:"date"`
	Temp      float64 `json:"temp"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Condition string  `json:"condition"`
	Humidity  int     `json:"humidity"`
	WindSpeed float64 `json:"wind_speed"`
}
