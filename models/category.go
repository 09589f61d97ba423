package models

import (
	"regexp"

	"github.com/go-playground/validator"
)

type Category string

const (
	CategoryTops      Category = "tops"
	CategoryBottoms   Category = "bottoms"
	CategoryOuter     Category = "outer"
	CategoryShoes     Category = "shoes"
	CategoryDress     Category = "dress"
	CategoryBag       Category = "bag"
	CategoryHat       Category = "hat"
	CategoryAccessory Category = "accessory"
)

func (c *Category) Scan(value interface{}) error {
	*c = Category(value.(string))
	return nil
}

func (c Category) Value() string {
	return string(c)
}

func ScanCategory(value string) Category {
	return Category(value)
}

func ValidateCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^(tops|bottoms|outer|shoes|dress|bag|hat|accessory)$", value)
	return matched
}

func ValidateCategoryRaw(value string) bool {
	matched, _ := regexp.MatchString("^(tops|bottoms|outer|shoes|dress|bag|hat|accessory)$", value)
	return matched
}

type Season string

const (
	SeasonSpring    Season = "spring"
	SeasonSummer    Season = "summer"
	SeasonAutumn    Season = "autumn"
	SeasonWinter    Season = "winter"
	SeasonAllSeason Season = "all_season"
)

// Seasons covered by the wardrobe coverage report, in display order.
var CoverageSeasons = []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}

func (s *Season) Scan(value interface{}) error {
	*s = Season(value.(string))
	return nil
}

func (s Season) Value() string {
	return string(s)
}

func ValidateSeason(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^(spring|summer|autumn|winter|all_season)$", value)
	return matched
}

type Style string

const (
	StyleCasual   Style = "casual"
	StyleFormal   Style = "formal"
	StyleBusiness Style = "business"
	StyleSport    Style = "sport"
	StyleElegant  Style = "elegant"
)

// Styles covered by the wardrobe coverage report, in display order.
var CoverageStyles = []Style{StyleCasual, StyleFormal, StyleBusiness, StyleSport, StyleElegant}

func (s *Style) Scan(value interface{}) error {
	*s = Style(value.(string))
	return nil
}

func (s Style) Value() string {
	return string(s)
}

func ValidateStyle(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	matched, _ := regexp.MatchString("^(casual|formal|business|sport|elegant)$", value)
	return matched
}
