package services

import (
	"testing"

	"closetapi/models"

	"github.com/stretchr/testify/assert"
)

func fakeItem(name string, category models.Category, colorPrimary string, styles []string) models.WardrobeItem {
	return models.WardrobeItem{
		Name:         name,
		Category:     category,
		ColorPrimary: colorPrimary,
		StyleTags:    styles,
	}
}

func TestScoreOutfitEmpty(t *testing.T) {
	engine := NewOutfitRulesEngine()
	assert.Equal(t, 0.0, engine.ScoreOutfit(nil, nil, nil))
}

func TestScoreOutfitStaysInRange(t *testing.T) {
	engine := NewOutfitRulesEngine()
	outfit := []models.WardrobeItem{
		fakeItem("White shirt", models.CategoryTops, "white", []string{"business"}),
		fakeItem("Black slacks", models.CategoryBottoms, "black", []string{"business"}),
		fakeItem("Navy coat", models.CategoryOuter, "navy", []string{"business"}),
	}
	schedule := []ScheduleEntry{{Time: "09:00", Event: "Quarterly review", Kind: "business"}}
	for temp := -30.0; temp <= 45.0; temp += 5.0 {
		snapshot := MockWeatherSnapshot()
		snapshot.Temp = temp
		score := engine.ScoreOutfit(outfit, &snapshot, schedule)
		assert.GreaterOrEqual(t, score, 0.0, "temp %v", temp)
		assert.LessOrEqual(t, score, 1.0, "temp %v", temp)
	}
}

func TestScoreOutfitNeutralWithoutWeatherAndSchedule(t *testing.T) {
	engine := NewOutfitRulesEngine()
	outfit := []models.WardrobeItem{
		fakeItem("Grey tee", models.CategoryTops, "grey", nil),
	}
	// single item, no weather, no schedule: every component sits at 0.5
	score := engine.ScoreOutfit(outfit, nil, nil)
	assert.InDelta(t, 0.5+0.3*0.5+0.3*0.5+0.2*0.5, score, 1e-9)
}

func TestColorPairScores(t *testing.T) {
	assert.Equal(t, 1.0, colorPairScore("blue", "orange"))
	assert.Equal(t, 0.9, colorPairScore("red", "red"))
	assert.Equal(t, 0.85, colorPairScore("black", "white"))
	assert.Equal(t, 0.8, colorPairScore("blue", "green"))
	assert.Equal(t, 0.5, colorPairScore("chartreuse", "red"))
}

func TestSeasonScorePrefersOuterInCold(t *testing.T) {
	top := fakeItem("Tee", models.CategoryTops, "white", nil)
	coat := fakeItem("Coat", models.CategoryOuter, "black", nil)

	withCoat := seasonScoreForTemp([]models.WardrobeItem{top, coat}, 2.0)
	withoutCoat := seasonScoreForTemp([]models.WardrobeItem{top}, 2.0)
	assert.Greater(t, withCoat, withoutCoat)

	// in heat the preference flips
	hotWithCoat := seasonScoreForTemp([]models.WardrobeItem{top, coat}, 30.0)
	hotWithoutCoat := seasonScoreForTemp([]models.WardrobeItem{top}, 30.0)
	assert.Less(t, hotWithCoat, hotWithoutCoat)
}

func TestTpoScoreMatchesSchedule(t *testing.T) {
	engine := NewOutfitRulesEngine()
	suit := []models.WardrobeItem{
		fakeItem("Suit jacket", models.CategoryOuter, "black", []string{"formal"}),
		fakeItem("Dress pants", models.CategoryBottoms, "black", []string{"formal"}),
	}
	gym := []models.WardrobeItem{
		fakeItem("Track top", models.CategoryTops, "red", []string{"sport"}),
		fakeItem("Joggers", models.CategoryBottoms, "black", []string{"sport"}),
	}
	schedule := []ScheduleEntry{{Time: "19:00", Event: "Wedding reception", Kind: "formal"}}

	suitScore := engine.ScoreOutfit(suit, nil, schedule)
	gymScore := engine.ScoreOutfit(gym, nil, schedule)
	assert.Greater(t, suitScore, gymScore)
}

func TestTpoScoreInfersKindFromEventTitle(t *testing.T) {
	engine := NewOutfitRulesEngine()
	suit := []models.WardrobeItem{
		fakeItem("Suit jacket", models.CategoryOuter, "black", []string{"formal"}),
		fakeItem("Dress pants", models.CategoryBottoms, "black", []string{"formal"}),
	}
	gym := []models.WardrobeItem{
		fakeItem("Track top", models.CategoryTops, "red", []string{"sport"}),
		fakeItem("Joggers", models.CategoryBottoms, "black", []string{"sport"}),
	}
	schedule := []ScheduleEntry{{Time: "10:00", Event: "Client meeting"}}

	suitScore := engine.ScoreOutfit(suit, nil, schedule)
	gymScore := engine.ScoreOutfit(gym, nil, schedule)
	assert.Greater(t, suitScore, gymScore)

	// an unrecognized title gives no styles to want, TPO stays neutral
	vague := []ScheduleEntry{{Time: "10:00", Event: "Errands"}}
	assert.Equal(t, engine.ScoreOutfit(suit, nil, nil), engine.ScoreOutfit(suit, nil, vague))
}

func TestTpoScoreUntaggedItemsStayNeutral(t *testing.T) {
	engine := NewOutfitRulesEngine()
	outfit := []models.WardrobeItem{
		fakeItem("Mystery top", models.CategoryTops, "blue", nil),
	}
	schedule := []ScheduleEntry{{Time: "12:00", Event: "Client lunch", Kind: "business"}}
	assert.InDelta(t, 0.5, engine.tpoScore(outfit, schedule), 1e-9)
}
