package services

import (
	"fmt"
	"math"

	"closetapi/models"
)

// itemsPerFullCoverage: five tagged items fully cover a style or season slot.
const itemsPerFullCoverage = 5

const coverageGapThreshold = 30.0

// essentialItems lists the baseline pieces a functional wardrobe needs per
// category, with how many of each.
var essentialItems = map[string]map[string]int{
	"tops": {
		"white shirt": 2,
		"t-shirt":     3,
		"knit":        2,
	},
	"bottoms": {
		"jeans":  1,
		"slacks": 1,
		"chinos": 1,
	},
	"outer": {
		"jacket":   1,
		"cardigan": 1,
		"coat":     1,
	},
	"shoes": {
		"sneakers":      1,
		"leather shoes": 1,
	},
}

var seasonalSuggestions = map[string][]string{
	"spring": {"light cardigan", "pastel tops"},
	"summer": {"linen shirt", "shorts"},
	"autumn": {"trench coat", "knitwear"},
	"winter": {"wool coat", "heavy knit"},
}

type CategoryDistribution struct {
	Distribution map[string]int `json:"distribution"`
	MostCommon   *string        `json:"most_common"`
	LeastCommon  *string        `json:"least_common"`
}

type ColorDistribution struct {
	Distribution map[string]int `json:"distribution"`
	Variety      int            `json:"variety"`
	MostCommon   *string        `json:"most_common"`
}

type CoverageEntry struct {
	Count    int     `json:"count"`
	Coverage float64 `json:"coverage"`
}

type EssentialStatus struct {
	Required  int  `json:"required"`
	Actual    int  `json:"actual"`
	Satisfied bool `json:"satisfied"`
}

type GapRecommendation struct {
	Item           string   `json:"item"`
	Reason         string   `json:"reason"`
	Priority       string   `json:"priority"`
	SuggestedItems []string `json:"suggested_items,omitempty"`
}

type WardrobeGapReport struct {
	TotalItems         int                                   `json:"total_items"`
	Categories         CategoryDistribution                  `json:"categories"`
	Colors             ColorDistribution                     `json:"colors"`
	StyleCoverage      map[string]CoverageEntry              `json:"style_coverage"`
	SeasonCoverage     map[string]CoverageEntry              `json:"season_coverage"`
	Essentials         map[string]map[string]EssentialStatus `json:"essentials"`
	GapScore           float64                               `json:"gap_score"`
	Recommendations    []GapRecommendation                   `json:"recommendations"`
	OutfitCombinations int                                   `json:"outfit_combinations"`
}

// orderedCounter counts strings while remembering first-seen order, so
// most/least common lookups break ties deterministically.
type orderedCounter struct {
	keys   []string
	counts map[string]int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{counts: map[string]int{}}
}

func (c *orderedCounter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *orderedCounter) MostCommon() *string {
	var best *string
	for i, key := range c.keys {
		if best == nil || c.counts[key] > c.counts[*best] {
			best = &c.keys[i]
		}
	}
	return best
}

func (c *orderedCounter) LeastCommon() *string {
	var best *string
	for i, key := range c.keys {
		if best == nil || c.counts[key] < c.counts[*best] {
			best = &c.keys[i]
		}
	}
	return best
}

type WardrobeGapAnalyzer struct {
}

func NewWardrobeGapAnalyzer() *WardrobeGapAnalyzer {
	return &WardrobeGapAnalyzer{}
}

// Analyze builds the full gap report for a wardrobe. An empty or nil
// wardrobe yields a well-formed report with zero counts, never an error.
func (a *WardrobeGapAnalyzer) Analyze(items []models.WardrobeItem) WardrobeGapReport {
	categories := newOrderedCounter()
	colors := newOrderedCounter()
	styleTags := newOrderedCounter()
	seasonTags := newOrderedCounter()

	for _, item := range items {
		categories.Add(string(item.Category))
		if color := NormalizeAttribute(item.ColorPrimary); color != "" {
			colors.Add(color)
		}
		for _, tag := range item.StyleTags {
			if tag := NormalizeAttribute(tag); tag != "" {
				styleTags.Add(tag)
			}
		}
		for _, tag := range item.SeasonTags {
			if tag := NormalizeAttribute(tag); tag != "" {
				seasonTags.Add(tag)
			}
		}
	}

	styleCoverage := map[string]CoverageEntry{}
	for _, style := range models.CoverageStyles {
		styleCoverage[string(style)] = coverageEntry(styleTags.counts[string(style)])
	}
	seasonCoverage := map[string]CoverageEntry{}
	for _, season := range models.CoverageSeasons {
		seasonCoverage[string(season)] = coverageEntry(seasonTags.counts[string(season)])
	}

	essentials := map[string]map[string]EssentialStatus{}
	for category, wanted := range essentialItems {
		categoryCount := categories.counts[category]
		statuses := map[string]EssentialStatus{}
		for name, required := range wanted {
			actual := categoryCount
			if actual > required {
				actual = required
			}
			statuses[name] = EssentialStatus{
				Required:  required,
				Actual:    actual,
				Satisfied: categoryCount >= required,
			}
		}
		essentials[category] = statuses
	}

	report := WardrobeGapReport{
		TotalItems: len(items),
		Categories: CategoryDistribution{
			Distribution: copyCounts(categories),
			MostCommon:   categories.MostCommon(),
			LeastCommon:  categories.LeastCommon(),
		},
		Colors: ColorDistribution{
			Distribution: copyCounts(colors),
			Variety:      len(colors.keys),
			MostCommon:   colors.MostCommon(),
		},
		StyleCoverage:      styleCoverage,
		SeasonCoverage:     seasonCoverage,
		Essentials:         essentials,
		GapScore:           gapScore(len(categories.keys), styleCoverage, seasonCoverage, len(colors.keys)),
		Recommendations:    a.recommendations(categories, styleCoverage, seasonCoverage, len(colors.keys)),
		OutfitCombinations: OutfitCombinations(items),
	}
	return report
}

// OutfitCombinations estimates how many base outfits the wardrobe supports:
// every top with every bottom, each optionally with one of the outers.
func OutfitCombinations(items []models.WardrobeItem) int {
	tops, bottoms, outers := 0, 0, 0
	for _, item := range items {
		switch item.Category {
		case models.CategoryTops:
			tops++
		case models.CategoryBottoms:
			bottoms++
		case models.CategoryOuter:
			outers++
		}
	}
	return tops * bottoms * (outers + 1)
}

func coverageEntry(count int) CoverageEntry {
	if count == 0 {
		return CoverageEntry{Count: 0, Coverage: 0}
	}
	coverage := float64(count) / itemsPerFullCoverage * 100
	if coverage > 100 {
		coverage = 100
	}
	return CoverageEntry{Count: count, Coverage: coverage}
}

func copyCounts(c *orderedCounter) map[string]int {
	out := map[string]int{}
	for key, count := range c.counts {
		out[key] = count
	}
	return out
}

func averageCoverage(coverage map[string]CoverageEntry) float64 {
	if len(coverage) == 0 {
		return 0
	}
	total := 0.0
	for _, entry := range coverage {
		total += entry.Coverage
	}
	return total / float64(len(coverage))
}

// gapScore weighs four 25-point components: category variety, style
// coverage, season coverage and color variety. Rounded to one decimal.
func gapScore(categoryVariety int, styleCoverage, seasonCoverage map[string]CoverageEntry, colorVariety int) float64 {
	categoryComponent := math.Min(3, float64(categoryVariety)) / 3 * 25
	styleComponent := averageCoverage(styleCoverage) / 100 * 25
	seasonComponent := averageCoverage(seasonCoverage) / 100 * 25
	colorComponent := math.Min(25, float64(colorVariety)/8*25)
	return math.Round((categoryComponent+styleComponent+seasonComponent+colorComponent)*10) / 10
}

func (a *WardrobeGapAnalyzer) recommendations(categories *orderedCounter, styleCoverage, seasonCoverage map[string]CoverageEntry, colorVariety int) []GapRecommendation {
	recs := []GapRecommendation{}
	if tops := categories.counts["tops"]; tops < 3 {
		recs = append(recs, GapRecommendation{
			Item:     "tops",
			Reason:   fmt.Sprintf("Only %d tops, a weekday rotation needs at least 3", tops),
			Priority: "high",
		})
	}
	if bottoms := categories.counts["bottoms"]; bottoms < 2 {
		recs = append(recs, GapRecommendation{
			Item:     "bottoms",
			Reason:   fmt.Sprintf("Only %d bottoms, at least 2 are needed to alternate", bottoms),
			Priority: "high",
		})
	}
	if outers := categories.counts["outer"]; outers < 1 {
		recs = append(recs, GapRecommendation{
			Item:     "outer",
			Reason:   "No outerwear for cold or rainy days",
			Priority: "medium",
		})
	}
	for _, style := range models.CoverageStyles {
		entry := styleCoverage[string(style)]
		if entry.Coverage < coverageGapThreshold {
			recs = append(recs, GapRecommendation{
				Item:     fmt.Sprintf("%s style", style),
				Reason:   fmt.Sprintf("Weak %s coverage (%.0f%%)", style, entry.Coverage),
				Priority: "medium",
			})
		}
	}
	for _, season := range models.CoverageSeasons {
		entry := seasonCoverage[string(season)]
		if entry.Coverage < coverageGapThreshold {
			recs = append(recs, GapRecommendation{
				Item:           fmt.Sprintf("%s wear", season),
				Reason:         fmt.Sprintf("Weak %s coverage (%.0f%%)", season, entry.Coverage),
				Priority:       "medium",
				SuggestedItems: seasonalSuggestions[string(season)],
			})
		}
	}
	if colorVariety < 4 {
		recs = append(recs, GapRecommendation{
			Item:     "color variety",
			Reason:   fmt.Sprintf("Only %d colors in the wardrobe, combinations stay repetitive", colorVariety),
			Priority: "low",
		})
	}
	return recs
}
