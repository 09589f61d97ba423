package services

import (
	"sort"
	"strings"

	"closetapi/models"
)

// ScheduleEntry is a single calendar item of the day the outfit is scored for.
// Kind is one of "business", "formal", "casual", "sport".
type ScheduleEntry struct {
	Time  string `json:"time"`
	Event string `json:"event"`
	Kind  string `json:"kind"`
}

const neutralScore = 0.5

var neutralColors = map[string]bool{
	"white": true,
	"black": true,
	"gray":  true,
	"grey":  true,
	"beige": true,
	"ivory": true,
	"navy":  true,
}

var complementaryPairs = map[string]bool{
	pairKey("blue", "orange"):   true,
	pairKey("red", "green"):     true,
	pairKey("yellow", "purple"): true,
	pairKey("navy", "yellow"):   true,
}

var analogousPairs = map[string]bool{
	pairKey("red", "orange"):    true,
	pairKey("orange", "yellow"): true,
	pairKey("yellow", "green"):  true,
	pairKey("green", "blue"):    true,
	pairKey("blue", "purple"):   true,
	pairKey("purple", "red"):    true,
	pairKey("red", "pink"):      true,
	pairKey("navy", "blue"):     true,
	pairKey("brown", "beige"):   true,
}

var scheduleKindStyles = map[string][]string{
	"business": {"business", "formal", "elegant"},
	"formal":   {"formal", "elegant", "business"},
	"casual":   {"casual"},
	"sport":    {"sport"},
}

var eventKindKeywords = []struct {
	keyword string
	kind    string
}{
	{"meeting", "business"},
	{"interview", "business"},
	{"presentation", "business"},
	{"conference", "business"},
	{"wedding", "formal"},
	{"ceremony", "formal"},
	{"gala", "formal"},
	{"gym", "sport"},
	{"workout", "sport"},
	{"training", "sport"},
}

// inferScheduleKind guesses a dress kind from the event title when the
// caller supplied none. Calendar entries usually arrive as bare time+event
// pairs.
func inferScheduleKind(event string) string {
	lowered := strings.ToLower(event)
	for _, candidate := range eventKindKeywords {
		if strings.Contains(lowered, candidate.keyword) {
			return candidate.kind
		}
	}
	return ""
}

func pairKey(a, b string) string {
	colors := []string{a, b}
	sort.Strings(colors)
	return strings.Join(colors, "|")
}

// OutfitRulesEngine scores outfits with pure rules only. It holds no state
// and never touches the network or the database.
type OutfitRulesEngine struct {
}

func NewOutfitRulesEngine() *OutfitRulesEngine {
	return &OutfitRulesEngine{}
}

// ScoreOutfit combines color harmony, season fit and schedule (TPO) fit
// into a single score in [0, 1]. Unknown inputs fall back to a neutral 0.5
// for their component rather than punishing the outfit.
func (e *OutfitRulesEngine) ScoreOutfit(items []models.WardrobeItem, weather *WeatherSnapshot, schedule []ScheduleEntry) float64 {
	if len(items) == 0 {
		return 0
	}
	score := 0.5 +
		0.3*e.colorScore(items) +
		0.3*e.seasonScore(items, weather) +
		0.2*e.tpoScore(items, schedule)
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func (e *OutfitRulesEngine) colorScore(items []models.WardrobeItem) float64 {
	var colors []string
	for _, item := range items {
		color := NormalizeAttribute(item.ColorPrimary)
		if color != "" {
			colors = append(colors, color)
		}
	}
	if len(colors) < 2 {
		return neutralScore
	}
	total := 0.0
	pairs := 0
	for i := range colors {
		for j := i + 1; j < len(colors); j++ {
			total += colorPairScore(colors[i], colors[j])
			pairs++
		}
	}
	return total / float64(pairs)
}

func colorPairScore(a, b string) float64 {
	switch {
	case complementaryPairs[pairKey(a, b)]:
		return 1.0
	case a == b:
		return 0.9
	case neutralColors[a] && neutralColors[b]:
		return 0.85
	case analogousPairs[pairKey(a, b)]:
		return 0.8
	default:
		return neutralScore
	}
}

func (e *OutfitRulesEngine) seasonScore(items []models.WardrobeItem, weather *WeatherSnapshot) float64 {
	if weather == nil {
		return neutralScore
	}
	return seasonScoreForTemp(items, weather.Temp)
}

// seasonScoreForTemp favors an outer layer in cold bands and punishes it in
// hot ones. Every band returns a non-negative value, extreme temperatures
// included.
func seasonScoreForTemp(items []models.WardrobeItem, temp float64) float64 {
	hasOuter := false
	for _, item := range items {
		if item.Category == models.CategoryOuter {
			hasOuter = true
			break
		}
	}
	switch {
	case temp < 5:
		if hasOuter {
			return 1.0
		}
		return 0.1
	case temp < 10:
		if hasOuter {
			return 1.0
		}
		return 0.2
	case temp < 15:
		if hasOuter {
			return 0.9
		}
		return 0.4
	case temp < 25:
		if hasOuter {
			return 0.5
		}
		return 0.9
	default:
		if hasOuter {
			return 0.1
		}
		return 1.0
	}
}

func (e *OutfitRulesEngine) tpoScore(items []models.WardrobeItem, schedule []ScheduleEntry) float64 {
	wantedStyles := map[string]bool{}
	for _, entry := range schedule {
		kind := strings.ToLower(entry.Kind)
		if kind == "" {
			kind = inferScheduleKind(entry.Event)
		}
		for _, style := range scheduleKindStyles[kind] {
			wantedStyles[style] = true
		}
	}
	if len(wantedStyles) == 0 {
		return neutralScore
	}
	total := 0.0
	for _, item := range items {
		if len(item.StyleTags) == 0 {
			total += neutralScore
			continue
		}
		matched := false
		for _, tag := range item.StyleTags {
			if wantedStyles[NormalizeAttribute(tag)] {
				matched = true
				break
			}
		}
		if matched {
			total += 1.0
		} else {
			total += 0.2
		}
	}
	return total / float64(len(items))
}
