package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"closetapi/models"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

const defaultSuggestionCount = 3
const fallbackBaselineScore = 0.5
const coldOuterThreshold = 15.0

type OutfitSuggestion struct {
	ItemIDs     []int64 `json:"items"`
	Reason      string  `json:"reason"`
	WeatherNote string  `json:"weather_appropriateness,omitempty"`
	StyleScore  float64 `json:"style_score"`
}

type GenerationResult struct {
	Suggestions []OutfitSuggestion `json:"suggestions"`
	Source      string             `json:"source"`
}

// OutfitGenerator drafts outfits with the completion backend and lets the
// rules engine do the actual judging. A dead or misbehaving backend
// degrades to rule-based pairing, generation never errors outward.
type OutfitGenerator struct {
	Completion CompletionProvider
	Rules      *OutfitRulesEngine
}

func NewOutfitGenerator(completion CompletionProvider, rules *OutfitRulesEngine) *OutfitGenerator {
	return &OutfitGenerator{Completion: completion, Rules: rules}
}

func (g *OutfitGenerator) Generate(ctx context.Context, items []models.WardrobeItem, weather *WeatherSnapshot, schedule []ScheduleEntry, recent []models.Outfit, count int) GenerationResult {
	if count <= 0 {
		count = defaultSuggestionCount
	}
	byID := map[int64]models.WardrobeItem{}
	for _, item := range items {
		byID[int64(item.ID)] = item
	}

	var text string
	if g.Completion != nil {
		completed, err := g.Completion.Complete(ctx, g.buildPrompt(items, weather, schedule, recent, count))
		if err != nil {
			fmt.Println("Completion failed, falling back to rules:", err)
		} else {
			text = completed
		}
	}

	suggestions := parseSuggestionLines(text)
	source := SourceLLM
	if len(suggestions) == 0 {
		suggestions = g.fallbackSuggestions(items, weather, count)
		source = SourceFallback
	}

	// the rules engine is authoritative, whatever score the model claimed
	// gets overwritten here
	for i := range suggestions {
		suggestions[i].StyleScore = g.Rules.ScoreOutfit(resolveItems(byID, suggestions[i].ItemIDs), weather, schedule)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].StyleScore > suggestions[j].StyleScore
	})
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return GenerationResult{Suggestions: suggestions, Source: source}
}

func resolveItems(byID map[int64]models.WardrobeItem, ids []int64) []models.WardrobeItem {
	var resolved []models.WardrobeItem
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			resolved = append(resolved, item)
		}
	}
	return resolved
}

type suggestionCandidate struct {
	Items                  *[]int64 `json:"items"`
	Reason                 string   `json:"reason"`
	WeatherAppropriateness string   `json:"weather_appropriateness"`
	StyleScore             float64  `json:"style_score"`
}

// parseSuggestionLines reads the completion output one line at a time and
// keeps only lines that are complete JSON objects carrying an items array.
// Chatter, markdown fences and truncated trailing objects all drop out.
func parseSuggestionLines(text string) []OutfitSuggestion {
	var suggestions []OutfitSuggestion
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		var candidate suggestionCandidate
		if err := json.Unmarshal([]byte(line), &candidate); err != nil {
			continue
		}
		if candidate.Items == nil || len(*candidate.Items) == 0 {
			continue
		}
		suggestions = append(suggestions, OutfitSuggestion{
			ItemIDs:     *candidate.Items,
			Reason:      candidate.Reason,
			WeatherNote: candidate.WeatherAppropriateness,
			StyleScore:  candidate.StyleScore,
		})
	}
	return suggestions
}

// fallbackSuggestions pairs the i-th top with the i-th bottom, adding the
// i-th outer when it is cold enough.
func (g *OutfitGenerator) fallbackSuggestions(items []models.WardrobeItem, weather *WeatherSnapshot, count int) []OutfitSuggestion {
	var tops, bottoms, outers []models.WardrobeItem
	for _, item := range items {
		switch item.Category {
		case models.CategoryTops:
			tops = append(tops, item)
		case models.CategoryBottoms:
			bottoms = append(bottoms, item)
		case models.CategoryOuter:
			outers = append(outers, item)
		}
	}

	needOuter := weather != nil && weather.Temp < coldOuterThreshold
	suggestions := []OutfitSuggestion{}
	for i := 0; i < count && i < len(tops) && i < len(bottoms); i++ {
		ids := []int64{int64(tops[i].ID), int64(bottoms[i].ID)}
		reason := fmt.Sprintf("%s with %s", tops[i].Name, bottoms[i].Name)
		note := ""
		if needOuter && i < len(outers) {
			ids = append(ids, int64(outers[i].ID))
			reason = fmt.Sprintf("%s under %s", reason, outers[i].Name)
			note = fmt.Sprintf("outer layer added for %.0f°C", weather.Temp)
		} else if weather != nil {
			note = fmt.Sprintf("picked for %.0f°C %s", weather.Temp, weather.Condition)
		}
		suggestions = append(suggestions, OutfitSuggestion{
			ItemIDs:     ids,
			Reason:      reason,
			WeatherNote: note,
			StyleScore:  fallbackBaselineScore,
		})
	}
	return suggestions
}

func (g *OutfitGenerator) buildPrompt(items []models.WardrobeItem, weather *WeatherSnapshot, schedule []ScheduleEntry, recent []models.Outfit, count int) string {
	var b strings.Builder
	b.WriteString("You are a stylist composing outfits from the wardrobe below.\n")
	b.WriteString("Wardrobe:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- id=%d %s %s", item.ID, item.Category, NormalizeAttribute(item.ColorPrimary))
		if item.Pattern != nil && *item.Pattern != "" {
			fmt.Fprintf(&b, " %s", NormalizeAttribute(*item.Pattern))
		}
		fmt.Fprintf(&b, " %s", item.Name)
		if len(item.StyleTags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(item.StyleTags, ", "))
		}
		b.WriteString("\n")
	}
	if weather != nil {
		fmt.Fprintf(&b, "Weather: %.1f°C, %s\n", weather.Temp, weather.Condition)
	}
	if len(schedule) > 0 {
		b.WriteString("Schedule:\n")
		for _, entry := range schedule {
			fmt.Fprintf(&b, "- %s %s (%s)\n", entry.Time, entry.Event, entry.Kind)
		}
	}
	if len(recent) > 0 {
		b.WriteString("Recently worn outfits, avoid repeating them:\n")
		for _, outfit := range recent {
			fmt.Fprintf(&b, "- items %v\n", []int64(outfit.ItemIDs))
		}
	}
	fmt.Fprintf(&b, "Respond with exactly %d lines. Each line must be a single JSON object: ", count)
	b.WriteString(`{"items": [<item ids>], "reason": "...", "weather_appropriateness": "...", "style_score": 0.0}`)
	b.WriteString("\nNo other text.")
	return b.String()
}
