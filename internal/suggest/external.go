package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/packmate/internal/llm"
)

const (
	suggestSystemPrompt = "You are a helpful assistant that suggests items needed for events. Return only a JSON array of item names, maximum 8 items."
	suggestMaxTokens    = 150
	suggestTemperature  = 0.7

	suggestPrompt = `Event: "%s" on %s

STEP 1 - Event Analysis:
Identify the PRIMARY activity: %s
Location type: %s
My role: %s

STEP 2 - Item Selection Rules:
- ONLY suggest items I personally need to bring or prepare
- EXCLUDE items provided by venues, hosts, or services
- Focus on preparation, participation, or personal needs
- Be specific and practical

STEP 3 - Context Validation:
- Shopping/grocery -> ingredients, shopping list, bags, wallet
- Meeting/chat -> notebook, pen, business cards, phone
- Cooking/meal prep -> ingredients, utensils, recipe
- Dining out -> wallet, reservation confirmation, nice clothes
- Travel -> luggage, documents, comfort items

Return ONLY a valid JSON array of 3-8 specific items:
["item1", "item2", "item3"]

NO explanations, NO categories, NO venue items.`
)

// Activity is the coarse reading of an event title used to steer and
// filter external suggestions.
type Activity struct {
	Primary  string
	Location string
	Role     string
	// Exclude drops suggestions containing any of these substrings.
	Exclude []string
}

var (
	activityShopping = Activity{"shopping/purchasing", "store/market", "shopper",
		[]string{"reservation", "nice outfit", "formal attire", "dress", "suit"}}
	activityMeeting = Activity{"meeting/discussion", "café/office", "participant",
		[]string{"coffee", "coffee machine", "beans", "menu", "table"}}
	activityCooking = Activity{"cooking/preparation", "kitchen/home", "cook",
		[]string{"venue", "location", "host", "service", "staff", "menu", "table", "chair"}}
	activityDining = Activity{"dining out", "restaurant", "diner",
		[]string{"ingredients", "recipe", "cooking utensils", "stove", "pan"}}
	activityTravel = Activity{"traveling", "various", "traveler",
		[]string{"venue", "location", "host", "service", "staff", "menu", "table", "chair"}}
	activityGeneral = Activity{"general activity", "to be determined", "participant",
		[]string{"venue", "location", "host", "service", "staff", "menu", "table", "chair"}}
)

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// AnalyzeActivity classifies a title. The first matching rule wins.
func AnalyzeActivity(title string) Activity {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "grocery", "shopping", "buy"):
		return activityShopping
	case containsAny(t, "coffee", "chat", "meeting"):
		return activityMeeting
	case containsAny(t, "cooking", "meal prep", "recipe"):
		return activityCooking
	case containsAny(t, "dinner", "restaurant", "dining"):
		return activityDining
	case containsAny(t, "travel", "trip", "vacation"):
		return activityTravel
	default:
		return activityGeneral
	}
}

// BuildPrompt renders the suggestion prompt for an event.
func BuildPrompt(title string, date time.Time) string {
	a := AnalyzeActivity(title)
	return fmt.Sprintf(suggestPrompt, title, date.Format("Jan 2, 2006"), a.Primary, a.Location, a.Role)
}

var bracketedArray = regexp.MustCompile(`\[([^\]]+)\]`)

// ParseItemList recovers a list of item names from generated text. It tries,
// in order: the whole text as a JSON array, the first bracketed region as a
// JSON array, and finally a comma-separated split with brackets and quotes
// stripped.
func ParseItemList(content string) []string {
	content = strings.TrimSpace(content)
	var items []string
	if err := json.Unmarshal([]byte(content), &items); err == nil {
		return items
	}
	if m := bracketedArray.FindString(content); m != "" {
		if err := json.Unmarshal([]byte(m), &items); err == nil {
			return items
		}
	}
	cleaned := strings.NewReplacer("[", "", "]", "", `"`, "").Replace(content)
	var out []string
	for _, part := range strings.Split(cleaned, ",") {
		part = strings.TrimSpace(part)
		if len([]rune(part)) > 1 {
			out = append(out, part)
		}
	}
	return out
}

// FilterItems drops suggestions the activity says the user will not bring.
func FilterItems(items []string, a Activity) []string {
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || containsAny(strings.ToLower(item), a.Exclude...) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// External fetches suggestions from a text generator. Every failure degrades
// to an empty result; callers never see an error.
type External struct {
	gen     llm.Generator
	timeout time.Duration
	logger  zerolog.Logger
}

func NewExternal(gen llm.Generator, timeout time.Duration, logger zerolog.Logger) *External {
	return &External{
		gen:     gen,
		timeout: timeout,
		logger:  logger.With().Str("component", "suggest.external").Logger(),
	}
}

// Suggest returns at most MaxExternal items for an event.
func (x *External) Suggest(ctx context.Context, title string, date time.Time) []string {
	if x == nil || x.gen == nil {
		return nil
	}
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	content, err := x.gen.Generate(ctx, BuildPrompt(title, date), llm.Options{
		System:      suggestSystemPrompt,
		MaxTokens:   suggestMaxTokens,
		Temperature: suggestTemperature,
	})
	if err != nil {
		x.logger.Warn().Err(err).Str("title", title).Msg("external suggestions unavailable")
		return nil
	}

	items := FilterItems(ParseItemList(content), AnalyzeActivity(title))
	if len(items) > MaxExternal {
		items = items[:MaxExternal]
	}
	x.logger.Debug().Str("title", title).Strs("items", items).Msg("external suggestions")
	return items
}
