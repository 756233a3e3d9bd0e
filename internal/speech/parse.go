package speech

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stellarlinkco/packmate/internal/model"
)

const (
	// MaxDraftItems caps items taken from a structured reply.
	MaxDraftItems = 8
	// MaxLocalItems caps items produced by the local heuristic.
	MaxLocalItems = 6
	// MinLocalWords is the shortest utterance the local heuristic accepts.
	MinLocalWords = 3

	DefaultTitle = "New Event"
	dateLayout   = "2006-01-02"
)

var titleCaser = cases.Title(language.English)

// ExtractJSONObject returns the first balanced {...} region of text. Braces
// inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		depth := 0
		inString, escaped := false, false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		// Unbalanced from this brace; try the next one.
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

type structuredReply struct {
	Title         string   `json:"title"`
	Details       string   `json:"details"`
	Items         []string `json:"items"`
	SuggestedDate string   `json:"suggestedDate"`
}

// ParseStructured decodes the first JSON object in content into a draft. A
// missing date means tomorrow; a malformed one rejects the reply.
func ParseStructured(content string, now time.Time) (model.Draft, error) {
	raw, ok := ExtractJSONObject(content)
	if !ok {
		return model.Draft{}, fmt.Errorf("%w: no json object", model.ErrUnparseable)
	}
	var reply structuredReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return model.Draft{}, fmt.Errorf("%w: %v", model.ErrUnparseable, err)
	}
	title := strings.TrimSpace(reply.Title)
	if title == "" {
		return model.Draft{}, fmt.Errorf("%w: missing title", model.ErrUnparseable)
	}

	date := now.AddDate(0, 0, 1)
	if s := strings.TrimSpace(reply.SuggestedDate); s != "" {
		parsed, err := time.ParseInLocation(dateLayout, s, now.Location())
		if err != nil {
			return model.Draft{}, fmt.Errorf("%w: suggestedDate %q", model.ErrUnparseable, s)
		}
		date = parsed
	}

	items := make([]string, 0, len(reply.Items))
	for _, item := range reply.Items {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) > MaxDraftItems {
		items = items[:MaxDraftItems]
	}

	return model.Draft{
		Title:         title,
		Details:       strings.TrimSpace(reply.Details),
		Items:         items,
		SuggestedDate: date,
	}, nil
}

var firstBracketGroup = regexp.MustCompile(`\[(.*?)\]`)

var titleCleaner = strings.NewReplacer(`"`, "", "title:", "", "Title:", "")

// ParseFallbackText salvages a draft from a reply that is not the expected
// JSON. It always succeeds.
func ParseFallbackText(content string, now time.Time) model.Draft {
	title := DefaultTitle
	for _, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "title") && !strings.Contains(lower, "event") {
			continue
		}
		cleaned := strings.TrimSpace(titleCleaner.Replace(line))
		cleaned = strings.TrimSpace(strings.TrimRight(cleaned, ","))
		if len([]rune(cleaned)) > 2 {
			title = cleaned
			break
		}
	}

	var items []string
	if m := firstBracketGroup.FindStringSubmatch(content); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			part = strings.ReplaceAll(strings.TrimSpace(part), `"`, "")
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	}

	return model.Draft{
		Title:         title,
		Details:       content,
		Items:         items,
		SuggestedDate: now.AddDate(0, 0, 1),
	}
}

// activityTitles maps activity keywords, in scan order, to draft titles.
var activityTitles = []struct {
	keyword string
	title   string
}{
	{"hiking", "Hiking Trip"},
	{"trip", "Trip"},
	{"meeting", "Meeting"},
	{"party", "Party"},
	{"dinner", "Dinner"},
	{"shopping", "Shopping"},
	{"interview", "Interview"},
	{"chat", "Chat"},
	{"vacation", "Vacation"},
	{"camping", "Camping"},
	{"workout", "Workout"},
	{"gym", "Workout"},
	{"run", "Run"},
	{"walk", "Walk"},
	{"bike", "Bike"},
	{"swim", "Swim"},
}

var goingPhrase = regexp.MustCompile(`(?i)going (?:for|to) (?:a |an )?(\w+(?:\s+\w+)?)`)

var (
	hikingItems   = []string{"hiking boots", "backpack", "water bottle", "trail snacks", "first aid kit", "map", "flashlight", "rain jacket"}
	campingItems  = []string{"tent", "sleeping bag", "camping stove", "food supplies", "water", "flashlight", "matches"}
	outdoorItems  = []string{"outdoor gear", "weather protection", "navigation tools", "emergency supplies"}
	workoutItems  = []string{"workout clothes", "water bottle", "towel", "protein shake"}
	shoppingItems = []string{"shopping list", "reusable bags", "wallet"}
	meetingItems  = []string{"notebook", "pen", "laptop", "documents"}
)

var actionVerbs = map[string]bool{
	"bring": true, "need": true, "get": true, "buy": true, "pack": true,
	"prepare": true, "take": true, "grab": true, "purchase": true, "kit": true,
}

var stopWords = map[string]bool{
	"for": true, "to": true, "at": true, "on": true, "in": true, "and": true,
	"or": true, "but": true, "because": true, "so": true, "when": true,
	"where": true, "i": true, "i'm": true, "going": true,
}

// LocalTitle derives a title from an utterance without external help.
func LocalTitle(utterance string) string {
	lower := strings.ToLower(utterance)
	for _, a := range activityTitles {
		if !strings.Contains(lower, a.keyword) {
			continue
		}
		switch {
		case strings.Contains(lower, "next week"):
			return "Next Week " + a.title
		case strings.Contains(lower, "weekend"):
			return "Weekend " + a.title
		default:
			return a.title
		}
	}
	if m := goingPhrase.FindStringSubmatch(utterance); m != nil {
		return titleCaser.String(m[1])
	}
	words := strings.Fields(utterance)
	if len(words) > 3 {
		words = words[:3]
	}
	return titleCaser.String(strings.Join(words, " "))
}

func templateItems(title, lower string) []string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "hiking") || strings.Contains(lower, "hiking") || strings.Contains(lower, "outside"):
		return hikingItems
	case strings.Contains(t, "camping") || strings.Contains(lower, "camping"):
		return campingItems
	case strings.Contains(t, "trip") && strings.Contains(lower, "outside"):
		return outdoorItems
	case strings.Contains(t, "workout") || strings.Contains(lower, "gym"):
		return workoutItems
	case strings.Contains(t, "shopping"):
		return shoppingItems
	case strings.Contains(t, "meeting"):
		return meetingItems
	default:
		return nil
	}
}

func trimWord(w string) string {
	return strings.TrimRight(w, ".,!?;:")
}

// mentionedItems collects up to three words after each action verb,
// stopping early at a stop word. Trailing punctuation is trimmed from the
// collected words but does not end the phrase.
func mentionedItems(words []string) []string {
	var out []string
	for i, w := range words {
		// "need," is not a verb match; only the bare word counts.
		if !actionVerbs[strings.ToLower(w)] {
			continue
		}
		var phrase []string
		for _, next := range words[i+1:] {
			clean := trimWord(next)
			if stopWords[strings.ToLower(clean)] || len(phrase) >= 3 {
				break
			}
			if clean != "" {
				phrase = append(phrase, clean)
			}
		}
		if len(phrase) > 0 {
			out = append(out, strings.Join(phrase, " "))
		}
	}
	return out
}

// SuggestedDate reads a relative date phrase. Checks run in a fixed order
// and the first phrase present wins: today, tomorrow, next week, weekend,
// this week. With none present the draft is for tomorrow.
func SuggestedDate(utterance string, now time.Time) time.Time {
	lower := strings.ToLower(utterance)
	switch {
	case strings.Contains(lower, "today"):
		return now
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1)
	case strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7)
	case strings.Contains(lower, "weekend"):
		days := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
		return now.AddDate(0, 0, days)
	case strings.Contains(lower, "this week"):
		return now.AddDate(0, 0, 3)
	default:
		return now.AddDate(0, 0, 1)
	}
}

// ParseLocal is the offline heuristic. It fails only for utterances shorter
// than MinLocalWords words.
func ParseLocal(utterance string, now time.Time) (model.Draft, error) {
	words := strings.Fields(utterance)
	if len(words) < MinLocalWords {
		return model.Draft{}, fmt.Errorf("%w: need at least %d words", model.ErrUnparseable, MinLocalWords)
	}

	title := strings.TrimSpace(LocalTitle(utterance))
	lower := strings.ToLower(utterance)

	items := append([]string(nil), templateItems(title, lower)...)
	for _, item := range mentionedItems(words) {
		if !containsString(items, item) {
			items = append(items, item)
		}
	}
	if len(items) > MaxLocalItems {
		items = items[:MaxLocalItems]
	}

	return model.Draft{
		Title:         title,
		Details:       utterance,
		Items:         items,
		SuggestedDate: SuggestedDate(utterance, now),
	}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
