package speech

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/packmate/internal/model"
)

// Wednesday.
var testNow = time.Date(2025, 7, 16, 10, 0, 0, 0, time.UTC)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"prose around", "Sure:\n{\"a\":{\"b\":2}}\nDone", `{"a":{"b":2}}`, true},
		{"brace in string", `x {"t":"a } b"} y`, `{"t":"a } b"}`, true},
		{"escaped quote", `{"t":"say \"}\""}`, `{"t":"say \"}\""}`, true},
		{"unbalanced then valid", `{ oops {"a":1}`, `{"a":1}`, true},
		{"none", "no json here", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStructured(t *testing.T) {
	content := `Here you go: {"title":"Lake Day","details":"Swim {fun}","items":["towel","sunscreen","hat","snacks","water","book","goggles","float","cooler"],"suggestedDate":"2025-07-20"} enjoy`
	d, err := ParseStructured(content, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Lake Day", d.Title)
	assert.Equal(t, "Swim {fun}", d.Details)
	assert.Len(t, d.Items, MaxDraftItems)
	assert.Equal(t, time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), d.SuggestedDate)
}

func TestParseStructuredDefaultsAndRejects(t *testing.T) {
	d, err := ParseStructured(`{"title":"Picnic","items":[" basket ",""]}`, testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"basket"}, d.Items)
	assert.Equal(t, testNow.AddDate(0, 0, 1), d.SuggestedDate)

	for _, bad := range []string{
		`{"title":"","items":[]}`,
		`{"title":"Picnic","suggestedDate":"next friday"}`,
		`{"title":["not","a","string"]}`,
		`plain text`,
	} {
		_, err := ParseStructured(bad, testNow)
		assert.ErrorIs(t, err, model.ErrUnparseable, bad)
	}
}

func TestParseFallbackText(t *testing.T) {
	content := "Title: \"Beach Day\"\nItems: [\"towel\", \"sunscreen\"]"
	d := ParseFallbackText(content, testNow)
	assert.Equal(t, "Beach Day", d.Title)
	assert.Equal(t, []string{"towel", "sunscreen"}, d.Items)
	assert.Equal(t, content, d.Details)
	assert.Equal(t, testNow.AddDate(0, 0, 1), d.SuggestedDate)

	d = ParseFallbackText("nothing useful [a, b]", testNow)
	assert.Equal(t, DefaultTitle, d.Title)
	assert.Equal(t, []string{"a", "b"}, d.Items)

	// A title line too short to use is skipped.
	d = ParseFallbackText("title: x\nEvent: Garage Sale", testNow)
	assert.Equal(t, "Event: Garage Sale", d.Title)
}

func TestLocalTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"I need a camping trip this weekend, bring a tent and flashlight", "Weekend Trip"},
		{"meeting with the design team next week", "Next Week Meeting"},
		{"hiking up the ridge tomorrow", "Hiking Trip"},
		{"hit the gym after work", "Workout"},
		{"going to the farmers market tomorrow", "The Farmers"},
		{"Call mom about the birthday plans", "Call Mom About"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LocalTitle(tt.in), tt.in)
	}
}

func TestSuggestedDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"dinner today", testNow},
		{"dinner tomorrow", testNow.AddDate(0, 0, 1)},
		{"dinner next week", testNow.AddDate(0, 0, 7)},
		{"dinner this weekend", time.Date(2025, 7, 19, 10, 0, 0, 0, time.UTC)},
		{"dinner sometime this week", testNow.AddDate(0, 0, 3)},
		{"dinner", testNow.AddDate(0, 0, 1)},
		// "today" is checked before "tomorrow".
		{"today or tomorrow", testNow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuggestedDate(tt.in, testNow), tt.in)
	}

	saturday := time.Date(2025, 7, 19, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, saturday, SuggestedDate("weekend plans", saturday))
}

func TestParseLocalCampingExample(t *testing.T) {
	d, err := ParseLocal("I need a camping trip this weekend, bring a tent and flashlight", testNow)
	require.NoError(t, err)
	assert.Equal(t, "Weekend Trip", d.Title)
	assert.Contains(t, d.Items, "tent")
	assert.LessOrEqual(t, len(d.Items), MaxLocalItems)
	assert.Equal(t, time.Saturday, d.SuggestedDate.Weekday())
	assert.True(t, d.SuggestedDate.After(testNow))
}

func TestParseLocalMentionedItems(t *testing.T) {
	d, err := ParseLocal("remember to pack sunscreen, a hat and snacks", testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunscreen a hat"}, d.Items)

	d, err = ParseLocal("please bring tent, lantern and rope to the park", testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"tent lantern"}, d.Items)

	d, err = ParseLocal("buy milk and eggs for the potluck", testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, d.Items)

	d, err = ParseLocal("shopping downtown, grab a new umbrella for the rain", testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"shopping list", "reusable bags", "wallet", "a new umbrella"}, d.Items)
}

func TestParseLocalVerbWithPunctuationIsNotMatched(t *testing.T) {
	d, err := ParseLocal("I need, like, snacks for the movie", testNow)
	require.NoError(t, err)
	assert.Empty(t, d.Items)
}

func TestParseLocalTooShort(t *testing.T) {
	_, err := ParseLocal("camping soon", testNow)
	assert.True(t, errors.Is(err, model.ErrUnparseable))
}
