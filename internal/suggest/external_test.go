package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlinkco/packmate/internal/llm"
)

func TestParseItemList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"json array", `["tent", "rope"]`, []string{"tent", "rope"}},
		{"array inside prose", "Sure! Here you go:\n[\"tent\", \"rope\"]\nHave fun.", []string{"tent", "rope"}},
		{"comma fallback", `tent, "rope", x, [map`, []string{"tent", "rope", "map"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseItemList(tt.content))
		})
	}
}

func TestAnalyzeActivityAndFilter(t *testing.T) {
	shopping := AnalyzeActivity("Grocery run")
	assert.Equal(t, "shopping/purchasing", shopping.Primary)
	assert.Equal(t, []string{"bags", "wallet"},
		FilterItems([]string{"reservation confirmation", "bags", "Formal Attire", "wallet"}, shopping))

	meeting := AnalyzeActivity("Coffee chat with Sam")
	assert.Equal(t, "meeting/discussion", meeting.Primary)
	assert.Equal(t, []string{"notebook"}, FilterItems([]string{"coffee beans", "notebook"}, meeting))

	dining := AnalyzeActivity("Dinner at Luigi's")
	assert.Equal(t, []string{"wallet"}, FilterItems([]string{"ingredients", "wallet"}, dining))

	general := AnalyzeActivity("Piano recital")
	assert.Equal(t, "general activity", general.Primary)
	assert.Equal(t, []string{"sheet music"}, FilterItems([]string{"venue map", "sheet music", "folding chair"}, general))

	assert.Equal(t, "traveling", AnalyzeActivity("Road trip").Primary)
	assert.Equal(t, "cooking/preparation", AnalyzeActivity("Sunday meal prep").Primary)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Grocery shopping", time.Date(2025, 7, 19, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, p, `Event: "Grocery shopping" on Jul 19, 2025`)
	assert.Contains(t, p, "Identify the PRIMARY activity: shopping/purchasing")
}

func TestExternal_Suggest(t *testing.T) {
	var gotOpts llm.Options
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		gotOpts = opts
		return `["bags", "wallet", "reservation", "list", "snacks", "coupons", "cooler"]`, nil
	})
	x := NewExternal(gen, time.Second, zerolog.Nop())

	items := x.Suggest(context.Background(), "Grocery shopping", july)
	assert.Equal(t, []string{"bags", "wallet", "list", "snacks", "coupons"}, items)
	assert.Equal(t, 150, gotOpts.MaxTokens)
	assert.Equal(t, 0.7, gotOpts.Temperature)
	assert.True(t, strings.Contains(gotOpts.System, "JSON array"))
}

func TestExternal_FailuresDegradeToEmpty(t *testing.T) {
	failing := llm.GeneratorFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "", errors.New("connection refused")
	})
	assert.Empty(t, NewExternal(failing, time.Second, zerolog.Nop()).Suggest(context.Background(), "Gym", july))

	slow := llm.GeneratorFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	start := time.Now()
	assert.Empty(t, NewExternal(slow, 50*time.Millisecond, zerolog.Nop()).Suggest(context.Background(), "Gym", july))
	assert.Less(t, time.Since(start), 2*time.Second)

	var nilExternal *External
	assert.Empty(t, nilExternal.Suggest(context.Background(), "Gym", july))
	require.NotPanics(t, func() { NewExternal(nil, 0, zerolog.Nop()).Suggest(context.Background(), "Gym", july) })
}
