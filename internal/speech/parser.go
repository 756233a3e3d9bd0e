// Package speech turns a free-form utterance into an event draft.
package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/packmate/internal/llm"
	"github.com/stellarlinkco/packmate/internal/model"
)

const (
	// DefaultTimeout bounds one call to the generator.
	DefaultTimeout = 10 * time.Second

	parseSystemPrompt = "You are an expert at parsing event descriptions and extracting structured information. Always return valid JSON."
	parseMaxTokens    = 300
	parseTemperature  = 0.3

	parsePrompt = `Parse this event description and extract structured information:

"%s"

Extract:
1. Event title (concise, 2-5 words)
2. Event details (what, when, where, why)
3. Items needed (things to bring/prepare)
4. Suggested date (if mentioned, otherwise use today + 1 day)

Return ONLY this JSON format:
{
  "title": "Event Title",
  "details": "Detailed description of the event",
  "items": ["item1", "item2", "item3"],
  "suggestedDate": "%s"
}

Rules:
- Title should be short and descriptive
- Details should capture the essence and context
- Items should be things the person needs to bring/prepare
- Date format: YYYY-MM-DD
- Maximum 8 items`
)

// Source records which stage produced a draft.
type Source string

const (
	SourceStructured Source = "structured"
	SourceFallback   Source = "fallback"
	SourceLocal      Source = "local"
)

// Gate decides whether the generator may be called.
type Gate interface {
	CloudEnabled() bool
}

// GateFunc adapts a function to Gate.
type GateFunc func() bool

func (f GateFunc) CloudEnabled() bool { return f() }

// Parser runs the parsing chain: a structured generator reply, a salvage
// pass over an unstructured reply, then the local heuristic.
type Parser struct {
	gen     llm.Generator
	gate    Gate
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

func WithTimeout(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewParser builds a parser. gen and gate may be nil, in which case only the
// local heuristic runs.
func NewParser(gen llm.Generator, gate Gate, logger zerolog.Logger, opts ...Option) *Parser {
	p := &Parser{
		gen:     gen,
		gate:    gate,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "speech").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildPrompt renders the parsing prompt. The sample date in the template is
// tomorrow so the generator copies a sensible default.
func BuildPrompt(utterance string, now time.Time) string {
	return fmt.Sprintf(parsePrompt, utterance, now.AddDate(0, 0, 1).Format(dateLayout))
}

// Parse returns a draft for utterance and the stage that produced it.
func (p *Parser) Parse(ctx context.Context, utterance string) (model.Draft, Source, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return model.Draft{}, "", model.ErrEmptyUtterance
	}
	now := p.now()

	if p.gen != nil && p.gate != nil && p.gate.CloudEnabled() {
		if content, err := p.generate(ctx, utterance, now); err != nil {
			p.logger.Warn().Err(err).Msg("generator unavailable, parsing locally")
		} else {
			draft, perr := ParseStructured(content, now)
			if perr == nil {
				return draft, SourceStructured, nil
			}
			p.logger.Debug().Err(perr).Msg("unstructured reply, salvaging")
			return ParseFallbackText(content, now), SourceFallback, nil
		}
	}

	draft, err := ParseLocal(utterance, now)
	if err != nil {
		return model.Draft{}, "", err
	}
	return draft, SourceLocal, nil
}

func (p *Parser) generate(ctx context.Context, utterance string, now time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.gen.Generate(ctx, BuildPrompt(utterance, now), llm.Options{
		System:      parseSystemPrompt,
		MaxTokens:   parseMaxTokens,
		Temperature: parseTemperature,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", llm.ErrEmptyContent
	}
	return content, nil
}
