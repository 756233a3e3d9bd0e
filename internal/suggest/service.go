package suggest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Gate decides whether the external source may be called.
type Gate interface {
	CloudEnabled() bool
}

// ExternalSource is the unreliable second opinion. It never fails; an
// unavailable source returns nothing.
type ExternalSource interface {
	Suggest(ctx context.Context, title string, date time.Time) []string
}

// Service applies the calling policy: local results always come back
// immediately, and the external source is consulted only when local
// results are short and the gate allows it.
type Service struct {
	scorer   *Scorer
	external ExternalSource
	gate     Gate
	logger   zerolog.Logger
}

func NewService(scorer *Scorer, external ExternalSource, gate Gate, logger zerolog.Logger) *Service {
	return &Service{
		scorer:   scorer,
		external: external,
		gate:     gate,
		logger:   logger.With().Str("component", "suggest").Logger(),
	}
}

// Local returns the scorer's suggestions.
func (s *Service) Local(title string, date time.Time) []string {
	return s.scorer.Suggest(title, date)
}

// NeedsExternal reports whether local results leave room for the external source.
func (s *Service) NeedsExternal(local []string) bool {
	if s.external == nil || s.gate == nil || !s.gate.CloudEnabled() {
		return false
	}
	return len(local) < MaxLocal
}

// Enhance consults the external source and returns the combined list, or nil
// when it adds nothing new.
func (s *Service) Enhance(ctx context.Context, title string, date time.Time, local []string) []string {
	external := s.external.Suggest(ctx, title, date)
	combined := Combine(local, external)
	if len(combined) <= len(local) {
		return nil
	}
	return combined
}

// Suggest returns local results at once. When the external source is
// consulted, pending yields the combined list if it is strictly larger and
// is then closed; otherwise pending is nil.
func (s *Service) Suggest(ctx context.Context, title string, date time.Time) (local []string, pending <-chan []string) {
	local = s.Local(title, date)
	if !s.NeedsExternal(local) {
		return local, nil
	}
	ch := make(chan []string, 1)
	go func() {
		defer close(ch)
		if combined := s.Enhance(ctx, title, date, local); combined != nil {
			ch <- combined
		}
	}()
	return local, ch
}

// SuggestAll waits for the external source and returns the best list available.
func (s *Service) SuggestAll(ctx context.Context, title string, date time.Time) []string {
	local, pending := s.Suggest(ctx, title, date)
	if pending == nil {
		return local
	}
	select {
	case combined, ok := <-pending:
		if ok {
			return combined
		}
	case <-ctx.Done():
	}
	return local
}
