package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stellarlinkco/packmate/internal/model"
)

// ImportDrafts adds one event per draft, skipping drafts whose title already
// has an event on the same day. Every new event is reconciled and the batch
// is persisted once.
func (p *Planner) ImportDrafts(ctx context.Context, drafts []model.Draft) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	events := p.store.Events()
	inv := p.store.Inventory()
	added := 0
	for _, d := range drafts {
		e, err := normalizeEvent(d.ToEvent())
		if err != nil {
			p.logger.Debug().Err(err).Str("title", d.Title).Msg("import draft rejected")
			continue
		}
		if hasDuplicate(events, e) {
			continue
		}
		e.ID = uuid.NewString()
		events = append(events, p.engine.Reconcile(e, inv))
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := p.store.ReplaceEvents(ctx, events); err != nil {
		return 0, fmt.Errorf("import events: %w", err)
	}
	p.logger.Info().Int("added", added).Int("drafts", len(drafts)).Msg("events imported")
	return added, nil
}

func hasDuplicate(events []model.Event, e model.Event) bool {
	for _, existing := range events {
		if strings.EqualFold(existing.Title, e.Title) && model.SameDay(existing.Date, e.Date) {
			return true
		}
	}
	return false
}
