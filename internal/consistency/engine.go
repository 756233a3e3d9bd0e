// Package consistency keeps event completion in step with the inventory.
package consistency

import (
	"time"

	"github.com/stellarlinkco/packmate/internal/model"
)

// Holder answers membership queries against the current inventory.
type Holder interface {
	Has(name string) bool
}

// Engine is a stateless recomputation pass. It owns no collections; callers
// apply its results and persist them.
type Engine struct {
	Now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{Now: now}
}

// Satisfied reports whether every item the event requires is held.
// Events without items are never satisfied.
func Satisfied(e model.Event, inv Holder) bool {
	if len(e.Items) == 0 {
		return false
	}
	for _, item := range e.Items {
		if inv == nil || !inv.Has(model.NormalizeItem(item)) {
			return false
		}
	}
	return true
}

// Reconcile returns e with IsCompleted and CompletedDate corrected against inv.
// Events with no items are returned unchanged.
func (en *Engine) Reconcile(e model.Event, inv Holder) model.Event {
	if len(e.Items) == 0 {
		return e
	}
	out := e.Clone()
	switch all := Satisfied(e, inv); {
	case all && !e.IsCompleted:
		now := en.Now()
		out.IsCompleted = true
		out.CompletedDate = &now
	case !all && e.IsCompleted:
		out.IsCompleted = false
		out.CompletedDate = nil
	case e.IsCompleted && e.CompletedDate == nil:
		// Repairs records written without a completion timestamp.
		now := en.Now()
		out.CompletedDate = &now
	case !e.IsCompleted && e.CompletedDate != nil:
		out.CompletedDate = nil
	}
	return out
}

// ReconcileAll applies Reconcile to every event and reports which ids changed.
func (en *Engine) ReconcileAll(events []model.Event, inv Holder) ([]model.Event, []string) {
	out := make([]model.Event, len(events))
	var changed []string
	for i, e := range events {
		out[i] = en.Reconcile(e, inv)
		if out[i].IsCompleted != e.IsCompleted || (out[i].CompletedDate == nil) != (e.CompletedDate == nil) {
			changed = append(changed, e.ID)
		}
	}
	return out, changed
}
