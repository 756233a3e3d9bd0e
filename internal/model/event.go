package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a planned activity with the items it requires.
type Event struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Date          time.Time  `json:"date"`
	Items         []string   `json:"items"`
	Details       string     `json:"details"`
	IsCompleted   bool       `json:"isCompleted"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// EventStatus is the derived display state of an event.
type EventStatus string

const (
	StatusNotStarted EventStatus = "notStarted"
	StatusInProgress EventStatus = "inProgress"
	StatusCompleted  EventStatus = "completed"
	StatusOverdue    EventStatus = "overdue"
)

func NewEvent(title string, date time.Time, items []string, details string) Event {
	return Event{
		ID:      uuid.NewString(),
		Title:   strings.TrimSpace(title),
		Date:    date,
		Items:   append([]string(nil), items...),
		Details: details,
	}
}

// Validate rejects events that cannot be stored.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Clone returns a deep copy so callers never share slices or pointers with the store.
func (e Event) Clone() Event {
	out := e
	out.Items = append([]string(nil), e.Items...)
	if e.CompletedDate != nil {
		t := *e.CompletedDate
		out.CompletedDate = &t
	}
	return out
}

func (e Event) IsToday(now time.Time) bool {
	return SameDay(e.Date, now)
}

func (e Event) IsPast(now time.Time) bool {
	return e.Date.Before(StartOfDay(now))
}

func (e Event) IsUpcoming(now time.Time) bool {
	return e.Date.After(now)
}

func (e Event) Status(now time.Time) EventStatus {
	switch {
	case e.IsCompleted:
		return StatusCompleted
	case e.IsPast(now):
		return StatusOverdue
	case len(e.Items) == 0:
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}

// Matches reports whether query appears in the title, details or any item, ignoring case.
func (e Event) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Details), q) {
		return true
	}
	for _, item := range e.Items {
		if strings.Contains(strings.ToLower(item), q) {
			return true
		}
	}
	return false
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
