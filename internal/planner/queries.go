package planner

import (
	"sort"
	"time"

	"github.com/stellarlinkco/packmate/internal/model"
)

// DefaultUpcomingLimit is how many upcoming events Statistics counts.
const DefaultUpcomingLimit = 3

func (p *Planner) Event(id string) (model.Event, error) {
	return p.store.Event(id)
}

// Events returns every event, latest date first.
func (p *Planner) Events() []model.Event {
	events := p.store.Events()
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
	return events
}

// SearchEvents matches query against title, details and items, ignoring
// case. A blank query returns every event. Results are latest date first.
func (p *Planner) SearchEvents(query string) []model.Event {
	var out []model.Event
	for _, e := range p.Events() {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out
}

// EventsOn returns the events falling on day's calendar date, earliest first.
func (p *Planner) EventsOn(day time.Time) []model.Event {
	var out []model.Event
	for _, e := range p.store.Events() {
		if model.SameDay(day, e.Date) {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out
}

func (p *Planner) TodaysEvents() []model.Event {
	return p.EventsOn(p.now())
}

// UpcomingEvents returns open events dated after now, soonest first. A
// limit of zero or less returns all of them.
func (p *Planner) UpcomingEvents(limit int) []model.Event {
	now := p.now()
	var out []model.Event
	for _, e := range p.store.Events() {
		if e.IsUpcoming(now) && !e.IsCompleted {
			out = append(out, e)
		}
	}
	sortByDate(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// OverdueEvents returns open events from before today, oldest first.
func (p *Planner) OverdueEvents() []model.Event {
	now := p.now()
	var out []model.Event
	for _, e := range p.store.Events() {
		if e.Status(now) == model.StatusOverdue {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out
}

// CompletedEvents returns completed events, most recently completed first.
func (p *Planner) CompletedEvents() []model.Event {
	var out []model.Event
	for _, e := range p.store.Events() {
		if e.IsCompleted {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return completedAt(out[i]).After(completedAt(out[j]))
	})
	return out
}

func completedAt(e model.Event) time.Time {
	if e.CompletedDate == nil {
		return time.Time{}
	}
	return *e.CompletedDate
}

func sortByDate(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
}

// EventStatus derives the display status of one event.
func (p *Planner) EventStatus(id string) (model.EventStatus, error) {
	e, err := p.store.Event(id)
	if err != nil {
		return "", err
	}
	return e.Status(p.now()), nil
}

type Statistics struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
}

func (s Statistics) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

func (p *Planner) Statistics() Statistics {
	return Statistics{
		Total:     len(p.store.Events()),
		Today:     len(p.TodaysEvents()),
		Upcoming:  len(p.UpcomingEvents(DefaultUpcomingLimit)),
		Completed: len(p.CompletedEvents()),
	}
}
