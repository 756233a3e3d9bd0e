// Package digest builds and schedules the daily planning summary.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/stellarlinkco/packmate/internal/model"
)

// UpcomingLimit caps the upcoming section.
const UpcomingLimit = 5

// Source is the read side of the planner the digest needs.
type Source interface {
	Now() time.Time
	TodaysEvents() []model.Event
	UpcomingEvents(limit int) []model.Event
	OverdueEvents() []model.Event
	ActiveShoppingLists() []model.ShoppingList
	HasItem(name string) bool
}

// EventLine is one event plus the items still missing for it.
type EventLine struct {
	Event   model.Event `json:"event"`
	Missing []string    `json:"missing,omitempty"`
}

type Digest struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Today       []EventLine          `json:"today"`
	Upcoming    []EventLine          `json:"upcoming"`
	Overdue     []EventLine          `json:"overdue"`
	Lists       []model.ShoppingList `json:"lists"`
}

// Empty reports whether there is nothing worth sending.
func (d Digest) Empty() bool {
	return len(d.Today) == 0 && len(d.Upcoming) == 0 && len(d.Overdue) == 0 && len(d.Lists) == 0
}

func Build(src Source) Digest {
	lines := func(events []model.Event) []EventLine {
		out := make([]EventLine, 0, len(events))
		for _, e := range events {
			line := EventLine{Event: e}
			if !e.IsCompleted {
				for _, item := range e.Items {
					if !src.HasItem(item) {
						line.Missing = append(line.Missing, item)
					}
				}
			}
			out = append(out, line)
		}
		return out
	}

	// Events later today are also upcoming; list them under today only.
	today := src.TodaysEvents()
	seen := make(map[string]bool, len(today))
	for _, e := range today {
		seen[e.ID] = true
	}
	var upcoming []model.Event
	for _, e := range src.UpcomingEvents(UpcomingLimit + len(today)) {
		if !seen[e.ID] && len(upcoming) < UpcomingLimit {
			upcoming = append(upcoming, e)
		}
	}

	return Digest{
		GeneratedAt: src.Now(),
		Today:       lines(today),
		Upcoming:    lines(upcoming),
		Overdue:     lines(src.OverdueEvents()),
		Lists:       src.ActiveShoppingLists(),
	}
}

// Text renders the digest for a terminal or a chat message.
func (d Digest) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Packmate digest for %s\n", d.GeneratedAt.Format("Mon, Jan 2"))
	if d.Empty() {
		b.WriteString("Nothing planned.\n")
		return b.String()
	}

	section := func(name string, lines []EventLine, withDate bool) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", name, len(lines))
		for _, l := range lines {
			b.WriteString("  - ")
			b.WriteString(l.Event.Title)
			if withDate {
				b.WriteString(" on ")
				b.WriteString(l.Event.Date.Format("Jan 2"))
			}
			switch {
			case l.Event.IsCompleted:
				b.WriteString(" [ready]")
			case len(l.Missing) > 0:
				fmt.Fprintf(&b, " [missing: %s]", strings.Join(l.Missing, ", "))
			}
			b.WriteByte('\n')
		}
	}
	section("Today", d.Today, false)
	section("Overdue", d.Overdue, true)
	section("Upcoming", d.Upcoming, true)

	if len(d.Lists) > 0 {
		fmt.Fprintf(&b, "\nShopping lists (%d)\n", len(d.Lists))
		for _, l := range d.Lists {
			fmt.Fprintf(&b, "  - %s: %s\n", l.CreatedDate.Format("Jan 2"), l.DisplayStatus())
		}
	}
	return b.String()
}
