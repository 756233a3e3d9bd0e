// Package calendar converts between events and iCalendar data.
package calendar

import (
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/stellarlinkco/packmate/internal/model"
)

const (
	productName = "packmate"

	// PropertyItem carries one required item per occurrence on a VEVENT.
	PropertyItem = ical.ComponentProperty("X-PACKMATE-ITEM")
	// PropertyCompleted marks an exported event that was completed.
	PropertyCompleted = ical.ComponentProperty("X-PACKMATE-COMPLETED")

	completedLayout = "20060102T150405Z"
)

// Export renders events as an all-day VCALENDAR feed. Each event keeps its id
// as the UID so repeated exports are stable.
func Export(events []model.Event, stamp time.Time) string {
	cal := ical.NewCalendarFor(productName)
	cal.SetMethod(ical.MethodPublish)

	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(e.Title)
		if strings.TrimSpace(e.Details) != "" {
			ve.SetDescription(e.Details)
		}
		day := model.StartOfDay(e.Date)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		for _, item := range e.Items {
			ve.AddProperty(PropertyItem, item)
		}
		if e.IsCompleted && e.CompletedDate != nil {
			ve.SetProperty(PropertyCompleted, e.CompletedDate.UTC().Format(completedLayout))
		}
	}
	return cal.Serialize()
}

// WriteTo writes the Export of events to w.
func WriteTo(w io.Writer, events []model.Event, stamp time.Time) error {
	_, err := io.WriteString(w, Export(events, stamp))
	return err
}
