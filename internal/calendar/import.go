package calendar

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/stellarlinkco/packmate/internal/model"
)

const (
	// DefaultHorizon bounds recurrence expansion.
	DefaultHorizon = 30 * 24 * time.Hour
	// maxOccurrences caps one recurring VEVENT.
	maxOccurrences = 100
)

var ErrEmptyCalendar = errors.New("empty calendar")

// ImportOptions controls how VEVENTs become drafts.
type ImportOptions struct {
	// Now anchors the expansion window. Zero means time.Now.
	Now time.Time
	// Horizon is how far past Now recurrences are expanded.
	Horizon time.Duration
	// Location is where all-day dates are placed. Nil means time.Local.
	Location *time.Location
}

// Skipped describes a VEVENT that could not be imported.
type Skipped struct {
	UID    string
	Reason string
}

// ImportResult holds drafts in date order plus the VEVENTs that were dropped.
type ImportResult struct {
	Drafts  []model.Draft
	Skipped []Skipped
}

// Import reads an iCalendar stream. Single VEVENTs become one draft each;
// VEVENTs with an RRULE become one draft per occurrence inside
// [Now, Now+Horizon]. Malformed VEVENTs are skipped, not fatal.
func Import(r io.Reader, opts ImportOptions) (ImportResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse calendar: %w", err)
	}
	vevents := cal.Events()
	if len(vevents) == 0 {
		return ImportResult{}, ErrEmptyCalendar
	}

	var res ImportResult
	for _, ve := range vevents {
		drafts, err := importEvent(ve, opts)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{UID: ve.Id(), Reason: err.Error()})
			continue
		}
		res.Drafts = append(res.Drafts, drafts...)
	}
	sort.SliceStable(res.Drafts, func(i, j int) bool {
		return res.Drafts[i].SuggestedDate.Before(res.Drafts[j].SuggestedDate)
	})
	return res, nil
}

func importEvent(ve *ical.VEvent, opts ImportOptions) ([]model.Draft, error) {
	title := strings.TrimSpace(propertyText(ve, ical.ComponentPropertySummary))
	if title == "" {
		return nil, model.ErrEmptyTitle
	}
	start, err := eventStart(ve, opts.Location)
	if err != nil {
		return nil, err
	}

	base := model.Draft{
		Title:   title,
		Details: propertyText(ve, ical.ComponentPropertyDescription),
	}
	for _, p := range ve.GetProperties(PropertyItem) {
		if item := strings.TrimSpace(unescapeText(p.Value)); item != "" {
			base.Items = append(base.Items, item)
		}
	}

	rule := ve.GetProperty(ical.ComponentPropertyRrule)
	if rule == nil || strings.TrimSpace(rule.Value) == "" {
		base.SuggestedDate = start
		return []model.Draft{base}, nil
	}

	occurrences, err := expand(ve, rule.Value, start, opts)
	if err != nil {
		return nil, err
	}
	drafts := make([]model.Draft, 0, len(occurrences))
	for _, at := range occurrences {
		d := base
		d.Items = append([]string(nil), base.Items...)
		d.SuggestedDate = at
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func expand(ve *ical.VEvent, raw string, start time.Time, opts ImportOptions) ([]time.Time, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("rrule %q: %w", raw, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), start.Location()); err == nil {
				set.ExDate(t)
			}
		}
	}

	from := opts.Now.In(start.Location())
	// All-day occurrences sit at midnight; keep today's.
	if isAllDay(ve) {
		from = model.StartOfDay(from)
	}
	times := set.Between(from, from.Add(opts.Horizon), true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}
	return times, nil
}

func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// eventStart reads DTSTART. All-day dates are rebuilt in loc so the calendar
// day survives; timed starts are converted into loc.
func eventStart(ve *ical.VEvent, loc *time.Location) (time.Time, error) {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return time.Time{}, errors.New("missing DTSTART")
	}
	if isAllDay(ve) {
		d, err := time.ParseInLocation("20060102", strings.TrimSpace(p.Value), loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("DTSTART %q: %w", p.Value, err)
		}
		return d, nil
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, fmt.Errorf("DTSTART %q: %w", p.Value, err)
	}
	return start.In(loc), nil
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

func propertyText(ve *ical.VEvent, prop ical.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	return unescapeText(p.Value)
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

// unescapeText reverses RFC 5545 TEXT escaping.
func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}
