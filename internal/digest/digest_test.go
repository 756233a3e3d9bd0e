package digest

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stellarlinkco/packmate/internal/consistency"
	"github.com/stellarlinkco/packmate/internal/model"
	"github.com/stellarlinkco/packmate/internal/planner"
	"github.com/stellarlinkco/packmate/internal/store"
)

// Wednesday.
var testNow = time.Date(2025, 7, 16, 10, 0, 0, 0, time.UTC)

func newPlanner(t *testing.T) *planner.Planner {
	t.Helper()
	st, err := store.Load(context.Background(), store.NewMemoryBlobStore())
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return planner.New(st, consistency.NewEngine(func() time.Time { return testNow }), zerolog.Nop())
}

func seed(t *testing.T, p *planner.Planner) {
	t.Helper()
	ctx := context.Background()
	add := func(title string, date time.Time, items ...string) model.Event {
		e, err := p.AddEvent(ctx, model.Event{Title: title, Date: date, Items: items})
		if err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
		return e
	}
	if _, err := p.AddItem(ctx, "tent"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	add("Camping", testNow.Add(2*time.Hour), "tent", "lantern")
	add("Return books", testNow.AddDate(0, 0, -2))
	add("Dinner", testNow.AddDate(0, 0, 2))
	hike := add("Hike", testNow.AddDate(0, 0, 5), "boots")
	if _, err := p.CreateShoppingList(ctx, []string{hike.ID}); err != nil {
		t.Fatalf("create list: %v", err)
	}
}

func TestBuild(t *testing.T) {
	p := newPlanner(t)
	seed(t, p)

	d := Build(p)
	if !d.GeneratedAt.Equal(testNow) {
		t.Errorf("GeneratedAt = %v, want %v", d.GeneratedAt, testNow)
	}
	if len(d.Today) != 1 || d.Today[0].Event.Title != "Camping" {
		t.Fatalf("Today = %+v, want Camping only", d.Today)
	}
	if got := d.Today[0].Missing; len(got) != 1 || got[0] != "lantern" {
		t.Errorf("Camping missing = %v, want [lantern]", got)
	}
	if len(d.Overdue) != 1 || d.Overdue[0].Event.Title != "Return books" {
		t.Errorf("Overdue = %+v, want Return books", d.Overdue)
	}
	if len(d.Upcoming) != 2 || d.Upcoming[0].Event.Title != "Dinner" || d.Upcoming[1].Event.Title != "Hike" {
		t.Errorf("Upcoming = %+v, want Dinner then Hike", d.Upcoming)
	}
	if len(d.Lists) != 1 {
		t.Errorf("Lists = %d, want 1", len(d.Lists))
	}

	text := d.Text()
	for _, want := range []string{
		"Packmate digest for Wed, Jul 16",
		"Today (1)",
		"Camping [missing: lantern]",
		"Return books on Jul 14",
		"Hike on Jul 21 [missing: boots]",
		"Shopping lists (1)",
		"Not Started",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	d := Build(newPlanner(t))
	if !d.Empty() {
		t.Fatalf("expected empty digest, got %+v", d)
	}
	if !strings.Contains(d.Text(), "Nothing planned.") {
		t.Errorf("text = %q", d.Text())
	}
}

func TestService_RunNow(t *testing.T) {
	p := newPlanner(t)
	seed(t, p)
	s := NewService("", p, zerolog.Nop())

	if _, err := s.RunNow(context.Background()); !errors.Is(err, ErrNoDeliver) {
		t.Fatalf("RunNow without handler = %v, want ErrNoDeliver", err)
	}
	if st := s.State(); st.LastStatus != "error" || st.Runs != 1 {
		t.Errorf("state = %+v", st)
	}

	var got Digest
	s.Deliver = func(_ context.Context, d Digest) error {
		got = d
		return nil
	}
	if _, err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if len(got.Today) != 1 {
		t.Errorf("delivered digest today = %d, want 1", len(got.Today))
	}
	st := s.State()
	if st.LastStatus != "ok" || st.LastError != "" || st.Runs != 2 || st.LastRunAtMs == 0 {
		t.Errorf("state = %+v", st)
	}
}

func TestService_SkipsEmpty(t *testing.T) {
	s := NewService("", newPlanner(t), zerolog.Nop())
	var calls int32
	s.Deliver = func(context.Context, Digest) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	if _, err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if calls != 0 {
		t.Errorf("empty digest delivered %d times", calls)
	}

	s.SendEmpty = true
	if _, err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestService_ScheduleFires(t *testing.T) {
	s := NewService("* * * * * *", newPlanner(t), zerolog.Nop())
	s.SendEmpty = true
	fired := make(chan struct{}, 4)
	s.Deliver = func(context.Context, Digest) error {
		fired <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Next().IsZero() {
		t.Error("Next should be set after Start")
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("digest did not fire")
	}
	s.Stop()
	if !s.Next().IsZero() {
		t.Error("Next should be zero after Stop")
	}
}

func TestValidateSchedule(t *testing.T) {
	for _, expr := range []string{DefaultSchedule, "@daily", "0 30 7 * * MON-FRI"} {
		if err := ValidateSchedule(expr); err != nil {
			t.Errorf("ValidateSchedule(%q) = %v", expr, err)
		}
	}
	if err := ValidateSchedule("every morning"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	s := NewService("nope", newPlanner(t), zerolog.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start should reject invalid schedule")
	}
}
