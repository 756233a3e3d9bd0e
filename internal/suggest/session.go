package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// MinDebounce is the shortest settle time before the external source is asked.
	MinDebounce = 500 * time.Millisecond
	// MinTitleLength is the shortest title that produces suggestions.
	MinTitleLength = 3
)

// Update is one suggestion set delivered to a Session listener.
type Update struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
	// Combined is set when Items include external suggestions.
	Combined bool `json:"combined"`
}

// Session follows one title field as it is typed. Local suggestions are
// delivered on every change; the external source is asked once the title
// has been stable for the debounce interval, and its answer is dropped if
// the title changed while it was in flight.
//
// deliver is called with the session lock held and must not call back into
// the Session.
type Session struct {
	svc      *Service
	debounce time.Duration
	deliver  func(Update)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current string
	date    time.Time
	timer   *time.Timer
	closed  bool
}

func NewSession(ctx context.Context, svc *Service, debounce time.Duration, deliver func(Update)) *Session {
	if debounce < MinDebounce {
		debounce = MinDebounce
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Session{svc: svc, debounce: debounce, deliver: deliver, ctx: ctx, cancel: cancel}
}

// SetTitle records the latest title and date for the event being edited.
func (s *Session) SetTitle(title string, date time.Time) {
	title = strings.TrimSpace(title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.current = title
	s.date = date
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if len([]rune(title)) < MinTitleLength {
		s.deliver(Update{Title: title, Items: []string{}})
		return
	}

	local := s.svc.Local(title, date)
	if local == nil {
		local = []string{}
	}
	s.deliver(Update{Title: title, Items: local})
	if !s.svc.NeedsExternal(local) {
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() { s.enhance(title, date, local) })
}

func (s *Session) enhance(title string, date time.Time, local []string) {
	if !s.isCurrent(title, date) {
		return
	}
	combined := s.svc.Enhance(s.ctx, title, date, local)
	if combined == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.current != title || !s.date.Equal(date) {
		s.svc.logger.Debug().Str("title", title).Msg("stale external suggestions dropped")
		return
	}
	s.deliver(Update{Title: title, Items: combined, Combined: true})
}

func (s *Session) isCurrent(title string, date time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.current == title && s.date.Equal(date)
}

// Close stops pending work. No update is delivered after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.cancel()
}
