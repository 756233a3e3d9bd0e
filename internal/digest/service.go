package digest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule fires at 08:00 every day. Schedules carry a seconds field.
const DefaultSchedule = "0 0 8 * * *"

var ErrNoDeliver = errors.New("no deliver handler set")

var scheduleParser = rcron.NewParser(rcron.Second | rcron.Minute | rcron.Hour | rcron.Dom | rcron.Month | rcron.Dow | rcron.Descriptor)

// ValidateSchedule reports whether expr is a usable cron expression.
func ValidateSchedule(expr string) error {
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", expr, err)
	}
	return nil
}

// State is the outcome of the most recent run.
type State struct {
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	Runs        int    `json:"runs"`
}

// Service runs Build on a cron schedule and hands the result to Deliver.
type Service struct {
	schedule string
	src      Source
	logger   zerolog.Logger

	// Deliver receives each digest. Empty digests are skipped unless
	// SendEmpty is set.
	Deliver   func(ctx context.Context, d Digest) error
	SendEmpty bool

	mu     sync.Mutex
	state  State
	cron   *rcron.Cron
	entry  rcron.EntryID
	cancel context.CancelFunc
	stopCh chan struct{}
}

func NewService(schedule string, src Source, logger zerolog.Logger) *Service {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Service{
		schedule: schedule,
		src:      src,
		logger:   logger.With().Str("component", "digest").Logger(),
	}
}

func (s *Service) Start(ctx context.Context) error {
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	stopCh := make(chan struct{})

	c := rcron.New(rcron.WithParser(scheduleParser))
	id, err := c.AddFunc(s.schedule, func() {
		if _, err := s.run(runCtx); err != nil {
			s.logger.Warn().Err(err).Msg("scheduled digest failed")
		}
	})
	if err != nil {
		cancel()
		return fmt.Errorf("register digest: %w", err)
	}

	s.mu.Lock()
	s.cron, s.entry = c, id
	s.cancel, s.stopCh = cancel, stopCh
	s.mu.Unlock()

	c.Start()
	s.logger.Info().Str("schedule", s.schedule).Time("next", c.Entry(id).Next).Msg("digest scheduled")

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stopCh:
		}
	}()
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel, stopCh, c := s.cancel, s.stopCh, s.cron
	s.cancel, s.stopCh, s.cron = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stopCh != nil {
		close(stopCh)
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-time.After(5 * time.Second):
			s.logger.Warn().Msg("stop timeout waiting for running digest")
		}
		s.logger.Info().Msg("digest stopped")
	}
}

// Next is the next scheduled run, or the zero time when not started.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunNow builds and delivers a digest outside the schedule.
func (s *Service) RunNow(ctx context.Context) (Digest, error) {
	return s.run(ctx)
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) run(ctx context.Context) (Digest, error) {
	d := Build(s.src)

	var err error
	switch {
	case s.Deliver == nil:
		err = ErrNoDeliver
	case d.Empty() && !s.SendEmpty:
		s.logger.Debug().Msg("digest empty, not sent")
	default:
		err = s.Deliver(ctx, d)
	}

	s.mu.Lock()
	s.state.Runs++
	s.state.LastRunAtMs = time.Now().UnixMilli()
	if err != nil {
		s.state.LastStatus = "error"
		s.state.LastError = err.Error()
	} else {
		s.state.LastStatus = "ok"
		s.state.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		return d, err
	}
	s.logger.Info().
		Int("today", len(d.Today)).
		Int("upcoming", len(d.Upcoming)).
		Int("overdue", len(d.Overdue)).
		Int("lists", len(d.Lists)).
		Msg("digest delivered")
	return d, nil
}
