package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expiry-scanner/internal/core/logger"
	"expiry-scanner/internal/core/metrics"
	expiryDomain "expiry-scanner/internal/features/expiry/domain"
	"expiry-scanner/internal/features/expiry/ports"
	"expiry-scanner/internal/features/reminders/domain"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs expiry scans for a fixed set of users on a cron schedule and keeps
// the latest digest.
type Scheduler struct {
	scanner  ports.Scanner
	users    []string
	schedule string
	location *time.Location
	metrics  *metrics.Metrics
	clock    func() time.Time
	logger   *zap.Logger

	cron       *cron.Cron
	cronParser cron.Parser

	runMu sync.Mutex // serialises runs
	mu    sync.RWMutex
	last  *domain.Digest
}

// NewScheduler creates a Scheduler. The schedule is validated immediately and fires on the
// wall clock of loc, the same zone scans judge "today" in. loc and m may be nil.
func NewScheduler(scanner ports.Scanner, users []string, schedule string, loc *time.Location, m *metrics.Metrics) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("failed to parse reminder schedule %q: %w", schedule, err)
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		scanner:    scanner,
		users:      append([]string(nil), users...),
		schedule:   schedule,
		location:   loc,
		metrics:    m,
		clock:      time.Now,
		logger:     logger.Named("reminders"),
		cronParser: parser,
	}, nil
}

// Start registers the cron entry and starts the cron loop.
// It is a no-op when no users are watched.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.users) == 0 {
		s.logger.Info("No watched users, reminder schedule disabled")
		return nil
	}

	s.cron = cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLocation(s.location),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx, domain.TriggerSchedule)
	}); err != nil {
		return fmt.Errorf("failed to add reminder job: %w", err)
	}
	s.cron.Start()

	s.logger.Info("Reminder schedule started",
		zap.String("schedule", s.schedule),
		zap.String("location", s.location.String()),
		zap.Int("users", len(s.users)),
		zap.Time("next_run", s.NextRun(s.clock())),
	)
	return nil
}

// Stop stops the cron loop. The returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

// NextRun returns the first scheduled run after t, on the scheduler's wall clock.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	sched, err := s.cronParser.Parse(s.schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t.In(s.location))
}

// Users returns the watched user ids.
func (s *Scheduler) Users() []string {
	return append([]string(nil), s.users...)
}

// LastDigest returns the latest digest, or nil before the first run.
func (s *Scheduler) LastDigest() *domain.Digest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunOnce scans every watched user and records a digest.
// A failing user is recorded in its entry and does not stop the run.
func (s *Scheduler) RunOnce(ctx context.Context, trigger domain.Trigger) *domain.Digest {
	return s.RunFor(ctx, trigger, s.users)
}

// RunFor scans the given users and records a digest.
func (s *Scheduler) RunFor(ctx context.Context, trigger domain.Trigger, users []string) *domain.Digest {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	digest := &domain.Digest{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: s.clock(),
		Entries:   make([]domain.Entry, 0, len(users)),
	}
	log := s.logger.With(zap.String("run_id", digest.RunID), zap.String("trigger", string(trigger)))

	for _, userID := range users {
		entry := domain.Entry{UserID: userID, Notices: []expiryDomain.ExpiryNotice{}}

		result, err := s.scanner.Scan(ctx, userID, digest.StartedAt)
		if err != nil {
			log.Error("Failed to check expiring items", zap.String("user_id", userID), zap.Error(err))
			entry.Error = err.Error()
		} else {
			entry.Notices = result.Notices
			for _, n := range result.Notices {
				log.Info(n.Message(), zap.String("user_id", userID), zap.String("when", string(n.When)))
			}
		}

		digest.Entries = append(digest.Entries, entry)
	}
	digest.FinishedAt = s.clock()

	log.Info("Reminder digest finished",
		zap.Int("users", len(digest.Entries)),
		zap.Int("notices", digest.NoticeCount()),
		zap.Int("failures", digest.FailureCount()),
	)

	if s.metrics != nil {
		s.metrics.ReminderRuns.WithLabelValues(string(trigger)).Inc()
		s.metrics.ReminderLastRun.Set(float64(digest.FinishedAt.Unix()))
	}

	s.mu.Lock()
	s.last = digest
	s.mu.Unlock()

	return digest
}
