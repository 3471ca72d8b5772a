package service

import (
	"context"
	"fmt"
	"time"

	"expiry-scanner/internal/core/logger"
	"expiry-scanner/internal/core/metrics"
	"expiry-scanner/internal/features/expiry/domain"
	"expiry-scanner/internal/features/expiry/ports"
	records "expiry-scanner/internal/features/records/domain"
	recordports "expiry-scanner/internal/features/records/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScanService fetches a user's vitamins and medications concurrently and reports
// the items expiring on the reference day or the day after.
type ScanService struct {
	vitamins    recordports.RecordSource
	medications recordports.RecordSource
	cache       ports.NoticeCache
	metrics     *metrics.Metrics
	location    *time.Location
	clock       func() time.Time
	logger      *zap.Logger
}

// Option configures a ScanService.
type Option func(*ScanService)

// WithCache stores and reuses scan results per user and day.
func WithCache(c ports.NoticeCache) Option {
	return func(s *ScanService) { s.cache = c }
}

// WithMetrics records scan counters and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ScanService) { s.metrics = m }
}

// WithLocation sets the zone whose calendar days are compared. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *ScanService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now as the default reference instant.
func WithClock(clock func() time.Time) Option {
	return func(s *ScanService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewScanService creates a ScanService reading from the given sources.
func NewScanService(vitamins, medications recordports.RecordSource, opts ...Option) *ScanService {
	s := &ScanService{
		vitamins:    vitamins,
		medications: medications,
		location:    time.Local,
		clock:       time.Now,
		logger:      logger.Named("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used for calendar-day comparisons.
func (s *ScanService) Location() *time.Location {
	return s.location
}

// Scan implements ports.Scanner.
// An empty userID is a no-op. Any fetch failure fails the whole scan; no partial
// notices are returned.
func (s *ScanService) Scan(ctx context.Context, userID string, reference time.Time) (*domain.ScanResult, error) {
	if userID == "" {
		s.countScan(metrics.OutcomeSkipped)
		return &domain.ScanResult{Skipped: true, Notices: []domain.ExpiryNotice{}}, nil
	}

	if reference.IsZero() {
		reference = s.clock()
	}
	day := domain.DayOf(reference, s.location)

	if notices, ok := s.cached(ctx, userID, day); ok {
		s.countScan(metrics.OutcomeCached)
		return &domain.ScanResult{
			UserID:       userID,
			ReferenceDay: day,
			Notices:      notices,
			Cached:       true,
		}, nil
	}

	start := time.Now()
	vitamins, medications, err := s.fetchBoth(ctx, userID)
	if err != nil {
		s.countScan(metrics.OutcomeFailure)
		return nil, fmt.Errorf("expiry scan for user %s: %w", userID, err)
	}

	items := make([]records.TrackedItem, 0, len(vitamins)+len(medications))
	items = append(items, vitamins...)
	items = append(items, medications...)

	notices := domain.Evaluate(items, reference, s.location)
	if notices == nil {
		notices = []domain.ExpiryNotice{}
	}

	s.observe(notices, time.Since(start))
	s.store(ctx, userID, day, notices)

	s.logger.Debug("Expiry scan completed",
		zap.String("user_id", userID),
		zap.String("reference_day", day),
		zap.Int("vitamins", len(vitamins)),
		zap.Int("medications", len(medications)),
		zap.Int("notices", len(notices)),
	)

	return &domain.ScanResult{
		UserID:       userID,
		ReferenceDay: day,
		Notices:      notices,
	}, nil
}

// Rescan implements ports.ExpiryService.
func (s *ScanService) Rescan(ctx context.Context, userID string, reference time.Time) (*domain.ScanResult, error) {
	if userID != "" && s.cache != nil {
		if reference.IsZero() {
			reference = s.clock()
		}
		day := domain.DayOf(reference, s.location)
		if err := s.cache.Invalidate(ctx, userID, day); err != nil {
			s.logger.Warn("Failed to invalidate cached notices", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return s.Scan(ctx, userID, reference)
}

// fetchBoth issues both reads concurrently and waits for both.
// The first failure cancels the other request.
func (s *ScanService) fetchBoth(ctx context.Context, userID string) ([]records.TrackedItem, []records.TrackedItem, error) {
	var vitamins, medications []records.TrackedItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.vitamins.Fetch(gctx, userID)
		if err != nil {
			s.countSourceFailure(s.vitamins.ItemType())
			return err
		}
		vitamins = items
		return nil
	})
	g.Go(func() error {
		items, err := s.medications.Fetch(gctx, userID)
		if err != nil {
			s.countSourceFailure(s.medications.ItemType())
			return err
		}
		medications = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return vitamins, medications, nil
}

func (s *ScanService) cached(ctx context.Context, userID, day string) ([]domain.ExpiryNotice, bool) {
	if s.cache == nil {
		return nil, false
	}
	notices, ok, err := s.cache.Get(ctx, userID, day)
	if err != nil {
		s.logger.Warn("Notice cache read failed", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	if ok && notices == nil {
		notices = []domain.ExpiryNotice{}
	}
	return notices, ok
}

func (s *ScanService) store(ctx context.Context, userID, day string, notices []domain.ExpiryNotice) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, userID, day, notices); err != nil {
		s.logger.Warn("Notice cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *ScanService) countScan(outcome string) {
	if s.metrics != nil {
		s.metrics.ScansTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *ScanService) countSourceFailure(t records.ItemType) {
	if s.metrics != nil {
		s.metrics.SourceFailures.WithLabelValues(string(t)).Inc()
	}
}

func (s *ScanService) observe(notices []domain.ExpiryNotice, took time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ScansTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.metrics.ScanDuration.Observe(took.Seconds())
	for _, n := range notices {
		s.metrics.NoticesTotal.WithLabelValues(string(n.ItemType), string(n.When)).Inc()
	}
}
