package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"expiry-scanner/internal/core/metrics"
	"expiry-scanner/internal/features/expiry/domain"
	records "expiry-scanner/internal/features/records/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecordSource is a mock implementation of records ports.RecordSource
type MockRecordSource struct {
	mock.Mock
	itemType records.ItemType
}

func (m *MockRecordSource) Fetch(ctx context.Context, userID string) ([]records.TrackedItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]records.TrackedItem), args.Error(1)
}

func (m *MockRecordSource) ItemType() records.ItemType {
	return m.itemType
}

// MockNoticeCache is a mock implementation of ports.NoticeCache
type MockNoticeCache struct {
	mock.Mock
}

func (m *MockNoticeCache) Get(ctx context.Context, userID, day string) ([]domain.ExpiryNotice, bool, error) {
	args := m.Called(ctx, userID, day)
	var notices []domain.ExpiryNotice
	if args.Get(0) != nil {
		notices = args.Get(0).([]domain.ExpiryNotice)
	}
	return notices, args.Bool(1), args.Error(2)
}

func (m *MockNoticeCache) Save(ctx context.Context, userID, day string, notices []domain.ExpiryNotice) error {
	args := m.Called(ctx, userID, day, notices)
	return args.Error(0)
}

func (m *MockNoticeCache) Invalidate(ctx context.Context, userID, day string) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

var reference = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func expiring(t *testing.T, raw string) *time.Time {
	t.Helper()
	d, ok := records.ParseExpirationDate(raw, time.UTC)
	require.True(t, ok)
	return d
}

func newSources() (*MockRecordSource, *MockRecordSource) {
	return &MockRecordSource{itemType: records.ItemTypeVitamin}, &MockRecordSource{itemType: records.ItemTypeMedication}
}

func TestScanService_Scan_Scenarios(t *testing.T) {
	t.Run("VitaminToday", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
			{Name: "VitC", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-10T00:00:00")},
		}, nil).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()

		svc := NewScanService(vit, med, WithLocation(time.UTC))
		result, err := svc.Scan(context.Background(), "u1", reference)

		require.NoError(t, err)
		assert.Equal(t, []domain.ExpiryNotice{{Name: "VitC", ItemType: records.ItemTypeVitamin, When: domain.WhenToday}}, result.Notices)
		assert.Equal(t, "2024-03-10", result.ReferenceDay)
		assert.Equal(t, "u1", result.UserID)
		assert.False(t, result.Skipped)
		vit.AssertExpectations(t)
		med.AssertExpectations(t)
	})

	t.Run("MedicationTomorrow", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
			{Name: "Aspirin", Type: records.ItemTypeMedication, ExpirationDate: expiring(t, "2024-03-11T23:00:00")},
		}, nil).Once()

		result, err := NewScanService(vit, med, WithLocation(time.UTC)).Scan(context.Background(), "u1", reference)

		require.NoError(t, err)
		assert.Equal(t, []domain.ExpiryNotice{{Name: "Aspirin", ItemType: records.ItemTypeMedication, When: domain.WhenTomorrow}}, result.Notices)
	})

	t.Run("FarFutureAndMissingDates", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
			{Name: "Zinc", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-15T00:00:00")},
			{Name: "Omega 3", Type: records.ItemTypeVitamin},
		}, nil).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()

		result, err := NewScanService(vit, med, WithLocation(time.UTC)).Scan(context.Background(), "u1", reference)

		require.NoError(t, err)
		assert.NotNil(t, result.Notices)
		assert.Empty(t, result.Notices)
		assert.False(t, result.HasNotices())
	})

	t.Run("VitaminsFetchFails", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return(nil, records.ErrSourceUnavailable).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
			{Name: "Aspirin", Type: records.ItemTypeMedication, ExpirationDate: expiring(t, "2024-03-10T12:00:00")},
		}, nil).Maybe()

		m := metrics.New()
		result, err := NewScanService(vit, med, WithLocation(time.UTC), WithMetrics(m)).Scan(context.Background(), "u1", reference)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, records.ErrSourceUnavailable)
		assert.Contains(t, err.Error(), "u1")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues(metrics.OutcomeFailure)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("Vitamin")))
	})

	t.Run("MedicationsFetchFails", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Maybe()
		med.On("Fetch", mock.Anything, "u1").Return(nil, errors.New("connection reset")).Once()

		result, err := NewScanService(vit, med).Scan(context.Background(), "u1", reference)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

// TestScanService_Scan_OrderIndependentOfCompletion verifies vitamins come first even when
// the medications fetch finishes earlier.
func TestScanService_Scan_OrderIndependentOfCompletion(t *testing.T) {
	vit, med := newSources()
	vit.On("Fetch", mock.Anything, "u1").After(50*time.Millisecond).Return([]records.TrackedItem{
		{Name: "V1", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-11")},
		{Name: "V2", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-10")},
	}, nil).Once()
	med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
		{Name: "M1", Type: records.ItemTypeMedication, ExpirationDate: expiring(t, "2024-03-10")},
		{Name: "M2", Type: records.ItemTypeMedication, ExpirationDate: expiring(t, "2024-03-11")},
	}, nil).Once()

	svc := NewScanService(vit, med, WithLocation(time.UTC))
	result, err := svc.Scan(context.Background(), "u1", reference)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Notices))
	for _, n := range result.Notices {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"V1", "V2", "M1", "M2"}, names)
}

// TestScanService_Scan_Concurrent verifies both fetches are in flight at the same time.
func TestScanService_Scan_Concurrent(t *testing.T) {
	var inFlight, peak atomic.Int32
	track := func(mock.Arguments) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
	}

	vit, med := newSources()
	vit.On("Fetch", mock.Anything, "u1").Run(track).Return([]records.TrackedItem{}, nil).Once()
	med.On("Fetch", mock.Anything, "u1").Run(track).Return([]records.TrackedItem{}, nil).Once()

	_, err := NewScanService(vit, med).Scan(context.Background(), "u1", reference)
	require.NoError(t, err)
	assert.Equal(t, int32(2), peak.Load())
}

func TestScanService_Scan_MissingUserIsNoOp(t *testing.T) {
	vit, med := newSources()
	m := metrics.New()

	result, err := NewScanService(vit, med, WithMetrics(m)).Scan(context.Background(), "", reference)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Notices)
	vit.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	med.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues(metrics.OutcomeSkipped)))
}

func TestScanService_Scan_DefaultsToClock(t *testing.T) {
	vit, med := newSources()
	vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
		{Name: "VitC", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-11T09:00:00")},
	}, nil).Once()
	med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()

	svc := NewScanService(vit, med, WithLocation(time.UTC), WithClock(func() time.Time { return reference }))
	result, err := svc.Scan(context.Background(), "u1", time.Time{})

	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", result.ReferenceDay)
	require.Len(t, result.Notices, 1)
	assert.Equal(t, domain.WhenTomorrow, result.Notices[0].When)
}

func TestScanService_Scan_ReferenceDayOnSkippedMidnight(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	vit, med := newSources()
	cache := new(MockNoticeCache)
	vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()
	med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()
	cache.On("Get", mock.Anything, "u1", "2024-09-08").Return(nil, false, nil).Once()
	cache.On("Save", mock.Anything, "u1", "2024-09-08", []domain.ExpiryNotice{}).Return(nil).Once()

	svc := NewScanService(vit, med, WithLocation(santiago), WithCache(cache))
	result, err := svc.Scan(context.Background(), "u1", time.Date(2024, 9, 8, 10, 0, 0, 0, santiago))

	require.NoError(t, err)
	assert.Equal(t, "2024-09-08", result.ReferenceDay)
	cache.AssertExpectations(t)
}

func TestScanService_Scan_Idempotent(t *testing.T) {
	vit, med := newSources()
	vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
		{Name: "VitC", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-10")},
	}, nil).Twice()
	med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
		{Name: "Aspirin", Type: records.ItemTypeMedication, ExpirationDate: expiring(t, "2024-03-11")},
	}, nil).Twice()

	svc := NewScanService(vit, med, WithLocation(time.UTC))
	first, err := svc.Scan(context.Background(), "u1", reference)
	require.NoError(t, err)
	second, err := svc.Scan(context.Background(), "u1", reference)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScanService_Scan_WithCache(t *testing.T) {
	cachedNotices := []domain.ExpiryNotice{{Name: "VitC", ItemType: records.ItemTypeVitamin, When: domain.WhenToday}}

	t.Run("Hit", func(t *testing.T) {
		vit, med := newSources()
		c := new(MockNoticeCache)
		c.On("Get", mock.Anything, "u1", "2024-03-10").Return(cachedNotices, true, nil).Once()

		m := metrics.New()
		result, err := NewScanService(vit, med, WithLocation(time.UTC), WithCache(c), WithMetrics(m)).Scan(context.Background(), "u1", reference)

		require.NoError(t, err)
		assert.True(t, result.Cached)
		assert.Equal(t, cachedNotices, result.Notices)
		vit.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues(metrics.OutcomeCached)))
		c.AssertExpectations(t)
	})

	t.Run("MissStoresResult", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
			{Name: "VitC", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-10")},
		}, nil).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()

		c := new(MockNoticeCache)
		c.On("Get", mock.Anything, "u1", "2024-03-10").Return(nil, false, nil).Once()
		c.On("Save", mock.Anything, "u1", "2024-03-10", cachedNotices).Return(nil).Once()

		result, err := NewScanService(vit, med, WithLocation(time.UTC), WithCache(c)).Scan(context.Background(), "u1", reference)

		require.NoError(t, err)
		assert.False(t, result.Cached)
		assert.Equal(t, cachedNotices, result.Notices)
		c.AssertExpectations(t)
	})

	t.Run("CacheErrorsAreIgnored", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()

		c := new(MockNoticeCache)
		c.On("Get", mock.Anything, "u1", "2024-03-10").Return(nil, false, errors.New("redis down")).Once()
		c.On("Save", mock.Anything, "u1", "2024-03-10", []domain.ExpiryNotice{}).Return(errors.New("redis down")).Once()

		result, err := NewScanService(vit, med, WithLocation(time.UTC), WithCache(c)).Scan(context.Background(), "u1", reference)

		require.NoError(t, err)
		assert.Empty(t, result.Notices)
		c.AssertExpectations(t)
	})

	t.Run("FailureIsNotCached", func(t *testing.T) {
		vit, med := newSources()
		vit.On("Fetch", mock.Anything, "u1").Return(nil, records.ErrSourceUnavailable).Once()
		med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Maybe()

		c := new(MockNoticeCache)
		c.On("Get", mock.Anything, "u1", "2024-03-10").Return(nil, false, nil).Once()

		_, err := NewScanService(vit, med, WithLocation(time.UTC), WithCache(c)).Scan(context.Background(), "u1", reference)

		require.Error(t, err)
		c.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestScanService_Rescan(t *testing.T) {
	vit, med := newSources()
	vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()
	med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{}, nil).Once()

	c := new(MockNoticeCache)
	c.On("Invalidate", mock.Anything, "u1", "2024-03-10").Return(nil).Once()
	c.On("Get", mock.Anything, "u1", "2024-03-10").Return(nil, false, nil).Once()
	c.On("Save", mock.Anything, "u1", "2024-03-10", []domain.ExpiryNotice{}).Return(nil).Once()

	result, err := NewScanService(vit, med, WithLocation(time.UTC), WithCache(c)).Rescan(context.Background(), "u1", reference)

	require.NoError(t, err)
	assert.False(t, result.Cached)
	c.AssertExpectations(t)
}

func TestScanService_Metrics(t *testing.T) {
	vit, med := newSources()
	vit.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
		{Name: "VitC", Type: records.ItemTypeVitamin, ExpirationDate: expiring(t, "2024-03-10")},
	}, nil).Once()
	med.On("Fetch", mock.Anything, "u1").Return([]records.TrackedItem{
		{Name: "Aspirin", Type: records.ItemTypeMedication, ExpirationDate: expiring(t, "2024-03-11")},
	}, nil).Once()

	m := metrics.New()
	_, err := NewScanService(vit, med, WithLocation(time.UTC), WithMetrics(m)).Scan(context.Background(), "u1", reference)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NoticesTotal.WithLabelValues("Vitamin", "today")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NoticesTotal.WithLabelValues("Medication", "tomorrow")))
}
