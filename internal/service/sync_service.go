package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/platform"
	"catalog-mirror/internal/store"
	"catalog-mirror/internal/util"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Remote query parameters
const (
	paramLimit    = "limit"
	paramCursor   = "page_info"
	paramStatus   = "status"
	orderStatuses = "any"
)

// PageFetcher pulls one page of a remote resource
type PageFetcher interface {
	FetchPage(ctx context.Context, resource string, query map[string]string) (*platform.Page, error)
}

// EventPublisher announces completed sync runs
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, event *models.SyncCompletedEvent) error
}

// Locker serializes sync runs of one resource across processes
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// ErrSyncInProgress is returned when another run holds the resource lock
var ErrSyncInProgress = errors.New("sync already in progress")

// SyncOptions tunes pagination and retries
type SyncOptions struct {
	PageLimit int
	SoftDelay time.Duration
	OrderCap  int
	PageSize  PageSizePolicy
	Retry     RetryPolicy
}

// DefaultSyncOptions returns the remote API's per-call maximum of 50, a
// 300ms pause between pages and a 500 order cap.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		PageLimit: 50,
		SoftDelay: 300 * time.Millisecond,
		OrderCap:  500,
		PageSize:  ThrottleFallback{Fallback: 1},
		Retry:     DefaultRetryPolicy(),
	}
}

// SyncResult summarises one sync run
type SyncResult struct {
	Resource   string
	Processed  int
	Fetched    int
	Pages      int
	Skipped    int
	Unresolved []string
	Duration   time.Duration
}

// SyncService mirrors remote products and orders into the store
type SyncService struct {
	store     *store.Store
	fetcher   PageFetcher
	publisher EventPublisher
	cache     ExportCache
	opts      SyncOptions
	logger    *zap.Logger

	locker  Locker
	lockTTL time.Duration

	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSyncService creates a new sync service. publisher and cache may be nil.
func NewSyncService(
	store *store.Store,
	fetcher PageFetcher,
	publisher EventPublisher,
	cache ExportCache,
	opts SyncOptions,
) *SyncService {
	if opts.PageSize == nil {
		opts.PageSize = FixedPageSize{}
	}
	return &SyncService{
		store:     store,
		fetcher:   fetcher,
		publisher: publisher,
		cache:     cache,
		opts:      opts,
		logger:    util.GetLogger(),
		newID:     uuid.NewString,
		sleep:     sleepContext,
	}
}

// WithLocker makes every run hold a per-resource lock for at most ttl
func (s *SyncService) WithLocker(locker Locker, ttl time.Duration) *SyncService {
	s.locker = locker
	s.lockTTL = ttl
	return s
}

// lock takes the resource lock when a Locker is configured. The returned
// release func is always safe to call.
func (s *SyncService) lock(ctx context.Context, resource string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := "sync:" + resource
	ok, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s lock: %w", resource, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", resource, ErrSyncInProgress)
	}

	return func() {
		// The run's context may already be cancelled
		if err := s.locker.ReleaseLock(context.Background(), key); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.String("resource", resource), zap.Error(err))
		}
	}, nil
}

// fetchPage fetches one page, retrying transient remote failures
func (s *SyncService) fetchPage(ctx context.Context, resource string, query map[string]string) (*platform.Page, error) {
	ctx, span := util.StartSpan(ctx, "SyncService.fetchPage")
	defer span.End()

	var page *platform.Page
	operation := func() error {
		start := time.Now()
		p, err := s.fetcher.FetchPage(ctx, resource, query)
		util.FetchLatency.WithLabelValues(resource).Observe(time.Since(start).Seconds())
		if err != nil {
			var fetchErr *platform.RemoteFetchError
			if errors.As(err, &fetchErr) && fetchErr.Retryable() && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		page = p
		return nil
	}

	notify := func(err error, wait time.Duration) {
		util.FetchRetriesTotal.WithLabelValues(resource).Inc()
		s.logger.Warn("Page fetch failed, retrying",
			zap.String("resource", resource),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, s.opts.Retry.newBackOff(ctx), notify); err != nil {
		return nil, err
	}

	util.PagesFetchedTotal.WithLabelValues(resource).Inc()
	s.logger.Debug("Page fetched",
		zap.String("resource", resource),
		zap.String("limit", query[paramLimit]),
		zap.Bool("has_cursor", query[paramCursor] != ""),
		zap.Int("records", len(page.Records)),
		zap.Bool("has_next", page.HasNext()))
	return page, nil
}

func pageQuery(limit int, cursor string) map[string]string {
	query := map[string]string{paramLimit: strconv.Itoa(limit)}
	if cursor != "" {
		query[paramCursor] = cursor
	}
	return query
}

// finish records the run and notifies downstream consumers. Neither
// publishing nor cache invalidation can fail a committed run.
func (s *SyncService) finish(ctx context.Context, result *SyncResult, eventType string, started time.Time) {
	result.Duration = time.Since(started)

	util.SyncRunsTotal.WithLabelValues(result.Resource, "success").Inc()
	util.RecordsSyncedTotal.WithLabelValues(result.Resource).Add(float64(result.Processed))

	s.logger.Info("Sync completed",
		zap.String("resource", result.Resource),
		zap.Int("processed", result.Processed),
		zap.Int("fetched", result.Fetched),
		zap.Int("pages", result.Pages),
		zap.Int("skipped", result.Skipped),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Duration("duration", result.Duration))

	if s.cache != nil {
		if err := s.cache.InvalidateExports(ctx); err != nil {
			s.logger.Error("Failed to invalidate export cache", zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := &models.SyncCompletedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: eventType,
				Timestamp: time.Now(),
			},
			Resource:   result.Resource,
			Processed:  result.Processed,
			Pages:      result.Pages,
			Skipped:    result.Skipped,
			Unresolved: result.Unresolved,
			DurationMS: result.Duration.Milliseconds(),
		}
		if err := s.publisher.PublishSyncCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish sync event",
				zap.String("event_type", eventType),
				zap.Error(err))
		}
	}
}

func (s *SyncService) fail(resource string, err error) error {
	util.SyncRunsTotal.WithLabelValues(resource, "failure").Inc()
	s.logger.Error("Sync failed", zap.String("resource", resource), zap.Error(err))
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
