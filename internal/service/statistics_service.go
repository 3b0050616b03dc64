package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

// Statistics sources, most authoritative first. The response meta carries the
// one that actually served the request so operators can watch the cutover.
const (
	StatsSourceLegacy = "legacy"
	StatsSourceSQL    = "sql"
	StatsSourceLocal  = "local"
)

const statsCachePrefix = "stats:"

type legacySummaryProvider interface {
	Summary(ctx context.Context, qctx models.QueueContext) (models.StatisticsSnapshot, error)
}

type statsAggregator interface {
	Aggregate(ctx context.Context, qctx models.QueueContext, now time.Time) (models.StatisticsSnapshot, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cachedStatistics struct {
	Snapshot models.StatisticsSnapshot `json:"snapshot"`
	Source   string                    `json:"source"`
}

// StatisticsService resolves inbox statistics through a chain of providers:
// the legacy backend while it remains authoritative, then the SQL aggregate,
// then a local reduction over the last known good document snapshot. Each
// hop down the chain is logged; only the local hop can still fail.
type StatisticsService struct {
	legacy    legacySummaryProvider
	repo      statsAggregator
	snapshots *SnapshotStore
	cache     statsCache
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// StatisticsServiceParams bundles the constructor dependencies. Legacy and
// cache may be nil; the chain simply skips them.
type StatisticsServiceParams struct {
	Legacy    legacySummaryProvider
	Repo      statsAggregator
	Snapshots *SnapshotStore
	Cache     statsCache
	CacheTTL  time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewStatisticsService constructs the service.
func NewStatisticsService(params StatisticsServiceParams) *StatisticsService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.CacheTTL <= 0 {
		params.CacheTTL = 30 * time.Second
	}
	if params.Snapshots == nil {
		params.Snapshots = NewSnapshotStore()
	}
	return &StatisticsService{
		legacy:    params.Legacy,
		repo:      params.Repo,
		snapshots: params.Snapshots,
		cache:     params.Cache,
		cacheTTL:  params.CacheTTL,
		logger:    params.Logger,
		now:       params.Now,
	}
}

// Summarize returns the statistics snapshot for a queue context together with
// the source that produced it. One clock reading covers the whole pass.
func (s *StatisticsService) Summarize(ctx context.Context, qctx models.QueueContext) (models.StatisticsSnapshot, string, error) {
	cacheKey := statsCachePrefix + qctx.ContextKey()
	if s.cache != nil {
		var cached cachedStatistics
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached.Snapshot, cached.Source, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("statistics cache read failed", zap.Error(err))
		}
	}

	now := s.now()

	if s.legacy != nil {
		snapshot, err := s.legacy.Summary(ctx, qctx)
		if err == nil {
			s.store(ctx, cacheKey, snapshot, StatsSourceLegacy)
			return snapshot, StatsSourceLegacy, nil
		}
		s.logger.Warn("legacy statistics unavailable, falling back to sql",
			zap.String("context", qctx.ContextKey()), zap.Error(err))
	}

	if s.repo != nil {
		snapshot, err := s.repo.Aggregate(ctx, qctx, now)
		if err == nil {
			s.store(ctx, cacheKey, snapshot, StatsSourceSQL)
			return snapshot, StatsSourceSQL, nil
		}
		s.logger.Warn("sql statistics unavailable, falling back to local snapshot",
			zap.String("context", qctx.ContextKey()), zap.Error(err))
	}

	docs, _, ok := s.snapshots.Get(qctx.ContextKey())
	if !ok {
		return models.StatisticsSnapshot{}, "", appErrors.Clone(appErrors.ErrUpstreamUnavailable,
			"no statistics source available for this queue")
	}
	snapshot := models.ReduceDocuments(PartitionQueue(docs, qctx), now)
	// Served from memory; deliberately not cached so a recovered backend
	// takes over on the next request.
	return snapshot, StatsSourceLocal, nil
}

// InvalidateForDocument drops cached statistics after a triage mutation. Any
// mutation can move a document between queues, so the whole prefix goes.
func (s *StatisticsService) InvalidateForDocument(ctx context.Context, _ models.Document) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCachePrefix+"*"); err != nil {
		s.logger.Warn("statistics cache invalidation failed", zap.Error(err))
	}
}

func (s *StatisticsService) store(ctx context.Context, key string, snapshot models.StatisticsSnapshot, source string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, cachedStatistics{Snapshot: snapshot, Source: source}, s.cacheTTL); err != nil {
		s.logger.Warn("statistics cache write failed", zap.Error(err))
	}
}
