package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

type fakeLegacyProvider struct {
	snapshot models.StatisticsSnapshot
	err      error
	calls    int
}

func (f *fakeLegacyProvider) Summary(context.Context, models.QueueContext) (models.StatisticsSnapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

type fakeAggregator struct {
	snapshot models.StatisticsSnapshot
	err      error
	calls    int
}

func (f *fakeAggregator) Aggregate(context.Context, models.QueueContext, time.Time) (models.StatisticsSnapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

type fakeStatsCache struct {
	entries  map[string][]byte
	getErr   error
	deleted  []string
	setCalls int
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: map[string][]byte{}}
}

func (f *fakeStatsCache) Get(_ context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeStatsCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeStatsCache) DeleteByPattern(_ context.Context, pattern string) error {
	f.deleted = append(f.deleted, pattern)
	return nil
}

func statsQueueContext() models.QueueContext {
	return models.QueueContext{Queue: models.QueuePersonal, UserID: 7}
}

func TestSummarizePrefersLegacy(t *testing.T) {
	legacy := &fakeLegacyProvider{snapshot: models.StatisticsSnapshot{Total: 12, Unread: 4}}
	repo := &fakeAggregator{snapshot: models.StatisticsSnapshot{Total: 99}}
	cache := newFakeStatsCache()
	svc := NewStatisticsService(StatisticsServiceParams{Legacy: legacy, Repo: repo, Cache: cache})

	snapshot, source, err := svc.Summarize(context.Background(), statsQueueContext())

	require.NoError(t, err)
	assert.Equal(t, StatsSourceLegacy, source)
	assert.Equal(t, 12, snapshot.Total)
	assert.Zero(t, repo.calls)
	assert.Equal(t, 1, cache.setCalls)
}

func TestSummarizeFallsBackToSQL(t *testing.T) {
	legacy := &fakeLegacyProvider{err: errors.New("connection refused")}
	repo := &fakeAggregator{snapshot: models.StatisticsSnapshot{Total: 7, Overdue: 1}}
	svc := NewStatisticsService(StatisticsServiceParams{Legacy: legacy, Repo: repo})

	snapshot, source, err := svc.Summarize(context.Background(), statsQueueContext())

	require.NoError(t, err)
	assert.Equal(t, StatsSourceSQL, source)
	assert.Equal(t, 7, snapshot.Total)
	assert.Equal(t, 1, legacy.calls)
}

func TestSummarizeFallsBackToLocalSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	legacy := &fakeLegacyProvider{err: errors.New("legacy down")}
	repo := &fakeAggregator{err: errors.New("db down")}
	cache := newFakeStatsCache()
	snapshots := NewSnapshotStore()
	qctx := statsQueueContext()
	snapshots.Put(qctx.ContextKey(), sampleQueueDocs(), now)

	svc := NewStatisticsService(StatisticsServiceParams{
		Legacy:    legacy,
		Repo:      repo,
		Snapshots: snapshots,
		Cache:     cache,
		Now:       func() time.Time { return now },
	})

	snapshot, source, err := svc.Summarize(context.Background(), qctx)

	require.NoError(t, err)
	assert.Equal(t, StatsSourceLocal, source)
	want := models.ReduceDocuments(PartitionQueue(sampleQueueDocs(), qctx), now)
	assert.Equal(t, want, snapshot)
	// Local results are not cached so a recovered backend takes over.
	assert.Zero(t, cache.setCalls)
}

func TestSummarizeNoSourceAvailable(t *testing.T) {
	repo := &fakeAggregator{err: errors.New("db down")}
	svc := NewStatisticsService(StatisticsServiceParams{Repo: repo})

	_, _, err := svc.Summarize(context.Background(), statsQueueContext())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErr.Code)
}

func TestSummarizeServesFromCache(t *testing.T) {
	legacy := &fakeLegacyProvider{snapshot: models.StatisticsSnapshot{Total: 3}}
	cache := newFakeStatsCache()
	svc := NewStatisticsService(StatisticsServiceParams{Legacy: legacy, Cache: cache})

	_, _, err := svc.Summarize(context.Background(), statsQueueContext())
	require.NoError(t, err)
	require.Equal(t, 1, legacy.calls)

	snapshot, source, err := svc.Summarize(context.Background(), statsQueueContext())
	require.NoError(t, err)
	assert.Equal(t, StatsSourceLegacy, source)
	assert.Equal(t, 3, snapshot.Total)
	assert.Equal(t, 1, legacy.calls, "second call must not reach the backend")
}

func TestSummarizeSurvivesCacheFailure(t *testing.T) {
	legacy := &fakeLegacyProvider{snapshot: models.StatisticsSnapshot{Total: 5}}
	cache := newFakeStatsCache()
	cache.getErr = errors.New("redis timeout")
	svc := NewStatisticsService(StatisticsServiceParams{Legacy: legacy, Cache: cache})

	snapshot, source, err := svc.Summarize(context.Background(), statsQueueContext())

	require.NoError(t, err)
	assert.Equal(t, StatsSourceLegacy, source)
	assert.Equal(t, 5, snapshot.Total)
}

func TestInvalidateForDocumentDropsPrefix(t *testing.T) {
	cache := newFakeStatsCache()
	svc := NewStatisticsService(StatisticsServiceParams{Cache: cache})

	svc.InvalidateForDocument(context.Background(), models.Document{ID: "d1"})

	require.Len(t, cache.deleted, 1)
	assert.Equal(t, "stats:*", cache.deleted[0])
}
