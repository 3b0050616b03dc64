package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita/inbox-api/internal/models"
	"github.com/tramita/inbox-api/internal/service"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

type fakeStatisticsSrv struct {
	snapshot models.StatisticsSnapshot
	source   string
	err      error
	lastCtx  models.QueueContext
}

func (f *fakeStatisticsSrv) Summarize(_ context.Context, qctx models.QueueContext) (models.StatisticsSnapshot, string, error) {
	f.lastCtx = qctx
	return f.snapshot, f.source, f.err
}

func TestStatisticsHandlerUnauthorized(t *testing.T) {
	handler := NewStatisticsHandler(&fakeStatisticsSrv{}, nil, 20, 100)
	c, rec := testContext(t, http.MethodGet, "/documents/statistics", "")

	handler.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatisticsHandlerReportsSource(t *testing.T) {
	srv := &fakeStatisticsSrv{
		snapshot: models.StatisticsSnapshot{Total: 12, Unread: 4},
		source:   service.StatsSourceSQL,
	}
	handler := NewStatisticsHandler(srv, nil, 20, 100)
	c, rec := testContext(t, http.MethodGet, "/documents/statistics?queue=sector&sector=juridico", "")
	authed(c)

	handler.Summary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, service.StatsSourceSQL, envelope.Meta["source"])

	var snapshot models.StatisticsSnapshot
	require.NoError(t, json.Unmarshal(envelope.Data, &snapshot))
	assert.Equal(t, 12, snapshot.Total)
	assert.Equal(t, models.QueueSector, srv.lastCtx.Queue)
}

func TestStatisticsHandlerAllSourcesDown(t *testing.T) {
	srv := &fakeStatisticsSrv{err: appErrors.ErrUpstreamUnavailable}
	handler := NewStatisticsHandler(srv, nil, 20, 100)
	c, rec := testContext(t, http.MethodGet, "/documents/statistics", "")
	authed(c)

	handler.Summary(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
