package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	"github.com/tramita/inbox-api/internal/repository"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

type fakeDocStore struct {
	doc             *models.Document
	getErr          error
	statusCalls     int
	statusAffected  int64
	routingCalls    int
	routingAffected int64
	lastRouting     repository.ForwardParams
	lastStatusFrom  []models.DocumentStatus
	lastStatusTo    models.DocumentStatus
}

func (f *fakeDocStore) GetByID(_ context.Context, id string) (*models.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil || f.doc.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *f.doc
	return &copied, nil
}

func (f *fakeDocStore) UpdateStatus(_ context.Context, _ string, from []models.DocumentStatus, to models.DocumentStatus) (int64, error) {
	f.statusCalls++
	f.lastStatusFrom = from
	f.lastStatusTo = to
	if f.statusAffected > 0 {
		f.doc.Status = to
	}
	return f.statusAffected, nil
}

func (f *fakeDocStore) UpdateRouting(_ context.Context, params repository.ForwardParams) (int64, error) {
	f.routingCalls++
	f.lastRouting = params
	return f.routingAffected, nil
}

type fakeDirectory struct {
	users map[int64]*models.User
}

func (f *fakeDirectory) FindByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type fakeAudit struct {
	entries []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.entries = append(f.entries, log)
	return nil
}

type fakeStatsInvalidator struct {
	calls int
}

func (f *fakeStatsInvalidator) InvalidateForDocument(context.Context, models.Document) {
	f.calls++
}

func newTriageFixture(doc *models.Document) (*TriageService, *fakeDocStore, *fakeAudit, *fakeStatsInvalidator) {
	store := &fakeDocStore{doc: doc, statusAffected: 1, routingAffected: 1}
	audit := &fakeAudit{}
	stats := &fakeStatsInvalidator{}
	directory := &fakeDirectory{users: map[int64]*models.User{
		11: {ID: 11, Login: "ana", Sector: strPtr("LEGAL-1")},
		12: {ID: 12, Login: "bruno", Sector: strPtr("FINANCE")},
	}}
	svc := NewTriageService(store, directory, audit, stats, nil, nil)
	return svc, store, audit, stats
}

func actor() *models.JWTClaims {
	return &models.JWTClaims{UserID: 7, Login: "carla", Role: models.RoleAnalyst}
}

func TestMarkReadTransitionsUnread(t *testing.T) {
	svc, store, audit, stats := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusUnread})

	doc, err := svc.MarkRead(context.Background(), "d1", actor())

	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, doc.Status)
	assert.Equal(t, 1, store.statusCalls)
	assert.Equal(t, []models.DocumentStatus{models.StatusUnread}, store.lastStatusFrom)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionMarkRead, audit.entries[0].Action)
	assert.Equal(t, 1, stats.calls)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, store, audit, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusInAnalysis})

	doc, err := svc.MarkRead(context.Background(), "d1", actor())

	require.NoError(t, err)
	assert.Equal(t, models.StatusInAnalysis, doc.Status)
	assert.Zero(t, store.statusCalls)
	assert.Empty(t, audit.entries)
}

func TestMarkReadUnknownDocument(t *testing.T) {
	svc, _, _, _ := newTriageFixture(&models.Document{ID: "other", Status: models.StatusUnread})

	_, err := svc.MarkRead(context.Background(), "d1", actor())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStartAnalysisRequiresReadStatus(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusUnread})

	_, err := svc.StartAnalysis(context.Background(), "d1", actor())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Zero(t, store.statusCalls)
}

func TestForwardRequiresTargetSector(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusRead})

	_, err := svc.Forward(context.Background(), "d1", dto.ForwardRequest{}, actor())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	// Validation fails before any storage interaction.
	assert.Zero(t, store.routingCalls)
	assert.Zero(t, store.statusCalls)
}

func TestForwardRejectsUnknownSector(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusRead})

	_, err := svc.Forward(context.Background(), "d1", dto.ForwardRequest{TargetSector: "ouvidoria"}, actor())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Zero(t, store.routingCalls)
}

func TestForwardRejectsRecipientOutsideSector(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusRead})

	_, err := svc.Forward(context.Background(), "d1", dto.ForwardRequest{
		TargetSector:      "LEGAL-1",
		TargetRecipientID: int64Ptr(12), // bruno is in FINANCE
	}, actor())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Zero(t, store.routingCalls)
}

func TestForwardAppliesRoutingWithDefaultNote(t *testing.T) {
	svc, store, audit, stats := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusRead})

	doc, err := svc.Forward(context.Background(), "d1", dto.ForwardRequest{
		TargetSector:      "juridico",
		TargetRecipientID: int64Ptr(11),
	}, actor())

	require.NoError(t, err)
	assert.Equal(t, models.StatusForwarded, doc.Status)
	require.NotNil(t, doc.DestinationSector)
	assert.Equal(t, models.SectorLegal1, *doc.DestinationSector)
	assert.Equal(t, DefaultForwardNote, store.lastRouting.Note)
	assert.Equal(t, models.SectorLegal1, store.lastRouting.DestinationSector)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionForward, audit.entries[0].Action)
	// Both the old and the new queue lose their cached statistics.
	assert.Equal(t, 2, stats.calls)
}

func TestForwardArchivedDocument(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusArchived})

	_, err := svc.Forward(context.Background(), "d1", dto.ForwardRequest{TargetSector: "LEGAL-1"}, actor())

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Zero(t, store.routingCalls)
}

func TestArchiveTwiceFails(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusRead})

	doc, err := svc.Archive(context.Background(), "d1", actor())
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, doc.Status)
	assert.Equal(t, 1, store.statusCalls)

	_, err = svc.Archive(context.Background(), "d1", actor())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, 1, store.statusCalls)
}

func TestDispatchUnknownActionIsIgnored(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusUnread})

	doc, err := svc.Dispatch(context.Background(), "frobnicate", "d1", dto.DispatchRequest{}, actor())

	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Zero(t, store.statusCalls)
	assert.Zero(t, store.routingCalls)
}

func TestDispatchTreatsInvalidTransitionAsNoop(t *testing.T) {
	svc, _, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusArchived})

	doc, err := svc.Dispatch(context.Background(), "archive", "d1", dto.DispatchRequest{}, actor())

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, models.StatusArchived, doc.Status)
}

func TestDispatchNormalizesActionSpelling(t *testing.T) {
	svc, store, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusUnread})

	doc, err := svc.Dispatch(context.Background(), "markRead", "d1", dto.DispatchRequest{}, actor())

	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, doc.Status)
	assert.Equal(t, 1, store.statusCalls)
}

func TestConcurrentActionFailsFast(t *testing.T) {
	svc, _, _, _ := newTriageFixture(&models.Document{ID: "d1", Status: models.StatusUnread})

	unlock, err := svc.lock("d1")
	require.NoError(t, err)
	defer unlock()

	_, err = svc.MarkRead(context.Background(), "d1", actor())
	assert.True(t, errors.Is(err, appErrors.ErrActionInFlight))
}
