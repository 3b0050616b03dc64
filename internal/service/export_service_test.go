package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
	"github.com/tramita/inbox-api/pkg/storage"
)

type fakeExportStorage struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeExportStorage() *fakeExportStorage {
	return &fakeExportStorage{saved: map[string][]byte{}}
}

func (f *fakeExportStorage) Save(filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[filename] = data
	return filename, nil
}

func (f *fakeExportStorage) Open(string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (f *fakeExportStorage) Delete(string) error { return nil }

func (f *fakeExportStorage) CleanupOlderThan(time.Duration) ([]string, error) { return nil, nil }

func newExportFixture(t *testing.T) (*ExportService, *fakeExportStorage) {
	t.Helper()
	fileStore := newFakeExportStorage()
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	docs := &fakeInboxStore{docs: sampleQueueDocs(), total: 5}
	return NewExportService(docs, fileStore, signer, ExportConfig{}, nil), fileStore
}

func TestCreateExportRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.CreateExport(models.QueueContext{Queue: models.QueuePersonal, UserID: 7},
		dto.CreateExportRequest{Format: "xlsx"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateExportRunsToCompletion(t *testing.T) {
	svc, fileStore := newExportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	resp, err := svc.CreateExport(models.QueueContext{Queue: models.QueuePersonal, UserID: 7},
		dto.CreateExportRequest{Format: "CSV"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "csv", resp.Format)

	require.Eventually(t, func() bool {
		status, err := svc.GetJob(resp.ID)
		return err == nil && status.Status == ExportStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	status, err := svc.GetJob(resp.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, status.DownloadToken)

	fileStore.mu.Lock()
	defer fileStore.mu.Unlock()
	assert.Len(t, fileStore.saved, 1)
}

func TestGetJobUnknown(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.GetJob("nope")

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestBuildQueueDataset(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	sector := "juridico"
	sender := "Maria"

	dataset := buildQueueDataset([]models.Document{{
		ProtocolNumber:    "2026-0001",
		DocumentType:      models.DocumentTypeComplaint,
		Subject:           "Noise complaint",
		SenderName:        &sender,
		DestinationSector: &sector,
		Status:            models.StatusRead,
		Priority:          models.PriorityNormal,
		DueAt:             &yesterday,
		EntryAt:           yesterday,
	}}, now)

	require.Len(t, dataset.Rows, 1)
	row := dataset.Rows[0]
	assert.Equal(t, len(dataset.Headers), len(row))
	assert.Equal(t, "2026-0001", row[0])
	assert.Equal(t, "Legal 1", row[4])
	// Overdue implies urgent in the export annotation column.
	assert.Equal(t, "yes", row[8])
	assert.Equal(t, "2026-03-09", row[9])
}

func TestExportTitle(t *testing.T) {
	assert.Equal(t, "Personal Inbox", exportTitle(models.QueueContext{Queue: models.QueuePersonal}))
	assert.Equal(t, "Sector Inbox", exportTitle(models.QueueContext{Queue: models.QueueSector}))
	assert.Equal(t, "Sector Inbox: Legal 1",
		exportTitle(models.QueueContext{Queue: models.QueueSector, Sector: "juridico"}))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "personal-7", sanitizeFilename("personal:7"))
	assert.Equal(t, "sector-LEGAL_1", sanitizeFilename("sector:LEGAL_1"))
}
