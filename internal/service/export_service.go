package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
	"github.com/tramita/inbox-api/pkg/export"
	"github.com/tramita/inbox-api/pkg/jobs"
	"github.com/tramita/inbox-api/pkg/storage"
)

// Export job lifecycle states.
const (
	ExportStatusPending = "PENDING"
	ExportStatusRunning = "RUNNING"
	ExportStatusDone    = "DONE"
	ExportStatusFailed  = "FAILED"
)

type exportDocumentLister interface {
	List(ctx context.Context, qctx models.QueueContext) ([]models.Document, int, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	ResultTTL  time.Duration
	Workers    int
	MaxRetries int
}

type exportJob struct {
	ID        string
	Format    string
	Title     string
	Queue     models.QueueContext
	Status    string
	Error     string
	Token     string
	RelPath   string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ExportService renders the current queue view into downloadable files.
// Generation runs on a background worker queue; job state lives in memory
// because exports are short-lived conveniences, not durable records.
type ExportService struct {
	docs    exportDocumentLister
	storage exportFileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	queue   *jobs.Queue

	mu       sync.RWMutex
	jobsByID map[string]*exportJob
}

// NewExportService constructs an ExportService.
func NewExportService(docs exportDocumentLister, fileStore exportFileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ExportService{
		docs:     docs,
		storage:  fileStore,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		jobsByID: make(map[string]*exportJob),
	}
	s.queue = jobs.NewQueue("exports", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight exports to finish.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// CreateExport enqueues an export of the given queue context and returns the
// job descriptor immediately.
func (s *ExportService) CreateExport(qctx models.QueueContext, req dto.CreateExportRequest) (*dto.ExportJobResponse, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	job := &exportJob{
		ID:        uuid.NewString(),
		Format:    format,
		Title:     strings.TrimSpace(req.Title),
		Queue:     qctx,
		Status:    ExportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "export"}); err != nil {
		s.setFailed(job.ID, "export queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.response(job), nil
}

// GetJob returns the current state of an export job.
func (s *ExportService) GetJob(id string) (*dto.ExportJobResponse, error) {
	s.mu.RLock()
	job, ok := s.jobsByID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return s.response(job), nil
}

// Open validates a download token and returns a handle plus the suggested
// filename.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return file, relPath, nil
}

// Cleanup removes expired export files and forgets finished jobs older than
// the result TTL.
func (s *ExportService) Cleanup() {
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	s.mu.Lock()
	for id, job := range s.jobsByID {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobsByID, id)
		}
	}
	s.mu.Unlock()
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	stored, ok := s.jobsByID[job.ID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	stored.Status = ExportStatusRunning
	qctx := stored.Queue
	format := stored.Format
	title := stored.Title
	s.mu.Unlock()

	docs, _, err := s.docs.List(ctx, qctx)
	if err != nil {
		s.setFailed(job.ID, "queue listing failed")
		return fmt.Errorf("export %s: list documents: %w", job.ID, err)
	}

	dataset := buildQueueDataset(docs, time.Now().UTC())
	if title == "" {
		title = exportTitle(qctx)
	}

	var payload []byte
	switch format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		s.setFailed(job.ID, "rendering failed")
		return fmt.Errorf("export %s: render %s: %w", job.ID, format, err)
	}

	filename := fmt.Sprintf("inbox_%s_%s.%s",
		sanitizeFilename(qctx.ContextKey()), time.Now().UTC().Format("20060102_150405"), format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setFailed(job.ID, "storing export failed")
		return fmt.Errorf("export %s: save: %w", job.ID, err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setFailed(job.ID, "signing download failed")
		return fmt.Errorf("export %s: sign: %w", job.ID, err)
	}

	s.mu.Lock()
	if stored, ok := s.jobsByID[job.ID]; ok {
		stored.Status = ExportStatusDone
		stored.Token = token
		stored.RelPath = relPath
		stored.ExpiresAt = &expiresAt
	}
	s.mu.Unlock()
	return nil
}

func (s *ExportService) setFailed(id, message string) {
	s.mu.Lock()
	if job, ok := s.jobsByID[id]; ok {
		job.Status = ExportStatusFailed
		job.Error = message
	}
	s.mu.Unlock()
}

func (s *ExportService) response(job *exportJob) *dto.ExportJobResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &dto.ExportJobResponse{
		ID:            job.ID,
		Format:        job.Format,
		Status:        job.Status,
		Error:         job.Error,
		DownloadToken: job.Token,
		ExpiresAt:     job.ExpiresAt,
		CreatedAt:     job.CreatedAt,
	}
}

func buildQueueDataset(docs []models.Document, now time.Time) export.Dataset {
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		sector := ""
		if doc.DestinationSector != nil {
			sector = models.SectorDisplayName(*doc.DestinationSector)
		}
		sender := ""
		if doc.SenderName != nil {
			sender = *doc.SenderName
		}
		due := ""
		if doc.DueAt != nil {
			due = doc.DueAt.UTC().Format("2006-01-02")
		}
		urgent := "no"
		if doc.Urgent(now) {
			urgent = "yes"
		}
		rows = append(rows, []string{
			doc.ProtocolNumber,
			string(doc.DocumentType),
			doc.Subject,
			sender,
			sector,
			string(doc.Status),
			string(doc.Priority),
			due,
			urgent,
			doc.EntryAt.UTC().Format("2006-01-02"),
		})
	}
	return export.Dataset{
		Headers: []string{"Protocol", "Type", "Subject", "Sender", "Sector", "Status", "Priority", "Due", "Urgent", "Entry"},
		Rows:    rows,
	}
}

func exportTitle(qctx models.QueueContext) string {
	if qctx.Queue == models.QueuePersonal {
		return "Personal Inbox"
	}
	if qctx.Sector == "" {
		return "Sector Inbox"
	}
	return fmt.Sprintf("Sector Inbox: %s", models.SectorDisplayName(qctx.Sector))
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
