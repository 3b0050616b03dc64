package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	"github.com/tramita/inbox-api/internal/repository"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

// Triage action vocabulary. Unknown actions are logged and ignored.
const (
	ActionView          = "view"
	ActionMarkRead      = "mark-read"
	ActionForward       = "forward"
	ActionArchive       = "archive"
	ActionStartAnalysis = "start-analysis"
)

// DefaultForwardNote is used when a forward carries no note.
const DefaultForwardNote = "Forwarded for handling."

type triageDocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	UpdateStatus(ctx context.Context, id string, from []models.DocumentStatus, to models.DocumentStatus) (int64, error)
	UpdateRouting(ctx context.Context, params repository.ForwardParams) (int64, error)
}

type recipientDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type statsInvalidator interface {
	InvalidateForDocument(ctx context.Context, doc models.Document)
}

// TriageService owns the document lifecycle: it maps the uniform action
// vocabulary onto state-machine transitions and storage effects. Conflicting
// actions on one document from the same session are serialized by a keyed
// try-lock; a second action while one is in flight fails fast instead of
// racing.
type TriageService struct {
	repo      triageDocumentStore
	directory recipientDirectory
	audit     auditLogger
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger

	locks sync.Map // document id -> *sync.Mutex
}

// NewTriageService constructs the service.
func NewTriageService(repo triageDocumentStore, directory recipientDirectory, audit auditLogger, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *TriageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{
		repo:      repo,
		directory: directory,
		audit:     audit,
		stats:     stats,
		validator: validate,
		logger:    logger,
	}
}

// Dispatch resolves a triage action by name. Unknown actions are logged and
// ignored; an invalid transition is logged and treated as a no-op so the
// triage flow never crashes on stale UI state.
func (s *TriageService) Dispatch(ctx context.Context, action, documentID string, req dto.DispatchRequest, actor *models.JWTClaims) (*models.Document, error) {
	var (
		doc *models.Document
		err error
	)
	switch normalizeAction(action) {
	case ActionView, ActionMarkRead:
		doc, err = s.MarkRead(ctx, documentID, actor)
	case ActionStartAnalysis:
		doc, err = s.StartAnalysis(ctx, documentID, actor)
	case ActionForward:
		doc, err = s.Forward(ctx, documentID, dto.ForwardRequest{
			TargetSector:      req.TargetSector,
			TargetRecipientID: req.TargetRecipientID,
			Note:              req.Note,
		}, actor)
	case ActionArchive:
		doc, err = s.Archive(ctx, documentID, actor)
	default:
		s.logger.Warn("unknown triage action ignored",
			zap.String("action", action), zap.String("document_id", documentID))
		return nil, nil
	}

	if err != nil && errors.Is(err, appErrors.ErrInvalidTransition) {
		s.logger.Warn("invalid transition treated as no-op",
			zap.String("action", action), zap.String("document_id", documentID))
		if doc != nil {
			return doc, nil
		}
		if current, getErr := s.repo.GetByID(ctx, documentID); getErr == nil {
			return current, nil
		}
		return nil, nil
	}
	return doc, err
}

// MarkRead moves UNREAD to READ. Calling it on a document that is already
// READ or further along is a safe no-op.
func (s *TriageService) MarkRead(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	unlock, err := s.lock(documentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.StatusUnread {
		return doc, nil
	}

	affected, err := s.repo.UpdateStatus(ctx, documentID, []models.DocumentStatus{models.StatusUnread}, models.StatusRead)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark document read")
	}
	if affected == 0 {
		// Lost a race against another session; the document is already read.
		return s.getDocument(ctx, documentID)
	}
	doc.Status = models.StatusRead
	s.recordAudit(ctx, actor, models.AuditActionMarkRead, doc.ID, nil)
	s.invalidateStats(ctx, *doc)
	return doc, nil
}

// StartAnalysis moves READ to IN_ANALYSIS.
func (s *TriageService) StartAnalysis(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	unlock, err := s.lock(documentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.StatusInAnalysis {
		return doc, nil
	}
	if !doc.Status.CanTransitionTo(models.StatusInAnalysis) {
		return doc, appErrors.Clone(appErrors.ErrInvalidTransition,
			"document cannot enter analysis from status "+string(doc.Status))
	}

	affected, err := s.repo.UpdateStatus(ctx, documentID, []models.DocumentStatus{models.StatusRead}, models.StatusInAnalysis)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start analysis")
	}
	if affected == 0 {
		return s.getDocument(ctx, documentID)
	}
	doc.Status = models.StatusInAnalysis
	s.recordAudit(ctx, actor, models.AuditActionStartAnalysis, doc.ID, nil)
	s.invalidateStats(ctx, *doc)
	return doc, nil
}

// Forward routes a document to a new sector and optionally a recipient
// within it, replacing the previous routing. Validation happens before any
// storage call. Re-forwarding an already forwarded document is legal.
func (s *TriageService) Forward(ctx context.Context, documentID string, req dto.ForwardRequest, actor *models.JWTClaims) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target sector is required")
	}
	if strings.TrimSpace(req.TargetSector) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target sector is required")
	}
	if !models.KnownSector(req.TargetSector) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			"unknown target sector: "+req.TargetSector)
	}
	targetSector := models.NormalizeSector(req.TargetSector)

	if req.TargetRecipientID != nil {
		recipient, err := s.directory.FindByID(ctx, *req.TargetRecipientID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "target recipient not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recipient lookup failed")
		}
		if recipient.Sector == nil || !models.SameSector(*recipient.Sector, targetSector) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "target recipient does not belong to the target sector")
		}
	}

	unlock, err := s.lock(documentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return doc, appErrors.Clone(appErrors.ErrInvalidTransition, "archived documents cannot be forwarded")
	}
	previous := *doc

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = DefaultForwardNote
	}

	affected, err := s.repo.UpdateRouting(ctx, repository.ForwardParams{
		ID:                documentID,
		DestinationSector: targetSector,
		DirectRecipientID: req.TargetRecipientID,
		Note:              note,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to forward document")
	}
	if affected == 0 {
		return doc, appErrors.Clone(appErrors.ErrInvalidTransition, "document was archived concurrently")
	}

	doc.Status = models.StatusForwarded
	doc.DestinationSector = &targetSector
	doc.DirectRecipientID = req.TargetRecipientID
	doc.ForwardNote = &note

	payload, _ := json.Marshal(map[string]interface{}{
		"target_sector":    targetSector,
		"target_recipient": req.TargetRecipientID,
	})
	s.recordAudit(ctx, actor, models.AuditActionForward, doc.ID, payload)
	s.invalidateStats(ctx, previous)
	s.invalidateStats(ctx, *doc)
	return doc, nil
}

// Archive moves any non-terminal document to ARCHIVED. Archiving an archived
// document signals an invalid transition instead of corrupting state.
func (s *TriageService) Archive(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	unlock, err := s.lock(documentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return doc, appErrors.Clone(appErrors.ErrInvalidTransition, "document is already archived")
	}

	affected, err := s.repo.UpdateStatus(ctx, documentID, []models.DocumentStatus{
		models.StatusUnread, models.StatusRead, models.StatusInAnalysis, models.StatusForwarded,
	}, models.StatusArchived)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive document")
	}
	if affected == 0 {
		return doc, appErrors.Clone(appErrors.ErrInvalidTransition, "document is already archived")
	}
	doc.Status = models.StatusArchived
	s.recordAudit(ctx, actor, models.AuditActionArchive, doc.ID, nil)
	s.invalidateStats(ctx, *doc)
	return doc, nil
}

func (s *TriageService) getDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "document lookup failed")
	}
	return doc, nil
}

// lock acquires the per-document mutex without blocking. The caller must
// invoke the returned function to release it.
func (s *TriageService) lock(documentID string) (func(), error) {
	value, _ := s.locks.LoadOrStore(documentID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, appErrors.ErrActionInFlight
	}
	return mu.Unlock, nil
}

func (s *TriageService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, documentID string, payload []byte) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "document",
		ResourceID: &documentID,
		NewValues:  payload,
	}
	if actor != nil {
		log.UserID = &actor.UserID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *TriageService) invalidateStats(ctx context.Context, doc models.Document) {
	if s.stats == nil {
		return
	}
	s.stats.InvalidateForDocument(ctx, doc)
}

func normalizeAction(action string) string {
	action = strings.ToLower(strings.TrimSpace(action))
	action = strings.ReplaceAll(action, "_", "-")
	switch action {
	case "markread", "read":
		return ActionMarkRead
	case "startanalysis", "analyze":
		return ActionStartAnalysis
	}
	return action
}
