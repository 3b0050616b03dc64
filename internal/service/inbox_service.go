package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

type inboxDocumentStore interface {
	List(ctx context.Context, qctx models.QueueContext) ([]models.Document, int, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	DistinctSectors(ctx context.Context) ([]string, error)
}

// InboxService serves queue listings. On the primary path it queries storage
// and refreshes the last known good snapshot; when storage fails it serves
// the snapshot instead, filtered in memory and marked Stale. A monotonic
// per-context sequence ensures a slow refresh that finishes after a newer one
// cannot roll the snapshot back.
type InboxService struct {
	repo      inboxDocumentStore
	snapshots *SnapshotStore
	logger    *zap.Logger
	now       func() time.Time

	seq sync.Map // context key -> *refreshSeq
}

type refreshSeq struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// NewInboxService constructs the service. Snapshots may be shared with the
// statistics service so both degraded paths read the same data.
func NewInboxService(repo inboxDocumentStore, snapshots *SnapshotStore, logger *zap.Logger) *InboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snapshots == nil {
		snapshots = NewSnapshotStore()
	}
	return &InboxService{
		repo:      repo,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the documents for a queue context. Total counts matched rows,
// not just the returned page.
func (s *InboxService) List(ctx context.Context, qctx models.QueueContext) (dto.ListDocumentsResult, int, error) {
	key := qctx.ContextKey()
	ticket := s.issueTicket(key)
	now := s.now()

	docs, total, err := s.repo.List(ctx, qctx)
	if err != nil {
		s.logger.Warn("document listing failed, serving last known good snapshot",
			zap.String("context", key), zap.Error(err))
		return s.listDegraded(qctx, now, err)
	}

	s.applySnapshot(key, ticket, docs, now)

	views := make([]dto.DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, dto.NewDocumentView(doc, now))
	}
	return dto.ListDocumentsResult{Documents: views, Stale: false}, total, nil
}

func (s *InboxService) listDegraded(qctx models.QueueContext, now time.Time, cause error) (dto.ListDocumentsResult, int, error) {
	docs, _, ok := s.snapshots.Get(qctx.ContextKey())
	if !ok {
		return dto.ListDocumentsResult{}, 0, appErrors.Wrap(cause,
			appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			"inbox unavailable and no snapshot to fall back on")
	}

	filtered := PartitionQueue(docs, qctx)
	views := make([]dto.DocumentView, 0, len(filtered))
	for _, doc := range filtered {
		views = append(views, dto.NewDocumentView(doc, now))
	}
	return dto.ListDocumentsResult{Documents: views, Stale: true}, len(filtered), nil
}

// Get returns a single document annotated for triage.
func (s *InboxService) Get(ctx context.Context, id string) (*dto.DocumentView, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "document lookup failed")
	}
	view := dto.NewDocumentView(*doc, s.now())
	return &view, nil
}

// SectorOptions returns the selectable sector filters: the canonical taxonomy
// merged with whatever distinct sectors storage actually holds, so legacy
// spellings remain reachable. When storage is down the extras are derived
// from the last known good snapshots instead.
func (s *InboxService) SectorOptions(ctx context.Context) []dto.SectorOption {
	seen := make(map[string]struct{}, len(models.CanonicalSectors))
	options := make([]dto.SectorOption, 0, len(models.CanonicalSectors))
	for _, sector := range models.CanonicalSectors {
		seen[sector.Code] = struct{}{}
		options = append(options, dto.SectorOption{Code: sector.Code, Label: sector.Label})
	}

	stored, err := s.repo.DistinctSectors(ctx)
	if err != nil {
		s.logger.Warn("distinct sector listing failed, deriving options from snapshots", zap.Error(err))
		for _, option := range SectorOptionsFromDocuments(s.snapshots.AllDocuments()) {
			if _, ok := seen[option.Code]; ok {
				continue
			}
			seen[option.Code] = struct{}{}
			options = append(options, option)
		}
		return options
	}
	for _, raw := range stored {
		code := models.NormalizeSector(raw)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		options = append(options, dto.SectorOption{Code: code, Label: models.SectorDisplayName(code)})
	}
	return options
}

// issueTicket hands out the next refresh sequence number for a context.
func (s *InboxService) issueTicket(key string) uint64 {
	value, _ := s.seq.LoadOrStore(key, &refreshSeq{})
	seq := value.(*refreshSeq)
	seq.mu.Lock()
	defer seq.mu.Unlock()
	seq.issued++
	return seq.issued
}

// applySnapshot stores a refresh result unless a newer refresh for the same
// context already landed.
func (s *InboxService) applySnapshot(key string, ticket uint64, docs []models.Document, at time.Time) {
	value, _ := s.seq.LoadOrStore(key, &refreshSeq{})
	seq := value.(*refreshSeq)
	seq.mu.Lock()
	defer seq.mu.Unlock()
	if ticket < seq.applied {
		s.logger.Debug("stale inbox refresh discarded", zap.String("context", key))
		return
	}
	seq.applied = ticket
	s.snapshots.Put(key, docs, at)
}
