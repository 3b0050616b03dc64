package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tramita/inbox-api/internal/models"
)

const documentColumns = `id, protocol_number, document_type, subject, sender_name, company_name,
       entry_at, due_at, status, priority, destination_sector, direct_recipient_id,
       notified_externally, attachment_count, forward_note, created_at, updated_at`

// sectorMatchExpr folds legacy destination spellings (case, diacritics,
// hyphen/space separators) into the cleaned form used by the alias table, so
// rows written before normalization still match their canonical sector.
// Separator runs collapse to one underscore and edge underscores are trimmed,
// mirroring the in-memory cleanup.
const sectorMatchExpr = `btrim(regexp_replace(upper(translate(destination_sector,
	'áàâãäçéèêëíìîïóòôõöúùûüÁÀÂÃÄÇÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÛÜ- ',
	'aaaaaceeeeiiiiooooouuuuAAAAACEEEEIIIIOOOOOUUUU__')), '_+', '_', 'g'), '_')`

// DocumentRepository provides persistence for inbox documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// List returns the documents visible in the given queue context plus the
// total match count.
func (r *DocumentRepository) List(ctx context.Context, qctx models.QueueContext) ([]models.Document, int, error) {
	where, args := buildQueuePredicate(qctx)
	whereClause := strings.Join(where, " AND ")

	page := qctx.Page
	if page < 1 {
		page = 1
	}
	// The HTTP boundary clamps the upper bound; storage only guards zero values.
	size := qctx.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s
ORDER BY CASE priority WHEN 'URGENT' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'NORMAL' THEN 2 ELSE 3 END, entry_at DESC
LIMIT %d OFFSET %d`, documentColumns, whereClause, size, offset)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM documents WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return docs, total, nil
}

// GetByID returns a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus moves a document to the given status, guarded by the expected
// source statuses so concurrent actions cannot corrupt the lifecycle. It
// returns the number of rows actually updated.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, from []models.DocumentStatus, to models.DocumentStatus) (int64, error) {
	sources := make([]string, 0, len(from))
	for _, s := range from {
		sources = append(sources, string(s))
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`,
		to, time.Now().UTC(), id, pq.Array(sources))
	if err != nil {
		return 0, fmt.Errorf("update document status: %w", err)
	}
	return result.RowsAffected()
}

// ForwardParams groups the columns replaced by a forward transition.
type ForwardParams struct {
	ID                string
	DestinationSector string
	DirectRecipientID *int64
	Note              string
}

// UpdateRouting applies a forward in one statement: status, destination
// sector, direct recipient and note are replaced together.
func (r *DocumentRepository) UpdateRouting(ctx context.Context, params ForwardParams) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents
		 SET status = $1, destination_sector = $2, direct_recipient_id = $3, forward_note = $4, updated_at = $5
		 WHERE id = $6 AND status <> $7`,
		models.StatusForwarded, params.DestinationSector, params.DirectRecipientID,
		params.Note, time.Now().UTC(), params.ID, models.StatusArchived)
	if err != nil {
		return 0, fmt.Errorf("update document routing: %w", err)
	}
	return result.RowsAffected()
}

// DistinctSectors returns the distinct destination sectors currently present
// in storage, raw (callers canonicalize).
func (r *DocumentRepository) DistinctSectors(ctx context.Context) ([]string, error) {
	var sectors []string
	err := r.db.SelectContext(ctx, &sectors,
		`SELECT DISTINCT destination_sector FROM documents
		 WHERE destination_sector IS NOT NULL AND destination_sector <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list distinct sectors: %w", err)
	}
	return sectors, nil
}

// buildQueuePredicate translates a queue context into SQL conditions. The
// primary partition (personal vs. sector) comes first, secondary filters are
// appended as an AND-conjunction.
func buildQueuePredicate(qctx models.QueueContext) ([]string, []interface{}) {
	where := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	switch qctx.Queue {
	case models.QueuePersonal:
		args = append(args, qctx.UserID)
		where = append(where, fmt.Sprintf("direct_recipient_id = $%d", len(args)))
		// Documents already pushed through the external notification channel
		// live in a separate view, not the personal working queue.
		where = append(where, "notified_externally = FALSE")
	case models.QueueSector:
		if qctx.Sector != "" {
			canonical := models.NormalizeSector(qctx.Sector)
			args = append(args, pq.Array(models.SectorAliasSpellings(canonical)))
			where = append(where, fmt.Sprintf("%s = ANY($%d)", sectorMatchExpr, len(args)))
		} else if !qctx.EmptySectorMatchesAll {
			where = append(where, "FALSE")
		} else {
			where = append(where, "destination_sector IS NOT NULL AND destination_sector <> ''")
		}
	}

	if len(qctx.Status) > 0 {
		values := make([]string, 0, len(qctx.Status))
		for _, s := range qctx.Status {
			values = append(values, string(s))
		}
		args = append(args, pq.Array(values))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(qctx.Priority) > 0 {
		values := make([]string, 0, len(qctx.Priority))
		for _, p := range qctx.Priority {
			values = append(values, string(p))
		}
		args = append(args, pq.Array(values))
		where = append(where, fmt.Sprintf("priority = ANY($%d)", len(args)))
	}
	if len(qctx.Type) > 0 {
		values := make([]string, 0, len(qctx.Type))
		for _, t := range qctx.Type {
			values = append(values, string(t))
		}
		args = append(args, pq.Array(values))
		where = append(where, fmt.Sprintf("document_type = ANY($%d)", len(args)))
	}
	if search := strings.TrimSpace(qctx.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(subject ILIKE $%d OR protocol_number ILIKE $%d OR COALESCE(sender_name, '') ILIKE $%d OR COALESCE(company_name, '') ILIKE $%d)",
			n, n, n, n))
	}

	if len(where) == 0 {
		where = append(where, "TRUE")
	}
	return where, args
}
