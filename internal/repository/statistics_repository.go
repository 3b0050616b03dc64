package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tramita/inbox-api/internal/models"
)

// StatisticsRepository computes authoritative inbox statistics in SQL.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository constructs the repository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

type statisticsRow struct {
	Total   int `db:"total"`
	Unread  int `db:"unread"`
	Urgent  int `db:"urgent"`
	Overdue int `db:"overdue"`
}

type breakdownRow struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// Aggregate computes the snapshot for a queue context. The same `now` is used
// for every overdue comparison in the pass.
func (r *StatisticsRepository) Aggregate(ctx context.Context, qctx models.QueueContext, now time.Time) (models.StatisticsSnapshot, error) {
	where, args := buildQueuePredicate(qctx)
	whereClause := strings.Join(where, " AND ")

	args = append(args, now)
	nowArg := len(args)

	query := fmt.Sprintf(`SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status = 'UNREAD') AS unread,
	COUNT(*) FILTER (WHERE priority = 'URGENT'
		OR (due_at IS NOT NULL AND due_at < $%d AND status <> 'ARCHIVED')) AS urgent,
	COUNT(*) FILTER (WHERE due_at IS NOT NULL AND due_at < $%d AND status <> 'ARCHIVED') AS overdue
FROM documents WHERE %s`, nowArg, nowArg, whereClause)

	var row statisticsRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("aggregate statistics: %w", err)
	}

	snapshot := models.StatisticsSnapshot{
		Total:   row.Total,
		Unread:  row.Unread,
		Urgent:  row.Urgent,
		Overdue: row.Overdue,
	}

	whereBase, argsBase := buildQueuePredicate(qctx)
	baseClause := strings.Join(whereBase, " AND ")

	sectorQuery := fmt.Sprintf(`SELECT destination_sector AS key, COUNT(*) AS count
FROM documents WHERE %s AND destination_sector IS NOT NULL AND destination_sector <> ''
GROUP BY destination_sector`, baseClause)
	var sectorRows []breakdownRow
	if err := r.db.SelectContext(ctx, &sectorRows, sectorQuery, argsBase...); err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("aggregate by sector: %w", err)
	}
	snapshot.BySector = models.MergeBuckets(toBuckets(sectorRows, true), models.NormalizeSector)

	typeQuery := fmt.Sprintf(`SELECT document_type AS key, COUNT(*) AS count
FROM documents WHERE %s GROUP BY document_type`, baseClause)
	var typeRows []breakdownRow
	if err := r.db.SelectContext(ctx, &typeRows, typeQuery, argsBase...); err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("aggregate by type: %w", err)
	}
	snapshot.ByType = models.MergeBuckets(toBuckets(typeRows, false), nil)

	return snapshot, nil
}

func toBuckets(rows []breakdownRow, sector bool) []models.CountBucket {
	buckets := make([]models.CountBucket, 0, len(rows))
	for _, row := range rows {
		bucket := models.CountBucket{Key: row.Key, Count: row.Count}
		if sector {
			bucket.Key = models.NormalizeSector(row.Key)
			bucket.Label = models.SectorDisplayName(row.Key)
		} else {
			bucket.Label = row.Key
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}
