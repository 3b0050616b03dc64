package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramita/inbox-api/internal/models"
)

func TestStatisticsRepositoryAggregate(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE status = 'UNREAD') AS unread`)).
		WithArgs(int64(7), now).
		WillReturnRows(sqlmock.NewRows([]string{"total", "unread", "urgent", "overdue"}).
			AddRow(12, 4, 2, 1))
	mock.ExpectQuery(`GROUP BY destination_sector`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).
			AddRow("juridico", 5).
			AddRow("LEGAL-1", 3).
			AddRow("financeiro", 4))
	mock.ExpectQuery(`GROUP BY document_type`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).
			AddRow("COMPLAINT", 8).
			AddRow("FINE", 4))

	snapshot, err := repo.Aggregate(context.Background(),
		models.QueueContext{Queue: models.QueuePersonal, UserID: 7}, now)
	require.NoError(t, err)

	assert.Equal(t, 12, snapshot.Total)
	assert.Equal(t, 4, snapshot.Unread)
	assert.Equal(t, 2, snapshot.Urgent)
	assert.Equal(t, 1, snapshot.Overdue)

	// Legacy spellings collapse onto one canonical bucket.
	require.Len(t, snapshot.BySector, 2)
	assert.Equal(t, models.SectorLegal1, snapshot.BySector[0].Key)
	assert.Equal(t, 8, snapshot.BySector[0].Count)
	assert.Equal(t, models.SectorFinance, snapshot.BySector[1].Key)

	require.Len(t, snapshot.ByType, 2)
	assert.Equal(t, "COMPLAINT", snapshot.ByType[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepositoryAggregateQueryError(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	mock.ExpectQuery(`FROM documents`).
		WillReturnError(assert.AnError)

	_, err := repo.Aggregate(context.Background(),
		models.QueueContext{Queue: models.QueuePersonal, UserID: 7}, time.Now())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
