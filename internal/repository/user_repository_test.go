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

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "login", "email", "password_hash", "full_name", "sector", "role", "active",
		"last_login", "created_at", "updated_at",
	}).AddRow(int64(11), "ana", "ana@example.org", "hash", "Ana Souza", "LEGAL-1", "ANALYST", true,
		nil, now, now)
}

func TestUserRepositoryFindByLogin(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE login = $1`)).
		WithArgs("ana").
		WillReturnRows(userRows())

	user, err := repo.FindByLogin(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(11), user.ID)
	assert.Equal(t, models.RoleAnalyst, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySearchRecipientsBySector(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`btrim\(regexp_replace\(upper\(translate\(sector`).
		WithArgs("%ana%", sqlmock.AnyArg()).
		WillReturnRows(userRows())

	users, err := repo.SearchRecipients(context.Background(), models.RecipientFilter{
		Search: "ana",
		Sector: "juridico",
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ana", users[0].Login)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySearchRecipientsEmptyResult(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE active = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}))

	users, err := repo.SearchRecipients(context.Background(), models.RecipientFilter{})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateLastLogin(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(`UPDATE users SET last_login`).
		WithArgs(ts, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), 11, ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newDocumentMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := int64(11)
	resourceID := "d1"
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionForward,
		Resource:   "document",
		ResourceID: &resourceID,
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
