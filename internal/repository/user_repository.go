package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tramita/inbox-api/internal/models"
)

const userColumns = `id, login, email, password_hash, full_name, sector, role, active, last_login, created_at, updated_at`

// UserRepository provides persistence for users and audit logs.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByLogin returns a user by login name.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE login = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, login); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps the most recent successful authentication.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_login = $1, updated_at = $1 WHERE id = $2", ts, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SearchRecipients finds active users by free-text name/login match,
// optionally restricted to one sector. An empty result is a normal outcome.
func (r *UserRepository) SearchRecipients(ctx context.Context, filter models.RecipientFilter) ([]models.User, error) {
	where := []string{"active = TRUE"}
	args := []interface{}{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR login ILIKE $%d)", n, n))
	}
	if filter.Sector != "" {
		canonical := models.NormalizeSector(filter.Sector)
		args = append(args, pq.Array(models.SectorAliasSpellings(canonical)))
		where = append(where, fmt.Sprintf("%s = ANY($%d)", userSectorMatchExpr, len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY full_name LIMIT %d",
		userColumns, strings.Join(where, " AND "), limit)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("search recipients: %w", err)
	}
	return users, nil
}

// userSectorMatchExpr mirrors sectorMatchExpr for the users table.
const userSectorMatchExpr = `btrim(regexp_replace(upper(translate(sector,
	'áàâãäçéèêëíìîïóòôõöúùûüÁÀÂÃÄÇÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÛÜ- ',
	'aaaaaceeeeiiiiooooouuuuAAAAACEEEEIIIIOOOOOUUUU__')), '_+', '_', 'g'), '_')`

// CreateAuditLog records a triage mutation.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
VALUES (:id, :user_id, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
