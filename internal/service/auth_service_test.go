package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

type fakeAuthRepo struct {
	user       *models.User
	findErr    error
	lastLogins []int64
	audits     []*models.AuditLog
}

func (f *fakeAuthRepo) FindByLogin(context.Context, string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.user, nil
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, id int64, _ time.Time) error {
	f.lastLogins = append(f.lastLogins, id)
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, log)
	return nil
}

func authTestConfig() AuthConfig {
	return AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "inbox-api"}
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           11,
		Login:        "ana",
		PasswordHash: string(hash),
		FullName:     "Ana Souza",
		Sector:       strPtr("juridico"),
		Role:         models.RoleAnalyst,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Login: "ana", Password: "s3cret"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(11), resp.User.ID)
	// Sector lands in canonical form.
	assert.Equal(t, models.SectorLegal1, resp.User.Sector)
	assert.Equal(t, []int64{11}, repo.lastLogins)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Login: "ana", Password: "wrong"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Empty(t, repo.lastLogins)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := &fakeAuthRepo{findErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Login: "ghost", Password: "whatever"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "s3cret")
	user.Active = false
	repo := &fakeAuthRepo{user: user}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Login: "ana", Password: "s3cret"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	svc := NewAuthService(&fakeAuthRepo{}, nil, nil, authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, authTestConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Login: "ana", Password: "s3cret"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(11), claims.UserID)
	assert.Equal(t, "ana", claims.Login)
	assert.Equal(t, models.SectorLegal1, claims.Sector)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := &fakeAuthRepo{user: activeUser(t, "s3cret")}
	issuer := NewAuthService(repo, nil, nil, authTestConfig())
	verifier := NewAuthService(repo, nil, nil, AuthConfig{Secret: "other-secret", Expiry: time.Hour})

	resp, err := issuer.Login(context.Background(), dto.LoginRequest{Login: "ana", Password: "s3cret"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(resp.AccessToken)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
