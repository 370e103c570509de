package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
	"github.com/lucivanservicos/ops-gestao/internal/storage/badger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	manager, err := badger.NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return NewService(manager.UserStorage(), &common.AuthConfig{
		JWTSecret:          "test-secret",
		TokenExpiryMinutes: 30,
	}, common.GetLogger())
}

func TestRegister_FirstUserBecomesApprovedAdmin(t *testing.T) {
	svc := newTestService(t)

	session, err := svc.Register(context.Background(), "lucivan", "senha123")
	require.NoError(t, err)

	assert.Equal(t, models.RoleAdmin, session.Role)
	assert.Equal(t, models.UserStatusApproved, session.Status)
	assert.Equal(t, "bearer", session.TokenType)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.UserID)
}

func TestRegister_LaterUsersStartPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)

	session, err := svc.Register(ctx, "tecnico", "senha123")
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, session.Role)
	assert.Equal(t, models.UserStatusPending, session.Status)
	// Pending users still get a token so the frontend can show the waiting screen.
	assert.NotEmpty(t, session.AccessToken)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "lucivan", "senha123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "lucivan", "outra")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "admin", "senha123")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)

	_, err = svc.Login(ctx, "admin", "errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ninguem", "senha123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_PendingAndRejectedRefused(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)
	pending, err := svc.Register(ctx, "tecnico", "senha123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "tecnico", "senha123")
	assert.ErrorIs(t, err, ErrAccountPending)

	require.NoError(t, svc.ApproveUser(ctx, pending.UserID, models.UserStatusRejected, "admin"))

	_, err = svc.Login(ctx, "tecnico", "senha123")
	assert.ErrorIs(t, err, ErrAccountRejected)
}

func TestUserFromToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)

	user, err := svc.UserFromToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = svc.UserFromToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUserFromToken_PendingUserRefused(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)
	session, err := svc.Register(ctx, "tecnico", "senha123")
	require.NoError(t, err)

	_, err = svc.UserFromToken(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrAccountNotApproved)
}

func TestApproveUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)
	session, err := svc.Register(ctx, "tecnico", "senha123")
	require.NoError(t, err)

	err = svc.ApproveUser(ctx, session.UserID, "MAYBE", "admin")
	assert.ErrorIs(t, err, ErrInvalidApprovalStatus)

	require.NoError(t, svc.ApproveUser(ctx, session.UserID, models.UserStatusApproved, "admin"))

	pending, err := svc.PendingUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	user, err := svc.UserFromToken(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.ApprovedBy)
	require.NotNil(t, user.ApprovedAt)
}

func TestDeleteUser_SelfGuard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	adminSession, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)
	admin, err := svc.UserFromToken(ctx, adminSession.AccessToken)
	require.NoError(t, err)

	otherSession, err := svc.Register(ctx, "tecnico", "senha123")
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, admin.ID, admin)
	assert.ErrorIs(t, err, ErrCannotDeleteSelf)

	require.NoError(t, svc.DeleteUser(ctx, otherSession.UserID, admin))

	all, err := svc.AllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestResetPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, session.UserID, "abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	err = svc.ResetPassword(ctx, "missing-id", "novasenha")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, svc.ResetPassword(ctx, session.UserID, "novasenha"))

	_, err = svc.Login(ctx, "admin", "senha123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "admin", "novasenha")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "admin", "senha123")
	require.NoError(t, err)
	user, err := svc.UserFromToken(ctx, session.AccessToken)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user, "errada", "novasenha")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(ctx, user, "senha123", "abc")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	require.NoError(t, svc.ChangePassword(ctx, user, "senha123", "novasenha"))

	_, err = svc.Login(ctx, "admin", "novasenha")
	assert.NoError(t, err)
}
