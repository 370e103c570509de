package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucivanservicos/ops-gestao/internal/common"
	"github.com/lucivanservicos/ops-gestao/internal/interfaces"
	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// minPasswordLength matches the original deployment's policy.
const minPasswordLength = 4

var (
	// ErrUsernameTaken rejects registration of an existing username.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrInvalidCredentials covers unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrAccountPending blocks login until an admin approves the account.
	ErrAccountPending = errors.New("account pending admin approval")
	// ErrAccountRejected blocks login for rejected accounts.
	ErrAccountRejected = errors.New("account access denied")
	// ErrAccountNotApproved blocks token access for non-approved accounts.
	ErrAccountNotApproved = errors.New("user account not approved")
	// ErrPasswordTooShort enforces the minimum password length.
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	// ErrWrongPassword rejects a password change with a bad current password.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrCannotDeleteSelf prevents an admin from deleting their own account.
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	// ErrInvalidApprovalStatus rejects approval states other than APPROVED/REJECTED.
	ErrInvalidApprovalStatus = errors.New("status must be APPROVED or REJECTED")
)

// Service manages accounts, the admin approval workflow and session tokens.
type Service struct {
	users              interfaces.UserStorage
	jwtSecret          string
	tokenExpiryMinutes int
	logger             arbor.ILogger
}

// NewService creates a new auth service
func NewService(users interfaces.UserStorage, config *common.AuthConfig, logger arbor.ILogger) *Service {
	return &Service{
		users:              users,
		jwtSecret:          config.JWTSecret,
		tokenExpiryMinutes: config.TokenExpiryMinutes,
		logger:             logger,
	}
}

// Session is the result of a successful register or login.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// Register creates a new account. The first account ever registered becomes
// an approved admin so the system can be bootstrapped; everyone else starts
// PENDING and must be approved. Pending users still receive a token so the
// frontend can show them the waiting screen.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:             common.NewID(),
		Username:       username,
		HashedPassword: string(hashed),
		Role:           models.RoleUser,
		Status:         models.UserStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if count == 0 {
		user.Role = models.RoleAdmin
		user.Status = models.UserStatusApproved
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("username", username).
		Str("role", user.Role).
		Str("status", user.Status).
		Msg("User registered")

	return s.newSession(user)
}

// Login authenticates a username/password pair. Pending and rejected
// accounts are refused even with correct credentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case models.UserStatusPending:
		return nil, ErrAccountPending
	case models.UserStatusRejected:
		return nil, ErrAccountRejected
	}

	return s.newSession(user)
}

func (s *Service) newSession(user *models.User) (*Session, error) {
	token, err := s.CreateAccessToken(user.Username)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Status:      user.Status,
	}, nil
}

// UserFromToken resolves a bearer token to an approved user. Used by the
// auth middleware on every authenticated request.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	username, err := s.parseSubject(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if user.Status != models.UserStatusApproved {
		return nil, ErrAccountNotApproved
	}

	return user, nil
}

// PendingUsers lists accounts awaiting approval, oldest first.
func (s *Service) PendingUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsersByStatus(ctx, models.UserStatusPending)
}

// AllUsers lists every account.
func (s *Service) AllUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// ApproveUser sets a pending account to APPROVED or REJECTED and records who
// decided and when.
func (s *Service) ApproveUser(ctx context.Context, userID, status, approvedBy string) error {
	if status != models.UserStatusApproved && status != models.UserStatusRejected {
		return ErrInvalidApprovalStatus
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user.Status = status
	user.ApprovedBy = approvedBy
	user.ApprovedAt = &now

	if err := s.users.SaveUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info().
		Str("username", user.Username).
		Str("status", status).
		Str("approved_by", approvedBy).
		Msg("User approval updated")

	return nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, userID string, requester *models.User) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.Username == requester.Username {
		return ErrCannotDeleteSelf
	}

	return s.users.DeleteUser(ctx, userID)
}

// ResetPassword sets a new password on any account (admin operation).
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.HashedPassword = string(hashed)
	return s.users.SaveUser(ctx, user)
}

// ChangePassword updates the caller's own password after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(currentPassword)) != nil {
		return ErrWrongPassword
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.HashedPassword = string(hashed)
	return s.users.SaveUser(ctx, user)
}
