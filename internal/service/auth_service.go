package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/session"
	"github.com/mendo-app/backend/internal/utils"
)

const verifyTokenTTL = 72 * time.Hour

// RegisterInput carries the signup form fields.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	City     string `json:"city"`
	Bio      string `json:"bio"`
	Phone    string `json:"phone"`
}

// ProfileInput carries the editable profile fields. Empty strings leave the
// current value untouched except for Bio, which may be cleared explicitly.
type ProfileInput struct {
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	City      string  `json:"city"`
	Bio       *string `json:"bio"`
	Phone     string  `json:"phone"`
	AvatarURL string  `json:"avatar_url"`
}

// AuthService handles signup, login, sessions and email verification.
type AuthService struct {
	users       UserStore
	sessions    session.Store
	notifier    Notifier
	tokenSecret string
	baseURL     string
	bcryptCost  int
	log         zerolog.Logger
}

func NewAuthService(users UserStore, sessions session.Store, notifier Notifier, tokenSecret, baseURL string, bcryptCost int, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		notifier:    notifier,
		tokenSecret: tokenSecret,
		baseURL:     baseURL,
		bcryptCost:  bcryptCost,
		log:         log.With().Str("service", "auth").Logger(),
	}
}

// Register creates the account, opens a session and enqueues the welcome
// notification. Repairers start in pending_verification until they confirm
// their email address.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" {
		return model.User{}, "", fmt.Errorf("%w: username is required", model.ErrValidation)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return model.User{}, "", fmt.Errorf("%w: a valid email is required", model.ErrValidation)
	}
	if len(in.Password) < 6 {
		return model.User{}, "", fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}

	role := in.Role
	switch role {
	case "":
		role = model.RoleClient
	case model.RoleClient, model.RoleRepairer:
	default:
		return model.User{}, "", fmt.Errorf("%w: role must be client or repairer", model.ErrValidation)
	}

	status := model.StatusActive
	if role == model.RoleRepairer {
		status = model.StatusPendingVerification
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		City:         strings.TrimSpace(in.City),
		Bio:          strings.TrimSpace(in.Bio),
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, "", err
	}

	verifyURL := ""
	if tok, err := utils.NewVerifyToken(s.tokenSecret, u.ID, verifyTokenTTL); err != nil {
		s.log.Error().Err(err).Uint64("user_id", u.ID).Msg("issue verify token")
	} else {
		verifyURL = s.baseURL + "/api/auth/verify?token=" + tok
	}
	s.notifier.Welcome(ctx, u, verifyURL)

	token, err := s.sessions.Create(ctx, u.ID, u.Role)
	if err != nil {
		return model.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return u, token, nil
}

// Login checks credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, "", model.ErrInvalidCredentials
		}
		return model.User{}, "", err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, "", model.ErrInvalidCredentials
	}
	if u.Status == model.StatusSuspended {
		return model.User{}, "", model.ErrAccountSuspended
	}
	token, err := s.sessions.Create(ctx, u.ID, u.Role)
	if err != nil {
		return model.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return u, token, nil
}

// Logout discards the session token. A missing token is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}

// CurrentUser loads the account behind a session.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint64) (model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies the editable fields. A role change is propagated to
// the live session so middleware sees it immediately.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, sessionToken string, in ProfileInput) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	roleChanged := false
	if in.Username = strings.TrimSpace(in.Username); in.Username != "" && in.Username != u.Username {
		if other, err := s.users.GetByUsername(ctx, in.Username); err == nil && other.ID != u.ID {
			return model.User{}, model.ErrUsernameTaken
		} else if err != nil && !errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, err
		}
		u.Username = in.Username
	}
	if in.Role != "" && in.Role != u.Role {
		if u.Role == model.RoleAdmin {
			return model.User{}, fmt.Errorf("%w: admin role cannot be changed here", model.ErrValidation)
		}
		if in.Role != model.RoleClient && in.Role != model.RoleRepairer {
			return model.User{}, fmt.Errorf("%w: role must be client or repairer", model.ErrValidation)
		}
		u.Role = in.Role
		roleChanged = true
	}
	if v := strings.TrimSpace(in.City); v != "" {
		u.City = v
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		u.Phone = v
	}
	if v := strings.TrimSpace(in.AvatarURL); v != "" {
		u.AvatarURL = v
	}

	if err := s.users.UpdateProfile(ctx, &u); err != nil {
		return model.User{}, err
	}
	if roleChanged && sessionToken != "" {
		if err := s.sessions.SetRole(ctx, sessionToken, u.Role); err != nil {
			s.log.Warn().Err(err).Uint64("user_id", u.ID).Msg("refresh session role")
		}
	}
	return u, nil
}

// VerifyEmail redeems a verification token. Pending repairers become active.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (model.User, error) {
	userID, err := utils.ParseVerifyToken(s.tokenSecret, rawToken)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: invalid or expired verification link", model.ErrValidation)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	if u.VerifiedAt != nil {
		return u, nil
	}
	now := time.Now().UTC()
	if err := s.users.MarkVerified(ctx, u.ID, now); err != nil {
		return model.User{}, err
	}
	u.VerifiedAt = &now
	if u.Status == model.StatusPendingVerification {
		if err := s.users.UpdateStatus(ctx, u.ID, model.StatusActive); err != nil {
			return model.User{}, err
		}
		u.Status = model.StatusActive
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("email verified")
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet.
// Called once at startup; a no-op when the email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	u := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if err := s.users.MarkVerified(ctx, u.ID, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}
