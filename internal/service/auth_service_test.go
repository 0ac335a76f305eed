package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/session"
	"github.com/mendo-app/backend/internal/utils"
)

func mustVerifyToken(t *testing.T, secret string, userID uint64) string {
	t.Helper()
	tok, err := utils.NewVerifyToken(secret, userID, time.Hour)
	if err != nil {
		t.Fatalf("issue verify token: %v", err)
	}
	return tok
}

const testBcryptCost = 4 // bcrypt minimum, keeps the suite fast

func newAuthService(t *testing.T) (*AuthService, *memStore, *stubNotifier, session.Store) {
	t.Helper()
	mem := newMemStore()
	notif := &stubNotifier{}
	sessions := session.NewMemoryStore(time.Hour)
	svc := NewAuthService(mem, sessions, notif, "test-secret", "http://localhost:8080", testBcryptCost, zerolog.Nop())
	return svc, mem, notif, sessions
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	svc, mem, notif, _ := newAuthService(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{
		Username: "marie", Email: "Marie@Example.com", Password: "s3cret99",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if u.Email != "marie@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	stored := mem.users[u.ID]
	if stored.PasswordHash == "s3cret99" || stored.PasswordHash == "" {
		t.Fatalf("password stored in the clear: %q", stored.PasswordHash)
	}
	if u.Role != model.RoleClient || u.Status != model.StatusActive {
		t.Fatalf("default client should be active, got role=%q status=%q", u.Role, u.Status)
	}
	if len(notif.welcomes) != 1 || notif.welcomes[0] != "marie@example.com" {
		t.Fatalf("welcome notification not sent: %v", notif.welcomes)
	}
}

func TestRegisterRepairerPendingVerification(t *testing.T) {
	svc, _, _, _ := newAuthService(t)

	u, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "s3cret99", Role: model.RoleRepairer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Status != model.StatusPendingVerification {
		t.Fatalf("repairer should start pending_verification, got %q", u.Status)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "a@b.co", Password: "s3cret99"},                                     // no username
		{Username: "x", Password: "s3cret99"},                                       // no email
		{Username: "x", Email: "not-an-email", Password: "s3cret99"},                // bad email
		{Username: "x", Email: "a@b.co", Password: "short"},                         // short password
		{Username: "x", Email: "a@b.co", Password: "s3cret99", Role: model.RoleAdmin}, // admin not self-assignable
	}
	for i, in := range cases {
		if _, _, err := svc.Register(ctx, in); !errors.Is(err, model.ErrValidation) {
			t.Errorf("case %d: want ErrValidation, got %v", i, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{Username: "a", Email: "dup@example.com", Password: "s3cret99"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(ctx, RegisterInput{Username: "b", Email: "dup@example.com", Password: "s3cret99"})
	if !errors.Is(err, model.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _, sessions := newAuthService(t)
	ctx := context.Background()

	reg, _, err := svc.Register(ctx, RegisterInput{Username: "marie", Email: "marie@example.com", Password: "s3cret99"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, token, err := svc.Login(ctx, "MARIE@example.com", "s3cret99")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != reg.ID {
		t.Fatalf("wrong user: %d != %d", u.ID, reg.ID)
	}
	sess, err := sessions.Get(ctx, token)
	if err != nil || sess.UserID != reg.ID {
		t.Fatalf("session not resolvable: %v %+v", err, sess)
	}

	if _, _, err := svc.Login(ctx, "marie@example.com", "wrong-pass"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@example.com", "s3cret99"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginSuspended(t *testing.T) {
	svc, mem, _, _ := newAuthService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Username: "marie", Email: "marie@example.com", Password: "s3cret99"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := mem.UpdateStatus(ctx, u.ID, model.StatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, _, err := svc.Login(ctx, "marie@example.com", "s3cret99"); !errors.Is(err, model.ErrAccountSuspended) {
		t.Fatalf("want ErrAccountSuspended, got %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _, _, sessions := newAuthService(t)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, RegisterInput{Username: "marie", Email: "marie@example.com", Password: "s3cret99"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := sessions.Get(ctx, token); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
	// Logging out twice is harmless.
	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestUpdateProfileRoleChangeRefreshesSession(t *testing.T) {
	svc, _, _, sessions := newAuthService(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, RegisterInput{Username: "marie", Email: "marie@example.com", Password: "s3cret99"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, u.ID, token, ProfileInput{Role: model.RoleRepairer, City: "Lyon"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Role != model.RoleRepairer || updated.City != "Lyon" {
		t.Fatalf("profile not applied: %+v", updated)
	}
	sess, err := sessions.Get(ctx, token)
	if err != nil || sess.Role != model.RoleRepairer {
		t.Fatalf("session role not refreshed: %v %+v", err, sess)
	}
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	svc, _, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{Username: "taken", Email: "a@example.com", Password: "s3cret99"}); err != nil {
		t.Fatalf("register a: %v", err)
	}
	u, token, err := svc.Register(ctx, RegisterInput{Username: "marie", Email: "b@example.com", Password: "s3cret99"})
	if err != nil {
		t.Fatalf("register b: %v", err)
	}

	if _, err := svc.UpdateProfile(ctx, u.ID, token, ProfileInput{Username: "taken"}); !errors.Is(err, model.ErrUsernameTaken) {
		t.Fatalf("want ErrUsernameTaken, got %v", err)
	}
}

func TestVerifyEmailActivatesPendingRepairer(t *testing.T) {
	svc, mem, _, _ := newAuthService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "s3cret99", Role: model.RoleRepairer})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Re-issue the same kind of token the welcome email carries.
	verified, err := svc.VerifyEmail(ctx, mustVerifyToken(t, "test-secret", u.ID))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Status != model.StatusActive || verified.VerifiedAt == nil {
		t.Fatalf("not activated: %+v", verified)
	}
	if got := mem.users[u.ID]; got.Status != model.StatusActive {
		t.Fatalf("store not updated: %+v", got)
	}

	if _, err := svc.VerifyEmail(ctx, "not-a-token"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("garbage token: want ErrValidation, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, mem, _, _ := newAuthService(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "adminpass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	u, err := mem.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if u.Role != model.RoleAdmin || u.Status != model.StatusActive || u.VerifiedAt == nil {
		t.Fatalf("bad admin: %+v", u)
	}

	// Idempotent on restart.
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "adminpass"); err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}
	if n, _ := mem.Count(ctx); n != 1 {
		t.Fatalf("admin duplicated: %d users", n)
	}
}
