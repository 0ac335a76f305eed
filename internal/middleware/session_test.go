package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mendo-app/backend/internal/model"
	"github.com/mendo-app/backend/internal/session"
)

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(okHandler)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestSessionAuthMissingCookie(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	rec := doRequest(t, SessionAuth(store), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestSessionAuthUnknownToken(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	rec := doRequest(t, SessionAuth(store), &http.Cookie{Name: CookieName, Value: "bogus"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestSessionAuthPopulatesContext(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(context.Background(), 42, model.RoleClient)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := SessionAuth(store)(func(c echo.Context) error {
		if got := c.Get(CtxUserID).(uint64); got != 42 {
			t.Errorf("user_id = %d, want 42", got)
		}
		if got := c.Get(CtxRole).(string); got != model.RoleClient {
			t.Errorf("role = %q", got)
		}
		if got := c.Get(CtxSessionToken).(string); got != token {
			t.Errorf("token not propagated")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    int
	}{
		{model.RoleAdmin, []string{model.RoleAdmin}, http.StatusOK},
		{model.RoleClient, []string{model.RoleAdmin}, http.StatusForbidden},
		{model.RoleRepairer, []string{model.RoleRepairer, model.RoleAdmin}, http.StatusOK},
		{"", []string{model.RoleAdmin}, http.StatusForbidden},
	}
	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if tc.role != "" {
			c.Set(CtxRole, tc.role)
		}
		if err := RequireRole(tc.allowed...)(okHandler)(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		if rec.Code != tc.want {
			t.Errorf("role %q vs %v: want %d, got %d", tc.role, tc.allowed, tc.want, rec.Code)
		}
	}
}
