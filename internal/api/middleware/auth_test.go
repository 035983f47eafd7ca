package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/userhub/accounts-service/internal/core/domain"
	"github.com/userhub/accounts-service/internal/core/ports"
	"github.com/userhub/accounts-service/internal/core/service"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, id string, _ ports.UserPatch) (*domain.User, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

type memDenylist struct {
	revoked map[string]struct{}
}

func (d *memDenylist) Add(_ context.Context, tokenID string, _ time.Duration) error {
	d.revoked[tokenID] = struct{}{}
	return nil
}

func (d *memDenylist) Contains(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.revoked[tokenID]
	return ok, nil
}

func newAuthFixture() (echo.MiddlewareFunc, *service.TokenService, *stubUserRepo) {
	repo := &stubUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Name: "alice", Email: "alice@example.com"},
	}}
	tokens := service.NewTokenService(service.TokenConfig{
		Secrets:        map[int]string{1: "secret"},
		CurrentVersion: 1,
		TTL:            time.Hour,
	}, &memDenylist{revoked: make(map[string]struct{})})
	return Auth(tokens, repo), tokens, repo
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, authorization string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := mw(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestAuth_ValidToken(t *testing.T) {
	mw, tokens, _ := newAuthFixture()
	signed, err := tokens.Issue(&domain.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	called := false
	rec := runAuth(t, mw, "Bearer "+signed, func(c echo.Context) error {
		called = true
		if c.Get(ContextKeyUserID) != "user-1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(ContextKeyToken) != signed {
			t.Fatalf("token not set")
		}
		user, ok := c.Get(ContextKeyUser).(*domain.User)
		if !ok || user.Email != "alice@example.com" {
			t.Fatalf("user not set: %+v", c.Get(ContextKeyUser))
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	mw, _, _ := newAuthFixture()
	rec := runAuth(t, mw, "", failNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	mw, _, _ := newAuthFixture()
	rec := runAuth(t, mw, "Token abc", failNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	mw, _, _ := newAuthFixture()
	rec := runAuth(t, mw, "Bearer not-a-token", failNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_DeletedUser(t *testing.T) {
	mw, tokens, repo := newAuthFixture()
	signed, err := tokens.Issue(&domain.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := repo.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	rec := runAuth(t, mw, "Bearer "+signed, failNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rec.Code)
	}
}

func TestAuth_RevokedToken(t *testing.T) {
	mw, tokens, _ := newAuthFixture()
	signed, err := tokens.Issue(&domain.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := tokens.Revoke(context.Background(), signed); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	rec := runAuth(t, mw, "Bearer "+signed, failNext(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", rec.Code)
	}
}

func failNext(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	}
}
