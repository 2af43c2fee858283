package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ProjectHub/internal/auth"
	"ProjectHub/internal/config"
)

type staticAccountStore struct {
	accounts map[string]*auth.Account
}

func (s *staticAccountStore) FindByEmail(context.Context, string) (*auth.Account, error) {
	return nil, nil
}

func (s *staticAccountStore) FindByStudentCode(context.Context, string) (*auth.Account, error) {
	return nil, nil
}

func (s *staticAccountStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	return s.accounts[id], nil
}

func (s *staticAccountStore) Create(context.Context, *auth.Account) error      { return nil }
func (s *staticAccountStore) Update(context.Context, *auth.Account) error      { return nil }
func (s *staticAccountStore) Delete(context.Context, primitive.ObjectID) error { return nil }

func newGateFixture(t *testing.T) (*echo.Echo, *auth.TokenIssuer, *staticAccountStore) {
	t.Helper()
	issuer := auth.NewTokenIssuer(&config.TokenConfig{
		AccessSecret:  "gate-access-secret",
		RefreshSecret: "gate-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})
	store := &staticAccountStore{accounts: make(map[string]*auth.Account)}

	enforcer, err := NewEnforcer()
	require.NoError(t, err)

	e := echo.New()
	g := e.Group("/auth", RequireAuth(issuer, store), Authorize(enforcer, zap.NewNop()))
	g.GET("/me", func(c echo.Context) error {
		account := c.Get("account").(*auth.Account)
		return c.JSON(http.StatusOK, echo.Map{"email": account.Email})
	})
	g.DELETE("/accounts/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("id")})
	})
	return e, issuer, store
}

func seedAccount(store *staticAccountStore, role auth.Role) *auth.Account {
	account := &auth.Account{
		ID:            primitive.NewObjectID(),
		StudentCode:   "SE150001",
		Name:          "Alice Nguyen",
		Email:         "a@x.com",
		Role:          role,
		EmailVerified: true,
	}
	store.accounts[account.ID.Hex()] = account
	return account
}

func get(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGateMissingToken(t *testing.T) {
	e, _, _ := newGateFixture(t)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/auth/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/auth/me", "Basic abc123").Code)
}

func TestGateInvalidToken(t *testing.T) {
	e, _, _ := newGateFixture(t)
	assert.Equal(t, http.StatusForbidden, get(e, "/auth/me", "Bearer garbage").Code)
}

func TestGateExpiredToken(t *testing.T) {
	e, _, store := newGateFixture(t)
	account := seedAccount(store, auth.RoleUser)

	expiredIssuer := auth.NewTokenIssuer(&config.TokenConfig{
		AccessSecret:  "gate-access-secret",
		RefreshSecret: "gate-refresh-secret",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
	})
	token, err := expiredIssuer.IssueAccessToken(account)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(e, "/auth/me", "Bearer "+token).Code)
}

func TestGateAccountGone(t *testing.T) {
	e, issuer, store := newGateFixture(t)
	account := seedAccount(store, auth.RoleUser)
	token, err := issuer.IssueAccessToken(account)
	require.NoError(t, err)

	delete(store.accounts, account.ID.Hex())
	assert.Equal(t, http.StatusNotFound, get(e, "/auth/me", "Bearer "+token).Code)
}

func TestGateAttachesAccount(t *testing.T) {
	e, issuer, store := newGateFixture(t)
	account := seedAccount(store, auth.RoleUser)
	token, err := issuer.IssueAccessToken(account)
	require.NoError(t, err)

	rec := get(e, "/auth/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@x.com")
}

func TestAuthorizeUserCannotDeleteAccounts(t *testing.T) {
	e, issuer, store := newGateFixture(t)
	account := seedAccount(store, auth.RoleUser)
	token, err := issuer.IssueAccessToken(account)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/auth/accounts/123", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorizeAdmin(t *testing.T) {
	e, issuer, store := newGateFixture(t)
	admin := seedAccount(store, auth.RoleAdmin)
	token, err := issuer.IssueAccessToken(admin)
	require.NoError(t, err)

	// Admin inherits user routes and owns the accounts surface.
	assert.Equal(t, http.StatusOK, get(e, "/auth/me", "Bearer "+token).Code)

	req := httptest.NewRequest(http.MethodDelete, "/auth/accounts/123", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
