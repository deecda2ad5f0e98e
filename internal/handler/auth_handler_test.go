package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisupport-api/internal/models"
	appErrors "github.com/noah-isme/unisupport-api/pkg/errors"
)

type fakeAuthSrv struct {
	registerErr error
	loginErr    error
	lastLogin   models.LoginRequest
	lastLogout  struct {
		token  string
		userID string
	}
}

func (f *fakeAuthSrv) Register(_ context.Context, req models.RegisterRequest, _, _ string) (*models.UserInfo, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.UserInfo{ID: "user-1", Username: req.Username, Email: req.Email, Role: models.RoleStudent}, nil
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAuthSrv) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (f *fakeAuthSrv) Logout(_ context.Context, token, userID, _, _ string) error {
	f.lastLogout.token = token
	f.lastLogout.userID = userID
	return nil
}

func (f *fakeAuthSrv) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Username: "alice"}, nil
}

func TestAuthHandlerRegisterCreated(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})

	handler.Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "alice", decode(rec).Data["username"])
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{registerErr: appErrors.Clone(appErrors.ErrConflict, "username already taken")})
	c, rec := newTestContext(http.MethodPost, "/auth/register", map[string]string{"username": "alice"})

	handler.Register(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decode(rec).Error["code"])
}

func TestAuthHandlerLoginRejectsMalformedBody(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodPost, "/auth/login", nil)

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginPassesClientMetadata(t *testing.T) {
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "password123"})

	handler.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "handler-test", srv.lastLogin.UserAgent)
	assert.NotEmpty(t, srv.lastLogin.IP)
	assert.Equal(t, "access", decode(rec).Data["access_token"])
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials})
	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "nope"})

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerRefresh(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "refresh"})

	handler.Refresh(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-2", decode(rec).Data["refresh_token"])
}

func TestAuthHandlerLogoutRequiresClaims(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "refresh"})

	handler.Logout(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "refresh"})
	withStudent(c)

	handler.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "refresh", srv.lastLogout.token)
	assert.Equal(t, "user-1", srv.lastLogout.userID)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodGet, "/auth/me", nil)
	withStudent(c)

	handler.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", decode(rec).Data["id"])
}
