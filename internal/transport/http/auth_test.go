package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users      map[string]string
	validToken string
	loggedOut  []string
}

func (f *fakeAuth) Signup(_ context.Context, username, password, _ string) (*domain.AuthResult, error) {
	if len(password) > 72 {
		return nil, domain.ErrPasswordTooLong
	}
	if _, ok := f.users[username]; ok {
		return nil, domain.ErrUsernameTaken
	}
	f.users[username] = password
	return &domain.AuthResult{Token: "tok-" + username, UserID: int64(len(f.users))}, nil
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*domain.AuthResult, error) {
	if pw, ok := f.users[username]; !ok || pw != password {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.AuthResult{Token: "tok-" + username, UserID: 1}, nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	if token != f.validToken {
		return domain.ErrInvalidToken
	}
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) Validate(_ context.Context, token string) (domain.Resolution, error) {
	if token != f.validToken {
		return domain.Resolution{}, domain.ErrInvalidToken
	}
	return domain.Resolution{UserID: 1, Source: domain.SourceCache}, nil
}

func (f *fakeAuth) ListUsers(context.Context) ([]domain.User, error) {
	return []domain.User{{ID: 1, Username: "alice", PasswordHash: "secret-hash"}}, nil
}

func newAuthTestRouter() (*gin.Engine, *fakeAuth) {
	svc := &fakeAuth{users: map[string]string{"alice": "pw"}, validToken: "good"}
	h := NewAuthHandler(svc, logging.Discard())
	cfg := RouterConfig{ServiceName: "auth-service", Log: logging.Discard()}
	return NewAuthRouter(cfg, h, svc.Validate), svc
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRoutes_SignupAndLogin(t *testing.T) {
	r, _ := newAuthTestRouter()

	w := do(r, http.MethodPost, "/api/auth/signup", `{"username":"bob","password":"pw","email":"bob@example.com"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"tok-bob","userId":2}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth/signup", `{"username":"bob","password":"pw"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/auth/signup", `{"username":"","password":"pw"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/auth/signup", `{"username":"carl","password":"pw","email":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	longPassword := strings.Repeat("a", 80)
	w = do(r, http.MethodPost, "/api/auth/signup", `{"username":"carl","password":"`+longPassword+`"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "72 bytes")

	w = do(r, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"bad"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", `{bad json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRoutes_Logout(t *testing.T) {
	r, svc := newAuthTestRouter()

	w := do(r, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"No token provided"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth/logout", "", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth/logout", "", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"good"}, svc.loggedOut)
}

func TestAuthRoutes_Validate(t *testing.T) {
	r, _ := newAuthTestRouter()

	w := do(r, http.MethodGet, "/api/auth/validate", "", map[string]string{"Authorization": "Bearer good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"userId":1}`, w.Body.String())

	for _, h := range []map[string]string{nil, {"Authorization": "Bearer bad"}, {"Authorization": "good"}} {
		w = do(r, http.MethodGet, "/api/auth/validate", "", h)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":false}`, w.Body.String())
	}
}

func TestAuthRoutes_ListUsers(t *testing.T) {
	r, _ := newAuthTestRouter()

	w := do(r, http.MethodGet, "/api/auth/users", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/auth/users", "", map[string]string{"Authorization": "Bearer good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")

	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0]["username"])
}

func TestHealth(t *testing.T) {
	r, _ := newAuthTestRouter()
	w := do(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"auth-service"}`, w.Body.String())
}

