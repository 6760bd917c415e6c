package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"
	"otp-auth/pkg/csrf"
	"otp-auth/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) Send(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *codeMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testApp struct {
	app    *App
	repo   *repository.Repository
	mailer *codeMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := zap.NewNop()
	config := &utils.Config{
		App: utils.AppConfig{Name: "otp-auth", CORSOrigins: []string{"http://localhost:5173"}},
		JWT: utils.JWTConfig{Secret: "wire-test-secret", ExpiryHours: 168},
		OTP: utils.OTPConfig{ExpiryMinutes: 10, Length: 6},
	}
	repo := repository.NewMemoryRepository(log)
	mail := &codeMailer{codes: map[string]string{}}
	app := Wiring(repo, mail, csrf.NewStore(csrf.DefaultTTL, log), config, log)
	return &testApp{app: app, repo: repo, mailer: mail}
}

type call struct {
	method string
	path   string
	body   any
	cookie string
	csrf   string
}

func (ta *testApp) do(t *testing.T, c call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body *bytes.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: utils.AuthCookieName, Value: c.cookie})
	}
	if c.csrf != "" {
		req.Header.Set(utils.CSRFHeaderName, c.csrf)
	}

	rec := httptest.NewRecorder()
	ta.app.Router.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (*http.Cookie, bool) {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// signIn runs send-otp and verify-otp and returns the session and CSRF tokens.
func (ta *testApp) signIn(t *testing.T, email string) (string, string) {
	t.Helper()
	rec, body := ta.do(t, call{method: http.MethodPost, path: "/api/auth/send-otp", body: map[string]string{"email": email}})
	require.Equal(t, http.StatusOK, rec.Code, body)

	rec, body = ta.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/verify-otp",
		body:   map[string]string{"email": email, "otp": ta.mailer.code(email)},
	})
	require.Equal(t, http.StatusOK, rec.Code, body)

	auth, ok := cookieValue(rec, utils.AuthCookieName)
	require.True(t, ok)
	return auth.Value, body["csrfToken"].(string)
}

func TestScenario_SignInUpdateProfileReuseToken(t *testing.T) {
	ta := newTestApp(t)

	rec, body := ta.do(t, call{method: http.MethodPost, path: "/api/auth/send-otp", body: map[string]string{"email": "a@b.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "a@b.com", body["email"])

	user, err := ta.repo.User.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, user.OTP)
	require.NotNil(t, user.OTPExpiry)

	rec, body = ta.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/verify-otp",
		body:   map[string]string{"email": "a@b.com", "otp": *user.OTP},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "user", body["role"])
	assert.NotContains(t, body, "token")
	csrfToken := body["csrfToken"].(string)
	require.Len(t, csrfToken, 64)

	authCookie, ok := cookieValue(rec, utils.AuthCookieName)
	require.True(t, ok)
	assert.NotEmpty(t, authCookie.Value)
	assert.NotContains(t, rec.Body.String(), authCookie.Value)
	assert.True(t, authCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, authCookie.SameSite)
	assert.Equal(t, 7*24*60*60, authCookie.MaxAge)

	csrfCookie, ok := cookieValue(rec, utils.CSRFCookieName)
	require.True(t, ok)
	assert.False(t, csrfCookie.HttpOnly)
	assert.Equal(t, 10*60, csrfCookie.MaxAge)

	rec, body = ta.do(t, call{
		method: http.MethodPut,
		path:   "/api/user/profile",
		body:   map[string]string{"first_name": "Ada"},
		cookie: authCookie.Value,
		csrf:   csrfToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, true, body["success"])
	rotated := body["csrfToken"].(string)
	assert.NotEqual(t, csrfToken, rotated)
	assert.Equal(t, rotated, rec.Header().Get(utils.CSRFHeaderName))
	profile := body["user"].(map[string]any)
	assert.Equal(t, "Ada", profile["first_name"])

	rec, body = ta.do(t, call{
		method: http.MethodPut,
		path:   "/api/user/profile",
		body:   map[string]string{"first_name": "Eve"},
		cookie: authCookie.Value,
		csrf:   csrfToken,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired CSRF token", body["message"])
}

func TestAuthGuardMessages(t *testing.T) {
	ta := newTestApp(t)

	rec, body := ta.do(t, call{method: http.MethodGet, path: "/api/user/profile"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", body["message"])

	rec, body = ta.do(t, call{method: http.MethodGet, path: "/api/user/profile", cookie: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

func TestGetProfile(t *testing.T) {
	ta := newTestApp(t)
	session, _ := ta.signIn(t, "a@b.com")

	rec, body := ta.do(t, call{method: http.MethodGet, path: "/api/user/profile", cookie: session})
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
	assert.Equal(t, true, user["is_verified"])
}

func TestSendOTP_InvalidEmail(t *testing.T) {
	ta := newTestApp(t)

	rec, body := ta.do(t, call{method: http.MethodPost, path: "/api/auth/send-otp", body: map[string]string{"email": "nope"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format", body["message"])
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	ta := newTestApp(t)
	ta.do(t, call{method: http.MethodPost, path: "/api/auth/send-otp", body: map[string]string{"email": "a@b.com"}})

	wrong := "0000000"
	rec, body := ta.do(t, call{method: http.MethodPost, path: "/api/auth/verify-otp", body: map[string]string{"email": "a@b.com", "otp": wrong}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid OTP", body["message"])
	_, ok := cookieValue(rec, utils.AuthCookieName)
	assert.False(t, ok)
}

func TestUpdateProfile_NoFields(t *testing.T) {
	ta := newTestApp(t)
	session, token := ta.signIn(t, "a@b.com")

	rec, body := ta.do(t, call{method: http.MethodPut, path: "/api/user/profile", body: map[string]string{}, cookie: session, csrf: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No valid fields to update", body["message"])

	rotated := rec.Header().Get(utils.CSRFHeaderName)
	require.Len(t, rotated, 64)
	assert.NotEqual(t, token, rotated)
	assert.Equal(t, rotated, body["csrfToken"])

	rec, body = ta.do(t, call{method: http.MethodPut, path: "/api/user/profile", body: map[string]string{"first_name": "Ada"}, cookie: session, csrf: body["csrfToken"].(string)})
	assert.Equal(t, http.StatusOK, rec.Code, body)
}

func TestUpdateProfile_MissingCSRF(t *testing.T) {
	ta := newTestApp(t)
	session, _ := ta.signIn(t, "a@b.com")

	rec, body := ta.do(t, call{method: http.MethodPut, path: "/api/user/profile", body: map[string]string{"first_name": "Ada"}, cookie: session})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CSRF token is missing", body["message"])
}

func TestUpdateEmail(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "taken@b.com")
	session, token := ta.signIn(t, "a@b.com")

	rec, body := ta.do(t, call{method: http.MethodPost, path: "/api/user/update-profile", body: map[string]string{"email": "not-an-email"}, cookie: session, csrf: token})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, rec.Header().Get(utils.CSRFHeaderName), body["csrfToken"])
	token = body["csrfToken"].(string)

	rec, body = ta.do(t, call{method: http.MethodPost, path: "/api/user/update-profile", body: map[string]string{"email": "taken@b.com"}, cookie: session, csrf: token})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already in use", body["message"])

	next := rec.Header().Get(utils.CSRFHeaderName)
	rec, body = ta.do(t, call{method: http.MethodPost, path: "/api/user/update-profile", body: map[string]string{"email": "new@b.com"}, cookie: session, csrf: next})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.NotEmpty(t, body["csrfToken"])
	assert.NotContains(t, body, "token")

	fresh, ok := cookieValue(rec, utils.AuthCookieName)
	require.True(t, ok)
	assert.True(t, fresh.HttpOnly)
	assert.NotEqual(t, session, fresh.Value)

	rec, body = ta.do(t, call{method: http.MethodGet, path: "/api/user/profile", cookie: fresh.Value})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new@b.com", body["user"].(map[string]any)["email"])
}

func makeAdmin(t *testing.T, ta *testApp, email string) (string, string) {
	t.Helper()
	ta.do(t, call{method: http.MethodPost, path: "/api/auth/send-otp", body: map[string]string{"email": email}})
	user, err := ta.repo.User.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	_, err = ta.repo.User.UpdateRole(context.Background(), user.ID, entity.RoleAdmin)
	require.NoError(t, err)

	rec, body := ta.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/verify-otp",
		body:   map[string]string{"email": email, "otp": ta.mailer.code(email)},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "admin", body["role"])
	auth, _ := cookieValue(rec, utils.AuthCookieName)
	return auth.Value, body["csrfToken"].(string)
}

func TestRoleGate(t *testing.T) {
	ta := newTestApp(t)
	userSession, _ := ta.signIn(t, "a@b.com")
	adminSession, _ := makeAdmin(t, ta, "boss@b.com")

	rec, _ := ta.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", cookie: userSession})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ta.do(t, call{method: http.MethodGet, path: "/api/user/profile", cookie: adminSession})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := ta.do(t, call{method: http.MethodGet, path: "/api/admin/dashboard", cookie: adminSession})
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["totalUsers"])
	assert.Equal(t, float64(2), stats["verifiedUsers"])
	assert.Equal(t, float64(1), stats["adminUsers"])
}

func TestAdminUsersAndRole(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "a@b.com")
	adminSession, token := makeAdmin(t, ta, "boss@b.com")

	rec, body := ta.do(t, call{method: http.MethodGet, path: "/api/admin/users?page=1&limit=1", cookie: adminSession})
	require.Equal(t, http.StatusOK, rec.Code)
	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])
	assert.Len(t, body["data"], 1)

	rec, body = ta.do(t, call{method: http.MethodPut, path: "/api/admin/users/1/role", body: map[string]string{"role": "root"}, cookie: adminSession, csrf: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid role", body["message"])

	next := rec.Header().Get(utils.CSRFHeaderName)
	assert.Equal(t, next, body["csrfToken"])
	rec, body = ta.do(t, call{method: http.MethodPut, path: "/api/admin/users/1/role", body: map[string]string{"role": "admin"}, cookie: adminSession, csrf: next})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "User role updated to admin", body["message"])
	assert.NotEqual(t, next, body["csrfToken"])
}

func TestAdminDelete(t *testing.T) {
	ta := newTestApp(t)
	ta.signIn(t, "a@b.com")
	adminSession, token := makeAdmin(t, ta, "boss@b.com")

	rec, body := ta.do(t, call{method: http.MethodDelete, path: "/api/admin/users/999", cookie: adminSession, csrf: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not found", body["message"])

	next := rec.Header().Get(utils.CSRFHeaderName)
	rec, body = ta.do(t, call{method: http.MethodDelete, path: "/api/admin/users/1", cookie: adminSession, csrf: next})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "User deleted successfully", body["message"])

	rec, body = ta.do(t, call{method: http.MethodDelete, path: "/api/admin/users/abc", cookie: adminSession, csrf: body["csrfToken"].(string)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user ID", body["message"])
	assert.Equal(t, rec.Header().Get(utils.CSRFHeaderName), body["csrfToken"])
}

func TestLogout(t *testing.T) {
	ta := newTestApp(t)
	session, token := ta.signIn(t, "a@b.com")

	rec, body := ta.do(t, call{method: http.MethodPost, path: "/api/auth/logout", cookie: session})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", body["message"])

	cleared, ok := cookieValue(rec, utils.AuthCookieName)
	require.True(t, ok)
	assert.Equal(t, "", cleared.Value)
	assert.True(t, cleared.MaxAge < 0)

	_, live := ta.app.CSRF.Peek(1)
	assert.False(t, live)

	rec, _ = ta.do(t, call{method: http.MethodPut, path: "/api/user/profile", body: map[string]string{"first_name": "x"}, cookie: session, csrf: token})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ta.do(t, call{method: http.MethodPost, path: "/api/auth/logout"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ta := newTestApp(t)

	rec, _ := ta.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec, _ = ta.do(t, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "otp_issued_total")
}

func TestCORSPreflight(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/user/profile", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "X-CSRF-Token")
	rec := httptest.NewRecorder()
	ta.app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
