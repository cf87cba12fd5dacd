package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicjose/intranet-sub000/internal/identity"
	"github.com/civicjose/intranet-sub000/internal/repo"
	"github.com/civicjose/intranet-sub000/internal/session"
)

// recordingMailer — канал уведомлений для тестов, без сети.
type recordingMailer struct {
	bodies []string
	fail   bool
}

func (m *recordingMailer) Send(_ context.Context, _, _, body string) error {
	if m.fail {
		return assert.AnError
	}
	m.bodies = append(m.bodies, body)
	return nil
}

func (m *recordingMailer) lastMatch(t *testing.T, re *regexp.Regexp) string {
	t.Helper()
	require.NotEmpty(t, m.bodies)
	match := re.FindStringSubmatch(m.bodies[len(m.bodies)-1])
	require.Len(t, match, 2)
	return match[1]
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)
var tokenRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

type env struct {
	router *mux.Router
	mail   *recordingMailer
	svc    *identity.Service
	sm     *session.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	users := repo.NewMemUserStore()
	domains := repo.NewMemDomainStore()
	require.NoError(t, domains.Seed(context.Background(), []string{"corp.com"}))

	mail := &recordingMailer{}
	sm := session.NewManager("test-secret", 15*time.Minute)
	svc := identity.New(users, domains, mail, sm,
		2*time.Minute, 24*time.Hour, "http://intranet.local")

	r := mux.NewRouter()
	RegisterRoutes(r, NewHandler(svc), sm, users)
	return &env{router: r, mail: mail, svc: svc, sm: sm}
}

func (e *env) post(path string, body any, token string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestCheckEmailEndpoint(t *testing.T) {
	e := newEnv(t)

	w := e.post("/auth/check-email", CheckEmailRequest{Email: "a@evil.com"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	w = e.post("/auth/check-email", CheckEmailRequest{Email: "a@corp.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[CheckEmailResponse](t, w)
	assert.Equal(t, "verification_sent", resp.Status)
}

// Отказ почтового канала — клиентская ошибка (4xx), а не ошибка шлюза:
// запись сохранена, повторная отправка формы перевыпустит код.
func TestCheckEmailMailFailure(t *testing.T) {
	e := newEnv(t)
	e.mail.fail = true
	w := e.post("/auth/check-email", CheckEmailRequest{Email: "a@corp.com"}, "")
	assert.Equal(t, http.StatusFailedDependency, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestMalformedBody(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Полный путь самостоятельной регистрации через HTTP.
func TestRegistrationFlow(t *testing.T) {
	e := newEnv(t)

	w := e.post("/auth/check-email", CheckEmailRequest{Email: "a@corp.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := e.mail.lastMatch(t, codeRe)

	w = e.post("/auth/verify-code", VerifyCodeRequest{Email: "a@corp.com", Code: code}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusCodeVerified, decodeBody[VerifyCodeResponse](t, w).Status)

	w = e.post("/auth/verify-code", VerifyCodeRequest{Email: "a@corp.com", Code: "999999"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.post("/auth/complete-registration", CompleteRegistrationRequest{
		Email: "a@corp.com", Password: "passw0rd1",
		FirstName: "Ana", LastName: "Pérez", BirthDate: "1990-05-10",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	reg := decodeBody[CompleteRegistrationResponse](t, w)
	assert.Equal(t, StatusRegistrationComplete, reg.Status)
	require.NotEmpty(t, reg.Token)

	// выданный токен сразу пускает на защищённый эндпоинт
	w = e.get("/api/me", reg.Token)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody[MeResponse](t, w)
	assert.Equal(t, "a@corp.com", me.Email)
	assert.NotEmpty(t, w.Header().Get(session.RefreshHeader))
}

func TestCompleteRegistrationBadBirthDate(t *testing.T) {
	e := newEnv(t)
	w := e.post("/auth/complete-registration", CompleteRegistrationRequest{
		Email: "a@corp.com", Password: "passw0rd1",
		FirstName: "A", LastName: "B", BirthDate: "10/05/1990",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.CreateUser(context.Background(), identity.CreateInput{
		Email: "a@corp.com", Mode: identity.ModeDirect, Password: "passw0rd1", RoleID: 2,
	})
	require.NoError(t, err)

	w := e.post("/auth/login", LoginRequest{Email: "a@corp.com", Password: "passw0rd1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody[LoginResponse](t, w).Token)

	w = e.post("/auth/login", LoginRequest{Email: "a@corp.com", Password: "nope12345"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.post("/auth/login", LoginRequest{Email: "ghost@corp.com", Password: "passw0rd1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetupInfoEndpoint(t *testing.T) {
	e := newEnv(t)
	admin := adminToken(t, e)

	w := e.post("/api/users", CreateUserRequest{
		Email: "new@corp.com", FirstName: "Nora", LastName: "Ito", RoleID: 2, Mode: "invite",
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	token := e.mail.lastMatch(t, tokenRe)

	w = e.get("/auth/setup-info?token="+token, "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[SetupInfoResponse](t, w)
	assert.Equal(t, "new@corp.com", info.Email)
	assert.Equal(t, "Nora", info.FirstName)

	w = e.get("/auth/setup-info?token=ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.get("/auth/setup-info", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func adminToken(t *testing.T, e *env) string {
	t.Helper()
	u, err := e.svc.CreateUser(context.Background(), identity.CreateInput{
		Email: "admin@corp.com", Mode: identity.ModeDirect,
		Password: "passw0rd1", RoleID: 1,
	})
	require.NoError(t, err)
	token, err := e.sm.Issue(u.ID, u.RoleID)
	require.NoError(t, err)
	return token
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	e := newEnv(t)

	// без токена
	w := e.post("/api/users", CreateUserRequest{Email: "x@corp.com", Mode: "direct", Password: "passw0rd1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// обычный сотрудник
	u, err := e.svc.CreateUser(context.Background(), identity.CreateInput{
		Email: "emp@corp.com", Mode: identity.ModeDirect, Password: "passw0rd1", RoleID: 2,
	})
	require.NoError(t, err)
	et, err := e.sm.Issue(u.ID, u.RoleID)
	require.NoError(t, err)
	w = e.post("/api/users", CreateUserRequest{Email: "x@corp.com", Mode: "direct", Password: "passw0rd1"}, et)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// администратор
	w = e.post("/api/users", CreateUserRequest{Email: "x@corp.com", Mode: "direct", Password: "passw0rd1"}, adminToken(t, e))
	assert.Equal(t, http.StatusCreated, w.Code)

	// дубликат
	w = e.post("/api/users", CreateUserRequest{Email: "x@corp.com", Mode: "direct", Password: "passw0rd1"}, adminToken2(t, e))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func adminToken2(t *testing.T, e *env) string {
	t.Helper()
	token, err := e.svc.Login(context.Background(), "admin@corp.com", "passw0rd1")
	require.NoError(t, err)
	return token
}
