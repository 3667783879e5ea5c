package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/auth"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/config"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/dto"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/repository"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/routes"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/seed"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/services"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/testutil"
	"github.com/ahmetcoskunkizilkaya/hospital-records/internal/views"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "hospital_session"

type testServer struct {
	app      *fiber.App
	accounts *services.AccountService
	patients *services.PatientService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.OpenDB(t)
	cfg := &config.Config{
		SessionSecret:   "test-secret",
		SessionTTL:      time.Hour,
		SessionCookie:   cookieName,
		DefaultPageSize: 10,
		CORSOrigins:     "*",
	}

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	accounts := services.NewAccountService(db, hasher)
	patients := services.NewPatientService(repository.NewPatientRepository(db))
	_, err := seed.Run(context.Background(), accounts, patients, time.Now())
	require.NoError(t, err)

	lookup, err := auth.NewCredentialLookup(auth.StrategyDatabase, accounts, "", hasher)
	require.NoError(t, err)
	sessions := auth.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionCookie, false)
	m := metrics.New()

	app := fiber.New(fiber.Config{
		Views:        views.NewEngine(),
		ErrorHandler: handlers.ErrorHandler,
	})
	routes.Setup(app, cfg, sessions, m,
		handlers.NewAuthHandler(auth.NewAuthenticator(lookup, hasher), sessions, m),
		handlers.NewPatientHandler(patients, m, cfg.DefaultPageSize),
		handlers.NewAccountHandler(accounts),
		handlers.NewHealthHandler(db, patients),
	)
	return &testServer{app: app, accounts: accounts, patients: patients}
}

func (s *testServer) do(t *testing.T, req *http.Request, session *http.Cookie) *http.Response {
	t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp := s.do(t, formRequest("/login", form), nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/index", resp.Header.Get("Location"))

	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/", "/index", "/formPatients", "/delete?id=1"} {
		resp := s.do(t, httptest.NewRequest(http.MethodGet, path, nil), nil)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestLoginPage(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/login?logout", nil), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "You have been signed out")
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"username": {"admin"}, "password": {"nope"}}
	resp := s.do(t, formRequest("/login", form), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Invalid username or password")

	form = url.Values{"username": {"ghost"}, "password": {"1234"}}
	resp = s.do(t, formRequest("/login", form), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "user1", "1234")

	resp := s.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil), session)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?logout", resp.Header.Get("Location"))

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == cookieName && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestIndex_ListsAndSearches(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "user1", "1234")

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/index", nil), session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Abderrahmane")
	assert.Contains(t, body, "Mohammed")
	assert.NotContains(t, body, "/delete?id=", "readers see no admin actions")

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/index?keyword=MOHA", nil), session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body = readBody(t, resp)
	assert.Contains(t, body, "Mohammed")
	assert.NotContains(t, body, "Abderrahmane")

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/index?page=abc&size=-3", nil), session)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReaderCannotMutate(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "user1", "1234")

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/delete?id=1&page=0&keyword=", nil), session)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	form := url.Values{"name": {"Sara"}, "dateOfBirth": {"2000-01-01"}, "score": {"1"}}
	resp = s.do(t, formRequest("/save", form), session)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	count, err := s.patients.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestSave_CreateThenEdit(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "admin", "1234")
	ctx := context.Background()

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/formPatients", nil), session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	form := url.Values{"name": {"Sara Lee"}, "dateOfBirth": {"2020-01-01"}, "sick": {"true"}, "score": {"90"}}
	resp = s.do(t, formRequest("/save?page=2&keyword=sara%20l", form), session)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/index?page=2&keyword=sara+l", resp.Header.Get("Location"))

	page, err := s.patients.List(ctx, "sara", repository.PageRequest{Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	created := page.Content[0]
	assert.True(t, created.Sick)
	assert.Equal(t, 90, created.Score)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/edit?id="+itoa(created.ID), nil), session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `value="Sara Lee"`)
	assert.Contains(t, body, `value="2020-01-01"`)

	form = url.Values{"id": {itoa(created.ID)}, "name": {"Sara Lee"}, "dateOfBirth": {"2020-01-01"}, "score": {"95"}}
	resp = s.do(t, formRequest("/save", form), session)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	got, err := s.patients.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 95, got.Score)
	assert.False(t, got.Sick, "an unchecked box clears the flag")
}

func TestSave_InvalidFormIsRedisplayed(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "admin", "1234")

	form := url.Values{"name": {"A"}, "dateOfBirth": {"2999-01-01"}, "score": {"-4"}}
	resp := s.do(t, formRequest("/save", form), session)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "must be at least 2 characters")
	assert.Contains(t, body, "must not be in the future")
	assert.Contains(t, body, "must be a non-negative whole number")

	count, err := s.patients.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestSave_UnknownID(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "admin", "1234")

	form := url.Values{"id": {"999"}, "name": {"Ghost"}, "dateOfBirth": {"2000-01-01"}, "score": {"1"}}
	resp := s.do(t, formRequest("/save", form), session)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEditAndDelete_BadOrMissingID(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "admin", "1234")

	tests := []struct {
		path string
		code int
	}{
		{"/edit?id=abc", fiber.StatusBadRequest},
		{"/edit?id=999", fiber.StatusNotFound},
		{"/delete", fiber.StatusBadRequest},
		{"/delete?id=999", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		resp := s.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil), session)
		assert.Equal(t, tt.code, resp.StatusCode, tt.path)
	}
}

func TestDelete(t *testing.T) {
	s := newTestServer(t)
	session := s.login(t, "admin", "1234")
	ctx := context.Background()

	page, err := s.patients.List(ctx, "Mohammed", repository.PageRequest{Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/delete?id="+itoa(page.Content[0].ID)+"&page=0&keyword=Moh", nil), session)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/index?page=0&keyword=Moh", resp.Header.Get("Location"))

	_, err = s.patients.Get(ctx, page.Content[0].ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAdminAPI(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	reader := s.login(t, "user1", "1234")
	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), reader)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	admin := s.login(t, "admin", "1234")

	resp = s.do(t, jsonRequest(http.MethodPost, "/api/admin/roles", `{"role":"NURSE"}`), admin)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = s.do(t, jsonRequest(http.MethodPost, "/api/admin/roles", `{"role":"NURSE"}`), admin)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = s.do(t, jsonRequest(http.MethodPost, "/api/admin/users",
		`{"username":"nurse1","password":"abcd","confirm_password":"abce"}`), admin)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Contains(t, errResp.Fields, "confirmPassword")

	resp = s.do(t, jsonRequest(http.MethodPost, "/api/admin/users",
		`{"username":"nurse1","password":"abcd","confirm_password":"abcd","email":"n@example.com"}`), admin)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = s.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/users/nurse1/roles/NURSE", nil), admin)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = s.do(t, httptest.NewRequest(http.MethodPost, "/api/admin/users/ghost/roles/NURSE", nil), admin)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var users []dto.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	var nurse *dto.UserResponse
	for i := range users {
		if users[i].Username == "nurse1" {
			nurse = &users[i]
		}
	}
	require.NotNil(t, nurse)
	assert.Equal(t, []string{"NURSE"}, nurse.Roles)

	resp = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/admin/users/nurse1/roles/NURSE", nil), admin)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.EqualValues(t, 2, health.PatientCount)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "admin", "1234")

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `hospital_login_attempts_total{result="success"} 1`)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestLogin_OnlyFailuresAreRateLimited(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 12; i++ {
		s.login(t, "user1", "1234")
	}

	bad := url.Values{"username": {"user1"}, "password": {"wrong"}}
	for i := 0; i < 10; i++ {
		resp := s.do(t, formRequest("/login", bad), nil)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}
	resp := s.do(t, formRequest("/login", bad), nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestIndex_OpenToUsersWithoutRoles(t *testing.T) {
	s := newTestServer(t)
	_, err := s.accounts.AddUser(context.Background(), "visitor", "1234", "", "1234")
	require.NoError(t, err)
	session := s.login(t, "visitor", "1234")

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/index", nil), session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Abderrahmane")

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/formPatients", nil), session)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
