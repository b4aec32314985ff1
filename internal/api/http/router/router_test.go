package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/restoinsight/insights-server/internal/api/http/context"
	"github.com/restoinsight/insights-server/internal/api/http/handler"
	memrepo "github.com/restoinsight/insights-server/internal/repository/memory"
	"github.com/restoinsight/insights-server/internal/service"
	memstore "github.com/restoinsight/insights-server/internal/storage/memory"
	"github.com/restoinsight/insights-server/internal/testutil"
	"github.com/restoinsight/insights-server/internal/token"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendVerification(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]string)
	}
	m.tokens[email] = token
	return nil
}

func (m *captureMailer) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type staticGenerator struct{}

func (staticGenerator) Generate(context.Context, string) (string, error) {
	return "Offer a weekday lunch combo.", nil
}

type staticRenderer struct{}

func (staticRenderer) Render(_ context.Context, html string) ([]byte, error) {
	return []byte("%PDF-1.4\n" + html), nil
}

type testLimiter struct {
	mu      sync.Mutex
	allowed int
}

func (l *testLimiter) Allow(context.Context, string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowed == 0 {
		return false, 0, nil
	}
	l.allowed--
	return true, l.allowed, nil
}

func (l *testLimiter) Limit() int { return 100 }

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *captureMailer) {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	accounts := memrepo.NewAccountRepository()
	reports := memrepo.NewReportRepository(accounts)
	artifacts := memstore.NewStore()
	tokens := token.NewJWT("test-secret", time.Hour)
	mailer := &captureMailer{}

	quota := service.NewQuota(accounts, lg)
	auth := service.NewAuth(accounts, tokens, mailer, lg)
	report := service.NewReport(accounts, reports, artifacts, quota, staticGenerator{}, staticRenderer{}, lg)
	history := service.NewHistory(reports, artifacts, lg)

	r := New(auth, report, history, quota, tokens, httpctx.NewManager(), lg, opts...)
	srv := httptest.NewServer(r.Register())
	t.Cleanup(srv.Close)

	return srv, mailer
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func authorized(t *testing.T, method, url, accessToken string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func upload(t *testing.T, srvURL, accessToken, csv string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, csv)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return authorized(t, http.MethodPost, srvURL+"/api/v1/analyze", accessToken, &buf, w.FormDataContentType())
}

func login(t *testing.T, srvURL, email string) string {
	t.Helper()
	resp := postJSON(t, srvURL+"/api/v1/auth/login", `{"email":"`+email+`","password":"password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func signUp(t *testing.T, srvURL string, mailer *captureMailer, email string, verify bool) string {
	t.Helper()
	resp := postJSON(t, srvURL+"/api/v1/auth/register", `{"email":"`+email+`","password":"password123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	if verify {
		resp = postJSON(t, srvURL+"/api/v1/auth/verify", `{"token":"`+mailer.token(email)+`"}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	return login(t, srvURL, email)
}

func TestRouter_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/dashboard", "/api/v1/report-history", "/api/v1/download-report/x.pdf"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestRouter_ReportFlow(t *testing.T) {
	srv, mailer := newTestServer(t)
	accessToken := signUp(t, srv.URL, mailer, "owner@example.com", true)

	const csv = "date,item,qty\n2024-06-01,pizza,3\n"
	var names []string
	for i := 0; i < 3; i++ {
		resp := upload(t, srv.URL, accessToken, csv)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, "false", resp.Header.Get(handler.HeaderReportDegraded))
		names = append(names, resp.Header.Get(handler.HeaderReportName))
	}

	resp := upload(t, srv.URL, accessToken, csv)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp = authorized(t, http.MethodGet, srv.URL+"/api/v1/dashboard", accessToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dash))
	assert.Equal(t, "free", dash["tier"])
	assert.EqualValues(t, 0, dash["remaining"])
	assert.EqualValues(t, 3, dash["used"])

	resp = authorized(t, http.MethodGet, srv.URL+"/api/v1/report-history", accessToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history struct {
		Reports []struct {
			StoredName string `json:"stored_name"`
		} `json:"reports"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	require.Len(t, history.Reports, 3)
	assert.ElementsMatch(t, names, []string{history.Reports[0].StoredName, history.Reports[1].StoredName, history.Reports[2].StoredName})

	resp = authorized(t, http.MethodGet, srv.URL+"/api/v1/report-history?page=9223372036854775807", accessToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var farPage struct {
		Reports []json.RawMessage `json:"reports"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&farPage))
	assert.NotNil(t, farPage.Reports)
	assert.Empty(t, farPage.Reports)

	resp = authorized(t, http.MethodGet, srv.URL+"/api/v1/download-report/"+names[0], accessToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
}

func TestRouter_OwnerIsolation(t *testing.T) {
	srv, mailer := newTestServer(t)
	owner := signUp(t, srv.URL, mailer, "owner@example.com", true)
	other := signUp(t, srv.URL, mailer, "other@example.com", true)

	resp := upload(t, srv.URL, owner, "a,b\n1,2\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	name := resp.Header.Get(handler.HeaderReportName)

	resp = authorized(t, http.MethodGet, srv.URL+"/api/v1/download-report/"+name, other, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_UnverifiedCannotAnalyze(t *testing.T) {
	srv, mailer := newTestServer(t)
	accessToken := signUp(t, srv.URL, mailer, "new@example.com", false)

	resp := upload(t, srv.URL, accessToken, "a,b\n1,2\n")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_RateLimit(t *testing.T) {
	srv, mailer := newTestServer(t, WithLimiter(&testLimiter{allowed: 1}))
	accessToken := signUp(t, srv.URL, mailer, "owner@example.com", true)

	resp := authorized(t, http.MethodGet, srv.URL+"/api/v1/dashboard", accessToken, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = authorized(t, http.MethodGet, srv.URL+"/api/v1/dashboard", accessToken, nil, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRouter_CORS(t *testing.T) {
	srv, _ := newTestServer(t, WithCORSOrigins([]string{"https://app.example.com"}))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
