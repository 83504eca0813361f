package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bucketdrop/internal/auth"
	"bucketdrop/internal/config"
	"bucketdrop/internal/history"
	"bucketdrop/internal/metrics"
	"bucketdrop/internal/storage"
	"bucketdrop/internal/upload"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	return &config.Config{
		Auth: config.Auth{
			Users: map[string]config.User{
				"alice": {Name: "Alice Example", PasswordHash: hash},
			},
			Cookie: config.Cookie{
				Name:       "drop_session",
				Key:        "test-signing-key",
				ExpiryDays: 1,
			},
		},
		Storage: config.S3Config{
			Endpoint: "localhost:9000",
			Bucket:   "uploads",
		},
		Upload: config.Upload{
			RateLimit:       3,
			PresignExpiry:   3600,
			MaxRequestBytes: 1 << 20,
		},
	}
}

func newTestHandler(t *testing.T, journal history.Store) (http.Handler, *storage.MemoryClient) {
	t.Helper()
	cfg := testConfig(t)
	client := storage.NewMemoryClient()

	orch := upload.NewOrchestrator(client, cfg.Storage.Bucket, time.Hour, metrics.New(), journal, zap.NewNop())
	batcher := upload.NewBatcher(orch, cfg.Upload.RateLimit, zap.NewNop())

	server := New(cfg, zap.NewNop(),
		auth.NewResolver(cfg.Auth.Users),
		auth.NewSessions(cfg.Auth.Cookie),
		batcher, journal)
	return server.Router(), client
}

func login(t *testing.T, handler http.Handler, username, password string) *http.Cookie {
	t.Helper()
	form := strings.NewReader("username=" + username + "&password=" + password)
	req := httptest.NewRequest(http.MethodPost, "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func multipartBody(t *testing.T, files map[string]string, presign bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if presign {
		require.NoError(t, w.WriteField("presign", "1"))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, handler http.Handler, cookie *http.Cookie, files map[string]string, presign bool) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, presign)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func fetchCSV(t *testing.T, handler http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/urls.csv", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func csvLines(body string) []string {
	trimmed := strings.TrimRight(body, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestIndexShowsLoginWhenUnauthenticated(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login")
}

func TestLoginTriState(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	post := func(form string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// No credentials submitted: warning, not an error
	rec := post("username=&password=")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter your username and password")

	// Wrong credentials: inline error, retry allowed
	rec = post("username=alice&password=wrong")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username/password is incorrect")

	// Correct credentials: session cookie plus greeting by display name
	cookie := login(t, handler, "alice", "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello, Alice Example")
}

func TestUploadWithPresignedURLs(t *testing.T) {
	handler, client := newTestHandler(t, nil)
	cookie := login(t, handler, "alice", "s3cret")

	rec := doUpload(t, handler, cookie, map[string]string{
		"a.txt": "alpha",
		"b.txt": "bravo",
	}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Done,")
	assert.Contains(t, body, "Download data as CSV")

	// Both files landed under the user's namespace
	keys := client.Keys("uploads")
	require.Len(t, keys, 2)
	for _, key := range keys {
		assert.True(t, strings.HasPrefix(key, "alice/"), "key %q not namespaced", key)
	}

	csv := fetchCSV(t, handler, cookie)
	require.Equal(t, http.StatusOK, csv.Code)
	assert.Contains(t, csv.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, csv.Header().Get("Content-Disposition"), "urls.csv")

	lines := csvLines(csv.Body.String())
	require.Len(t, lines, 2)
	for _, line := range lines {
		data, err := client.Fetch(line)
		require.NoError(t, err, "presigned url %q not resolvable", line)
		assert.NotEmpty(t, data)
	}
}

func TestUploadWithoutPresignOffersNoCSV(t *testing.T) {
	handler, client := newTestHandler(t, nil)
	cookie := login(t, handler, "alice", "s3cret")

	rec := doUpload(t, handler, cookie, map[string]string{"a.txt": "alpha"}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Download data as CSV")
	assert.Len(t, client.Keys("uploads"), 1)

	csv := fetchCSV(t, handler, cookie)
	assert.Equal(t, http.StatusNotFound, csv.Code)
}

func TestSecondRunResetsResults(t *testing.T) {
	handler, _ := newTestHandler(t, nil)
	cookie := login(t, handler, "alice", "s3cret")

	doUpload(t, handler, cookie, map[string]string{"first.txt": "one"}, true)
	firstCSV := csvLines(fetchCSV(t, handler, cookie).Body.String())
	require.Len(t, firstCSV, 1)

	doUpload(t, handler, cookie, map[string]string{"second.txt": "two"}, true)
	secondCSV := csvLines(fetchCSV(t, handler, cookie).Body.String())
	require.Len(t, secondCSV, 1)

	// Links from run 1 never appear in run 2's download
	assert.NotEqual(t, firstCSV[0], secondCSV[0])
	assert.NotContains(t, secondCSV, firstCSV[0])
}

func TestUploadPartialFailureStillReports(t *testing.T) {
	handler, client := newTestHandler(t, nil)
	client.FailPut["broken"] = assert.AnError
	cookie := login(t, handler, "alice", "s3cret")

	rec := doUpload(t, handler, cookie, map[string]string{
		"good.txt":   "fine",
		"broken.txt": "doomed",
	}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// The failure is surfaced inline, but the batch still finishes
	assert.Contains(t, body, "broken.txt")
	assert.Contains(t, body, "Done,")

	lines := csvLines(fetchCSV(t, handler, cookie).Body.String())
	assert.Len(t, lines, 1)
}

func TestUploadRequiresSession(t *testing.T) {
	handler, client := newTestHandler(t, nil)

	rec := doUpload(t, handler, nil, map[string]string{"a.txt": "alpha"}, true)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, client.Keys("uploads"))
}

func TestUploadWithNoFiles(t *testing.T) {
	handler, _ := newTestHandler(t, nil)
	cookie := login(t, handler, "alice", "s3cret")

	rec := doUpload(t, handler, cookie, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Choose at least one file")
}

func TestProgressEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, nil)
	cookie := login(t, handler, "alice", "s3cret")

	doUpload(t, handler, cookie, map[string]string{"a.txt": "alpha"}, false)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Active   bool    `json:"active"`
		Fraction float64 `json:"fraction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Active)
	assert.Equal(t, 1.0, status.Fraction)
}

func TestLogoutClearsSessionAndResults(t *testing.T) {
	handler, _ := newTestHandler(t, nil)
	cookie := login(t, handler, "alice", "s3cret")
	doUpload(t, handler, cookie, map[string]string{"a.txt": "alpha"}, true)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// The stale cookie still authenticates (signed token), but the
	// results were discarded on logout.
	csv := fetchCSV(t, handler, cookie)
	assert.Equal(t, http.StatusNotFound, csv.Code)
}

func TestHasherPage(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/hasher", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password Hasher")

	form := strings.NewReader("password=hunter2")
	req = httptest.NewRequest(http.MethodPost, "/hasher", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your Hashed Password is :")
	assert.Contains(t, rec.Body.String(), "$2a$")
}

func TestHistoryPage(t *testing.T) {
	journal, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	handler, _ := newTestHandler(t, journal)
	cookie := login(t, handler, "alice", "s3cret")
	doUpload(t, handler, cookie, map[string]string{"tracked.txt": "data"}, true)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "tracked.txt")
	assert.Contains(t, body, "linked")
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
