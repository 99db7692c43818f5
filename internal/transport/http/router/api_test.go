package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docmanager/internal/core/auth"
	"docmanager/internal/core/config"
	"docmanager/internal/core/database"
	"docmanager/internal/core/metrics"
	"docmanager/internal/enrich"
	"docmanager/internal/extract"
	"docmanager/internal/repo"
	"docmanager/internal/service"
	"docmanager/internal/storage"
)

type testAPI struct {
	t   *testing.T
	h   http.Handler
	dir string
}

func newTestAPI(t *testing.T, opts ...func(*Deps)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))

	dir := t.TempDir()
	blobs, err := storage.NewLocal(dir)
	require.NoError(t, err)

	users, docs := repo.NewUserRepo(db), repo.NewDocumentRepo(db)
	e := enrich.NewLocal()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "docmanager", Algorithm: "HS256", TTL: 30 * time.Minute}
	docSvc := service.NewDocumentService(service.DocumentDeps{
		Docs:              docs,
		Blobs:             blobs,
		Extractor:         extract.NewRegistry(),
		Enricher:          e,
		MaxSize:           1 << 20,
		AllowedExtensions: []string{".pdf", ".docx", ".txt", ".doc"},
	})
	d := Deps{
		Metrics: metrics.New(),
		Limits:  config.Limits{MaxBodyBytes: 2 << 20, RequestTimeoutSec: 10, Concurrency: 10},
		Auth:    service.NewAuthService(users, jwter, nil),
		Docs:    docSvc,
		Search:  service.NewSearchService(docs, e, nil),
		Summary: service.NewSummaryService(docSvc, docs, e, nil),
	}
	for _, o := range opts {
		o(&d)
	}
	return &testAPI{t: t, h: NewAPIEngine(d), dir: dir}
}

func (a *testAPI) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	return w
}

func (a *testAPI) json(method, path, token string, v any) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(a.t, err)
		body = bytes.NewReader(b)
	}
	return a.do(method, path, token, body, "application/json")
}

func (a *testAPI) upload(token, filename, title, content string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(a.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(a.t, err)
	if title != "" {
		require.NoError(a.t, mw.WriteField("title", title))
	}
	require.NoError(a.t, mw.Close())
	return a.do(http.MethodPost, "/api/documents/", token, &buf, mw.FormDataContentType())
}

// signup 注册并登录，返回 token
func (a *testAPI) signup(name string) string {
	a.t.Helper()
	w := a.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": name + "@x.com", "username": name, "password": "pw12345",
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	w = a.json(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": name + "@x.com", "password": "pw12345",
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(a.t, "bearer", out.TokenType)
	return out.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["detail"]
}

func TestAPI_Scenario(t *testing.T) {
	a := newTestAPI(t)

	w := a.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "username": "a", "password": "pw12345",
	})
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[map[string]any](t, w)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, true, user["is_active"])
	assert.NotContains(t, w.Body.String(), "pw12345")
	assert.NotContains(t, w.Body.String(), "password")

	w = a.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "pw12345"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[map[string]any](t, w)
	token := login["access_token"].(string)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = a.do(http.MethodGet, "/api/documents/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = a.upload(token, "hello.txt", "T", "hello world")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode[map[string]any](t, w)
	assert.Equal(t, "txt", doc["file_type"])
	assert.Equal(t, "T", doc["title"])
	assert.EqualValues(t, 11, doc["file_size"])
	assert.Equal(t, "hello world", doc["content"])
	assert.NotContains(t, doc, "file_path")
	id := int(doc["id"].(float64))

	other := a.signup("b")
	w = a.do(http.MethodGet, fmt.Sprintf("/api/documents/%d", id), other, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, detail(t, w))

	w = a.do(http.MethodGet, fmt.Sprintf("/api/documents/%d", id), token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_Auth(t *testing.T) {
	a := newTestAPI(t)
	token := a.signup("a")

	// 重复注册
	w := a.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "username": "z", "password": "pw12345",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already registered", detail(t, w))
	w = a.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "z@x.com", "username": "a", "password": "pw12345",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username already taken", detail(t, w))

	// 校验失败
	w = a.json(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "z@x.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = a.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "username": "z", "password": "pw12345",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// 未知邮箱和错误密码不可区分
	wrong := a.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "bad"})
	ghost := a.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "pw12345"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, ghost.Code)
	assert.Equal(t, wrong.Body.String(), ghost.Body.String())

	w = a.do(http.MethodGet, "/api/auth/me", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a", decode[map[string]any](t, w)["username"])

	w = a.do(http.MethodPost, "/api/auth/refresh", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	fresh := decode[map[string]any](t, w)
	assert.Equal(t, "bearer", fresh["token_type"])
	assert.NotContains(t, fresh, "user")
	w = a.do(http.MethodGet, "/api/auth/me", fresh["access_token"].(string), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	for name, tok := range map[string]string{"missing": "", "garbage": "garbage", "tampered": token + "x"} {
		t.Run(name, func(t *testing.T) {
			w := a.do(http.MethodGet, "/api/documents/", tok, nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotEmpty(t, detail(t, w))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Basic "+token)
	w = httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_UploadRejections(t *testing.T) {
	a := newTestAPI(t)
	token := a.signup("a")

	w := a.upload(token, "virus.exe", "", "MZ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	entries, err := os.ReadDir(a.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	w = a.upload(token, "big.txt", "", strings.Repeat("a", (1<<20)+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, fmt.Sprintf("file too large: limit is %d bytes", 1<<20), detail(t, w))

	// 超过请求体上限也按文件过大返回
	w = a.upload(token, "huge.txt", "", strings.Repeat("a", 3<<20))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, fmt.Sprintf("file too large: limit is %d bytes", 1<<20), detail(t, w))

	w = a.do(http.MethodPost, "/api/auth/register", "", strings.NewReader(strings.Repeat("x", 3<<20)), "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = a.do(http.MethodPost, "/api/documents/", token, strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.upload(token, "legacy.doc", "", "binary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries, err = os.ReadDir(a.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAPI_DocumentLifecycle(t *testing.T) {
	a := newTestAPI(t)
	token := a.signup("a")
	other := a.signup("b")

	doc := decode[map[string]any](t, a.upload(token, "go.txt", "", "Goroutines are cheap. Channels connect goroutines."))
	id := int(doc["id"].(float64))
	assert.Equal(t, "go.txt", doc["title"])
	assert.Nil(t, doc["summary"])

	w := a.do(http.MethodGet, fmt.Sprintf("/api/documents/%d/download", id), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]any](t, w)
	assert.Equal(t, doc["filename"], info["filename"])
	assert.NotEmpty(t, info["file_path"])

	w = a.do(http.MethodPost, fmt.Sprintf("/api/documents/%d/process", id), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	processed := decode[map[string]any](t, w)
	assert.NotEmpty(t, processed["message"])
	enriched := processed["document"].(map[string]any)
	assert.NotNil(t, enriched["summary"])
	assert.Contains(t, enriched["keywords"], "goroutines")

	w = a.do(http.MethodGet, "/api/documents/?skip=0&limit=1", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = a.do(http.MethodGet, "/api/documents/abc", token, nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodDelete, fmt.Sprintf("/api/documents/%d", id), other, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodDelete, fmt.Sprintf("/api/documents/%d", id), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["message"])
	w = a.do(http.MethodDelete, fmt.Sprintf("/api/documents/%d", id), token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Search(t *testing.T) {
	a := newTestAPI(t)
	token := a.signup("a")
	a.upload(token, "a.txt", "Go", "goroutines and channels")
	a.upload(token, "b.txt", "Food", "bread")

	w := a.do(http.MethodGet, "/api/search/", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = a.do(http.MethodGet, "/api/search/?file_type=pdf", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = a.do(http.MethodGet, "/api/search/?q=channels", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	hits := decode[[]map[string]any](t, w)
	require.Len(t, hits, 1)
	assert.Equal(t, "Go", hits[0]["title"])

	w = a.do(http.MethodGet, "/api/search/count/total", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_count":2}`, w.Body.String())

	w = a.do(http.MethodGet, "/api/search/999", token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Summary(t *testing.T) {
	a := newTestAPI(t)
	token := a.signup("a")
	doc := decode[map[string]any](t, a.upload(token, "sky.txt", "Sky", "The sky is blue. Grass is green."))
	id := int(doc["id"].(float64))

	w := a.do(http.MethodGet, fmt.Sprintf("/api/summary/%d/summary", id), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[map[string]any](t, w)
	assert.Equal(t, false, view["has_summary"])
	assert.Equal(t, "Sky", view["title"])

	w = a.do(http.MethodPost, fmt.Sprintf("/api/summary/%d/generate", id), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	gen := decode[map[string]any](t, w)
	assert.NotEmpty(t, gen["summary"])
	assert.NotNil(t, gen["document"])

	w = a.do(http.MethodGet, fmt.Sprintf("/api/summary/%d/summary", id), token, nil, "")
	assert.Equal(t, true, decode[map[string]any](t, w)["has_summary"])

	w = a.do(http.MethodPost, fmt.Sprintf("/api/summary/%d/ask?question=is+the+sky+blue", id), token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ans := decode[map[string]any](t, w)
	assert.Equal(t, "is the sky blue", ans["question"])
	assert.Equal(t, "Sky", ans["document_title"])
	assert.Contains(t, ans["answer"], "The sky is blue.")

	w = a.do(http.MethodPost, fmt.Sprintf("/api/summary/%d/ask", id), token, nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.json(http.MethodPost, "/api/summary/batch-summarize", token, map[string]any{"document_ids": []int{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[],"total_processed":0,"successful":0}`, w.Body.String())

	w = a.json(http.MethodPost, "/api/summary/batch-summarize", token, []int{id, 999})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	batch := decode[service.BatchResult](t, w)
	assert.Equal(t, 2, batch.TotalProcessed)
	assert.Equal(t, 1, batch.Successful)
	assert.False(t, batch.Results[1].Success)

	w = a.do(http.MethodPost, "/api/summary/batch-summarize", token, strings.NewReader("nope"), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodGet, "/api/summary/statistics", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_documents":1,"documents_with_summary":1,"documents_without_summary":0,"summary_percentage":100}`, w.Body.String())
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	a.do(http.MethodGet, "/api/documents/", "", nil, "")
	w = a.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/documents/",status="401"} 1`)

	w = a.do(http.MethodGet, "/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, detail(t, w))
}

func TestAPI_GlobalRateLimit(t *testing.T) {
	a := newTestAPI(t, func(d *Deps) {
		d.Limits.GlobalRPS = 1
		d.Limits.GlobalBurst = 2
	})
	// 不同 IP 共用全局桶
	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		a.h.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.3"))
}
