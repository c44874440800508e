package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/masterconsole/internal/config"
	"github.com/JonMunkholm/masterconsole/internal/core"
	_ "github.com/JonMunkholm/masterconsole/internal/core/schemas"
	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
	"github.com/JonMunkholm/masterconsole/internal/metrics"
	"github.com/JonMunkholm/masterconsole/internal/session"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "secret123"
)

type testEnv struct {
	server   *Server
	service  *core.Service
	store    *docstore.Memory
	sessions *session.Memory
	cookie   *http.Cookie
}

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{
		"STORE_DRIVER":       "memory",
		"IDENTITY_DRIVER":    "memory",
		"RATE_LIMIT_ENABLED": "false",
	}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(func(k string) (string, bool) {
		v, ok := base[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return cfg
}

func newTestEnv(t *testing.T, env map[string]string) *testEnv {
	t.Helper()
	cfg := testConfig(t, env)

	store := docstore.NewMemory()
	idp := identity.NewMemory(testEmail + ":" + testPassword)
	sessions := session.NewMemory(cfg.Session.TTL)
	svc := core.NewService(store, idp, core.Options{MaxConcurrent: 2})

	srv := NewServer(cfg, Deps{
		Service:  svc,
		Identity: idp,
		Sessions: sessions,
		Metrics:  metrics.New(),
	})
	t.Cleanup(func() {
		srv.Close()
		svc.Shutdown(context.Background())
	})
	return &testEnv{server: srv, service: svc, store: store, sessions: sessions}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	form := url.Values{"email": {testEmail}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := e.do(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /login status = %d, want %d; body %s", rec.Code, http.StatusSeeOther, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "mc_session" {
			e.cookie = c
		}
	}
	if e.cookie == nil {
		t.Fatal("POST /login did not set the session cookie")
	}
}

func uploadRequest(t *testing.T, entity, field, name, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		fw.Write([]byte(body))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import/"+entity, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v; body %s", err, rec.Body)
	}
	return v
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestServer_RequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/list/makers", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("page status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got, want := rec.Header().Get("Location"), "/login?next=%2Flist%2Fmakers"; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/entities", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("api status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if body := decode[ErrorResponse](t, rec); body.Code != "AUTH002" {
		t.Errorf("code = %q, want AUTH002", body.Code)
	}
}

func TestServer_LoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		form     url.Values
		wantCode string
		wantHTTP int
	}{
		{"wrong password", url.Values{"email": {testEmail}, "password": {"nope123"}}, "AUTH001", http.StatusUnauthorized},
		{"missing password", url.Values{"email": {testEmail}}, "AUTH003", http.StatusBadRequest},
		{"not an email", url.Values{"email": {"ops"}, "password": {testPassword}}, "AUTH003", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := env.do(req)
			if rec.Code != tt.wantHTTP {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantHTTP)
			}
			if !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body does not mention %s", tt.wantCode)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("failed sign in set a cookie")
			}
		})
	}
	if env.sessions.Len() != 0 {
		t.Errorf("sessions = %d, want 0", env.sessions.Len())
	}
}

func TestServer_LoginAndLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), testEmail) {
		t.Error("menu does not show the operator")
	}
	if !strings.Contains(rec.Body.String(), "/import/makers") {
		t.Error("menu does not link the makers import")
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /logout status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if env.sessions.Len() != 0 {
		t.Errorf("sessions after logout = %d, want 0", env.sessions.Len())
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("GET / after logout status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestServer_ImportAndList(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t)

	rec := env.do(uploadRequest(t, "makers", "file", "makers.csv", "名称コード,名称,索引\nM1,東洋,トウヨウ\n,空行,\nM2,北村,キタムラ\n"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("import status = %d, want %d; body %s", rec.Code, http.StatusAccepted, rec.Body)
	}
	runID := decode[map[string]string](t, rec)["run_id"]
	if runID == "" {
		t.Fatal("import response has no run_id")
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/"+runID+"/result?wait=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d, want %d", rec.Code, http.StatusOK)
	}
	res := decode[core.Result](t, rec)
	if res.Phase != core.PhaseComplete {
		t.Fatalf("phase = %v, want complete (error %q)", res.Phase, res.Error)
	}
	if res.Written != 2 || res.Skipped != 1 {
		t.Errorf("written, skipped = %d, %d, want 2, 1", res.Written, res.Skipped)
	}
	if want := "メーカーインポート完了: 2件"; res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/"+runID+"/progress?after=0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d, want %d", rec.Code, http.StatusOK)
	}
	if p := decode[core.Progress](t, rec); p.Phase != core.PhaseComplete {
		t.Errorf("progress phase = %v, want complete", p.Phase)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/list/makers?q="+url.QueryEscape("キタ"), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	list := decode[listView](t, rec)
	if len(list.Rows) != 1 || list.Rows[0].Key != "M2" {
		t.Fatalf("rows = %+v, want only M2", list.Rows)
	}
	if got := list.Rows[0].Cells[1]; got != "北村" {
		t.Errorf("name cell = %q, want 北村", got)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/list/makers/M1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d, want %d", rec.Code, http.StatusOK)
	}
	detail := decode[detailView](t, rec)
	if detail.Name != "東洋" {
		t.Errorf("detail name = %q, want 東洋", detail.Name)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/history?entity=makers", nil))
	runs := decode[[]core.RunRecord](t, rec)
	if len(runs) != 1 || runs[0].Operator != testEmail {
		t.Errorf("history = %+v, want one run by %s", runs, testEmail)
	}
}

func TestServer_ImportErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t)

	tests := []struct {
		name     string
		req      *http.Request
		wantHTTP int
		wantCode string
	}{
		{"no file", uploadRequest(t, "makers", "", "", ""), http.StatusBadRequest, "FILE004"},
		{"wrong field", uploadRequest(t, "makers", "upload", "m.csv", "a\n"), http.StatusBadRequest, "FILE004"},
		{"empty file", uploadRequest(t, "makers", "file", "m.csv", ""), http.StatusBadRequest, "FILE005"},
		{"unknown entity", uploadRequest(t, "widgets", "file", "m.csv", "a\n"), http.StatusNotFound, "ENT001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.req)
			if rec.Code != tt.wantHTTP {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantHTTP)
			}
			if body := decode[ErrorResponse](t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/missing/result", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown run status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServer_Preview(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t)

	req := uploadRequest(t, "makers", "file", "makers.csv", "名称コード,名称\nM1,東洋\n,空行\nM2,北村\nM3,川島\n")
	req.URL.Path += "/preview"
	req.URL.RawQuery = "limit=2"

	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body)
	}
	view := decode[previewView](t, rec)
	if view.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", view.Skipped)
	}
	if len(view.Rows) != 2 || view.Rows[0].Key != "M1" || view.Rows[1].Key != "M2" {
		t.Fatalf("rows = %+v, want M1 and M2", view.Rows)
	}
	if got := view.Rows[1].Doc["name"]; got != "北村" {
		t.Errorf("M2 name = %v, want 北村", got)
	}
	if n := env.store.Len("makers"); n != 0 {
		t.Errorf("preview wrote %d documents, want 0", n)
	}
}

func TestServer_ProgressStreamEndsWithResult(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signIn(t)

	rec := env.do(uploadRequest(t, "makers", "file", "makers.csv", "名称コード,名称\nM1,東洋\n"))
	runID := decode[map[string]string](t, rec)["run_id"]
	if _, err := env.service.Result(context.Background(), runID); err != nil {
		t.Fatalf("Result() error = %v", err)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/import/runs/"+runID+"/progress", nil))
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}
	body := rec.Body.String()
	progress := strings.Index(body, "event: progress")
	complete := strings.Index(body, "event: complete")
	if progress < 0 || complete < progress {
		t.Fatalf("stream = %q, want a progress event followed by complete", body)
	}
	if !strings.Contains(body[complete:], "メーカーインポート完了: 1件") {
		t.Errorf("complete event does not carry the result message: %q", body[complete:])
	}
}

func TestServer_RateLimit(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		"RATE_LIMIT_ENABLED":             "true",
		"RATE_LIMIT_REQUESTS_PER_MINUTE": "2",
	})

	for i := 0; i < 2; i++ {
		if rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if body := decode[ErrorResponse](t, rec); body.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", body.Code)
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/list/makers", "/list/makers"},
		{"//evil.example", "/"},
		{`/\evil.example`, "/"},
		{"https://evil.example", "/"},
	}
	for _, tt := range tests {
		if got := safeNext(tt.in); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
