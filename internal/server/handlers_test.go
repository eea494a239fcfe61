package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperjump/docread/internal/config"
	"github.com/hyperjump/docread/internal/extract"
	"github.com/hyperjump/docread/internal/output"
	"go.uber.org/zap"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

// stubConverter stands in for antiword.
type stubConverter struct {
	out []byte
	err error
}

func (c stubConverter) Convert(context.Context, string) ([]byte, error) {
	return c.out, c.err
}

func newTestServer(t *testing.T, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	cfg := config.Default()
	ex := extract.NewExtractor(extract.WithConverter(stubConverter{err: &extract.ExitError{Code: 1, Stderr: "boom"}}))
	s := NewServer(ex, cfg, zap.NewNop(), opts...)
	return s, s.Router()
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHandleExtract_success(t *testing.T) {
	_, h := newTestServer(t)
	path := writeFile(t, "hello.txt", "Hello")
	rec := do(t, h, http.MethodPost, "/api/v1/extract", map[string]string{"path": path})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	m := decode(t, rec)
	if m["text"] != "Hello" || m["path"] != path {
		t.Errorf("response = %v", m)
	}
	if _, err := uuid.Parse(m["id"].(string)); err != nil {
		t.Errorf("id is not a uuid: %v", m["id"])
	}
	if _, ok := m["error"]; ok {
		t.Error("success should not carry error")
	}
}

func TestHandleExtract_emptyTextStillPresent(t *testing.T) {
	_, h := newTestServer(t)
	path := writeFile(t, "empty.txt", "")
	rec := do(t, h, http.MethodPost, "/api/v1/extract", map[string]string{"path": path})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode(t, rec)
	if text, ok := m["text"]; !ok || text != "" {
		t.Errorf("empty text should be present, got %v", m)
	}
}

func TestHandleExtract_errors(t *testing.T) {
	_, h := newTestServer(t)
	tests := []struct {
		name   string
		path   string
		status int
		kind   extract.Kind
	}{
		{"unsupported", "/docs/memo.pdf", http.StatusUnsupportedMediaType, extract.KindUnsupportedFormat},
		{"missing", filepath.Join(t.TempDir(), "none.txt"), http.StatusNotFound, extract.KindIO},
		{"bad docx", writeFile(t, "bad.docx", "not a zip"), http.StatusUnprocessableEntity, extract.KindContainerParse},
		{"converter", writeFile(t, "old.doc", "\xd0\xcf"), http.StatusBadGateway, extract.KindConverter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/extract", map[string]string{"path": tt.path})
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			m := decode(t, rec)
			e, ok := m["error"].(map[string]interface{})
			if !ok {
				t.Fatalf("missing error object: %v", m)
			}
			if e["kind"] != string(tt.kind) || e["message"] == "" {
				t.Errorf("error = %v", e)
			}
			if _, ok := m["text"]; ok {
				t.Error("failure should not carry text")
			}
		})
	}
}

func TestHandleExtract_badRequest(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/extract", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty path status = %d", rec.Code)
	}
}

func TestStatusForKind(t *testing.T) {
	wrapped := &extract.Error{Kind: extract.KindIO, Err: os.ErrPermission}
	if got := statusForKind(extract.KindIO, wrapped); got != http.StatusInternalServerError {
		t.Errorf("permission io error = %d", got)
	}
	if got := statusForKind(extract.KindInternal, errors.New("x")); got != http.StatusInternalServerError {
		t.Errorf("internal = %d", got)
	}
	if got := statusForKind(extract.KindEncodingUndetectable, nil); got != http.StatusUnprocessableEntity {
		t.Errorf("encoding = %d", got)
	}
}

func TestHandleClassify(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/v1/classify", map[string]string{"path": "a/Report.DOCX"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode(t, rec)
	if m["category"] != "word_document" || m["sub_format"] != "docx" || m["path"] != "a/Report.DOCX" {
		t.Errorf("single = %v", m)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/classify", map[string][]string{"paths": {"x.txt", "y.pdf"}})
	var list []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0]["category"] != "plain_text" || list[1]["category"] != "unsupported" {
		t.Errorf("list = %v", list)
	}
	if list[1]["reason"] == "" {
		t.Error("unsupported entry should have a reason")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/classify", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty classify status = %d", rec.Code)
	}
}

func TestHandleFormatsAndHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/formats", nil)
	m := decode(t, rec)
	exts, _ := m["extensions"].([]interface{})
	if len(exts) != 3 {
		t.Errorf("extensions = %v", m["extensions"])
	}
	rec = do(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "ok" {
		t.Errorf("health = %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	ws := &mockWatchService{dirs: []string{"/docs"}}
	_, h := newTestServer(t,
		WithWatch(ws, ""),
		WithStats(func() output.Stats { return output.Stats{Extracted: 3, Failed: 1} }))
	rec := do(t, h, http.MethodGet, "/api/v1/status", nil)
	m := decode(t, rec)
	cfg, ok := m["config"].(map[string]interface{})
	if !ok || cfg["converter_timeout"] != "1m0s" || cfg["converter_available"] != false {
		t.Errorf("config = %v", m["config"])
	}
	stats, ok := m["watch_stats"].(map[string]interface{})
	if !ok || stats["extracted"] != float64(3) || stats["failed"] != float64(1) {
		t.Errorf("watch_stats = %v", m["watch_stats"])
	}
}

func TestHandleWatchDirectories_notEnabled(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/watch/directories", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleWatchDirectories_addListRemovePersist(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	ws := &mockWatchService{}
	s, h := newTestServer(t, WithWatch(ws, cfgPath))
	dir := t.TempDir()

	rec := do(t, h, http.MethodPost, "/api/v1/watch/directories", map[string]interface{}{"path": dir, "sync": false})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/api/v1/watch/directories", nil)
	dirs, _ := decode(t, rec)["directories"].([]interface{})
	if len(dirs) != 1 || dirs[0] != dir {
		t.Errorf("directories = %v", dirs)
	}
	saved, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("config not persisted: %v", err)
	}
	if len(saved.Watch.Directories) != 1 || saved.Watch.Directories[0] != dir {
		t.Errorf("persisted directories = %v", saved.Watch.Directories)
	}
	if len(s.config.Watch.Directories) != 1 {
		t.Error("in-memory config should track directories")
	}

	rec = do(t, h, http.MethodDelete, "/api/v1/watch/directories?path="+dir, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d", rec.Code)
	}
	if len(ws.dirs) != 0 {
		t.Errorf("after remove: %v", ws.dirs)
	}
}

func TestHandleWatchDirectoriesAdd_validation(t *testing.T) {
	_, h := newTestServer(t, WithWatch(&mockWatchService{}, ""))
	file := writeFile(t, "f.txt", "x")
	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"no path", map[string]string{}, http.StatusBadRequest},
		{"missing dir", map[string]string{"path": filepath.Join(t.TempDir(), "nope")}, http.StatusNotFound},
		{"not a dir", map[string]string{"path": file}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/watch/directories", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
