package server

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boswallah/course-assistant/internal/dataset"
	"github.com/boswallah/course-assistant/internal/history"
	"github.com/boswallah/course-assistant/internal/index"
	"github.com/boswallah/course-assistant/internal/language"
	"github.com/boswallah/course-assistant/internal/pipeline"
	"github.com/boswallah/course-assistant/models"
	"github.com/boswallah/course-assistant/tools/websearch"
)

const testCSV = `Course No,Course Title,Course Description,Who This Course is For,Released Languages
1,Dairy Farming Basics,Feeding and milking for small dairy farms.,Aspiring dairy farmers,"6, 24"
2,Papaya Cultivation,Commercial papaya growing techniques.,Farmers,"20,21"
`

type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, 8)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := fnv.New32a()
			h.Write([]byte(w))
			vec[h.Sum32()%8]++
		}
		out[i] = vec
	}
	return out, nil
}

type echoTranslator struct{}

func (echoTranslator) Robust(_ context.Context, text, _, _ string) string { return text }

type staticGenerator struct{ text string }

func (g staticGenerator) Draft(context.Context, string, []models.DocumentChunk) string {
	return g.text
}

func (g staticGenerator) Enhanced(context.Context, string, []models.DocumentChunk, []models.WebResult, string) string {
	return g.text
}

type noEscalate struct{}

func (noEscalate) ShouldEscalate(string, []models.DocumentChunk, string) (bool, string) {
	return false, ""
}

func setupHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "courses.csv")
	if err := os.WriteFile(csvPath, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	courses, err := dataset.LoadCourses(csvPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	catalog, err := dataset.NewCatalog(courses)
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}

	idx, err := index.Open(filepath.Join(dir, "index.db"), hashEmbedder{}, nil)
	if err != nil {
		t.Fatalf("index open failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	chunks := dataset.BuildChunks(courses, 200)
	if err := idx.Upsert(context.Background(), chunks); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	hist := history.NewMemoryStore(time.Hour, 50)
	searcher := websearch.Disabled{}
	pipe := pipeline.New(language.NewDetector(), echoTranslator{},
		index.NewRetriever(idx, 3, nil), staticGenerator{text: "a course answer"},
		noEscalate{}, searcher, hist, 3, nil)

	h := NewHandler(pipe, idx, catalog, hist, searcher, csvPath, 200, nil)
	e := echo.New()
	h.Register(e.Group("/api"))
	return h, e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, parsed
}

func TestQueryEndpoint(t *testing.T) {
	_, e := setupHandler(t)

	rec, body := doJSON(t, e, http.MethodPost, "/api/query", `{"query":"dairy feeding"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("expected success, got %v", body)
	}
	if body["answer"] != "a course answer" {
		t.Fatalf("unexpected answer: %v", body["answer"])
	}
	if body["languageCode"] != "en" {
		t.Fatalf("expected en, got %v", body["languageCode"])
	}
}

func TestQueryEndpoint_EmptyQueryStructuredFailure(t *testing.T) {
	_, e := setupHandler(t)

	rec, body := doJSON(t, e, http.MethodPost, "/api/query", `{"query":"  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with structured failure, got %d", rec.Code)
	}
	if body["success"] != false || body["error"] != "Empty query provided" {
		t.Fatalf("expected structured empty-query failure, got %v", body)
	}
}

func TestSuggestEndpoint(t *testing.T) {
	_, e := setupHandler(t)

	rec, _ := doJSON(t, e, http.MethodGet, "/api/courses/suggest", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rec.Code)
	}

	rec, body := doJSON(t, e, http.MethodGet, "/api/courses/suggest?q=dairy+feeding+milking", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := body["suggestions"].([]interface{}); !ok {
		t.Fatalf("expected suggestions array, got %v", body)
	}
}

func TestCourseSearchEndpoint(t *testing.T) {
	_, e := setupHandler(t)

	rec, body := doJSON(t, e, http.MethodGet, "/api/courses/search?q=papaya", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	courses, ok := body["courses"].([]interface{})
	if !ok || len(courses) == 0 {
		t.Fatalf("expected papaya course hit, got %v", body)
	}
}

func TestCoursesByLanguageEndpoint(t *testing.T) {
	_, e := setupHandler(t)

	rec, body := doJSON(t, e, http.MethodGet, "/api/courses/language/Hindi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	courses := body["courses"].([]interface{})
	if len(courses) != 1 {
		t.Fatalf("expected 1 Hindi course, got %v", body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, e := setupHandler(t)

	rec, body := doJSON(t, e, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["totalCourses"] != float64(2) {
		t.Fatalf("expected 2 courses, got %v", body["totalCourses"])
	}
	if body["indexedChunks"] == float64(0) {
		t.Fatalf("expected indexed chunks, got %v", body["indexedChunks"])
	}
	if body["webSearchEnabled"] != false {
		t.Fatalf("expected web search disabled, got %v", body["webSearchEnabled"])
	}
}

func TestRebuildEndpoint(t *testing.T) {
	_, e := setupHandler(t)

	rec, body := doJSON(t, e, http.MethodPost, "/api/rebuild", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["courses"] != float64(2) {
		t.Fatalf("expected 2 courses rebuilt, got %v", body)
	}
	if body["chunks"] == float64(0) {
		t.Fatalf("expected chunks rebuilt, got %v", body)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	h, e := setupHandler(t)

	msg := models.ChatMessage{Role: "user", Content: "hello", Time: time.Now()}
	if err := h.History.Append(context.Background(), "sess-1", msg); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	rec, body := doJSON(t, e, http.MethodGet, "/api/history/sess-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	msgs := body["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %v", body)
	}

	rec, _ = doJSON(t, e, http.MethodDelete, "/api/history/sess-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	_, body = doJSON(t, e, http.MethodGet, "/api/history/sess-1", "")
	if msgs := body["messages"].([]interface{}); len(msgs) != 0 {
		t.Fatalf("expected cleared history, got %v", body)
	}
}
