package server

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/boswallah/course-assistant/internal/dataset"
	"github.com/boswallah/course-assistant/internal/history"
	"github.com/boswallah/course-assistant/internal/index"
	"github.com/boswallah/course-assistant/internal/pipeline"
	"github.com/boswallah/course-assistant/models"
	"github.com/boswallah/course-assistant/tools/websearch"
)

// Handler serves the query API. The catalog pointer is swapped atomically on
// rebuild; everything else is fixed at construction.
type Handler struct {
	Pipeline   *pipeline.Pipeline
	Index      *index.Index
	History    history.Store
	Searcher   websearch.Searcher
	CoursesCSV string
	ChunkSize  int
	Logger     *log.Logger

	mu      sync.RWMutex
	catalog *dataset.Catalog
}

func NewHandler(p *pipeline.Pipeline, idx *index.Index, catalog *dataset.Catalog, hist history.Store, searcher websearch.Searcher, coursesCSV string, chunkSize int, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	return &Handler{
		Pipeline:   p,
		Index:      idx,
		History:    hist,
		Searcher:   searcher,
		CoursesCSV: coursesCSV,
		ChunkSize:  chunkSize,
		Logger:     logger,
		catalog:    catalog,
	}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/query", h.query)
	g.GET("/courses/suggest", h.suggest)
	g.GET("/courses/search", h.searchCourses)
	g.GET("/courses/language/:language", h.coursesByLanguage)
	g.GET("/status", h.status)
	g.POST("/rebuild", h.rebuild)
	g.GET("/history/:session", h.historyGet)
	g.DELETE("/history/:session", h.historyClear)
}

func (h *Handler) query(c echo.Context) error {
	var req struct {
		Query     string `json:"query"`
		SessionID string `json:"sessionId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	result := h.Pipeline.Process(c.Request().Context(), req.Query, req.SessionID)
	queryDuration.Observe(time.Since(start).Seconds())
	if result.Success {
		queriesTotal.WithLabelValues("success").Inc()
	} else {
		queriesTotal.WithLabelValues("failure").Inc()
	}
	if result.WebSearchTriggered {
		webSearchTriggeredTotal.Inc()
	}

	// Failures still answer 200 with the structured result; the result body
	// is the contract, not the HTTP status.
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) suggest(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit := intParam(c, "limit", 5)
	titles := h.Pipeline.SimilarCourses(c.Request().Context(), q, limit)
	return c.JSON(http.StatusOK, map[string]interface{}{"query": q, "suggestions": titles})
}

func (h *Handler) searchCourses(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	k := intParam(c, "k", 5)
	courses, err := h.currentCatalog().SearchCourses(q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"query": q, "courses": courses})
}

func (h *Handler) coursesByLanguage(c echo.Context) error {
	language := c.Param("language")
	courses := h.currentCatalog().CoursesByLanguage(language)
	if courses == nil {
		courses = []models.Course{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"language": language, "courses": courses})
}

func (h *Handler) status(c echo.Context) error {
	stats := h.currentCatalog().Stats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"totalCourses":     stats.TotalCourses,
		"languages":        stats.Languages,
		"indexedChunks":    h.Index.Count(),
		"webSearchEnabled": h.Searcher.Enabled(),
	})
}

// rebuild reloads the CSV and re-embeds every chunk. Queries block on the
// index write lock for the duration.
func (h *Handler) rebuild(c echo.Context) error {
	courses, err := dataset.LoadCourses(h.CoursesCSV)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	catalog, err := dataset.NewCatalog(courses)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	chunks := dataset.BuildChunks(courses, h.ChunkSize)
	if err := h.Index.Rebuild(c.Request().Context(), chunks); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.mu.Lock()
	h.catalog = catalog
	h.mu.Unlock()

	h.Logger.Printf("rebuilt: %d courses, %d chunks", len(courses), len(chunks))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"courses": len(courses),
		"chunks":  len(chunks),
	})
}

func (h *Handler) historyGet(c echo.Context) error {
	session := c.Param("session")
	limit := intParam(c, "limit", 0)
	msgs, err := h.History.Recent(c.Request().Context(), session, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session": session, "messages": msgs})
}

func (h *Handler) historyClear(c echo.Context) error {
	session := c.Param("session")
	if err := h.History.Clear(c.Request().Context(), session); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) currentCatalog() *dataset.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

func intParam(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
