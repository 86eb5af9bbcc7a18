// Package server exposes the question-answering pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/boswallah/course-assistant/config"
	"github.com/boswallah/course-assistant/internal/answer"
	"github.com/boswallah/course-assistant/internal/dataset"
	"github.com/boswallah/course-assistant/internal/escalate"
	"github.com/boswallah/course-assistant/internal/history"
	"github.com/boswallah/course-assistant/internal/index"
	"github.com/boswallah/course-assistant/internal/language"
	"github.com/boswallah/course-assistant/internal/pipeline"
	"github.com/boswallah/course-assistant/internal/translate"
	"github.com/boswallah/course-assistant/models"
	"github.com/boswallah/course-assistant/provider"
	"github.com/boswallah/course-assistant/tools/websearch"
)

// Run wires every collaborator from configuration and serves until the
// listener fails.
func Run(cfg *config.Config, addr string) error {
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	llm, err := provider.NewProvider(provider.Gemini, cfg.LLM)
	if err != nil {
		return err
	}

	courses, err := dataset.LoadCourses(cfg.Storage.CoursesCSV)
	if err != nil {
		return fmt.Errorf("loading courses: %w", err)
	}
	catalog, err := dataset.NewCatalog(courses)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	idx, err := index.Open(cfg.Storage.IndexPath, llm, nil)
	if err != nil {
		return err
	}
	if idx.Count() == 0 {
		chunks := dataset.BuildChunks(courses, cfg.Retrieval.ChunkSize)
		baseLogger.Printf("empty index, building %d chunks", len(chunks))
		if err := idx.Rebuild(context.Background(), chunks); err != nil {
			return fmt.Errorf("building index: %w", err)
		}
	}
	if idx.Count() == 0 {
		return fmt.Errorf("%w: no course chunks indexed from %s", models.ErrNotReady, cfg.Storage.CoursesCSV)
	}

	hist, err := newHistoryStore(cfg.Storage)
	if err != nil {
		return err
	}

	translator := translate.NewTranslator(
		translate.NewGoogleEngine(cfg.Translation.Timeout), llm, cfg.Translation, nil)
	retriever := index.NewRetriever(idx, cfg.Retrieval.K, nil)
	generator := answer.NewGenerator(llm, nil)
	searcher := websearch.NewSearcher(cfg.WebSearch)
	policy := escalate.NewPolicy(cfg.WebSearch, cfg.Retrieval.InsufficientDocsLimit, searcher.Enabled)

	pipe := pipeline.New(language.NewDetector(), translator, retriever, generator,
		policy, searcher, hist, cfg.WebSearch.MaxResults, nil)

	handler := NewHandler(pipe, idx, catalog, hist, searcher,
		cfg.Storage.CoursesCSV, cfg.Retrieval.ChunkSize, baseLogger)
	handler.Register(e.Group("/api"))

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newHistoryStore prefers redis when an address is configured and falls back
// to the in-memory store otherwise.
func newHistoryStore(cfg config.StorageConfig) (history.Store, error) {
	if cfg.Redis.Addr == "" {
		return history.NewMemoryStore(cfg.HistoryTTL, cfg.MaxMessages), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", cfg.Redis.Addr, err)
	}
	return history.NewRedisStore(rdb, cfg.HistoryTTL, cfg.MaxMessages), nil
}
