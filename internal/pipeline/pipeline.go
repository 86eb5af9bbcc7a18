// Package pipeline runs a question end to end: detect the language,
// translate to English, retrieve course context, draft an answer, decide on
// web escalation, optionally enhance with web results, and translate the
// answer back. Every stage degrades rather than fails; the only hard error
// a caller can see is an empty query.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/boswallah/course-assistant/internal/escalate"
	"github.com/boswallah/course-assistant/internal/history"
	"github.com/boswallah/course-assistant/internal/language"
	"github.com/boswallah/course-assistant/models"
	"github.com/boswallah/course-assistant/tools/websearch"
)

// Narrow views of the collaborators, sized to what the pipeline calls. The
// concrete implementations live in internal/translate, internal/index,
// internal/answer and internal/escalate.
type (
	Translator interface {
		Robust(ctx context.Context, text, target, source string) string
	}
	Retriever interface {
		Retrieve(ctx context.Context, query string) []models.DocumentChunk
	}
	Generator interface {
		Draft(ctx context.Context, query string, docs []models.DocumentChunk) string
		Enhanced(ctx context.Context, query string, docs []models.DocumentChunk, webResults []models.WebResult, draft string) string
	}
	Escalator interface {
		ShouldEscalate(query string, docs []models.DocumentChunk, draft string) (bool, string)
	}
)

var _ Escalator = (*escalate.Policy)(nil)

// Pipeline wires the stages together. All collaborators are injected;
// history is optional and best-effort.
type Pipeline struct {
	detector      *language.Detector
	translator    Translator
	retriever     Retriever
	generator     Generator
	policy        Escalator
	searcher      websearch.Searcher
	history       history.Store
	maxWebResults int
	logger        *log.Logger
}

func New(
	detector *language.Detector,
	translator Translator,
	retriever Retriever,
	generator Generator,
	policy Escalator,
	searcher websearch.Searcher,
	hist history.Store,
	maxWebResults int,
	logger *log.Logger,
) *Pipeline {
	if maxWebResults <= 0 {
		maxWebResults = 3
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPE] ", log.LstdFlags)
	}
	return &Pipeline{
		detector:      detector,
		translator:    translator,
		retriever:     retriever,
		generator:     generator,
		policy:        policy,
		searcher:      searcher,
		history:       hist,
		maxWebResults: maxWebResults,
		logger:        logger,
	}
}

// Process answers one query. sessionID may be empty; when set, the exchange
// is appended to that session's history.
func (p *Pipeline) Process(ctx context.Context, query, sessionID string) (result models.QueryResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Printf("stage=panic recovered=%v", r)
			result = models.FailureResult(query, fmt.Sprintf("internal error: %v", r))
		}
	}()

	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return models.FailureResult(query, models.ErrEmptyQuery.Error())
	}
	p.logger.Printf("stage=received query=%q session=%q", query, sessionID)

	code := p.detector.Detect(query)
	confidence := p.detector.Confidence(query, code)
	langName := language.Name(code)
	p.logger.Printf("stage=language_detected code=%s confidence=%.2f", code, confidence)

	englishQuery := query
	if code != "en" {
		englishQuery = p.translator.Robust(ctx, query, "en", code)
	}
	p.logger.Printf("stage=query_translated english=%q", englishQuery)

	docs := p.retriever.Retrieve(ctx, englishQuery)
	p.logger.Printf("stage=retrieved docs=%d", len(docs))

	draft := p.generator.Draft(ctx, englishQuery, docs)
	p.logger.Printf("stage=drafted chars=%d", len(draft))

	englishAnswer := draft
	webTriggered := false
	var webResults []models.WebResult
	if escalateNow, rule := p.policy.ShouldEscalate(englishQuery, docs, draft); escalateNow {
		p.logger.Printf("stage=escalation_checked escalate=true rule=%s", rule)
		webTriggered = true
		results, err := p.searcher.Search(ctx, englishQuery, p.maxWebResults)
		if err != nil {
			p.logger.Printf("stage=web_searched error=%v", err)
		} else {
			webResults = results
		}
		p.logger.Printf("stage=web_searched results=%d", len(webResults))
		if len(webResults) > 0 {
			englishAnswer = p.generator.Enhanced(ctx, englishQuery, docs, webResults, draft)
			p.logger.Printf("stage=enhanced chars=%d", len(englishAnswer))
		}
	} else {
		p.logger.Printf("stage=escalation_checked escalate=false")
	}

	answer := englishAnswer
	if code != "en" {
		answer = p.translator.Robust(ctx, englishAnswer, code, "en")
	}
	p.logger.Printf("stage=response_translated code=%s", code)

	result = models.QueryResult{
		Success:               true,
		Query:                 query,
		DetectedLanguage:      langName,
		LanguageCode:          code,
		Confidence:            confidence,
		EnglishQuery:          englishQuery,
		EnglishAnswer:         englishAnswer,
		Answer:                answer,
		RetrievedDocsCount:    len(docs),
		RetrievedDocs:         docContents(docs),
		WebSearchTriggered:    webTriggered,
		WebSearchResultsCount: len(webResults),
		WebSearchSources:      websearch.Sources(webResults),
	}

	p.record(ctx, sessionID, query, answer, langName)
	p.logger.Printf("stage=completed duration=%s", time.Since(start).Round(time.Millisecond))
	return result
}

// SimilarCourses returns distinct course titles whose chunks match the
// query, in retrieval order. Used by the suggestion endpoint.
func (p *Pipeline) SimilarCourses(ctx context.Context, query string, limit int) []string {
	if strings.TrimSpace(query) == "" {
		return []string{}
	}
	docs := p.retriever.Retrieve(ctx, query)
	seen := map[string]bool{}
	titles := []string{}
	for _, d := range docs {
		title := d.Metadata.CourseTitle
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
		if limit > 0 && len(titles) >= limit {
			break
		}
	}
	return titles
}

// record appends the exchange to session history. Failures are logged and
// swallowed; history never breaks a query.
func (p *Pipeline) record(ctx context.Context, sessionID, query, answer, langName string) {
	if p.history == nil || sessionID == "" {
		return
	}
	now := time.Now()
	userMsg := models.ChatMessage{Role: "user", Content: query, Language: langName, Time: now}
	botMsg := models.ChatMessage{Role: "assistant", Content: answer, Language: langName, Time: now}
	if err := p.history.Append(ctx, sessionID, userMsg); err != nil {
		p.logger.Printf("stage=history error=%v", err)
		return
	}
	if err := p.history.Append(ctx, sessionID, botMsg); err != nil {
		p.logger.Printf("stage=history error=%v", err)
	}
}

func docContents(docs []models.DocumentChunk) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}
