package models

import (
	"errors"
	"time"
)

// ErrEmptyQuery is returned when a request carries no usable query text.
var ErrEmptyQuery = errors.New("Empty query provided")

// ErrNotReady is returned when the pipeline is asked to serve before the
// index has been built or loaded.
var ErrNotReady = errors.New("pipeline not initialized")

// Query is the immutable per-request view of what the user asked.
type Query struct {
	Text         string  `json:"text"`
	LanguageCode string  `json:"language_code"`
	LanguageName string  `json:"language_name"`
	Confidence   float64 `json:"confidence"`
}

// Course is one row of the course catalog.
type Course struct {
	No          int      `json:"course_no"`
	Title       string   `json:"course_title"`
	Description string   `json:"description"`
	Audience    string   `json:"who_for"`
	Languages   []string `json:"released_languages"`
}

// ChunkMetadata identifies the course a chunk was cut from.
type ChunkMetadata struct {
	CourseNo    int    `json:"course_no"`
	CourseTitle string `json:"course_title"`
	Audience    string `json:"who_for"`
	Languages   string `json:"released_languages"`
}

// DocumentChunk is one retrievable unit of the vector index. Chunks are
// created at index-build time and never mutated afterwards.
type DocumentChunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// WebResult is a single item from the web search collaborator. It lives only
// for the request that produced it.
type WebResult struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
}

// QueryResult is the stable contract handed back across the core boundary.
// It is always producible, including on failure.
type QueryResult struct {
	Success               bool     `json:"success"`
	Query                 string   `json:"query"`
	DetectedLanguage      string   `json:"detectedLanguage"`
	LanguageCode          string   `json:"languageCode"`
	Confidence            float64  `json:"confidence"`
	EnglishQuery          string   `json:"englishQuery"`
	EnglishAnswer         string   `json:"englishAnswer"`
	Answer                string   `json:"answer"`
	RetrievedDocsCount    int      `json:"retrievedDocsCount"`
	RetrievedDocs         []string `json:"retrievedDocs"`
	WebSearchTriggered    bool     `json:"webSearchTriggered"`
	WebSearchResultsCount int      `json:"webSearchResultsCount"`
	WebSearchSources      []string `json:"webSearchSources"`
	Error                 string   `json:"error,omitempty"`
}

// FailureResult builds the degraded result returned when a request cannot be
// served. All fields are left at their zero values except the ones a caller
// needs to render an error.
func FailureResult(query, errMsg string) QueryResult {
	return QueryResult{
		Success:          false,
		Query:            query,
		DetectedLanguage: "Unknown",
		Answer:           "Error: " + errMsg,
		Error:            errMsg,
		RetrievedDocs:    []string{},
		WebSearchSources: []string{},
	}
}

// ChatMessage is one entry of a session's persisted history.
type ChatMessage struct {
	Role     string    `json:"role"` // user or assistant
	Content  string    `json:"content"`
	Language string    `json:"language,omitempty"`
	Time     time.Time `json:"time"`
}
