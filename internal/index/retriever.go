package index

import (
	"context"
	"log"

	"github.com/boswallah/course-assistant/models"
)

// Searcher is what the retriever needs from the index; split out so tests
// can fake retrieval faults.
type Searcher interface {
	SimilaritySearch(ctx context.Context, text string, k int) ([]models.DocumentChunk, error)
}

// Retriever wraps the index with a fixed k and the degrade-to-empty
// contract: a retrieval fault yields zero documents, never an error, and
// zero documents is a valid state downstream (it triggers escalation).
type Retriever struct {
	index  Searcher
	k      int
	logger *log.Logger
}

func NewRetriever(index Searcher, k int, logger *log.Logger) *Retriever {
	if k <= 0 {
		k = 3
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	return &Retriever{index: index, k: k, logger: logger}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) []models.DocumentChunk {
	docs, err := r.index.SimilaritySearch(ctx, query, r.k)
	if err != nil {
		r.logger.Printf("retrieval failed: %v", err)
		return nil
	}
	return docs
}
