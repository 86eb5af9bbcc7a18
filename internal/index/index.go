// Package index persists course chunks with their embeddings and serves
// brute-force cosine similarity search. The corpus is small (hundreds of
// chunks), so every vector is kept in memory and bbolt only provides
// durability across restarts.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/boswallah/course-assistant/models"
)

var bucketChunks = []byte("chunks")

const embedBatchSize = 64

// Embedder is the slice of the LLM provider the index needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type entry struct {
	chunk  models.DocumentChunk
	vector []float32
}

type storedChunk struct {
	Chunk  models.DocumentChunk `json:"chunk"`
	Vector []float32            `json:"vector"`
}

// Index is a bbolt-backed vector index. Queries take the read lock; Rebuild
// takes the write lock, making it an exclusive stop-the-world operation.
type Index struct {
	db       *bbolt.DB
	embedder Embedder
	logger   *log.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// Open opens (or creates) the index file at path and loads all stored
// vectors into memory.
func Open(path string, embedder Embedder, logger *log.Logger) (*Index, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chunks bucket: %w", err)
	}

	idx := &Index{
		db:       db,
		embedder: embedder,
		logger:   logger,
		entries:  make(map[string]entry),
	}
	if err := idx.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	logger.Printf("index opened with %d chunks", len(idx.entries))
	return idx, nil
}

func (idx *Index) load() error {
	return idx.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			idx.entries[string(k)] = entry{chunk: stored.Chunk, vector: stored.Vector}
			return nil
		})
	})
}

func (idx *Index) Close() error { return idx.db.Close() }

// Count returns the number of stored chunks.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Upsert embeds the chunks and stores them. Called at build time only; it is
// not safe to interleave with Rebuild, which holds the write lock itself.
func (idx *Index) Upsert(ctx context.Context, chunks []models.DocumentChunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.upsertLocked(ctx, chunks)
}

func (idx *Index) upsertLocked(ctx context.Context, chunks []models.DocumentChunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := idx.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("expected %d vectors, got %d", len(batch), len(vecs))
		}

		err = idx.db.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket(bucketChunks)
			if b == nil {
				return fmt.Errorf("chunks bucket not found")
			}
			for i, c := range batch {
				data, err := json.Marshal(storedChunk{Chunk: c, Vector: vecs[i]})
				if err != nil {
					return err
				}
				if err := b.Put([]byte(c.ID), data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		for i, c := range batch {
			idx.entries[c.ID] = entry{chunk: c, vector: vecs[i]}
		}
	}
	return nil
}

// Rebuild re-indexes the corpus from scratch while holding the write lock,
// so no query observes a partially built index. The replacement set is fully
// embedded before the stored corpus is touched: an embedding failure (or a
// cancelled context) leaves the previous index serving unchanged.
func (idx *Index) Rebuild(ctx context.Context, chunks []models.DocumentChunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	stored := make([]storedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vecs, err := idx.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("expected %d vectors, got %d", len(batch), len(vecs))
		}
		for i, c := range batch {
			stored = append(stored, storedChunk{Chunk: c, Vector: vecs[i]})
		}
	}

	err := idx.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketChunks) != nil {
			if err := tx.DeleteBucket(bucketChunks); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}
		for _, s := range stored {
			data, err := json.Marshal(s)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(s.Chunk.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to swap chunks bucket: %w", err)
	}

	entries := make(map[string]entry, len(stored))
	for _, s := range stored {
		entries[s.Chunk.ID] = entry{chunk: s.Chunk, vector: s.Vector}
	}
	idx.entries = entries
	idx.logger.Printf("rebuilt index with %d chunks", len(idx.entries))
	return nil
}

// SimilaritySearch embeds text and returns the k most similar chunks, best
// first. Equal scores break ties by chunk ID so results are stable for an
// unchanged index and query.
func (idx *Index) SimilaritySearch(ctx context.Context, text string, k int) ([]models.DocumentChunk, error) {
	vecs, err := idx.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vecs))
	}
	queryVec := vecs[0]

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		id    string
		score float64
	}
	scoreds := make([]scored, 0, len(idx.entries))
	for id, e := range idx.entries {
		scoreds = append(scoreds, scored{id: id, score: cosine(queryVec, e.vector)})
	}
	sort.Slice(scoreds, func(i, j int) bool {
		if scoreds[i].score != scoreds[j].score {
			return scoreds[i].score > scoreds[j].score
		}
		return scoreds[i].id < scoreds[j].id
	})

	if k < 0 {
		k = 0
	}
	if k > len(scoreds) {
		k = len(scoreds)
	}
	out := make([]models.DocumentChunk, 0, k)
	for _, s := range scoreds[:k] {
		out = append(out, idx.entries[s.id].chunk)
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
