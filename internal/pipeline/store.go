package pipeline

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fieldlens/fieldlens/internal/extract"
)

// ErrNotFound is returned for extraction ids that were never stored or have
// been deleted. Deleted ids are permanently invalid; ids are never reused.
var ErrNotFound = errors.New("extraction result not found")

type storedResult struct {
	result    *extract.ExtractionResult
	createdAt time.Time
}

// ResultStore maps extraction ids to validated results for the life of the
// process. Each id is written exactly once by the orchestrator and read-only
// afterwards; there is no persistence and no eviction.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]storedResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]storedResult),
	}
}

func (s *ResultStore) Put(id string, res *extract.ExtractionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = storedResult{result: res, createdAt: time.Now()}
}

func (s *ResultStore) Get(id string) (*extract.ExtractionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.result, nil
}

func (s *ResultStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return ErrNotFound
	}
	delete(s.results, id)
	return nil
}

// ResultSummary is the listing view of a stored result.
type ResultSummary struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"documentType"`
	FieldCount   int       `json:"fieldCount"`
	Failed       bool      `json:"failed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// List returns summaries of all stored results, newest first.
func (s *ResultStore) List() []ResultSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ResultSummary, 0, len(s.results))
	for id, entry := range s.results {
		out = append(out, ResultSummary{
			ID:           id,
			DocumentType: entry.result.DocumentType,
			FieldCount:   len(entry.result.ExtractedFields),
			Failed:       entry.result.Error != "",
			CreatedAt:    entry.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
