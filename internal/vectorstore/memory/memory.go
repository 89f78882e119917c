// Package memory is an in-process vector index using brute-force cosine
// similarity. It backs the "memory" backend setting and the test suites.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"hybrid-rag/internal/vectorstore"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string]vectorstore.Entry
}

func New() *Store {
	return &Store{entries: make(map[string]vectorstore.Entry)}
}

// Add upserts entries by id.
func (s *Store) Add(ctx context.Context, entries []vectorstore.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return nil
}

// Query returns up to k entries matching filter, ascending by cosine distance.
func (s *Store) Query(ctx context.Context, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]vectorstore.Result, 0, k)
	for _, e := range s.entries {
		if !matches(e, filter) {
			continue
		}
		results = append(results, vectorstore.Result{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: e.Metadata,
			Distance: 1 - cosineSimilarity(vector, e.Vector),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// GetByFilter returns all matching entries, ordered by id for determinism.
func (s *Store) GetByFilter(ctx context.Context, filter vectorstore.Filter) ([]vectorstore.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []vectorstore.Entry
	for _, e := range s.entries {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes entries by id. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func matches(e vectorstore.Entry, f vectorstore.Filter) bool {
	if f.DocumentID != "" {
		if e.Metadata[vectorstore.MetaDocumentID].String() != f.DocumentID {
			return false
		}
	}
	if len(f.TenantIDs) > 0 {
		tenant := e.Metadata[vectorstore.MetaTenantID].String()
		found := false
		for _, t := range f.TenantIDs {
			if t == tenant {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
