package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// stubIndex replays canned results regardless of the query vector.
type stubIndex struct {
	results    []vectorstore.Result
	lastK      int
	lastFilter vectorstore.Filter
}

func (s *stubIndex) Add(context.Context, []vectorstore.Entry) error { return nil }

func (s *stubIndex) Query(_ context.Context, _ []float32, k int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	s.lastK = k
	s.lastFilter = filter
	if len(s.results) > k {
		return s.results[:k], nil
	}
	return s.results, nil
}

func (s *stubIndex) GetByFilter(context.Context, vectorstore.Filter) ([]vectorstore.Entry, error) {
	return nil, nil
}

func (s *stubIndex) Delete(context.Context, []string) error { return nil }

func result(id string, distance float64) vectorstore.Result {
	return vectorstore.Result{ID: id, Text: "text of " + id, Distance: distance}
}

func TestSearchAppliesThresholdAndRank(t *testing.T) {
	// two candidates at similarity 0.9 and 0.5, threshold 0.7: only the 0.9
	// one survives, ranked first
	index := &stubIndex{results: []vectorstore.Result{
		result("a_chunk_0", 0.1),
		result("b_chunk_0", 0.5),
	}}
	e := New(index, fixedEmbedder{})

	matches, err := e.Search(context.Background(), "query", 5, nil, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "text of a_chunk_0", matches[0].Content)
	assert.Equal(t, 1, matches[0].Rank)
	assert.InDelta(t, 0.9, matches[0].Similarity, 1e-9)
	assert.Equal(t, 5, index.lastK)
}

func TestSearchThresholdIsInclusive(t *testing.T) {
	index := &stubIndex{results: []vectorstore.Result{
		result("a_chunk_0", 0.3), // similarity exactly 0.7
		result("b_chunk_0", 0.31),
	}}
	e := New(index, fixedEmbedder{})

	matches, err := e.Search(context.Background(), "query", 5, nil, 0.7)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.7, matches[0].Similarity, 1e-9)
}

func TestSearchRanksInDistanceOrder(t *testing.T) {
	index := &stubIndex{results: []vectorstore.Result{
		result("a_chunk_0", 0.05),
		result("b_chunk_0", 0.1),
		result("c_chunk_0", 0.2),
	}}
	e := New(index, fixedEmbedder{})

	matches, err := e.Search(context.Background(), "query", 5, nil, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, i+1, m.Rank)
	}
	assert.True(t, matches[0].Similarity >= matches[1].Similarity)
	assert.True(t, matches[1].Similarity >= matches[2].Similarity)
}

func TestSearchClampsSimilarity(t *testing.T) {
	index := &stubIndex{results: []vectorstore.Result{
		result("a_chunk_0", -0.2), // backend rounding artifacts
		result("b_chunk_0", 1.4),
	}}
	e := New(index, fixedEmbedder{})

	matches, err := e.Search(context.Background(), "query", 5, nil, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 1.0, matches[0].Similarity)
	assert.Equal(t, 0.0, matches[1].Similarity)
}

func TestSearchValidation(t *testing.T) {
	e := New(&stubIndex{}, fixedEmbedder{})

	_, err := e.Search(context.Background(), "query", 0, nil, 0.7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, err = e.Search(context.Background(), "   ", 5, nil, 0.7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	e := New(&stubIndex{}, fixedEmbedder{})

	matches, err := e.Search(context.Background(), "query", 5, nil, 0.7)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchPassesTenantFilter(t *testing.T) {
	index := &stubIndex{}
	e := New(index, fixedEmbedder{})

	_, err := e.Search(context.Background(), "query", 5, []string{"tenant-1", "tenant-2"}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, []string{"tenant-1", "tenant-2"}, index.lastFilter.TenantIDs)
}
