package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

func entry(id, docID, tenant string, vector []float32) vectorstore.Entry {
	return vectorstore.Entry{
		ID:     id,
		Vector: vector,
		Text:   "text of " + id,
		Metadata: map[string]models.IndexableValue{
			vectorstore.MetaDocumentID: models.String(docID),
			vectorstore.MetaTenantID:   models.String(tenant),
		},
	}
}

func TestQueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Add(ctx, []vectorstore.Entry{
		entry("a_chunk_0", "a", "", []float32{1, 0}),
		entry("b_chunk_0", "b", "", []float32{0, 1}),
		entry("c_chunk_0", "c", "", []float32{1, 1}),
	}))

	results, err := s.Query(ctx, []float32{1, 0}, 10, vectorstore.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a_chunk_0", results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-9)
	assert.Equal(t, "c_chunk_0", results[1].ID)
	assert.Equal(t, "b_chunk_0", results[2].ID)
}

func TestQueryRespectsK(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Add(ctx, []vectorstore.Entry{
		entry("a_chunk_0", "a", "", []float32{1, 0}),
		entry("b_chunk_0", "b", "", []float32{0, 1}),
	}))

	results, err := s.Query(ctx, []float32{1, 0}, 1, vectorstore.Filter{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTenantFilterIsSetMembership(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Add(ctx, []vectorstore.Entry{
		entry("a_chunk_0", "a", "tenant-1", []float32{1, 0}),
		entry("b_chunk_0", "b", "tenant-2", []float32{1, 0}),
		entry("c_chunk_0", "c", "tenant-3", []float32{1, 0}),
	}))

	results, err := s.Query(ctx, []float32{1, 0}, 10, vectorstore.Filter{TenantIDs: []string{"tenant-1", "tenant-3"}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "b_chunk_0", r.ID)
	}
}

func TestGetByFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Add(ctx, []vectorstore.Entry{
		entry("a_chunk_0", "a", "", []float32{1, 0}),
		entry("a_chunk_1", "a", "", []float32{1, 0}),
		entry("b_chunk_0", "b", "", []float32{1, 0}),
	}))

	entries, err := s.GetByFilter(ctx, vectorstore.Filter{DocumentID: "a"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, s.Delete(ctx, []string{"a_chunk_0", "a_chunk_1"}))
	entries, err = s.GetByFilter(ctx, vectorstore.Filter{DocumentID: "a"})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// deleting unknown ids is a no-op
	require.NoError(t, s.Delete(ctx, []string{"missing"}))
}

func TestAddUpserts(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Add(ctx, []vectorstore.Entry{entry("a_chunk_0", "a", "", []float32{1, 0})}))
	updated := entry("a_chunk_0", "a", "", []float32{0, 1})
	updated.Text = "updated"
	require.NoError(t, s.Add(ctx, []vectorstore.Entry{updated}))

	entries, err := s.GetByFilter(ctx, vectorstore.Filter{DocumentID: "a"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "updated", entries[0].Text)
}
