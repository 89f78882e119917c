package ingest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-rag/internal/chunker"
	"hybrid-rag/internal/jobs"
	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
	"hybrid-rag/internal/vectorstore/memory"
)

// hashEmbedder derives a deterministic vector from the text, keeping tests
// off the network.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum % 97), float32(sum % 89), float32(sum%83 + 1)}, nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

// failingIndex wraps the memory store and rejects batch writes.
type failingIndex struct {
	*memory.Store
}

func (failingIndex) Add(context.Context, []vectorstore.Entry) error {
	return errors.New("write rejected")
}

func TestIngestExampleDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := New(store, hashEmbedder{}, chunker.New(1000, 200), nil)

	docID, err := p.Ingest(ctx, models.Document{
		ID:       "doc-1",
		Title:    "Example",
		Type:     models.DocTypeText,
		TenantID: "tenant-1",
		Content:  strings.Repeat("a", 2500),
		Metadata: map[string]any{"tags": []string{"x", "y"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", docID)

	entries, err := store.GetByFilter(ctx, vectorstore.Filter{DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	seen := make(map[int]bool)
	for _, e := range entries {
		seq := models.ParseSequenceIndex(e.Metadata[vectorstore.MetaSequenceIndex])
		seen[seq] = true
		assert.Equal(t, models.ChunkID("doc-1", seq), e.ID)

		total, ok := e.Metadata[vectorstore.MetaTotalChunks].Float()
		require.True(t, ok)
		assert.Equal(t, 3.0, total)

		assert.Equal(t, "Example", e.Metadata[vectorstore.MetaTitle].String())
		assert.Equal(t, "tenant-1", e.Metadata[vectorstore.MetaTenantID].String())
		assert.Equal(t, "x, y", e.Metadata["tags"].String())
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, seen)
}

func TestIngestEmptyContent(t *testing.T) {
	p := New(memory.New(), hashEmbedder{}, chunker.New(1000, 200), nil)

	_, err := p.Ingest(context.Background(), models.Document{ID: "doc-1", Content: "  \n "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyContent))
}

func TestIngestGeneratesDocumentID(t *testing.T) {
	p := New(memory.New(), hashEmbedder{}, chunker.New(1000, 200), nil)

	docID, err := p.Ingest(context.Background(), models.Document{Content: "some content"})
	require.NoError(t, err)
	assert.NotEmpty(t, docID)
}

func TestReingestReplacesPriorChunks(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := New(store, hashEmbedder{}, chunker.New(1000, 200), nil)

	_, err := p.Ingest(ctx, models.Document{ID: "doc-1", Content: strings.Repeat("a", 2500)})
	require.NoError(t, err)

	// shorter content produces fewer chunks; no stragglers may remain
	_, err = p.Ingest(ctx, models.Document{ID: "doc-1", Content: "short replacement"})
	require.NoError(t, err)

	entries, err := store.GetByFilter(ctx, vectorstore.Filter{DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc-1_chunk_0", entries[0].ID)
	assert.Equal(t, "short replacement", entries[0].Text)
}

func TestEmbeddingFailureLeavesNothingIndexed(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := New(store, failingEmbedder{}, chunker.New(1000, 200), nil)

	_, err := p.Ingest(ctx, models.Document{ID: "doc-1", Content: "some content"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmbedding))

	entries, err := store.GetByFilter(ctx, vectorstore.Filter{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIndexWriteFailure(t *testing.T) {
	p := New(failingIndex{memory.New()}, hashEmbedder{}, chunker.New(1000, 200), nil)

	_, err := p.Ingest(context.Background(), models.Document{ID: "doc-1", Content: "some content"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIndexWrite))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p := New(store, hashEmbedder{}, chunker.New(1000, 200), nil)

	_, err := p.Ingest(ctx, models.Document{ID: "doc-1", Content: strings.Repeat("a", 2500)})
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, "doc-1"))

	entries, err := store.GetByFilter(ctx, vectorstore.Filter{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = p.Delete(ctx, "doc-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestIngestTracksJob(t *testing.T) {
	ctx := context.Background()
	jobStore := jobs.NewStore(10)
	p := New(memory.New(), hashEmbedder{}, chunker.New(1000, 200), jobStore)

	_, err := p.Ingest(ctx, models.Document{ID: "doc-1", Content: "some content"})
	require.NoError(t, err)
	assert.Equal(t, 1, jobStore.Metrics().Completed)

	pFail := New(memory.New(), failingEmbedder{}, chunker.New(1000, 200), jobStore)
	_, err = pFail.Ingest(ctx, models.Document{ID: "doc-2", Content: "some content"})
	require.Error(t, err)
	assert.Equal(t, 1, jobStore.Metrics().Failed)
}
