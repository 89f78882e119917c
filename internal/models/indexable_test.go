package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenScalars(t *testing.T) {
	flat := Flatten(map[string]any{
		"title":   "Annual Report",
		"pages":   42,
		"ratio":   0.5,
		"public":  true,
		"created": time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "Annual Report", flat["title"].String())

	n, ok := flat["pages"].Float()
	require.True(t, ok)
	assert.Equal(t, 42.0, n)

	b, ok := flat["public"].Bool()
	require.True(t, ok)
	assert.True(t, b)

	assert.Equal(t, "2024-03-01T12:00:00Z", flat["created"].String())
}

func TestFlattenArraysAndMaps(t *testing.T) {
	flat := Flatten(map[string]any{
		"tags":   []string{"finance", "q3"},
		"mixed":  []any{"a", 1, true},
		"nested": map[string]any{"author": "jane"},
	})

	assert.Equal(t, "finance, q3", flat["tags"].String())
	assert.Equal(t, "a, 1, true", flat["mixed"].String())
	assert.Equal(t, `{"author":"jane"}`, flat["nested"].String())
}

func TestIndexableValueRendering(t *testing.T) {
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "3.5", Number(3.5).String())
	assert.Equal(t, "true", Bool(true).String())

	_, ok := String("x").Float()
	assert.False(t, ok)
	_, ok = Number(1).Bool()
	assert.False(t, ok)
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1_chunk_0", ChunkID("doc-1", 0))
	assert.Equal(t, "doc-1", DocumentIDFromChunkID("doc-1_chunk_7"))
	// legacy non-chunked entries keep their whole id
	assert.Equal(t, "legacy-doc", DocumentIDFromChunkID("legacy-doc"))
}

func TestLevelForCount(t *testing.T) {
	assert.Equal(t, LevelNone, LevelForCount(0))
	assert.Equal(t, LevelSingle, LevelForCount(1))
	assert.Equal(t, LevelHybrid, LevelForCount(2))
	assert.Equal(t, LevelFull, LevelForCount(3))
}

func TestDocumentIsTemplate(t *testing.T) {
	assert.False(t, Document{}.IsTemplate())
	assert.False(t, Document{Metadata: map[string]any{"isTemplate": false}}.IsTemplate())
	assert.True(t, Document{Metadata: map[string]any{"isTemplate": true}}.IsTemplate())
	assert.True(t, Document{Metadata: map[string]any{"isTemplate": "true"}}.IsTemplate())
}
