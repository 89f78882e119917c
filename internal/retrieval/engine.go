// Package retrieval performs filtered, thresholded nearest-neighbor search.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"hybrid-rag/internal/embedding"
	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

type Engine struct {
	index    vectorstore.Index
	embedder embedding.Embedder
}

func New(index vectorstore.Index, embedder embedding.Embedder) *Engine {
	return &Engine{index: index, embedder: embedder}
}

// Search embeds the query, issues one nearest-neighbor query for up to
// maxResults candidates restricted to tenantIDs (empty slice means all
// tenants), and keeps candidates with similarity >= threshold. Similarity is
// 1 - distance, clamped to [0,1]; ranks are 1..N in ascending-distance order.
// Zero matches after filtering is an empty result, not an error.
func (e *Engine) Search(ctx context.Context, query string, maxResults int, tenantIDs []string, threshold float64) ([]models.SearchMatch, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: maxResults must be positive, got %d", models.ErrValidation, maxResults)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", models.ErrValidation)
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}

	results, err := e.index.Query(ctx, vector, maxResults, vectorstore.Filter{TenantIDs: tenantIDs})
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	matches := make([]models.SearchMatch, 0, len(results))
	for _, r := range results {
		similarity := clamp01(1 - r.Distance)
		if similarity < threshold {
			continue
		}
		matches = append(matches, models.SearchMatch{
			Content:    r.Text,
			Metadata:   r.Metadata,
			Similarity: similarity,
			Rank:       len(matches) + 1,
		})
	}

	log.Debug().Int("candidates", len(results)).Int("matches", len(matches)).Float64("threshold", threshold).Msg("search complete")
	return matches, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
