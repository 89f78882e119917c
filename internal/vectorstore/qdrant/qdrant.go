// Package qdrant adapts the Qdrant gRPC client to the vectorstore.Index
// capability. Chunk ids are arbitrary strings while Qdrant point ids must be
// UUIDs, so each point gets a deterministic UUIDv5 derived from its chunk id
// and the chunk id itself is kept in the payload.
package qdrant

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"

	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

const (
	payloadChunkID = "chunkId"
	payloadText    = "text"

	scrollPageSize = 256
)

type Store struct {
	client     *qd.Client
	collection string
}

// New connects to Qdrant at addr ("host:port") and ensures the collection
// exists with the given vector dimension and cosine distance.
func New(ctx context.Context, addr, collection string, dimension uint64) (*Store, error) {
	host, port := parseHostPort(addr, "localhost", 6334)
	client, err := qd.NewClient(&qd.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &Store{client: client, collection: collection}
	if err := s.ensureCollection(ctx, dimension); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context, dimension uint64) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, c := range collections {
		if c == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     dimension,
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	log.Info().Str("collection", s.collection).Uint64("dimension", dimension).Msg("created qdrant collection")
	return nil
}

func (s *Store) Add(ctx context.Context, entries []vectorstore.Entry) error {
	points := make([]*qd.PointStruct, len(entries))
	for i, e := range entries {
		payload := map[string]any{
			payloadChunkID: e.ID,
			payloadText:    e.Text,
		}
		for k, v := range e.Metadata {
			payload[k] = v.Value()
		}
		points[i] = &qd.PointStruct{
			Id:      qd.NewIDUUID(pointID(e.ID)),
			Vectors: qd.NewVectors(e.Vector...),
			Payload: qd.NewValueMap(payload),
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, k int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qd.QueryPoints{
		CollectionName: s.collection,
		Query:          qd.NewQuery(vector...),
		Limit:          &limit,
		Filter:         buildFilter(filter),
		WithPayload: &qd.WithPayloadSelector{
			SelectorOptions: &qd.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]vectorstore.Result, 0, len(points))
	for _, p := range points {
		meta, chunkID, text := splitPayload(p.Payload)
		results = append(results, vectorstore.Result{
			ID:       chunkID,
			Text:     text,
			Metadata: meta,
			// with cosine distance the qdrant score is the similarity
			Distance: 1 - float64(p.Score),
		})
	}
	return results, nil
}

// GetByFilter scrolls the collection page by page. Returned entries carry
// payload only; vectors are not fetched.
func (s *Store) GetByFilter(ctx context.Context, filter vectorstore.Filter) ([]vectorstore.Entry, error) {
	var entries []vectorstore.Entry
	seen := make(map[string]struct{})

	limit := uint32(scrollPageSize)
	var offset *qd.PointId
	for {
		points, err := s.client.Scroll(ctx, &qd.ScrollPoints{
			CollectionName: s.collection,
			Filter:         buildFilter(filter),
			Limit:          &limit,
			Offset:         offset,
			WithPayload: &qd.WithPayloadSelector{
				SelectorOptions: &qd.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll collection: %w", err)
		}
		for _, p := range points {
			meta, chunkID, text := splitPayload(p.Payload)
			// the scroll offset is inclusive, skip the pivot point
			if _, ok := seen[chunkID]; ok {
				continue
			}
			seen[chunkID] = struct{}{}
			entries = append(entries, vectorstore.Entry{ID: chunkID, Text: text, Metadata: meta})
		}
		if len(points) < int(limit) {
			break
		}
		offset = points[len(points)-1].Id
	}
	return entries, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qd.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qd.NewIDUUID(pointID(id))
	}

	wait := true
	_, err := s.client.Delete(ctx, &qd.DeletePoints{
		CollectionName: s.collection,
		Points:         qd.NewPointsSelector(pointIDs...),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %d points: %w", len(ids), err)
	}
	return nil
}

// pointID maps a chunk id onto a stable UUID, so re-ingesting the same chunk
// id always targets the same point.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func buildFilter(f vectorstore.Filter) *qd.Filter {
	var must []*qd.Condition
	if f.DocumentID != "" {
		must = append(must, qd.NewMatch(vectorstore.MetaDocumentID, f.DocumentID))
	}
	if len(f.TenantIDs) > 0 {
		must = append(must, qd.NewMatchKeywords(vectorstore.MetaTenantID, f.TenantIDs...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qd.Filter{Must: must}
}

func splitPayload(payload map[string]*qd.Value) (meta map[string]models.IndexableValue, chunkID, text string) {
	meta = make(map[string]models.IndexableValue, len(payload))
	for k, v := range payload {
		switch k {
		case payloadChunkID:
			chunkID = v.GetStringValue()
		case payloadText:
			text = v.GetStringValue()
		default:
			meta[k] = payloadValue(v)
		}
	}
	return meta, chunkID, text
}

func payloadValue(v *qd.Value) models.IndexableValue {
	switch kind := v.GetKind().(type) {
	case *qd.Value_StringValue:
		return models.String(kind.StringValue)
	case *qd.Value_IntegerValue:
		return models.Number(float64(kind.IntegerValue))
	case *qd.Value_DoubleValue:
		return models.Number(kind.DoubleValue)
	case *qd.Value_BoolValue:
		return models.Bool(kind.BoolValue)
	default:
		return models.String(v.String())
	}
}

func parseHostPort(addr, defaultHost string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}
