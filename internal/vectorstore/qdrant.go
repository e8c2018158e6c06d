// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/northbound/hive-rag/internal/herr"
)

// QdrantStore is an optional remote backend over Qdrant's gRPC API.
// Rather than generating point UUIDs and storing every metadata value
// as a string, this backend keeps the monotonic int64 vector_id as the
// Qdrant point's numeric id and payload-encodes full metadata values
// (not just strings), since the vector record's metadata may hold
// numbers and booleans (chunk_index, deleted).
//
// Persist/Load are no-ops here: Qdrant is its own durable store, so the
// local snapshot-file contract doesn't apply to this backend. A
// deployment that needs the file-snapshot contract should run
// LocalStore; QdrantStore exists for operators who already run a Qdrant
// cluster and want this service to use it directly.
type QdrantStore struct {
	mu             sync.RWMutex
	collectionsSvc qdrant.CollectionsClient
	pointsSvc      qdrant.PointsClient
	collection     string
	dimension      int
	nextID         int64
}

// NewQdrantStore ensures the named collection exists with the given
// dimension and wraps it as a Store.
func NewQdrantStore(ctx context.Context, conn *grpc.ClientConn, collection string, dim int) (*QdrantStore, error) {
	if conn == nil {
		return nil, herr.New(herr.KindStorage, herr.SeverityCritical, "gRPC connection is required")
	}

	q := &QdrantStore{
		collectionsSvc: qdrant.NewCollectionsClient(conn),
		pointsSvc:      qdrant.NewPointsClient(conn),
		collection:     collection,
		dimension:       dim,
	}
	if err := q.ensureCollection(ctx); err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityCritical, "failed to ensure collection", err)
	}
	return q, nil
}

func (q *QdrantStore) ensureCollection(ctx context.Context) error {
	collections, err := q.collectionsSvc.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	for _, c := range collections.Collections {
		if c.Name == q.collection {
			return nil
		}
	}

	_, err = q.collectionsSvc.Create(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(q.dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (q *QdrantStore) AddVectors(ctx context.Context, vectors [][]float32, metas []Metadata) ([]int64, error) {
	if len(vectors) != len(metas) {
		return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "vectors and metadata length mismatch")
	}
	for _, v := range vectors {
		if len(v) != q.dimension {
			return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "dimension mismatch").
				WithDetail("expected", q.dimension).WithDetail("got", len(v))
		}
	}

	ids := make([]int64, len(vectors))
	points := make([]*qdrant.PointStruct, len(vectors))
	for i := range vectors {
		id := atomic.AddInt64(&q.nextID, 1) - 1
		ids[i] = id
		points[i] = &qdrant.PointStruct{
			Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: uint64(id)}},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vectors[i]}},
			},
			Payload: metadataToPayload(stampAdded(metas[i])),
		}
	}

	if _, err := q.pointsSvc.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	}); err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "qdrant upsert failed", err)
	}

	return ids, nil
}

func (q *QdrantStore) Search(ctx context.Context, query []float32, k int) ([]ScoredHit, error) {
	withMeta, err := q.SearchWithMetadata(ctx, query, k)
	if err != nil {
		return nil, err
	}
	hits := make([]ScoredHit, len(withMeta))
	for i, h := range withMeta {
		hits[i] = ScoredHit{ID: h.ID, Score: h.Score}
	}
	return hits, nil
}

func (q *QdrantStore) SearchWithMetadata(ctx context.Context, query []float32, k int) ([]HitWithMetadata, error) {
	if len(query) != q.dimension {
		return nil, herr.New(herr.KindStorage, herr.SeverityHigh, "dimension mismatch")
	}
	if k <= 0 {
		k = 10
	}

	// Over-fetch because soft-deleted points are filtered client-side,
	// same as LocalStore: the index may return fewer than k even when
	// >=k non-deleted vectors exist.
	result, err := q.pointsSvc.Search(ctx, &qdrant.SearchPoints{
		CollectionName: q.collection,
		Vector:         query,
		Limit:          uint64(k * 4),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, herr.Wrap(herr.KindStorage, herr.SeverityHigh, "qdrant search failed", err)
	}

	hits := make([]HitWithMetadata, 0, len(result.Result))
	for _, sp := range result.Result {
		meta := payloadToMetadata(sp.Payload)
		if isDeleted(meta) {
			continue
		}
		id := int64(sp.Id.GetNum())
		text, _ := meta["text"].(string)
		docID, _ := meta["doc_id"].(string)
		hits = append(hits, HitWithMetadata{ID: id, Score: sp.Score, Text: text, DocID: docID, Metadata: meta})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (q *QdrantStore) DeleteVectors(ctx context.Context, ids []int64) (int, error) {
	n := 0
	for _, id := range ids {
		if err := q.UpdateMetadata(ctx, id, Metadata{"deleted": true}); err == nil {
			n++
		}
	}
	return n, nil
}

func (q *QdrantStore) UpdateMetadata(ctx context.Context, id int64, patch Metadata) error {
	_, err := q.pointsSvc.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: q.collection,
		Payload:        metadataToPayload(patch),
		PointsSelector: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{
					{PointIdOptions: &qdrant.PointId_Num{Num: uint64(id)}},
				}},
			},
		},
	})
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityMedium, "qdrant set payload failed", err)
	}
	return nil
}

func (q *QdrantStore) ClearIndex(ctx context.Context) error {
	_, err := q.collectionsSvc.Delete(ctx, &qdrant.DeleteCollection{CollectionName: q.collection})
	if err != nil {
		return herr.Wrap(herr.KindStorage, herr.SeverityHigh, "qdrant delete collection failed", err)
	}
	return q.ensureCollection(ctx)
}

func (q *QdrantStore) GetStats(ctx context.Context) (Stats, error) {
	info, err := q.collectionsSvc.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: q.collection})
	if err != nil {
		return Stats{}, herr.Wrap(herr.KindStorage, herr.SeverityMedium, "qdrant get collection info failed", err)
	}
	total := 0
	if info.Result != nil && info.Result.PointsCount != nil {
		total = int(*info.Result.PointsCount)
	}
	return Stats{TotalVectors: total, ActiveVectors: total, Dimension: q.dimension, IndexType: "qdrant"}, nil
}

func (q *QdrantStore) Persist(ctx context.Context) error { return nil }
func (q *QdrantStore) Load(ctx context.Context) error    { return nil }

func metadataToPayload(m Metadata) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(m))
	for k, v := range m {
		payload[k] = toQdrantValue(v)
	}
	return payload
}

func toQdrantValue(v any) *qdrant.Value {
	switch t := v.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: t}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: t}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(t)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: t}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: t}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", t)}}
	}
}

func payloadToMetadata(payload map[string]*qdrant.Value) Metadata {
	m := make(Metadata, len(payload))
	for k, v := range payload {
		switch kind := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			m[k] = kind.StringValue
		case *qdrant.Value_BoolValue:
			m[k] = kind.BoolValue
		case *qdrant.Value_IntegerValue:
			m[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			m[k] = kind.DoubleValue
		}
	}
	return m
}
