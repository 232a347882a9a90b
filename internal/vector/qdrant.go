package vector

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

// QdrantIndex implements Index on a Qdrant collection.
type QdrantIndex struct {
	log        logger.Interface
	client     *qdrant.Client
	collection string
}

// NewQdrantIndex connects to Qdrant and wraps the configured
// collection.
func NewQdrantIndex(log logger.Interface, cfg config.QdrantConfig) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{
		log:        log,
		client:     client,
		collection: cfg.Collection,
	}, nil
}

// EnsureCollection creates the collection when missing and recreates it
// when its stored dimension no longer matches the embedding model.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", q.collection, err)
	}

	if !exists {
		q.log.Info("Creating vector collection",
			"collection", q.collection, "dimension", dimension)
		return q.createCollection(ctx, dimension)
	}

	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to inspect collection %q: %w", q.collection, err)
	}

	currentSize := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if currentSize == uint64(dimension) {
		return nil
	}

	// Dimension drift means the embedding model changed; the old vectors
	// are unusable either way.
	q.log.Warn("Recreating vector collection with new dimension",
		"collection", q.collection, "current", currentSize, "needed", dimension)

	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", q.collection, err)
	}
	return q.createCollection(ctx, dimension)
}

func (q *QdrantIndex) createCollection(ctx context.Context, dimension int) error {
	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", q.collection, err)
	}
	return nil
}

// HasPoint reports whether a point with the given ID is stored.
func (q *QdrantIndex) HasPoint(ctx context.Context, id int64) (bool, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(uint64(id))},
	})
	if err != nil {
		return false, fmt.Errorf("failed to retrieve point %d: %w", id, err)
	}
	return len(points) > 0, nil
}

// Upsert writes all points in a single batch call and waits for them to
// be durable before returning.
func (q *QdrantIndex) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payloadToValueMap(p.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search runs a nearest-neighbor query with payloads included.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %q: %w", q.collection, err)
	}

	results := make([]domain.ScoredPoint, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.ScoredPoint{
			ID:      int64(hit.GetId().GetNum()),
			Score:   hit.GetScore(),
			Payload: payloadFromValueMap(hit.GetPayload()),
		})
	}
	return results, nil
}

// Scroll returns up to limit points with vectors and payloads.
func (q *QdrantIndex) Scroll(ctx context.Context, limit int) ([]domain.Point, error) {
	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithVectors:    qdrant.NewWithVectors(true),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll collection %q: %w", q.collection, err)
	}

	results := make([]domain.Point, 0, len(points))
	for _, p := range points {
		results = append(results, domain.Point{
			ID:      int64(p.GetId().GetNum()),
			Vector:  p.GetVectors().GetVector().GetData(),
			Payload: payloadFromValueMap(p.GetPayload()),
		})
	}
	return results, nil
}

// Count returns the number of stored points.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %q: %w", q.collection, err)
	}
	return int(count), nil
}

// payloadToValueMap converts the denormalized payload to Qdrant values.
func payloadToValueMap(p domain.Payload) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		"bank":            p.Bank,
		"title":           p.Title,
		"link_promotion":  p.LinkPromotion,
		"cardtype":        p.CardType,
		"payment_network": p.PaymentNetwork,
		"benefits":        p.Benefits,
		"valid_until":     p.ValidUntil,
	})
}

// payloadFromValueMap reads the denormalized payload back out of Qdrant
// values.
func payloadFromValueMap(values map[string]*qdrant.Value) domain.Payload {
	return domain.Payload{
		Bank:           values["bank"].GetStringValue(),
		Title:          values["title"].GetStringValue(),
		LinkPromotion:  values["link_promotion"].GetStringValue(),
		CardType:       values["cardtype"].GetStringValue(),
		PaymentNetwork: values["payment_network"].GetStringValue(),
		Benefits:       values["benefits"].GetStringValue(),
		ValidUntil:     values["valid_until"].GetStringValue(),
	}
}
