// Package vectorstore stores embedded documents in a vector index and
// searches them by similarity.
package vectorstore

import (
	"context"
)

// Distance metrics accepted by the index
const (
	DistanceCosine    = "Cosine"
	DistanceDot       = "Dot"
	DistanceEuclid    = "Euclid"
	DistanceManhattan = "Manhattan"
)

// Point is one index entry: an identifier, its vector and the payload
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// ScoredPoint is a search hit
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]interface{}
}

// CollectionSpec describes a collection to create
type CollectionSpec struct {
	Name       string
	VectorSize int
	Distance   string
	// Tuning is forwarded verbatim in the create request
	Tuning map[string]interface{}
}

// Store is the vector index contract used by the pipeline and the retriever
type Store interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, spec CollectionSpec) error
	// Upsert writes points and waits for the index to acknowledge them
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error)
	Count(ctx context.Context, collection string) (int64, error)
	Ready(ctx context.Context) error
}
