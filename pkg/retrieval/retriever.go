// Package retrieval answers questions over the indexed breakdown records.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/embedding"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/vectorstore"
)

// DefaultK is the number of records retrieved per question
const DefaultK = 50

// Retriever resolves a role to a collection and runs similarity search on it
type Retriever struct {
	store    vectorstore.Store
	embedder embedding.Service
	registry *config.PlantRegistry
	k        int
	logger   *zap.Logger
}

// NewRetriever creates a Retriever. A non-positive k falls back to DefaultK.
func NewRetriever(store vectorstore.Store, embedder embedding.Service, registry *config.PlantRegistry, k int, logger *zap.Logger) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		registry: registry,
		k:        k,
		logger:   logger.Named("retriever"),
	}
}

// ParseRole maps a role selector to a target. "master" is matched without
// regard to case; plant codes and site names resolve through the registry.
// The boolean is false when the role is not recognized.
func (r *Retriever) ParseRole(role string) (model.CollectionTarget, bool) {
	trimmed := strings.TrimSpace(role)
	if strings.EqualFold(trimmed, model.TargetMaster.String()) {
		return model.TargetMaster, true
	}
	if code, ok := r.registry.AliasTable()[strings.ToUpper(trimmed)]; ok {
		return model.CollectionTarget(code), true
	}
	return "", false
}

// ResolveCollection returns the collection for role, falling back to the
// master collection when the role is not recognized
func (r *Retriever) ResolveCollection(role string) (string, model.CollectionTarget) {
	if target, ok := r.ParseRole(role); ok {
		if name, ok := r.registry.CollectionFor(target); ok {
			return name, target
		}
	}
	r.logger.Warn("Unrecognized role, using master collection", zap.String("role", role))
	return r.registry.MasterCollection, model.TargetMaster
}

// Retrieve embeds the question and returns the top k hits from the role's collection
func (r *Retriever) Retrieve(ctx context.Context, role, question string) ([]vectorstore.ScoredPoint, error) {
	collection, _ := r.ResolveCollection(role)

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := r.store.Search(ctx, collection, vector, r.k)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", collection, err)
	}

	r.logger.Debug("Retrieved records",
		zap.String("collection", collection),
		zap.Int("hits", len(hits)),
		zap.Int("k", r.k))
	return hits, nil
}
