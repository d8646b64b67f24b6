package transfer

import (
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/model"
)

// ProgressState answers whether a record is already committed to a target
type ProgressState interface {
	Has(target model.CollectionTarget, recordID string) bool
}

// RoutingPlan is the per-target backlog of one run
type RoutingPlan struct {
	// Order is the processing order: master first, then plants in registry order
	Order    []model.CollectionTarget
	Backlogs map[model.CollectionTarget][]*model.Document
	// Skipped counts documents already committed to the target
	Skipped map[model.CollectionTarget]int
}

// Pending returns the number of documents waiting for target
func (p *RoutingPlan) Pending(target model.CollectionTarget) int {
	return len(p.Backlogs[target])
}

// TotalPending returns the number of (document, target) pairs to write
func (p *RoutingPlan) TotalPending() int {
	total := 0
	for _, docs := range p.Backlogs {
		total += len(docs)
	}
	return total
}

// Router decides which collections receive each document
type Router struct {
	registry *config.PlantRegistry
	known    map[string]struct{}
}

// NewRouter creates a router over the plants of registry
func NewRouter(registry *config.PlantRegistry) *Router {
	known := make(map[string]struct{})
	for _, code := range registry.Codes() {
		known[code] = struct{}{}
	}
	return &Router{registry: registry, known: known}
}

// Targets returns the targets a document belongs to. Master always receives
// it; a plant target only when the plant code is known.
func (r *Router) Targets(doc *model.Document) []model.CollectionTarget {
	targets := []model.CollectionTarget{model.TargetMaster}
	if _, ok := r.known[doc.PlantCode]; ok {
		targets = append(targets, model.CollectionTarget(doc.PlantCode))
	}
	return targets
}

// Route builds the backlog of every target. In incremental mode a
// (record, target) pair already present in state is skipped; the check is
// made separately for each target.
func (r *Router) Route(docs []*model.Document, state ProgressState, incremental bool) *RoutingPlan {
	plan := &RoutingPlan{
		Order:    r.registry.Targets(),
		Backlogs: make(map[model.CollectionTarget][]*model.Document),
		Skipped:  make(map[model.CollectionTarget]int),
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, target := range r.Targets(doc) {
			if incremental && state != nil && state.Has(target, doc.RecordID) {
				plan.Skipped[target]++
				continue
			}
			plan.Backlogs[target] = append(plan.Backlogs[target], doc)
		}
	}

	return plan
}

// Collection returns the physical collection of target
func (r *Router) Collection(target model.CollectionTarget) (string, bool) {
	return r.registry.CollectionFor(target)
}
