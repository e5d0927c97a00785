package graph

import (
	"context"
	"fmt"

	"github.com/banshee-data/navgraph/internal/metrics"
	"github.com/banshee-data/navgraph/internal/monitoring"
)

// Fetching reports whether a fetch of key is in flight.
func (g *Graph) Fetching(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.fetching[key]
	return ok
}

// Filling reports whether a fill of key is in flight.
func (g *Graph) Filling(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.filling[key]
	return ok
}

// Fetch requests the full record of a node missing from the graph and
// inserts it. It returns a *PreconditionError without contacting the
// provider when key is already being fetched or is already present. The
// fetching state is cleared whatever the outcome.
func (g *Graph) Fetch(ctx context.Context, key string) error {
	g.mu.Lock()
	if _, ok := g.fetching[key]; ok {
		g.mu.Unlock()
		return &PreconditionError{Op: "fetch", Key: key, Reason: "already fetching"}
	}
	if _, ok := g.nodes[key]; ok {
		g.mu.Unlock()
		return &PreconditionError{Op: "fetch", Key: key, Reason: "node already in graph"}
	}
	g.fetching[key] = struct{}{}
	g.mu.Unlock()

	payload, err := g.provider.ImageByKeyFull(ctx, []string{key})

	g.mu.Lock()
	delete(g.fetching, key)
	if err != nil {
		g.mu.Unlock()
		metrics.ProviderRequestsTotal.WithLabelValues("full", "error").Inc()
		monitoring.Logf("graph: fetch %s failed: %v", key, err)
		return &UpstreamError{Op: "fetch", Key: key, Err: err}
	}
	metrics.ProviderRequestsTotal.WithLabelValues("full", "ok").Inc()

	if payload == nil {
		g.mu.Unlock()
		return fmt.Errorf("fetch %s: %w", key, ErrNodeNotFound)
	}
	rec, ok := payload.FindImage(key)
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("fetch %s: %w", key, ErrNodeNotFound)
	}
	g.addSequencesLocked(payload.Sequences)
	n, err := g.newNodeLocked(rec, g.memberOf[key])
	if err != nil {
		g.mu.Unlock()
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	// A tile ingested while the request was in flight may have added the
	// key already; the first instance wins.
	g.insertLocked(n)
	g.promoteLocked(g.lastLoaded)
	g.mu.Unlock()

	g.notify()
	return nil
}

// Fill requests the supplemental record of a node in the graph and applies
// it. It returns a *PreconditionError without contacting the provider when
// key is being fetched or filled, is absent, or is already filled. The
// filling state is cleared whatever the outcome.
func (g *Graph) Fill(ctx context.Context, key string) error {
	g.mu.Lock()
	if _, ok := g.fetching[key]; ok {
		g.mu.Unlock()
		return &PreconditionError{Op: "fill", Key: key, Reason: "fetch in flight"}
	}
	if _, ok := g.filling[key]; ok {
		g.mu.Unlock()
		return &PreconditionError{Op: "fill", Key: key, Reason: "already filling"}
	}
	n, ok := g.nodes[key]
	if !ok {
		g.mu.Unlock()
		return &PreconditionError{Op: "fill", Key: key, Reason: "node not in graph"}
	}
	if n.Filled() {
		g.mu.Unlock()
		return &PreconditionError{Op: "fill", Key: key, Reason: "node already filled"}
	}
	g.filling[key] = struct{}{}
	g.mu.Unlock()

	payload, err := g.provider.ImageByKeyFill(ctx, []string{key})

	g.mu.Lock()
	delete(g.filling, key)
	if err != nil {
		g.mu.Unlock()
		metrics.ProviderRequestsTotal.WithLabelValues("fill", "error").Inc()
		monitoring.Logf("graph: fill %s failed: %v", key, err)
		return &UpstreamError{Op: "fill", Key: key, Err: err}
	}
	metrics.ProviderRequestsTotal.WithLabelValues("fill", "ok").Inc()

	if payload == nil {
		g.mu.Unlock()
		return fmt.Errorf("fill %s: %w", key, ErrNodeNotFound)
	}
	rec, ok := payload.FindImage(key)
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("fill %s: %w", key, ErrNodeNotFound)
	}
	applied := n.applyFill(rec)
	g.mu.Unlock()

	if applied {
		g.notify()
	}
	return nil
}
