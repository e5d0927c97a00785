package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/navgraph/internal/config"
	"github.com/banshee-data/navgraph/internal/edge"
	"github.com/banshee-data/navgraph/internal/metrics"
	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
	"github.com/banshee-data/navgraph/internal/spatial"
	"github.com/banshee-data/navgraph/internal/tiles"
)

// DefaultSearchBox is the side length in degrees of the box searched for
// edge candidates around a node.
const DefaultSearchBox = 0.001

// Graph holds nodes, sequences and the spatial index, and computes edges
// on demand.
type Graph struct {
	provider   navdata.Provider
	calculator *edge.Calculator
	coverage   tiles.Coverage
	searchBox  float64
	defaultAlt float64
	filter     func(*Node) bool

	mu         sync.Mutex
	nodes      map[string]*Node
	sequences  map[string]*Sequence
	memberOf   map[string]string // image key -> first registered sequence listing it
	index      *spatial.Index
	unworthy   map[string]*Node
	fetching   map[string]struct{}
	filling    map[string]struct{}
	lastLoaded tiles.Set

	subscriberMu sync.Mutex
	subscribers  map[string]chan *Graph
	closed       bool
}

type options struct {
	settings     edge.Settings
	coefficients edge.Coefficients
	calculator   *edge.Calculator
	coverage     tiles.Coverage
	searchBox    float64
	defaultAlt   float64
	filter       func(*Node) bool
}

// Option configures a Graph.
type Option func(*options)

func WithSettings(s edge.Settings) Option         { return func(o *options) { o.settings = s } }
func WithCoefficients(c edge.Coefficients) Option { return func(o *options) { o.coefficients = c } }
func WithCoverage(c tiles.Coverage) Option        { return func(o *options) { o.coverage = c } }
func WithSearchBox(deg float64) Option            { return func(o *options) { o.searchBox = deg } }
func WithDefaultAltitude(m float64) Option        { return func(o *options) { o.defaultAlt = m } }

// WithCandidateFilter restricts edge candidates to nodes for which keep
// returns true.
func WithCandidateFilter(keep func(*Node) bool) Option {
	return func(o *options) { o.filter = keep }
}

// WithCalculator overrides the settings and coefficients options.
func WithCalculator(c *edge.Calculator) Option {
	return func(o *options) { o.calculator = c }
}

// OptionsFromConfig adapts the tuning config.
func OptionsFromConfig(cfg *config.NavigationConfig) []Option {
	return []Option{
		WithSettings(edge.SettingsFromConfig(cfg)),
		WithCoefficients(edge.CoefficientsFromConfig(cfg)),
		WithCoverage(tiles.CoverageFromConfig(cfg)),
		WithSearchBox(cfg.GetSearchBoxDeg()),
		WithDefaultAltitude(cfg.GetDefaultAltitudeM()),
	}
}

// New returns an empty graph backed by provider.
func New(provider navdata.Provider, opts ...Option) *Graph {
	o := options{
		settings:     edge.DefaultSettings(),
		coefficients: edge.DefaultCoefficients(),
		coverage:     tiles.DefaultCoverage(),
		searchBox:    DefaultSearchBox,
		defaultAlt:   DefaultAltitude,
	}
	for _, opt := range opts {
		opt(&o)
	}
	calc := o.calculator
	if calc == nil {
		calc = edge.NewCalculator(o.settings, o.coefficients)
	}
	return &Graph{
		provider:    provider,
		calculator:  calc,
		coverage:    o.coverage,
		searchBox:   o.searchBox,
		defaultAlt:  o.defaultAlt,
		filter:      o.filter,
		nodes:       make(map[string]*Node),
		sequences:   make(map[string]*Sequence),
		memberOf:    make(map[string]string),
		index:       spatial.NewIndex(),
		unworthy:    make(map[string]*Node),
		fetching:    make(map[string]struct{}),
		filling:     make(map[string]struct{}),
		subscribers: make(map[string]chan *Graph),
	}
}

// IngestTile adds the sequences and images of one tile. Keys already in the
// graph are left untouched. Records that cannot become nodes are logged and
// skipped. After insertion every unworthy node whose coverage is contained
// in loaded is promoted. Subscribers are notified once when anything was
// added or promoted.
func (g *Graph) IngestTile(payload *navdata.TilePayload, loaded tiles.Set) error {
	if payload == nil {
		return ErrNilPayload
	}

	g.mu.Lock()
	g.addSequencesLocked(payload.Sequences)

	added := 0
	for i := range payload.Images {
		rec := &payload.Images[i]
		n, err := g.newNodeLocked(rec, g.memberOf[rec.Key])
		if err != nil {
			metrics.RecordsSkippedTotal.Inc()
			monitoring.Logf("graph: skipping image record: %v", err)
			continue
		}
		if g.insertLocked(n) {
			added++
		}
	}
	if loaded != nil {
		g.lastLoaded = loaded
	}
	promoted := g.promoteLocked(loaded)
	g.mu.Unlock()

	monitoring.Debugf("graph: ingested %d of %d images, promoted %d", added, len(payload.Images), promoted)
	if added > 0 || promoted > 0 {
		g.notify()
	}
	return nil
}

// PromoteWorthy promotes unworthy nodes against loaded and returns how many
// were promoted. Subscribers are notified when the count is positive.
func (g *Graph) PromoteWorthy(loaded tiles.Set) int {
	g.mu.Lock()
	if loaded != nil {
		g.lastLoaded = loaded
	}
	promoted := g.promoteLocked(loaded)
	g.mu.Unlock()
	if promoted > 0 {
		g.notify()
	}
	return promoted
}

func (g *Graph) addSequencesLocked(seqs []navdata.SequenceRecord) {
	for _, s := range seqs {
		if s.Key == "" {
			monitoring.Logf("graph: skipping sequence record with empty key")
			continue
		}
		if _, ok := g.sequences[s.Key]; ok {
			continue
		}
		seq := NewSequence(s.Key, s.Keys)
		g.sequences[s.Key] = seq
		for _, k := range seq.keys {
			if _, ok := g.memberOf[k]; !ok {
				g.memberOf[k] = s.Key
			}
		}
	}
}

func (g *Graph) newNodeLocked(rec *navdata.ImageRecord, sequenceKey string) (*Node, error) {
	n, err := newNode(rec, sequenceKey, g.defaultAlt)
	if err != nil {
		return nil, err
	}
	n.coverage = g.coverage.Covering(n.lat, n.lon, n.alt)
	return n, nil
}

// insertLocked adds n unless its key is present and reports whether it did.
func (g *Graph) insertLocked(n *Node) bool {
	if _, ok := g.nodes[n.key]; ok {
		return false
	}
	g.nodes[n.key] = n
	g.unworthy[n.key] = n
	g.index.Insert(spatial.Item{Lat: n.lat, Lon: n.lon, Key: n.key})
	metrics.NodesIngestedTotal.Inc()
	return true
}

func (g *Graph) promoteLocked(loaded tiles.Set) int {
	if loaded == nil {
		return 0
	}
	promoted := 0
	for key, n := range g.unworthy {
		if tiles.Ready(loaded, n.coverage) {
			n.setWorthy()
			delete(g.unworthy, key)
			promoted++
		}
	}
	metrics.NodesPromotedTotal.Add(float64(promoted))
	return promoted
}

func (g *Graph) GetNode(key string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[key]
	return n, ok
}

func (g *Graph) HasNode(key string) bool {
	_, ok := g.GetNode(key)
	return ok
}

// GetEdges returns a copy of the node's cached edges.
func (g *Graph) GetEdges(n *Node) []edge.Edge {
	if n == nil {
		return nil
	}
	return n.Edges()
}

func (g *Graph) Sequence(key string) (*Sequence, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sequences[key]
	return s, ok
}

// Coverage returns the tile coverage the graph applies to new nodes.
func (g *Graph) Coverage() tiles.Coverage { return g.coverage }

func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Nodes returns every node sorted by key.
func (g *Graph) Nodes() []*Node {
	g.mu.Lock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// CacheNode computes the node's edges and replaces its cached edge set.
// Unworthy nodes are left untouched. Subscribers are not notified.
func (g *Graph) CacheNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("cache node: %w", ErrNodeNotFound)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.nodes[n.key]; !ok || cur != n {
		return fmt.Errorf("cache node %s: %w", n.key, ErrNodeNotFound)
	}
	if !n.Worthy() {
		return nil
	}

	start := time.Now()
	edges, err := g.computeEdgesLocked(n)
	if err != nil {
		return fmt.Errorf("cache node %s: %w", n.key, err)
	}
	n.setEdges(edges)

	metrics.EdgeComputeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	for _, e := range edges {
		metrics.EdgesComputedTotal.WithLabelValues(e.Data.Direction.String()).Inc()
	}
	monitoring.Debugf("graph: cached %d edges for %s", len(edges), n.key)
	return nil
}

func (g *Graph) computeEdgesLocked(n *Node) ([]edge.Edge, error) {
	c := g.calculator
	seen := make(map[string]bool)
	var candidates []edge.Candidate
	addCandidate := func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		cand, ok := g.nodes[key]
		if !ok || !cand.Full() {
			return
		}
		if g.filter != nil && !g.filter(cand) {
			return
		}
		candidates = append(candidates, cand)
	}
	for _, it := range g.index.SearchAround(n.lat, n.lon, g.searchBox) {
		addCandidate(it.Key)
	}

	var (
		edges            []edge.Edge
		prevKey, nextKey string
		fallbackKeys     []string
	)
	if seq, ok := g.sequences[n.sequenceKey]; ok {
		seqEdges, err := c.ComputeSequenceEdges(n, seq)
		if err != nil {
			return nil, err
		}
		edges = append(edges, seqEdges...)
		if k, ok := seq.FindPrevKey(n.key); ok {
			prevKey = k
			fallbackKeys = append(fallbackKeys, k)
			addCandidate(k)
		}
		if k, ok := seq.FindNextKey(n.key); ok {
			nextKey = k
			fallbackKeys = append(fallbackKeys, k)
			addCandidate(k)
		}
	}

	potentials, err := c.GetPotentialEdges(n, candidates, fallbackKeys)
	if err != nil {
		return nil, err
	}
	steps, err := c.ComputeStepEdges(n, potentials, prevKey, nextKey)
	if err != nil {
		return nil, err
	}
	turns, err := c.ComputeTurnEdges(n, potentials)
	if err != nil {
		return nil, err
	}
	panos, err := c.ComputePanoEdges(n, potentials)
	if err != nil {
		return nil, err
	}
	toPano, err := c.ComputePerspectiveToPanoEdges(n, potentials)
	if err != nil {
		return nil, err
	}
	similar, err := c.ComputeSimilarEdges(n, potentials)
	if err != nil {
		return nil, err
	}

	edges = append(edges, steps...)
	edges = append(edges, turns...)
	edges = append(edges, panos...)
	edges = append(edges, toPano...)
	edges = append(edges, similar...)
	return edges, nil
}

// NextNode returns the destination of the node's first cached edge in dir.
// It reports false when there is no such edge or the destination is not in
// the graph.
func (g *Graph) NextNode(n *Node, dir edge.Direction) (*Node, bool) {
	key, ok := g.NextKey(n, dir)
	if !ok {
		return nil, false
	}
	return g.GetNode(key)
}

// NextKey returns the destination key of the node's first cached edge in
// dir.
func (g *Graph) NextKey(n *Node, dir edge.Direction) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, e := range n.Edges() {
		if e.Data.Direction == dir {
			return e.To, true
		}
	}
	return "", false
}
