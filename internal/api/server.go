// Package api serves the debug HTTP surface: node and edge inspection,
// navigation, on-demand fetch, fill and tile loading, an HTML plot, and
// optionally the provider routes that internal/remote consumes.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/navgraph/internal/edge"
	"github.com/banshee-data/navgraph/internal/graph"
	"github.com/banshee-data/navgraph/internal/graphplot"
	"github.com/banshee-data/navgraph/internal/httputil"
	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
	"github.com/banshee-data/navgraph/internal/remote"
	"github.com/banshee-data/navgraph/internal/tiles"
	"github.com/banshee-data/navgraph/internal/tilestore"
)

const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	graph    *graph.Graph
	loader   *tiles.Loader
	provider navdata.Provider
}

// NewServer returns a Server over g. loader may be nil, in which case the
// tile loading routes answer 503.
func NewServer(g *graph.Graph, loader *tiles.Loader) *Server {
	return &Server{graph: g, loader: loader}
}

// WithProvider exposes p under /provider/ so that another instance can use
// this one as its upstream.
func (s *Server) WithProvider(p navdata.Provider) *Server {
	s.provider = p
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs status, method, URI and duration of each request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/nodes", s.listNodes)
	mux.HandleFunc("GET /api/nodes/{key}", s.showNode)
	mux.HandleFunc("GET /api/nodes/{key}/edges", s.showEdges)
	mux.HandleFunc("GET /api/nodes/{key}/next", s.nextNode)
	mux.HandleFunc("POST /api/nodes/{key}/fetch", s.fetchNode)
	mux.HandleFunc("POST /api/nodes/{key}/fill", s.fillNode)
	mux.HandleFunc("POST /api/tiles/{tile}", s.loadTile)
	mux.HandleFunc("POST /api/load", s.loadAround)
	mux.HandleFunc("GET /graph.html", s.graphHTML)
	if s.provider != nil {
		mux.HandleFunc("GET "+remote.TilePath+"{tile}", s.providerTile)
		mux.HandleFunc("GET "+remote.FullPath, s.providerFull)
		mux.HandleFunc("GET "+remote.FillPath, s.providerFill)
	}
	return mux
}

// writeGraphError maps graph errors onto status codes.
func writeGraphError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrPrecondition):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, graph.ErrNodeNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, graph.ErrUpstream):
		httputil.BadGateway(w, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func (s *Server) node(w http.ResponseWriter, r *http.Request) (*graph.Node, bool) {
	key := r.PathValue("key")
	n, ok := s.graph.GetNode(key)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("node %q not in graph", key))
		return nil, false
	}
	return n, true
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.graph.Nodes()
	out := make([]nodeSummary, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, summarize(n))
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, describe(n))
}

// showEdges caches the node's edges first when it is worthy and not cached.
func (s *Server) showEdges(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	if err := s.graph.CacheNode(n); err != nil {
		writeGraphError(w, err)
		return
	}
	httputil.WriteJSONOK(w, edgesResponse{
		Key:    n.Key(),
		Cached: n.EdgesCached(),
		Edges:  edgesJSON(s.graph.GetEdges(n)),
	})
}

func (s *Server) nextNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.node(w, r)
	if !ok {
		return
	}
	dir, err := edge.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.graph.CacheNode(n); err != nil {
		writeGraphError(w, err)
		return
	}
	next, ok := s.graph.NextNode(n, dir)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("no %s edge from %s", dir, n.Key()))
		return
	}
	httputil.WriteJSONOK(w, describe(next))
}

func (s *Server) fetchNode(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.graph.Fetch(r.Context(), key); err != nil {
		writeGraphError(w, err)
		return
	}
	n, _ := s.graph.GetNode(key)
	httputil.WriteJSONOK(w, describe(n))
}

func (s *Server) fillNode(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.graph.Fill(r.Context(), key); err != nil {
		writeGraphError(w, err)
		return
	}
	n, _ := s.graph.GetNode(key)
	httputil.WriteJSONOK(w, describe(n))
}

func (s *Server) loadTile(w http.ResponseWriter, r *http.Request) {
	s.load(w, r, []string{r.PathValue("tile")})
}

// loadAround loads the home tile of lat/lon and its eight neighbours.
func (s *Server) loadAround(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		httputil.BadRequest(w, "lat must be a number in [-90, 90]")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		httputil.BadRequest(w, "lon must be a number in [-180, 180]")
		return
	}
	s.load(w, r, s.graph.Coverage().Around(lat, lon))
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, tileKeys []string) {
	if s.loader == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no tile loader configured")
		return
	}
	if err := s.loader.Load(r.Context(), tileKeys); err != nil {
		httputil.BadGateway(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, loadResponse{
		Requested: tileKeys,
		Loaded:    s.loader.Loaded().Tiles(),
		Nodes:     s.graph.NodeCount(),
	})
}

func (s *Server) graphHTML(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := graphplot.RenderHTML(&buf, graphplot.NewLayout(s.graph.Nodes()), "Navigation Graph"); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func writeProviderError(w http.ResponseWriter, err error) {
	if errors.Is(err, tilestore.ErrInvalidTile) {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}

func (s *Server) providerTile(w http.ResponseWriter, r *http.Request) {
	payload, err := s.provider.ImageTileByGeohash(r.Context(), r.PathValue("tile"))
	if err != nil {
		writeProviderError(w, err)
		return
	}
	httputil.WriteJSONOK(w, payload)
}

func (s *Server) providerKeys(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	keys := remote.ParseKeys(r.URL.Query().Get("keys"))
	if len(keys) == 0 {
		httputil.BadRequest(w, "keys is required")
		return nil, false
	}
	return keys, true
}

func (s *Server) providerFull(w http.ResponseWriter, r *http.Request) {
	keys, ok := s.providerKeys(w, r)
	if !ok {
		return
	}
	payload, err := s.provider.ImageByKeyFull(r.Context(), keys)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	httputil.WriteJSONOK(w, payload)
}

func (s *Server) providerFill(w http.ResponseWriter, r *http.Request) {
	keys, ok := s.providerKeys(w, r)
	if !ok {
		return
	}
	payload, err := s.provider.ImageByKeyFill(r.Context(), keys)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	httputil.WriteJSONOK(w, payload)
}
