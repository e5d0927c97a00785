package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/navgraph/internal/api"
	"github.com/banshee-data/navgraph/internal/config"
	"github.com/banshee-data/navgraph/internal/graph"
	"github.com/banshee-data/navgraph/internal/metrics"
	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
	"github.com/banshee-data/navgraph/internal/remote"
	"github.com/banshee-data/navgraph/internal/tiles"
	"github.com/banshee-data/navgraph/internal/tilestore"
	"github.com/banshee-data/navgraph/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "navgraph.db", "SQLite tile store path")
	configPath  = flag.String("config", "", "Navigation config JSON (defaults compiled in when empty)")
	importTiles = flag.String("import", "", "Comma separated tile payload JSON files to import into the store")
	importFill  = flag.String("import-fill", "", "Fill payload JSON file to import into the store")
	upstream    = flag.String("upstream", "", "Base URL of another navgraph server to use as the provider instead of the store")
	at          = flag.String("at", "", "Load the tiles around lat,lon at startup")
	plotPath    = flag.String("plot", "", "Write a PNG of the graph after the startup load")
	debugMode   = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	monitoring.SetDebug(*debugMode)
	log.Printf("navgraph %s", version.String())

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *tilestore.Store
	if *dbPath != "" {
		store, err = tilestore.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open tile store: %v", err)
		}
		defer store.Close()

		if err := importIntoStore(ctx, store, splitList(*importTiles), *importFill); err != nil {
			log.Fatalf("import failed: %v", err)
		}
	}

	var provider navdata.Provider
	switch {
	case *upstream != "":
		provider, err = remote.New(*upstream, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			log.Fatalf("invalid upstream: %v", err)
		}
		log.Printf("using upstream provider %s", *upstream)
	case store != nil:
		provider = store
	default:
		log.Fatal("either -db or -upstream is required")
	}

	g := graph.New(provider, graph.OptionsFromConfig(cfg)...)
	defer g.Close()
	loader := tiles.NewLoader(provider, g, nil, cfg.GetLoaderConcurrency())

	var wg sync.WaitGroup

	// log graph changes until shutdown
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, changes := g.Subscribe()
		defer g.Unsubscribe(id)
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				monitoring.Debugf("graph changed: %d nodes, %d tiles loaded", g.NodeCount(), loader.Loaded().Len())
			case <-ctx.Done():
				return
			}
		}
	}()

	if *at != "" {
		lat, lon, err := parseLatLon(*at)
		if err != nil {
			log.Fatalf("invalid -at: %v", err)
		}
		if err := loader.Load(ctx, g.Coverage().Around(lat, lon)); err != nil {
			log.Printf("startup load incomplete: %v", err)
		}
		log.Printf("startup load: %d nodes from %d tiles", g.NodeCount(), loader.Loaded().Len())
		if *plotPath != "" {
			if err := writePlot(g, *plotPath); err != nil {
				log.Printf("failed to write plot: %v", err)
			} else {
				log.Printf("wrote %s", *plotPath)
			}
		}
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		if store != nil {
			// admin debugging routes, reachable only over loopback or Tailscale
			if err := store.AttachAdminRoutes(mux); err != nil {
				log.Printf("failed to attach admin routes: %v", err)
			}
		}
		mux.Handle("/metrics", metrics.Handler())

		apiServer := api.NewServer(g, loader)
		if store != nil {
			apiServer.WithProvider(store)
		}
		mux.Handle("/", apiServer.ServeMux())

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("listening on %s", *listen)

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

func loadConfig(path string) (*config.NavigationConfig, error) {
	if path == "" {
		return config.EmptyNavigationConfig(), nil
	}
	return config.LoadNavigationConfig(path)
}
