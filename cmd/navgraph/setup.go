package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/navgraph/internal/graph"
	"github.com/banshee-data/navgraph/internal/graphplot"
	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
	"github.com/banshee-data/navgraph/internal/tilestore"
)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLatLon parses "lat,lon" in degrees.
func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse lon: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("lat,lon out of range: %g,%g", lat, lon)
	}
	return lat, lon, nil
}

// importIntoStore loads tile payload files and an optional fill payload file.
func importIntoStore(ctx context.Context, store *tilestore.Store, tileFiles []string, fillFile string) error {
	for _, path := range tileFiles {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		payload, err := navdata.DecodeTilePayload(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		n, err := store.ImportTilePayload(ctx, payload)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		monitoring.Logf("imported %d images from %s", n, path)
	}
	if fillFile == "" {
		return nil
	}
	data, err := os.ReadFile(fillFile)
	if err != nil {
		return err
	}
	var fill navdata.FillPayload
	if err := json.Unmarshal(data, &fill); err != nil {
		return fmt.Errorf("%s: %w", fillFile, err)
	}
	if err := store.ImportFill(ctx, fill.Images); err != nil {
		return fmt.Errorf("%s: %w", fillFile, err)
	}
	monitoring.Logf("imported %d fill records from %s", len(fill.Images), fillFile)
	return nil
}

// writePlot caches every worthy node and saves the graph as an image.
func writePlot(g *graph.Graph, path string) error {
	nodes := g.Nodes()
	for _, n := range nodes {
		if err := g.CacheNode(n); err != nil {
			return err
		}
	}
	return graphplot.SavePNG(graphplot.NewLayout(nodes), "Navigation Graph", path)
}
