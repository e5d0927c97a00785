// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/navgraph/internal/navdata"
)

// HomeTile is the precision-7 geohash containing (10, 20). The fixtures
// below sit far enough from its edges that their coverage is HomeTile alone.
const HomeTile = "s3y0zh7"

// TwoImageTile returns sequence "s" of images a then b, about 5.5 m apart
// heading north from (10, 20).
func TwoImageTile() *navdata.TilePayload {
	return &navdata.TilePayload{
		Sequences: []navdata.SequenceRecord{{Key: "s", Keys: []string{"a", "b"}}},
		Images: []navdata.ImageRecord{
			{Key: "a", SequenceKey: "s", Lat: 10, Lon: 20},
			{Key: "b", SequenceKey: "s", Lat: 10.00005, Lon: 20},
		},
	}
}

// WriteTileFile encodes payload into a JSON file under t.TempDir.
func WriteTileFile(t *testing.T, payload *navdata.TilePayload) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tile.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := navdata.EncodeTilePayload(f, payload); err != nil {
		t.Fatalf("encode tile payload: %v", err)
	}
	return path
}
