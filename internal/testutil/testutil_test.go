package testutil

import (
	"os"
	"testing"

	"github.com/mmcloughlin/geohash"

	"github.com/banshee-data/navgraph/internal/navdata"
)

func TestHomeTileContainsFixtures(t *testing.T) {
	for _, img := range TwoImageTile().Images {
		if got := geohash.EncodeWithPrecision(img.Lat, img.Lon, 7); got != HomeTile {
			t.Errorf("image %s in tile %s, want %s", img.Key, got, HomeTile)
		}
	}
}

func TestWriteTileFileRoundTrip(t *testing.T) {
	path := WriteTileFile(t, TwoImageTile())
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	p, err := navdata.DecodeTilePayload(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Images) != 2 || p.Sequences[0].Key != "s" {
		t.Errorf("unexpected payload %+v", p)
	}
}
