package navdata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestImageRecord_EffectiveValues(t *testing.T) {
	r := ImageRecord{Lat: 1, Lon: 2, CompassAngle: 90}
	lat, lon := r.EffectiveLatLon()
	assert.Equal(t, 1.0, lat)
	assert.Equal(t, 2.0, lon)
	assert.Equal(t, 90.0, r.EffectiveCompassAngle())

	r.CorrectedLat, r.CorrectedLon, r.CorrectedCompassAngle = ptr(1.5), ptr(2.5), ptr(180.0)
	lat, lon = r.EffectiveLatLon()
	assert.Equal(t, 1.5, lat)
	assert.Equal(t, 2.5, lon)
	assert.Equal(t, 180.0, r.EffectiveCompassAngle())

	// A lone corrected latitude is ignored; corrections come in pairs.
	r2 := ImageRecord{Lat: 1, Lon: 2, CorrectedLat: ptr(9.0)}
	lat, lon = r2.EffectiveLatLon()
	assert.Equal(t, 1.0, lat)
	assert.Equal(t, 2.0, lon)
}

func TestDecodeTilePayload(t *testing.T) {
	body := `{
		"sequences": [{"key": "s1", "keys": ["a", "b"]}],
		"images": [
			{"key": "a", "sequence_key": "s1", "lat": 10, "lon": 20, "ca": 45, "cca": 50, "merge_cc": 3},
			{"key": "b", "sequence_key": "s1", "lat": 10.0001, "lon": 20, "ca": 45, "full_pano": true}
		]
	}`
	p, err := DecodeTilePayload(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, []string{"a", "b"}, p.Sequences[0].Keys)
	assert.Equal(t, 50.0, p.Images[0].EffectiveCompassAngle())
	require.NotNil(t, p.Images[0].MergeCC)
	assert.Equal(t, int64(3), *p.Images[0].MergeCC)
	assert.True(t, p.Images[1].FullPano)

	var buf bytes.Buffer
	require.NoError(t, EncodeTilePayload(&buf, p))
	again, err := DecodeTilePayload(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestDecodeTilePayload_Malformed(t *testing.T) {
	_, err := DecodeTilePayload(strings.NewReader(`{"images": [`))
	assert.Error(t, err)
}

func TestFindImage(t *testing.T) {
	full := &FullPayload{Images: []ImageRecord{{Key: "x"}, {Key: "y"}}}
	r, ok := full.FindImage("y")
	require.True(t, ok)
	assert.Equal(t, "y", r.Key)
	_, ok = full.FindImage("z")
	assert.False(t, ok)

	fill := &FillPayload{Images: []FillRecord{{Key: "x", Width: 640}}}
	f, ok := fill.FindImage("x")
	require.True(t, ok)
	assert.Equal(t, 640, f.Width)
}
