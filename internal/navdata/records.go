package navdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// SequenceRecord is an ordered capture path.
type SequenceRecord struct {
	Key  string   `json:"key"`
	Keys []string `json:"keys"`
}

// ImageRecord is the core detail of one photo. Tiles and the full-detail
// endpoint both deliver records of this shape.
type ImageRecord struct {
	Key         string `json:"key"`
	SequenceKey string `json:"sequence_key"`

	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	CompassAngle float64 `json:"ca"`
	// Corrected values override the raw ones when present.
	CorrectedLat          *float64 `json:"clat,omitempty"`
	CorrectedLon          *float64 `json:"clon,omitempty"`
	CorrectedCompassAngle *float64 `json:"cca,omitempty"`
	Altitude              *float64 `json:"calt,omitempty"`

	// Orientation is the EXIF orientation code (1, 3, 6 or 8).
	Orientation  int    `json:"orientation,omitempty"`
	CapturedAt   int64  `json:"captured_at,omitempty"` // Unix millis
	UserKey      string `json:"user_key,omitempty"`
	MergeCC      *int64 `json:"merge_cc,omitempty"`
	MergeVersion int    `json:"merge_version,omitempty"`
	FullPano     bool   `json:"full_pano,omitempty"`
}

// EffectiveLatLon returns the corrected position when present, otherwise the
// raw one.
func (r *ImageRecord) EffectiveLatLon() (lat, lon float64) {
	lat, lon = r.Lat, r.Lon
	if r.CorrectedLat != nil && r.CorrectedLon != nil {
		lat, lon = *r.CorrectedLat, *r.CorrectedLon
	}
	return lat, lon
}

// EffectiveCompassAngle returns the corrected compass angle in degrees when
// present, otherwise the raw one.
func (r *ImageRecord) EffectiveCompassAngle() float64 {
	if r.CorrectedCompassAngle != nil {
		return *r.CorrectedCompassAngle
	}
	return r.CompassAngle
}

// FillRecord is supplemental detail requested once per image after it joins
// the graph.
type FillRecord struct {
	Key              string    `json:"key"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	CameraProjection string    `json:"camera_projection_type,omitempty"`
	Focal            float64   `json:"cfocal,omitempty"`
	K1               float64   `json:"ck1,omitempty"`
	K2               float64   `json:"ck2,omitempty"`
	AtomicScale      *float64  `json:"atomic_scale,omitempty"`
	ComputedRotation []float64 `json:"c_rotation,omitempty"` // angle-axis
	ComputedAltitude *float64  `json:"computed_altitude,omitempty"`
	ClusterKey       string    `json:"cluster_key,omitempty"`
}

// TilePayload is the response for one geohash tile.
type TilePayload struct {
	Sequences []SequenceRecord `json:"sequences"`
	Images    []ImageRecord    `json:"images"`
}

// FullPayload is the response of a full-detail lookup by key.
type FullPayload struct {
	Images    []ImageRecord    `json:"images"`
	Sequences []SequenceRecord `json:"sequences,omitempty"`
}

// FillPayload is the response of a supplemental-detail lookup by key.
type FillPayload struct {
	Images []FillRecord `json:"images"`
}

// Provider is the data-fetch collaborator. Implementations must be safe for
// concurrent use; the graph never retries a failed call.
type Provider interface {
	ImageTileByGeohash(ctx context.Context, tile string) (*TilePayload, error)
	ImageByKeyFull(ctx context.Context, keys []string) (*FullPayload, error)
	ImageByKeyFill(ctx context.Context, keys []string) (*FillPayload, error)
}

// DecodeTilePayload reads a JSON tile payload.
func DecodeTilePayload(r io.Reader) (*TilePayload, error) {
	var p TilePayload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode tile payload: %w", err)
	}
	return &p, nil
}

// EncodeTilePayload writes p as indented JSON.
func EncodeTilePayload(w io.Writer, p *TilePayload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// FindImage returns the record with the given key.
func (p *FullPayload) FindImage(key string) (*ImageRecord, bool) {
	for i := range p.Images {
		if p.Images[i].Key == key {
			return &p.Images[i], true
		}
	}
	return nil, false
}

// FindImage returns the fill record with the given key.
func (p *FillPayload) FindImage(key string) (*FillRecord, bool) {
	for i := range p.Images {
		if p.Images[i].Key == key {
			return &p.Images[i], true
		}
	}
	return nil, false
}
