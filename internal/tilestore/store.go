// Package tilestore keeps image metadata in SQLite and serves it as a
// navdata.Provider, so the graph can be driven from a local database
// instead of a remote tile API.
package tilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcloughlin/geohash"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/navgraph/internal/monitoring"
	"github.com/banshee-data/navgraph/internal/navdata"
)

const (
	// geohashPrecision is the stored precision. Tiles of any coarser
	// precision are served by prefix match.
	geohashPrecision = 12
	// geohashAlphabet is the base32 alphabet used by geohash.
	geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"
)

var (
	ErrInvalidTile   = errors.New("invalid tile id")
	ErrImageNotFound = errors.New("image not found")
)

// Store is a SQLite-backed image metadata store.
type Store struct {
	*sql.DB
	path string
}

var _ navdata.Provider = (*Store)(nil)

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	s := &Store{DB: db, path: path}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("tilestore: opened %s", path)
	return s, nil
}

func validTile(tile string) bool {
	if tile == "" || len(tile) > geohashPrecision {
		return false
	}
	for _, r := range tile {
		if !strings.ContainsRune(geohashAlphabet, r) {
			return false
		}
	}
	return true
}

// ImportTilePayload upserts every sequence and image in payload. Images are
// indexed by the geohash of their effective position. Images without a key
// are skipped. It returns the number of images written.
func (s *Store) ImportTilePayload(ctx context.Context, payload *navdata.TilePayload) (int, error) {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, seq := range payload.Sequences {
		if seq.Key == "" {
			continue
		}
		keys, err := json.Marshal(seq.Keys)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sequences (sequence_key, image_keys) VALUES (?, ?)
			ON CONFLICT(sequence_key) DO UPDATE SET image_keys = excluded.image_keys
		`, seq.Key, string(keys)); err != nil {
			return 0, fmt.Errorf("failed to upsert sequence %s: %w", seq.Key, err)
		}
	}

	n := 0
	for i := range payload.Images {
		img := &payload.Images[i]
		if img.Key == "" {
			monitoring.Logf("tilestore: skipping image without key")
			continue
		}
		lat, lon := img.EffectiveLatLon()
		hash := geohash.EncodeWithPrecision(lat, lon, geohashPrecision)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO images (
				image_key, sequence_key, geohash, lat, lon, compass_angle,
				corrected_lat, corrected_lon, corrected_compass_angle, altitude,
				orientation, captured_at, user_key, merge_cc, merge_version, full_pano
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(image_key) DO UPDATE SET
				sequence_key = excluded.sequence_key,
				geohash = excluded.geohash,
				lat = excluded.lat,
				lon = excluded.lon,
				compass_angle = excluded.compass_angle,
				corrected_lat = excluded.corrected_lat,
				corrected_lon = excluded.corrected_lon,
				corrected_compass_angle = excluded.corrected_compass_angle,
				altitude = excluded.altitude,
				orientation = excluded.orientation,
				captured_at = excluded.captured_at,
				user_key = excluded.user_key,
				merge_cc = excluded.merge_cc,
				merge_version = excluded.merge_version,
				full_pano = excluded.full_pano
		`,
			img.Key, nullString(img.SequenceKey), hash, img.Lat, img.Lon, img.CompassAngle,
			img.CorrectedLat, img.CorrectedLon, img.CorrectedCompassAngle, img.Altitude,
			orientationOrDefault(img.Orientation), img.CapturedAt, nullString(img.UserKey),
			img.MergeCC, img.MergeVersion, img.FullPano,
		); err != nil {
			return 0, fmt.Errorf("failed to upsert image %s: %w", img.Key, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ImportFill upserts supplemental records.
func (s *Store) ImportFill(ctx context.Context, records []navdata.FillRecord) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		if r.Key == "" {
			continue
		}
		var rotation sql.NullString
		if len(r.ComputedRotation) > 0 {
			b, err := json.Marshal(r.ComputedRotation)
			if err != nil {
				return err
			}
			rotation = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO image_fill (
				image_key, width, height, camera_projection, focal, k1, k2,
				atomic_scale, computed_rotation, computed_altitude, cluster_key
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(image_key) DO UPDATE SET
				width = excluded.width,
				height = excluded.height,
				camera_projection = excluded.camera_projection,
				focal = excluded.focal,
				k1 = excluded.k1,
				k2 = excluded.k2,
				atomic_scale = excluded.atomic_scale,
				computed_rotation = excluded.computed_rotation,
				computed_altitude = excluded.computed_altitude,
				cluster_key = excluded.cluster_key
		`,
			r.Key, r.Width, r.Height, nullString(r.CameraProjection), r.Focal, r.K1, r.K2,
			r.AtomicScale, rotation, r.ComputedAltitude, nullString(r.ClusterKey),
		); err != nil {
			return fmt.Errorf("failed to upsert fill %s: %w", r.Key, err)
		}
	}
	return tx.Commit()
}

const imageColumns = `
	image_key, sequence_key, lat, lon, compass_angle,
	corrected_lat, corrected_lon, corrected_compass_angle, altitude,
	orientation, captured_at, user_key, merge_cc, merge_version, full_pano`

func scanImage(rows *sql.Rows) (navdata.ImageRecord, error) {
	var (
		r               navdata.ImageRecord
		seqKey, userKey sql.NullString
		clat, clon, cca sql.NullFloat64
		alt             sql.NullFloat64
		mergeCC         sql.NullInt64
	)
	if err := rows.Scan(&r.Key, &seqKey, &r.Lat, &r.Lon, &r.CompassAngle,
		&clat, &clon, &cca, &alt,
		&r.Orientation, &r.CapturedAt, &userKey, &mergeCC, &r.MergeVersion, &r.FullPano); err != nil {
		return r, err
	}
	r.SequenceKey = seqKey.String
	r.UserKey = userKey.String
	r.CorrectedLat = floatPtr(clat)
	r.CorrectedLon = floatPtr(clon)
	r.CorrectedCompassAngle = floatPtr(cca)
	r.Altitude = floatPtr(alt)
	if mergeCC.Valid {
		v := mergeCC.Int64
		r.MergeCC = &v
	}
	return r, nil
}

// ImageTileByGeohash returns the images whose position falls inside tile
// and the sequences they belong to. An empty tile is not an error.
func (s *Store) ImageTileByGeohash(ctx context.Context, tile string) (*navdata.TilePayload, error) {
	if !validTile(tile) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTile, tile)
	}
	rows, err := s.QueryContext(ctx, `SELECT `+imageColumns+`
		FROM images
		WHERE substr(geohash, 1, ?) = ?
		ORDER BY image_key`, len(tile), tile)
	if err != nil {
		return nil, fmt.Errorf("failed to query tile %s: %w", tile, err)
	}
	defer rows.Close()

	payload := &navdata.TilePayload{Images: []navdata.ImageRecord{}, Sequences: []navdata.SequenceRecord{}}
	seen := map[string]bool{}
	var seqKeys []string
	for rows.Next() {
		r, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		payload.Images = append(payload.Images, r)
		if r.SequenceKey != "" && !seen[r.SequenceKey] {
			seen[r.SequenceKey] = true
			seqKeys = append(seqKeys, r.SequenceKey)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	payload.Sequences, err = s.sequences(ctx, seqKeys)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Store) sequences(ctx context.Context, keys []string) ([]navdata.SequenceRecord, error) {
	out := []navdata.SequenceRecord{}
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := s.QueryContext(ctx, `SELECT sequence_key, image_keys FROM sequences
		WHERE sequence_key IN (`+placeholders(len(keys))+`)
		ORDER BY sequence_key`, anySlice(keys)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sequences: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var seq navdata.SequenceRecord
		var raw string
		if err := rows.Scan(&seq.Key, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &seq.Keys); err != nil {
			return nil, fmt.Errorf("sequence %s: invalid image_keys: %w", seq.Key, err)
		}
		out = append(out, seq)
	}
	return out, rows.Err()
}

// ImageByKeyFull returns the records found for keys, with their sequences.
// Unknown keys are omitted.
func (s *Store) ImageByKeyFull(ctx context.Context, keys []string) (*navdata.FullPayload, error) {
	payload := &navdata.FullPayload{Images: []navdata.ImageRecord{}}
	if len(keys) == 0 {
		return payload, nil
	}
	rows, err := s.QueryContext(ctx, `SELECT `+imageColumns+`
		FROM images
		WHERE image_key IN (`+placeholders(len(keys))+`)
		ORDER BY image_key`, anySlice(keys)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	var seqKeys []string
	for rows.Next() {
		r, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		payload.Images = append(payload.Images, r)
		if r.SequenceKey != "" && !seen[r.SequenceKey] {
			seen[r.SequenceKey] = true
			seqKeys = append(seqKeys, r.SequenceKey)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	payload.Sequences, err = s.sequences(ctx, seqKeys)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// ImageByKeyFill returns the supplemental records found for keys.
func (s *Store) ImageByKeyFill(ctx context.Context, keys []string) (*navdata.FillPayload, error) {
	payload := &navdata.FillPayload{Images: []navdata.FillRecord{}}
	if len(keys) == 0 {
		return payload, nil
	}
	rows, err := s.QueryContext(ctx, `SELECT
			image_key, width, height, camera_projection, focal, k1, k2,
			atomic_scale, computed_rotation, computed_altitude, cluster_key
		FROM image_fill
		WHERE image_key IN (`+placeholders(len(keys))+`)
		ORDER BY image_key`, anySlice(keys)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fill: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                   navdata.FillRecord
			projection, cluster sql.NullString
			rotation            sql.NullString
			scale, alt          sql.NullFloat64
		)
		if err := rows.Scan(&r.Key, &r.Width, &r.Height, &projection, &r.Focal, &r.K1, &r.K2,
			&scale, &rotation, &alt, &cluster); err != nil {
			return nil, err
		}
		r.CameraProjection = projection.String
		r.ClusterKey = cluster.String
		r.AtomicScale = floatPtr(scale)
		r.ComputedAltitude = floatPtr(alt)
		if rotation.Valid {
			if err := json.Unmarshal([]byte(rotation.String), &r.ComputedRotation); err != nil {
				return nil, fmt.Errorf("fill %s: invalid computed_rotation: %w", r.Key, err)
			}
		}
		payload.Images = append(payload.Images, r)
	}
	return payload, rows.Err()
}

// Image returns a single record.
func (s *Store) Image(ctx context.Context, key string) (*navdata.ImageRecord, error) {
	full, err := s.ImageByKeyFull(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	r, ok := full.FindImage(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, key)
	}
	return r, nil
}

// Tiles returns the distinct tiles at precision that hold at least one
// image, in sorted order.
func (s *Store) Tiles(ctx context.Context, precision uint) ([]string, error) {
	if precision == 0 || precision > geohashPrecision {
		return nil, fmt.Errorf("%w: precision %d", ErrInvalidTile, precision)
	}
	rows, err := s.QueryContext(ctx, `SELECT DISTINCT substr(geohash, 1, ?) AS tile
		FROM images ORDER BY tile`, precision)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AttachAdminRoutes mounts live SQL debugging under /debug/tailsql/.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+s.path, s.DB, &tailsql.DBOptions{
		Label: "Navigation tile store",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anySlice(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func orientationOrDefault(o int) int {
	if o == 0 {
		return 1
	}
	return o
}
