package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/mdobak/go-xerrors"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-health/dsp/core"
	"github.com/cwbudde/algo-health/health"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    name          TEXT PRIMARY KEY,
    version       INTEGER NOT NULL,
    window_type   TEXT NOT NULL,
    detrend       INTEGER NOT NULL,
    exclude_dc    INTEGER NOT NULL,
    normalization TEXT NOT NULL,
    saved_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS channels (
    profile    TEXT NOT NULL,
    name       TEXT NOT NULL,
    omega      BLOB NOT NULL,
    power      BLOB NOT NULL,
    range_min  REAL,
    range_max  REAL,
    features   BLOB,
    bands      BLOB,
    exclude_dc INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (profile, name)
);
`

// SQLite stores profiles in a SQLite database. Frequency grids, powers,
// features and bands are kept as little-endian float64 BLOBs.
type SQLite struct {
	db  *sql.DB
	log logrus.FieldLogger
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at dsn, e.g. a file
// path or "file::memory:?cache=shared".
func OpenSQLite(dsn string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("store: open %s: %w", dsn, err))
	}
	// One connection keeps in-memory databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, xerrors.New(fmt.Errorf("store: create schema: %w", err))
	}

	o := applyOptions(opts)
	return &SQLite{db: db, log: o.log.WithField("store", "sqlite")}, nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }

// Save writes p under name in one transaction, replacing an existing
// profile.
func (s *SQLite) Save(ctx context.Context, name string, p *health.Profile) (err error) {
	if err := checkName(name); err != nil {
		return err
	}
	snap := p.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.New(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = deleteProfile(ctx, tx, name); err != nil {
		return xerrors.New(err)
	}
	c := snap.Convention
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (name, version, window_type, detrend, exclude_dc, normalization) VALUES (?, ?, ?, ?, ?, ?)`,
		name, snap.Version, c.Window, c.Detrend, c.ExcludeDC, c.Normalization); err != nil {
		return xerrors.New(err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO channels (profile, name, omega, power, range_min, range_max, features, bands, exclude_dc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return xerrors.New(err)
	}
	defer stmt.Close()

	for _, ch := range snap.Channels {
		var lo, hi sql.NullFloat64
		if ch.Range != nil {
			lo = sql.NullFloat64{Float64: ch.Range.Min, Valid: true}
			hi = sql.NullFloat64{Float64: ch.Range.Max, Valid: true}
		}
		var features, bands []byte
		if len(ch.Features) > 0 {
			features = encodeFloats(ch.Features)
			bands = encodeBands(ch.Bands)
		}
		if _, err = stmt.ExecContext(ctx, name, ch.Name, encodeFloats(ch.Omega), encodeFloats(ch.Power),
			lo, hi, features, bands, ch.ExcludeDC); err != nil {
			return xerrors.New(fmt.Errorf("store: channel %q: %w", ch.Name, err))
		}
	}

	if err = tx.Commit(); err != nil {
		return xerrors.New(err)
	}
	s.log.WithFields(logrus.Fields{"profile": name, "channels": len(snap.Channels)}).Debug("profile saved")
	return nil
}

// Load reads the profile stored under name.
func (s *SQLite) Load(ctx context.Context, name string) (*health.Profile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	snap := health.Snapshot{}
	c := &snap.Convention
	err := s.db.QueryRowContext(ctx,
		`SELECT version, window_type, detrend, exclude_dc, normalization FROM profiles WHERE name = ?`, name).
		Scan(&snap.Version, &c.Window, &c.Detrend, &c.ExcludeDC, &c.Normalization)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, xerrors.New(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, omega, power, range_min, range_max, features, bands, exclude_dc
		 FROM channels WHERE profile = ? ORDER BY name`, name)
	if err != nil {
		return nil, xerrors.New(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ch              health.ChannelSnapshot
			omega, power    []byte
			features, bands []byte
			lo, hi          sql.NullFloat64
		)
		if err := rows.Scan(&ch.Name, &omega, &power, &lo, &hi, &features, &bands, &ch.ExcludeDC); err != nil {
			return nil, xerrors.New(err)
		}
		if ch.Omega, err = decodeFloats(omega); err != nil {
			return nil, fmt.Errorf("store: channel %q omega: %w", ch.Name, err)
		}
		if ch.Power, err = decodeFloats(power); err != nil {
			return nil, fmt.Errorf("store: channel %q power: %w", ch.Name, err)
		}
		if lo.Valid && hi.Valid {
			ch.Range = &health.Band{Min: lo.Float64, Max: hi.Float64}
		}
		if len(features) > 0 {
			if ch.Features, err = decodeFloats(features); err != nil {
				return nil, fmt.Errorf("store: channel %q features: %w", ch.Name, err)
			}
			if ch.Bands, err = decodeBands(bands); err != nil {
				return nil, fmt.Errorf("store: channel %q bands: %w", ch.Name, err)
			}
		}
		snap.Channels = append(snap.Channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.New(err)
	}

	p, err := health.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("store: profile %q: %w", name, err)
	}
	s.log.WithField("profile", name).Debug("profile loaded")
	return p, nil
}

// List returns the stored names in ascending order.
func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM profiles ORDER BY name`)
	if err != nil {
		return nil, xerrors.New(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, xerrors.New(err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.New(err)
	}
	return out, nil
}

// Delete removes the profile stored under name and its channels.
func (s *SQLite) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerrors.New(err)
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE name = ?`, name).Scan(&n); err != nil {
		tx.Rollback()
		return xerrors.New(err)
	}
	if n == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := deleteProfile(ctx, tx, name); err != nil {
		tx.Rollback()
		return xerrors.New(err)
	}
	if err := tx.Commit(); err != nil {
		return xerrors.New(err)
	}
	s.log.WithField("profile", name).Debug("profile deleted")
	return nil
}

func deleteProfile(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE profile = ?`, name); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	return err
}

func encodeFloats(v []float64) []byte {
	out := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(x))
	}
	return out
}

func decodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("blob of %d bytes is not a float64 array: %w", len(b), core.ErrShapeMismatch)
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out, nil
}

func encodeBands(bands []health.Band) []byte {
	flat := make([]float64, 0, 2*len(bands))
	for _, b := range bands {
		flat = append(flat, b.Min, b.Max)
	}
	return encodeFloats(flat)
}

func decodeBands(b []byte) ([]health.Band, error) {
	flat, err := decodeFloats(b)
	if err != nil {
		return nil, err
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%d band bounds: %w", len(flat), core.ErrShapeMismatch)
	}
	out := make([]health.Band, len(flat)/2)
	for i := range out {
		out[i] = health.Band{Min: flat[2*i], Max: flat[2*i+1]}
	}
	return out, nil
}
