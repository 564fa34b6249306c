package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-health/health"
)

const jsonExt = ".json"

// EncodeJSON writes the snapshot of p as indented JSON.
func EncodeJSON(w io.Writer, p *health.Profile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p.Snapshot())
}

// DecodeJSON reads a profile written by EncodeJSON.
func DecodeJSON(r io.Reader) (*health.Profile, error) {
	var snap health.Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("store: decode profile: %w", err)
	}
	return health.FromSnapshot(snap)
}

// SaveFile writes p to path, replacing it atomically.
func SaveFile(path string, p *health.Profile) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return xerrors.New(err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeJSON(tmp, p); err != nil {
		tmp.Close()
		return xerrors.New(err)
	}
	if err := tmp.Close(); err != nil {
		return xerrors.New(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return xerrors.New(err)
	}
	return nil
}

// LoadFile reads a profile from path.
func LoadFile(path string) (*health.Profile, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, xerrors.New(err)
	}
	defer f.Close()

	p, err := DecodeJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Dir stores every profile as <name>.json in one directory.
type Dir struct {
	root string
	log  logrus.FieldLogger
}

var _ Store = (*Dir)(nil)

// OpenDir creates root if needed and returns a store over it.
func OpenDir(root string, opts ...Option) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, xerrors.New(err)
	}
	o := applyOptions(opts)
	return &Dir{root: root, log: o.log.WithField("store", root)}, nil
}

func (d *Dir) path(name string) string { return filepath.Join(d.root, name+jsonExt) }

// Save writes p under name, replacing an existing profile.
func (d *Dir) Save(ctx context.Context, name string, p *health.Profile) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := SaveFile(d.path(name), p); err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{"profile": name, "channels": p.Len()}).Debug("profile saved")
	return nil
}

// Load reads the profile stored under name.
func (d *Dir) Load(ctx context.Context, name string) (*health.Profile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := LoadFile(d.path(name))
	if err != nil {
		return nil, err
	}
	d.log.WithField("profile", name).Debug("profile loaded")
	return p, nil
}

// List returns the stored names in ascending order.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, xerrors.New(err)
	}
	var out []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), jsonExt)
		if ok && !e.IsDir() && checkName(name) == nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes the profile stored under name.
func (d *Dir) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return xerrors.New(err)
	}
	d.log.WithField("profile", name).Debug("profile deleted")
	return nil
}

// Close is a no-op.
func (d *Dir) Close() error { return nil }
