package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-health/health"
	"github.com/cwbudde/algo-health/store"
)

// profileRef addresses a profile: a JSON file path, "dir:DIR#NAME" for a
// directory store or "sqlite:FILE#NAME" for a SQLite store.
type profileRef struct {
	backend string // "file", "dir" or "sqlite"
	path    string
	name    string
}

func parseProfileRef(s string) (profileRef, error) {
	if s == "" {
		return profileRef{}, fmt.Errorf("empty profile reference")
	}
	backend, rest, ok := strings.Cut(s, ":")
	if !ok || (backend != "dir" && backend != "sqlite") {
		return profileRef{backend: "file", path: s}, nil
	}
	path, name, _ := strings.Cut(rest, "#")
	if path == "" {
		return profileRef{}, fmt.Errorf("profile reference %q has no path", s)
	}
	return profileRef{backend: backend, path: path, name: name}, nil
}

func (r profileRef) String() string {
	if r.backend == "file" {
		return r.path
	}
	if r.name == "" {
		return r.backend + ":" + r.path
	}
	return r.backend + ":" + r.path + "#" + r.name
}

func (r profileRef) open(log logrus.FieldLogger) (store.Store, error) {
	switch r.backend {
	case "dir":
		return store.OpenDir(r.path, store.WithLogger(log))
	case "sqlite":
		return store.OpenSQLite(r.path, store.WithLogger(log))
	default:
		return nil, fmt.Errorf("%s is a single profile file, not a store", r.path)
	}
}

func (r profileRef) needName() error {
	if r.backend != "file" && r.name == "" {
		return fmt.Errorf("profile reference %s needs a #name", r)
	}
	return nil
}

func loadProfile(ctx context.Context, ref string, log logrus.FieldLogger) (*health.Profile, error) {
	r, err := parseProfileRef(ref)
	if err != nil {
		return nil, err
	}
	if err := r.needName(); err != nil {
		return nil, err
	}
	if r.backend == "file" {
		return store.LoadFile(r.path)
	}
	st, err := r.open(log)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, r.name)
}

func saveProfile(ctx context.Context, ref string, p *health.Profile, log logrus.FieldLogger) error {
	r, err := parseProfileRef(ref)
	if err != nil {
		return err
	}
	if err := r.needName(); err != nil {
		return err
	}
	if r.backend == "file" {
		return store.SaveFile(r.path, p)
	}
	st, err := r.open(log)
	if err != nil {
		return err
	}
	if err := st.Save(ctx, r.name, p); err != nil {
		st.Close()
		return err
	}
	return st.Close()
}
