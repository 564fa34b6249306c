// Package store persists health profiles by name. Two backends are
// provided: a directory of JSON files and a SQLite database. Both store
// every float bit for bit, so a loaded profile scores exactly like the
// saved one.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-health/health"
)

var (
	// ErrNotFound reports a profile name that is not stored.
	ErrNotFound = errors.New("store: profile not found")

	// ErrInvalidName reports a profile name that cannot be stored.
	ErrInvalidName = errors.New("store: invalid profile name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func checkName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Store saves and loads named profiles.
type Store interface {
	Save(ctx context.Context, name string, p *health.Profile) error
	Load(ctx context.Context, name string) (*health.Profile, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger sets the logger for save, load and delete events. The default
// is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
