package store

import (
	"context"
	"log/slog"

	"github.com/hrygo/staynest/internal/profile"
)

// Store provides database access to listings.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate prepares the backing schema. Drivers whose schema is managed elsewhere treat it as a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.Migrate(ctx); err != nil {
		return err
	}
	slog.Debug("store migrated", "driver", s.profile.Driver)
	return nil
}

func (s *Store) Close() error {
	return s.driver.Close()
}
