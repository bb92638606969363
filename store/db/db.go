package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/staynest/internal/profile"
	"github.com/hrygo/staynest/store"
	"github.com/hrygo/staynest/store/db/mongodb"
	"github.com/hrygo/staynest/store/db/postgres"
	"github.com/hrygo/staynest/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(ctx context.Context, profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "mongo":
		driver, err = mongodb.NewDB(ctx, profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
