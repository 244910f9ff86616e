package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/store"
	"github.com/hrygo/wealthsense/store/db/mysql"
	"github.com/hrygo/wealthsense/store/db/postgres"
	"github.com/hrygo/wealthsense/store/db/sqlite"
)

// NewDBDriver creates the relational driver used by the dashboard.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	return open(profile.Driver, profile.DSN)
}

// NewAgentDBDriver creates the relational driver used by the SQL agent. It is
// opened with the agent credential, which should be a read-only account.
func NewAgentDBDriver(profile *profile.Profile) (store.Driver, error) {
	dsn := profile.AgentDSN
	if dsn == "" {
		dsn = profile.DSN
	}
	return open(profile.Driver, dsn)
}

func open(driver, dsn string) (store.Driver, error) {
	var d store.Driver
	var err error

	switch driver {
	case "mysql":
		d, err = mysql.NewDB(dsn)
	case "postgres":
		d, err = postgres.NewDB(dsn)
	case "sqlite":
		d, err = sqlite.NewDB(dsn)
	default:
		return nil, errors.Errorf("unknown db driver: %s", driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return d, nil
}
