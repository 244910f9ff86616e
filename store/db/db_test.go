package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wealthsense/internal/profile"
	"github.com/hrygo/wealthsense/store/storetest"
)

func TestNewDBDriver(t *testing.T) {
	path := storetest.SeedSQLite(t)

	driver, err := NewDBDriver(&profile.Profile{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	defer driver.Close()
	assert.Equal(t, "sqlite", driver.Dialect())
}

func TestNewAgentDBDriver_FallsBackToDSN(t *testing.T) {
	path := storetest.SeedSQLite(t)

	driver, err := NewAgentDBDriver(&profile.Profile{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	defer driver.Close()
	assert.Equal(t, "sqlite", driver.Dialect())
}

func TestNewDBDriver_Errors(t *testing.T) {
	_, err := NewDBDriver(&profile.Profile{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown db driver")

	_, err = NewDBDriver(&profile.Profile{Driver: "sqlite"})
	require.Error(t, err)
}
