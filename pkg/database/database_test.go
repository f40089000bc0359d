package database

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/life-ease-api/pkg/database/migrations"
)

func TestDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "life_ease", DatabaseFromURI("mongodb://localhost:27017/life_ease"))
	assert.Equal(t, "custom", DatabaseFromURI("mongodb://user:pw@host:27017/custom?authSource=admin"))
	assert.Equal(t, defaultMongoDatabase, DatabaseFromURI("mongodb://localhost:27017"))
	assert.Equal(t, defaultMongoDatabase, DatabaseFromURI("::bad::"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "00001_users.sql")
	assert.Contains(t, names, "00004_water_entries.sql")
}

func TestMigrateWrapsFailure(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	original := gooseUp
	defer func() { gooseUp = original }()
	gooseUp = func(context.Context, *sqlx.DB) error { return errors.New("boom") }

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migrations")
}
