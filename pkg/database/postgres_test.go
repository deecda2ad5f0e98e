package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisupport-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "unisupport", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=unisupport sslmode=disable", dsn)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(embeddedMigrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	raw, err := fs.ReadFile(embeddedMigrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "UNIQUE (student_id, sequence)")
}
