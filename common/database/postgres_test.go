package database

import (
	"context"
	"testing"

	"respiguard/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurePool_Defaults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db, &config.DatabaseConfig{})
	assert.Equal(t, defaultMaxOpenConns, db.Stats().MaxOpenConnections)
}

func TestConfigurePool_FromConfig(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db, &config.DatabaseConfig{MaxConns: 4, MaxIdle: 8})
	assert.Equal(t, 4, db.Stats().MaxOpenConnections)
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	require.NoError(t, Ping(context.Background(), db))

	mock.ExpectClose()
	require.NoError(t, db.Close())
	err = Ping(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
