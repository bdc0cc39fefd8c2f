package main

import (
	"testing"

	"ticketcore/internal/shared/config"
	"ticketcore/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStores_MemoryDriverRefusedInRelease(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "false")

	t.Setenv("GIN_MODE", "release")
	_, _, _, _, err := openStores(config.Load(), logger.Discard())
	assert.ErrorContains(t, err, "not allowed in release mode")

	t.Setenv("GIN_MODE", "debug")
	repos, rdb, health, closeStores, err := openStores(config.Load(), logger.Discard())
	require.NoError(t, err)
	defer closeStores()
	assert.Nil(t, rdb)
	assert.NotNil(t, repos.Tx)
	assert.Nil(t, health, "memory store has no database health check")
}
