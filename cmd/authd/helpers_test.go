package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/st-angelo/webarena-auth/internal/config"
	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.NewConfig()
	require.NoError(t, err)
	return cfg
}

func noopLogger() *logger.Logger {
	return testutil.MakeNoopLogger()
}
