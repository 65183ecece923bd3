package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hms-analytics/internal/appointments"
	"hms-analytics/internal/common/config"
	apperrors "hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/insights"
)

func TestRetryWithBackoff(t *testing.T) {
	log := zaptest.NewLogger(t)

	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, log, "Redis connection")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = RetryWithBackoff(func() error {
		calls++
		return errors.New("connection refused")
	}, 2, time.Millisecond, log, "Redis connection")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "Redis connection failed after 2 attempts")
	assert.Contains(t, err.Error(), "connection refused")
}

func testConnections(t *testing.T, cfg *config.Config) *Connections {
	c := NewConnections(cfg, zaptest.NewLogger(t))
	c.maxRetries = 1
	c.initialDelay = time.Millisecond
	t.Cleanup(c.Close)
	return c
}

func TestConnections_Source(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{CSVPath: "appointments.csv"}}
	c := testConnections(t, cfg)

	src, err := c.Source(context.Background(), config.SourceCSV)
	require.NoError(t, err)
	assert.IsType(t, &appointments.CSVSource{}, src)

	_, err = c.Source(context.Background(), "s3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"s3"`)
}

func TestConnections_SourcePostgresUnreachable(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Postgres: config.PostgresConfig{
		Host: "127.0.0.1", Port: 1, User: "hms", Database: "hms", SSLMode: "disable",
	}}}
	c := testConnections(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Source(ctx, config.SourcePostgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PostgreSQL connection failed after 1 attempts")
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, apperrors.Normalize(err).Code)
	assert.True(t, apperrors.Normalize(err).Retryable)
}

func TestConnections_ServingStore(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{
		Kind:        config.SourceFixture,
		FixturePath: "data/insights.json",
		CSVPath:     "data/appointments.csv",
	}}
	c := testConnections(t, cfg)

	store, err := c.ServingStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &insights.FixtureStore{}, store)

	cfg.Source.Kind = config.SourceCSV
	store, err = c.ServingStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &insights.ComputedStore{}, store)
}

func TestConnections_Cache(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Key: "insights:test", TTL: 60000}}
	c := testConnections(t, cfg)
	inner := insights.NewFixtureStore("unused.json")

	cached, err := c.Cache(context.Background(), inner, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Nil(t, cached)

	mr := miniredis.RunT(t)
	cfg.Cache.Enabled = true
	cfg.Database.Redis.Address = mr.Addr()

	cached, err = c.Cache(context.Background(), inner, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "cached-"+inner.Name(), cached.Name())
}

func TestWorkers_CloseNil(t *testing.T) {
	var ws *Workers
	assert.NoError(t, ws.Close())
	assert.NoError(t, (&Workers{}).Close())
}
