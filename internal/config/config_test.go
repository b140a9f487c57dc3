package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "taxi24", cfg.Database.DBName)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, EventsNone, cfg.Events.Backend)
	assert.Equal(t, 3.0, cfg.Dispatch.RadiusKm)
	assert.Equal(t, 3, cfg.Dispatch.MaxResults)
	assert.Equal(t, FareFlat, cfg.Fare.Policy)
	assert.Equal(t, 10000.0, cfg.Fare.FlatAmount)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DISPATCH_RADIUS_KM", "5.5")
	t.Setenv("FARE_POLICY", "distance")
	t.Setenv("FARE_PER_KM", "900")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, 5.5, cfg.Dispatch.RadiusKm)
	assert.Equal(t, FareDistance, cfg.Fare.Policy)
	assert.Equal(t, 900.0, cfg.Fare.PerKm)
}

func TestLoad_InvalidValuesAreJoined(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_BACKEND", "mongo")
	t.Setenv("EVENTS_BACKEND", "sqs")
	t.Setenv("DISPATCH_MAX_RESULTS", "0")
	t.Setenv("FARE_POLICY", "surge")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"STORAGE_BACKEND", "EVENTS_BACKEND", "DISPATCH_MAX_RESULTS", "FARE_POLICY"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_NewRelicNeedsLicense(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NEW_RELIC_ENABLED", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "NEW_RELIC_LICENSE_KEY")
}
