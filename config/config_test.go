package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Address)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "Walk-in Customer", cfg.Orders.WalkInName)
	assert.False(t, cfg.Orders.StrictTransitions)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxImageBytes)
	assert.Equal(t, 10*time.Second, cfg.Worker.RelayInterval)
	assert.Equal(t, "none", cfg.Messaging.Provider)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pos.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
database:
  driver: sqlite
  dsn: file:pos.db
orders:
  strict_transitions: true
messaging:
  provider: kafka
  kafka_brokers: ["k1:9092", "k2:9092"]
`), 0o644))

	t.Setenv("POS_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir, file)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:pos.db", cfg.DB.DSN)
	assert.True(t, cfg.Orders.StrictTransitions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Messaging.KafkaBrokers)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "5000", cfg.Server.Address[len(cfg.Server.Address)-4:])
}

func TestFormatIndex(t *testing.T) {
	assert.Equal(t, "pos-orders", FormatIndex(ElasticConfig{Prefix: "pos"}, "orders"))
}
