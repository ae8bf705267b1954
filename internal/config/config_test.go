package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// 无config.yaml时全部走安全默认值
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, cfg.Poll.BaseInterval)
	require.Equal(t, 10*time.Second, cfg.Poll.MinDelay)
	require.Equal(t, time.Hour, cfg.Poll.ScheduleRefresh)
	require.Equal(t, "game-change-events", cfg.Kafka.Topic)
	require.NotEmpty(t, cfg.Kafka.Brokers)
	require.NotEmpty(t, cfg.Redis.URL)
	require.NotEmpty(t, cfg.Postgres.DSN)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BRIDGE_BASE_URL", "http://bridge:8000")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TARGET_DATE", "2026-01-08")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "http://bridge:8000", cfg.Upstream.BaseURL)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "2026-01-08", cfg.Poll.TargetDate)
}
