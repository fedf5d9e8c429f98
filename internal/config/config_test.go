package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, ":9090", cfg.MetricsAddress)
	require.Equal(t, "alert-evaluator", cfg.ConsumerGroupID)
	require.Equal(t, "lifesync.identity", cfg.JWTIssuer)
	require.Equal(t, 5*time.Second, cfg.TriggerTimeout)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":3000")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092 ,")
	t.Setenv("TRIGGER_TIMEOUT", "250ms")

	cfg := Load()
	require.Equal(t, ":3000", cfg.HTTPAddress)
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 250*time.Millisecond, cfg.TriggerTimeout)
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("TRIGGER_TIMEOUT", "soon")
	cfg := Load()
	require.Equal(t, 5*time.Second, cfg.TriggerTimeout)
}
