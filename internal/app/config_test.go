package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "ORD", cfg.OrderNumberPrefix)
	require.Equal(t, int64(1000), cfg.OrderNumberBase)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, 5*time.Minute, cfg.BrandingTTL)
	require.False(t, cfg.KafkaEnabled())
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ORDER_NUMBER_PREFIX", " SO ")
	t.Setenv("ORDER_NUMBER_BASE", "5000")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "SO", cfg.OrderNumberPrefix)
	require.Equal(t, int64(5000), cfg.OrderNumberBase)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.KafkaEnabled())
	require.True(t, cfg.IsProduction())
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"empty prefix":   {OrderNumberPrefix: "  "},
		"dash in prefix": {OrderNumberPrefix: "OR-D"},
		"negative base":  {OrderNumberPrefix: "ORD", OrderNumberBase: -1},
		"negative rate":  {OrderNumberPrefix: "ORD", RateLimitPerMinute: -5},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, cfg.Validate())
		})
	}

	ok := Config{OrderNumberPrefix: "ORD"}
	require.NoError(t, ok.Validate())
}
