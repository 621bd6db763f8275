package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/triage.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Date(2022, 9, 26, 0, 0, 0, 0, time.UTC), cfg.IngestStart)
	assert.Equal(t, time.Date(2022, 9, 30, 23, 59, 59, 0, time.UTC), cfg.IngestEnd)
	assert.True(t, cfg.NWSEnabled)
	assert.Equal(t, "https://api.weather.gov", cfg.NWSBaseURL)
	assert.NotEmpty(t, cfg.NWSUserAgent)
	assert.Empty(t, cfg.Feeds)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 6*time.Hour, cfg.DedupWindow)
	assert.Empty(t, cfg.RulesPath)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "triage-cards", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/custom.db")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("INGEST_START", "2022-09-20T00:00:00Z")
	t.Setenv("INGEST_END", "2022-10-05T00:00:00Z")
	t.Setenv("NWS_ENABLED", "false")
	t.Setenv("NWS_BASE_URL", "http://localhost:8081")
	t.Setenv("FEED_URLS", "Local News=https://news.example.org/rss,https://alerts.example.org/atom.xml")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("DEDUP_WINDOW", "12h")
	t.Setenv("RULES_PATH", "/etc/triage/rules.yaml")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-cards")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Date(2022, 9, 20, 0, 0, 0, 0, time.UTC), cfg.IngestStart)
	assert.False(t, cfg.NWSEnabled)
	assert.Equal(t, "http://localhost:8081", cfg.NWSBaseURL)
	assert.Equal(t, []FeedConfig{
		{Name: "Local News", URL: "https://news.example.org/rss"},
		{Name: "https://alerts.example.org/atom.xml", URL: "https://alerts.example.org/atom.xml"},
	}, cfg.Feeds)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 12*time.Hour, cfg.DedupWindow)
	assert.Equal(t, "/etc/triage/rules.yaml", cfg.RulesPath)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-cards", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeDedupWindow(t *testing.T) {
	t.Setenv("DEDUP_WINDOW", "-1h")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEDUP_WINDOW")
}

func TestLoad_InvalidIngestWindow(t *testing.T) {
	t.Setenv("INGEST_START", "2022-10-01T00:00:00Z")
	t.Setenv("INGEST_END", "2022-09-26T00:00:00Z")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_START")
}

func TestLoad_InvalidIngestStart(t *testing.T) {
	t.Setenv("INGEST_START", "yesterday")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_START")
}

func TestLoad_InvalidFeedEntry(t *testing.T) {
	t.Setenv("FEED_URLS", "Local News=not-a-url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_URLS")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
