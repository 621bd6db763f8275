package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// FeedConfig is one configured RSS/Atom source.
type FeedConfig struct {
	Name string
	URL  string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath          string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ingestion window. Defaults cover Hurricane Ian's South Florida impact.
	IngestStart time.Time
	IngestEnd   time.Time

	// NWS alerts API (feature-flagged via NWS_ENABLED).
	NWSEnabled   bool
	NWSBaseURL   string
	NWSUserAgent string

	Feeds        []FeedConfig
	FetchTimeout time.Duration

	DedupWindow time.Duration

	// Optional rule table override. Empty means the embedded defaults.
	RulesPath string

	// Kafka card publishing (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	dedupWindow, err := parseDuration("DEDUP_WINDOW", "6h")
	if err != nil {
		return nil, err
	}

	ingestStart, err := parseTime("INGEST_START", "2022-09-26T00:00:00Z")
	if err != nil {
		return nil, err
	}
	ingestEnd, err := parseTime("INGEST_END", "2022-09-30T23:59:59Z")
	if err != nil {
		return nil, err
	}

	feeds, err := parseFeeds(os.Getenv("FEED_URLS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:          envOrDefault("DB_PATH", "data/triage.db"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		IngestStart: ingestStart,
		IngestEnd:   ingestEnd,

		NWSEnabled:   envOrDefault("NWS_ENABLED", "true") == "true",
		NWSBaseURL:   envOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSUserAgent: envOrDefault("NWS_USER_AGENT", "hurricane-triage (contact: ops@couchcryptid.dev)"),

		Feeds:        feeds,
		FetchTimeout: fetchTimeout,

		DedupWindow: dedupWindow,
		RulesPath:   os.Getenv("RULES_PATH"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "triage-cards"),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if !cfg.IngestStart.Before(cfg.IngestEnd) {
		return nil, errors.New("INGEST_START must be before INGEST_END")
	}
	if cfg.DedupWindow <= 0 {
		return nil, errors.New("DEDUP_WINDOW must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseTime(key, fallback string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, envOrDefault(key, fallback))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t.UTC(), nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// parseFeeds reads a comma-separated list of Name=URL entries. A bare URL is
// accepted too and doubles as its own name.
func parseFeeds(s string) ([]FeedConfig, error) {
	var feeds []FeedConfig
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, u, found := strings.Cut(entry, "=")
		// "https://..." splits at the scheme separator, not a name.
		if !found || strings.Contains(name, "://") {
			name, u = entry, entry
		}
		name = strings.TrimSpace(name)
		u = strings.TrimSpace(u)
		if u == "" || !strings.Contains(u, "://") {
			return nil, fmt.Errorf("invalid FEED_URLS entry %q", entry)
		}
		feeds = append(feeds, FeedConfig{Name: name, URL: u})
	}
	return feeds, nil
}
