package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers    []string
	KafkaSinkTopic  string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Drop directory ingestion.
	WatchDir     string
	ProcessedDir string
	PollInterval time.Duration
	BatchSize    int

	// Conversion inputs. ReplaceParamFile is an optional replacement
	// parameter file applied to every conversion; GridDefFile is an optional
	// grid definition sidecar required only for gridded dataset files.
	ReplaceParamFile string
	GridDefFile      string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}
	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  envOrDefault("KAFKA_SINK_TOPIC", "gssha-model-documents"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WatchDir:     envOrDefault("WATCH_DIR", "/var/lib/gssha-etl/drop"),
		ProcessedDir: envOrDefault("PROCESSED_DIR", "/var/lib/gssha-etl/processed"),
		PollInterval: pollInterval,
		BatchSize:    batchSize,

		ReplaceParamFile: os.Getenv("REPLACE_PARAM_FILE"),
		GridDefFile:      os.Getenv("GRID_DEF_FILE"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, fmt.Errorf("KAFKA_SINK_TOPIC is required")
	}
	if cfg.WatchDir == "" {
		return nil, fmt.Errorf("WATCH_DIR is required")
	}
	if cfg.ProcessedDir == "" {
		return nil, fmt.Errorf("PROCESSED_DIR is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
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

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	n, err := strconv.Atoi(envOrDefault("BATCH_SIZE", "50"))
	if err != nil || n <= 0 || n > maxBatchSize {
		return 0, fmt.Errorf("BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	return n, nil
}
