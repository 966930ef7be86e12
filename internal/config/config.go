// Package config loads service settings from environment variables with
// defaults suitable for a local demo run.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Simulation parameters.
	Size       int
	TimeSteps  int
	NoiseLevel float64
	Seed       uint64

	// Model parameters. An empty Features list selects the full default
	// feature schema.
	Features      []string
	TestFraction  float64
	Contamination float64

	// Service surfaces.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional result publishing.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset and validating the result.
func Load() (*Config, error) {
	size, err := parsePositiveInt("SIZE", 200)
	if err != nil {
		return nil, err
	}
	timeSteps, err := parsePositiveInt("TIME_STEPS", 5)
	if err != nil {
		return nil, err
	}
	noiseLevel, err := parseFloat("NOISE_LEVEL", 0.05)
	if err != nil {
		return nil, err
	}
	seed, err := parseSeed("SEED", 42)
	if err != nil {
		return nil, err
	}
	testFraction, err := parseFloat("TEST_FRACTION", 0.2)
	if err != nil {
		return nil, err
	}
	contamination, err := parseFloat("CONTAMINATION", 0.01)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Size:          size,
		TimeSteps:     timeSteps,
		NoiseLevel:    noiseLevel,
		Seed:          seed,
		Features:      parseList(os.Getenv("FEATURES")),
		TestFraction:  testFraction,
		Contamination: contamination,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "insar-deformation-records"),
	}

	if cfg.NoiseLevel < 0 {
		return nil, errors.New("NOISE_LEVEL must be >= 0")
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		return nil, errors.New("TEST_FRACTION must be in (0, 1)")
	}
	if cfg.Contamination <= 0 || cfg.Contamination > 0.5 {
		return nil, errors.New("CONTAMINATION must be in (0, 0.5]")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseList splits a comma-separated value, trimming whitespace and dropping
// empty entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return v, nil
}

func parseSeed(key string, fallback uint64) (uint64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New(key + " must be an unsigned integer")
	}
	return v, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New(key + " must be a positive duration")
	}
	return d, nil
}
