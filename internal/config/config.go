package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	StoragePath string

	AllowedExtensions []string
	MaxUploadBytes    int64

	OCRServiceURL string
	OCRTimeout    time.Duration

	StageTimeout time.Duration

	TextPreviewChars int

	APIRateLimitRPS      float64
	APIRateLimitBurst    int
	APIMaxInFlight       int
	APIBackpressureDelay time.Duration

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "documents.analyze"),

		StoragePath: mustEnv("STORAGE_PATH", "./data/storage"),

		AllowedExtensions: mustEnvList("ALLOWED_EXTENSIONS", "pdf,png,jpg,jpeg,csv,txt,docx,xlsx,html"),
		MaxUploadBytes:    int64(mustEnvInt("MAX_UPLOAD_BYTES", 32<<20)),

		OCRServiceURL: mustEnv("OCR_SERVICE_URL", ""),
		OCRTimeout:    mustEnvDuration("OCR_TIMEOUT", 60*time.Second),

		StageTimeout: mustEnvDuration("STAGE_TIMEOUT", 30*time.Second),

		TextPreviewChars: mustEnvInt("TEXT_PREVIEW_CHARS", 500),

		APIRateLimitRPS:      float64(mustEnvInt("API_RATE_LIMIT_RPS", 50)),
		APIRateLimitBurst:    mustEnvInt("API_RATE_LIMIT_BURST", 100),
		APIMaxInFlight:       mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIBackpressureDelay: mustEnvDuration("API_BACKPRESSURE_DELAY", 200*time.Millisecond),

		Neo4jURI:      mustEnv("NEO4J_URI", ""),
		Neo4jUser:     mustEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: mustEnv("NEO4J_PASSWORD", ""),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func mustEnvList(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
