package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	IntakeWorkers          int
	SummarizerTimeoutSec   int
	PersistTimeoutSec      int
	StageRetryBackoffMs    int
	SummaryMaxChars        int
	LowConfidenceThreshold float64
	ShutdownGraceSec       int

	SampleMaxBytes  int
	MetadataScanCap int

	DefaultCaseCategory string
	TaxonomyPath        string

	SummarizerBackend string
	OllamaURL         string
	OllamaModel       string

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	StorageBackend string
	StoragePath    string
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string

	APIRateLimitRPS   int
	APIRateLimitBurst int
	APIMaxConcurrent  int
	MaxUploadBytes    int64
}

func Load() Config {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		IntakeWorkers:          mustEnvInt("INTAKE_WORKERS", 3),
		SummarizerTimeoutSec:   mustEnvInt("SUMMARIZER_TIMEOUT_SECONDS", 15),
		PersistTimeoutSec:      mustEnvInt("PERSIST_TIMEOUT_SECONDS", 10),
		StageRetryBackoffMs:    mustEnvInt("STAGE_RETRY_BACKOFF_MS", 250),
		SummaryMaxChars:        mustEnvInt("SUMMARY_MAX_CHARS", 400),
		LowConfidenceThreshold: mustEnvFloat("LOW_CONFIDENCE_THRESHOLD", 0.55),
		ShutdownGraceSec:       mustEnvInt("SHUTDOWN_GRACE_SECONDS", 20),

		SampleMaxBytes:  mustEnvInt("SAMPLE_MAX_BYTES", 16384),
		MetadataScanCap: mustEnvInt("METADATA_SCAN_CAP_BYTES", 65536),

		DefaultCaseCategory: mustEnv("DEFAULT_CASE_CATEGORY", "general"),
		TaxonomyPath:        mustEnv("TAXONOMY_PATH", ""),

		SummarizerBackend: mustEnv("SUMMARIZER_BACKEND", "heuristic"),
		OllamaURL:         mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:       mustEnv("OLLAMA_MODEL", "llama3.1:8b"),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "evidence.transitions"),

		StorageBackend: mustEnv("STORAGE_BACKEND", "local"),
		StoragePath:    mustEnv("STORAGE_PATH", "./data/evidence"),
		S3Bucket:       mustEnv("S3_BUCKET", ""),
		S3Region:       mustEnv("S3_REGION", "us-east-1"),
		S3AccessKey:    mustEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:    mustEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:     mustEnv("S3_ENDPOINT", ""),

		APIRateLimitRPS:   mustEnvInt("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxConcurrent:  mustEnvInt("API_MAX_CONCURRENT", 64),
		MaxUploadBytes:    int64(mustEnvInt("MAX_UPLOAD_BYTES", 32<<20)),
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

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
