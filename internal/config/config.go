package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	AuditProvider string
	AuditModel    string
	AuditAPIKey   string
	OpenAIBaseURL string
	OllamaURL     string

	AuditMaxUploadMB  int
	SessionTTLMinutes int

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int
	APIMaxConnections     int

	AuditBreakerEnabled         bool
	AuditBreakerMinRequests     int
	AuditBreakerFailureRatio    float64
	AuditBreakerOpenTimeoutMS   int
	AuditBreakerHalfOpenMaxCall int

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	ReportArchiveDir  string
	WorkerMetricsPort string
}

// Load reads the environment. When CONFIG_FILE names a YAML file its values
// fill in whatever the environment leaves unset.
func Load() (Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = values
	}

	return Config{
		APIPort:  src.mustEnv("API_PORT", "8080"),
		LogLevel: src.mustEnv("LOG_LEVEL", "info"),

		AuditProvider: strings.ToLower(src.mustEnv("AUDIT_PROVIDER", "gemini")),
		AuditModel:    src.mustEnv("AUDIT_MODEL", ""),
		AuditAPIKey:   src.firstEnv("AUDIT_API_KEY", "GEMINI_API_KEY", "API_KEY"),
		OpenAIBaseURL: src.mustEnv("OPENAI_BASE_URL", ""),
		OllamaURL:     src.mustEnv("OLLAMA_URL", "http://localhost:11434"),

		AuditMaxUploadMB:  src.mustEnvInt("AUDIT_MAX_UPLOAD_MB", 20),
		SessionTTLMinutes: src.mustEnvInt("SESSION_TTL_MINUTES", 30),

		APIRateLimitRPS:       src.mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst:     src.mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:        src.mustEnvInt("API_MAX_IN_FLIGHT", 16),
		APIBackpressureWaitMS: src.mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),
		APIMaxConnections:     src.mustEnvInt("API_MAX_CONNECTIONS", 256),

		AuditBreakerEnabled:         src.mustEnvBool("AUDIT_BREAKER_ENABLED", true),
		AuditBreakerMinRequests:     src.mustEnvInt("AUDIT_BREAKER_MIN_REQUESTS", 10),
		AuditBreakerFailureRatio:    src.mustEnvFloat("AUDIT_BREAKER_FAILURE_RATIO", 0.5),
		AuditBreakerOpenTimeoutMS:   src.mustEnvInt("AUDIT_BREAKER_OPEN_TIMEOUT_MS", 30000),
		AuditBreakerHalfOpenMaxCall: src.mustEnvInt("AUDIT_BREAKER_HALF_OPEN_MAX_CALLS", 2),

		PostgresDSN: src.mustEnv("POSTGRES_DSN", ""),

		NATSURL:     src.mustEnv("NATS_URL", ""),
		NATSSubject: src.mustEnv("NATS_SUBJECT", "audits.completed"),

		ReportArchiveDir:  src.mustEnv("REPORT_ARCHIVE_DIR", "./data/reports"),
		WorkerMetricsPort: src.mustEnv("WORKER_METRICS_PORT", "9090"),
	}, nil
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) mustEnv(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(s.lookup(key)); v != "" {
			return v
		}
	}
	return ""
}

func (s source) mustEnvInt(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvFloat(key string, fallback float64) float64 {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvBool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// readFile flattens nested YAML into environment-style keys:
// audit.api_key becomes AUDIT_API_KEY.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := strings.ToUpper(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
