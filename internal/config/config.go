package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	GitHub GitHubConfig
	LLM    LLMConfig
	Gather GatherConfig

	TraceDir string
}

type GitHubConfig struct {
	BaseURL string
}

type LLMConfig struct {
	// Provider selects the enrichment backend: "gemini", "fake", or ""
	// (disabled; every run takes the heuristic path).
	Provider string
	Model    string
	Timeout  time.Duration
}

type GatherConfig struct {
	Concurrency int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:     *port,
		Env:      env,
		GitHub:   GitHubConfig{BaseURL: strings.TrimSpace(os.Getenv("GITHUB_API_BASE_URL"))},
		LLM:      loadLLMConfig(),
		Gather:   GatherConfig{Concurrency: intEnv("GATHER_CONCURRENCY", 0)},
		TraceDir: strings.TrimSpace(os.Getenv("RUN_TRACE_DIR")),
	}, nil
}

func loadLLMConfig() LLMConfig {
	timeout := 0
	if v := strings.TrimSpace(os.Getenv("ENRICH_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = n
		}
	}
	return LLMConfig{
		Provider: strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		Model:    firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
		Timeout:  time.Duration(timeout) * time.Second,
	}
}

func intEnv(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
