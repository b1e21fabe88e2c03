package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"onboardify/internal/config"
	"onboardify/internal/enrich"
	"onboardify/internal/gather"
	"onboardify/internal/githubapi"
	"onboardify/internal/llm"
	"onboardify/internal/run"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	llmClient := buildLLMClient(cfg)
	if llmClient != nil {
		defer llmClient.Close()
	}

	gh := githubapi.NewClient(cfg.GitHub.BaseURL)
	gatherer := gather.New(gh, cfg.Gather.Concurrency)
	enricher := enrich.New(llmClient, cfg.LLM.Timeout)
	trace := run.NewTraceLogger(cfg.TraceDir)
	svc := run.NewService(gatherer, enricher, trace)

	srv := &apiServer{svc: svc, trace: trace}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", srv.handleAnalyze)
	mux.HandleFunc("/api/analyze/stream", srv.handleAnalyzeStream)
	mux.HandleFunc("/api/watch/", srv.handleWatchSSE)
	mux.HandleFunc("/ws/watch", srv.handleWatchWS)
	mux.HandleFunc("/debug/run-logs", srv.handleRunLogs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := corsMiddleware(mux)

	log.Printf("Starting API server on %s (llm=%s)", cfg.Port, llmName(llmClient))
	log.Fatal(http.ListenAndServe(cfg.Port, h2c.NewHandler(h, &http2.Server{})))
}

func buildLLMClient(cfg *config.Config) llm.Client {
	switch cfg.LLM.Provider {
	case "fake":
		return llm.NewFakeClient()
	case "gemini":
		cli, err := llm.NewGeminiClient(context.Background(), cfg.LLM.Model)
		if err != nil {
			log.Printf("gemini client unavailable, enrichment disabled: %v", err)
			return nil
		}
		return llm.Chain(cli, llm.Retry(2, 0))
	default:
		// No provider configured: every run takes the heuristic path.
		return nil
	}
}

func llmName(c llm.Client) string {
	if c == nil {
		return "disabled"
	}
	return c.Name()
}

// Simple CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
