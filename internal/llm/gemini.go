package llm

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	// Optional RPS limiter via env: LLM_RPS/GEMINI_RPS and LLM_BURST/GEMINI_BURST
	var rps float64
	var burst int
	if v := envFirst("LLM_RPS", "GEMINI_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rps = f
		}
	}
	if v := envFirst("LLM_BURST", "GEMINI_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			burst = n
		}
	}
	return &GeminiClient{cli: cli, model: model, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error {
	if g.rl != nil {
		g.rl.Stop()
	}
	return nil
}

// GenerateSegments sends the prompt and returns the response split into
// paragraph-level text segments, capped at maxSegments.
func (g *GeminiClient) GenerateSegments(ctx context.Context, prompt string, maxSegments int) ([]string, error) {
	if err := g.rl.Acquire(ctx); err != nil {
		return nil, err
	}
	log.Printf("llm request (%s): %d bytes", g.Name(), len(prompt))

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var segments []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || strings.TrimSpace(part.Text) == "" {
			continue
		}
		segments = append(segments, SplitSegments(part.Text, maxSegments-len(segments))...)
		if maxSegments > 0 && len(segments) >= maxSegments {
			break
		}
	}
	if len(segments) == 0 {
		return nil, ErrEmptyResponse
	}
	return segments, nil
}

// SplitSegments breaks free text into paragraph blocks, at most max entries
// (max <= 0 means unlimited).
func SplitSegments(text string, max int) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, block)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

func envFirst(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
