package enrich

import (
	"context"
	"log"
	"time"

	"onboardify/internal/analyzer"
	"onboardify/internal/gather"
	"onboardify/internal/llm"
)

// Confidence labels how a Result was produced.
type Confidence string

const (
	ConfidenceAI       Confidence = "ai-derived"
	ConfidenceFallback Confidence = "heuristic-fallback"
)

// Result is the best-effort structured view of the AI analysis. Every field
// has a usable zero value so downstream synthesis never needs to guard.
type Result struct {
	ArchitectureNarrative string     `json:"architecture_narrative,omitempty"`
	DataModelNarrative    string     `json:"data_model_narrative,omitempty"`
	FeatureList           []string   `json:"feature_list,omitempty"`
	SetupInstructions     string     `json:"setup_instructions,omitempty"`
	KeyInsights           []string   `json:"key_insights,omitempty"`
	Confidence            Confidence `json:"confidence"`

	// Note is set when the model answered but no segment matched any topic
	// keyword; the report surfaces it instead of the missing narratives.
	Note string `json:"note,omitempty"`
}

// Empty reports whether no bucket received any content.
func (r Result) Empty() bool {
	return r.ArchitectureNarrative == "" && r.DataModelNarrative == "" &&
		r.SetupInstructions == "" && len(r.FeatureList) == 0 && len(r.KeyInsights) == 0
}

// DefaultTimeout bounds the wall-clock cost of the enrichment pass.
const DefaultTimeout = 45 * time.Second

// segmentBudget is the turn/step budget handed to the model.
const segmentBudget = 8

// Enricher runs the optional AI analysis pass.
type Enricher struct {
	cli     llm.Client
	timeout time.Duration
}

func New(cli llm.Client, timeout time.Duration) *Enricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enricher{cli: cli, timeout: timeout}
}

// Enrich invokes the AI service under a hard timeout and parses its free-text
// response. It never fails: any error, timeout or empty response downgrades
// to a heuristic-fallback Result with empty narrative fields.
func (e *Enricher) Enrich(ctx context.Context, snap *gather.Snapshot, keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure) Result {
	if e == nil || e.cli == nil {
		return Result{Confidence: ConfidenceFallback}
	}

	prompt := BuildPrompt(snap, keyFiles, st)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	segments, err := e.cli.GenerateSegments(callCtx, prompt, segmentBudget)
	if err != nil {
		log.Printf("enrich: %s unavailable, falling back to heuristics: %v", e.cli.Name(), err)
		return Result{Confidence: ConfidenceFallback}
	}
	if len(segments) == 0 {
		return Result{Confidence: ConfidenceFallback}
	}

	res := ParseSegments(segments)
	res.Confidence = ConfidenceAI
	if res.Empty() {
		// The model answered but nothing matched a topic keyword. Still
		// ai-derived; the report gets a placeholder instead of narratives.
		res.Note = "AI analysis completed"
	}
	return res
}
