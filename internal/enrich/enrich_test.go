package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"onboardify/internal/analyzer"
	"onboardify/internal/gather"
	"onboardify/internal/githubapi"
	"onboardify/internal/llm"
)

func sampleSnapshot() *gather.Snapshot {
	return &gather.Snapshot{
		Handle: gather.Handle{Owner: "octo", Name: "demo"},
		Metadata: githubapi.Repository{
			FullName: "octo/demo",
			Language: "JavaScript",
		},
	}
}

func TestEnrichWithoutClientFallsBack(t *testing.T) {
	e := New(nil, 0)
	res := e.Enrich(context.Background(), sampleSnapshot(), nil, analyzer.ProjectStructure{})
	assert.Equal(t, ConfidenceFallback, res.Confidence)
	assert.True(t, res.Empty())
}

func TestEnrichParsesFakeResponse(t *testing.T) {
	e := New(llm.NewFakeClient(), 0)
	res := e.Enrich(context.Background(), sampleSnapshot(), nil, analyzer.ProjectStructure{Language: "JavaScript"})

	assert.Equal(t, ConfidenceAI, res.Confidence)
	assert.NotEmpty(t, res.ArchitectureNarrative)
	assert.NotEmpty(t, res.SetupInstructions)
	assert.NotEmpty(t, res.FeatureList)
	assert.NotEmpty(t, res.KeyInsights)
	assert.Empty(t, res.Note)
}

func TestEnrichFallsBackOnError(t *testing.T) {
	e := New(&llm.FakeClient{Err: errors.New("quota exhausted")}, 0)
	res := e.Enrich(context.Background(), sampleSnapshot(), nil, analyzer.ProjectStructure{})
	assert.Equal(t, ConfidenceFallback, res.Confidence)
	assert.True(t, res.Empty())
}

func TestEnrichFallsBackOnEmptyResponse(t *testing.T) {
	e := New(&llm.FakeClient{Segments: []string{}}, 0)
	res := e.Enrich(context.Background(), sampleSnapshot(), nil, analyzer.ProjectStructure{})
	assert.Equal(t, ConfidenceFallback, res.Confidence)
}

func TestEnrichSetsNoteWhenNothingMatches(t *testing.T) {
	e := New(&llm.FakeClient{Segments: []string{"Completely off-topic reply."}}, 0)
	res := e.Enrich(context.Background(), sampleSnapshot(), nil, analyzer.ProjectStructure{})

	assert.Equal(t, ConfidenceAI, res.Confidence)
	assert.True(t, res.Empty())
	assert.Equal(t, "AI analysis completed", res.Note)
}

func TestEnrichTimeoutFallsBack(t *testing.T) {
	slow := &slowClient{delay: 200 * time.Millisecond}
	e := New(slow, 20*time.Millisecond)

	start := time.Now()
	res := e.Enrich(context.Background(), sampleSnapshot(), nil, analyzer.ProjectStructure{})
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, ConfidenceFallback, res.Confidence)
}

type slowClient struct {
	delay time.Duration
}

func (c *slowClient) Name() string { return "slow" }

func (c *slowClient) GenerateSegments(ctx context.Context, _ string, _ int) ([]string, error) {
	select {
	case <-time.After(c.delay):
		return []string{"architecture overview"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *slowClient) Close() error { return nil }

func TestBuildPromptIncludesContext(t *testing.T) {
	snap := sampleSnapshot()
	snap.Metadata.Description = "a demo application"
	keyFiles := []analyzer.KeyFile{
		{Path: "package.json", Content: `{"dependencies":{"react":"1"}}`, Category: analyzer.CategoryManifest},
	}
	st := analyzer.ProjectStructure{Language: "JavaScript", Framework: "React"}

	prompt := BuildPrompt(snap, keyFiles, st)
	assert.Contains(t, prompt, "octo/demo")
	assert.Contains(t, prompt, "a demo application")
	assert.Contains(t, prompt, "React")
	assert.Contains(t, prompt, "package.json")
}
