package llm

import (
	"context"
	"strings"
)

// FakeClient returns deterministic analysis segments for offline/testing.
type FakeClient struct {
	// Segments overrides the canned response when non-nil.
	Segments []string
	// Err, when set, is returned by every call.
	Err error
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateSegments(ctx context.Context, prompt string, maxSegments int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	segs := f.Segments
	if segs == nil {
		segs = cannedSegments(prompt)
	}
	if maxSegments > 0 && len(segs) > maxSegments {
		segs = segs[:maxSegments]
	}
	return segs, nil
}

func cannedSegments(prompt string) []string {
	lower := strings.ToLower(prompt)
	repo := "the repository"
	if i := strings.Index(lower, "repository:"); i >= 0 {
		line := lower[i+len("repository:"):]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		if name := strings.TrimSpace(line); name != "" {
			repo = name
		}
	}
	return []string{
		"Architecture: " + repo + " follows a layered structure with clear separation between entry points and internal packages.",
		"Data model: the schema-relevant files suggest a small set of core entities with straightforward relations.",
		"Features:\n- core request handling\n- configuration loading\n- automated tests",
		"Setup: install the declared dependencies, copy the sample environment file, then run the start script.",
		"Key insights:\n- documentation covers installation\n- dependency count is moderate",
	}
}
