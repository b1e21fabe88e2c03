package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSegmentsBucketsByKeyword(t *testing.T) {
	segments := []string{
		"The architecture follows a layered design with clear separation.",
		"The data model centers on a User entity stored in Postgres.",
		"Setup: install dependencies with npm install, then npm run dev.",
		"Features include:\n- user authentication\n- report export",
		"Key insights:\n* the scheduler is single-threaded\n* caching is aggressive",
	}
	res := ParseSegments(segments)

	assert.Contains(t, res.ArchitectureNarrative, "layered design")
	assert.Contains(t, res.DataModelNarrative, "User entity")
	assert.Contains(t, res.SetupInstructions, "npm install")
	assert.Equal(t, []string{"user authentication", "report export"}, res.FeatureList)
	assert.Equal(t, []string{"the scheduler is single-threaded", "caching is aggressive"}, res.KeyInsights)
}

func TestParseSegmentsMultiBucket(t *testing.T) {
	// One segment mentioning both architecture and database lands in both.
	res := ParseSegments([]string{
		"The architecture keeps all database access behind a repository layer.",
	})
	assert.NotEmpty(t, res.ArchitectureNarrative)
	assert.NotEmpty(t, res.DataModelNarrative)
}

func TestParseSegmentsConcatenatesParagraphs(t *testing.T) {
	res := ParseSegments([]string{
		"The architecture is event driven.",
		"A second note on the architecture: workers are stateless.",
	})
	assert.Contains(t, res.ArchitectureNarrative, "event driven")
	assert.Contains(t, res.ArchitectureNarrative, "workers are stateless")
	assert.Contains(t, res.ArchitectureNarrative, "\n\n")
}

func TestParseSegmentsNoMatchesYieldsEmptyResult(t *testing.T) {
	res := ParseSegments([]string{"Lorem ipsum dolor sit amet.", "", "   "})
	assert.True(t, res.Empty())
}

func TestBulletsOrWholeFallsBackToWholeSegment(t *testing.T) {
	res := ParseSegments([]string{"An important caveat with no bullet formatting."})
	assert.Equal(t, []string{"An important caveat with no bullet formatting."}, res.KeyInsights)
}

func TestCleanMarkdownStripsNoise(t *testing.T) {
	in := "# Title\n\n![badge](https://img.shields.io/x)\n<!-- hidden -->\n<img src=\"logo.png\">\n\n\n\nBody text."
	out := cleanMarkdown(in)
	assert.NotContains(t, out, "badge")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "img")
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "Body text.")
	assert.NotContains(t, out, "\n\n\n")
}
