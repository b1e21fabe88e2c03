package enrich

import "strings"

// Keyword sets for bucketing free-text segments. A segment may land in more
// than one bucket if it matches several sets.
var (
	architectureKeywords = []string{"architecture", "pattern", "design", "structure"}
	dataModelKeywords    = []string{"data model", "database", "schema", "entity", "entities"}
	featureKeywords      = []string{"feature", "capabilit", "can do", "functionality"}
	setupKeywords        = []string{"setup", "install", "getting started", "run it", "how to run"}
	insightKeywords      = []string{"insight", "important", "note that", "be aware"}
)

// ParseSegments classifies each text segment into the enrichment buckets by
// keyword scan. Bullet-prefixed lines inside feature- or insight-flagged
// segments are extracted as individual list items. Confidence is left for
// the caller to set.
func ParseSegments(segments []string) Result {
	var res Result
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		lower := strings.ToLower(seg)

		if matchesAny(lower, architectureKeywords) {
			res.ArchitectureNarrative = appendParagraph(res.ArchitectureNarrative, seg)
		}
		if matchesAny(lower, dataModelKeywords) {
			res.DataModelNarrative = appendParagraph(res.DataModelNarrative, seg)
		}
		if matchesAny(lower, setupKeywords) {
			res.SetupInstructions = appendParagraph(res.SetupInstructions, seg)
		}
		if matchesAny(lower, featureKeywords) {
			res.FeatureList = append(res.FeatureList, bulletsOrWhole(seg)...)
		}
		if matchesAny(lower, insightKeywords) {
			res.KeyInsights = append(res.KeyInsights, bulletsOrWhole(seg)...)
		}
	}
	return res
}

func matchesAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func appendParagraph(existing, seg string) string {
	if existing == "" {
		return seg
	}
	return existing + "\n\n" + seg
}

// bulletsOrWhole returns the bullet lines of a segment, or the whole segment
// as a single item when it carries no bullets.
func bulletsOrWhole(seg string) []string {
	var out []string
	for _, line := range strings.Split(seg, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, prefix) {
				if item := strings.TrimSpace(strings.TrimPrefix(line, prefix)); item != "" {
					out = append(out, item)
				}
				break
			}
		}
	}
	if len(out) == 0 {
		return []string{seg}
	}
	return out
}
