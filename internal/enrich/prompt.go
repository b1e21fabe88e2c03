package enrich

import (
	"fmt"
	"strings"

	"onboardify/internal/analyzer"
	"onboardify/internal/gather"
)

// maxPromptBytes bounds the prompt regardless of how many key files the
// gather pass found.
const maxPromptBytes = 24_000

// BuildPrompt assembles a single bounded prompt from the repository summary
// and the truncated key-file excerpts, instructing the model to cover the six
// analytical angles the parser knows how to bucket.
func BuildPrompt(snap *gather.Snapshot, keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure) string {
	var b strings.Builder

	b.WriteString("You are analyzing a source repository to help a developer onboard quickly.\n\n")
	fmt.Fprintf(&b, "Repository: %s\n", snap.Handle)
	if d := strings.TrimSpace(snap.Metadata.Description); d != "" {
		fmt.Fprintf(&b, "Description: %s\n", d)
	}
	if snap.Metadata.Language != "" {
		fmt.Fprintf(&b, "Primary language (reported): %s\n", snap.Metadata.Language)
	}
	fmt.Fprintf(&b, "Stars: %d, forks: %d, open issues: %d\n",
		snap.Metadata.Stars, snap.Metadata.Forks, snap.Metadata.OpenIssues)
	fmt.Fprintf(&b, "Files in tree: %d\n", len(snap.Tree))
	if st.Language != "" {
		fmt.Fprintf(&b, "Heuristic detection: language=%s framework=%s architecture=%s\n",
			st.Language, orUnset(st.Framework), st.Architecture)
	}

	b.WriteString("\nKey file excerpts follow.\n")
	for _, kf := range keyFiles {
		content := kf.Content
		if kf.Category == analyzer.CategoryDocumentation {
			// READMEs are full of badges and screenshots; drop them before
			// they eat prompt budget.
			content = cleanMarkdown(content)
		}
		excerpt := fmt.Sprintf("\n--- %s (%s) ---\n%s\n", kf.Path, kf.Category, content)
		if b.Len()+len(excerpt) > maxPromptBytes {
			break
		}
		b.WriteString(excerpt)
	}

	b.WriteString(`
Address each of the following, one paragraph per topic, labeling each:
1. Architecture and design patterns in use.
2. Data model: entities, schema, and storage.
3. Features: what the project can do (bulleted list).
4. Technology stack and notable dependencies.
5. Setup instructions: how to install and run it.
6. Key insights: anything important a new developer should know (bulleted list).
`)
	return b.String()
}

func orUnset(s string) string {
	if s == "" {
		return "unset"
	}
	return s
}
