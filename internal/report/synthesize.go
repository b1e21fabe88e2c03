package report

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"onboardify/internal/analyzer"
	"onboardify/internal/enrich"
	"onboardify/internal/gather"
)

// AnalysisMode labels which path produced the report.
const (
	ModeAIEnhanced        = "ai-enhanced"
	ModeHeuristicFallback = "heuristic-fallback"
)

const (
	maxRecommendations  = 8
	maxGuideInsights    = 5
	maxTopFeatures      = 5
	issueTriageMin      = 50
	minSetupTextLength  = 40
	maxLanguageRows     = 8
	maxRecsFromInsights = 5
)

// Report is the terminal artifact of a pipeline run. Never mutated after
// construction and never persisted by this package.
type Report struct {
	OnboardingGuide   string    `json:"onboarding_guide"`
	TechnicalAnalysis string    `json:"technical_analysis"`
	Recommendations   []string  `json:"recommendations"`
	GeneratedAt       time.Time `json:"generated_at"`
	AnalysisMode      string    `json:"analysis_mode"`
}

// Synthesize merges heuristic and AI-derived signals into the final report.
// Pure and deterministic given its inputs; the enrichment confidence flag
// picks between the AI-enhanced and template-driven branches.
func Synthesize(snap *gather.Snapshot, keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure, enr enrich.Result, now time.Time) Report {
	mode := ModeAIEnhanced
	if enr.Confidence == enrich.ConfidenceFallback {
		mode = ModeHeuristicFallback
	}
	return Report{
		OnboardingGuide:   onboardingGuide(snap, keyFiles, st, enr),
		TechnicalAnalysis: technicalAnalysis(snap, keyFiles, st, enr, now),
		Recommendations:   recommendations(snap, keyFiles, st, enr),
		GeneratedAt:       now.UTC(),
		AnalysisMode:      mode,
	}
}

// ---------------------------------------------------------------------------
// onboarding guide
// ---------------------------------------------------------------------------

func onboardingGuide(snap *gather.Snapshot, keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure, enr enrich.Result) string {
	doc := Document{Title: "Onboarding Guide: " + snap.Handle.String()}

	doc.Add("Project Overview", projectOverview(snap, st, enr))
	doc.Add("Architecture", enr.ArchitectureNarrative)
	doc.Add("Data Model", enr.DataModelNarrative)
	doc.Add("Setup", setupSection(keyFiles, st, enr))
	if len(enr.KeyInsights) > 0 {
		doc.Add("Key Insights", bulletList(capped(enr.KeyInsights, maxGuideInsights)))
	}
	return doc.Render()
}

func projectOverview(snap *gather.Snapshot, st analyzer.ProjectStructure, enr enrich.Result) string {
	var b strings.Builder
	if d := strings.TrimSpace(snap.Metadata.Description); d != "" {
		b.WriteString(d + "\n\n")
	}
	lang := st.Language
	if lang == "Unknown" && snap.Metadata.Language != "" {
		lang = snap.Metadata.Language
	}
	fmt.Fprintf(&b, "Primary language: %s.", lang)
	if st.Framework != "" {
		fmt.Fprintf(&b, " Framework: %s.", st.Framework)
	}
	if feats := capped(enr.FeatureList, maxTopFeatures); len(feats) > 0 {
		b.WriteString("\n\nTop features:\n\n")
		b.WriteString(bulletList(feats))
	}
	return b.String()
}

// setupSection prefers the AI-derived instructions when they carry enough
// substance, otherwise falls back to the deterministic ecosystem template.
func setupSection(keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure, enr enrich.Result) string {
	if txt := strings.TrimSpace(enr.SetupInstructions); len(txt) >= minSetupTextLength {
		return txt
	}
	return setupTemplate(keyFiles, st)
}

type setupCommands struct {
	install string
	run     string
}

var setupByLanguage = map[string]setupCommands{
	"JavaScript": {"npm install", "npm start"},
	"TypeScript": {"npm install", "npm start"},
	"Go":         {"go build ./...", "go run ."},
	"Python":     {"pip install -r requirements.txt", "python main.py"},
	"Rust":       {"cargo build", "cargo run"},
	"Java":       {"mvn install", "mvn spring-boot:run"},
	"Ruby":       {"bundle install", "bundle exec rails server"},
	"PHP":        {"composer install", "php -S localhost:8000"},
}

func setupTemplate(keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure) string {
	var b strings.Builder
	b.WriteString("1. Clone the repository and change into its directory.\n")
	cmds, ok := setupByLanguage[st.Language]
	if !ok {
		b.WriteString("2. Install dependencies with the ecosystem's package manager.\n")
		b.WriteString("3. Consult the project documentation for run instructions.\n")
	} else {
		run := cmds.run
		// Prefer declared scripts over the generic run command.
		if _, hasDev := st.Scripts["dev"]; hasDev {
			run = "npm run dev"
		} else if _, hasStart := st.Scripts["start"]; hasStart && (st.Language == "JavaScript" || st.Language == "TypeScript") {
			run = "npm start"
		}
		fmt.Fprintf(&b, "2. Install dependencies: `%s`\n", cmds.install)
		fmt.Fprintf(&b, "3. Start the project: `%s`\n", run)
	}
	if schema := firstOfCategory(keyFiles, analyzer.CategorySchema); schema != nil {
		fmt.Fprintf(&b, "4. Apply the database schema before first run (see `%s`).\n", schema.Path)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// technical analysis
// ---------------------------------------------------------------------------

func technicalAnalysis(snap *gather.Snapshot, keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure, enr enrich.Result, now time.Time) string {
	doc := Document{Title: "Technical Analysis: " + snap.Handle.String()}

	narrative := joinParagraphs(enr.ArchitectureNarrative, enr.DataModelNarrative)
	if narrative == "" && enr.Note != "" {
		narrative = enr.Note + "; no topical findings were extracted."
	}
	doc.Add("AI Analysis", narrative)
	doc.Add("Language Distribution", languageTable(snap))
	doc.Add("Architecture Deep Dive", architectureDeepDive(st, enr))
	doc.Add("Repository Health", healthMetrics(snap, now))
	return doc.Render()
}

func architectureDeepDive(st analyzer.ProjectStructure, enr enrich.Result) string {
	if enr.ArchitectureNarrative != "" {
		return enr.ArchitectureNarrative
	}
	var lines []string
	lines = append(lines, "Architecture: "+st.Architecture)
	if st.Framework != "" {
		lines = append(lines, "Framework: "+st.Framework)
	}
	if st.BuildSystem != "" {
		lines = append(lines, "Build system: "+st.BuildSystem)
	}
	if st.TestFramework != "" {
		lines = append(lines, "Test framework: "+st.TestFramework)
	}
	if len(st.Scripts) > 0 {
		lines = append(lines, fmt.Sprintf("Declared scripts: %d", len(st.Scripts)))
	}
	return strings.Join(lines, "\n")
}

var extensionLanguages = map[string]string{
	".go": "Go", ".js": "JavaScript", ".jsx": "JavaScript",
	".ts": "TypeScript", ".tsx": "TypeScript", ".py": "Python",
	".rs": "Rust", ".java": "Java", ".rb": "Ruby", ".php": "PHP",
	".c": "C", ".h": "C", ".cpp": "C++", ".cs": "C#", ".kt": "Kotlin",
	".swift": "Swift", ".md": "Markdown", ".yml": "YAML", ".yaml": "YAML",
	".json": "JSON", ".sql": "SQL", ".html": "HTML", ".css": "CSS",
	".sh": "Shell",
}

func languageTable(snap *gather.Snapshot) string {
	counts := map[string]int{}
	total := 0
	for _, e := range snap.Tree {
		if e.Kind != "file" {
			continue
		}
		total++
		if lang, ok := extensionLanguages[strings.ToLower(path.Ext(e.Path))]; ok {
			counts[lang]++
		}
	}
	if total == 0 {
		return ""
	}
	type row struct {
		lang string
		n    int
	}
	rows := make([]row, 0, len(counts))
	for lang, n := range counts {
		rows = append(rows, row{lang, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].n != rows[j].n {
			return rows[i].n > rows[j].n
		}
		return rows[i].lang < rows[j].lang
	})
	if len(rows) > maxLanguageRows {
		rows = rows[:maxLanguageRows]
	}

	var b strings.Builder
	b.WriteString("| Language | Files |\n|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %d |\n", r.lang, r.n)
	}
	fmt.Fprintf(&b, "\nTotal files: %d", total)
	return b.String()
}

// activityThresholds map days-since-last-push to a label. First match wins.
var activityThresholds = []struct {
	maxDays int
	label   string
}{
	{7, "very active"},
	{30, "active"},
	{90, "moderate"},
	{365, "low"},
}

// ActivityLabel buckets the time since the last push into a coarse label.
func ActivityLabel(lastPush time.Time, now time.Time) string {
	if lastPush.IsZero() {
		return "unknown"
	}
	days := int(now.Sub(lastPush).Hours() / 24)
	for _, t := range activityThresholds {
		if days <= t.maxDays {
			return t.label
		}
	}
	return "dormant"
}

func healthMetrics(snap *gather.Snapshot, now time.Time) string {
	m := snap.Metadata
	lastPush := m.PushedAt
	if len(snap.RecentCommits) > 0 && snap.RecentCommits[0].Date.After(lastPush) {
		lastPush = snap.RecentCommits[0].Date
	}

	var b strings.Builder
	if !m.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n", m.CreatedAt.Format("2006-01-02"))
	}
	if !lastPush.IsZero() {
		fmt.Fprintf(&b, "Last push: %s\n", lastPush.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Stars: %d, forks: %d, open issues: %d\n", m.Stars, m.Forks, m.OpenIssues)
	if len(snap.RecentCommits) > 0 {
		fmt.Fprintf(&b, "Recent commits sampled: %d\n", len(snap.RecentCommits))
	}
	fmt.Fprintf(&b, "Activity level: %s", ActivityLabel(lastPush, now))
	return b.String()
}

// ---------------------------------------------------------------------------
// recommendations
// ---------------------------------------------------------------------------

// recommendations builds the ranked list: AI insights first, then fixed
// heuristics keyed off the detected structure. Never empty.
func recommendations(snap *gather.Snapshot, keyFiles []analyzer.KeyFile, st analyzer.ProjectStructure, enr enrich.Result) []string {
	var out []string
	out = append(out, capped(enr.KeyInsights, maxRecsFromInsights)...)

	if readme := firstOfCategory(keyFiles, analyzer.CategoryDocumentation); readme != nil {
		out = append(out, fmt.Sprintf("Start with `%s` for the project's own introduction.", readme.Path))
	} else {
		out = append(out, "No README was found; ask the maintainers for an overview before diving in.")
	}
	out = append(out, "Follow the setup section of the onboarding guide to get a local environment running.")
	if st.TestFramework != "" {
		out = append(out, fmt.Sprintf("Run the test suite (%s) before making changes.", st.TestFramework))
	} else {
		out = append(out, "No test framework was detected; tread carefully and consider adding tests.")
	}
	if schema := firstOfCategory(keyFiles, analyzer.CategorySchema); schema != nil {
		out = append(out, fmt.Sprintf("Review `%s` to understand the data model.", schema.Path))
		out = append(out, "Provision a local database matching the schema before running the app.")
	}
	if firstOfCategory(keyFiles, analyzer.CategoryContainer) != nil {
		out = append(out, "Use the provided container setup for a reproducible environment.")
	}
	if snap.Metadata.OpenIssues >= issueTriageMin {
		out = append(out, fmt.Sprintf("There are %d open issues; scan them for known pitfalls in the area you'll touch.", snap.Metadata.OpenIssues))
	}

	return capped(out, maxRecommendations)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func capped(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	return items[:max]
}

func firstOfCategory(keyFiles []analyzer.KeyFile, cat analyzer.Category) *analyzer.KeyFile {
	for i := range keyFiles {
		if keyFiles[i].Category == cat {
			return &keyFiles[i]
		}
	}
	return nil
}

func joinParagraphs(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
