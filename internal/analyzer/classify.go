package analyzer

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Category labels a key file by the role it plays in the repository.
type Category string

const (
	CategoryDocumentation Category = "documentation"
	CategoryManifest      Category = "dependency-manifest"
	CategoryContainer     Category = "containerization"
	CategoryTestConfig    Category = "test-config"
	CategorySchema        Category = "database-schema"
	CategoryCode          Category = "generic-code"
)

// MaxKeyFileContent bounds how much raw content a KeyFile retains.
const MaxKeyFileContent = 2000

// KeyFile is a classified repository file with heuristic insights.
// Immutable once created.
type KeyFile struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Insights []string `json:"insights"`
}

// frameworkLabels maps well-known manifest dependencies to a human-readable
// project label. Order matters: the first match wins.
var frameworkLabels = []struct {
	dep   string
	label string
}{
	{"next", "Next.js application"},
	{"nuxt", "Nuxt application"},
	{"react", "React application"},
	{"vue", "Vue.js application"},
	{"@angular/core", "Angular application"},
	{"svelte", "Svelte application"},
	{"express", "Express server"},
	{"fastify", "Fastify server"},
	{"@nestjs/core", "NestJS server"},
	{"django", "Django application"},
	{"flask", "Flask application"},
	{"fastapi", "FastAPI application"},
}

// Classify assigns a category to a repository file and extracts short
// heuristic insights from its content. Pure function: no I/O, never fails.
// Malformed input yields an empty insight list at worst.
func Classify(filePath, content string) KeyFile {
	if len(content) > MaxKeyFileContent {
		content = content[:MaxKeyFileContent]
	}
	kf := KeyFile{
		Path:     filePath,
		Content:  content,
		Category: categorize(filePath),
	}
	kf.Insights = extractInsights(kf.Category, filePath, content)
	return kf
}

func categorize(filePath string) Category {
	lower := strings.ToLower(strings.TrimSpace(filePath))
	base := path.Base(lower)
	switch {
	case strings.Contains(base, "readme"):
		return CategoryDocumentation
	case isManifestName(base):
		return CategoryManifest
	case strings.Contains(base, "docker"):
		return CategoryContainer
	case strings.Contains(lower, "test") || strings.Contains(lower, "spec"):
		return CategoryTestConfig
	case isSchemaName(lower, base):
		return CategorySchema
	default:
		return CategoryCode
	}
}

var manifestNames = []string{
	"package.json", "go.mod", "requirements.txt", "pyproject.toml",
	"cargo.toml", "pom.xml", "build.gradle", "gemfile", "composer.json",
}

func isManifestName(base string) bool {
	for _, m := range manifestNames {
		if strings.Contains(base, m) {
			return true
		}
	}
	return false
}

func isSchemaName(lower, base string) bool {
	return strings.Contains(base, "schema") ||
		strings.HasSuffix(base, ".sql") ||
		strings.Contains(lower, "migrations/")
}

func extractInsights(cat Category, filePath, content string) []string {
	lower := strings.ToLower(content)
	switch cat {
	case CategoryDocumentation:
		return documentationInsights(lower)
	case CategoryManifest:
		return manifestInsights(filePath, content, lower)
	case CategoryContainer:
		return containerInsights(lower)
	case CategoryTestConfig:
		return testConfigInsights(lower)
	case CategorySchema:
		return schemaInsights(lower)
	default:
		return nil
	}
}

var docSections = []struct {
	markers []string
	insight string
}{
	{[]string{"installation", "getting started"}, "documents installation / getting started"},
	{[]string{"## api", "# api", "api reference"}, "documents an API"},
	{[]string{"contributing"}, "has contribution guidelines"},
	{[]string{"license"}, "mentions a license"},
	{[]string{"example", "demo"}, "includes examples"},
}

func documentationInsights(lower string) []string {
	var out []string
	for _, sec := range docSections {
		for _, m := range sec.markers {
			if strings.Contains(lower, m) {
				out = append(out, sec.insight)
				break
			}
		}
	}
	if n := strings.Count(lower, "```"); n >= 2 {
		out = append(out, fmt.Sprintf("contains %d fenced command/code blocks", n/2))
	}
	return out
}

func manifestInsights(filePath, content, lower string) []string {
	base := strings.ToLower(path.Base(filePath))
	if strings.Contains(base, "package.json") {
		return packageJSONInsights(content)
	}
	if strings.Contains(base, "go.mod") {
		return goModInsights(lower)
	}
	// Other ecosystems: count non-empty, non-comment lines as declarations.
	n := 0
	for _, line := range strings.Split(lower, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		n++
	}
	if n == 0 {
		return []string{"contains package configuration"}
	}
	return []string{fmt.Sprintf("declares %d configuration entries", n)}
}

func packageJSONInsights(content string) []string {
	var pkg struct {
		Scripts         map[string]string `json:"scripts"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		// Truncated or malformed manifests still count as configuration.
		return []string{"contains package configuration"}
	}
	var out []string
	if label := frameworkLabelFor(pkg.Dependencies, pkg.DevDependencies); label != "" {
		out = append(out, label)
	}
	if len(pkg.Dependencies) > 0 || len(pkg.DevDependencies) > 0 {
		out = append(out, fmt.Sprintf("declares %d dependencies (%d dev)",
			len(pkg.Dependencies)+len(pkg.DevDependencies), len(pkg.DevDependencies)))
	}
	for _, name := range sortedKeys(pkg.Scripts) {
		out = append(out, "defines script: "+name)
	}
	if len(out) == 0 {
		out = append(out, "contains package configuration")
	}
	return out
}

func frameworkLabelFor(deps ...map[string]string) string {
	for _, fw := range frameworkLabels {
		for _, m := range deps {
			if _, ok := m[fw.dep]; ok {
				return fw.label
			}
		}
	}
	return ""
}

func goModInsights(lower string) []string {
	var out []string
	n := 0
	for _, line := range strings.Split(lower, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			out = append(out, "Go module: "+strings.TrimSpace(strings.TrimPrefix(line, "module ")))
		}
		if strings.Contains(line, "/") && !strings.HasPrefix(line, "module") &&
			!strings.HasPrefix(line, "//") && strings.Contains(line, " v") {
			n++
		}
	}
	if n > 0 {
		out = append(out, fmt.Sprintf("declares %d Go dependencies", n))
	}
	if len(out) == 0 {
		out = append(out, "contains package configuration")
	}
	return out
}

func containerInsights(lower string) []string {
	var out []string
	if n := strings.Count(lower, "from "); n > 1 {
		out = append(out, "multi-stage container build")
	} else if n == 1 {
		out = append(out, "single-stage container build")
	}
	if strings.Contains(lower, "expose") {
		out = append(out, "exposes network ports")
	}
	if strings.Contains(lower, "services:") {
		out = append(out, "defines multi-service compose stack")
	}
	return out
}

var testFrameworkHints = []struct {
	marker  string
	insight string
}{
	{"jest", "uses Jest"},
	{"vitest", "uses Vitest"},
	{"mocha", "uses Mocha"},
	{"pytest", "uses pytest"},
	{"testing.t", "uses Go testing"},
	{"cypress", "uses Cypress"},
}

func testConfigInsights(lower string) []string {
	var out []string
	for _, h := range testFrameworkHints {
		if strings.Contains(lower, h.marker) {
			out = append(out, h.insight)
		}
	}
	return out
}

func schemaInsights(lower string) []string {
	var out []string
	if n := strings.Count(lower, "create table"); n > 0 {
		out = append(out, fmt.Sprintf("defines %d tables", n))
	}
	if n := strings.Count(lower, "model "); n > 0 && strings.Contains(lower, "datasource") {
		out = append(out, fmt.Sprintf("defines %d Prisma models", n))
	}
	if strings.Contains(lower, "foreign key") || strings.Contains(lower, "references") {
		out = append(out, "uses relational constraints")
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
