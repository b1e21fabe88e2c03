package analyzer

import (
	"encoding/json"
	"path"
	"strings"
)

// ProjectStructure is the deterministic heuristic view of a repository
// derived from its key files. One instance per run.
type ProjectStructure struct {
	Language      string            `json:"language"`
	Framework     string            `json:"framework,omitempty"`
	BuildSystem   string            `json:"build_system,omitempty"`
	TestFramework string            `json:"test_framework,omitempty"`
	Architecture  string            `json:"architecture"`
	Dependencies  map[string]string `json:"dependencies,omitempty"`
	Scripts       map[string]string `json:"scripts,omitempty"`
}

type manifestMeta struct {
	name     string
	language string
	build    string
}

// manifestPriority fixes the tie-break order when a repository carries
// manifests for more than one ecosystem (polyglot mono-repos).
var manifestPriority = []manifestMeta{
	{"package.json", "JavaScript", "npm"},
	{"go.mod", "Go", "go"},
	{"requirements.txt", "Python", "pip"},
	{"pyproject.toml", "Python", "poetry"},
	{"cargo.toml", "Rust", "cargo"},
	{"pom.xml", "Java", "maven"},
	{"build.gradle", "Java", "gradle"},
	{"gemfile", "Ruby", "bundler"},
	{"composer.json", "PHP", "composer"},
}

var uiFrameworks = []struct{ dep, label string }{
	{"next", "Next.js"},
	{"nuxt", "Nuxt"},
	{"react", "React"},
	{"vue", "Vue.js"},
	{"@angular/core", "Angular"},
	{"svelte", "Svelte"},
}

var serverFrameworks = []struct{ dep, label string }{
	{"express", "Express"},
	{"fastify", "Fastify"},
	{"@nestjs/core", "NestJS"},
	{"koa", "Koa"},
	{"django", "Django"},
	{"flask", "Flask"},
	{"fastapi", "FastAPI"},
	{"github.com/gin-gonic/gin", "Gin"},
	{"github.com/labstack/echo", "Echo"},
	{"github.com/go-chi/chi", "chi"},
	{"actix-web", "Actix"},
	{"axum", "Axum"},
	{"rails", "Rails"},
	{"spring-boot", "Spring Boot"},
	{"laravel", "Laravel"},
}

var testFrameworkDeps = []struct{ dep, label string }{
	{"jest", "Jest"},
	{"vitest", "Vitest"},
	{"mocha", "Mocha"},
	{"cypress", "Cypress"},
	{"playwright", "Playwright"},
	{"pytest", "pytest"},
	{"rspec", "RSpec"},
}

// InferStructure derives language, framework, build/test tooling and an
// architecture label from the classified key files. Pure and deterministic:
// identical inputs always produce the identical structure.
func InferStructure(keyFiles []KeyFile) ProjectStructure {
	st := ProjectStructure{
		Language:     "Unknown",
		Architecture: "Unknown",
	}

	manifest, meta := primaryManifest(keyFiles)
	if manifest != nil {
		st.Language = meta.language
		st.BuildSystem = meta.build
		st.Dependencies, st.Scripts = parseManifest(*manifest)
	}

	if st.Language == "JavaScript" && st.Dependencies != nil {
		if _, ok := st.Dependencies["typescript"]; ok {
			st.Language = "TypeScript"
		}
	}

	ui := matchDep(st.Dependencies, uiFrameworks)
	server := matchDep(st.Dependencies, serverFrameworks)
	switch {
	case ui != "":
		st.Framework = ui
	case server != "":
		st.Framework = server
	}

	st.TestFramework = inferTestFramework(st)

	// First matching rule wins: container beats SPA beats API server.
	switch {
	case hasCategory(keyFiles, CategoryContainer):
		st.Architecture = "Containerized"
	case ui != "":
		st.Architecture = "Single Page Application"
	case server != "":
		st.Architecture = "API Server"
	}
	return st
}

func primaryManifest(keyFiles []KeyFile) (*KeyFile, manifestMeta) {
	for _, m := range manifestPriority {
		for i := range keyFiles {
			if keyFiles[i].Category != CategoryManifest {
				continue
			}
			if strings.Contains(strings.ToLower(path.Base(keyFiles[i].Path)), m.name) {
				return &keyFiles[i], m
			}
		}
	}
	return nil, manifestMeta{}
}

func parseManifest(kf KeyFile) (deps map[string]string, scripts map[string]string) {
	base := strings.ToLower(path.Base(kf.Path))
	switch {
	case strings.Contains(base, "package.json"), strings.Contains(base, "composer.json"):
		var pkg struct {
			Scripts         map[string]string `json:"scripts"`
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
			Require         map[string]string `json:"require"`
		}
		if err := json.Unmarshal([]byte(kf.Content), &pkg); err != nil {
			return nil, nil
		}
		deps = map[string]string{}
		for name, v := range pkg.Dependencies {
			deps[name] = v
		}
		for name, v := range pkg.DevDependencies {
			deps[name] = v
		}
		for name, v := range pkg.Require {
			deps[name] = v
		}
		if len(deps) == 0 {
			deps = nil
		}
		if len(pkg.Scripts) > 0 {
			scripts = pkg.Scripts
		}
		return deps, scripts
	case strings.Contains(base, "go.mod"):
		return parseGoMod(kf.Content), nil
	case strings.Contains(base, "requirements.txt"):
		return parseRequirements(kf.Content), nil
	default:
		return parseLooseManifest(kf.Content), nil
	}
}

func parseGoMod(content string) map[string]string {
	deps := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "module") {
			continue
		}
		line = strings.TrimPrefix(line, "require ")
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.Contains(fields[0], "/") && strings.HasPrefix(fields[1], "v") {
			deps[fields[0]] = fields[1]
		}
	}
	if len(deps) == 0 {
		return nil
	}
	return deps
}

func parseRequirements(content string) map[string]string {
	deps := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, sep := range []string{"==", ">=", "<=", "~=", ">"} {
			if i := strings.Index(line, sep); i > 0 {
				deps[strings.ToLower(strings.TrimSpace(line[:i]))] = strings.TrimSpace(line[i+len(sep):])
				line = ""
				break
			}
		}
		if line != "" {
			deps[strings.ToLower(line)] = ""
		}
	}
	if len(deps) == 0 {
		return nil
	}
	return deps
}

// parseLooseManifest covers TOML/XML-ish manifests well enough for
// dependency-name matching without a full parser.
func parseLooseManifest(content string) map[string]string {
	deps := map[string]string{}
	for _, line := range strings.Split(strings.ToLower(content), "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "="); i > 0 && !strings.HasPrefix(line, "[") {
			name := strings.TrimSpace(line[:i])
			if name != "" && !strings.ContainsAny(name, " \t") {
				deps[name] = strings.Trim(strings.TrimSpace(line[i+1:]), `"'`)
			}
		}
	}
	if len(deps) == 0 {
		return nil
	}
	return deps
}

func matchDep(deps map[string]string, table []struct{ dep, label string }) string {
	if len(deps) == 0 {
		return ""
	}
	for _, fw := range table {
		if _, ok := deps[fw.dep]; ok {
			return fw.label
		}
		// Go-style module paths match by prefix (versioned suffixes).
		if strings.Contains(fw.dep, "/") {
			for name := range deps {
				if strings.HasPrefix(name, fw.dep) {
					return fw.label
				}
			}
		}
	}
	return ""
}

func inferTestFramework(st ProjectStructure) string {
	if label := matchDep(st.Dependencies, testFrameworkDeps); label != "" {
		return label
	}
	for name, cmd := range st.Scripts {
		if name != "test" {
			continue
		}
		for _, fw := range testFrameworkDeps {
			if strings.Contains(strings.ToLower(cmd), fw.dep) {
				return fw.label
			}
		}
	}
	if st.Language == "Go" {
		return "go test"
	}
	return ""
}

func hasCategory(keyFiles []KeyFile, cat Category) bool {
	for _, kf := range keyFiles {
		if kf.Category == cat {
			return true
		}
	}
	return false
}
