package analyzer

import (
	"path"
	"strings"
)

// keyFilePatterns is the fixed allow-list of well-known file names whose
// content is worth fetching and analyzing. Matching is case-insensitive
// substring against the path base (directory-qualified patterns match the
// full path).
var keyFilePatterns = []string{
	"readme",
	"package.json",
	"go.mod",
	"requirements.txt",
	"pyproject.toml",
	"cargo.toml",
	"pom.xml",
	"build.gradle",
	"gemfile",
	"composer.json",
	"dockerfile",
	"docker-compose",
	"makefile",
	".github/workflows/",
	".gitlab-ci",
	"jenkinsfile",
	"schema.prisma",
	"schema.sql",
	"migrations/",
}

// keyFileSuffixes are extension matches that would be too loose as substrings.
var keyFileSuffixes = []string{".sql"}

// IsKeyFile reports whether a repository path is on the key-file allow-list.
func IsKeyFile(p string) bool {
	lower := strings.ToLower(strings.TrimSpace(p))
	if lower == "" {
		return false
	}
	base := path.Base(lower)
	for _, pat := range keyFilePatterns {
		if strings.Contains(pat, "/") {
			if strings.Contains(lower, pat) {
				return true
			}
			continue
		}
		if strings.Contains(base, pat) {
			return true
		}
	}
	for _, suf := range keyFileSuffixes {
		if strings.HasSuffix(base, suf) {
			return true
		}
	}
	return false
}
