package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferStructureFromPackageJSON(t *testing.T) {
	manifest := Classify("package.json", `{
		"dependencies": {"react": "^18.2.0"},
		"devDependencies": {"vite": "^5.0.0"},
		"scripts": {"dev": "vite", "build": "vite build"}
	}`)
	st := InferStructure([]KeyFile{manifest})

	assert.Equal(t, "JavaScript", st.Language)
	assert.Equal(t, "React", st.Framework)
	assert.Equal(t, "npm", st.BuildSystem)
	assert.Equal(t, "Single Page Application", st.Architecture)
	// Declared scripts survive verbatim.
	require.NotNil(t, st.Scripts)
	assert.Equal(t, "vite", st.Scripts["dev"])
	assert.Equal(t, "vite build", st.Scripts["build"])
	assert.Contains(t, st.Dependencies, "react")
}

func TestContainerRulePrecedesAPIServerRule(t *testing.T) {
	files := []KeyFile{
		Classify("Dockerfile", "FROM node:20\nEXPOSE 3000\n"),
		Classify("package.json", `{"dependencies":{"express":"^4.18.0"}}`),
	}
	st := InferStructure(files)
	assert.Equal(t, "Containerized", st.Architecture)
	assert.Equal(t, "Express", st.Framework)
}

func TestServerFrameworkYieldsAPIServer(t *testing.T) {
	files := []KeyFile{
		Classify("package.json", `{"dependencies":{"express":"^4.18.0"}}`),
	}
	st := InferStructure(files)
	assert.Equal(t, "API Server", st.Architecture)
}

func TestNoManifestFallsBackToUnknown(t *testing.T) {
	st := InferStructure(nil)
	assert.Equal(t, "Unknown", st.Language)
	assert.Equal(t, "Unknown", st.Architecture)
	assert.Empty(t, st.BuildSystem)
	assert.Empty(t, st.TestFramework)
}

func TestManifestPriorityPrefersPackageJSON(t *testing.T) {
	// Polyglot repo: package.json wins the fixed priority order.
	files := []KeyFile{
		Classify("go.mod", "module demo\n\nrequire github.com/gin-gonic/gin v1.9.0\n"),
		Classify("package.json", `{"dependencies":{"react":"^18.0.0"}}`),
	}
	st := InferStructure(files)
	assert.Equal(t, "JavaScript", st.Language)
}

func TestGoModInference(t *testing.T) {
	files := []KeyFile{
		Classify("go.mod", "module demo\n\ngo 1.22\n\nrequire (\n\tgithub.com/gin-gonic/gin v1.9.0\n)\n"),
	}
	st := InferStructure(files)
	assert.Equal(t, "Go", st.Language)
	assert.Equal(t, "Gin", st.Framework)
	assert.Equal(t, "API Server", st.Architecture)
	assert.Equal(t, "go test", st.TestFramework)
}

func TestTypeScriptDetection(t *testing.T) {
	files := []KeyFile{
		Classify("package.json", `{"devDependencies":{"typescript":"^5.0.0","vitest":"^1.0.0"}}`),
	}
	st := InferStructure(files)
	assert.Equal(t, "TypeScript", st.Language)
	assert.Equal(t, "Vitest", st.TestFramework)
}

func TestInferStructureIsDeterministic(t *testing.T) {
	files := []KeyFile{
		Classify("package.json", `{"dependencies":{"react":"1"},"scripts":{"a":"x","b":"y"}}`),
		Classify("Dockerfile", "FROM node\n"),
	}
	first := InferStructure(files)
	second := InferStructure(files)
	assert.Equal(t, first, second)
}
