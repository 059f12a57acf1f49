package arcconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[project]
name = "demo"
version = "0.1.0"
description = "a demo project"

[build]
target = "js"
output = "dist/demo.aria"
source_dirs = ["src"]
exclude = ["fixtures"]

[runtime]
endpoint = "https://runtime.example.test"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "arc.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	path := writeTemp(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, "0.1.0", cfg.Project.Version)
	assert.Equal(t, "js", cfg.Build.Target)
	assert.Equal(t, []string{"src"}, cfg.Build.SourceDirs)
	assert.Equal(t, "https://runtime.example.test", cfg.Runtime["endpoint"])
}

func TestExcludePatternsMergesDefaults(t *testing.T) {
	path := writeTemp(t, sampleConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	patterns := cfg.ExcludePatterns()
	assert.Contains(t, patterns, "node_modules")
	assert.Contains(t, patterns, "fixtures")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
