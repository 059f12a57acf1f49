package pipeline

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/saint0x/ar-c/internal/arcconfig"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildProducesBundleForValidProject(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "tool.ts"), `@tool({ name: "myTool", description: "A test tool" })
export function myTool(input: string): string {
  return input;
}
`)
	out := filepath.Join(dir, "dist", "bundle.aria")

	cfg := arcconfig.Config{
		Project: arcconfig.Project{Name: "demo", Version: "0.1.0"},
		Build:   arcconfig.Build{Target: "typescript", Output: out, SourceDirs: []string{src}},
	}

	result := Build(context.Background(), BuildInputs{
		Config:          cfg,
		BuiltAt:         "2026-07-30T00:00:00Z",
		CompilerVersion: "0.1.0",
	}, nil)

	require.True(t, result.Succeeded, "%+v", result.Diagnostics)
	require.Equal(t, out, result.OutputPath)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()

	var foundManifest, foundImpl bool
	for _, f := range r.File {
		switch f.Name {
		case "manifest.json":
			foundManifest = true
		case "implementations/tools/myTool.ts":
			foundImpl = true
		}
	}
	assert.True(t, foundManifest)
	assert.True(t, foundImpl)
}

func TestBuildReportsDuplicateNameAndDoesNotWriteBundle(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "a.ts"), `@tool({ name: "dup", description: "d1" })
function toolA() {}
`)
	writeFile(t, filepath.Join(src, "b.ts"), `@tool({ name: "dup", description: "d2" })
function toolB() {}
`)
	out := filepath.Join(dir, "dist", "bundle.aria")

	cfg := arcconfig.Config{
		Project: arcconfig.Project{Name: "demo", Version: "0.1.0"},
		Build:   arcconfig.Build{Target: "typescript", Output: out, SourceDirs: []string{src}},
	}

	result := Build(context.Background(), BuildInputs{Config: cfg, BuiltAt: "2026-07-30T00:00:00Z", CompilerVersion: "0.1.0"}, nil)

	require.False(t, result.Succeeded)
	require.NotEmpty(t, result.Diagnostics)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "tool.ts"), `@tool({ name: "myTool", description: "d" })
export function myTool(input: string): string {
  return input;
}
`)

	cfg := arcconfig.Config{
		Project: arcconfig.Project{Name: "demo", Version: "0.1.0"},
		Build:   arcconfig.Build{Target: "typescript", SourceDirs: []string{src}},
	}

	out1 := filepath.Join(dir, "one.aria")
	out2 := filepath.Join(dir, "two.aria")
	cfg.Build.Output = out1
	r1 := Build(context.Background(), BuildInputs{Config: cfg, BuiltAt: "2026-07-30T00:00:00Z", CompilerVersion: "0.1.0"}, nil)
	require.True(t, r1.Succeeded)
	cfg.Build.Output = out2
	r2 := Build(context.Background(), BuildInputs{Config: cfg, BuiltAt: "2026-07-30T00:00:00Z", CompilerVersion: "0.1.0"}, nil)
	require.True(t, r2.Succeeded)

	b1, err := os.ReadFile(out1)
	require.NoError(t, err)
	b2, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}
