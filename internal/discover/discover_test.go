package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDiscoverFiltersByExtensionAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/tool.ts", "// b")
	writeFile(t, root, "a/tool.ts", "// a")
	writeFile(t, root, "a/readme.md", "# not source")
	writeFile(t, root, "node_modules/pkg/index.ts", "// excluded")

	files, skipped, err := Discover(Options{
		Roots:      []string{root},
		Extensions: []string{".ts"},
		Exclude:    []string{"node_modules"},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, files, 2)
	assert.Equal(t, "a/tool.ts", files[0].Path)
	assert.Equal(t, "b/tool.ts", files[1].Path)
}

func TestDiscoverMissingRootIsFatal(t *testing.T) {
	_, _, err := Discover(Options{
		Roots:      []string{filepath.Join(t.TempDir(), "missing")},
		Extensions: []string{".ts"},
	}, nil)
	assert.Error(t, err)
}

func TestDiscoverGlobExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vendor/thing/tool.ts", "// excluded")
	writeFile(t, root, "src/tool.ts", "// kept")

	files, _, err := Discover(Options{
		Roots:      []string{root},
		Extensions: []string{".ts"},
		Exclude:    []string{"vendor/*"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/tool.ts", files[0].Path)
}
