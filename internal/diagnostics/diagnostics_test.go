package diagnostics

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkSortsByFileThenOffset(t *testing.T) {
	s := NewSink()
	s.Errorf(CodeDuplicateName, "b.ts", 10, 1, "dup")
	s.Errorf(CodeDuplicateName, "a.ts", 20, 1, "dup")
	s.Errorf(CodeDuplicateName, "a.ts", 5, 1, "dup")

	diags := s.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, "a.ts", diags[0].File)
	assert.Equal(t, 5, diags[0].Offset)
	assert.Equal(t, "a.ts", diags[1].File)
	assert.Equal(t, 20, diags[1].Offset)
	assert.Equal(t, "b.ts", diags[2].File)
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	s := NewSink()
	s.Warnf(CodeDuplicateEntry, "a.ts", 0, 0, "dup entry")
	assert.False(t, s.HasErrors())

	s.Errorf(CodePipelineCycle, "a.ts", 0, 0, "cycle")
	assert.True(t, s.HasErrors())
}

func TestWriteTextFormat(t *testing.T) {
	s := NewSink()
	s.Add(Diagnostic{
		Severity: SeverityError,
		Code:     CodePipelineCycle,
		File:     "p.ts",
		Line:     3,
		Column:   5,
		Message:  "cycle detected",
	})
	text := s.WriteText()
	assert.Contains(t, text, "p.ts:3:5: error[ARC-PIPELINE-CYCLE]: cycle detected")
	assert.True(t, strings.HasSuffix(text, "1 error(s), 0 warning(s)\n"))
}

func TestWriteJSONLOneObjectPerLine(t *testing.T) {
	s := NewSink()
	s.Errorf(CodeDuplicateName, "a.ts", 1, 2, "dup")
	s.Warnf(CodeDuplicateEntry, "a.ts", 3, 4, "dup entry")

	out, err := s.WriteJSONL()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"code":"ARC-DUPLICATE-NAME"`)
}

func TestSinkConcurrentAdd(t *testing.T) {
	s := NewSink()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Errorf(CodeDuplicateName, "f.ts", n, 1, "dup %d", n)
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.Diagnostics(), 50)
}
