package transpile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/model"
	"github.com/saint0x/ar-c/internal/parser"
	"github.com/saint0x/ar-c/internal/visitor"
)

func extractOne(t *testing.T, path, src string) (*parser.Tree, visitor.Decoration) {
	t.Helper()
	tree, err := parser.Parse(path, []byte(src))
	require.NoError(t, err)
	sink := diagnostics.NewSink()
	decs := visitor.Extract(tree, sink)
	require.False(t, sink.HasErrors())
	require.Len(t, decs, 1)
	return tree, decs[0]
}

func TestTranspileStripsDecoratorLine(t *testing.T) {
	src := `@tool({ name: "myTool", description: "A test tool" })
export function myTool(input: string): string {
  return input;
}
`
	tree, dec := extractOne(t, "tool.ts", src)
	out := Implementation(tree, dec)
	assert.NotContains(t, out, "@tool(")
	assert.Contains(t, out, "export function myTool(input")
	assert.Contains(t, out, "return input;")
}

func TestTranspileErasesTypeAnnotations(t *testing.T) {
	src := `@tool({ name: "myTool", description: "A test tool" })
export function myTool(input: string): string {
  return input;
}
`
	tree, dec := extractOne(t, "tool.ts", src)
	out := Implementation(tree, dec)
	assert.NotContains(t, out, ": string")
}

func TestTranspileKeepsClassWithMethodDecoratorRemoved(t *testing.T) {
	src := `class MyToolContainer {
  @tool({ name: "myTool", description: "A test tool" })
  myTool(input: string): string {
    return input;
  }
}
`
	tree, dec := extractOne(t, "tool.ts", src)
	out := Implementation(tree, dec)
	assert.Contains(t, out, "class MyToolContainer")
	assert.Contains(t, out, "myTool(input)")
	assert.NotContains(t, out, "@tool(")
}

func TestTranspileKeepsUnrecognizedDecorator(t *testing.T) {
	src := `@memoize()
@tool({ name: "cached", description: "d" })
function cached() {}
`
	tree, dec := extractOne(t, "ignored.ts", src)
	out := Implementation(tree, dec)
	assert.Contains(t, out, "@memoize()")
	assert.NotContains(t, out, "@tool(")
}

func TestTranspileIsIdempotent(t *testing.T) {
	src := `@tool({ name: "myTool", description: "A test tool" })
export function myTool(input: string): string {
  return input;
}
`
	tree, dec := extractOne(t, "tool.ts", src)
	first := Implementation(tree, dec)

	tree2, err := parser.Parse("tool2.ts", []byte(first))
	require.NoError(t, err)
	sink := diagnostics.NewSink()
	decs2 := visitor.Extract(tree2, sink)
	require.Empty(t, decs2, "the recognized decorator must no longer be present")

	second := Implementation(tree2, visitor.Decoration{
		CaptureSpan: model.Span{StartOffset: 0, EndOffset: len(tree2.Source)},
	})
	assert.Equal(t, first, second)
}
