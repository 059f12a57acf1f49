package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidDecoratedFunction(t *testing.T) {
	src := []byte(`@tool({ name: "myTool", description: "A test tool" })
export function myTool(input: string): string {
  return input;
}
`)
	tree, err := Parse("tool.ts", src)
	require.NoError(t, err)
	require.NotNil(t, tree.Root)
	assert.False(t, tree.Root.HasError())
}

func TestParseSyntaxErrorReportsLocation(t *testing.T) {
	src := []byte(`export function broken( {
`)
	_, err := Parse("broken.ts", src)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken.ts", perr.File)
	assert.GreaterOrEqual(t, perr.Line, 1)
}

func TestPositionTracksNewlines(t *testing.T) {
	tree := &Tree{Source: []byte("ab\ncd\nef")}
	line, col := tree.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = tree.Position(3)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = tree.Position(7)
	assert.Equal(t, 3, line)
	assert.Equal(t, 2, col)
}

func TestJavaScriptExtensionSelectsJSGrammar(t *testing.T) {
	src := []byte(`@tool({ name: "x", description: "y" })
function x() {}
`)
	tree, err := Parse("tool.js", src)
	require.NoError(t, err)
	assert.False(t, tree.Root.HasError())
}
