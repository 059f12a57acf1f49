// Package parser wraps Tree-sitter's TypeScript/JavaScript grammars: it
// produces a syntactic tree per source file with decorator syntax enabled
// and precise byte-offset/line/column positions for every node.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Tree is a parsed source file: its AST root plus the original text it was
// parsed from, kept together so spans can be resolved back to substrings.
type Tree struct {
	Path   string
	Source []byte
	Root   *sitter.Node
}

// ParseError carries a precise file/offset/line/column location for a
// syntax error.
type ParseError struct {
	File    string
	Offset  int
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// Parse parses one source file's text into a Tree. It selects the
// TypeScript or JavaScript grammar by extension; both grammars accept
// decorator syntax on classes and class members, and type annotations are
// accepted syntactically and erased only later, by the Transpiler.
//
// A syntax error is fatal for the file: no partial-parse recovery is
// attempted, and the first error node found is reported.
func Parse(path string, source []byte) (*Tree, error) {
	p := sitter.NewParser()
	defer p.Close()

	if isJavaScript(path) {
		p.SetLanguage(javascript.GetLanguage())
	} else {
		p.SetLanguage(typescript.GetLanguage())
	}

	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()

	if errNode := firstErrorNode(root); errNode != nil {
		return nil, &ParseError{
			File:    path,
			Offset:  int(errNode.StartByte()),
			Line:    int(errNode.StartPoint().Row) + 1,
			Column:  int(errNode.StartPoint().Column) + 1,
			Message: "syntax error",
		}
	}

	return &Tree{Path: path, Source: source, Root: root}, nil
}

func isJavaScript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return true
	default:
		return false
	}
}

// firstErrorNode does a depth-first search for the first ERROR or missing
// node Tree-sitter produced, so the reported offset is as close as possible
// to the actual mistake rather than the whole file span.
func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// Text returns the source substring covered by a node's byte span.
func (t *Tree) Text(n *sitter.Node) string {
	return string(t.Source[n.StartByte():n.EndByte()])
}

// TextAt returns the source substring between two byte offsets. Unlike
// Text, the range need not correspond to any single AST node — used to
// capture a unit together with decorators that the grammar attaches as
// preceding siblings rather than as the unit's own children.
func (t *Tree) TextAt(start, end int) string {
	return string(t.Source[start:end])
}

// Position converts a byte offset into a 1-indexed (line, column) pair.
func (t *Tree) Position(offset int) (line, column int) {
	line, column = 1, 1
	for i := 0; i < offset && i < len(t.Source); i++ {
		if t.Source[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
