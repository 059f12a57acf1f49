package decoder

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/saint0x/ar-c/internal/parser"
)

// literalError reports a value in a decorator argument that cannot be
// computed from the AST alone: a computed key, a template string with
// interpolation, an identifier reference, or a function expression.
type literalError struct {
	Node    *sitter.Node
	Message string
}

func (e *literalError) Error() string { return e.Message }

// decodeLiteral converts one AST expression node into a plain Go value:
// string, float64, bool, nil, []any, or map[string]any.
func decodeLiteral(n *sitter.Node, tree *parser.Tree) (any, error) {
	switch n.Type() {
	case "object":
		return decodeObject(n, tree)
	case "array":
		return decodeArray(n, tree)
	case "string":
		return decodeString(n, tree)
	case "template_string":
		return decodeTemplateString(n, tree)
	case "number":
		text := tree.Text(n)
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &literalError{n, fmt.Sprintf("invalid numeric literal %q", text)}
		}
		return v, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "unary_expression":
		// Supports negative number literals: -1, -3.5
		if n.NamedChildCount() == 1 {
			operand := n.NamedChild(0)
			if operand.Type() == "number" {
				text := tree.Text(n)
				v, err := strconv.ParseFloat(text, 64)
				if err == nil {
					return v, nil
				}
			}
		}
		return nil, &literalError{n, "expected a literal value, found an expression"}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return decodeLiteral(n.NamedChild(0), tree)
		}
		return nil, &literalError{n, "expected a literal value"}
	default:
		return nil, &literalError{n, fmt.Sprintf("expected a literal value, found %s", n.Type())}
	}
}

func decodeObject(n *sitter.Node, tree *parser.Tree) (map[string]any, error) {
	out := make(map[string]any)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		member := n.NamedChild(i)
		switch member.Type() {
		case "pair":
			key, value, err := decodePair(member, tree)
			if err != nil {
				return nil, err
			}
			out[key] = value
		case "spread_element":
			return nil, &literalError{member, "spread elements are not allowed in decorator arguments"}
		case "method_definition":
			return nil, &literalError{member, "method shorthand values are not literals"}
		default:
			// shorthand_property_identifier and computed properties cannot
			// be resolved from AST text alone.
			return nil, &literalError{member, fmt.Sprintf("object entry must be a literal key-value pair, found %s", member.Type())}
		}
	}
	return out, nil
}

func decodePair(n *sitter.Node, tree *parser.Tree) (string, any, error) {
	keyNode := n.ChildByFieldName("key")
	valueNode := n.ChildByFieldName("value")
	if keyNode == nil || valueNode == nil {
		return "", nil, &literalError{n, "malformed object entry"}
	}

	var key string
	switch keyNode.Type() {
	case "property_identifier", "identifier":
		key = tree.Text(keyNode)
	case "string":
		s, err := decodeString(keyNode, tree)
		if err != nil {
			return "", nil, err
		}
		key = s
	default:
		return "", nil, &literalError{keyNode, fmt.Sprintf("computed or non-literal object key (%s) is not allowed", keyNode.Type())}
	}

	value, err := decodeLiteral(valueNode, tree)
	if err != nil {
		return "", nil, err
	}
	return key, value, nil
}

func decodeArray(n *sitter.Node, tree *parser.Tree) ([]any, error) {
	out := make([]any, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		elem := n.NamedChild(i)
		v, err := decodeLiteral(elem, tree)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeString strips the surrounding quotes from a `string` node and
// un-escapes simple backslash sequences. Tree-sitter represents the quote
// characters as anonymous tokens around one or more string_fragment /
// escape_sequence named children, but the raw text slice is sufficient.
func decodeString(n *sitter.Node, tree *parser.Tree) (string, error) {
	text := tree.Text(n)
	if len(text) < 2 {
		return "", &literalError{n, "malformed string literal"}
	}
	quote := text[0]
	if quote != '"' && quote != '\'' && quote != '`' {
		return "", &literalError{n, "malformed string literal"}
	}
	body := text[1 : len(text)-1]
	return unescape(body), nil
}

// decodeTemplateString only accepts a template literal with no
// `${...}` substitutions; an interpolated template cannot be computed
// from the AST alone and is rejected.
func decodeTemplateString(n *sitter.Node, tree *parser.Tree) (string, error) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "template_substitution" {
			return "", &literalError{n, "template strings with interpolation are not allowed in decorator arguments"}
		}
	}
	text := tree.Text(n)
	if len(text) < 2 {
		return "", nil
	}
	return unescape(text[1 : len(text)-1]), nil
}

func unescape(body string) string {
	if !strings.Contains(body, "\\") {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"', '`':
				b.WriteByte(body[i])
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
