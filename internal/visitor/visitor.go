// Package visitor walks each parsed file once, recognizes decorator
// applications whose identifier belongs to {tool, agent, team, pipeline},
// and records each one's single argument expression, the decoration
// target's outer span, and its declared dependencies (free identifiers
// resolving to module-level imports).
package visitor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/model"
	"github.com/saint0x/ar-c/internal/parser"
)

// recognized is the set of decorator identifiers the Extractor acts on.
// Any other decorator identifier is ignored and left untouched in the
// emitted code.
var recognized = map[string]model.EntityKind{
	"tool":     model.KindTool,
	"agent":    model.KindAgent,
	"team":     model.KindTeam,
	"pipeline": model.KindPipeline,
}

// Decoration is one recognized decorator application, ready for the
// Decoder and Transpiler.
type Decoration struct {
	Kind model.EntityKind

	// HostIdentifier is the decorated function/method/class's own source
	// identifier. It has no bearing on the manifest name — the decoded
	// manifest's own name field is authoritative — but is useful for
	// diagnostics.
	HostIdentifier string

	// ArgumentNode is the decorator's sole argument expression (required to
	// be an object literal; enforced by the Decoder).
	ArgumentNode *sitter.Node

	// CaptureSpan bounds the Implementation's captured source: from the
	// first decorator attached to the unit (recognized or not — an
	// unrecognized decorator is left untouched by the Transpiler) through
	// the end of the declaration. For a @tool on a class method this spans
	// the enclosing class declaration, shared across every @tool method of
	// that class.
	CaptureSpan model.Span

	// DecoratorNodes are every recognized decorator application located
	// inside CaptureSpan that must be stripped when transpiling this
	// captured unit. For a top-level function or a class-level decorator
	// this is a single node; for a tool-hosting class it is one node per
	// decorated method.
	DecoratorNodes []*sitter.Node

	Span         model.Span
	Dependencies []string
}

// Extract walks one parsed file and returns every recognized decoration,
// reporting decorator-shape problems (non-object-literal argument, wrong
// argument count) to sink without aborting the rest of the file.
func Extract(tree *parser.Tree, sink *diagnostics.Sink) []Decoration {
	imports := collectImportBindings(tree.Root, tree)

	var out []Decoration
	program := tree.Root
	walkTopLevel(program, tree, imports, sink, &out)
	return out
}

// walkTopLevel visits the program's top-level statements, unwrapping
// export_statement so `export class Foo {}` and `export function foo(){}`
// are recognized the same as their unexported form.
func walkTopLevel(node *sitter.Node, tree *parser.Tree, imports map[string]bool, sink *diagnostics.Sink, out *[]Decoration) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "export_statement":
			walkTopLevel(child, tree, imports, sink, out)
		case "class_declaration":
			visitClass(child, tree, imports, sink, out)
		case "function_declaration":
			visitFunction(child, tree, imports, sink, out)
		}
	}
}

func visitFunction(node *sitter.Node, tree *parser.Tree, imports map[string]bool, sink *diagnostics.Sink, out *[]Decoration) {
	decorators := leadingDecorators(node)
	if len(decorators) == 0 {
		return
	}
	nameNode := node.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = tree.Text(nameNode)
	}

	for _, dec := range decorators {
		kind, ident, argNode, ok := recognize(dec, tree)
		if !ok {
			continue
		}
		if kind != model.KindTool {
			sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(dec.StartByte()), int(dec.EndByte()-dec.StartByte()),
				"@%s cannot be applied to a function declaration; it is only valid on a class", ident)
			continue
		}
		if argNode == nil {
			sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(dec.StartByte()), int(dec.EndByte()-dec.StartByte()),
				"@%s requires a single object-literal argument", ident)
			continue
		}
		span := spanFor(node, decorators, tree)
		*out = append(*out, Decoration{
			Kind:           kind,
			HostIdentifier: name,
			ArgumentNode:   argNode,
			CaptureSpan:    captureSpanFor(node, decorators, tree),
			DecoratorNodes: []*sitter.Node{dec},
			Span:           span,
			Dependencies:   freeImportIdentifiers(node, tree, imports),
		})
	}
}

func visitClass(node *sitter.Node, tree *parser.Tree, imports map[string]bool, sink *diagnostics.Sink, out *[]Decoration) {
	nameNode := node.ChildByFieldName("name")
	className := ""
	if nameNode != nil {
		className = tree.Text(nameNode)
	}

	classDecorators := leadingDecorators(node)
	classSpan := spanFor(node, classDecorators, tree)
	classCaptureSpan := captureSpanFor(node, classDecorators, tree)
	classDeps := freeImportIdentifiers(node, tree, imports)

	for _, dec := range classDecorators {
		kind, ident, argNode, ok := recognize(dec, tree)
		if !ok {
			continue
		}
		if kind == model.KindTool {
			sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(dec.StartByte()), int(dec.EndByte()-dec.StartByte()),
				"@tool cannot be applied to a class declaration; apply it to a function or method")
			continue
		}
		if argNode == nil {
			sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(dec.StartByte()), int(dec.EndByte()-dec.StartByte()),
				"@%s requires a single object-literal argument", ident)
			continue
		}
		*out = append(*out, Decoration{
			Kind:           kind,
			HostIdentifier: className,
			ArgumentNode:   argNode,
			CaptureSpan:    classCaptureSpan,
			DecoratorNodes: []*sitter.Node{dec},
			Span:           classSpan,
			Dependencies:   classDeps,
		})
	}

	// Methods hosting @tool share the whole class as their captured node:
	// collect their decorators up front so every method's Implementation
	// strips every @tool application in the class.
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	var allToolDecorators []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "method_definition" {
			continue
		}
		for _, dec := range leadingDecorators(member) {
			if kind, _, _, ok := recognize(dec, tree); ok && kind == model.KindTool {
				allToolDecorators = append(allToolDecorators, dec)
			}
		}
	}
	if len(allToolDecorators) == 0 {
		return
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "method_definition" {
			continue
		}
		methodDecorators := leadingDecorators(member)
		methodNameNode := member.ChildByFieldName("name")
		methodName := ""
		if methodNameNode != nil {
			methodName = tree.Text(methodNameNode)
		}
		for _, dec := range methodDecorators {
			kind, ident, argNode, ok := recognize(dec, tree)
			if !ok {
				continue
			}
			if kind != model.KindTool {
				sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(dec.StartByte()), int(dec.EndByte()-dec.StartByte()),
					"@%s cannot be applied to a class method; it is only valid on a class declaration", ident)
				continue
			}
			if argNode == nil {
				sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(dec.StartByte()), int(dec.EndByte()-dec.StartByte()),
					"@tool requires a single object-literal argument")
				continue
			}
			methodSpan := spanFor(member, methodDecorators, tree)
			*out = append(*out, Decoration{
				Kind:           model.KindTool,
				HostIdentifier: methodName,
				ArgumentNode:   argNode,
				CaptureSpan:    classCaptureSpan, // the enclosing class
				DecoratorNodes: allToolDecorators,
				Span:           methodSpan,
				Dependencies:   classDeps,
			})
		}
	}
}

// recognize inspects a decorator node's single expression, which must be a
// call of the form Identifier(Argument). It returns ok=false for
// unrecognized decorator identifiers so callers leave them untouched.
func recognize(dec *sitter.Node, tree *parser.Tree) (kind model.EntityKind, identifier string, argNode *sitter.Node, ok bool) {
	if dec.NamedChildCount() == 0 {
		return "", "", nil, false
	}
	expr := dec.NamedChild(0)
	if expr.Type() != "call_expression" {
		return "", "", nil, false
	}
	fn := expr.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return "", "", nil, false
	}
	identifier = tree.Text(fn)
	kind, known := recognized[identifier]
	if !known {
		return "", "", nil, false
	}

	args := expr.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return kind, identifier, nil, true
	}
	arg := args.NamedChild(0)
	if arg.Type() != "object" {
		return kind, identifier, nil, true
	}
	return kind, identifier, arg, true
}

// leadingDecorators finds the decorator nodes attached to node, whether the
// grammar attaches them as the node's own leading named children (classes,
// methods) or as contiguous preceding siblings (a defensive fallback for
// grammars/extensions that do not nest decorators inside the declaration,
// e.g. a top-level function declaration).
func leadingDecorators(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" {
			break
		}
		out = append(out, child)
	}
	if len(out) > 0 {
		return out
	}

	var preceding []*sitter.Node
	sibling := node.PrevNamedSibling()
	for sibling != nil && sibling.Type() == "decorator" {
		preceding = append(preceding, sibling)
		sibling = sibling.PrevNamedSibling()
	}
	// preceding was collected nearest-first; restore source order.
	for i, j := 0, len(preceding)-1; i < j; i, j = i+1, j-1 {
		preceding[i], preceding[j] = preceding[j], preceding[i]
	}
	return preceding
}

// spanFor computes the declaration's outer span: its full node range minus
// any leading decorators attached as its own named children, so diagnostics
// point at the declaration itself rather than at the decorator line.
func spanFor(node *sitter.Node, decorators []*sitter.Node, tree *parser.Tree) model.Span {
	start := node.StartByte()
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "decorator" {
			continue
		}
		start = child.StartByte()
		break
	}
	line, col := tree.Position(int(start))
	return model.Span{
		File:        tree.Path,
		StartOffset: int(start),
		EndOffset:   int(node.EndByte()),
		StartLine:   line,
		StartColumn: col,
	}
}

// captureSpanFor bounds the text that becomes the Implementation's captured
// source: from the earliest decorator attached to node (recognized or not —
// an unrecognized one stays in the emitted code untouched) through the end
// of node. When node carries no decorators the capture starts at node
// itself.
func captureSpanFor(node *sitter.Node, decorators []*sitter.Node, tree *parser.Tree) model.Span {
	start := node.StartByte()
	if len(decorators) > 0 {
		start = decorators[0].StartByte()
	}
	line, col := tree.Position(int(start))
	return model.Span{
		File:        tree.Path,
		StartOffset: int(start),
		EndOffset:   int(node.EndByte()),
		StartLine:   line,
		StartColumn: col,
	}
}

// collectImportBindings gathers every local name bound by a top-level
// import statement: default imports, named imports (with their local
// alias), and namespace imports.
func collectImportBindings(program *sitter.Node, tree *parser.Tree) map[string]bool {
	bindings := make(map[string]bool)
	for i := 0; i < int(program.NamedChildCount()); i++ {
		stmt := program.NamedChild(i)
		if stmt.Type() != "import_statement" {
			continue
		}
		collectIdentifiers(stmt, tree, bindings)
	}
	return bindings
}

func collectIdentifiers(n *sitter.Node, tree *parser.Tree, out map[string]bool) {
	if n.Type() == "identifier" {
		out[tree.Text(n)] = true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectIdentifiers(n.NamedChild(i), tree, out)
	}
}

// freeImportIdentifiers returns, in first-seen order, every import binding
// that textually occurs inside node's subtree: the unit's declared
// dependency list.
func freeImportIdentifiers(node *sitter.Node, tree *parser.Tree, imports map[string]bool) []string {
	if len(imports) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var order []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "identifier" {
			name := tree.Text(n)
			if imports[name] && !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(node)
	return order
}
