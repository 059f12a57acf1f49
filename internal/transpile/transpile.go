// Package transpile turns a captured decoration into a module in the
// runtime dialect by removing the recognized decorator application(s) and
// the TypeScript type syntax listed in eraseTypes, while preserving
// everything else byte-for-byte — asynchrony, generators, classes, methods,
// field initializers, parameter destructuring, string literals, and any
// unrecognized decorator. Other TypeScript-only syntax (`as` casts, non-null
// assertions, access modifiers, `implements` clauses) is kept as written. It walks the same node types an extractor would,
// but subtracts the matched ranges instead of collecting them.
package transpile

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/saint0x/ar-c/internal/parser"
	"github.com/saint0x/ar-c/internal/visitor"
)

// eraseTypes names every AST node type that is pure TypeScript static-type
// syntax, absent from the runtime dialect the transpiled output targets.
// Unknown node type names are harmless no-ops rather than failures, since a
// grammar that never produces them simply never matches here.
var eraseTypes = map[string]bool{
	"type_annotation":               true, // `: T` after a binding, parameter, or return type
	"type_parameters":               true, // `<T, U>` on a function/class/method
	"type_arguments":                true, // `<T>` in a call or instantiation expression
	"type_alias_declaration":        true,
	"interface_declaration":         true,
	"ambient_declaration":           true,
	"definite_assignment_assertion": true, // `!` in `x!: T`
}

type byteRange struct{ start, end int }

// Implementation transpiles one Decoration's captured span to the runtime
// dialect. The result is the Implementation.TranspiledCode value; the
// caller keeps the untouched CaptureSpan text as CapturedSource.
func Implementation(tree *parser.Tree, dec visitor.Decoration) string {
	capStart := dec.CaptureSpan.StartOffset
	capEnd := dec.CaptureSpan.EndOffset
	source := tree.Source

	var ranges []byteRange
	for _, d := range dec.DecoratorNodes {
		s, e := expandToWholeLine(source, int(d.StartByte()), int(d.EndByte()), capStart, capEnd)
		ranges = append(ranges, byteRange{s, e})
	}
	collectTypeRanges(tree.Root, capStart, capEnd, &ranges)

	return render(source, capStart, capEnd, ranges)
}

// collectTypeRanges walks the whole tree (pruned to nodes overlapping
// [lower, upper)) and records the byte range of every pure-type node found,
// without descending further once one is found — its entire subtree is
// type syntax.
func collectTypeRanges(n *sitter.Node, lower, upper int, out *[]byteRange) {
	if n == nil {
		return
	}
	start, end := int(n.StartByte()), int(n.EndByte())
	if end <= lower || start >= upper {
		return
	}
	if eraseTypes[n.Type()] {
		*out = append(*out, byteRange{start, end})
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectTypeRanges(n.NamedChild(i), lower, upper, out)
	}
}

// expandToWholeLine grows a decorator application's range to also consume
// its own leading indentation and trailing newline, so removing it leaves
// no blank line behind — bounded so it never reaches outside the capture.
func expandToWholeLine(source []byte, start, end, lower, upper int) (int, int) {
	s := start
	for s > lower && (source[s-1] == ' ' || source[s-1] == '\t') {
		s--
	}
	if s > lower && source[s-1] == '\n' {
		start = s
	}

	e := end
	for e < upper && (source[e] == ' ' || source[e] == '\t') {
		e++
	}
	switch {
	case e+1 < upper && source[e] == '\r' && source[e+1] == '\n':
		e += 2
	case e < upper && source[e] == '\n':
		e++
	}
	return start, e
}

// render copies source[capStart:capEnd) with every range in ranges
// excised, sorting and merging overlapping/adjacent ranges first.
func render(source []byte, capStart, capEnd int, ranges []byteRange) string {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	merged := make([]byteRange, 0, len(ranges))
	for _, r := range ranges {
		if len(merged) > 0 && r.start <= merged[len(merged)-1].end {
			if r.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}

	var b strings.Builder
	cursor := capStart
	for _, r := range merged {
		if r.start > cursor {
			b.Write(source[cursor:r.start])
		}
		if r.end > cursor {
			cursor = r.end
		}
	}
	if capEnd > cursor {
		b.Write(source[cursor:capEnd])
	}
	return b.String()
}
