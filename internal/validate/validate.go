// Package validate checks the complete set of entities extracted and
// decoded across every source file: bundle-wide name uniqueness,
// team/agent duplicate-entry warnings, pipeline step-id uniqueness, and
// pipeline dependency DAG soundness. Its scope is strictly syntactical and
// per-entity: it never resolves whether a named tool, agent, or team
// actually exists elsewhere in the bundle — that linkage is left to the
// runtime that loads the finished bundle.
package validate

import (
	"fmt"

	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/model"
)

// Entity pairs a decoded manifest value with the span of the declaration
// that produced it, so the Validator can attach diagnostics to a location.
type Entity[M any] struct {
	Manifest M
	Span     model.Span
}

// Set is the complete collection of extracted, decoded entities across
// every source file in a build. Validate must see the whole set at once:
// bundle-wide name uniqueness is meaningless if checked one file at a time.
type Set struct {
	Tools     []Entity[model.ToolManifest]
	Agents    []Entity[model.AgentManifest]
	Teams     []Entity[model.TeamManifest]
	Pipelines []Entity[model.PipelineManifest]
}

// Validate runs every check and reports findings to sink. It never
// aborts early: all checks run so a single invocation surfaces every
// independent problem at once instead of one at a time.
func Validate(set Set, sink *diagnostics.Sink) {
	validateUniqueness(model.KindTool, toolNames(set.Tools), sink)
	validateUniqueness(model.KindAgent, agentNames(set.Agents), sink)
	validateUniqueness(model.KindTeam, teamNames(set.Teams), sink)
	validateUniqueness(model.KindPipeline, pipelineNames(set.Pipelines), sink)

	for _, a := range set.Agents {
		warnDuplicateEntries(a.Span, fmt.Sprintf("agent %q", a.Manifest.Name), "tools", a.Manifest.Tools, sink)
	}
	for _, tm := range set.Teams {
		warnDuplicateEntries(tm.Span, fmt.Sprintf("team %q", tm.Manifest.Name), "members", tm.Manifest.Members, sink)
	}
	for _, p := range set.Pipelines {
		validatePipeline(p, sink)
	}
}

type named struct {
	name string
	span model.Span
}

func toolNames(es []Entity[model.ToolManifest]) []named {
	out := make([]named, len(es))
	for i, e := range es {
		out[i] = named{e.Manifest.Name, e.Span}
	}
	return out
}

func agentNames(es []Entity[model.AgentManifest]) []named {
	out := make([]named, len(es))
	for i, e := range es {
		out[i] = named{e.Manifest.Name, e.Span}
	}
	return out
}

func teamNames(es []Entity[model.TeamManifest]) []named {
	out := make([]named, len(es))
	for i, e := range es {
		out[i] = named{e.Manifest.Name, e.Span}
	}
	return out
}

func pipelineNames(es []Entity[model.PipelineManifest]) []named {
	out := make([]named, len(es))
	for i, e := range es {
		out[i] = named{e.Manifest.Name, e.Span}
	}
	return out
}

// validateUniqueness reports every name that appears more than once within
// one kind. The first occurrence is never flagged; every later one is.
func validateUniqueness(kind model.EntityKind, entries []named, sink *diagnostics.Sink) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.name] {
			sink.Errorf(diagnostics.CodeDuplicateName, e.span.File, e.span.StartOffset, e.span.EndOffset-e.span.StartOffset,
				"duplicate %s name %q", kind, e.name)
			continue
		}
		seen[e.name] = true
	}
}

// warnDuplicateEntries flags repeated values in a tools/members list as a
// warning, not an error: harmless redundancy, not a structural defect.
func warnDuplicateEntries(span model.Span, owner, field string, values []string, sink *diagnostics.Sink) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			sink.Warnf(diagnostics.CodeDuplicateEntry, span.File, span.StartOffset, span.EndOffset-span.StartOffset,
				"%s has a duplicate entry %q in %s", owner, v, field)
			continue
		}
		seen[v] = true
	}
}

// validatePipeline checks one pipeline's step-id uniqueness, dependency
// references, and DAG soundness.
func validatePipeline(p Entity[model.PipelineManifest], sink *diagnostics.Sink) {
	steps := p.Manifest.Steps
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if _, dup := index[s.ID]; dup {
			sink.Errorf(diagnostics.CodeDuplicateStepID, p.Span.File, p.Span.StartOffset, p.Span.EndOffset-p.Span.StartOffset,
				"pipeline %q has a duplicate step id %q", p.Manifest.Name, s.ID)
			continue
		}
		index[s.ID] = i
	}

	indegree := make([]int, len(steps))
	dependents := make([][]int, len(steps))
	for i, s := range steps {
		for _, dep := range s.Dependencies {
			j, ok := index[dep]
			if !ok {
				sink.Errorf(diagnostics.CodeMissingDependency, p.Span.File, p.Span.StartOffset, p.Span.EndOffset-p.Span.StartOffset,
					"pipeline %q step %q depends on unknown step id %q", p.Manifest.Name, s.ID, dep)
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	if !topologicallySound(indegree, dependents) {
		sink.Errorf(diagnostics.CodePipelineCycle, p.Span.File, p.Span.StartOffset, p.Span.EndOffset-p.Span.StartOffset,
			"pipeline %q has a dependency cycle among its steps", p.Manifest.Name)
	}
}

// topologicallySound runs Kahn's algorithm over the step dependency graph.
// The initial ready queue and every node appended as it becomes ready are
// processed strictly in declared order, since both the initial scan and
// each dependents list are built by iterating steps in their declared
// sequence — so two steps tied on in-degree resolve by declaration order.
func topologicallySound(indegree []int, dependents [][]int) bool {
	queue := make([]int, 0, len(indegree))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	processed := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		processed++
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	return processed == len(indegree)
}
