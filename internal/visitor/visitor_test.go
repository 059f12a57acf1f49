package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/model"
	"github.com/saint0x/ar-c/internal/parser"
)

func mustParse(t *testing.T, path, src string) *parser.Tree {
	t.Helper()
	tree, err := parser.Parse(path, []byte(src))
	require.NoError(t, err)
	return tree
}

func TestExtractSingleToolFunction(t *testing.T) {
	src := `@tool({ name: "myTool", description: "A test tool" })
export function myTool(input: string): string {
  return input;
}
`
	tree := mustParse(t, "tool.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	require.False(t, sink.HasErrors())
	require.Len(t, decs, 1)
	assert.Equal(t, model.KindTool, decs[0].Kind)
	assert.Equal(t, "myTool", decs[0].HostIdentifier)
	// CaptureSpan still covers the decorator itself (the Transpiler strips
	// it later); the Span used for diagnostics is what skips past it.
	assert.Contains(t, tree.TextAt(decs[0].CaptureSpan.StartOffset, decs[0].CaptureSpan.EndOffset), "@tool(")
	assert.NotContains(t, tree.TextAt(decs[0].Span.StartOffset, decs[0].Span.EndOffset), "@tool(")
}

func TestExtractToolAsClassMethodSharesCapturedClass(t *testing.T) {
	src := `class MyToolContainer {
  @tool({ name: "myTool", description: "A test tool" })
  myTool(input: string): string {
    return input;
  }
}
`
	tree := mustParse(t, "tool.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	require.False(t, sink.HasErrors())
	require.Len(t, decs, 1)
	assert.Equal(t, model.KindTool, decs[0].Kind)
	captured := tree.TextAt(decs[0].CaptureSpan.StartOffset, decs[0].CaptureSpan.EndOffset)
	assert.Contains(t, captured, "class MyToolContainer")
	assert.Contains(t, captured, "myTool(input: string)")
}

func TestExtractTwoToolsTwoAgents(t *testing.T) {
	src := `@tool({ name: "getWeather", description: "d1" })
function getWeather() {}

@tool({ name: "scheduleMeeting", description: "d2" })
function scheduleMeeting() {}

@agent({ name: "PlanningAgent", description: "d3", tools: ["getWeather", "scheduleMeeting"] })
class PlanningAgent {}

@agent({ name: "ReminderAgent", description: "d4", tools: ["scheduleMeeting"] })
class ReminderAgent {}
`
	tree := mustParse(t, "entities.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	require.False(t, sink.HasErrors())
	require.Len(t, decs, 4)

	var tools, agents int
	for _, d := range decs {
		switch d.Kind {
		case model.KindTool:
			tools++
		case model.KindAgent:
			agents++
		}
	}
	assert.Equal(t, 2, tools)
	assert.Equal(t, 2, agents)
}

func TestExtractTeamAndPipeline(t *testing.T) {
	src := `@team({ name: "PlanningTeam", description: "d", members: ["PlanningAgent", "ReminderAgent"] })
class PlanningTeam {}

@pipeline({ name: "PlanningPipeline", description: "d" })
class PlanningPipeline {}
`
	tree := mustParse(t, "entities.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	require.False(t, sink.HasErrors())
	require.Len(t, decs, 2)
	assert.Equal(t, model.KindTeam, decs[0].Kind)
	assert.Equal(t, model.KindPipeline, decs[1].Kind)
}

func TestExtractNonObjectArgumentIsDecoratorShapeError(t *testing.T) {
	src := `@tool("not-an-object")
function myTool() {}
`
	tree := mustParse(t, "bad.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	assert.Empty(t, decs)
	require.True(t, sink.HasErrors())
	diags := sink.Diagnostics()
	assert.Equal(t, diagnostics.CodeDecoratorShape, diags[0].Code)
}

func TestExtractDependenciesFromImports(t *testing.T) {
	src := `import { httpClient } from "./http";

@tool({ name: "fetchThing", description: "d" })
function fetchThing() {
  return httpClient.get("/thing");
}
`
	tree := mustParse(t, "deps.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	require.False(t, sink.HasErrors())
	require.Len(t, decs, 1)
	assert.Equal(t, []string{"httpClient"}, decs[0].Dependencies)
}

func TestExtractUnrecognizedDecoratorIsIgnored(t *testing.T) {
	src := `@memoize()
@tool({ name: "cached", description: "d" })
function cached() {}
`
	tree := mustParse(t, "ignored.ts", src)
	sink := diagnostics.NewSink()
	decs := Extract(tree, sink)

	require.False(t, sink.HasErrors())
	require.Len(t, decs, 1)
	assert.Contains(t, tree.TextAt(decs[0].CaptureSpan.StartOffset, decs[0].CaptureSpan.EndOffset), "@memoize()")
}
