// Package manifest combines every decoded entity into one AriaManifest
// value with stable, name-sorted ordering and serializes it to the
// bundle's canonical textual form — JSON with sorted object keys,
// two-space indentation, and a trailing newline.
package manifest

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/saint0x/ar-c/internal/model"
)

// Synthesize assembles the top-level manifest from every extracted entity.
// name and version come from the project configuration; within each array
// entries are sorted by name.
func Synthesize(projectName, projectVersion string, tools []model.ToolManifest, agents []model.AgentManifest, teams []model.TeamManifest, pipelines []model.PipelineManifest) model.AriaManifest {
	tools = append([]model.ToolManifest(nil), tools...)
	agents = append([]model.AgentManifest(nil), agents...)
	teams = append([]model.TeamManifest(nil), teams...)
	pipelines = append([]model.PipelineManifest(nil), pipelines...)

	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	sort.Slice(pipelines, func(i, j int) bool { return pipelines[i].Name < pipelines[j].Name })

	if tools == nil {
		tools = []model.ToolManifest{}
	}
	if agents == nil {
		agents = []model.AgentManifest{}
	}
	if teams == nil {
		teams = []model.TeamManifest{}
	}
	if pipelines == nil {
		pipelines = []model.PipelineManifest{}
	}

	return model.AriaManifest{
		Name:      projectName,
		Version:   projectVersion,
		Tools:     tools,
		Agents:    agents,
		Teams:     teams,
		Pipelines: pipelines,
	}
}

// Serialize renders a manifest to its canonical textual form: two-space
// indented JSON with a trailing newline. encoding/json already sorts
// map[string]any keys on Marshal (see model.toJSONMap), which is how each
// manifest type satisfies "sorted object keys" without custom sort logic.
func Serialize(m model.AriaManifest) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
