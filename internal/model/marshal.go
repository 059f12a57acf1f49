package model

import "encoding/json"

// toJSONMap lets each manifest type marshal as a plain JSON object with its
// forward-compatible Extra keys merged in (named fields win on collision).
// encoding/json sorts map[string]any keys on Marshal, which gives the
// "sorted object keys" form the manifest format calls for without any
// custom key-sorting logic.
func toJSONMap(named map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(named)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range named {
		out[k] = v
	}
	return out
}

func (t ToolManifest) MarshalJSON() ([]byte, error) {
	named := map[string]any{
		"name":        t.Name,
		"description": t.Description,
	}
	if t.Inputs != nil {
		named["inputs"] = t.Inputs
	}
	if t.Outputs != nil {
		named["outputs"] = t.Outputs
	}
	return json.Marshal(toJSONMap(named, t.Extra))
}

func (a AgentManifest) MarshalJSON() ([]byte, error) {
	tools := a.Tools
	if tools == nil {
		tools = []string{}
	}
	named := map[string]any{
		"name":        a.Name,
		"description": a.Description,
		"tools":       tools,
	}
	return json.Marshal(toJSONMap(named, a.Extra))
}

func (t TeamManifest) MarshalJSON() ([]byte, error) {
	members := t.Members
	if members == nil {
		members = []string{}
	}
	named := map[string]any{
		"name":        t.Name,
		"description": t.Description,
		"members":     members,
	}
	return json.Marshal(toJSONMap(named, t.Extra))
}

func (s PipelineStep) MarshalJSON() ([]byte, error) {
	named := map[string]any{
		"id":   s.ID,
		"type": s.Type,
	}
	named[s.Type] = s.Target
	if len(s.Dependencies) > 0 {
		named["dependencies"] = s.Dependencies
	}
	if s.Inputs != nil {
		named["inputs"] = s.Inputs
	}
	if s.Outputs != nil {
		named["outputs"] = s.Outputs
	}
	if s.Condition != nil {
		named["condition"] = s.Condition
	}
	if s.Timeout != 0 {
		named["timeout"] = s.Timeout
	}
	return json.Marshal(toJSONMap(named, s.Extra))
}

func (m AriaManifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"name":      m.Name,
		"version":   m.Version,
		"tools":     m.Tools,
		"agents":    m.Agents,
		"teams":     m.Teams,
		"pipelines": m.Pipelines,
	})
}

func (p PipelineManifest) MarshalJSON() ([]byte, error) {
	named := map[string]any{
		"name":        p.Name,
		"description": p.Description,
	}
	if p.Variables != nil {
		named["variables"] = p.Variables
	}
	steps := p.Steps
	if steps == nil {
		steps = []PipelineStep{}
	}
	named["steps"] = steps
	if p.ErrorStrategy != nil {
		named["errorStrategy"] = p.ErrorStrategy
	}
	return json.Marshal(toJSONMap(named, p.Extra))
}
