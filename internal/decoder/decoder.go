// Package decoder turns an object-literal AST fragment into a typed
// manifest record, enforcing the required/optional key shape for each
// decorator kind. Values must be computable from the AST alone; anything
// else (computed keys, interpolated template strings, identifiers,
// function expressions) is rejected with a diagnostic carrying the
// offending span.
package decoder

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/model"
	"github.com/saint0x/ar-c/internal/parser"
)

// toolKeys / agentKeys / teamKeys / pipelineKeys / stepKeys name every key
// the Decoder understands for each shape; anything else flows into Extra
// verbatim, preserved but not validated.
var (
	toolKeys     = map[string]bool{"name": true, "description": true, "inputs": true, "outputs": true}
	agentKeys    = map[string]bool{"name": true, "description": true, "tools": true}
	teamKeys     = map[string]bool{"name": true, "description": true, "members": true}
	pipelineKeys = map[string]bool{"name": true, "description": true, "variables": true, "steps": true, "errorStrategy": true}
	stepKeys     = map[string]bool{"id": true, "type": true, "tool": true, "agent": true, "team": true, "dependencies": true, "inputs": true, "outputs": true, "condition": true, "timeout": true}
)

// DecodeTool decodes an @tool argument object into a ToolManifest.
func DecodeTool(argNode *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink) (model.ToolManifest, bool) {
	raw, ok := literalObject(argNode, tree, sink)
	if !ok {
		return model.ToolManifest{}, false
	}
	name, ok := requireString(raw, "name", argNode, tree, sink, "@tool")
	if !ok {
		return model.ToolManifest{}, false
	}
	if name == "" {
		shapeError(sink, tree, argNode, "@tool name must not be empty")
		return model.ToolManifest{}, false
	}
	desc, ok := requireString(raw, "description", argNode, tree, sink, "@tool")
	if !ok {
		return model.ToolManifest{}, false
	}

	tool := model.ToolManifest{Name: name, Description: desc}
	if v, present := raw["inputs"]; present {
		m, ok := asObject(v, argNode, tree, sink, "@tool.inputs")
		if !ok {
			return model.ToolManifest{}, false
		}
		tool.Inputs = m
	}
	if v, present := raw["outputs"]; present {
		m, ok := asObject(v, argNode, tree, sink, "@tool.outputs")
		if !ok {
			return model.ToolManifest{}, false
		}
		tool.Outputs = m
	}
	tool.Extra = extraKeys(raw, toolKeys)
	return tool, true
}

// DecodeAgent decodes an @agent argument object into an AgentManifest.
func DecodeAgent(argNode *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink) (model.AgentManifest, bool) {
	raw, ok := literalObject(argNode, tree, sink)
	if !ok {
		return model.AgentManifest{}, false
	}
	name, ok := requireString(raw, "name", argNode, tree, sink, "@agent")
	if !ok {
		return model.AgentManifest{}, false
	}
	desc, ok := requireString(raw, "description", argNode, tree, sink, "@agent")
	if !ok {
		return model.AgentManifest{}, false
	}
	tools, ok := requireStringArray(raw, "tools", argNode, tree, sink, "@agent")
	if !ok {
		return model.AgentManifest{}, false
	}

	return model.AgentManifest{
		Name:        name,
		Description: desc,
		Tools:       tools,
		Extra:       extraKeys(raw, agentKeys),
	}, true
}

// DecodeTeam decodes a @team argument object into a TeamManifest.
func DecodeTeam(argNode *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink) (model.TeamManifest, bool) {
	raw, ok := literalObject(argNode, tree, sink)
	if !ok {
		return model.TeamManifest{}, false
	}
	name, ok := requireString(raw, "name", argNode, tree, sink, "@team")
	if !ok {
		return model.TeamManifest{}, false
	}
	desc, ok := requireString(raw, "description", argNode, tree, sink, "@team")
	if !ok {
		return model.TeamManifest{}, false
	}
	members, ok := requireStringArray(raw, "members", argNode, tree, sink, "@team")
	if !ok {
		return model.TeamManifest{}, false
	}

	return model.TeamManifest{
		Name:        name,
		Description: desc,
		Members:     members,
		Extra:       extraKeys(raw, teamKeys),
	}, true
}

// DecodePipeline decodes a @pipeline argument object into a
// PipelineManifest, including its nested steps.
func DecodePipeline(argNode *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink) (model.PipelineManifest, bool) {
	raw, ok := literalObject(argNode, tree, sink)
	if !ok {
		return model.PipelineManifest{}, false
	}
	name, ok := requireString(raw, "name", argNode, tree, sink, "@pipeline")
	if !ok {
		return model.PipelineManifest{}, false
	}
	desc, ok := requireString(raw, "description", argNode, tree, sink, "@pipeline")
	if !ok {
		return model.PipelineManifest{}, false
	}

	pm := model.PipelineManifest{Name: name, Description: desc}

	if v, present := raw["variables"]; present {
		m, ok := asObject(v, argNode, tree, sink, "@pipeline.variables")
		if !ok {
			return model.PipelineManifest{}, false
		}
		pm.Variables = m
	}
	if v, present := raw["errorStrategy"]; present {
		m, ok := asObject(v, argNode, tree, sink, "@pipeline.errorStrategy")
		if !ok {
			return model.PipelineManifest{}, false
		}
		pm.ErrorStrategy = m
	}
	if v, present := raw["steps"]; present {
		list, ok := v.([]any)
		if !ok {
			shapeError(sink, tree, argNode, "@pipeline.steps must be an array of step objects")
			return model.PipelineManifest{}, false
		}
		steps := make([]model.PipelineStep, 0, len(list))
		allOK := true
		for _, item := range list {
			stepObj, ok := item.(map[string]any)
			if !ok {
				shapeError(sink, tree, argNode, "each @pipeline step must be an object")
				allOK = false
				continue
			}
			step, ok := decodeStep(stepObj, argNode, tree, sink)
			if !ok {
				allOK = false
				continue
			}
			steps = append(steps, step)
		}
		if !allOK {
			return model.PipelineManifest{}, false
		}
		pm.Steps = steps
	}

	pm.Extra = extraKeys(raw, pipelineKeys)
	return pm, true
}

func decodeStep(raw map[string]any, owner *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink) (model.PipelineStep, bool) {
	id, ok := requireString(raw, "id", owner, tree, sink, "pipeline step")
	if !ok {
		return model.PipelineStep{}, false
	}
	typ, ok := requireString(raw, "type", owner, tree, sink, "pipeline step")
	if !ok {
		return model.PipelineStep{}, false
	}
	if typ != "tool" && typ != "agent" && typ != "team" {
		shapeError(sink, tree, owner, fmt.Sprintf("pipeline step %q has invalid type %q (must be tool, agent, or team)", id, typ))
		return model.PipelineStep{}, false
	}
	target, ok := requireString(raw, typ, owner, tree, sink, "pipeline step")
	if !ok {
		return model.PipelineStep{}, false
	}

	step := model.PipelineStep{ID: id, Type: typ, Target: target}

	if _, present := raw["dependencies"]; present {
		deps, ok := requireStringArray(raw, "dependencies", owner, tree, sink, fmt.Sprintf("pipeline step %q", id))
		if !ok {
			return model.PipelineStep{}, false
		}
		step.Dependencies = deps
	}
	if v, present := raw["inputs"]; present {
		m, ok := asObject(v, owner, tree, sink, fmt.Sprintf("pipeline step %q inputs", id))
		if !ok {
			return model.PipelineStep{}, false
		}
		step.Inputs = m
	}
	if v, present := raw["outputs"]; present {
		m, ok := asObject(v, owner, tree, sink, fmt.Sprintf("pipeline step %q outputs", id))
		if !ok {
			return model.PipelineStep{}, false
		}
		step.Outputs = m
	}
	if v, present := raw["condition"]; present {
		m, ok := asObject(v, owner, tree, sink, fmt.Sprintf("pipeline step %q condition", id))
		if !ok {
			return model.PipelineStep{}, false
		}
		step.Condition = m
	}
	if v, present := raw["timeout"]; present {
		f, ok := v.(float64)
		if !ok {
			shapeError(sink, tree, owner, fmt.Sprintf("pipeline step %q timeout must be a number", id))
			return model.PipelineStep{}, false
		}
		step.Timeout = f
	}

	step.Extra = extraKeys(raw, stepKeys)
	return step, true
}

// --- shared helpers -------------------------------------------------------

func literalObject(argNode *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink) (map[string]any, bool) {
	if argNode == nil {
		return nil, false
	}
	v, err := decodeLiteral(argNode, tree)
	if err != nil {
		reportLiteralError(sink, tree, err)
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		shapeError(sink, tree, argNode, "decorator argument must be an object literal")
		return nil, false
	}
	return m, true
}

func asObject(v any, owner *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink, label string) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		shapeError(sink, tree, owner, fmt.Sprintf("%s must be an object", label))
		return nil, false
	}
	return m, true
}

func requireString(raw map[string]any, key string, owner *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink, label string) (string, bool) {
	v, present := raw[key]
	if !present {
		shapeError(sink, tree, owner, fmt.Sprintf("%s requires key %q", label, key))
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		shapeError(sink, tree, owner, fmt.Sprintf("%s key %q must be a string", label, key))
		return "", false
	}
	return s, true
}

func requireStringArray(raw map[string]any, key string, owner *sitter.Node, tree *parser.Tree, sink *diagnostics.Sink, label string) ([]string, bool) {
	v, present := raw[key]
	if !present {
		shapeError(sink, tree, owner, fmt.Sprintf("%s requires key %q", label, key))
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		shapeError(sink, tree, owner, fmt.Sprintf("%s key %q must be an array of strings", label, key))
		return nil, false
	}
	out := make([]string, 0, len(list))
	if err := mapstructure.Decode(list, &out); err != nil {
		shapeError(sink, tree, owner, fmt.Sprintf("%s key %q must be an array of strings", label, key))
		return nil, false
	}
	return out, true
}

func extraKeys(raw map[string]any, known map[string]bool) map[string]any {
	var extra map[string]any
	for k, v := range raw {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func shapeError(sink *diagnostics.Sink, tree *parser.Tree, n *sitter.Node, message string) {
	sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(n.StartByte()), int(n.EndByte()-n.StartByte()), "%s", message)
}

func reportLiteralError(sink *diagnostics.Sink, tree *parser.Tree, err error) {
	if lerr, ok := err.(*literalError); ok {
		sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, int(lerr.Node.StartByte()), int(lerr.Node.EndByte()-lerr.Node.StartByte()), "%s", lerr.Message)
		return
	}
	sink.Errorf(diagnostics.CodeDecoratorShape, tree.Path, 0, 0, "%s", err.Error())
}
