// Package model holds the data types shared across the compilation pipeline:
// the typed manifest records decoded from decorator arguments, the captured
// implementations they describe, and the bundle that packages both.
package model

// EntityKind identifies one of the four recognized decorator targets.
type EntityKind string

const (
	KindTool     EntityKind = "tool"
	KindAgent    EntityKind = "agent"
	KindTeam     EntityKind = "team"
	KindPipeline EntityKind = "pipeline"
)

// Span is a byte range into a source file, with 1-indexed line/column for
// diagnostics.
type Span struct {
	File        string
	StartOffset int
	EndOffset   int
	StartLine   int
	StartColumn int
}

// Implementation is one extracted entity: its metadata-bearing manifest plus
// its transpiled executable form. It is embedded into the Bundle addressed
// by (Kind, Name).
type Implementation struct {
	Name            string
	Kind            EntityKind
	SourceLanguage  string
	CapturedSource  string
	TranspiledCode  string
	Dependencies    []string
	OriginFile      string
	Span            Span
}

// ToolManifest is the decoded metadata for an @tool.
type ToolManifest struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Inputs      map[string]any `mapstructure:"inputs,omitempty"`
	Outputs     map[string]any `mapstructure:"outputs,omitempty"`
	Extra       map[string]any `mapstructure:"-"`
}

// AgentManifest is the decoded metadata for an @agent.
type AgentManifest struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Tools       []string       `mapstructure:"tools"`
	Extra       map[string]any `mapstructure:"-"`
}

// TeamManifest is the decoded metadata for a @team.
type TeamManifest struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Members     []string       `mapstructure:"members"`
	Extra       map[string]any `mapstructure:"-"`
}

// PipelineStep is one node in a pipeline's intra-pipeline dependency DAG.
type PipelineStep struct {
	ID           string         `mapstructure:"id"`
	Type         string         `mapstructure:"type"` // "tool" | "agent" | "team"
	Target       string         `mapstructure:"-"`    // resolved from the tool/agent/team key
	Dependencies []string       `mapstructure:"dependencies,omitempty"`
	Inputs       map[string]any `mapstructure:"inputs,omitempty"`
	Outputs      map[string]any `mapstructure:"outputs,omitempty"`
	Condition    map[string]any `mapstructure:"condition,omitempty"`
	Timeout      float64        `mapstructure:"timeout,omitempty"`
	Extra        map[string]any `mapstructure:"-"`
}

// PipelineManifest is the decoded metadata for a @pipeline.
type PipelineManifest struct {
	Name          string         `mapstructure:"name"`
	Description   string         `mapstructure:"description"`
	Variables     map[string]any `mapstructure:"variables,omitempty"`
	Steps         []PipelineStep `mapstructure:"-"`
	ErrorStrategy map[string]any `mapstructure:"errorStrategy,omitempty"`
	Extra         map[string]any `mapstructure:"-"`
}

// AriaManifest is the assembled top-level manifest for one bundle.
type AriaManifest struct {
	Name      string             `json:"name"`
	Version   string             `json:"version"`
	Tools     []ToolManifest     `json:"tools"`
	Agents    []AgentManifest    `json:"agents"`
	Teams     []TeamManifest     `json:"teams"`
	Pipelines []PipelineManifest `json:"pipelines"`
}

// BuildInfo is the content of metadata/build.json.
type BuildInfo struct {
	BuiltAt         string `json:"built_at"`
	CompilerVersion string `json:"compiler_version"`
	SourceLanguage  string `json:"source_language"`
	ContentHash     string `json:"content_hash"`
}

// Bundle is the fully assembled archive payload, ready for the Packager.
type Bundle struct {
	Manifest        AriaManifest
	Implementations []Implementation
	PackageJSON     []byte // nil if the project has none
	Build           BuildInfo
}
