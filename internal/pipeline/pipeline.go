// Package pipeline wires every compilation stage together end to end:
// source discovery, a parallel per-file parse/extract/decode/transpile
// phase, a completion barrier, the semantic Validator, manifest synthesis,
// and bundle packaging. It is the only package that knows the full stage
// order; every other package implements a single stage.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saint0x/ar-c/internal/arcconfig"
	"github.com/saint0x/ar-c/internal/bundle"
	"github.com/saint0x/ar-c/internal/decoder"
	"github.com/saint0x/ar-c/internal/diagnostics"
	"github.com/saint0x/ar-c/internal/discover"
	"github.com/saint0x/ar-c/internal/manifest"
	"github.com/saint0x/ar-c/internal/model"
	"github.com/saint0x/ar-c/internal/parser"
	"github.com/saint0x/ar-c/internal/transpile"
	"github.com/saint0x/ar-c/internal/validate"
	"github.com/saint0x/ar-c/internal/visitor"
)

// Result is the outcome of one Build invocation.
type Result struct {
	Diagnostics []diagnostics.Diagnostic
	OutputPath  string
	Succeeded   bool
}

// BuildInputs are every value Build needs that must not be read from
// ambient state, so the pipeline stays a pure function of its arguments
// (determinism testing depends on this: see metadata/build.json's
// built_at field).
type BuildInputs struct {
	Config          arcconfig.Config
	PackageJSON     []byte // nil if the project has none
	BuiltAt         string // RFC3339, supplied by the caller
	CompilerVersion string
}

// Build runs the full compilation pipeline. Extraction, decoding, and
// transpilation of each file run concurrently; the Validator then runs
// once over the complete joined set, after which synthesis and packaging
// proceed serially.
func Build(ctx context.Context, in BuildInputs, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := diagnostics.NewSink()
	cfg := in.Config

	files, skipped, err := discover.Discover(discover.Options{
		Roots:      cfg.Build.SourceDirs,
		Extensions: cfg.Extensions(),
		Exclude:    cfg.ExcludePatterns(),
	}, logger)
	if err != nil {
		sink.Errorf(diagnostics.CodeIO, "", 0, 0, "%s", err.Error())
		return Result{Diagnostics: sink.Diagnostics(), Succeeded: false}
	}
	for _, s := range skipped {
		sink.Warnf(diagnostics.CodeIO, s.Path, 0, 0, "skipped unreadable file: %s", s.Err.Error())
	}

	results := make([]fileResult, len(files))
	g, _ := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = processFile(f, sink)
			return nil
		})
	}
	_ = g.Wait() // per-file failures are reported as diagnostics, never as errors

	set, implementations := joinResults(results)
	validate.Validate(set, sink)

	if sink.HasErrors() {
		return Result{Diagnostics: sink.Diagnostics(), Succeeded: false}
	}

	sort.Slice(implementations, func(i, j int) bool {
		if implementations[i].Kind != implementations[j].Kind {
			return implementations[i].Kind < implementations[j].Kind
		}
		return implementations[i].Name < implementations[j].Name
	})

	m := manifest.Synthesize(cfg.Project.Name, cfg.Project.Version,
		toolManifests(set.Tools), agentManifests(set.Agents), teamManifests(set.Teams), pipelineManifests(set.Pipelines))
	manifestBytes, err := manifest.Serialize(m)
	if err != nil {
		sink.Errorf(diagnostics.CodeIO, "", 0, 0, "serialize manifest: %s", err.Error())
		return Result{Diagnostics: sink.Diagnostics(), Succeeded: false}
	}

	b := model.Bundle{
		Manifest:        m,
		Implementations: implementations,
		PackageJSON:     in.PackageJSON,
		Build: model.BuildInfo{
			BuiltAt:         in.BuiltAt,
			CompilerVersion: in.CompilerVersion,
			SourceLanguage:  cfg.Build.Target,
			ContentHash:     contentHash(manifestBytes),
		},
	}

	if err := bundle.Write(cfg.Build.Output, b); err != nil {
		sink.Errorf(diagnostics.CodeIO, "", 0, 0, "write bundle: %s", err.Error())
		return Result{Diagnostics: sink.Diagnostics(), Succeeded: false}
	}

	return Result{Diagnostics: sink.Diagnostics(), OutputPath: cfg.Build.Output, Succeeded: true}
}

// fileResult is one file's extracted, decoded, and transpiled entities.
type fileResult struct {
	tools           []validate.Entity[model.ToolManifest]
	agents          []validate.Entity[model.AgentManifest]
	teams           []validate.Entity[model.TeamManifest]
	pipelines       []validate.Entity[model.PipelineManifest]
	implementations []model.Implementation
}

// processFile parses, extracts, decodes, and transpiles one source file.
// Every failure is reported to sink and simply yields a smaller result;
// processFile itself never returns an error, so the parallel phase never
// needs to cancel sibling work over one file's trouble.
func processFile(f discover.SourceFile, sink *diagnostics.Sink) fileResult {
	tree, err := parser.Parse(f.Path, f.Text)
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			sink.Errorf(diagnostics.CodeParseError, perr.File, perr.Offset, 0, "%s", perr.Message)
		} else {
			sink.Errorf(diagnostics.CodeParseError, f.Path, 0, 0, "%s", err.Error())
		}
		return fileResult{}
	}

	var r fileResult
	for _, dec := range visitor.Extract(tree, sink) {
		switch dec.Kind {
		case model.KindTool:
			tm, ok := decoder.DecodeTool(dec.ArgumentNode, tree, sink)
			if !ok {
				continue
			}
			r.tools = append(r.tools, validate.Entity[model.ToolManifest]{Manifest: tm, Span: dec.Span})
			r.implementations = append(r.implementations, buildImplementation(tree, dec, tm.Name))
		case model.KindAgent:
			am, ok := decoder.DecodeAgent(dec.ArgumentNode, tree, sink)
			if !ok {
				continue
			}
			r.agents = append(r.agents, validate.Entity[model.AgentManifest]{Manifest: am, Span: dec.Span})
			r.implementations = append(r.implementations, buildImplementation(tree, dec, am.Name))
		case model.KindTeam:
			tmm, ok := decoder.DecodeTeam(dec.ArgumentNode, tree, sink)
			if !ok {
				continue
			}
			r.teams = append(r.teams, validate.Entity[model.TeamManifest]{Manifest: tmm, Span: dec.Span})
			r.implementations = append(r.implementations, buildImplementation(tree, dec, tmm.Name))
		case model.KindPipeline:
			pm, ok := decoder.DecodePipeline(dec.ArgumentNode, tree, sink)
			if !ok {
				continue
			}
			r.pipelines = append(r.pipelines, validate.Entity[model.PipelineManifest]{Manifest: pm, Span: dec.Span})
			r.implementations = append(r.implementations, buildImplementation(tree, dec, pm.Name))
		}
	}
	return r
}

func buildImplementation(tree *parser.Tree, dec visitor.Decoration, name string) model.Implementation {
	return model.Implementation{
		Name:           name,
		Kind:           dec.Kind,
		SourceLanguage: languageTag(tree.Path),
		CapturedSource: tree.TextAt(dec.CaptureSpan.StartOffset, dec.CaptureSpan.EndOffset),
		TranspiledCode: transpile.Implementation(tree, dec),
		Dependencies:   dec.Dependencies,
		OriginFile:     tree.Path,
		Span:           dec.Span,
	}
}

func languageTag(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	default:
		return "typescript"
	}
}

func joinResults(results []fileResult) (validate.Set, []model.Implementation) {
	var set validate.Set
	var implementations []model.Implementation
	for _, r := range results {
		set.Tools = append(set.Tools, r.tools...)
		set.Agents = append(set.Agents, r.agents...)
		set.Teams = append(set.Teams, r.teams...)
		set.Pipelines = append(set.Pipelines, r.pipelines...)
		implementations = append(implementations, r.implementations...)
	}
	return set, implementations
}

func toolManifests(es []validate.Entity[model.ToolManifest]) []model.ToolManifest {
	out := make([]model.ToolManifest, len(es))
	for i, e := range es {
		out[i] = e.Manifest
	}
	return out
}

func agentManifests(es []validate.Entity[model.AgentManifest]) []model.AgentManifest {
	out := make([]model.AgentManifest, len(es))
	for i, e := range es {
		out[i] = e.Manifest
	}
	return out
}

func teamManifests(es []validate.Entity[model.TeamManifest]) []model.TeamManifest {
	out := make([]model.TeamManifest, len(es))
	for i, e := range es {
		out[i] = e.Manifest
	}
	return out
}

func pipelineManifests(es []validate.Entity[model.PipelineManifest]) []model.PipelineManifest {
	out := make([]model.PipelineManifest, len(es))
	for i, e := range es {
		out[i] = e.Manifest
	}
	return out
}

func contentHash(manifestBytes []byte) string {
	sum := sha256.Sum256(manifestBytes)
	return hex.EncodeToString(sum[:])
}
