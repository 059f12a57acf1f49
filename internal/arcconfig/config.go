// Package arcconfig models the already-parsed project configuration that
// the compilation pipeline consumes. Parsing the on-disk TOML file is a
// thin convenience for cmd/arc; the library components below only ever
// depend on the Config value, never on the file.
package arcconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Project mirrors the [project] section.
type Project struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

// Build mirrors the [build] section.
type Build struct {
	Target     string   `toml:"target"`      // runtime dialect, e.g. "js"
	Output     string   `toml:"output"`      // path to the .aria archive to write
	SourceDirs []string `toml:"source_dirs"` // roots the Discoverer walks
	Exclude    []string `toml:"exclude"`     // extra exclusion globs, merged with defaults
}

// Runtime mirrors the [runtime] section. Its contents are opaque to the
// compiler (consumed only by the agentic runtime), so it is preserved as a
// generic map rather than a fixed struct.
type Runtime map[string]any

// Config is the full parsed project configuration.
type Config struct {
	Project Project `toml:"project"`
	Build   Build   `toml:"build"`
	Runtime Runtime `toml:"runtime"`
}

// DefaultExtensions is the set of source file extensions the Discoverer
// recognizes by default.
var DefaultExtensions = []string{".ts"}

// DefaultExclude is merged with Config.Build.Exclude before the Discoverer
// walks the source tree.
var DefaultExclude = []string{"node_modules", "dist", "target", ".git"}

// Load reads and decodes a project configuration file from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Extensions returns the Discoverer's allowed extension set.
func (c Config) Extensions() []string {
	return DefaultExtensions
}

// ExcludePatterns returns the Discoverer's exclusion glob set: the built-in
// defaults plus any project-specific additions.
func (c Config) ExcludePatterns() []string {
	out := make([]string, 0, len(DefaultExclude)+len(c.Build.Exclude))
	out = append(out, DefaultExclude...)
	out = append(out, c.Build.Exclude...)
	return out
}
