// Package discover enumerates input files under configured source roots,
// filters them by extension and exclusion glob, and yields (path, text)
// pairs in a deterministic, lexicographically sorted order.
package discover

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SourceFile is one discovered input: its path relative to its source root
// and its raw UTF-8 text.
type SourceFile struct {
	Path string
	Text []byte
}

// SkippedFile records a per-file failure that does not abort the whole
// run: the file is skipped and the failure surfaces as a diagnostic.
type SkippedFile struct {
	Path string
	Err  error
}

// Options configures one discovery pass.
type Options struct {
	Roots      []string
	Extensions []string
	Exclude    []string
}

// Discover walks every root and returns the matching files in sorted order,
// plus any files that were skipped for being unreadable. A missing root is
// fatal: it signals a misconfigured project rather than a transient I/O
// hiccup, so it aborts the whole pass instead of being merely skipped.
func Discover(opts Options, logger *zap.Logger) ([]SourceFile, []SkippedFile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var files []SourceFile
	var skipped []SkippedFile

	for _, root := range opts.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, fmt.Errorf("source root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, nil, fmt.Errorf("source root %s: not a directory", root)
		}

		logger.Debug("discover: walking root", zap.String("root", root))
		err = filepath.Walk(root, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				skipped = append(skipped, SkippedFile{Path: p, Err: walkErr})
				return nil
			}

			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				rel = p
			}
			rel = filepath.ToSlash(rel)

			if fi.IsDir() {
				if rel != "." && isExcluded(rel, fi.Name(), opts.Exclude) {
					return filepath.SkipDir
				}
				return nil
			}

			if isExcluded(rel, fi.Name(), opts.Exclude) {
				return nil
			}
			if !hasAllowedExtension(p, opts.Extensions) {
				return nil
			}

			text, readErr := os.ReadFile(p)
			if readErr != nil {
				logger.Warn("discover: unreadable file", zap.String("path", p), zap.Error(readErr))
				skipped = append(skipped, SkippedFile{Path: p, Err: readErr})
				return nil
			}

			files = append(files, SourceFile{Path: rel, Text: text})
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walk source root %s: %w", root, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	logger.Info("discover: complete", zap.Int("files", len(files)), zap.Int("skipped", len(skipped)))
	return files, skipped, nil
}

func hasAllowedExtension(p string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, allowed := range extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// isExcluded reports whether a root-relative slash-separated path should be
// skipped, matching simple names ("node_modules"), glob patterns
// ("vendor/*"), and path prefixes.
func isExcluded(rel, name string, patterns []string) bool {
	for _, raw := range patterns {
		p := normalizePattern(raw)
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, "*?[]") {
			if ok, _ := path.Match(p, rel); ok {
				return true
			}
			if strings.HasSuffix(p, "/*") {
				prefix := strings.TrimSuffix(p, "/*")
				if strings.HasPrefix(rel, prefix+"/") {
					return true
				}
			}
			continue
		}
		if name == p || rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

func normalizePattern(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/")
	return filepath.ToSlash(p)
}
