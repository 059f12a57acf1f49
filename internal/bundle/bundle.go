// Package bundle assembles a Bundle's manifest, per-entity implementations,
// and sidecar files into a single deflate-compressed archive with a
// prescribed internal layout, writing it atomically via a temporary path
// and rename.
package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/saint0x/ar-c/internal/manifest"
	"github.com/saint0x/ar-c/internal/model"
)

// extensionFor maps a source language tag to the file extension used for
// an implementation's emitted module.
func extensionFor(sourceLanguage string) string {
	switch sourceLanguage {
	case "javascript":
		return "js"
	default:
		return "ts"
	}
}

func dirFor(kind model.EntityKind) string {
	switch kind {
	case model.KindTool:
		return "tools"
	case model.KindAgent:
		return "agents"
	case model.KindTeam:
		return "teams"
	case model.KindPipeline:
		return "pipelines"
	default:
		return string(kind) + "s"
	}
}

// Write assembles b into a .aria archive at outputPath. It writes to a
// temporary file in the same directory and renames into place only once
// every entry has been written successfully, so a reader never observes a
// half-written archive at outputPath.
func Write(outputPath string, b model.Bundle) error {
	manifestBytes, err := manifest.Serialize(b.Manifest)
	if err != nil {
		return fmt.Errorf("serialize manifest: %w", err)
	}
	buildBytes, err := json.MarshalIndent(b.Build, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize build info: %w", err)
	}
	buildBytes = append(buildBytes, '\n')

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".arc-bundle-*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if err := writeArchive(tmp, b, manifestBytes, buildBytes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary archive: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("rename archive into place: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, b model.Bundle, manifestBytes, buildBytes []byte) error {
	zw := zip.NewWriter(w)

	if err := writeEntry(zw, "manifest.json", manifestBytes); err != nil {
		return err
	}
	if b.PackageJSON != nil {
		if err := writeEntry(zw, "package.json", b.PackageJSON); err != nil {
			return err
		}
	}
	for _, impl := range b.Implementations {
		ext := extensionFor(impl.SourceLanguage)
		path := fmt.Sprintf("implementations/%s/%s.%s", dirFor(impl.Kind), impl.Name, ext)
		if err := writeEntry(zw, path, []byte(impl.TranspiledCode)); err != nil {
			return err
		}
	}
	if err := writeEntry(zw, "metadata/build.json", buildBytes); err != nil {
		return err
	}

	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, content []byte) error {
	header := &zip.FileHeader{Name: name, Method: zip.Deflate}
	header.SetMode(0o644)
	f, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(f, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
