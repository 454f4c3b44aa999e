package fileutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFilePath returns the path for a named output file with the given extension.
func OutputFilePath(name, directory, ext string) string {
	return filepath.Join(directory, SanitizeFilename(name)+"."+strings.TrimPrefix(ext, "."))
}

// SanitizeFilename cleans a filename by replacing problematic characters
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, ":", " -")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	return strings.TrimSpace(name)
}

// FileExists checks if a file exists at the given path
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFileWithOverwrite writes data to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteFileWithOverwrite(filePath string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		slog.Info("File already exists, skipping", "filename", filePath)
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	slog.Debug("Writing file", "filename", filePath, "overwrite", overwrite)
	if err := os.WriteFile(filePath, data, perm); err != nil {
		return false, fmt.Errorf("failed to write file: %w", err)
	}
	return true, nil
}

// WriteJSONFile writes data as indented JSON, respecting the overwrite flag
func WriteJSONFile(data any, filePath string, overwrite bool) (bool, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return WriteFileWithOverwrite(filePath, append(jsonData, '\n'), 0644, overwrite)
}

// WriteYAMLFile writes data as YAML, respecting the overwrite flag
func WriteYAMLFile(data any, filePath string, overwrite bool) (bool, error) {
	yamlData, err := MarshalYAML(data)
	if err != nil {
		return false, err
	}
	return WriteFileWithOverwrite(filePath, yamlData, 0644, overwrite)
}

// MarshalYAML encodes data with two-space indentation.
func MarshalYAML(data any) ([]byte, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return []byte(sb.String()), nil
}
