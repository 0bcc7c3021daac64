package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"serialsync/internal/models"
)

// FileName is the name of the manifest sidecar in the publication folder.
const FileName = "manifest.yaml"

// Write stores the manifest as YAML at path.
func Write(path string, m models.Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}

	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (models.Manifest, error) {
	var m models.Manifest

	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	return m, nil
}
