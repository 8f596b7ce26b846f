package anomaly

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// LoadThresholds reads a YAML threshold file. An empty path returns the
// platform defaults.
func LoadThresholds(path string) (models.Thresholds, error) {
	if path == "" {
		return models.DefaultThresholds(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Thresholds{}, fmt.Errorf("read thresholds file: %w", err)
	}

	th := models.DefaultThresholds()
	if err := yaml.Unmarshal(data, &th); err != nil {
		return models.Thresholds{}, fmt.Errorf("parse thresholds file: %w", err)
	}
	return th, nil
}
