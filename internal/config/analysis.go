// Package config loads the analysis configuration for the fluence report
// tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig represents the root configuration for a fluence
// reconstruction. All fields are pointers so that a partial JSON file only
// overrides what it names; the Get* methods supply defaults for the rest.
type AnalysisConfig struct {
	// Grid params
	BinsX *int `json:"bins_x,omitempty"`
	BinsY *int `json:"bins_y,omitempty"`

	// Kernel params
	TruncationSigmas *float64 `json:"truncation_sigmas,omitempty"`

	// Progress reporting
	ProgressEveryRows *int `json:"progress_every_rows,omitempty"`

	// Database path
	DBPath *string `json:"db_path,omitempty"`

	// Report output params
	OutputDir *string `json:"output_dir,omitempty"`
	WritePNG  *bool   `json:"write_png,omitempty"`
	WriteHTML *bool   `json:"write_html,omitempty"`
	WriteCSV  *bool   `json:"write_csv,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
// Every Get* accessor then answers with its built-in default.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.BinsX != nil && *c.BinsX < 1 {
		return fmt.Errorf("bins_x must be at least 1, got %d", *c.BinsX)
	}
	if c.BinsY != nil && *c.BinsY < 1 {
		return fmt.Errorf("bins_y must be at least 1, got %d", *c.BinsY)
	}

	// The deposition kernel refuses truncation radii below 3 sigma; reject
	// them at load time so the failure names the config file.
	if c.TruncationSigmas != nil && *c.TruncationSigmas < 3 {
		return fmt.Errorf("truncation_sigmas must be at least 3, got %g", *c.TruncationSigmas)
	}

	if c.ProgressEveryRows != nil && *c.ProgressEveryRows < 1 {
		return fmt.Errorf("progress_every_rows must be at least 1, got %d", *c.ProgressEveryRows)
	}

	return nil
}

// GetBinsX returns the bins_x value or the default.
func (c *AnalysisConfig) GetBinsX() int {
	if c.BinsX == nil {
		return 100 // default
	}
	return *c.BinsX
}

// GetBinsY returns the bins_y value or the default.
func (c *AnalysisConfig) GetBinsY() int {
	if c.BinsY == nil {
		return 100 // default
	}
	return *c.BinsY
}

// GetTruncationSigmas returns the truncation_sigmas value or the default.
func (c *AnalysisConfig) GetTruncationSigmas() float64 {
	if c.TruncationSigmas == nil {
		return 6.0 // default
	}
	return *c.TruncationSigmas
}

// GetProgressEveryRows returns the progress_every_rows value or the default.
func (c *AnalysisConfig) GetProgressEveryRows() int {
	if c.ProgressEveryRows == nil {
		return 10 // default
	}
	return *c.ProgressEveryRows
}

// GetDBPath returns the db_path value or the default.
func (c *AnalysisConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "irrad_data.db" // default
	}
	return *c.DBPath
}

// GetOutputDir returns the output_dir value or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "reports" // default
	}
	return *c.OutputDir
}

// GetWritePNG returns the write_png value or the default.
func (c *AnalysisConfig) GetWritePNG() bool {
	if c.WritePNG == nil {
		return true // default
	}
	return *c.WritePNG
}

// GetWriteHTML returns the write_html value or the default.
func (c *AnalysisConfig) GetWriteHTML() bool {
	if c.WriteHTML == nil {
		return true // default
	}
	return *c.WriteHTML
}

// GetWriteCSV returns the write_csv value or the default.
func (c *AnalysisConfig) GetWriteCSV() bool {
	if c.WriteCSV == nil {
		return false // default
	}
	return *c.WriteCSV
}
