package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ResolvePaths rewrites every relative file path against Paths.BaseDir.
// Absolute paths are left untouched.
func (c *Config) ResolvePaths() {
	for _, p := range c.filePaths() {
		*p = c.Resolve(*p)
	}
}

// Resolve joins a relative path with the base directory
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.BaseDir, path)
}

// filePaths lists every configurable path field
func (c *Config) filePaths() []*string {
	return []*string{
		&c.Logging.FilePath,
		&c.Pledges.InputDir,
		&c.Pledges.CombinedOutput,
		&c.Pledges.Output,
		&c.Aggregate.Output,
		&c.ACS.IncomeFile,
		&c.ACS.PopulationFile,
		&c.ACS.Output,
		&c.Unemployment.Workbook,
		&c.Unemployment.Output,
		&c.Crosswalk.File,
		&c.Crosswalk.Output,
		&c.Crosswalk.CSVOutput,
		&c.Final.Output,
		&c.Final.SQLitePath,
		&c.GeoNames.LocalFile,
		&c.Telemetry.MetricsFile,
		&c.Telemetry.TraceFile,
		&c.Operations.ManifestFile,
	}
}

// OutputFiles returns every file the pipeline writes
func (c *Config) OutputFiles() []string {
	outputs := []string{
		c.Pledges.CombinedOutput,
		c.Pledges.Output,
		c.Aggregate.Output,
		c.ACS.Output,
		c.Unemployment.Output,
		c.Crosswalk.Output,
		c.Crosswalk.CSVOutput,
		c.Final.Output,
		c.Final.SQLitePath,
		c.Telemetry.MetricsFile,
		c.Telemetry.TraceFile,
		c.Operations.ManifestFile,
	}
	files := make([]string, 0, len(outputs))
	for _, f := range outputs {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// EnsureDirectories creates the parent directory of every output file
func (c *Config) EnsureDirectories() error {
	seen := make(map[string]bool)
	for _, f := range c.OutputFiles() {
		dir := filepath.Dir(f)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved input and output locations
func (c *Config) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution",
		slog.String("base_dir", c.Paths.BaseDir),
		slog.String("pledge_input_dir", c.Pledges.InputDir),
		slog.String("bls_workbook", c.Unemployment.Workbook),
		slog.String("crosswalk_file", c.Crosswalk.File),
		slog.String("final_output", c.Final.Output))
}
