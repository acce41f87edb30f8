package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "liheapcli/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liheap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, DefaultStartYearMonth, cfg.Pledges.StartYearMonth)
				assert.Equal(t, DefaultEndYearMonth, cfg.Pledges.EndYearMonth)
				assert.Equal(t, 2023, cfg.Aggregate.MinYear)
				assert.Equal(t, 2025, cfg.Aggregate.MaxYear)
				assert.Equal(t, "CA", cfg.Crosswalk.State)
				assert.Equal(t, 10*time.Second, cfg.GeoNames.Timeout)
				assert.True(t, cfg.GeoNames.UseHTTP)
				assert.Equal(t, filepath.Join(".", DefaultFinalFile), cfg.Final.Output)
			},
		},
		{
			name: "yaml file overrides defaults",
			file: `
paths:
  base_dir: /srv/liheap
pledges:
  start_year_month: "2024-01"
  end_year_month: ""
geonames:
  use_http: false
  timeout: 3s
crosswalk:
  state: NV
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "2024-01", cfg.Pledges.StartYearMonth)
				assert.Empty(t, cfg.Pledges.EndYearMonth)
				assert.False(t, cfg.GeoNames.UseHTTP)
				assert.Equal(t, 3*time.Second, cfg.GeoNames.Timeout)
				assert.Equal(t, "NV", cfg.Crosswalk.State)
				assert.Equal(t, filepath.Join("/srv/liheap", DefaultPledgeInputDir), cfg.Pledges.InputDir)
				assert.Equal(t, filepath.Join("/srv/liheap", DefaultGeoNamesLocalFile), cfg.GeoNames.LocalFile)
			},
		},
		{
			name: "environment overrides yaml file",
			file: `
logging:
  level: warn
aggregate:
  min_year: 2022
`,
			env: map[string]string{
				"LIHEAP_LOGGING_LEVEL":            "debug",
				"LIHEAP_AGGREGATE_MAX_YEAR":       "2024",
				"LIHEAP_FINAL_SQLITE_PATH":        "/tmp/liheap.db",
				"LIHEAP_PLEDGES_INPUT_DIR":        "/data/pledges",
				"LIHEAP_GEONAMES_USE_HTTP":        "false",
				"LIHEAP_OPERATIONS_STAGE_TIMEOUT": "5m",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 2022, cfg.Aggregate.MinYear)
				assert.Equal(t, 2024, cfg.Aggregate.MaxYear)
				assert.Equal(t, "/tmp/liheap.db", cfg.Final.SQLitePath)
				assert.Equal(t, "/data/pledges", cfg.Pledges.InputDir)
				assert.False(t, cfg.GeoNames.UseHTTP)
				assert.Equal(t, 5*time.Minute, cfg.Operations.StageTimeout)
			},
		},
		{
			name:    "malformed year-month is rejected",
			env:     map[string]string{"LIHEAP_PLEDGES_START_YEAR_MONTH": "2023/01"},
			wantErr: true,
		},
		{
			name: "start after end is rejected",
			env: map[string]string{
				"LIHEAP_PLEDGES_START_YEAR_MONTH": "2025-01",
				"LIHEAP_PLEDGES_END_YEAR_MONTH":   "2024-12",
			},
			wantErr: true,
		},
		{
			name:    "min year above max year is rejected",
			env:     map[string]string{"LIHEAP_AGGREGATE_MIN_YEAR": "2026"},
			wantErr: true,
		},
		{
			name:    "unknown log level is rejected",
			env:     map[string]string{"LIHEAP_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "http lookup without url is rejected",
			env:     map[string]string{"LIHEAP_GEONAMES_URL": ""},
			wantErr: true,
		},
		{
			name:    "invalid yaml fails",
			file:    "pledges: [unterminated",
			wantErr: true,
		},
		{
			name:    "unparseable env value fails",
			env:     map[string]string{"LIHEAP_OPERATIONS_STAGE_TIMEOUT": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, SheetIncome, cfg.ACS.IncomeSheet)
	assert.Equal(t, SheetPopulation, cfg.ACS.PopulationSheet)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = "/work"

	assert.Equal(t, "/work/data/x.xlsx", cfg.Resolve("data/x.xlsx"))
	assert.Equal(t, "/abs/y.xlsx", cfg.Resolve("/abs/y.xlsx"))
	assert.Empty(t, cfg.Resolve(""))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.ResolvePaths()

	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{"data/interim", "data/clean", "data/final"} {
		info, err := os.Stat(filepath.Join(base, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
	assert.NotContains(t, cfg.OutputFiles(), "")
}
