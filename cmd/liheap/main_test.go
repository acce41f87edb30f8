package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liheapcli/internal/operations"
	"liheapcli/internal/shared/testutil"
	"liheapcli/pkg/contracts"
)

// writeConfig writes a YAML config rooted at dir that never touches the network
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "liheap.yaml")
	testutil.WriteFile(t, path, "paths:\n"+
		"  base_dir: "+dir+"\n"+
		"geonames:\n"+
		"  use_http: false\n"+
		"final:\n"+
		"  sqlite_path: data/final/liheap_final.db\n"+
		"logging:\n"+
		"  level: warn\n")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	for _, id := range operations.StageOrder {
		assert.Contains(t, names, id)
	}
	assert.Contains(t, names, "run")
}

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()
	testutil.WritePipelineFixtures(t, testutil.DefaultPipelineInputs(dir))
	cfgPath := writeConfig(t, dir)
	manifest := filepath.Join(dir, "out", "manifest.json")
	metrics := filepath.Join(dir, "out", "metrics.prom")

	out, err := execute(t, "run", "--config", cfgPath, "--manifest", manifest, "--metrics-file", metrics)
	require.NoError(t, err, out)
	assert.Contains(t, out, "completed in")

	loaded, err := operations.LoadManifestFromFile(manifest)
	require.NoError(t, err)
	assert.Equal(t, "completed", loaded.Status)
	assert.Len(t, loaded.Stages, len(operations.StageOrder))
	assert.FileExists(t, filepath.Join(dir, "data/final/liheap_full_combined.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "data/final/liheap_final.db"))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "liheap_stage_executions")
	assert.Contains(t, string(prom), "liheap_rows_dropped")
}

func TestStageCmd_PathOverride(t *testing.T) {
	dir := t.TempDir()
	in := testutil.DefaultPipelineInputs(dir)
	testutil.WritePipelineFixtures(t, in)
	cfgPath := writeConfig(t, dir)
	custom := filepath.Join(dir, "custom", "county.xlsx")

	out, err := execute(t, "unemployment", "--config", cfgPath, "--output", custom)
	require.NoError(t, err, out)
	assert.Contains(t, out, "unemployment")
	assert.FileExists(t, custom)
	assert.NoFileExists(t, filepath.Join(dir, "data/clean/bls_county_unemployment.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "data/final/run_manifest.json"), "single stages do not write the run manifest")
}

func TestStageCmd_MissingInput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := execute(t, "aggregate", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, out, "failed")
}

func TestStageCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "final", "extra")
	assert.Error(t, err)
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, contracts.Version)
}
