package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"liheapcli/internal/config"
	"liheapcli/internal/operations"
)

// pathFlag overrides one configured file location
type pathFlag struct {
	name  string
	usage string
	field func(*config.Config) *string
}

// stageCommand describes the subcommand that runs a single stage
type stageCommand struct {
	stageID string
	short   string
	paths   []pathFlag
}

var (
	flagPledgeDir = pathFlag{"input-dir", "directory of raw pledge exports",
		func(c *config.Config) *string { return &c.Pledges.InputDir }}
	flagCleanPledges = pathFlag{"pledges", "clean pledge workbook",
		func(c *config.Config) *string { return &c.Pledges.Output }}
	flagZipYear = pathFlag{"zip-year", "ZIP-year aggregate workbook",
		func(c *config.Config) *string { return &c.Aggregate.Output }}
	flagACSCombined = pathFlag{"acs-combined", "ZIP-year workbook with ACS indicators",
		func(c *config.Config) *string { return &c.ACS.Output }}
	flagCountyUnemployment = pathFlag{"county-unemployment", "annual county unemployment workbook",
		func(c *config.Config) *string { return &c.Unemployment.Output }}
	flagZipUnemployment = pathFlag{"zip-unemployment", "ZIP unemployment workbook",
		func(c *config.Config) *string { return &c.Crosswalk.Output }}
)

var stageCommands = []stageCommand{
	{
		stageID: operations.StageIDNormalize,
		short:   "Combine and clean the raw pledge exports",
		paths: []pathFlag{
			flagPledgeDir,
			{"combined-output", "combined raw workbook", func(c *config.Config) *string { return &c.Pledges.CombinedOutput }},
			{"output", "clean pledge workbook", func(c *config.Config) *string { return &c.Pledges.Output }},
			{"geonames-file", "local GeoNames US.txt", func(c *config.Config) *string { return &c.GeoNames.LocalFile }},
		},
	},
	{
		stageID: operations.StageIDAggregate,
		short:   "Total pledges by ZIP code and year",
		paths: []pathFlag{
			flagCleanPledges,
			{"output", "ZIP-year aggregate workbook", func(c *config.Config) *string { return &c.Aggregate.Output }},
		},
	},
	{
		stageID: operations.StageIDJoinACS,
		short:   "Attach ACS median income and population",
		paths: []pathFlag{
			flagZipYear,
			{"income", "ACS median income workbook", func(c *config.Config) *string { return &c.ACS.IncomeFile }},
			{"population", "ACS population workbook", func(c *config.Config) *string { return &c.ACS.PopulationFile }},
			{"output", "combined ACS workbook", func(c *config.Config) *string { return &c.ACS.Output }},
		},
	},
	{
		stageID: operations.StageIDUnemployment,
		short:   "Extract annual county unemployment from the BLS workbook",
		paths: []pathFlag{
			{"workbook", "BLS LAUS county profile workbook", func(c *config.Config) *string { return &c.Unemployment.Workbook }},
			{"output", "annual county unemployment workbook", func(c *config.Config) *string { return &c.Unemployment.Output }},
		},
	},
	{
		stageID: operations.StageIDZipCounty,
		short:   "Assign ZIP codes to counties and attach unemployment",
		paths: []pathFlag{
			flagCountyUnemployment,
			{"crosswalk", "HUD ZIP to county crosswalk workbook", func(c *config.Config) *string { return &c.Crosswalk.File }},
			{"output", "ZIP unemployment workbook", func(c *config.Config) *string { return &c.Crosswalk.Output }},
			{"csv-output", "ZIP unemployment CSV copy", func(c *config.Config) *string { return &c.Crosswalk.CSVOutput }},
		},
	},
	{
		stageID: operations.StageIDFinal,
		short:   "Join unemployment onto the ACS table and summarize",
		paths: []pathFlag{
			flagACSCombined,
			flagZipUnemployment,
			{"output", "final analysis workbook", func(c *config.Config) *string { return &c.Final.Output }},
			{"sqlite", "optional SQLite copy of the final table", func(c *config.Config) *string { return &c.Final.SQLitePath }},
		},
	},
}

func newStageCmd(opts *rootOptions, stage stageCommand) *cobra.Command {
	values := make([]string, len(stage.paths))

	cmd := &cobra.Command{
		Use:   stage.stageID,
		Short: stage.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := applyPathFlags(cfg, stage.paths, values); err != nil {
				return err
			}
			// The manifest describes a whole run; single stages leave it alone.
			cfg.Operations.ManifestFile = ""
			return runPipeline(cmd, cfg, stage.stageID)
		},
	}

	for i, p := range stage.paths {
		cmd.Flags().StringVar(&values[i], p.name, "", p.usage)
	}
	return cmd
}

// applyPathFlags overrides config paths with the flags that were set.
// Flag paths are relative to the working directory, not Paths.BaseDir.
func applyPathFlags(cfg *config.Config, flags []pathFlag, values []string) error {
	for i, p := range flags {
		if values[i] == "" {
			continue
		}
		abs, err := filepath.Abs(values[i])
		if err != nil {
			return fmt.Errorf("--%s: %w", p.name, err)
		}
		*p.field(cfg) = abs
	}
	return nil
}
