// Package config provides configuration management for the LIHEAP ETL pipeline.
// It loads defaults, an optional YAML file and environment variables, validates
// the result and resolves every file path against a base directory.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LIHEAP_<SECTION>_<KEY>:
//
//	LIHEAP_PATHS_BASE_DIR=/srv/liheap
//	LIHEAP_PLEDGES_START_YEAR_MONTH=2023-01
//	LIHEAP_PLEDGES_END_YEAR_MONTH=2025-06
//	LIHEAP_GEONAMES_USE_HTTP=false
//	LIHEAP_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load("configs/liheap.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.EnsureDirectories(); err != nil {
//	    return err
//	}
//
// Each stage receives the *Config explicitly; nothing reads configuration
// from package-level state.
package config
