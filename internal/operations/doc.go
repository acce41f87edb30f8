// Package operations orchestrates the LIHEAP pipeline stages.
//
// A Step is one stage of the pipeline. Steps declare the files they read and
// write and the stages they depend on; the Registry orders them topologically
// and the Manager runs them one at a time with a per-stage timeout, retrying
// only network failures. When a stage fails every stage depending on it is
// skipped. Each run gets an ID, a span per stage and a PipelineManifest
// recording inputs, outputs with checksums and stage executions.
//
// Example usage:
//
//	registry, err := operations.NewPipelineRegistry(cfg, logger, &operations.StageOptions{
//		Metrics: telemetry.Metrics,
//	})
//	manager := operations.NewManager(registry, operations.FromAppConfig(cfg.Operations),
//		operations.NewOperationTracer(telemetry.Tracer, telemetry.Metrics), logger)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
package operations
