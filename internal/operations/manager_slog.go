package operations

import (
	"context"
	"log/slog"
	"time"
)

// logOperationStart logs the start of a pipeline run
func (m *Manager) logOperationStart(ctx context.Context, req OperationRequest) {
	step := req.Step
	if step == "" {
		step = "all"
	}
	m.logger.InfoContext(ctx, "operation_start",
		slog.String("run_id", req.ID),
		slog.String("step", step))
}

// logOperationComplete logs the outcome of a pipeline run
func (m *Manager) logOperationComplete(ctx context.Context, state *OperationState) {
	level := slog.LevelInfo
	if state.GetStatus() != OperationStatusCompleted {
		level = slog.LevelError
	}
	m.logger.Log(ctx, level, "operation_complete",
		slog.String("run_id", state.ID),
		slog.String("status", string(state.GetStatus())),
		slog.Duration("duration", state.Duration()),
		slog.Any("completed", state.StagesWithStatus(StepStatusCompleted)),
		slog.Any("failed", state.StagesWithStatus(StepStatusFailed)),
		slog.Any("skipped", state.StagesWithStatus(StepStatusSkipped)))
}

// logOperationError logs an error that stopped the run before any stage
func (m *Manager) logOperationError(ctx context.Context, runID string, err error) {
	m.logger.ErrorContext(ctx, "operation_error",
		slog.String("run_id", runID),
		slog.String("error", err.Error()))
}

// logStageStart logs the start of a stage attempt
func (m *Manager) logStageStart(ctx context.Context, runID, stageID string, attempt int) {
	m.logger.InfoContext(ctx, "stage_start",
		slog.String("run_id", runID),
		slog.String("stage", stageID),
		slog.Int("attempt", attempt))
}

// logStageComplete logs the completion of a stage
func (m *Manager) logStageComplete(ctx context.Context, runID, stageID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "stage_complete",
		slog.String("run_id", runID),
		slog.String("stage", stageID),
		slog.Duration("duration", duration))
}

// logStageError logs a stage failure
func (m *Manager) logStageError(ctx context.Context, runID, stageID string, err error) {
	m.logger.ErrorContext(ctx, "stage_error",
		slog.String("run_id", runID),
		slog.String("stage", stageID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", err.Error()))
}
