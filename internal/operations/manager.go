package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"liheapcli/internal/infrastructure"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a new operation manager
func NewManager(registry *Registry, config *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if tracer == nil {
		tracer = NewOperationTracer(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		config:   config,
		tracer:   tracer,
		logger:   logger,
	}
}

// Execute runs every registered step in dependency order, or the single step
// named in the request.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithTraceID(ctx, req.ID)

	state := NewOperationState(req.ID)
	state.SetContext(ContextKeyRunID, req.ID)
	for k, v := range req.Parameters {
		state.SetContext(k, v)
	}
	m.logOperationStart(ctx, req)

	steps, err := m.selectSteps(req)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		state.Manifest.Finish(OperationStatusFailed)
		return m.finish(ctx, state), err
	}

	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID()
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperation(ctx, req.ID, ids)
	state.Start()
	err = m.executeSequential(ctx, state, steps)

	switch {
	case err != nil && ctx.Err() != nil:
		state.Cancel()
		state.Error = err
	case err != nil:
		state.Fail(err)
	case state.HasFailures():
		err = fmt.Errorf("stages failed: %v", state.StagesWithStatus(StepStatusFailed))
		state.Fail(err)
	default:
		state.Complete()
	}
	state.Manifest.Finish(state.GetStatus())
	m.tracer.RecordOperation(span, state.GetStatus(), state.Duration(), err)

	return m.finish(ctx, state), err
}

func (m *Manager) selectSteps(req OperationRequest) ([]Step, error) {
	if req.Step != "" {
		step, err := m.registry.Get(req.Step)
		if err != nil {
			return nil, err
		}
		return []Step{step}, nil
	}
	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency order: %w", err)
	}
	return steps, nil
}

// executeSequential executes steps one by one. Stages read each other's
// files, so there is no parallel mode.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("run_id", state.ID),
				slog.String("stage", step.ID()))
			return NewCancellationError(step.ID())
		}

		stepState := state.GetStage(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "stage_skipped",
				slog.String("run_id", state.ID),
				slog.String("stage", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing_stage",
			slog.String("run_id", state.ID),
			slog.String("stage", step.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			m.skipDependentStages(state, steps, step.ID())
			if !m.config.ContinueOnError || GetErrorType(err) == ErrorTypeCancellation {
				return err
			}
			m.logger.WarnContext(ctx, "stage_failed_continuing",
				slog.String("run_id", state.ID),
				slog.String("stage", step.ID()))
		}
	}
	m.logger.InfoContext(ctx, "all_stages_finished", slog.String("run_id", state.ID))
	return nil
}

// executeStage validates and runs one step with timeout and retry
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	stageCtx := infrastructure.WithStage(ctx, step.ID())

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		state.Manifest.RecordStageSkipped(step.ID(), step.Name(), err.Error())
		return err
	}

	if err := step.Validate(state); err != nil {
		var opErr *OperationError
		if !errors.As(err, &opErr) {
			err = NewValidationError(step.ID(), err.Error())
		}
		m.logger.ErrorContext(stageCtx, "validation_failed",
			slog.String("run_id", state.ID),
			slog.String("stage", step.ID()),
			slog.String("error", err.Error()))
		stepState.Fail(err)
		state.Manifest.RecordStageStart(step.ID(), step.Name())
		state.Manifest.RecordStageFailure(step.ID(), err)
		m.tracer.Metrics().RecordStage(stageCtx, step.ID(), string(StepStatusFailed), 0)
		return err
	}

	timeout := m.config.GetStageTimeout(step.ID())
	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	var lastErr error
attempts:
	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepState.Start()
		state.Manifest.RecordStageStart(step.ID(), step.Name())
		m.logStageStart(stageCtx, state.ID, step.ID(), attempt)

		spanCtx, span := m.tracer.TraceStage(stageCtx, state.ID, step.ID(), attempt)
		runCtx, cancel := context.WithTimeout(spanCtx, timeout)
		start := time.Now()
		err := step.Execute(runCtx, state)
		duration := time.Since(start)
		timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			stepState.Complete()
			state.Manifest.RecordStageCompletion(step.ID(), outputTypes(step), stepState.Snapshot())
			m.tracer.RecordStage(spanCtx, span, step.ID(), StepStatusCompleted, duration, nil)
			m.logStageComplete(stageCtx, state.ID, step.ID(), duration)
			return nil
		}

		switch {
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID())
		case timedOut:
			err = NewTimeoutError(step.ID(), timeout.String())
		default:
			err = NewExecutionError(step.ID(), err)
		}
		lastErr = err
		m.tracer.RecordStage(spanCtx, span, step.ID(), StepStatusFailed, duration, err)

		if !IsRetryable(err) || attempt == retry.MaxAttempts {
			break attempts
		}

		delay := calculateRetryDelay(attempt, retry)
		m.logger.WarnContext(stageCtx, "stage_retry",
			slog.String("run_id", state.ID),
			slog.String("stage", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = NewCancellationError(step.ID())
			break attempts
		}
	}

	stepState.Fail(lastErr)
	state.Manifest.RecordStageFailure(step.ID(), lastErr)
	return lastErr
}

// skipDependentStages marks every pending step that depends, directly or
// transitively, on the failed step as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStageID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedStageID {
				continue
			}
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				reason := fmt.Sprintf("dependency %s failed", failedStageID)
				stepState.Skip(reason)
				state.Manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
				m.skipDependentStages(state, steps, step.ID())
			}
			break
		}
	}
}

// checkDependencies verifies that dependencies taking part in this run have
// completed. A dependency outside the run is satisfied by its files on disk,
// which Validate checks.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			continue
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// calculateRetryDelay returns the exponential backoff before the next attempt
func calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func outputTypes(step Step) []string {
	outputs := step.ProducedOutputs()
	types := make([]string, 0, len(outputs))
	for _, o := range outputs {
		types = append(types, o.Type)
	}
	return types
}

// finish logs the outcome, writes the manifest and builds the response
func (m *Manager) finish(ctx context.Context, state *OperationState) *OperationResponse {
	if m.config.ManifestFile != "" {
		if err := state.Manifest.SaveToFile(m.config.ManifestFile); err != nil {
			m.logger.ErrorContext(ctx, "manifest_write_failed",
				slog.String("path", m.config.ManifestFile),
				slog.String("error", err.Error()))
		} else {
			m.logger.InfoContext(ctx, "manifest_written", slog.String("path", m.config.ManifestFile))
		}
	}
	m.logOperationComplete(ctx, state)

	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
		Manifest: state.Manifest,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}
