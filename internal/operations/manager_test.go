package operations

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/shared/testutil"
)

func newTestManager(t *testing.T, cfg *Config, steps ...Step) (*Manager, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	registry := NewRegistry()
	for _, s := range steps {
		require.NoError(t, registry.Register(s))
	}
	return NewManager(registry, cfg, nil, logger), handler
}

func TestManager_ExecuteSequential(t *testing.T) {
	var order []string
	record := func(id string) func(context.Context, *OperationState) error {
		return func(_ context.Context, state *OperationState) error {
			order = append(order, id)
			state.GetStage(id).SetMetadata("rows", len(order))
			return nil
		}
	}
	a, b, c := newFakeStep("a"), newFakeStep("b", "a"), newFakeStep("c", "b")
	a.run, b.run, c.run = record("a"), record("b"), record("c")

	manifestPath := filepath.Join(t.TempDir(), "out", "manifest.json")
	m, handler := newTestManager(t, NewConfigBuilder().WithManifestFile(manifestPath).Build(), c, a, b)

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
	for _, id := range order {
		assert.Equal(t, StepStatusCompleted, resp.Steps[id].GetStatus())
	}
	testutil.AssertLogged(t, handler, slog.LevelInfo, "operation_complete")

	loaded, err := LoadManifestFromFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, string(OperationStatusCompleted), loaded.Status)
	require.Len(t, loaded.Stages, 3)
	assert.Equal(t, "a", loaded.Stages[0].StageID)
	assert.EqualValues(t, 1, loaded.Stages[0].Metadata["rows"])
}

func TestManager_FailureSkipsDependents(t *testing.T) {
	failing := newFakeStep(StageIDAggregate)
	failing.run = func(context.Context, *OperationState) error {
		return apperrors.NewParsingError("bad workbook", nil)
	}
	dependent := newFakeStep(StageIDJoinACS, StageIDAggregate)
	transitive := newFakeStep(StageIDFinal, StageIDJoinACS, StageIDZipCounty)
	independent := newFakeStep(StageIDZipCounty)

	t.Run("stop on error", func(t *testing.T) {
		failing.calls, independent.calls = 0, 0
		m, handler := newTestManager(t, NewConfig(), failing, dependent, independent, transitive)

		resp, err := m.Execute(context.Background(), OperationRequest{})
		require.Error(t, err)
		assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
		assert.Equal(t, 1, failing.calls, "parsing errors are not retried")

		assert.Equal(t, OperationStatusFailed, resp.Status)
		assert.Equal(t, StepStatusFailed, resp.Steps[StageIDAggregate].GetStatus())
		assert.Equal(t, StepStatusSkipped, resp.Steps[StageIDJoinACS].GetStatus())
		assert.Equal(t, StepStatusSkipped, resp.Steps[StageIDFinal].GetStatus())
		assert.Equal(t, StepStatusPending, resp.Steps[StageIDZipCounty].GetStatus())
		assert.Equal(t, 0, independent.calls)
		testutil.AssertLogged(t, handler, slog.LevelError, "stage_error")
	})

	t.Run("continue on error", func(t *testing.T) {
		failing.calls, independent.calls, dependent.calls = 0, 0, 0
		cfg := NewConfigBuilder().WithContinueOnError(true).Build()
		m, _ := newTestManager(t, cfg, failing, dependent, independent, transitive)

		resp, err := m.Execute(context.Background(), OperationRequest{})
		require.Error(t, err)
		assert.Equal(t, OperationStatusFailed, resp.Status)
		assert.Equal(t, 1, independent.calls)
		assert.Equal(t, 0, dependent.calls)
		assert.Equal(t, StepStatusCompleted, resp.Steps[StageIDZipCounty].GetStatus())
		assert.Equal(t, StepStatusSkipped, resp.Steps[StageIDFinal].GetStatus())
	})
}

func TestManager_RetriesNetworkErrors(t *testing.T) {
	step := newFakeStep("fetch")
	step.run = func(context.Context, *OperationState) error {
		if step.calls == 1 {
			return apperrors.NewNetworkError("connection reset", nil)
		}
		return nil
	}
	cfg := NewConfigBuilder().WithRetryConfig(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2,
	}).Build()
	m, handler := newTestManager(t, cfg, step)

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, step.calls)
	assert.Equal(t, 2, resp.Steps["fetch"].Attempts)
	testutil.AssertLogged(t, handler, slog.LevelWarn, "stage_retry")
}

func TestManager_ValidationFailure(t *testing.T) {
	step := newFakeStep("a")
	step.validate = NewValidationError("a", "input missing")
	m, handler := newTestManager(t, NewConfig(), step)

	resp, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, 0, step.calls)
	assert.Equal(t, StepStatusFailed, resp.Steps["a"].GetStatus())
	testutil.AssertLogged(t, handler, slog.LevelError, "validation_failed")
}

func TestManager_Timeout(t *testing.T) {
	step := newFakeStep("slow")
	step.run = func(ctx context.Context, _ *OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	}
	cfg := NewConfigBuilder().WithStageTimeout("slow", 10*time.Millisecond).Build()
	m, _ := newTestManager(t, cfg, step)

	_, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.False(t, IsRetryable(err))
}

func TestManager_SingleStep(t *testing.T) {
	a, b := newFakeStep("a"), newFakeStep("b", "a")
	m, _ := newTestManager(t, NewConfig(), a, b)

	resp, err := m.Execute(context.Background(), OperationRequest{Step: "b"})
	require.NoError(t, err)
	assert.Equal(t, 0, a.calls, "dependencies outside the run are not executed")
	assert.Equal(t, 1, b.calls)
	assert.Len(t, resp.Steps, 1)

	_, err = m.Execute(context.Background(), OperationRequest{Step: "ghost"})
	require.Error(t, err)
}

func TestManager_Cancelled(t *testing.T) {
	step := newFakeStep("a")
	m, _ := newTestManager(t, NewConfig(), step)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := m.Execute(ctx, OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.Equal(t, OperationStatusCancelled, resp.Status)
	assert.Equal(t, 0, step.calls)
}

func TestCalculateRetryDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, calculateRetryDelay(1, cfg))
	assert.Equal(t, 2*time.Second, calculateRetryDelay(2, cfg))
	assert.Equal(t, 3*time.Second, calculateRetryDelay(3, cfg))
}
