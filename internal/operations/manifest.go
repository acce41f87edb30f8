package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PipelineManifest records what one pipeline run read, wrote and executed
type PipelineManifest struct {
	mu sync.RWMutex `json:"-"`

	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`

	// Inputs and outputs keyed by data type
	Inputs  map[string]*DataInfo `json:"inputs"`
	Outputs map[string]*DataInfo `json:"outputs"`

	Stages []StageExecution `json:"stages"`

	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// DataInfo describes one file read or written by a stage
type DataInfo struct {
	Type      string    `json:"type"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows,omitempty"`
	Files     []string  `json:"files,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string                 `json:"stage_id"`
	StageName string                 `json:"stage_name"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Status    string                 `json:"status"`
	Outputs   []string               `json:"outputs,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewPipelineManifest creates an empty manifest for a run
func NewPipelineManifest(runID string) *PipelineManifest {
	now := time.Now()
	return &PipelineManifest{
		RunID:       runID,
		StartTime:   now,
		Inputs:      make(map[string]*DataInfo),
		Outputs:     make(map[string]*DataInfo),
		Stages:      []StageExecution{},
		Status:      string(OperationStatusPending),
		LastUpdated: now,
	}
}

// AddInput records a file a stage read
func (m *PipelineManifest) AddInput(info *DataInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Inputs[info.Type]; exists {
		return
	}
	info.CreatedAt = time.Now()
	m.Inputs[info.Type] = info
	m.LastUpdated = info.CreatedAt
}

// AddOutput records a file a stage wrote; a later write of the same type replaces it
func (m *PipelineManifest) AddOutput(info *DataInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info.CreatedAt = time.Now()
	m.Outputs[info.Type] = info
	m.LastUpdated = info.CreatedAt
}

// GetOutput returns a recorded output
func (m *PipelineManifest) GetOutput(dataType string) (*DataInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.Outputs[dataType]
	return data, exists
}

// RecordStageStart records the start of a stage execution
func (m *PipelineManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.Status = string(OperationStatusRunning)
	m.LastUpdated = now
	if i := m.indexOf(stageID); i >= 0 {
		m.Stages[i].StartTime = now
		m.Stages[i].Status = string(StepStatusActive)
		m.Stages[i].Error = ""
		return
	}
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: now,
		Status:    string(StepStatusActive),
	})
}

// RecordStageCompletion records the completion of a stage
func (m *PipelineManifest) RecordStageCompletion(stageID string, outputs []string, metadata map[string]interface{}) {
	m.finish(stageID, StepStatusCompleted, func(s *StageExecution) {
		s.Outputs = outputs
		s.Metadata = metadata
	})
}

// RecordStageFailure records a stage failure
func (m *PipelineManifest) RecordStageFailure(stageID string, err error) {
	m.finish(stageID, StepStatusFailed, func(s *StageExecution) {
		s.Error = err.Error()
	})
	m.mu.Lock()
	m.Status = string(OperationStatusFailed)
	m.Error = fmt.Sprintf("stage %s failed: %v", stageID, err)
	m.mu.Unlock()
}

// RecordStageSkipped records a stage that never ran
func (m *PipelineManifest) RecordStageSkipped(stageID, stageName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		Status:    string(StepStatusSkipped),
		Error:     reason,
	})
	m.LastUpdated = time.Now()
}

// Finish sets the final run status
func (m *PipelineManifest) Finish(status OperationStatusValue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Status != string(OperationStatusFailed) {
		m.Status = string(status)
	}
	m.LastUpdated = time.Now()
}

func (m *PipelineManifest) finish(stageID string, status StepStatus, apply func(*StageExecution)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(stageID)
	if i < 0 {
		return
	}
	now := time.Now()
	m.Stages[i].EndTime = now
	m.Stages[i].Duration = now.Sub(m.Stages[i].StartTime).String()
	m.Stages[i].Status = string(status)
	apply(&m.Stages[i])
	m.LastUpdated = now
}

func (m *PipelineManifest) indexOf(stageID string) int {
	for i, s := range m.Stages {
		if s.StageID == stageID {
			return i
		}
	}
	return -1
}

// IsStageCompleted checks if a stage has been completed
func (m *PipelineManifest) IsStageCompleted(stageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(stageID)
	return i >= 0 && m.Stages[i].Status == string(StepStatusCompleted)
}

// GetProgress returns the percentage of pipeline stages completed
func (m *PipelineManifest) GetProgress() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	completed := 0
	for _, stage := range m.Stages {
		if stage.Status == string(StepStatusCompleted) {
			completed++
		}
	}
	return completed * 100 / len(StageOrder)
}

// SaveToFile writes the manifest as indented JSON
func (m *PipelineManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest PipelineManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}
