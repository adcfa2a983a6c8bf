package operations

import (
	"sync"
	"time"

	"concretelab/internal/dataprocessing"
	"concretelab/pkg/contracts/domain"
)

// SpecimenStatus is the overall status of one specimen run
type SpecimenStatus string

const (
	SpecimenStatusPending   SpecimenStatus = "pending"
	SpecimenStatusRunning   SpecimenStatus = "running"
	SpecimenStatusCompleted SpecimenStatus = "completed"
	SpecimenStatusFailed    SpecimenStatus = "failed"
)

// SpecimenState carries one specimen through the pipeline. Each step reads
// what the previous one left behind.
type SpecimenState struct {
	mu sync.RWMutex

	Path   string
	Config domain.SpecimenConfig

	// Set by the load step.
	Table *dataprocessing.Table
	// Set by the reduce step; the export step appends artifacts.
	Report *domain.SpecimenReport

	Status    SpecimenStatus
	StartTime time.Time
	EndTime   *time.Time
	Steps     map[string]*StepState
	Error     error
}

// NewSpecimenState creates the state for analyzing path with cfg.
func NewSpecimenState(path string, cfg domain.SpecimenConfig) *SpecimenState {
	return &SpecimenState{
		Path:   path,
		Config: cfg,
		Status: SpecimenStatusPending,
		Steps:  make(map[string]*StepState),
	}
}

// Start marks the specimen as running
func (s *SpecimenState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = SpecimenStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the specimen as completed
func (s *SpecimenState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = SpecimenStatusCompleted
}

// Fail marks the specimen as failed
func (s *SpecimenState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = SpecimenStatusFailed
	s.Error = err
}

// GetStep returns the state of a step, or nil if it never ran
func (s *SpecimenState) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[id]
}

func (s *SpecimenState) setStep(state *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps[state.ID] = state
}

// Duration returns how long the run took, or has taken so far
func (s *SpecimenState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
