package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Store[R].
//
// Designed for tests and single-process use; data is lost when the process
// exits. MemStore is safe for concurrent use.
type MemStore[R any] struct {
	mu    sync.RWMutex
	steps map[string]map[int]StepRecord[R] // runID -> step -> record
	runs  map[string]RunRecord
}

// NewMemStore creates an empty in-memory store.
//
// Example:
//
//	st := store.NewMemStore[graph.ExecutionResult]()
//	engine, _ := graph.New(registry, graph.WithStore(st))
func NewMemStore[R any]() *MemStore[R] {
	return &MemStore[R]{
		steps: make(map[string]map[int]StepRecord[R]),
		runs:  make(map[string]RunRecord),
	}
}

// SaveStep records a node result.
func (m *MemStore[R]) SaveStep(_ context.Context, runID string, step int, nodeID string, result R) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.steps[runID] == nil {
		m.steps[runID] = make(map[int]StepRecord[R])
	}
	m.steps[runID][step] = StepRecord[R]{Step: step, NodeID: nodeID, Result: result}
	return nil
}

// LoadSteps returns the recorded steps of a run ordered by step.
func (m *MemStore[R]) LoadSteps(_ context.Context, runID string) ([]StepRecord[R], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byStep := m.steps[runID]
	if len(byStep) == 0 {
		return nil, ErrNotFound
	}
	out := make([]StepRecord[R], 0, len(byStep))
	for _, rec := range byStep {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	return out, nil
}

// LoadLatest returns the highest-numbered step of a run.
func (m *MemStore[R]) LoadLatest(ctx context.Context, runID string) (result R, step int, err error) {
	steps, err := m.LoadSteps(ctx, runID)
	if err != nil {
		return result, 0, err
	}
	last := steps[len(steps)-1]
	return last.Result, last.Step, nil
}

// SaveRun records a run summary.
func (m *MemStore[R]) SaveRun(_ context.Context, run RunRecord) error {
	if run.RunID == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
	return nil
}

// LoadRun returns a run summary.
func (m *MemStore[R]) LoadRun(_ context.Context, runID string) (RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return run, nil
}

// memSnapshot is the JSON form of a MemStore.
type memSnapshot[R any] struct {
	Steps map[string][]StepRecord[R] `json:"steps"`
	Runs  map[string]RunRecord       `json:"runs"`
}

// MarshalJSON exports the store contents, e.g. for dumping a session to disk.
func (m *MemStore[R]) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memSnapshot[R]{
		Steps: make(map[string][]StepRecord[R], len(m.steps)),
		Runs:  m.runs,
	}
	for runID, byStep := range m.steps {
		recs := make([]StepRecord[R], 0, len(byStep))
		for _, rec := range byStep {
			recs = append(recs, rec)
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].Step < recs[j].Step })
		snap.Steps[runID] = recs
	}
	return json.Marshal(snap)
}

// UnmarshalJSON replaces the store contents with a previously exported
// snapshot.
func (m *MemStore[R]) UnmarshalJSON(data []byte) error {
	var snap memSnapshot[R]
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to unmarshal store snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = make(map[string]map[int]StepRecord[R], len(snap.Steps))
	for runID, recs := range snap.Steps {
		m.steps[runID] = make(map[int]StepRecord[R], len(recs))
		for _, rec := range recs {
			m.steps[runID][rec.Step] = rec
		}
	}
	m.runs = snap.Runs
	if m.runs == nil {
		m.runs = make(map[string]RunRecord)
	}
	return nil
}
