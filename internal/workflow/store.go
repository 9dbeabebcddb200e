package workflow

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/chathub/internal/types"
)

// entry guards one workflow. Its mutex serialises counter updates and
// enable/disable for that workflow only.
type entry struct {
	mu sync.Mutex
	wf Workflow
}

func (e *entry) snapshot() *Workflow {
	e.mu.Lock()
	defer e.mu.Unlock()
	wf := e.wf
	return &wf
}

// Stats summarises the Store.
type Stats struct {
	TotalWorkflows   int    `json:"totalWorkflows"`
	EnabledWorkflows int    `json:"enabledWorkflows"`
	TotalTriggers    int64  `json:"totalTriggers"`
	MostTriggered    string `json:"mostTriggered,omitempty"`
}

// Store holds workflows keyed by ID and iterates them in insertion order.
type Store struct {
	mu      sync.RWMutex
	order   []types.WorkflowID
	entries map[types.WorkflowID]*entry
	now     func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[types.WorkflowID]*entry),
		now:     time.Now,
	}
}

// NewStoreWithBuiltins creates a Store holding the built-in workflows.
func NewStoreWithBuiltins() *Store {
	s := NewStore()
	for _, wf := range Builtins() {
		s.Add(wf)
	}
	return s
}

// Add stores a copy of wf with fresh creation metadata and zeroed counters.
// Adding an existing ID replaces that workflow in place.
func (s *Store) Add(wf *Workflow) {
	e := &entry{wf: *wf}
	e.wf.CreatedAt = s.now()
	e.wf.LastTriggered = nil
	e.wf.TriggerCount = 0

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[wf.ID]; !exists {
		s.order = append(s.order, wf.ID)
	}
	s.entries[wf.ID] = e
}

// Remove deletes a workflow. It reports whether the ID was present.
func (s *Store) Remove(id types.WorkflowID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

func (s *Store) removeLocked(id types.WorkflowID) bool {
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle enables or disables a workflow without touching its counters. It
// reports whether the ID was present.
func (s *Store) Toggle(id types.WorkflowID, enabled bool) bool {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.wf.Enabled = enabled
	e.mu.Unlock()
	return true
}

// Get returns a snapshot of one workflow.
func (s *Store) Get(id types.WorkflowID) (*Workflow, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.snapshot(), true
}

// List returns snapshots of all workflows in insertion order.
func (s *Store) List() []*Workflow {
	entries := s.ordered()
	out := make([]*Workflow, len(entries))
	for i, e := range entries {
		out[i] = e.snapshot()
	}
	return out
}

func (s *Store) ordered() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Stats counts workflows and triggers. MostTriggered names the workflow with
// the strictly highest count, the earliest one on ties, and stays empty while
// nothing has fired.
func (s *Store) Stats() Stats {
	var stats Stats
	var best int64
	for _, wf := range s.List() {
		stats.TotalWorkflows++
		if wf.Enabled {
			stats.EnabledWorkflows++
		}
		stats.TotalTriggers += wf.TriggerCount
		if wf.TriggerCount > best {
			best = wf.TriggerCount
			stats.MostTriggered = wf.Name
		}
	}
	return stats
}

// CreateCustom validates and adds a user-defined workflow, enabled, with a
// generated "custom-{unix millis}" ID.
func (s *Store) CreateCustom(name string, trigger Trigger, actions []Action) (types.WorkflowID, error) {
	wf := &Workflow{Name: name, Trigger: trigger, Actions: actions}
	def := wf.Definition()
	if errs := Validate(&def); len(errs) > 0 {
		return "", &ValidationError{Errors: errs}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	base := fmt.Sprintf("custom-%d", s.now().UnixMilli())
	id := types.WorkflowID(base)
	for n := 1; s.entries[id] != nil; n++ {
		id = types.WorkflowID(fmt.Sprintf("%s-%d", base, n))
	}

	wf.ID = id
	wf.Enabled = true
	wf.Custom = true
	wf.CreatedAt = s.now()
	s.entries[id] = &entry{wf: *wf}
	s.order = append(s.order, id)
	return id, nil
}

// CreateFromDefinition builds d and adds it as a custom workflow. When d has
// no ID one is generated as in CreateCustom. An ID naming a built-in
// workflow fails with ErrConflict; one naming a custom workflow replaces
// it and keeps its counters.
func (s *Store) CreateFromDefinition(d *Definition) (types.WorkflowID, error) {
	wf, err := d.Build()
	if err != nil {
		return "", err
	}
	if d.ID == "" {
		id, err := s.CreateCustom(wf.Name, wf.Trigger, wf.Actions)
		if err != nil {
			return "", err
		}
		if !wf.Enabled {
			s.Toggle(id, false)
		}
		return id, nil
	}
	wf.Custom = true

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[wf.ID]; ok && !existing.wf.Custom {
		return "", fmt.Errorf("%w: %s is a built-in workflow", ErrConflict, wf.ID)
	}
	s.putCustomLocked(*wf)
	return wf.ID, nil
}

// putCustomLocked inserts wf, or replaces the custom workflow with the same
// ID while keeping its creation time and counters. It reports whether wf
// was new.
func (s *Store) putCustomLocked(wf Workflow) bool {
	existing, ok := s.entries[wf.ID]
	if !ok {
		wf.CreatedAt = s.now()
		wf.LastTriggered = nil
		wf.TriggerCount = 0
		s.entries[wf.ID] = &entry{wf: wf}
		s.order = append(s.order, wf.ID)
		return true
	}
	existing.mu.Lock()
	wf.CreatedAt = existing.wf.CreatedAt
	wf.LastTriggered = existing.wf.LastTriggered
	wf.TriggerCount = existing.wf.TriggerCount
	existing.wf = wf
	existing.mu.Unlock()
	return false
}

// SyncCustom reconciles the custom workflows with defs: new IDs are added,
// existing custom workflows are replaced keeping their counters, and custom
// workflows missing from defs are removed. Built-in workflows are left alone.
func (s *Store) SyncCustom(defs []*Workflow) (added, updated, removed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[types.WorkflowID]bool, len(defs))
	for _, def := range defs {
		wanted[def.ID] = true
	}

	for _, id := range append([]types.WorkflowID(nil), s.order...) {
		e := s.entries[id]
		if e.wf.Custom && !wanted[id] {
			s.removeLocked(id)
			removed++
		}
	}

	for _, def := range defs {
		wf := *def
		wf.Custom = true
		if existing, ok := s.entries[def.ID]; ok && !existing.wf.Custom {
			slog.Warn("definition shadows built-in workflow, skipped", "workflow_id", def.ID)
			continue
		}
		if s.putCustomLocked(wf) {
			added++
		} else {
			updated++
		}
	}
	return added, updated, removed
}

// recordTrigger bumps the counters of one workflow atomically with respect
// to other evaluations of the same workflow.
func (e *entry) recordTrigger(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wf.TriggerCount++
	e.wf.LastTriggered = &at
}
