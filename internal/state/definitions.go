// internal/state/definitions.go
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

// definitionsFile is the on-disk shape of the workflow definitions file.
type definitionsFile struct {
	Workflows []*workflow.Definition `yaml:"workflows"`
}

// DefinitionStore is a YAML-file-backed store of custom workflow
// definitions.
type DefinitionStore struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewDefinitionStore creates a store for the file at path. The file is
// created on first write.
func NewDefinitionStore(path string) *DefinitionStore {
	return &DefinitionStore{path: path, now: time.Now}
}

// Path returns the file path used by this store.
func (s *DefinitionStore) Path() string {
	return s.path
}

// List returns all definitions. Returns an empty slice if the file doesn't exist.
func (s *DefinitionStore) List() ([]*workflow.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs, err := s.load()
	if err != nil {
		return nil, err
	}
	if defs == nil {
		return []*workflow.Definition{}, nil
	}
	return defs, nil
}

// Get finds a definition by ID.
func (s *DefinitionStore) Get(id types.WorkflowID) (*workflow.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if def.ID == id {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
}

// Add validates and appends a definition, assigning a "custom-{millis}" ID
// when it has none. Returns the stored ID.
func (s *DefinitionStore) Add(def *workflow.Definition) (types.WorkflowID, error) {
	if errs := workflow.Validate(def); len(errs) > 0 {
		return "", &workflow.ValidationError{Errors: errs}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.load()
	if err != nil {
		return "", err
	}

	if def.ID == "" {
		def.ID = types.WorkflowID(fmt.Sprintf("custom-%d", s.now().UnixMilli()))
	}
	if workflow.IsBuiltin(def.ID) {
		return "", fmt.Errorf("%w: %s is a built-in workflow", workflow.ErrConflict, def.ID)
	}
	for _, existing := range defs {
		if existing.ID == def.ID {
			return "", fmt.Errorf("workflow already exists: %s", def.ID)
		}
	}

	defs = append(defs, def)
	return def.ID, s.save(defs)
}

// Remove deletes a definition by ID.
func (s *DefinitionStore) Remove(id types.WorkflowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.load()
	if err != nil {
		return err
	}
	for i, def := range defs {
		if def.ID == id {
			defs = append(defs[:i], defs[i+1:]...)
			return s.save(defs)
		}
	}
	return fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
}

// SetEnabled toggles the enabled flag of a definition.
func (s *DefinitionStore) SetEnabled(id types.WorkflowID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs, err := s.load()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if def.ID == id {
			def.Enabled = &enabled
			return s.save(defs)
		}
	}
	return fmt.Errorf("%w: %s", workflow.ErrNotFound, id)
}

// Workflows builds every definition in the file. Definitions that fail to
// build are skipped and reported in errs, keyed by position.
func (s *DefinitionStore) Workflows() (wfs []*workflow.Workflow, errs []error, err error) {
	defs, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	for i, def := range defs {
		if def.ID == "" {
			errs = append(errs, fmt.Errorf("workflow %d (%q): id is required", i, def.Name))
			continue
		}
		wf, err := def.Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("workflow %s: %w", def.ID, err))
			continue
		}
		wf.Custom = true
		wfs = append(wfs, wf)
	}
	return wfs, errs, nil
}

// load reads the YAML file. Returns nil if the file doesn't exist.
func (s *DefinitionStore) load() ([]*workflow.Definition, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workflows file: %w", err)
	}

	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal workflows: %w", err)
	}
	return file.Workflows, nil
}

// save writes the definitions to disk using atomic write (temp file + rename).
func (s *DefinitionStore) save(defs []*workflow.Definition) error {
	data, err := yaml.Marshal(definitionsFile{Workflows: defs})
	if err != nil {
		return fmt.Errorf("marshal workflows: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workflows dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp workflows file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp workflows file: %w", err)
	}
	return nil
}
