package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Store().List())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Store().Stats())
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.engine.Store().Get(types.WorkflowID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var def workflow.Definition
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if errs := workflow.Validate(&def); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	if def.ID != "" {
		if _, exists := s.engine.Store().Get(def.ID); exists {
			writeError(w, http.StatusConflict, "workflow already exists: "+string(def.ID))
			return
		}
	}

	// Persisting first fixes the ID, so the hot reload of the file matches
	// the workflow added below instead of duplicating it.
	if s.definitions != nil {
		if _, err := s.definitions.Add(&def); err != nil {
			slog.Error("persist workflow failed", "name", def.Name, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	id, err := s.engine.Store().CreateFromDefinition(&def)
	if err != nil {
		var verr *workflow.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Errors})
		case errors.Is(err, workflow.ErrConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	wf, _ := s.engine.Store().Get(id)
	slog.Info("workflow created", "workflow_id", id, "name", def.Name)
	writeJSON(w, http.StatusCreated, wf)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := types.WorkflowID(r.PathValue("id"))
	if !s.engine.Store().Remove(id) {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	if s.definitions != nil {
		if err := s.definitions.Remove(id); err != nil && !errors.Is(err, workflow.ErrNotFound) {
			slog.Error("remove persisted workflow failed", "workflow_id", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleWorkflow(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := types.WorkflowID(r.PathValue("id"))
		if !s.engine.Store().Toggle(id, enabled) {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}
		if s.definitions != nil {
			if err := s.definitions.SetEnabled(id, enabled); err != nil && !errors.Is(err, workflow.ErrNotFound) {
				slog.Error("persist workflow toggle failed", "workflow_id", id, "error", err)
			}
		}
		wf, _ := s.engine.Store().Get(id)
		writeJSON(w, http.StatusOK, wf)
	}
}

func (s *Server) handleEngine(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.SetEnabled(enabled)
		slog.Info("workflow engine toggled", "enabled", enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.engine.Enabled()})
	}
}
