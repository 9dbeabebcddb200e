package workflow

import (
	"encoding/json"
	"time"

	"github.com/user/chathub/internal/types"
)

// Workflow pairs one trigger with an ordered, non-empty list of actions.
// TriggerCount and LastTriggered are owned by the Store.
type Workflow struct {
	ID            types.WorkflowID
	Name          string
	Enabled       bool
	Trigger       Trigger
	Actions       []Action
	Custom        bool
	CreatedAt     time.Time
	LastTriggered *time.Time
	TriggerCount  int64
}

type workflowJSON struct {
	Definition
	Enabled       bool       `json:"enabled"`
	Custom        bool       `json:"custom"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastTriggered *time.Time `json:"lastTriggered"`
	TriggerCount  int64      `json:"triggerCount"`
}

// MarshalJSON renders the workflow in its definition shape plus runtime
// counters.
func (w Workflow) MarshalJSON() ([]byte, error) {
	def := w.Definition()
	def.Enabled = nil
	return json.Marshal(workflowJSON{
		Definition:    def,
		Enabled:       w.Enabled,
		Custom:        w.Custom,
		CreatedAt:     w.CreatedAt,
		LastTriggered: w.LastTriggered,
		TriggerCount:  w.TriggerCount,
	})
}

// Definition converts the workflow back into its declarative form.
func (w *Workflow) Definition() Definition {
	enabled := w.Enabled
	trigger := SpecOf(w.Trigger)
	actions := make([]ActionSpec, len(w.Actions))
	for i, a := range w.Actions {
		actions[i] = ActionSpecOf(a)
	}
	return Definition{
		ID:      w.ID,
		Name:    w.Name,
		Enabled: &enabled,
		Trigger: &trigger,
		Actions: actions,
	}
}
