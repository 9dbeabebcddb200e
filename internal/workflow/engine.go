package workflow

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/user/chathub/internal/types"
)

// Outcome is the result of running one enabled workflow against a message.
// A failed workflow carries Err and contributes no action results.
type Outcome struct {
	WorkflowID   types.WorkflowID        `json:"workflowId"`
	WorkflowName string                  `json:"workflowName"`
	Triggered    bool                    `json:"triggered"`
	Results      []TriggeredActionResult `json:"results,omitempty"`
	Err          error                   `json:"-"`
}

// MarshalJSON renders Err as an "error" string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	var msg string
	if o.Err != nil {
		msg = o.Err.Error()
	}
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(o), msg})
}

// Failed reports whether evaluating or executing the workflow went wrong.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Evaluation collects the outcomes of one message, in Store order.
type Evaluation struct {
	Outcomes []Outcome
}

// Results flattens the action results of all successful outcomes.
func (ev *Evaluation) Results() []TriggeredActionResult {
	out := []TriggeredActionResult{}
	for _, o := range ev.Outcomes {
		if !o.Failed() {
			out = append(out, o.Results...)
		}
	}
	return out
}

// Failures returns the outcomes that carry an error.
func (ev *Evaluation) Failures() []Outcome {
	var out []Outcome
	for _, o := range ev.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// Triggered returns the outcomes whose trigger fired without error.
func (ev *Evaluation) Triggered() []Outcome {
	var out []Outcome
	for _, o := range ev.Outcomes {
		if o.Triggered && !o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used by time-based triggers and
// trigger timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine evaluates the Store's workflows against incoming messages.
type Engine struct {
	store   *Store
	enabled atomic.Bool
	now     func() time.Time
}

// NewEngine creates an enabled Engine over store.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.enabled.Store(true)
	return e
}

// Store returns the workflow store the engine reads.
func (e *Engine) Store() *Store {
	return e.store
}

// SetEnabled switches the engine on or off as a whole.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
}

// Enabled reports whether the engine processes messages.
func (e *Engine) Enabled() bool {
	return e.enabled.Load()
}

// ProcessMessage runs every enabled workflow and returns the action results
// in Store order. A disabled engine returns an empty list.
func (e *Engine) ProcessMessage(msg *types.Message, wc Context) []TriggeredActionResult {
	return e.Evaluate(msg, wc).Results()
}

// Evaluate runs every enabled workflow against msg, one at a time and in
// Store order, and reports an Outcome for each. A failing workflow never
// stops the ones after it.
func (e *Engine) Evaluate(msg *types.Message, wc Context) *Evaluation {
	ev := &Evaluation{}
	if !e.Enabled() {
		return ev
	}

	for _, ent := range e.store.ordered() {
		wf := ent.snapshot()
		if !wf.Enabled {
			continue
		}
		outcome := e.run(ent, wf, msg, wc)
		if outcome.Failed() {
			slog.Warn("workflow failed", "workflow_id", string(wf.ID), "message_id", string(msg.ID), "error", outcome.Err)
		}
		ev.Outcomes = append(ev.Outcomes, outcome)
	}
	return ev
}

func (e *Engine) run(ent *entry, wf *Workflow, msg *types.Message, wc Context) (outcome Outcome) {
	outcome = Outcome{WorkflowID: wf.ID, WorkflowName: wf.Name}
	defer func() {
		if r := recover(); r != nil {
			outcome.Results = nil
			outcome.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	if wf.Trigger == nil {
		outcome.Err = fmt.Errorf("workflow has no trigger")
		return outcome
	}
	now := e.now()
	matched, err := wf.Trigger.Matches(msg, wc, now)
	if err != nil {
		outcome.Err = fmt.Errorf("evaluate %s trigger: %w", wf.Trigger.Kind(), err)
		return outcome
	}
	if !matched {
		return outcome
	}

	outcome.Triggered = true
	ent.recordTrigger(now)

	for _, action := range wf.Actions {
		result, ok := action.Execute(msg, wc)
		if !ok {
			continue
		}
		outcome.Results = append(outcome.Results, TriggeredActionResult{
			WorkflowID:   wf.ID,
			WorkflowName: wf.Name,
			Action:       action.Kind(),
			Result:       result,
		})
	}
	return outcome
}
