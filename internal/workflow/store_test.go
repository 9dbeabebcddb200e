package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/user/chathub/internal/types"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func keywordWorkflow(id, name string, keywords ...string) *Workflow {
	return &Workflow{
		ID:      types.WorkflowID(id),
		Name:    name,
		Enabled: true,
		Trigger: KeywordMatch{Keywords: keywords},
		Actions: []Action{Categorize{Category: name}},
	}
}

func TestStoreInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Add(keywordWorkflow("c", "C"))
	s.Add(keywordWorkflow("a", "A"))
	s.Add(keywordWorkflow("b", "B"))

	list := s.List()
	want := []types.WorkflowID{"c", "a", "b"}
	if len(list) != len(want) {
		t.Fatalf("expected %d workflows, got %d", len(want), len(list))
	}
	for i, wf := range list {
		if wf.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], wf.ID)
		}
	}

	// Replacing keeps the original position.
	s.Add(keywordWorkflow("a", "A2"))
	list = s.List()
	if list[1].ID != "a" || list[1].Name != "A2" {
		t.Errorf("expected replaced workflow in place, got %+v", list[1])
	}
}

func TestStoreRemoveAndToggle(t *testing.T) {
	s := NewStore()
	s.Add(keywordWorkflow("a", "A"))

	if !s.Toggle("a", false) {
		t.Fatal("expected toggle to find workflow")
	}
	wf, _ := s.Get("a")
	if wf.Enabled {
		t.Error("expected workflow disabled")
	}
	if s.Toggle("missing", true) {
		t.Error("expected toggle of unknown id to report false")
	}

	if !s.Remove("a") {
		t.Error("expected remove to report true")
	}
	if s.Remove("a") {
		t.Error("expected second remove to report false")
	}
	if _, ok := s.Get("a"); ok {
		t.Error("expected workflow gone")
	}
}

func TestStoreSnapshotsAreCopies(t *testing.T) {
	s := NewStore()
	s.Add(keywordWorkflow("a", "A"))

	wf, _ := s.Get("a")
	wf.Name = "mutated"
	wf.TriggerCount = 99

	again, _ := s.Get("a")
	if again.Name != "A" || again.TriggerCount != 0 {
		t.Errorf("expected stored workflow untouched, got %+v", again)
	}
}

func TestStoreStats(t *testing.T) {
	s := NewStore()
	s.Add(keywordWorkflow("a", "Alpha", "x"))
	s.Add(keywordWorkflow("b", "Beta", "x"))
	s.Add(keywordWorkflow("c", "Gamma", "y"))
	s.Toggle("c", false)

	stats := s.Stats()
	if stats.TotalWorkflows != 3 || stats.EnabledWorkflows != 2 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if stats.MostTriggered != "" {
		t.Errorf("expected no most-triggered before any trigger, got %q", stats.MostTriggered)
	}

	e := NewEngine(s)
	e.ProcessMessage(&types.Message{Content: "x"}, Context{})
	stats = s.Stats()
	if stats.TotalTriggers != 2 {
		t.Errorf("expected 2 total triggers, got %d", stats.TotalTriggers)
	}
	if stats.MostTriggered != "Alpha" {
		t.Errorf("expected earliest workflow to win tie, got %q", stats.MostTriggered)
	}

	s.Toggle("a", false)
	e.ProcessMessage(&types.Message{Content: "x"}, Context{})
	if got := s.Stats().MostTriggered; got != "Beta" {
		t.Errorf("expected Beta, got %q", got)
	}
}

func TestStoreCreateCustom(t *testing.T) {
	s := NewStore()
	s.now = fixedClock(time.UnixMilli(1700000000000))

	id, err := s.CreateCustom("Refunds", KeywordMatch{Keywords: []string{"refund"}}, []Action{Forward{Destination: "billing"}})
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	if id != "custom-1700000000000" {
		t.Errorf("unexpected id %s", id)
	}

	wf, ok := s.Get(id)
	if !ok {
		t.Fatal("expected workflow stored")
	}
	if !wf.Enabled || !wf.Custom || wf.TriggerCount != 0 || wf.LastTriggered != nil {
		t.Errorf("unexpected new workflow state %+v", wf)
	}

	// Same millisecond gets a suffix.
	id2, err := s.CreateCustom("Refunds", KeywordMatch{Keywords: []string{"refund"}}, []Action{Forward{Destination: "billing"}})
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	if id2 == id {
		t.Error("expected distinct id for second workflow")
	}
}

func TestStoreCreateCustomRejectsInvalid(t *testing.T) {
	s := NewStore()
	_, err := s.CreateCustom("", nil, nil)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Errors) != 3 {
		t.Errorf("expected three validation errors, got %v", err)
	}
	if len(s.List()) != 0 {
		t.Error("expected nothing stored")
	}
}

func TestStoreCreateFromDefinition(t *testing.T) {
	s := NewStore()
	disabled := false
	id, err := s.CreateFromDefinition(&Definition{
		ID:      "night",
		Name:    "Night owl",
		Enabled: &disabled,
		Trigger: &TriggerSpec{Type: "time_based", StartHour: 0, EndHour: 5},
		Actions: []ActionSpec{{Type: "notification"}},
	})
	if err != nil {
		t.Fatalf("CreateFromDefinition: %v", err)
	}
	wf, _ := s.Get(id)
	if wf.Enabled || !wf.Custom {
		t.Errorf("expected disabled custom workflow, got %+v", wf)
	}
}

func TestStoreCreateFromDefinitionKeepsBuiltins(t *testing.T) {
	s := NewStoreWithBuiltins()
	e := NewEngine(s)
	e.ProcessMessage(&types.Message{ID: "m1", Content: "urgent please"}, Context{})

	_, err := s.CreateFromDefinition(&Definition{
		ID:      "urgent-notification",
		Name:    "Hijack",
		Trigger: &TriggerSpec{Type: "incoming_message"},
		Actions: []ActionSpec{{Type: "notification"}},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	wf, _ := s.Get("urgent-notification")
	if wf.Custom || wf.Name != "Urgent Message Alert" || wf.TriggerCount != 1 {
		t.Errorf("built-in was modified: %+v", wf)
	}
}

func TestStoreCreateFromDefinitionReplacesCustom(t *testing.T) {
	s := NewStore()
	def := &Definition{
		ID:      "vip",
		Name:    "VIP",
		Trigger: &TriggerSpec{Type: "sender_match", Senders: []string{"ceo"}},
		Actions: []ActionSpec{{Type: "notification"}},
	}
	if _, err := s.CreateFromDefinition(def); err != nil {
		t.Fatalf("CreateFromDefinition: %v", err)
	}
	NewEngine(s).ProcessMessage(&types.Message{ID: "m1", Sender: "ceo", Content: "hi"}, Context{})

	def.Name = "VIP sender"
	if _, err := s.CreateFromDefinition(def); err != nil {
		t.Fatalf("second CreateFromDefinition: %v", err)
	}
	wf, _ := s.Get("vip")
	if wf.Name != "VIP sender" || wf.TriggerCount != 1 {
		t.Errorf("expected renamed workflow with count kept, got %+v", wf)
	}
	if len(s.List()) != 1 {
		t.Errorf("expected one workflow, got %d", len(s.List()))
	}
}

func TestStoreSyncCustom(t *testing.T) {
	s := NewStoreWithBuiltins()
	s.Add(&Workflow{ID: "keep", Name: "Keep", Enabled: true, Custom: true, Trigger: IncomingMessage{}, Actions: []Action{Notification{}}})
	s.Add(&Workflow{ID: "drop", Name: "Drop", Enabled: true, Custom: true, Trigger: IncomingMessage{}, Actions: []Action{Notification{}}})

	NewEngine(s).ProcessMessage(&types.Message{Content: "hi"}, Context{})

	added, updated, removed := s.SyncCustom([]*Workflow{
		{ID: "keep", Name: "Keep v2", Enabled: true, Trigger: IncomingMessage{}, Actions: []Action{Notification{Priority: "low"}}},
		{ID: "new", Name: "New", Enabled: true, Trigger: IncomingMessage{}, Actions: []Action{Notification{}}},
		{ID: "urgent-notification", Name: "Shadow", Enabled: true, Trigger: IncomingMessage{}, Actions: []Action{Notification{}}},
	})
	if added != 1 || updated != 1 || removed != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", added, updated, removed)
	}

	keep, _ := s.Get("keep")
	if keep.Name != "Keep v2" || keep.TriggerCount != 1 {
		t.Errorf("expected updated workflow with preserved counter, got %+v", keep)
	}
	if _, ok := s.Get("drop"); ok {
		t.Error("expected dropped workflow removed")
	}
	builtin, _ := s.Get("urgent-notification")
	if builtin.Name != "Urgent Message Alert" {
		t.Errorf("expected built-in untouched, got %q", builtin.Name)
	}
}
