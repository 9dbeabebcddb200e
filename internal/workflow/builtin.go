package workflow

import "github.com/user/chathub/internal/types"

// Builtins returns the workflows every Store starts with.
func Builtins() []*Workflow {
	return []*Workflow{
		{
			ID:      "out-of-office",
			Name:    "Out of Office Auto-Reply",
			Enabled: false,
			Trigger: IncomingMessage{},
			Actions: []Action{
				AutoReply{Message: "Thank you for your message. I am currently out of office and will respond when I return."},
			},
		},
		{
			ID:      "meeting-request",
			Name:    "Meeting Request Handler",
			Enabled: true,
			Trigger: KeywordMatch{Keywords: []string{"meeting", "schedule", "calendar", "appointment"}},
			Actions: []Action{
				SuggestReply{Suggestions: []string{
					"Let me check my calendar and get back to you",
					"What time works best for you?",
					"I'll send you a calendar invite",
				}},
			},
		},
		{
			ID:      "urgent-notification",
			Name:    "Urgent Message Alert",
			Enabled: true,
			Trigger: KeywordMatch{Keywords: []string{"urgent", "emergency", "asap", "critical"}},
			Actions: []Action{
				Notification{Priority: "high", Sound: true},
			},
		},
		{
			ID:      "project-routing",
			Name:    "Project Update Routing",
			Enabled: true,
			Trigger: KeywordMatch{Keywords: []string{"project", "update", "status", "progress"}},
			Actions: []Action{
				Categorize{Category: "project-updates"},
			},
		},
	}
}

// IsBuiltin reports whether id belongs to one of the Builtins.
func IsBuiltin(id types.WorkflowID) bool {
	for _, wf := range Builtins() {
		if wf.ID == id {
			return true
		}
	}
	return false
}
