package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("workflow not found")
	ErrInvalid  = errors.New("invalid workflow")
	ErrConflict = errors.New("workflow already exists")
)

// ValidationError lists every rule a workflow candidate violates.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid workflow: " + strings.Join(e.Errors, "; ")
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalid).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validate returns the violated rules for d, empty when d is acceptable.
// Only the presence and kind of the trigger are checked: a keyword_match
// trigger with no keywords is accepted and simply never fires.
func Validate(d *Definition) []string {
	errs := []string{}

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, "Workflow name is required")
	}

	switch {
	case d.Trigger == nil || d.Trigger.Type == "":
		errs = append(errs, "Workflow trigger is required")
	default:
		if _, err := d.Trigger.Build(); err != nil {
			errs = append(errs, fmt.Sprintf("Unknown trigger type: %s", d.Trigger.Type))
		}
	}

	if len(d.Actions) == 0 {
		errs = append(errs, "At least one action is required")
	}
	for _, a := range d.Actions {
		if _, err := a.Build(); err != nil {
			errs = append(errs, fmt.Sprintf("Unknown action type: %s", a.Type))
		}
	}

	return errs
}
