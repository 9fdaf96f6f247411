package workflow

import (
	"fmt"

	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// ResetRule clears sibling fields whenever a driving field changes value.
// Used for selector fields (payment method) whose branches must never leak
// stale values from a previously chosen branch into the submission.
type ResetRule struct {
	Field  string
	Clears []string
}

// Flow is an immutable intake wizard definition: ordered stages, the mapping
// from verifiable entity kinds to the fields that hold their values, and the
// ordered list of logical document slots.
type Flow struct {
	Name   string
	Stages []Stage
	// EntityFields maps each verification kind used by the flow to the
	// field(s) whose joined value is the entity being verified. Bank account
	// verification spans two fields (account number and IFSC): editing
	// either one invalidates the cached status.
	EntityFields map[verification.Kind][]string
	ResetRules   []ResetRule
	// DocumentFields is the fixed, ordered list of logical upload slot names.
	// Order matters: the upload pipeline preserves it when requesting slots.
	DocumentFields []string
}

func (f *Flow) StageCount() int {
	return len(f.Stages)
}

func (f *Flow) StageAt(ordinal int) (Stage, error) {
	if ordinal < 1 || ordinal > len(f.Stages) {
		return Stage{}, fmt.Errorf("stage ordinal %d out of range [1, %d]", ordinal, len(f.Stages))
	}
	return f.Stages[ordinal-1], nil
}

// StageForField returns the ordinal of the first stage that owns a rule for
// the given field. Used to route server-reported field errors back to the
// stage the user must fix.
func (f *Flow) StageForField(field string) (int, bool) {
	for _, stage := range f.Stages {
		for _, rule := range stage.Rules {
			if rule.Field == field {
				return stage.Ordinal, true
			}
		}
	}
	return 0, false
}
