package workflow

import (
	"github.com/tradenest/intake-workflow-backend/internal/validators"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// VerificationRule requires an entity kind to be in verified status before
// the stage can advance. Like field rules, it may be conditional on a
// sibling field value.
type VerificationRule struct {
	Kind      verification.Kind
	DependsOn *Dependency
}

func (r VerificationRule) Active(fields map[string]string) bool {
	if r.DependsOn == nil {
		return true
	}
	return fields[r.DependsOn.Field] == r.DependsOn.MatchValue
}

// Stage is one step of the intake wizard. Stages are immutable and defined
// at startup as part of a Flow.
type Stage struct {
	ID      string
	Ordinal int
	Rules   []FieldRule
	// Verifications lists the entity kinds that must be in verified status
	// before this stage can be advanced past.
	Verifications []VerificationRule
	// OnEnter optionally seeds or resets values when the stage is entered.
	OnEnter func(state *State)
}

// Validate runs every active rule of the stage against the current field
// values and the required verifications against the live statuses.
func (st Stage) Validate(state *State) *validators.Validator {
	v := validators.NewValidator()
	fields := state.Fields()

	for _, rule := range st.Rules {
		if !rule.Active(fields) {
			continue
		}
		v.CheckError(rule.Check(fields), rule.Field, "")
	}

	for _, rule := range st.Verifications {
		if !rule.Active(fields) {
			continue
		}
		if entityFields := state.Flow.EntityFields[rule.Kind]; len(entityFields) > 0 {
			v.Check(state.Status(rule.Kind).IsVerified(), entityFields[0], "this value must be verified before continuing")
		}
	}

	return v
}
