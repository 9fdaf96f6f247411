package workflow

import (
	"errors"
	"fmt"
)

// ErrTerminalStage is returned by Advance at the last stage: there is
// nothing to advance to, submission is the terminal transition.
var ErrTerminalStage = errors.New("already at the terminal stage; submit instead")

// StageInvalidError reports the fields that keep the current stage from
// advancing, keyed by field name.
type StageInvalidError struct {
	StageID string
	Fields  map[string]any
}

func (e *StageInvalidError) Error() string {
	return fmt.Sprintf("stage %q is not complete: %d field(s) failing", e.StageID, len(e.Fields))
}

// Controller is the finite-state stepper over a Flow's stages.
type Controller struct {
	state *State
}

func NewController(flow *Flow) *Controller {
	return &Controller{state: NewState(flow)}
}

func (c *Controller) State() *State {
	return c.state
}

// CanAdvance reports whether every active rule and required verification of
// the current stage holds. The returned map carries the failing fields.
func (c *Controller) CanAdvance() (bool, map[string]any) {
	v := c.state.CurrentStage().Validate(c.state)
	if v.HasErrors() {
		return false, v.Errors
	}
	return true, nil
}

// Advance moves to the next stage. A rejected advance never mutates the
// ordinal; it reports the failing fields instead. At the terminal stage it
// returns ErrTerminalStage without mutating anything.
func (c *Controller) Advance() error {
	ok, failing := c.CanAdvance()
	if !ok {
		return &StageInvalidError{StageID: c.state.CurrentStage().ID, Fields: failing}
	}

	if c.AtTerminalStage() {
		return ErrTerminalStage
	}

	c.state.setOrdinal(c.state.Ordinal() + 1)
	if onEnter := c.state.CurrentStage().OnEnter; onEnter != nil {
		onEnter(c.state)
	}
	return nil
}

// Retreat moves back one stage. It never re-validates: the user may always
// go back to inspect or fix earlier answers. Below stage 1 it is a no-op.
func (c *Controller) Retreat() {
	if ordinal := c.state.Ordinal(); ordinal > 1 {
		c.state.setOrdinal(ordinal - 1)
	}
}

func (c *Controller) AtTerminalStage() bool {
	return c.state.Ordinal() == c.state.Flow.StageCount()
}

// ReadyToSubmit reports whether the terminal stage is reached and valid.
func (c *Controller) ReadyToSubmit() (bool, map[string]any) {
	if !c.AtTerminalStage() {
		return false, map[string]any{"stage": "the final stage has not been reached"}
	}
	return c.CanAdvance()
}

// RouteToStage jumps directly to an ordinal, used to send the user back to
// the stage owning a server-reported field error. Like Retreat it never
// re-validates.
func (c *Controller) RouteToStage(ordinal int) error {
	if ordinal < 1 || ordinal > c.state.Flow.StageCount() {
		return fmt.Errorf("stage ordinal %d out of range", ordinal)
	}
	c.state.setOrdinal(ordinal)
	return nil
}

// Reset returns the controller to the first stage with a blank state.
func (c *Controller) Reset() {
	c.state.Reset()
}
