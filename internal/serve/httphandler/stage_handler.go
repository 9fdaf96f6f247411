package httphandler

import (
	"errors"
	"net/http"

	"github.com/tradenest/intake-workflow-backend/internal/httperror"
	"github.com/tradenest/intake-workflow-backend/internal/serve/httpjson"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/workflow"
)

// StageHandler exposes the stage transitions of the stepper.
type StageHandler struct {
	Store *session.Store
}

// Advance moves the session forward one stage. A rejected advance reports
// the failing fields and leaves the stage untouched.
func (h StageHandler) Advance(w http.ResponseWriter, r *http.Request) {
	s, httpErr := SessionHandler{Store: h.Store}.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	err := s.Controller.Advance()
	var stageInvalidErr *workflow.StageInvalidError
	switch {
	case errors.As(err, &stageInvalidErr):
		httperror.BadRequest("the current stage is not complete", err, stageInvalidErr.Fields).Render(w)
		return
	case errors.Is(err, workflow.ErrTerminalStage):
		httperror.Conflict("already at the final stage, submit the record instead", err, nil).Render(w)
		return
	case err != nil:
		httperror.InternalError(r.Context(), "", err, nil).Render(w)
		return
	}

	httpjson.Render(w, newSessionResponse(s))
}

// Retreat moves the session back one stage without re-validating.
func (h StageHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	s, httpErr := SessionHandler{Store: h.Store}.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	s.Controller.Retreat()
	httpjson.Render(w, newSessionResponse(s))
}
