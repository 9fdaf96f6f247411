package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tradenest/intake-workflow-backend/internal/httperror"
	"github.com/tradenest/intake-workflow-backend/internal/monitor"
	"github.com/tradenest/intake-workflow-backend/internal/serve/httpjson"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// VerificationHandler exposes the challenge-response and one-shot
// verification endpoints for a session.
type VerificationHandler struct {
	Store          *session.Store
	MonitorService *monitor.MonitorService
}

type ResolveChallengeRequest struct {
	Response string `json:"response"`
}

// Initiate starts a verification for the live value of the kind in the URL.
// For challenge kinds this sends the challenge; for one-shot kinds it
// performs the whole verification.
func (h VerificationHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	s, kind, httpErr := h.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	status, err := s.Coordinator.Initiate(r.Context(), s.Controller.State(), kind)
	if err != nil {
		h.renderVerificationError(w, r, kind, err)
		return
	}

	h.track(kind, status)
	httpjson.Render(w, newSessionResponse(s))
}

// Resolve submits the user's challenge response for a pending challenge.
func (h VerificationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	s, kind, httpErr := h.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	var reqBody ResolveChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).Render(w)
		return
	}

	status, err := s.Coordinator.Resolve(r.Context(), s.Controller.State(), kind, reqBody.Response)
	if err != nil {
		h.renderVerificationError(w, r, kind, err)
		return
	}

	h.track(kind, status)
	httpjson.Render(w, newSessionResponse(s))
}

func (h VerificationHandler) lookup(r *http.Request) (*session.Session, verification.Kind, *httperror.HTTPError) {
	s, httpErr := SessionHandler{Store: h.Store}.lookup(r)
	if httpErr != nil {
		return nil, "", httpErr
	}

	kind, err := verification.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return nil, "", httperror.BadRequest(err.Error(), err, nil)
	}
	return s, kind, nil
}

func (h VerificationHandler) renderVerificationError(w http.ResponseWriter, r *http.Request, kind verification.Kind, err error) {
	var invalidInput *verification.InvalidInputError
	var rejection *verification.RejectionError

	switch {
	case errors.As(err, &invalidInput):
		extras := map[string]any{invalidInput.Field: invalidInput.Message}
		httperror.BadRequest("the provided value is not valid", err, extras).Render(w)
	case errors.Is(err, verification.ErrVerificationInFlight):
		httperror.Conflict("a verification is already in progress for this kind", err, nil).Render(w)
	case errors.Is(err, verification.ErrResendCooldown):
		httperror.TooManyRequests("wait for the resend window before requesting a new code", err, nil).Render(w)
	case errors.Is(err, verification.ErrNoPendingChallenge):
		httperror.BadRequest("there is no pending challenge to resolve", err, nil).Render(w)
	case errors.Is(err, verification.ErrChallengeExpired):
		h.track(kind, verification.Status{State: verification.StateFailed})
		httperror.BadRequest("the challenge has expired, request a new code", err, nil).Render(w)
	case errors.Is(err, verification.ErrUnsupportedKind):
		httperror.BadRequest("this kind cannot be verified", err, nil).Render(w)
	case errors.As(err, &rejection):
		h.track(kind, verification.Status{State: verification.StateFailed})
		httperror.BadRequest(rejection.Reason, err, nil).Render(w)
	default:
		h.track(kind, verification.Status{State: verification.StateFailed})
		httperror.BadGateway("the verification provider could not be reached", err, nil).Render(w)
	}
}

func (h VerificationHandler) track(kind verification.Kind, status verification.Status) {
	if h.MonitorService == nil {
		return
	}
	h.MonitorService.TrackVerification(string(kind), string(status.State))
}
