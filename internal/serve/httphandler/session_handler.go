package httphandler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tradenest/intake-workflow-backend/internal/httperror"
	"github.com/tradenest/intake-workflow-backend/internal/serve/httpjson"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/uploads"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// SessionHandler owns the session lifecycle and field editing endpoints.
type SessionHandler struct {
	Store *session.Store
}

type CreateSessionRequest struct {
	Flow string `json:"flow"`
}

type VerificationStatusResponse struct {
	State     verification.State `json:"state"`
	Reason    string             `json:"reason,omitempty"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty"`
	// ResendRemainingSeconds is only populated for the phone kind while the
	// resend cooldown is open.
	ResendRemainingSeconds int `json:"resend_remaining_seconds,omitempty"`
}

type StageResponse struct {
	ID      string `json:"id"`
	Ordinal int    `json:"ordinal"`
	Total   int    `json:"total"`
}

type SessionResponse struct {
	ID            string                                             `json:"id"`
	Flow          string                                             `json:"flow"`
	Stage         StageResponse                                      `json:"stage"`
	Fields        map[string]string                                  `json:"fields"`
	Verifications map[verification.Kind]VerificationStatusResponse   `json:"verifications"`
	CanAdvance    bool                                               `json:"can_advance"`
	FailingFields map[string]any                                     `json:"failing_fields,omitempty"`
}

func newSessionResponse(s *session.Session) SessionResponse {
	state := s.Controller.State()
	stage := state.CurrentStage()
	canAdvance, failing := s.Controller.CanAdvance()

	verifications := make(map[verification.Kind]VerificationStatusResponse)
	for kind, status := range state.Statuses() {
		resp := VerificationStatusResponse{State: status.State, Reason: status.Reason}
		if !status.ExpiresAt.IsZero() {
			expiresAt := status.ExpiresAt
			resp.ExpiresAt = &expiresAt
		}
		if kind == verification.KindPhone && status.IsChallengePending() {
			resp.ResendRemainingSeconds = int(s.Coordinator.ResendCooldown().Remaining().Seconds())
		}
		verifications[kind] = resp
	}

	return SessionResponse{
		ID:   s.ID,
		Flow: state.Flow.Name,
		Stage: StageResponse{
			ID:      stage.ID,
			Ordinal: stage.Ordinal,
			Total:   state.Flow.StageCount(),
		},
		Fields:        state.Fields(),
		Verifications: verifications,
		CanAdvance:    canAdvance,
		FailingFields: failing,
	}
}

func (h SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var reqBody CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).Render(w)
		return
	}

	s, err := h.Store.Create(reqBody.Flow)
	if err != nil {
		httperror.BadRequest(err.Error(), err, nil).Render(w)
		return
	}

	httpjson.RenderStatus(w, http.StatusCreated, newSessionResponse(s))
}

func (h SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, httpErr := h.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	httpjson.Render(w, newSessionResponse(s))
}

type PatchFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// PatchFields writes field values onto the session. Editing a field backing
// a verified entity drops that entity back to unverified.
func (h SessionHandler) PatchFields(w http.ResponseWriter, r *http.Request) {
	s, httpErr := h.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	var reqBody PatchFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).Render(w)
		return
	}
	if len(reqBody.Fields) == 0 {
		httperror.BadRequest("no fields provided", nil, nil).Render(w)
		return
	}

	state := s.Controller.State()
	for name, value := range reqBody.Fields {
		state.SetField(name, value)
	}

	httpjson.Render(w, newSessionResponse(s))
}

type AttachDocumentRequest struct {
	ContentBase64 string `json:"content_base64"`
	ContentType   string `json:"content_type"`
}

// AttachDocument stores the raw content for one logical document slot.
func (h SessionHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	s, httpErr := h.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	name := chi.URLParam(r, "name")
	flow := s.Controller.State().Flow
	if !slices.Contains(flow.DocumentFields, name) {
		httperror.BadRequest("unknown document slot "+name, nil, nil).Render(w)
		return
	}

	var reqBody AttachDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).Render(w)
		return
	}

	content, err := base64.StdEncoding.DecodeString(reqBody.ContentBase64)
	if err != nil || len(content) == 0 {
		httperror.BadRequest("document content must be non-empty base64", err, nil).Render(w)
		return
	}
	if reqBody.ContentType == "" {
		reqBody.ContentType = http.DetectContentType(content)
	}

	s.AttachDocument(uploads.Slot{
		Name:        name,
		Content:     content,
		ContentType: reqBody.ContentType,
	})

	httpjson.Render(w, newSessionResponse(s))
}

// DeleteSession cancels the intake, discarding the session state.
func (h SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(id); err != nil {
		httperror.NotFound("", err, nil).Render(w)
		return
	}

	httpjson.Render(w, map[string]string{"message": "session cancelled"})
}

func (h SessionHandler) lookup(r *http.Request) (*session.Session, *httperror.HTTPError) {
	id := chi.URLParam(r, "id")
	s, err := h.Store.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, httperror.NotFound("", err, nil)
		}
		return nil, httperror.InternalError(r.Context(), "", err, nil)
	}
	return s, nil
}
