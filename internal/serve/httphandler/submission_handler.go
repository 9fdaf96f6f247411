package httphandler

import (
	"errors"
	"net/http"

	"github.com/tradenest/intake-workflow-backend/internal/httperror"
	"github.com/tradenest/intake-workflow-backend/internal/monitor"
	"github.com/tradenest/intake-workflow-backend/internal/serve/httpjson"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/submission"
	"github.com/tradenest/intake-workflow-backend/internal/uploads"
)

// SubmissionHandler exposes the terminal transition: upload the attached
// documents, assemble the record, submit it, and classify the outcome.
type SubmissionHandler struct {
	Store          *session.Store
	Assembler      *submission.Assembler
	MonitorService *monitor.MonitorService
}

type SubmissionResponse struct {
	Outcome           submission.Outcome `json:"outcome"`
	ID                string             `json:"id,omitempty"`
	Message           string             `json:"message,omitempty"`
	Fields            map[string]any     `json:"fields,omitempty"`
	RoutedToStage     int                `json:"routed_to_stage,omitempty"`
	NotificationError string             `json:"notification_error,omitempty"`
}

func (h SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, httpErr := SessionHandler{Store: h.Store}.lookup(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	result, err := h.Assembler.Submit(r.Context(), s.Controller, s.DocumentSlots(), s.Reset)
	if err != nil {
		var partialErr *uploads.PartialUploadError
		if errors.As(err, &partialErr) {
			if h.MonitorService != nil {
				h.MonitorService.TrackUploadFailure()
			}
			extras := map[string]any{"failed_slots": partialErr.FailedSlots}
			httperror.BadGateway("some documents could not be uploaded, try again", err, extras).Render(w)
			return
		}
		httperror.BadGateway("the documents could not be uploaded, try again", err, nil).Render(w)
		return
	}

	if h.MonitorService != nil {
		h.MonitorService.TrackSubmission(string(result.Outcome))
	}

	respBody := SubmissionResponse{
		Outcome:           result.Outcome,
		ID:                result.ID,
		Message:           result.Message,
		Fields:            result.Fields,
		RoutedToStage:     result.RoutedToStage,
		NotificationError: result.NotificationError,
	}

	httpjson.RenderStatus(w, statusForOutcome(result.Outcome), respBody)
}

func statusForOutcome(outcome submission.Outcome) int {
	switch outcome {
	case submission.OutcomeCreated:
		return http.StatusCreated
	case submission.OutcomeConflict:
		return http.StatusConflict
	case submission.OutcomeValidationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
