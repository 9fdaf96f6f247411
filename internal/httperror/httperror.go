package httperror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type HTTPError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	// Extras contains extra information about the error, keyed by field name
	// when the error is a validation error.
	Extras map[string]any `json:"extras,omitempty"`
	// Err is an optional field that can be used to wrap the original error to pass it forward.
	Err error `json:"-"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) Render(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.StatusCode)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		log.Errorf("rendering HTTP error: %v", err)
	}
}

func NewHTTPError(statusCode int, msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" && originalErr != nil && len(extras) == 0 {
		var hErr *HTTPError
		if errors.As(originalErr, &hErr) && (hErr.StatusCode == statusCode) {
			return hErr
		}
	}

	return &HTTPError{
		StatusCode: statusCode,
		Message:    msg,
		Extras:     extras,
		Err:        originalErr,
	}
}

func NotFound(msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "Resource not found."
	}
	return NewHTTPError(http.StatusNotFound, msg, originalErr, extras)
}

func Conflict(msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "The resource already exists."
	}
	return NewHTTPError(http.StatusConflict, msg, originalErr, extras)
}

func BadRequest(msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "The request was invalid in some way."
	}
	return NewHTTPError(http.StatusBadRequest, msg, originalErr, extras)
}

func UnprocessableEntity(msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "The request could not be processed."
	}
	return NewHTTPError(http.StatusUnprocessableEntity, msg, originalErr, extras)
}

func TooManyRequests(msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "Too many requests, try again later."
	}
	return NewHTTPError(http.StatusTooManyRequests, msg, originalErr, extras)
}

func BadGateway(msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "An upstream service could not be reached."
	}
	return NewHTTPError(http.StatusBadGateway, msg, originalErr, extras)
}

func InternalError(ctx context.Context, msg string, originalErr error, extras map[string]any) *HTTPError {
	if msg == "" {
		msg = "An internal error occurred while processing this request."
	}
	if originalErr != nil {
		log.WithContext(ctx).Errorf("%s: %v", msg, originalErr)
	}
	return NewHTTPError(http.StatusInternalServerError, msg, originalErr, extras)
}
