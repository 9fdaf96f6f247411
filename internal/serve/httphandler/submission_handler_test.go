package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradenest/intake-workflow-backend/internal/message"
	"github.com/tradenest/intake-workflow-backend/internal/pricing"
	"github.com/tradenest/intake-workflow-backend/internal/providers/assetstore"
	"github.com/tradenest/intake-workflow-backend/internal/providers/records"
	"github.com/tradenest/intake-workflow-backend/internal/serve/session"
	"github.com/tradenest/intake-workflow-backend/internal/submission"
	"github.com/tradenest/intake-workflow-backend/internal/uploads"
)

func newSubmissionFixture(t *testing.T) (*submission.Assembler, *records.ClientMock, *assetstore.ClientMock) {
	t.Helper()

	recordsMock := &records.ClientMock{}
	storeMock := &assetstore.ClientMock{}
	messengerMock := &message.MessengerClientMock{}
	messengerMock.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Maybe()

	rule, err := pricing.NewLinearRule("1", "0")
	require.NoError(t, err)

	return &submission.Assembler{
		Records:   recordsMock,
		Uploads:   uploads.NewPipeline(storeMock),
		Messenger: messengerMock,
		Pricing:   rule,
	}, recordsMock, storeMock
}

func expectSuccessfulUploads(storeMock *assetstore.ClientMock) {
	presigned := []assetstore.PresignedUpload{
		{Key: "uploads/a__device_front_image.jpg", UploadURL: "https://store.test/put/1"},
		{Key: "uploads/b__device_back_image.jpg", UploadURL: "https://store.test/put/2"},
		{Key: "uploads/c__gst_bill_image.jpg", UploadURL: "https://store.test/put/3"},
	}
	storeMock.On("Presign", mock.Anything, mock.Anything).Return(presigned, nil).Once()
	storeMock.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
	storeMock.
		On("Finalize", mock.Anything, mock.Anything).
		Return([]string{
			"https://cdn.test/a__device_front_image.jpg",
			"https://cdn.test/b__device_back_image.jpg",
			"https://cdn.test/c__gst_bill_image.jpg",
		}, nil).
		Once()
}

func attachDeviceDocuments(s *session.Session) {
	s.AttachDocument(uploads.Slot{Name: "device_front_image", Content: []byte("front"), ContentType: "image/jpeg"})
	s.AttachDocument(uploads.Slot{Name: "device_back_image", Content: []byte("back"), ContentType: "image/jpeg"})
	s.AttachDocument(uploads.Slot{Name: "gst_bill_image", Content: []byte("bill"), ContentType: "image/jpeg"})
}

func decodeSubmission(t *testing.T, body *json.Decoder) SubmissionResponse {
	t.Helper()

	var respBody SubmissionResponse
	require.NoError(t, body.Decode(&respBody))
	return respBody
}

func Test_SubmissionHandler_Submit(t *testing.T) {
	t.Run("session not found", func(t *testing.T) {
		assembler, _, _ := newSubmissionFixture(t)
		mux := newTestMux(newSessionStore(), assembler)

		rr := doRequest(t, mux, http.MethodPost, "/sessions/unknown/submit", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("not ready to submit", func(t *testing.T) {
		assembler, recordsMock, _ := newSubmissionFixture(t)
		store := newSessionStore()
		mux := newTestMux(store, assembler)

		s, err := store.Create("device-trade-in")
		require.NoError(t, err)

		rr := doRequest(t, mux, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", s.ID), "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		respBody := decodeSubmission(t, json.NewDecoder(rr.Body))
		assert.Equal(t, submission.OutcomeValidationFailed, respBody.Outcome)
		recordsMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("partial upload failure reports the failed slots", func(t *testing.T) {
		assembler, recordsMock, storeMock := newSubmissionFixture(t)
		store := newSessionStore()
		mux := newTestMux(store, assembler)

		s, err := store.Create("device-trade-in")
		require.NoError(t, err)
		walkToTerminal(t, s)
		attachDeviceDocuments(s)

		presigned := []assetstore.PresignedUpload{
			{Key: "uploads/a__device_front_image.jpg", UploadURL: "https://store.test/put/1"},
			{Key: "uploads/b__device_back_image.jpg", UploadURL: "https://store.test/put/2"},
			{Key: "uploads/c__gst_bill_image.jpg", UploadURL: "https://store.test/put/3"},
		}
		storeMock.On("Presign", mock.Anything, mock.Anything).Return(presigned, nil).Once()
		storeMock.On("Upload", mock.Anything, "https://store.test/put/1", mock.Anything, mock.Anything).Return(nil).Once()
		storeMock.On("Upload", mock.Anything, "https://store.test/put/2", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Times(3)
		storeMock.On("Upload", mock.Anything, "https://store.test/put/3", mock.Anything, mock.Anything).Return(nil).Once()

		rr := doRequest(t, mux, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", s.ID), "")
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.JSONEq(t, `{
			"error": "some documents could not be uploaded, try again",
			"extras": {"failed_slots": ["device_back_image"]}
		}`, rr.Body.String())
		recordsMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("created record", func(t *testing.T) {
		assembler, recordsMock, storeMock := newSubmissionFixture(t)
		store := newSessionStore()
		mux := newTestMux(store, assembler)

		s, err := store.Create("device-trade-in")
		require.NoError(t, err)
		walkToTerminal(t, s)
		attachDeviceDocuments(s)
		expectSuccessfulUploads(storeMock)

		recordsMock.On("Create", mock.Anything, mock.Anything).Return(&records.CreatedRecord{ID: "rec-1"}, nil).Once()

		rr := doRequest(t, mux, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", s.ID), "")
		require.Equal(t, http.StatusCreated, rr.Code)

		respBody := decodeSubmission(t, json.NewDecoder(rr.Body))
		assert.Equal(t, submission.OutcomeCreated, respBody.Outcome)
		assert.Equal(t, "rec-1", respBody.ID)

		// A successful submit resets the session in place.
		assert.Equal(t, 1, s.Controller.State().Ordinal())
		assert.Empty(t, s.DocumentSlots())
	})

	t.Run("duplicate record conflict", func(t *testing.T) {
		assembler, recordsMock, storeMock := newSubmissionFixture(t)
		store := newSessionStore()
		mux := newTestMux(store, assembler)

		s, err := store.Create("device-trade-in")
		require.NoError(t, err)
		walkToTerminal(t, s)
		attachDeviceDocuments(s)
		expectSuccessfulUploads(storeMock)

		recordsMock.
			On("Create", mock.Anything, mock.Anything).
			Return(nil, &records.ConflictError{Message: "a record with this national id already exists"}).
			Once()

		rr := doRequest(t, mux, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", s.ID), "")
		assert.Equal(t, http.StatusConflict, rr.Code)

		respBody := decodeSubmission(t, json.NewDecoder(rr.Body))
		assert.Equal(t, submission.OutcomeConflict, respBody.Outcome)
		assert.Equal(t, "a record with this national id already exists", respBody.Message)
		assert.Equal(t, 5, s.Controller.State().Ordinal())
	})

	t.Run("server validation failure routes back", func(t *testing.T) {
		assembler, recordsMock, storeMock := newSubmissionFixture(t)
		store := newSessionStore()
		mux := newTestMux(store, assembler)

		s, err := store.Create("device-trade-in")
		require.NoError(t, err)
		walkToTerminal(t, s)
		attachDeviceDocuments(s)
		expectSuccessfulUploads(storeMock)

		recordsMock.
			On("Create", mock.Anything, mock.Anything).
			Return(nil, &records.ValidationError{
				Message: "invalid record",
				Fields:  map[string]any{"national_id": "checksum failed"},
			}).
			Once()

		rr := doRequest(t, mux, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", s.ID), "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		respBody := decodeSubmission(t, json.NewDecoder(rr.Body))
		assert.Equal(t, submission.OutcomeValidationFailed, respBody.Outcome)
		assert.Equal(t, map[string]any{"national_id": "checksum failed"}, respBody.Fields)
		assert.Equal(t, 2, respBody.RoutedToStage)
	})

	t.Run("records service outage", func(t *testing.T) {
		assembler, recordsMock, storeMock := newSubmissionFixture(t)
		store := newSessionStore()
		mux := newTestMux(store, assembler)

		s, err := store.Create("device-trade-in")
		require.NoError(t, err)
		walkToTerminal(t, s)
		attachDeviceDocuments(s)
		expectSuccessfulUploads(storeMock)

		recordsMock.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		rr := doRequest(t, mux, http.MethodPost, fmt.Sprintf("/sessions/%s/submit", s.ID), "")
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, submission.OutcomeNetworkFailed, decodeSubmission(t, json.NewDecoder(rr.Body)).Outcome)
	})
}
