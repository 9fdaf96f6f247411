package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradenest/intake-workflow-backend/internal/message"
	"github.com/tradenest/intake-workflow-backend/internal/pricing"
	"github.com/tradenest/intake-workflow-backend/internal/providers/assetstore"
	"github.com/tradenest/intake-workflow-backend/internal/providers/records"
	"github.com/tradenest/intake-workflow-backend/internal/uploads"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
	"github.com/tradenest/intake-workflow-backend/internal/workflow"
)

// readyController builds a device trade-in controller walked to the terminal
// stage with every active rule satisfied.
func readyController(t *testing.T) *workflow.Controller {
	t.Helper()

	ctrl := workflow.NewController(workflow.DeviceTradeInFlow())
	state := ctrl.State()

	state.SetField("customer_name", "Asha Rao")
	state.SetField("phone_number", "+919876543210")
	state.SetStatus(verification.KindPhone, verification.Verified("+919876543210", verification.PhonePayload{PhoneNumber: "+919876543210"}))
	require.NoError(t, ctrl.Advance())

	state.SetField("national_id", "123456789012")
	state.SetStatus(verification.KindNationalID, verification.Verified("123456789012", verification.NationalIDPayload{FullName: "Asha Rao", DateOfBirth: "1993-04-12"}))
	require.NoError(t, ctrl.Advance())

	state.SetField("device_brand", "Acme")
	state.SetField("device_model", "A1")
	state.SetField("imei", "356938035643809")
	state.SetField("device_age", "under_11_months")
	state.SetField("has_gst_bill", "yes")
	state.SetField("gst_bill_number", "GST-123")
	state.SetField("box_imei_match", "yes")
	state.SetField("final_amount", "12000")
	require.NoError(t, ctrl.Advance())

	state.SetField("bank_account_number", "123456789012")
	state.SetField("ifsc", "HDFC0000001")
	state.SetStatus(verification.KindBankAccount, verification.Verified("123456789012|HDFC0000001", verification.BankAccountPayload{AccountExists: true, FullName: "ASHA RAO"}))
	require.NoError(t, ctrl.Advance())

	state.SetField("device_front_image", "attached")
	state.SetField("device_back_image", "attached")
	state.SetField("gst_bill_image", "attached")

	return ctrl
}

func deviceSlots() []uploads.Slot {
	return []uploads.Slot{
		{Name: "device_front_image", Content: []byte("front"), ContentType: "image/jpeg"},
		{Name: "device_back_image", Content: []byte("back"), ContentType: "image/jpeg"},
		{Name: "gst_bill_image", Content: []byte("bill"), ContentType: "image/jpeg"},
	}
}

func newAssemblerWithMocks(t *testing.T) (*Assembler, *records.ClientMock, *assetstore.ClientMock, *message.MessengerClientMock) {
	t.Helper()

	recordsMock := &records.ClientMock{}
	storeMock := &assetstore.ClientMock{}
	messengerMock := &message.MessengerClientMock{}

	rule, err := pricing.NewLinearRule("0.9", "-100")
	require.NoError(t, err)

	return &Assembler{
		Records:   recordsMock,
		Uploads:   uploads.NewPipeline(storeMock),
		Messenger: messengerMock,
		Pricing:   rule,
	}, recordsMock, storeMock, messengerMock
}

func expectUploads(storeMock *assetstore.ClientMock, ctx context.Context) {
	presigned := []assetstore.PresignedUpload{
		{Key: "uploads/a__device_front_image.jpg", UploadURL: "https://store.test/put/1"},
		{Key: "uploads/b__device_back_image.jpg", UploadURL: "https://store.test/put/2"},
		{Key: "uploads/c__gst_bill_image.jpg", UploadURL: "https://store.test/put/3"},
	}
	storeMock.On("Presign", ctx, mock.Anything).Return(presigned, nil).Once()
	storeMock.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
	storeMock.
		On("Finalize", ctx, mock.Anything).
		Return([]string{
			"https://cdn.test/a__device_front_image.jpg",
			"https://cdn.test/b__device_back_image.jpg",
			"https://cdn.test/c__gst_bill_image.jpg",
		}, nil).
		Once()
}

func Test_Assembler_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("not ready to submit", func(t *testing.T) {
		assembler, recordsMock, _, _ := newAssemblerWithMocks(t)
		ctrl := workflow.NewController(workflow.DeviceTradeInFlow())

		result, err := assembler.Submit(ctx, ctrl, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeValidationFailed, result.Outcome)
		assert.Contains(t, result.Fields, "stage")
		recordsMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("partial upload failure aborts before the create call", func(t *testing.T) {
		assembler, recordsMock, storeMock, _ := newAssemblerWithMocks(t)
		ctrl := readyController(t)

		presigned := []assetstore.PresignedUpload{
			{Key: "uploads/a__device_front_image.jpg", UploadURL: "https://store.test/put/1"},
			{Key: "uploads/b__device_back_image.jpg", UploadURL: "https://store.test/put/2"},
			{Key: "uploads/c__gst_bill_image.jpg", UploadURL: "https://store.test/put/3"},
		}
		storeMock.On("Presign", ctx, mock.Anything).Return(presigned, nil).Once()
		storeMock.On("Upload", ctx, "https://store.test/put/1", mock.Anything, mock.Anything).Return(nil).Once()
		storeMock.On("Upload", ctx, "https://store.test/put/2", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Times(3)
		storeMock.On("Upload", ctx, "https://store.test/put/3", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := assembler.Submit(ctx, ctrl, deviceSlots(), nil)

		var partialErr *uploads.PartialUploadError
		require.ErrorAs(t, err, &partialErr)
		assert.Equal(t, []string{"device_back_image"}, partialErr.FailedSlots)
		recordsMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		// The session survives a failed submit attempt.
		assert.Equal(t, 5, ctrl.State().Ordinal())
	})

	t.Run("created resets the session and sends the welcome message", func(t *testing.T) {
		assembler, recordsMock, storeMock, messengerMock := newAssemblerWithMocks(t)
		ctrl := readyController(t)
		expectUploads(storeMock, ctx)

		var sentPayload map[string]any
		recordsMock.
			On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				sentPayload = args.Get(1).(map[string]any)
			}).
			Return(&records.CreatedRecord{ID: "rec-1"}, nil).
			Once()
		messengerMock.
			On("SendMessage", ctx, mock.Anything).
			Return(nil).
			Once()

		onResetCalled := false
		result, err := assembler.Submit(ctx, ctrl, deviceSlots(), func() { onResetCalled = true })
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, result.Outcome)
		assert.Equal(t, "rec-1", result.ID)
		assert.Empty(t, result.NotificationError)
		assert.True(t, onResetCalled)

		// The session is back at its initial shape.
		assert.Equal(t, 1, ctrl.State().Ordinal())
		assert.Empty(t, ctrl.State().Fields())

		// The payload merges fields, finalized references, verified facts and
		// the derived selling amount; raw document markers are dropped.
		assert.Equal(t, "device-trade-in", sentPayload["flow"])
		assert.Equal(t, "https://cdn.test/a__device_front_image.jpg", sentPayload["device_front_image"])
		assert.Equal(t, "https://cdn.test/b__device_back_image.jpg", sentPayload["device_back_image"])
		assert.Equal(t, "Asha Rao", sentPayload["verified_full_name"])
		assert.Equal(t, "ASHA RAO", sentPayload["bank_account_holder_name"])
		assert.Equal(t, true, sentPayload["phone_verified"])
		assert.Equal(t, "10700", sentPayload["selling_amount"])

		recordsMock.AssertExpectations(t)
		messengerMock.AssertExpectations(t)
	})

	t.Run("failed welcome message never rolls the record back", func(t *testing.T) {
		assembler, recordsMock, storeMock, messengerMock := newAssemblerWithMocks(t)
		ctrl := readyController(t)
		expectUploads(storeMock, ctx)

		recordsMock.On("Create", ctx, mock.Anything).Return(&records.CreatedRecord{ID: "rec-1"}, nil).Once()
		messengerMock.On("SendMessage", ctx, mock.Anything).Return(errors.New("twilio is down")).Once()

		result, err := assembler.Submit(ctx, ctrl, deviceSlots(), nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, result.Outcome)
		assert.Equal(t, "the welcome message could not be sent", result.NotificationError)
		assert.Equal(t, 1, ctrl.State().Ordinal())
	})

	t.Run("conflict preserves the session state", func(t *testing.T) {
		assembler, recordsMock, storeMock, _ := newAssemblerWithMocks(t)
		ctrl := readyController(t)
		expectUploads(storeMock, ctx)

		recordsMock.
			On("Create", ctx, mock.Anything).
			Return(nil, &records.ConflictError{Message: "a record with this national id already exists"}).
			Once()

		result, err := assembler.Submit(ctx, ctrl, deviceSlots(), nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeConflict, result.Outcome)
		assert.Equal(t, "a record with this national id already exists", result.Message)
		assert.Equal(t, 5, ctrl.State().Ordinal())
		assert.Equal(t, "Asha Rao", ctrl.State().Field("customer_name"))
	})

	t.Run("server validation failure routes back to the owning stage", func(t *testing.T) {
		assembler, recordsMock, storeMock, _ := newAssemblerWithMocks(t)
		ctrl := readyController(t)
		expectUploads(storeMock, ctx)

		recordsMock.
			On("Create", ctx, mock.Anything).
			Return(nil, &records.ValidationError{
				Message: "invalid record",
				Fields:  map[string]any{"national_id": "checksum failed"},
			}).
			Once()

		result, err := assembler.Submit(ctx, ctrl, deviceSlots(), nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeValidationFailed, result.Outcome)
		assert.Equal(t, map[string]any{"national_id": "checksum failed"}, result.Fields)
		assert.Equal(t, 2, result.RoutedToStage)
		assert.Equal(t, 2, ctrl.State().Ordinal())
	})

	t.Run("transport failure is classified as network failed", func(t *testing.T) {
		assembler, recordsMock, storeMock, _ := newAssemblerWithMocks(t)
		ctrl := readyController(t)
		expectUploads(storeMock, ctx)

		recordsMock.On("Create", ctx, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		result, err := assembler.Submit(ctx, ctrl, deviceSlots(), nil)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNetworkFailed, result.Outcome)
		assert.Equal(t, 5, ctrl.State().Ordinal())
	})
}
