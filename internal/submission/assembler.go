// Package submission assembles the final intake record from the stage-
// validated field values and the finalized asset references, submits it to
// the records service, and classifies the outcome.
package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/tradenest/intake-workflow-backend/internal/message"
	"github.com/tradenest/intake-workflow-backend/internal/pricing"
	"github.com/tradenest/intake-workflow-backend/internal/providers/records"
	"github.com/tradenest/intake-workflow-backend/internal/uploads"
	"github.com/tradenest/intake-workflow-backend/internal/utils"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
	"github.com/tradenest/intake-workflow-backend/internal/workflow"
)

type Outcome string

const (
	OutcomeCreated          Outcome = "CREATED"
	OutcomeConflict         Outcome = "CONFLICT"
	OutcomeValidationFailed Outcome = "VALIDATION_FAILED"
	OutcomeNetworkFailed    Outcome = "NETWORK_FAILED"
)

// Result is the classified outcome of one submit attempt.
type Result struct {
	Outcome Outcome
	// ID is set on OutcomeCreated.
	ID      string
	Message string
	// Fields carries the failing fields on OutcomeValidationFailed, keyed by
	// validation-graph field name.
	Fields map[string]any
	// RoutedToStage is the ordinal the user was sent back to on
	// OutcomeValidationFailed, 0 when no stage owns the failing fields.
	RoutedToStage int
	// NotificationError reports a failed best-effort welcome message. The
	// record was still created.
	NotificationError string
}

const welcomeBody = "Welcome aboard! Your registration has been received and is being processed."

// Assembler merges field values with finalized asset references, performs
// the create call, and reacts to each outcome class.
type Assembler struct {
	Records   records.ClientInterface
	Uploads   *uploads.Pipeline
	Messenger message.MessengerClient
	Pricing   pricing.Rule
}

// Submit runs the terminal transition for a session. On success the
// controller is reset to its initial state; on conflict, validation failure
// and network failure the session state is preserved so the user can correct
// and resubmit.
//
// onReset, when provided, is invoked after a successful submission so the
// caller can tear down session-scoped machinery (cooldown timers, in-flight
// bookkeeping) together with the workflow state.
func (a *Assembler) Submit(ctx context.Context, ctrl *workflow.Controller, slots []uploads.Slot, onReset func()) (Result, error) {
	ready, failing := ctrl.ReadyToSubmit()
	if !ready {
		return Result{
			Outcome: OutcomeValidationFailed,
			Message: "the final stage is not complete",
			Fields:  failing,
		}, nil
	}

	references, err := a.Uploads.Run(ctx, slots)
	if err != nil {
		return Result{}, fmt.Errorf("running upload pipeline: %w", err)
	}

	state := ctrl.State()
	payload := a.assemblePayload(state, references)
	welcomeTo := state.Field("phone_number")

	created, err := a.Records.Create(ctx, payload)
	if err != nil {
		return a.classifyFailure(ctx, ctrl, err)
	}

	result := Result{Outcome: OutcomeCreated, ID: created.ID}
	log.WithContext(ctx).Infof("record %s created for flow %q", created.ID, state.Flow.Name)

	// Downstream notification is best effort: its failure is reported, never
	// rolled back.
	if a.Messenger != nil && welcomeTo != "" {
		msg := message.Message{ToPhoneNumber: welcomeTo, Body: welcomeBody}
		if sendErr := a.Messenger.SendMessage(ctx, msg); sendErr != nil {
			log.WithContext(ctx).Errorf("sending welcome message to %s: %v", utils.TruncateString(welcomeTo, 3), sendErr)
			result.NotificationError = "the welcome message could not be sent"
		}
	}

	ctrl.Reset()
	if onReset != nil {
		onReset()
	}

	return result, nil
}

func (a *Assembler) classifyFailure(ctx context.Context, ctrl *workflow.Controller, err error) (Result, error) {
	var conflictErr *records.ConflictError
	if errors.As(err, &conflictErr) {
		return Result{Outcome: OutcomeConflict, Message: conflictErr.Message}, nil
	}

	var validationErr *records.ValidationError
	if errors.As(err, &validationErr) {
		result := Result{
			Outcome: OutcomeValidationFailed,
			Message: validationErr.Message,
			Fields:  validationErr.Fields,
		}
		for field := range validationErr.Fields {
			if ordinal, ok := ctrl.State().Flow.StageForField(field); ok {
				if routeErr := ctrl.RouteToStage(ordinal); routeErr == nil {
					result.RoutedToStage = ordinal
				}
				break
			}
		}
		return result, nil
	}

	log.WithContext(ctx).Errorf("submitting record: %v", err)
	return Result{
		Outcome: OutcomeNetworkFailed,
		Message: "the record could not be submitted, try again",
	}, nil
}

// assemblePayload is the union of all field values across all stages, with
// document fields replaced by finalized reference URLs (absent when never
// uploaded) and entity fields enriched with provider-confirmed facts.
func (a *Assembler) assemblePayload(state *workflow.State, references map[string]string) map[string]any {
	fields := state.Fields()
	payload := make(map[string]any, len(fields)+len(references))

	documentFields := make(map[string]bool, len(state.Flow.DocumentFields))
	for _, name := range state.Flow.DocumentFields {
		documentFields[name] = true
	}

	for field, value := range fields {
		if documentFields[field] {
			continue
		}
		payload[field] = value
	}

	payload["flow"] = state.Flow.Name

	for name, reference := range references {
		payload[name] = reference
	}

	for _, status := range state.Statuses() {
		if !status.IsVerified() {
			continue
		}
		switch p := status.Payload.(type) {
		case verification.PhonePayload:
			payload["phone_verified"] = true
		case verification.NationalIDPayload:
			payload["verified_full_name"] = p.FullName
			payload["verified_date_of_birth"] = p.DateOfBirth
		case verification.BankAccountPayload:
			payload["bank_account_holder_name"] = p.FullName
		case verification.UPIPayload:
			payload["upi_name_at_bank"] = p.NameAtBank
		}
	}

	if a.Pricing != nil {
		if finalAmount, err := decimal.NewFromString(state.Field("final_amount")); err == nil {
			payload["selling_amount"] = a.Pricing.SellingAmount(finalAmount).String()
		}
	}

	return payload
}
