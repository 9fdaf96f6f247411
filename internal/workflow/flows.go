package workflow

import (
	"fmt"

	"github.com/tradenest/intake-workflow-backend/internal/utils"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// Flow names accepted when creating a session.
const (
	FlowEmployeeOnboarding = "employee-onboarding"
	FlowDeviceTradeIn      = "device-trade-in"
)

// Field values the conditional rules key on.
const (
	PaymentMethodBankAccount = "bank_account"
	PaymentMethodUPI         = "upi"

	DeviceAgeAbove11Months = "above_11_months"
)

func GetFlow(name string) (*Flow, error) {
	switch name {
	case FlowEmployeeOnboarding:
		return EmployeeOnboardingFlow(), nil
	case FlowDeviceTradeIn:
		return DeviceTradeInFlow(), nil
	default:
		return nil, fmt.Errorf("unknown flow %q", name)
	}
}

// paymentStage is shared by both flows: a payment method selector with two
// branches, each carrying its own fields and its own account verification.
// Switching the selector clears the other branch (see the reset rules), and
// the branch verification is only demanded while its branch is selected.
func paymentStage(ordinal int) Stage {
	return Stage{
		ID:      "payment-details",
		Ordinal: ordinal,
		OnEnter: func(state *State) {
			if state.Field("payment_method") == "" {
				state.SetField("payment_method", PaymentMethodBankAccount)
			}
		},
		Rules: []FieldRule{
			Required("payment_method"),
			RequiredWhen("bank_account_number", "payment_method", PaymentMethodBankAccount).
				WithPredicate(utils.ValidateBankAccountNumber),
			RequiredWhen("ifsc", "payment_method", PaymentMethodBankAccount).
				WithPredicate(utils.ValidateIFSC),
			RequiredWhen("upi_id", "payment_method", PaymentMethodUPI).
				WithPredicate(utils.ValidateUPIID),
		},
		Verifications: []VerificationRule{
			{Kind: verification.KindBankAccount, DependsOn: &Dependency{Field: "payment_method", MatchValue: PaymentMethodBankAccount}},
			{Kind: verification.KindUPI, DependsOn: &Dependency{Field: "payment_method", MatchValue: PaymentMethodUPI}},
		},
	}
}

var paymentResetRules = []ResetRule{
	{Field: "payment_method", Clears: []string{"bank_account_number", "ifsc", "upi_id"}},
}

// EmployeeOnboardingFlow is the staged intake for a new employee.
func EmployeeOnboardingFlow() *Flow {
	return &Flow{
		Name: FlowEmployeeOnboarding,
		Stages: []Stage{
			{
				ID:      "personal-details",
				Ordinal: 1,
				Rules: []FieldRule{
					Required("full_name"),
					Required("phone_number").WithPredicate(utils.ValidatePhoneNumber),
					Required("email").WithPredicate(utils.ValidateEmail),
					Required("date_of_birth"),
				},
				Verifications: []VerificationRule{
					{Kind: verification.KindPhone},
				},
			},
			{
				ID:      "identity",
				Ordinal: 2,
				Rules: []FieldRule{
					Required("national_id").WithPredicate(utils.ValidateNationalID),
				},
				Verifications: []VerificationRule{
					{Kind: verification.KindNationalID},
				},
			},
			{
				ID:      "employment-details",
				Ordinal: 3,
				Rules: []FieldRule{
					Required("role_type"),
					Required("branch_code"),
					Required("joining_date"),
				},
			},
			paymentStage(4),
			{
				ID:      "documents",
				Ordinal: 5,
				Rules: []FieldRule{
					Required("id_proof_front"),
					Required("id_proof_back"),
					Required("photo"),
				},
			},
		},
		EntityFields: map[verification.Kind][]string{
			verification.KindPhone:       {"phone_number"},
			verification.KindNationalID:  {"national_id"},
			verification.KindBankAccount: {"bank_account_number", "ifsc"},
			verification.KindUPI:         {"upi_id"},
		},
		ResetRules:     paymentResetRules,
		DocumentFields: []string{"id_proof_front", "id_proof_back", "photo"},
	}
}

// DeviceTradeInFlow is the staged intake for a device trade-in customer.
func DeviceTradeInFlow() *Flow {
	return &Flow{
		Name: FlowDeviceTradeIn,
		Stages: []Stage{
			{
				ID:      "customer-details",
				Ordinal: 1,
				Rules: []FieldRule{
					Required("customer_name"),
					Required("phone_number").WithPredicate(utils.ValidatePhoneNumber),
				},
				Verifications: []VerificationRule{
					{Kind: verification.KindPhone},
				},
			},
			{
				ID:      "identity",
				Ordinal: 2,
				Rules: []FieldRule{
					Required("national_id").WithPredicate(utils.ValidateNationalID),
				},
				Verifications: []VerificationRule{
					{Kind: verification.KindNationalID},
				},
			},
			{
				ID:      "device-details",
				Ordinal: 3,
				Rules: []FieldRule{
					Required("device_brand"),
					Required("device_model"),
					Required("imei"),
					Required("device_age"),
					// Warranty only matters once the device is old enough for
					// the warranty class to affect the quote.
					RequiredWhen("warranty_type", "device_age", DeviceAgeAbove11Months),
					Required("has_gst_bill"),
					RequiredWhen("gst_bill_number", "has_gst_bill", "yes"),
					Required("box_imei_match"),
					// Ownership proof is only demanded when neither the GST
					// bill nor the box IMEI can vouch for the device.
					RequiredWhenAll("customer_proof_image",
						Dependency{Field: "has_gst_bill", MatchValue: "no"},
						Dependency{Field: "box_imei_match", MatchValue: "no"},
					),
					Required("final_amount").WithPredicate(utils.ValidateAmount),
				},
			},
			paymentStage(4),
			{
				ID:      "documents",
				Ordinal: 5,
				Rules: []FieldRule{
					Required("device_front_image"),
					Required("device_back_image"),
					RequiredWhen("gst_bill_image", "has_gst_bill", "yes"),
				},
			},
		},
		EntityFields: map[verification.Kind][]string{
			verification.KindPhone:       {"phone_number"},
			verification.KindNationalID:  {"national_id"},
			verification.KindBankAccount: {"bank_account_number", "ifsc"},
			verification.KindUPI:         {"upi_id"},
		},
		ResetRules: paymentResetRules,
		DocumentFields: []string{
			"device_front_image",
			"device_back_image",
			"gst_bill_image",
			"customer_proof_image",
		},
	}
}
