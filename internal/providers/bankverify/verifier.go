package bankverify

import (
	"context"
	"errors"
	"strings"

	"github.com/tradenest/intake-workflow-backend/internal/utils"
	"github.com/tradenest/intake-workflow-backend/internal/verification"
)

// AccountVerifier adapts the account lookup to the one-shot verifier
// interface. The entity value is the account number and IFSC joined with
// "|", the way the workflow state composes multi-field entities.
type AccountVerifier struct {
	Client ClientInterface
}

func NewAccountVerifier(client ClientInterface) *AccountVerifier {
	return &AccountVerifier{Client: client}
}

func (v *AccountVerifier) Kind() verification.Kind {
	return verification.KindBankAccount
}

func (v *AccountVerifier) Verify(ctx context.Context, value string) (verification.Payload, error) {
	accountNumber, ifsc, found := strings.Cut(value, "|")
	if !found {
		return nil, verification.NewInvalidInputError("bank_account_number", "account number and IFSC are both required")
	}
	if err := utils.ValidateBankAccountNumber(accountNumber); err != nil {
		return nil, verification.NewInvalidInputError("bank_account_number", err.Error())
	}
	ifsc = utils.TrimAndUpper(ifsc)
	if err := utils.ValidateIFSC(ifsc); err != nil {
		return nil, verification.NewInvalidInputError("ifsc", err.Error())
	}

	data, err := v.Client.VerifyAccount(ctx, accountNumber, ifsc)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return nil, verification.NewRejectionError(providerErr.Message)
		}
		return nil, err
	}

	// The provider answering is not the same as the account existing.
	if !data.AccountExists {
		return nil, verification.NewRejectionError("no account was found for this account number and IFSC")
	}

	return verification.BankAccountPayload{
		AccountExists: data.AccountExists,
		FullName:      data.FullName,
	}, nil
}

// UPIVerifier adapts the UPI handle lookup to the one-shot verifier
// interface.
type UPIVerifier struct {
	Client ClientInterface
}

func NewUPIVerifier(client ClientInterface) *UPIVerifier {
	return &UPIVerifier{Client: client}
}

func (v *UPIVerifier) Kind() verification.Kind {
	return verification.KindUPI
}

func (v *UPIVerifier) Verify(ctx context.Context, value string) (verification.Payload, error) {
	if err := utils.ValidateUPIID(value); err != nil {
		return nil, verification.NewInvalidInputError("upi_id", err.Error())
	}

	data, err := v.Client.VerifyUPI(ctx, value)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return nil, verification.NewRejectionError(providerErr.Message)
		}
		return nil, err
	}

	if !data.AccountExists {
		return nil, verification.NewRejectionError("no account was found for this UPI ID")
	}

	return verification.UPIPayload{
		AccountExists: data.AccountExists,
		NameAtBank:    data.NameAtBank,
	}, nil
}

var (
	_ verification.OneShotVerifier = (*AccountVerifier)(nil)
	_ verification.OneShotVerifier = (*UPIVerifier)(nil)
)
