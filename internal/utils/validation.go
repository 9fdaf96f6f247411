package utils

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/nyaruka/phonenumbers"
)

var (
	// rxPhone validates phone numbers according to the E.164 standard https://en.wikipedia.org/wiki/E.164
	rxPhone = regexp.MustCompile(`^\+[1-9]{1}[0-9]{9,14}$`)
	rxOTP   = regexp.MustCompile(`^\d{6}$`)
	// rxIFSC validates Indian Financial System Codes: four letters, a zero, six alphanumerics.
	rxIFSC = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	rxUPI  = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)

	ErrInvalidE164PhoneNumber = fmt.Errorf("the provided phone number is not a valid E.164 number")
)

func ValidatePhoneNumber(phoneNumberStr string) error {
	if phoneNumberStr == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	if !rxPhone.MatchString(phoneNumberStr) {
		return ErrInvalidE164PhoneNumber
	}

	parsedNumber, err := phonenumbers.Parse(phoneNumberStr, "")
	if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
		// Parsing error, not a valid phone number
		return ErrInvalidE164PhoneNumber
	}

	return nil
}

func ValidateOTP(otp string) error {
	if otp == "" {
		return fmt.Errorf("otp cannot be empty")
	}

	if !rxOTP.MatchString(otp) {
		return fmt.Errorf("the provided OTP is not a valid 6 digits value")
	}

	return nil
}

// ValidateNationalID validates the 12-digit national identity number format
// before any provider call is attempted.
func ValidateNationalID(idNumber string) error {
	if idNumber == "" {
		return fmt.Errorf("national ID cannot be empty")
	}

	if len(idNumber) != 12 || !govalidator.IsNumeric(idNumber) {
		return fmt.Errorf("the provided national ID is not a valid 12 digits value")
	}

	return nil
}

func ValidateIFSC(ifsc string) error {
	if ifsc == "" {
		return fmt.Errorf("IFSC cannot be empty")
	}

	if !rxIFSC.MatchString(ifsc) {
		return fmt.Errorf("the provided IFSC is not valid")
	}

	return nil
}

func ValidateBankAccountNumber(accountNumber string) error {
	if accountNumber == "" {
		return fmt.Errorf("bank account number cannot be empty")
	}

	if len(accountNumber) < 9 || len(accountNumber) > 18 || !govalidator.IsNumeric(accountNumber) {
		return fmt.Errorf("the provided bank account number is not valid")
	}

	return nil
}

func ValidateUPIID(upiID string) error {
	if upiID == "" {
		return fmt.Errorf("UPI ID cannot be empty")
	}

	if !rxUPI.MatchString(upiID) {
		return fmt.Errorf("the provided UPI ID is not valid")
	}

	return nil
}

func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Errorf("the provided amount is not a valid number")
	}

	if value <= 0 {
		return fmt.Errorf("the provided amount must be greater than zero")
	}

	return nil
}

// rxEmail is a regex used to validate e-mail addresses, according with the reference https://www.alexedwards.net/blog/validation-snippets-for-go#email-validation.
// It's free to use under the [MIT Licence](https://opensource.org/licenses/MIT)
var rxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !rxEmail.MatchString(email) {
		return fmt.Errorf("the provided email is not valid")
	}

	return nil
}
