package verification

// Payload is the narrow, decoded shape returned by a verification provider
// once a value is verified. Each provider gets its own concrete type instead
// of an open map, so downstream consumers never re-parse dynamic data.
type Payload interface {
	PayloadKind() Kind
}

type PhonePayload struct {
	PhoneNumber string `json:"phone_number"`
}

func (p PhonePayload) PayloadKind() Kind { return KindPhone }

type NationalIDPayload struct {
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
}

func (p NationalIDPayload) PayloadKind() Kind { return KindNationalID }

type BankAccountPayload struct {
	AccountExists bool   `json:"account_exists"`
	FullName      string `json:"full_name"`
}

func (p BankAccountPayload) PayloadKind() Kind { return KindBankAccount }

type UPIPayload struct {
	AccountExists bool   `json:"account_exists"`
	NameAtBank    string `json:"name_at_bank"`
}

func (p UPIPayload) PayloadKind() Kind { return KindUPI }
