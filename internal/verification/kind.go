package verification

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is a category of real-world fact being verified against an external
// provider.
type Kind string

const (
	KindPhone       Kind = "PHONE"
	KindNationalID  Kind = "NATIONAL_ID"
	KindBankAccount Kind = "BANK_ACCOUNT"
	KindUPI         Kind = "UPI"
)

func (k Kind) All() []Kind {
	return []Kind{KindPhone, KindNationalID, KindBankAccount, KindUPI}
}

func ParseKind(kindStr string) (Kind, error) {
	kindStrUpper := strings.ToUpper(strings.ReplaceAll(kindStr, "-", "_"))
	kind := Kind(kindStrUpper)

	if slices.Contains(Kind("").All(), kind) {
		return kind, nil
	}

	return "", fmt.Errorf("invalid verification kind %q", kindStr)
}
