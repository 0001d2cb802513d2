package enums

import "fmt"

// PaymentType enumerates how a sale is paid.
type PaymentType string

const (
	PaymentTypeTransfer PaymentType = "transfer"
	PaymentTypeDebit    PaymentType = "debit"
	PaymentTypeCredit   PaymentType = "credit"
	PaymentTypeCash     PaymentType = "cash"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeTransfer,
	PaymentTypeDebit,
	PaymentTypeCredit,
	PaymentTypeCash,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsCard reports whether the payment is card-based. Card payments are
// validated on the caller side and never require a proof upload.
func (p PaymentType) IsCard() bool {
	return p == PaymentTypeDebit || p == PaymentTypeCredit
}

// RequiresProof reports whether a payment-proof reference must accompany
// the sale.
func (p PaymentType) RequiresProof() bool {
	return !p.IsCard()
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
