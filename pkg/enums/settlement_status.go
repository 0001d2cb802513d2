package enums

import "fmt"

// SettlementStatus marks the progress of the post-order steps that are not
// covered by the order-creation transaction: discount confirmation and cart
// archival. A sale is fully settled once both reach "settled".
type SettlementStatus string

const (
	SettlementStatusNone    SettlementStatus = "none"
	SettlementStatusPending SettlementStatus = "pending"
	SettlementStatusSettled SettlementStatus = "settled"
	SettlementStatusFailed  SettlementStatus = "failed"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusNone,
	SettlementStatusPending,
	SettlementStatusSettled,
	SettlementStatusFailed,
}

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementStatus.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}
