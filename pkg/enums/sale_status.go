package enums

import "fmt"

// SaleStatus tracks the payment state of a sale.
type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusPaid    SaleStatus = "paid"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusPending,
	SaleStatusPaid,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleStatus converts raw input into a SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}

// TrackingStatus tracks delivery progress for a sale.
type TrackingStatus string

const (
	TrackingStatusScheduled  TrackingStatus = "scheduled"
	TrackingStatusInProgress TrackingStatus = "in_progress"
	TrackingStatusDelivered  TrackingStatus = "delivered"
)

var validTrackingStatuses = []TrackingStatus{
	TrackingStatusScheduled,
	TrackingStatusInProgress,
	TrackingStatusDelivered,
}

// String implements fmt.Stringer.
func (t TrackingStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TrackingStatus.
func (t TrackingStatus) IsValid() bool {
	for _, candidate := range validTrackingStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTrackingStatus converts raw input into a TrackingStatus.
func ParseTrackingStatus(value string) (TrackingStatus, error) {
	for _, candidate := range validTrackingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking status %q", value)
}
