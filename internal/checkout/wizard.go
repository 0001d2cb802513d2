package checkout

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// Stage is a step of the checkout wizard.
type Stage string

const (
	StageShipping Stage = "shipping"
	StagePayment  Stage = "payment"
	StageReview   Stage = "review"
)

var stageOrder = []Stage{StageShipping, StagePayment, StageReview}

// ShippingDetails is the shipping stage of the draft.
type ShippingDetails struct {
	ReceiverName  string        `json:"receiver_name" validate:"required"`
	ReceiverPhone string        `json:"receiver_phone" validate:"required"`
	Address       types.Address `json:"address"`
	DeliveryPoint string        `json:"delivery_point"`
	DeliveryDate  time.Time     `json:"delivery_date" validate:"required"`
}

// CardDetails is validated locally and discarded. It is never persisted and
// never forwarded anywhere.
type CardDetails struct {
	Number   string
	Holder   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

// PaymentDetails is the payment stage of the draft. Non-card payments carry a
// proof upload; card payments carry card fields instead.
type PaymentDetails struct {
	Type     enums.PaymentType
	HasProof bool
	Card     *CardDetails
}

// Draft is the client-held wizard state. Nothing in it touches storage until
// the wizard is confirmed.
type Draft struct {
	Shipping ShippingDetails
	Payment  PaymentDetails
}

// Wizard walks a draft through shipping, payment and review. Moving forward
// requires the current stage to be complete; moving backward is always
// allowed and keeps the draft intact.
type Wizard struct {
	stage Stage
	draft Draft
}

// NewWizard starts a wizard at the shipping stage.
func NewWizard() *Wizard {
	return &Wizard{stage: StageShipping}
}

// Stage returns the wizard's current stage.
func (w *Wizard) Stage() Stage {
	return w.stage
}

// Draft returns a copy of the accumulated draft.
func (w *Wizard) Draft() Draft {
	return w.draft
}

// SetShipping stores the shipping details on the draft.
func (w *Wizard) SetShipping(details ShippingDetails) {
	w.draft.Shipping = details
}

// SetPayment stores the payment details on the draft.
func (w *Wizard) SetPayment(details PaymentDetails) {
	w.draft.Payment = details
}

// Advance moves one stage forward after validating the current stage.
func (w *Wizard) Advance() error {
	switch w.stage {
	case StageShipping:
		if err := ValidateShipping(w.draft.Shipping); err != nil {
			return err
		}
		w.stage = StagePayment
	case StagePayment:
		if err := ValidatePayment(w.draft.Payment); err != nil {
			return err
		}
		w.stage = StageReview
	default:
		return pkgerrors.New(pkgerrors.CodeConflict, "wizard is already at review")
	}
	return nil
}

// Back moves one stage backward without validation.
func (w *Wizard) Back() error {
	for i, stage := range stageOrder {
		if stage == w.stage {
			if i == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "wizard is already at shipping")
			}
			w.stage = stageOrder[i-1]
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "unknown wizard stage")
}

// ValidateShipping checks the shipping stage for completeness.
func ValidateShipping(details ShippingDetails) error {
	if strings.TrimSpace(details.ReceiverName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receiver name is required")
	}
	if strings.TrimSpace(details.ReceiverPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "receiver phone is required")
	}
	if details.DeliveryDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery date is required")
	}
	return nil
}

// ValidatePayment checks the payment stage. Transfers and cash payments need
// a proof file; card payments need card fields that pass local checks.
func ValidatePayment(details PaymentDetails) error {
	if !details.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment type must be transfer, debit, credit or cash")
	}
	if details.Type.RequiresProof() {
		if !details.HasProof {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s payments require a payment proof", details.Type))
		}
		return nil
	}
	if details.Card == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "card payments require card details")
	}
	return validateCard(*details.Card)
}

// validateCard runs the local-only card checks. The fields never leave this
// process, a passing card is treated as processed.
func validateCard(card CardDetails) error {
	number := strings.ReplaceAll(strings.ReplaceAll(card.Number, " ", ""), "-", "")
	if len(number) < 13 || len(number) > 19 || !isDigits(number) || !luhnValid(number) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card number is invalid")
	}
	if strings.TrimSpace(card.Holder) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "card holder is required")
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return pkgerrors.New(pkgerrors.CodeValidation, "card expiry month is invalid")
	}
	now := time.Now()
	if card.ExpYear < now.Year() || (card.ExpYear == now.Year() && card.ExpMonth < int(now.Month())) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card is expired")
	}
	if len(card.CVC) < 3 || len(card.CVC) > 4 || !isDigits(card.CVC) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card security code is invalid")
	}
	return nil
}

func isDigits(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(value) > 0
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}
