package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
)

func validShipping() ShippingDetails {
	return ShippingDetails{
		ReceiverName:  "Rosa Delgado",
		ReceiverPhone: "+56 9 1234 5678",
		DeliveryDate:  time.Now().Add(48 * time.Hour),
	}
}

func validCard() *CardDetails {
	return &CardDetails{
		Number:   "4242 4242 4242 4242",
		Holder:   "Rosa Delgado",
		ExpMonth: 12,
		ExpYear:  time.Now().Year() + 2,
		CVC:      "123",
	}
}

func TestWizardWalksForwardThroughStages(t *testing.T) {
	w := NewWizard()
	assert.Equal(t, StageShipping, w.Stage())

	w.SetShipping(validShipping())
	require.NoError(t, w.Advance())
	assert.Equal(t, StagePayment, w.Stage())

	w.SetPayment(PaymentDetails{Type: enums.PaymentTypeCredit, Card: validCard()})
	require.NoError(t, w.Advance())
	assert.Equal(t, StageReview, w.Stage())

	err := w.Advance()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestWizardBlocksAdvanceOnIncompleteStage(t *testing.T) {
	w := NewWizard()

	err := w.Advance()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, StageShipping, w.Stage())
}

func TestWizardBackKeepsDraft(t *testing.T) {
	w := NewWizard()
	shipping := validShipping()
	w.SetShipping(shipping)
	require.NoError(t, w.Advance())

	require.NoError(t, w.Back())
	assert.Equal(t, StageShipping, w.Stage())
	assert.Equal(t, shipping.ReceiverName, w.Draft().Shipping.ReceiverName)

	err := w.Back()
	require.Error(t, err)
}

func TestValidateShippingRequiresCoreFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ShippingDetails)
	}{
		{"missing receiver name", func(d *ShippingDetails) { d.ReceiverName = " " }},
		{"missing receiver phone", func(d *ShippingDetails) { d.ReceiverPhone = "" }},
		{"missing delivery date", func(d *ShippingDetails) { d.DeliveryDate = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := validShipping()
			tc.mutate(&details)
			err := ValidateShipping(details)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestValidatePaymentProofRules(t *testing.T) {
	err := ValidatePayment(PaymentDetails{Type: enums.PaymentTypeTransfer})
	require.Error(t, err)

	require.NoError(t, ValidatePayment(PaymentDetails{Type: enums.PaymentTypeTransfer, HasProof: true}))
	require.NoError(t, ValidatePayment(PaymentDetails{Type: enums.PaymentTypeCash, HasProof: true}))

	err = ValidatePayment(PaymentDetails{Type: enums.PaymentType("voucher")})
	require.Error(t, err)
}

func TestValidatePaymentCardRules(t *testing.T) {
	require.NoError(t, ValidatePayment(PaymentDetails{Type: enums.PaymentTypeCredit, Card: validCard()}))

	err := ValidatePayment(PaymentDetails{Type: enums.PaymentTypeDebit})
	require.Error(t, err)

	cases := []struct {
		name   string
		mutate func(*CardDetails)
	}{
		{"luhn failure", func(c *CardDetails) { c.Number = "4242424242424241" }},
		{"too short", func(c *CardDetails) { c.Number = "42424242" }},
		{"non digits", func(c *CardDetails) { c.Number = "4242abcd42424242" }},
		{"missing holder", func(c *CardDetails) { c.Holder = "  " }},
		{"bad month", func(c *CardDetails) { c.ExpMonth = 13 }},
		{"expired", func(c *CardDetails) { c.ExpYear = time.Now().Year() - 1 }},
		{"bad cvc", func(c *CardDetails) { c.CVC = "12" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			card := validCard()
			tc.mutate(card)
			err := ValidatePayment(PaymentDetails{Type: enums.PaymentTypeCredit, Card: card})
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestValidateCardAcceptsSeparators(t *testing.T) {
	card := validCard()
	card.Number = "4242-4242-4242-4242"
	require.NoError(t, ValidatePayment(PaymentDetails{Type: enums.PaymentTypeCredit, Card: card}))
}
