package checkout

import (
	"io"

	"github.com/rmoralesp/giftshop-backend/internal/orders"
)

// ProofUpload is a payment-proof file streamed from a multipart request.
type ProofUpload struct {
	ContentType string
	Body        io.Reader
}

// ConfirmInput is the full wizard draft submitted at the review stage.
type ConfirmInput struct {
	Shipping ShippingDetails
	Payment  PaymentDetails
	Proof    *ProofUpload
}

// ConfirmResult is the outcome of a confirmed checkout. Post-order settlement
// problems never appear here, the buyer only ever sees the created order.
type ConfirmResult struct {
	Order      orders.View `json:"order"`
	NextCartID string      `json:"next_cart_id,omitempty"`
}
