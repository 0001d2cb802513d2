package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rmoralesp/giftshop-backend/api/middleware"
	"github.com/rmoralesp/giftshop-backend/api/responses"
	checkoutsvc "github.com/rmoralesp/giftshop-backend/internal/checkout"
	ordersvc "github.com/rmoralesp/giftshop-backend/internal/orders"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

const maxSaleFormMemory = 16 << 20

// CreateSale confirms a checkout draft. The request is a multipart form:
// shipping and payment fields plus, for non-card payments, the proof file
// under "proof".
func CreateSale(svc checkoutsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxSaleFormMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		input, err := saleInputFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.Proof != nil {
			if closer, ok := input.Proof.Body.(io.Closer); ok {
				defer closer.Close()
			}
		}

		result, err := svc.Confirm(r.Context(), clientID, *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccessStatus(w, http.StatusCreated, middleware.TokenFromContext(r.Context()), "order created", result)
	}
}

func saleInputFromForm(r *http.Request) (*checkoutsvc.ConfirmInput, error) {
	deliveryDate, err := parseDeliveryDate(r.FormValue("delivery_date"))
	if err != nil {
		return nil, err
	}

	var address types.Address
	if raw := strings.TrimSpace(r.FormValue("address")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &address); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
		}
	}

	paymentType, err := enums.ParsePaymentType(strings.TrimSpace(r.FormValue("payment_type")))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_type must be transfer, debit, credit or cash")
	}

	input := &checkoutsvc.ConfirmInput{
		Shipping: checkoutsvc.ShippingDetails{
			ReceiverName:  strings.TrimSpace(r.FormValue("receiver_name")),
			ReceiverPhone: strings.TrimSpace(r.FormValue("receiver_phone")),
			Address:       address,
			DeliveryPoint: strings.TrimSpace(r.FormValue("delivery_point")),
			DeliveryDate:  deliveryDate,
		},
		Payment: checkoutsvc.PaymentDetails{Type: paymentType},
	}

	if paymentType.IsCard() {
		expMonth, _ := strconv.Atoi(r.FormValue("card_exp_month"))
		expYear, _ := strconv.Atoi(r.FormValue("card_exp_year"))
		input.Payment.Card = &checkoutsvc.CardDetails{
			Number:   r.FormValue("card_number"),
			Holder:   r.FormValue("card_holder"),
			ExpMonth: expMonth,
			ExpYear:  expYear,
			CVC:      r.FormValue("card_cvc"),
		}
		return input, nil
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment proof file is required")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	input.Proof = &checkoutsvc.ProofUpload{ContentType: contentType, Body: file}
	return input, nil
}

func parseDeliveryDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery_date is required")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery_date must be RFC3339 or YYYY-MM-DD")
}

// GetSale returns one of the caller's orders.
func GetSale(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		saleID, err := pathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetSale(r.Context(), clientID, saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "order", view)
	}
}

// ListSales returns the caller's orders, newest first.
func ListSales(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListSales(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, "orders", views)
	}
}
