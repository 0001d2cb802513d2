package controllers

import (
	"net/http"

	"github.com/rmoralesp/giftshop-backend/api/responses"
	cartsvc "github.com/rmoralesp/giftshop-backend/internal/cart"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/metrics"
)

// CartsCleanup triggers the duplicate-cart sweep.
func CartsCleanup(svc cartsvc.Service, checkoutMetrics *metrics.CheckoutMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		report, err := svc.CleanupDuplicateCarts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if checkoutMetrics != nil {
			checkoutMetrics.AddSweepArchived(report.CartsArchived)
		}

		responses.WriteSuccess(w, "cleanup complete", report)
	}
}
