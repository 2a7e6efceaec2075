package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/caskettrack/api/responses"
	"github.com/angelmondragon/caskettrack/api/validators"
	internalorders "github.com/angelmondragon/caskettrack/internal/orders"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
	"github.com/angelmondragon/caskettrack/pkg/logger"
)

const maxDays = 3650

// Place commits an order, decrementing stock for every line.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req internalorders.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Summary renders the order slip without touching inventory.
func Summary(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req internalorders.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Summarize(req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Slip returns the printable plain-text slip of a placed order.
func Slip(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "orderRef"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required"))
			return
		}
		ref, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order reference"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderRef(ctx, ref.String())
		}
		order, err := svc.Slip(ctx, ref)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteText(w, http.StatusOK, order.Slip)
	}
}

// Purchases lists recent purchases filtered by ?customer=, ?product= and
// ?days= (default defaultDays). Filters accept repeated or comma separated
// values.
func Purchases(svc internalorders.Service, defaultDays int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", defaultDays, 1, maxDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.RecentPurchases(r.Context(), internalorders.PurchaseFilter{
			Customers: validators.ParseQueryList(r, "customer"),
			Products:  validators.ParseQueryList(r, "product"),
			Days:      days,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToPurchaseDTOs(rows))
	}
}
