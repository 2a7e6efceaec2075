package controllers

import (
	"net/http"

	"github.com/angelmondragon/caskettrack/api/responses"
	"github.com/angelmondragon/caskettrack/api/validators"
	"github.com/angelmondragon/caskettrack/internal/inventory"
	"github.com/angelmondragon/caskettrack/pkg/logger"
)

const maxNameLen = 128

type createItemRequest struct {
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"min=0"`
	Barcode     *string `json:"barcode,omitempty"`
}

type addQuantityRequest struct {
	ProductName string `json:"product_name" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

// InventoryList returns every inventory row, or the exact product_name match
// when ?search= is set.
func InventoryList(svc inventory.Service, threshold int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := validators.SanitizeString(r.URL.Query().Get("search"), maxNameLen)
		items, err := svc.List(r.Context(), search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inventory.ToDTOs(items, threshold))
	}
}

func InventoryCreate(svc inventory.Service, threshold int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), inventory.CreateItemInput{
			ProductName: validators.SanitizeString(req.ProductName, maxNameLen),
			Quantity:    req.Quantity,
			Barcode:     req.Barcode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, inventory.ToDTO(*item, threshold))
	}
}

func InventoryAddQuantity(svc inventory.Service, threshold int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddQuantity(r.Context(), validators.SanitizeString(req.ProductName, maxNameLen), req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inventory.ToDTO(*item, threshold))
	}
}

// InventoryAlerts lists rows at or below ?threshold= (default threshold).
func InventoryAlerts(svc inventory.Service, threshold int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "threshold", threshold, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.LowStock(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, inventory.ToDTOs(items, limit))
	}
}
