package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/angelmondragon/caskettrack/api/responses"
	"github.com/angelmondragon/caskettrack/internal/barcode"
	"github.com/angelmondragon/caskettrack/internal/inventory"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
	"github.com/angelmondragon/caskettrack/pkg/logger"
)

const maxScanBody = 4 << 10

type scanResponse struct {
	Status      string            `json:"status"`
	Action      inventory.Action  `json:"action"`
	Barcode     string            `json:"barcode"`
	ProductName string            `json:"product_name,omitempty"`
	Quantity    int               `json:"quantity,omitempty"`
	BarcodeType barcode.Symbology `json:"barcode_type"`
}

// Scan applies one barcode read posted by a scanner client. The body is
// {"barcode": "<code>"}; unknown fields are ignored so older clients keep
// working.
func Scan(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := decodeBarcode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBarcode(ctx, code)
		}

		res, err := svc.ApplyScan(ctx, code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, scanResponse{
			Status:      "success",
			Action:      res.Action,
			Barcode:     res.Barcode,
			ProductName: res.ProductName,
			Quantity:    res.Quantity,
			BarcodeType: res.Symbology,
		})
	}
}

func decodeBarcode(r *http.Request) (string, error) {
	var body struct {
		Barcode json.RawMessage `json:"barcode"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxScanBody)).Decode(&body); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid barcode provided.").
			WithDetails(map[string]any{"error": err.Error()})
	}
	if len(body.Barcode) == 0 || string(body.Barcode) == "null" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid barcode provided.").
			WithDetails(map[string]any{"field": "barcode", "reason": "is required"})
	}
	var code string
	if err := json.Unmarshal(body.Barcode, &code); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid barcode provided.").
			WithDetails(map[string]any{"field": "barcode", "reason": "must be a string"})
	}
	return code, nil
}
