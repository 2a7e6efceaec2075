package inventory

import (
	"github.com/angelmondragon/caskettrack/internal/barcode"
	"github.com/angelmondragon/caskettrack/pkg/db/models"
)

// Action describes what a scan did to the inventory.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// ScanResult is the outcome of applying one scan.
type ScanResult struct {
	Action      Action            `json:"action"`
	Barcode     string            `json:"barcode"`
	ProductName string            `json:"product_name"`
	Quantity    int               `json:"quantity"`
	Symbology   barcode.Symbology `json:"barcode_type"`
}

// CreateItemInput describes a manually added inventory row.
type CreateItemInput struct {
	ProductName string
	Quantity    int
	Barcode     *string
}

// ItemDTO is the API representation of an inventory row.
type ItemDTO struct {
	ID          uint    `json:"id"`
	Barcode     *string `json:"barcode"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	LowStock    bool    `json:"low_stock"`
}

// ToDTO maps a row, flagging it when quantity is at or below threshold.
func ToDTO(item models.InventoryItem, threshold int) ItemDTO {
	return ItemDTO{
		ID:          item.ID,
		Barcode:     item.Barcode,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		LowStock:    item.Quantity <= threshold,
	}
}

// ToDTOs maps rows with ToDTO.
func ToDTOs(items []models.InventoryItem, threshold int) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, ToDTO(item, threshold))
	}
	return out
}
