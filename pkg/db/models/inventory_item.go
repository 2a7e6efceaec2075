package models

import "time"

// InventoryItem is one stocked casket model. Barcode is the most recently
// scanned code for the product and may be empty for manually added stock.
type InventoryItem struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Barcode     *string   `gorm:"column:barcode;uniqueIndex:idx_inventory_items_barcode" json:"barcode"`
	ProductName string    `gorm:"column:product_name;not null;index:idx_inventory_items_product_name" json:"product_name"`
	Quantity    int       `gorm:"column:quantity;not null;default:0;check:quantity >= 0" json:"quantity"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// BarcodeValue returns the barcode or "" when unset.
func (i InventoryItem) BarcodeValue() string {
	if i.Barcode == nil {
		return ""
	}
	return *i.Barcode
}
