package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is one line of a placed customer order. Lines of the same order
// share OrderRef.
type Purchase struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderRef    uuid.UUID `gorm:"column:order_ref;type:uuid;not null;index:idx_purchases_order_ref" json:"order_ref"`
	Customer    string    `gorm:"column:customer;not null;index:idx_purchases_customer" json:"customer"`
	ProductName string    `gorm:"column:product_name;not null" json:"product_name"`
	Quantity    int       `gorm:"column:quantity;not null;check:quantity > 0" json:"quantity"`
	PurchasedAt time.Time `gorm:"column:purchased_at;not null;index:idx_purchases_purchased_at" json:"purchased_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}
