package orders

import (
	"fmt"
	"strings"
	"time"
)

const slipTimeLayout = "2006-01-02 15:04:05 MST"

// RenderSlip formats order as the printable plain-text slip. Orders that
// have not been placed omit the reference and date lines.
func RenderSlip(order Order) string {
	var b strings.Builder
	b.WriteString("Order Summary\n")
	if order.Ref != nil {
		fmt.Fprintf(&b, "Order: %s\n", order.Ref.String())
	}
	if order.PlacedAt != nil {
		fmt.Fprintf(&b, "Date: %s\n", order.PlacedAt.UTC().Format(slipTimeLayout))
	}
	fmt.Fprintf(&b, "Customer: %s\n\n", order.Customer)
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "- %s - Quantity: %d\n", line.ProductName, line.Quantity)
	}
	fmt.Fprintf(&b, "\nTotal caskets: %d\n", order.TotalQuantity())
	return b.String()
}

func withSlip(order Order) Order {
	order.Slip = RenderSlip(order)
	return order
}

func placedAt(t time.Time) *time.Time {
	utc := t.UTC()
	return &utc
}
