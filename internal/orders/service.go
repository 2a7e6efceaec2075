package orders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/db/models"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
	"github.com/angelmondragon/caskettrack/pkg/logger"
	"github.com/angelmondragon/caskettrack/pkg/notify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stock is the inventory boundary used by order placement.
type Stock interface {
	Write(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error
	Decrement(ctx context.Context, tx *gorm.DB, productName string, n int) (int, error)
}

// Metrics counts order outcomes.
type Metrics interface {
	IncOrder(result string)
}

// Service defines order placement and purchase history operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error)
	Summarize(input PlaceOrderInput) (*Order, error)
	Slip(ctx context.Context, ref uuid.UUID) (*Order, error)
	RecentPurchases(ctx context.Context, filter PurchaseFilter) ([]models.Purchase, error)
}

type service struct {
	repo     Repository
	stock    Stock
	notifier notify.Notifier
	metrics  Metrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, stock Stock, notifier notify.Notifier, metrics Metrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory stock required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{
		repo:     repo,
		stock:    stock,
		notifier: notifier,
		metrics:  metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Order, error) {
	customer, lines, err := normalize(input)
	if err != nil {
		s.metrics.IncOrder("rejected")
		return nil, err
	}

	ref := uuid.New()
	at := s.now().UTC()
	if s.logg != nil {
		ctx = s.logg.WithOrderRef(ctx, ref.String())
	}

	var placed []Line
	err = s.stock.Write(ctx, "place_order", func(tx *gorm.DB) error {
		placed = make([]Line, 0, len(lines))
		rows := make([]models.Purchase, 0, len(lines))
		for _, line := range lines {
			remaining, err := s.stock.Decrement(ctx, tx, line.ProductName, line.Quantity)
			if err != nil {
				return err
			}
			placed = append(placed, Line{ProductName: line.ProductName, Quantity: line.Quantity, Remaining: &remaining})
			rows = append(rows, models.Purchase{
				OrderRef:    ref,
				Customer:    customer,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				PurchasedAt: at,
			})
		}
		return s.repo.WithTx(tx).CreatePurchases(ctx, rows)
	})
	if err != nil {
		s.metrics.IncOrder(orderFailure(err))
		return nil, err
	}

	s.metrics.IncOrder("placed")
	for _, line := range placed {
		s.notifier.Notify(ctx, notify.Event{
			Action: notify.ActionUpdated,
			Data:   notify.Data{ProductName: line.ProductName, Quantity: *line.Remaining},
		})
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"customer": customer,
			"lines":    len(placed),
		}), "order.placed")
	}

	order := withSlip(Order{Ref: &ref, Customer: customer, PlacedAt: placedAt(at), Lines: placed})
	return &order, nil
}

func (s *service) Summarize(input PlaceOrderInput) (*Order, error) {
	customer, lines, err := normalize(input)
	if err != nil {
		return nil, err
	}
	order := withSlip(Order{Customer: customer, Lines: lines})
	return &order, nil
}

func (s *service) Slip(ctx context.Context, ref uuid.UUID) (*Order, error) {
	rows, err := s.repo.FindByOrderRef(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "failed to load order").WithDetails(err.Error())
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", ref))
	}

	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, Line{ProductName: r.ProductName, Quantity: r.Quantity})
	}
	order := withSlip(Order{
		Ref:      &ref,
		Customer: rows[0].Customer,
		PlacedAt: placedAt(rows[0].PurchasedAt),
		Lines:    lines,
	})
	return &order, nil
}

func (s *service) RecentPurchases(ctx context.Context, filter PurchaseFilter) ([]models.Purchase, error) {
	days := filter.Days
	if days < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days must not be negative").
			WithDetails(map[string]any{"field": "days"})
	}
	if days == 0 {
		days = DefaultPurchaseWindowDays
	}

	since := s.now().UTC().AddDate(0, 0, -days)
	rows, err := s.repo.ListSince(ctx, since, compact(filter.Customers), compact(filter.Products))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "failed to load purchases").WithDetails(err.Error())
	}
	return rows, nil
}

// normalize validates input and merges repeated product lines, keeping the
// order of first appearance.
func normalize(input PlaceOrderInput) (string, []Line, error) {
	customer := strings.TrimSpace(input.Customer)
	if customer == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a customer.").
			WithDetails(map[string]any{"field": "customer"})
	}
	if len(input.Items) == 0 {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select at least one casket and quantity.").
			WithDetails(map[string]any{"field": "items"})
	}

	index := make(map[string]int, len(input.Items))
	lines := make([]Line, 0, len(input.Items))
	for i, item := range input.Items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" || item.Quantity < 1 {
			return "", nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("Please enter a valid casket and quantity for item %d.", i+1)).
				WithDetails(map[string]any{"field": "items", "index": i})
		}
		if at, ok := index[name]; ok {
			if item.Quantity > math.MaxInt-lines[at].Quantity {
				return "", nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("Please enter a valid casket and quantity for item %d.", i+1)).
					WithDetails(map[string]any{"field": "items", "index": i, "product_name": name})
			}
			lines[at].Quantity += item.Quantity
			continue
		}
		index[name] = len(lines)
		lines = append(lines, Line{ProductName: name, Quantity: item.Quantity})
	}
	return customer, lines, nil
}

func orderFailure(err error) string {
	switch {
	case pkgerrors.Is(err, pkgerrors.CodeInsufficientStock), pkgerrors.Is(err, pkgerrors.CodeNotFound):
		return "rejected"
	default:
		return "failed"
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type noopMetrics struct{}

func (noopMetrics) IncOrder(string) {}
