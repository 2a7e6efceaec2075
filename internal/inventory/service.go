package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/caskettrack/internal/barcode"
	"github.com/angelmondragon/caskettrack/pkg/backoff"
	"github.com/angelmondragon/caskettrack/pkg/db"
	"github.com/angelmondragon/caskettrack/pkg/db/models"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
	"github.com/angelmondragon/caskettrack/pkg/logger"
	"github.com/angelmondragon/caskettrack/pkg/notify"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Metrics records inventory outcomes.
type Metrics interface {
	IncScan(action string)
	IncRetry(operation string)
	IncFailure(operation, kind string)
	ObserveDuration(operation string, d time.Duration)
}

// Service defines the inventory updater and the stock queries behind the
// staff dashboard.
type Service interface {
	ApplyScan(ctx context.Context, code string) (*ScanResult, error)
	AddQuantity(ctx context.Context, productName string, n int) (*models.InventoryItem, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	List(ctx context.Context, search string) ([]models.InventoryItem, error)
	LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error)

	// Decrement subtracts n units of productName inside tx and returns the
	// remaining quantity. It never lets stock go negative.
	Decrement(ctx context.Context, tx *gorm.DB, productName string, n int) (int, error)

	// Write runs fn in one write-locked transaction, retrying the whole
	// transaction when the store reports lock contention.
	Write(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error
}

// Options carries the optional collaborators of the service.
type Options struct {
	Policy  backoff.Policy
	Metrics Metrics
	Logger  *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	resolver *barcode.Resolver
	notifier notify.Notifier
	policy   backoff.Policy
	metrics  Metrics
	logg     *logger.Logger
}

// errRacingInsert marks a barcode unique violation caused by a concurrent
// first scan; the transaction is retried like any other contention.
var errRacingInsert = errors.New("barcode inserted concurrently")

// NewService builds the inventory service with the required dependencies.
func NewService(repo Repository, tx txRunner, resolver *barcode.Resolver, notifier notify.Notifier, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("barcode resolver required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &service{
		repo:     repo,
		tx:       tx,
		resolver: resolver,
		notifier: notifier,
		policy:   opts.Policy,
		metrics:  metrics,
		logg:     opts.Logger,
	}, nil
}

func (s *service) ApplyScan(ctx context.Context, code string) (*ScanResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required").
			WithDetails(map[string]any{"field": "barcode"})
	}

	res := s.resolver.Resolve(code)
	if res.Skip {
		s.metrics.IncScan(string(ActionSkipped))
		s.debug(ctx, "scan.skipped", map[string]any{"barcode": code})
		return &ScanResult{Action: ActionSkipped, Barcode: code, Symbology: barcode.Classify(code)}, nil
	}

	var result ScanResult
	err := s.Write(ctx, "scan", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, action, err := s.applyScan(ctx, repo, code, res.ProductName)
		if err != nil {
			return err
		}
		result = ScanResult{
			Action:      action,
			Barcode:     code,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Symbology:   res.Symbology,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncScan(string(result.Action))
	s.notifier.Notify(ctx, notify.Event{
		Action: string(result.Action),
		Data: notify.Data{
			Barcode:     result.Barcode,
			ProductName: result.ProductName,
			Quantity:    result.Quantity,
		},
	})
	return &result, nil
}

// applyScan increments the row matching code, else the row for productName
// (taking over its barcode), else inserts a new row with quantity 1.
func (s *service) applyScan(ctx context.Context, repo Repository, code, productName string) (*models.InventoryItem, Action, error) {
	item, err := repo.FindByBarcode(ctx, code)
	if err == nil {
		if item.Quantity, err = addStock(item.ProductName, item.Quantity, 1); err != nil {
			return nil, "", err
		}
		if err := repo.Save(ctx, item); err != nil {
			return nil, "", err
		}
		return item, ActionUpdated, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	item, err = repo.FindByProductName(ctx, productName)
	if err == nil {
		if item.Quantity, err = addStock(item.ProductName, item.Quantity, 1); err != nil {
			return nil, "", err
		}
		item.Barcode = &code
		if err := repo.Save(ctx, item); err != nil {
			return nil, "", err
		}
		return item, ActionUpdated, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	item = &models.InventoryItem{Barcode: &code, ProductName: productName, Quantity: 1}
	if err := repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "barcode") {
			return nil, "", fmt.Errorf("%w: %w", errRacingInsert, err)
		}
		return nil, "", err
	}
	return item, ActionAdded, nil
}

func (s *service) AddQuantity(ctx context.Context, productName string, n int) (*models.InventoryItem, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_name is required").
			WithDetails(map[string]any{"field": "product_name"})
	}
	if n < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"field": "quantity"})
	}

	var updated *models.InventoryItem
	err := s.Write(ctx, "add_quantity", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindByProductName(ctx, productName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(productName)
			}
			return err
		}
		if item.Quantity, err = addStock(item.ProductName, item.Quantity, n); err != nil {
			return err
		}
		if err := repo.Save(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Event{
		Action: notify.ActionUpdated,
		Data:   notify.Data{ProductName: updated.ProductName, Quantity: updated.Quantity},
	})
	return updated, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_name is required").
			WithDetails(map[string]any{"field": "product_name"})
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
			WithDetails(map[string]any{"field": "quantity"})
	}
	var code *string
	if input.Barcode != nil {
		if trimmed := strings.TrimSpace(*input.Barcode); trimmed != "" {
			code = &trimmed
		}
	}

	item := &models.InventoryItem{Barcode: code, ProductName: name, Quantity: input.Quantity}
	err := s.Write(ctx, "create_item", func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByProductName(ctx, name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("Casket %s already exists in inventory", name))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if code != nil {
			if _, err := repo.FindByBarcode(ctx, *code); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("barcode %s is already assigned", *code))
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := repo.Create(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "inventory item already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notify.Event{
		Action: notify.ActionAdded,
		Data:   notify.Data{Barcode: item.BarcodeValue(), ProductName: item.ProductName, Quantity: item.Quantity},
	})
	return item, nil
}

func (s *service) List(ctx context.Context, search string) ([]models.InventoryItem, error) {
	items, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, s.classify(ctx, "list", err)
	}
	return items, nil
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error) {
	if threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must not be negative").
			WithDetails(map[string]any{"field": "threshold"})
	}
	items, err := s.repo.LowStock(ctx, threshold)
	if err != nil {
		return nil, s.classify(ctx, "low_stock", err)
	}
	return items, nil
}

func (s *service) Decrement(ctx context.Context, tx *gorm.DB, productName string, n int) (int, error) {
	if n < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"field": "quantity", "product_name": productName})
	}

	repo := s.repo.WithTx(tx)
	item, err := repo.FindByProductName(ctx, productName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, notFound(productName)
		}
		return 0, err
	}

	rows, err := repo.Decrement(ctx, item.ID, n)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for %s. Available: %d", productName, item.Quantity)).
			WithDetails(map[string]any{
				"product_name": productName,
				"available":    item.Quantity,
				"requested":    n,
			})
	}
	return item.Quantity - n, nil
}

func (s *service) Write(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(operation, time.Since(start)) }()

	onRetry := func(attempt int, err error, wait time.Duration) {
		s.metrics.IncRetry(operation)
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"operation": operation,
				"attempt":   attempt,
				"wait_ms":   wait.Milliseconds(),
				"error":     err.Error(),
			})
			s.logg.Warn(logCtx, "inventory.write.contention")
		}
	}

	_, err := s.policy.Do(ctx, isContention, onRetry, func(ctx context.Context, _ int) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).LockForWrite(ctx); err != nil {
				return err
			}
			return fn(tx)
		})
	})
	if err != nil {
		return s.classify(ctx, operation, err)
	}
	return nil
}

// classify maps storage failures onto the public error taxonomy. Typed
// errors raised inside the transaction pass through unchanged.
func (s *service) classify(ctx context.Context, operation string, err error) error {
	var exhausted *backoff.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		s.metrics.IncFailure(operation, "contention")
		return pkgerrors.Wrap(pkgerrors.CodeContention, err, "database busy, please retry").
			WithDetails(exhausted.Err.Error())
	case pkgerrors.As(err) != nil:
		return err
	case isContention(err):
		s.metrics.IncFailure(operation, "contention")
		return pkgerrors.Wrap(pkgerrors.CodeContention, err, "database busy, please retry").
			WithDetails(err.Error())
	default:
		s.metrics.IncFailure(operation, "persistence")
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "failed to persist inventory change").
			WithDetails(err.Error())
	}
}

func (s *service) debug(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Debug(s.logg.WithFields(ctx, fields), msg)
}

func isContention(err error) bool {
	return db.IsContention(err) || errors.Is(err, errRacingInsert)
}

func notFound(productName string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Casket %s not found in inventory", productName)).
		WithDetails(map[string]any{"product_name": productName})
}

// addStock returns current+n, rejecting sums that do not fit in an int.
func addStock(productName string, current, n int) (int, error) {
	if n > math.MaxInt-current {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Quantity for %s would exceed the maximum stock level.", productName)).
			WithDetails(map[string]any{
				"field":        "quantity",
				"product_name": productName,
				"available":    current,
				"requested":    n,
			})
	}
	return current + n, nil
}

type noopMetrics struct{}

func (noopMetrics) IncScan(string)                        {}
func (noopMetrics) IncRetry(string)                       {}
func (noopMetrics) IncFailure(string, string)             {}
func (noopMetrics) ObserveDuration(string, time.Duration) {}
