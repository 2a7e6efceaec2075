package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the purchases table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePurchases(ctx context.Context, rows []models.Purchase) error
	FindByOrderRef(ctx context.Context, ref uuid.UUID) ([]models.Purchase, error)
	ListSince(ctx context.Context, since time.Time, customers, products []string) ([]models.Purchase, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePurchases(ctx context.Context, rows []models.Purchase) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByOrderRef returns the lines of one order in insertion order.
func (r *repository) FindByOrderRef(ctx context.Context, ref uuid.UUID) ([]models.Purchase, error) {
	var rows []models.Purchase
	if err := r.db.WithContext(ctx).Where("order_ref = ?", ref).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSince returns purchases at or after since, newest first.
func (r *repository) ListSince(ctx context.Context, since time.Time, customers, products []string) ([]models.Purchase, error) {
	q := r.db.WithContext(ctx).Where("purchased_at >= ?", since.UTC())
	if len(customers) > 0 {
		q = q.Where("customer IN ?", customers)
	}
	if len(products) > 0 {
		q = q.Where("product_name IN ?", products)
	}

	var rows []models.Purchase
	if err := q.Order("purchased_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
