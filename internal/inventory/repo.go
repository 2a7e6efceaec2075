package inventory

import (
	"context"
	"time"

	"github.com/angelmondragon/caskettrack/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the inventory_items table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockForWrite(ctx context.Context) error
	FindByBarcode(ctx context.Context, barcode string) (*models.InventoryItem, error)
	FindByProductName(ctx context.Context, productName string) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Save(ctx context.Context, item *models.InventoryItem) error
	Decrement(ctx context.Context, id uint, n int) (int64, error)
	List(ctx context.Context, search string) ([]models.InventoryItem, error)
	LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockForWrite serializes inventory writers on Postgres. SQLite transactions
// already start with BEGIN IMMEDIATE.
func (r *repository) LockForWrite(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).Exec("LOCK TABLE inventory_items IN SHARE ROW EXCLUSIVE MODE").Error
}

// FindByBarcode returns gorm.ErrRecordNotFound when no row carries barcode.
func (r *repository) FindByBarcode(ctx context.Context, barcode string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByProductName returns the oldest row for productName.
func (r *repository) FindByProductName(ctx context.Context, productName string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_name = ?", productName).
		Order("id ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Save(ctx context.Context, item *models.InventoryItem) error {
	item.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(item).
		Select("barcode", "quantity", "updated_at").
		Updates(item).Error
}

// Decrement subtracts n from row id when at least n units remain and reports
// the affected row count.
func (r *repository) Decrement(ctx context.Context, id uint, n int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND quantity >= ?", id, n).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", n),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context, search string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if search != "" {
		q = q.Where("product_name = ?", search)
	}
	if err := q.Order("product_name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("quantity <= ?", threshold).
		Order("quantity ASC, product_name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
