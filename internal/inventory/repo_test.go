package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/caskettrack/pkg/db"
	"github.com/angelmondragon/caskettrack/pkg/db/models"
	"gorm.io/gorm"
)

func TestRepository_DecrementGuardsStock(t *testing.T) {
	client := newTestDB(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	item := &models.InventoryItem{ProductName: "Silver Rose", Quantity: 2}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := repo.Decrement(ctx, item.ID, 3)
	if err != nil || rows != 0 {
		t.Fatalf("expected guarded decrement to touch no rows, rows=%d err=%v", rows, err)
	}
	rows, err = repo.Decrement(ctx, item.ID, 2)
	if err != nil || rows != 1 {
		t.Fatalf("expected decrement to touch one row, rows=%d err=%v", rows, err)
	}

	got, err := repo.FindByProductName(ctx, "Silver Rose")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", got.Quantity)
	}
}

func TestRepository_FindMissingReturnsRecordNotFound(t *testing.T) {
	client := newTestDB(t)
	repo := NewRepository(client.DB())

	if _, err := repo.FindByBarcode(context.Background(), "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
	if _, err := repo.FindByProductName(context.Background(), "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestRepository_BarcodeUnique(t *testing.T) {
	client := newTestDB(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	code := "21047700"
	if err := repo.Create(ctx, &models.InventoryItem{Barcode: &code, ProductName: "Silver Rose", Quantity: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, &models.InventoryItem{Barcode: &code, ProductName: "Silver Rose", Quantity: 1})
	if !db.IsUniqueViolation(err, "barcode") {
		t.Fatalf("expected barcode unique violation, got %v", err)
	}
}

func TestRepository_LockForWriteIsNoopOnSQLite(t *testing.T) {
	client := newTestDB(t)
	repo := NewRepository(client.DB())

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return repo.WithTx(tx).LockForWrite(context.Background())
	})
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
}
