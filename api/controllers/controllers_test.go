package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/angelmondragon/caskettrack/internal/barcode"
	"github.com/angelmondragon/caskettrack/internal/inventory"
	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/angelmondragon/caskettrack/pkg/db/models"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
)

type stubInventoryService struct {
	applyScan   func(ctx context.Context, code string) (*inventory.ScanResult, error)
	addQuantity func(ctx context.Context, name string, n int) (*models.InventoryItem, error)
	createItem  func(ctx context.Context, input inventory.CreateItemInput) (*models.InventoryItem, error)
	list        func(ctx context.Context, search string) ([]models.InventoryItem, error)
	lowStock    func(ctx context.Context, threshold int) ([]models.InventoryItem, error)
}

func (s stubInventoryService) ApplyScan(ctx context.Context, code string) (*inventory.ScanResult, error) {
	return s.applyScan(ctx, code)
}

func (s stubInventoryService) AddQuantity(ctx context.Context, name string, n int) (*models.InventoryItem, error) {
	return s.addQuantity(ctx, name, n)
}

func (s stubInventoryService) CreateItem(ctx context.Context, input inventory.CreateItemInput) (*models.InventoryItem, error) {
	return s.createItem(ctx, input)
}

func (s stubInventoryService) List(ctx context.Context, search string) ([]models.InventoryItem, error) {
	return s.list(ctx, search)
}

func (s stubInventoryService) LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error) {
	return s.lowStock(ctx, threshold)
}

func (s stubInventoryService) Decrement(context.Context, *gorm.DB, string, int) (int, error) {
	panic("not implemented")
}

func (s stubInventoryService) Write(context.Context, string, func(tx *gorm.DB) error) error {
	panic("not implemented")
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func decodeMap(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
	return out
}

func TestScanSuccess(t *testing.T) {
	svc := stubInventoryService{applyScan: func(_ context.Context, code string) (*inventory.ScanResult, error) {
		return &inventory.ScanResult{
			Action:      inventory.ActionAdded,
			Barcode:     code,
			ProductName: "Roseboro",
			Quantity:    1,
			Symbology:   barcode.EAN8,
		}, nil
	}}

	resp := httptest.NewRecorder()
	Scan(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(`{"barcode":"21065412","device":"iphone"}`)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := decodeMap(t, resp)
	if body["status"] != "success" || body["action"] != "added" || body["barcode_type"] != "EAN-8" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["product_name"] != "Roseboro" || body["quantity"] != float64(1) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestScanSkippedOmitsProduct(t *testing.T) {
	svc := stubInventoryService{applyScan: func(_ context.Context, code string) (*inventory.ScanResult, error) {
		return &inventory.ScanResult{Action: inventory.ActionSkipped, Barcode: code, Symbology: barcode.Code128}, nil
	}}

	resp := httptest.NewRecorder()
	Scan(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(`{"barcode":"NLS0006010"}`)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := decodeMap(t, resp)
	if body["action"] != "skipped" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["product_name"]; ok {
		t.Fatalf("expected product_name omitted, got %v", body)
	}
}

func TestScanRejectsBadBodies(t *testing.T) {
	svc := stubInventoryService{applyScan: func(context.Context, string) (*inventory.ScanResult, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	for _, body := range []string{`{}`, `{"barcode":null}`, `{"barcode":12345}`, `not json`} {
		resp := httptest.NewRecorder()
		Scan(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(body)))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, resp.Code)
		}
		payload := decodeMap(t, resp)
		if payload["code"] != string(pkgerrors.CodeValidation) || payload["error"] == "" {
			t.Fatalf("body %s: unexpected payload %v", body, payload)
		}
	}
}

func TestScanContentionIs500(t *testing.T) {
	svc := stubInventoryService{applyScan: func(context.Context, string) (*inventory.ScanResult, error) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeContention, errors.New("database is locked"), "database busy, please retry").
			WithDetails("database is locked")
	}}

	resp := httptest.NewRecorder()
	Scan(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(`{"barcode":"21065412"}`)))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	body := decodeMap(t, resp)
	if body["code"] != string(pkgerrors.CodeContention) || body["details"] != "database is locked" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestInventoryListFlagsLowStock(t *testing.T) {
	var search string
	svc := stubInventoryService{list: func(_ context.Context, s string) ([]models.InventoryItem, error) {
		search = s
		return []models.InventoryItem{
			{ID: 1, ProductName: "Roseboro", Quantity: 1},
			{ID: 2, ProductName: "Silver Rose", Quantity: 9},
		}, nil
	}}

	resp := httptest.NewRecorder()
	InventoryList(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory?search=%20Roseboro%20", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if search != "Roseboro" {
		t.Fatalf("expected trimmed search, got %q", search)
	}
	var payload struct {
		Data []inventory.ItemDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Data) != 2 || !payload.Data[0].LowStock || payload.Data[1].LowStock {
		t.Fatalf("unexpected items %+v", payload.Data)
	}
}

func TestInventoryCreate(t *testing.T) {
	svc := stubInventoryService{createItem: func(_ context.Context, input inventory.CreateItemInput) (*models.InventoryItem, error) {
		return &models.InventoryItem{ID: 3, ProductName: input.ProductName, Quantity: input.Quantity, Barcode: input.Barcode}, nil
	}}

	resp := httptest.NewRecorder()
	body := `{"product_name":"Masterpiece","quantity":4,"barcode":"1101281"}`
	InventoryCreate(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	InventoryCreate(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(`{"quantity":4}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestInventoryAddQuantityNotFound(t *testing.T) {
	svc := stubInventoryService{addQuantity: func(_ context.Context, name string, n int) (*models.InventoryItem, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Casket "+name+" not found in inventory")
	}}

	resp := httptest.NewRecorder()
	body := `{"product_name":"Masterpiece","quantity":2}`
	InventoryAddQuantity(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/add-quantity", strings.NewReader(body)))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if got := decodeMap(t, resp)["error"]; got != "Casket Masterpiece not found in inventory" {
		t.Fatalf("unexpected error message %v", got)
	}
}

func TestInventoryAlertsThreshold(t *testing.T) {
	var got int
	svc := stubInventoryService{lowStock: func(_ context.Context, threshold int) ([]models.InventoryItem, error) {
		got = threshold
		return nil, nil
	}}

	resp := httptest.NewRecorder()
	InventoryAlerts(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/alerts", nil))
	if resp.Code != http.StatusOK || got != 2 {
		t.Fatalf("expected default threshold 2, got %d (status %d)", got, resp.Code)
	}

	resp = httptest.NewRecorder()
	InventoryAlerts(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/alerts?threshold=5", nil))
	if got != 5 {
		t.Fatalf("expected threshold 5, got %d", got)
	}

	resp = httptest.NewRecorder()
	InventoryAlerts(svc, 2, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/alerts?threshold=-1", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative threshold, got %d", resp.Code)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get(envHeader) != "test" {
		t.Fatalf("expected env header")
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, stubPinger{}, stubPinger{err: errors.New("refused")}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
