package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/angelmondragon/caskettrack/internal/orders"
	"github.com/angelmondragon/caskettrack/pkg/db/models"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
)

type stubOrdersService struct {
	place     func(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.Order, error)
	summarize func(input internalorders.PlaceOrderInput) (*internalorders.Order, error)
	slip      func(ctx context.Context, ref uuid.UUID) (*internalorders.Order, error)
	recent    func(ctx context.Context, filter internalorders.PurchaseFilter) ([]models.Purchase, error)
}

func (s stubOrdersService) PlaceOrder(ctx context.Context, input internalorders.PlaceOrderInput) (*internalorders.Order, error) {
	return s.place(ctx, input)
}

func (s stubOrdersService) Summarize(input internalorders.PlaceOrderInput) (*internalorders.Order, error) {
	return s.summarize(input)
}

func (s stubOrdersService) Slip(ctx context.Context, ref uuid.UUID) (*internalorders.Order, error) {
	return s.slip(ctx, ref)
}

func (s stubOrdersService) RecentPurchases(ctx context.Context, filter internalorders.PurchaseFilter) ([]models.Purchase, error) {
	return s.recent(ctx, filter)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestPlaceReturnsCreated(t *testing.T) {
	ref := uuid.New()
	var got internalorders.PlaceOrderInput
	svc := stubOrdersService{place: func(_ context.Context, input internalorders.PlaceOrderInput) (*internalorders.Order, error) {
		got = input
		return &internalorders.Order{Ref: &ref, Customer: input.Customer}, nil
	}}

	body := `{"customer":"Hillside","items":[{"product_name":"Roseboro","quantity":2}]}`
	resp := httptest.NewRecorder()
	Place(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.Customer != "Hillside" || len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected input %+v", got)
	}
	var payload struct {
		Data struct {
			OrderRef string `json:"order_ref"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.OrderRef != ref.String() {
		t.Fatalf("expected order ref %s got %s", ref, payload.Data.OrderRef)
	}
}

func TestPlaceRejectsInvalidBody(t *testing.T) {
	svc := stubOrdersService{place: func(context.Context, internalorders.PlaceOrderInput) (*internalorders.Order, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	resp := httptest.NewRecorder()
	Place(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"customer":"Hillside","items":[]}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPlaceSurfacesInsufficientStock(t *testing.T) {
	svc := stubOrdersService{place: func(context.Context, internalorders.PlaceOrderInput) (*internalorders.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for Roseboro. Available: 1").
			WithDetails(map[string]any{"product_name": "Roseboro", "available": 1})
	}}

	body := `{"customer":"Hillside","items":[{"product_name":"Roseboro","quantity":2}]}`
	resp := httptest.NewRecorder()
	Place(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error   string         `json:"error"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != string(pkgerrors.CodeInsufficientStock) || payload.Error != "Insufficient stock for Roseboro. Available: 1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Details["available"] != float64(1) {
		t.Fatalf("expected available detail, got %v", payload.Details)
	}
}

func TestSummary(t *testing.T) {
	svc := stubOrdersService{summarize: func(input internalorders.PlaceOrderInput) (*internalorders.Order, error) {
		return &internalorders.Order{Customer: input.Customer, Slip: "Order Summary\n"}, nil
	}}

	body := `{"customer":"Hillside","items":[{"product_name":"Roseboro","quantity":1}]}`
	resp := httptest.NewRecorder()
	Summary(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders/summary", strings.NewReader(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"slip":"Order Summary\n"`) {
		t.Fatalf("expected slip in body, got %s", resp.Body.String())
	}
}

func TestSlipWritesPlainText(t *testing.T) {
	ref := uuid.New()
	svc := stubOrdersService{slip: func(_ context.Context, got uuid.UUID) (*internalorders.Order, error) {
		if got != ref {
			t.Fatalf("unexpected ref %s", got)
		}
		return &internalorders.Order{Slip: "Order Summary\nCustomer: Hillside\n"}, nil
	}}

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+ref.String()+"/slip", nil), "orderRef", ref.String())
	resp := httptest.NewRecorder()
	Slip(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %s", ct)
	}
	if resp.Body.String() != "Order Summary\nCustomer: Hillside\n" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestSlipRejectsInvalidRef(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope/slip", nil), "orderRef", "nope")
	resp := httptest.NewRecorder()
	Slip(stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPurchasesParsesFilters(t *testing.T) {
	var got internalorders.PurchaseFilter
	svc := stubOrdersService{recent: func(_ context.Context, filter internalorders.PurchaseFilter) ([]models.Purchase, error) {
		got = filter
		return []models.Purchase{{OrderRef: uuid.New(), Customer: "Hillside", ProductName: "Roseboro", Quantity: 1, PurchasedAt: time.Now()}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases?customer=Hillside,Oakwood&product=Roseboro&days=7", nil)
	resp := httptest.NewRecorder()
	Purchases(svc, 30, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Days != 7 || len(got.Customers) != 2 || len(got.Products) != 1 {
		t.Fatalf("unexpected filter %+v", got)
	}

	resp = httptest.NewRecorder()
	Purchases(svc, 30, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/purchases", nil))
	if got.Days != 30 {
		t.Fatalf("expected default window, got %d", got.Days)
	}
}
