package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/internal/cart"
	"github.com/marsos-sa/marketplace-backend/internal/checkout/helpers"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
)

type stubCartService struct {
	view     *cart.View
	record   *models.CartRecord
	item     *models.CartItem
	err      error
	lastAdd  cart.AddItemInput
	lastQty  string
	cleared  bool
	removed  uuid.UUID
	couponIn string
}

func (s *stubCartService) GetCart(ctx context.Context, buyerID uuid.UUID, couponCode string) (*cart.View, error) {
	s.couponIn = couponCode
	if s.err != nil {
		return nil, s.err
	}
	if s.view != nil {
		return s.view, nil
	}
	return &cart.View{}, nil
}

func (s *stubCartService) AddItem(ctx context.Context, buyerID uuid.UUID, input cart.AddItemInput) (*models.CartRecord, error) {
	s.lastAdd = input
	if s.err != nil {
		return nil, s.err
	}
	if s.record != nil {
		return s.record, nil
	}
	return &models.CartRecord{ID: uuid.New()}, nil
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, rawQuantity string) (*models.CartItem, error) {
	s.lastQty = rawQuantity
	if s.err != nil {
		return nil, s.err
	}
	if s.item != nil {
		return s.item, nil
	}
	return &models.CartItem{ID: itemID}, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	s.removed = itemID
	return s.err
}

func (s *stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func (s *stubCartService) RemoveSupplierItems(ctx context.Context, buyerID, supplierID uuid.UUID) error {
	return s.err
}

func TestCartFetchReturnsGroupedView(t *testing.T) {
	supplierID := uuid.New()
	price := decimal.RequireFromString("10.00")
	svc := &stubCartService{
		view: &cart.View{
			CartID:        uuid.New(),
			Currency:      enums.CurrencySAR,
			CouponApplied: true,
			Groups: []cart.SupplierGroup{
				{
					SupplierID: supplierID,
					Items: []models.CartItem{
						{
							ID:         uuid.New(),
							ProductID:  uuid.New(),
							SupplierID: supplierID,
							Name:       "Steel pipe",
							Quantity:   3,
							UnitPrice:  decimal.NewNullDecimal(price),
							Currency:   "SAR",
						},
					},
					Totals: helpers.SupplierTotals{
						Subtotal:  decimal.RequireFromString("30.00"),
						Total:     decimal.RequireFromString("34.50"),
						ItemCount: 3,
					},
				},
			},
		},
	}

	req := authedRequest(t, http.MethodGet, "/api/v1/cart?coupon=WELCOME", "", uuid.New())
	resp := httptest.NewRecorder()
	CartFetch(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.couponIn != "WELCOME" {
		t.Fatalf("expected coupon passed through, got %q", svc.couponIn)
	}

	var envelope struct {
		Data cartViewDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Groups) != 1 {
		t.Fatalf("expected 1 supplier group got %d", len(envelope.Data.Groups))
	}
	group := envelope.Data.Groups[0]
	if group.SupplierID != supplierID {
		t.Fatalf("unexpected supplier id %s", group.SupplierID)
	}
	if group.Items[0].UnitPrice == nil || !group.Items[0].UnitPrice.Equal(price) {
		t.Fatalf("expected unit price 10.00 got %v", group.Items[0].UnitPrice)
	}
	if !envelope.Data.CouponApplied {
		t.Fatalf("expected couponApplied true")
	}
}

func TestCartFetchRejectsMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	CartFetch(&stubCartService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemValidatesBody(t *testing.T) {
	svc := &stubCartService{}
	req := authedRequest(t, http.MethodPost, "/api/v1/cart/items", `{"quantity":2}`, uuid.New())
	resp := httptest.NewRecorder()
	CartAddItem(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing productId got %d", resp.Code)
	}
}

func TestCartAddItemCreatesLine(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{record: &models.CartRecord{ID: uuid.New(), Items: []models.CartItem{{}, {}}}}
	body := `{"productId":"` + productID.String() + `","quantity":4,"color":"red","deliveryLocation":"Riyadh"}`
	req := authedRequest(t, http.MethodPost, "/api/v1/cart/items", body, uuid.New())
	resp := httptest.NewRecorder()
	CartAddItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Quantity != 4 {
		t.Fatalf("unexpected add input %+v", svc.lastAdd)
	}
	if svc.lastAdd.DeliveryLocation != "Riyadh" {
		t.Fatalf("expected delivery location Riyadh got %q", svc.lastAdd.DeliveryLocation)
	}
}

func TestCartUpdateQuantityPassesRawText(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{item: &models.CartItem{ID: itemID, Quantity: 7}}
	req := authedRequest(t, http.MethodPut, "/api/v1/cart/items/"+itemID.String()+"/quantity", `{"quantity":"7"}`, uuid.New())
	req = withURLParam(req, "itemID", itemID.String())
	resp := httptest.NewRecorder()
	CartUpdateItemQuantity(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.lastQty != "7" {
		t.Fatalf("expected raw quantity %q got %q", "7", svc.lastQty)
	}
}

func TestCartUpdateQuantityRejectsBadItemID(t *testing.T) {
	req := authedRequest(t, http.MethodPut, "/api/v1/cart/items/not-a-uuid/quantity", `{"quantity":"2"}`, uuid.New())
	req = withURLParam(req, "itemID", "not-a-uuid")
	resp := httptest.NewRecorder()
	CartUpdateItemQuantity(&stubCartService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemReportsRemoval(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{}
	req := authedRequest(t, http.MethodDelete, "/api/v1/cart/items/"+itemID.String(), "", uuid.New())
	req = withURLParam(req, "itemID", itemID.String())
	resp := httptest.NewRecorder()
	CartRemoveItem(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.removed != itemID {
		t.Fatalf("expected removal of %s got %s", itemID, svc.removed)
	}
}

func TestCartClearEmptiesCart(t *testing.T) {
	svc := &stubCartService{}
	req := authedRequest(t, http.MethodDelete, "/api/v1/cart", "", uuid.New())
	resp := httptest.NewRecorder()
	CartClear(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatalf("expected clear to be invoked")
	}
}

func TestCartQuoteRequiresCouponCode(t *testing.T) {
	req := authedRequest(t, http.MethodPost, "/api/v1/cart/quote", `{}`, uuid.New())
	resp := httptest.NewRecorder()
	CartQuote(&stubCartService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing couponCode got %d", resp.Code)
	}
}
