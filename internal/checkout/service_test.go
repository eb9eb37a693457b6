package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marsos-sa/marketplace-backend/internal/cart"
	"github.com/marsos-sa/marketplace-backend/internal/coupons"
	"github.com/marsos-sa/marketplace-backend/internal/notifications"
	"github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/gopay"
	"github.com/marsos-sa/marketplace-backend/pkg/hyperpay"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox"
	"github.com/marsos-sa/marketplace-backend/pkg/pagination"
)

type noopTx struct{}

func (noopTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range f.events {
		if existing.EventType == event.EventType &&
			existing.AggregateType == event.AggregateType &&
			existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	return f.Emit(ctx, tx, event)
}

func (f *fakeOutbox) countByType(eventType enums.OutboxEventType) int {
	count := 0
	for _, event := range f.events {
		if event.EventType == eventType {
			count++
		}
	}
	return count
}

type fakeCartRepo struct {
	record    *models.CartRecord
	converted bool
}

func (f *fakeCartRepo) WithTx(_ *gorm.DB) cart.CartRepository { return f }

func (f *fakeCartRepo) Create(_ context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	f.record = record
	return record, nil
}

func (f *fakeCartRepo) FindActiveByBuyer(_ context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if f.record == nil || f.record.BuyerID != buyerID || f.converted {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.record
	clone.Items = append([]models.CartItem(nil), f.record.Items...)
	return &clone, nil
}

func (f *fakeCartRepo) FindItem(_ context.Context, _, itemID uuid.UUID) (*models.CartItem, error) {
	for _, item := range f.record.Items {
		if item.ID == itemID {
			found := item
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) CreateItem(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	f.record.Items = append(f.record.Items, *item)
	return item, nil
}

func (f *fakeCartRepo) UpdateItem(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	for i := range f.record.Items {
		if f.record.Items[i].ID == item.ID {
			f.record.Items[i] = *item
		}
	}
	return item, nil
}

func (f *fakeCartRepo) DeleteItem(_ context.Context, _, itemID uuid.UUID) error {
	return f.deleteWhere(func(item models.CartItem) bool { return item.ID == itemID })
}

func (f *fakeCartRepo) DeleteItems(_ context.Context, _ uuid.UUID) error {
	f.record.Items = nil
	return nil
}

func (f *fakeCartRepo) DeleteSupplierItems(_ context.Context, _, supplierID uuid.UUID) error {
	return f.deleteWhere(func(item models.CartItem) bool { return item.SupplierID == supplierID })
}

func (f *fakeCartRepo) deleteWhere(match func(models.CartItem) bool) error {
	kept := f.record.Items[:0]
	for _, item := range f.record.Items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	f.record.Items = kept
	return nil
}

func (f *fakeCartRepo) CountItems(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(f.record.Items)), nil
}

func (f *fakeCartRepo) MarkConverted(_ context.Context, _ uuid.UUID) error {
	f.converted = true
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*models.Order
	nextNo int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[uuid.UUID]*models.Order{}, nextNo: 1000}
}

func (f *fakeOrderRepo) WithTx(_ *gorm.DB) orders.Repository { return f }

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	f.nextNo++
	clone := *order
	clone.OrderNumber = f.nextNo
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	f.orders[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) FindByBillNumber(_ context.Context, billNumber string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.BillNumber != nil && *order.BillNumber == billNumber {
			clone := *order
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) ListByBuyer(_ context.Context, _ uuid.UUID, _ pagination.Params, _ orders.Filters) (*orders.List, error) {
	return &orders.List{}, nil
}

func (f *fakeOrderRepo) ListPendingSadad(_ context.Context, _ int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ListOverdue(_ context.Context, _ time.Time, _ int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, orderID uuid.UUID, updates map[string]any) error {
	order, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "result_code":
			code := value.(string)
			order.ResultCode = &code
		case "failure_reason":
			reason := value.(string)
			order.FailureReason = &reason
		case "checkout_session_id":
			id := value.(string)
			order.CheckoutSessionID = &id
		case "paid_at":
			at := value.(time.Time)
			order.PaidAt = &at
		case "approved_at":
			at := value.(time.Time)
			order.ApprovedAt = &at
		}
	}
	return nil
}

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

type fakeGopay struct {
	requests []gopay.InvoiceRequest
	err      error
	seq      int
}

func (f *fakeGopay) CreateInvoice(_ context.Context, req gopay.InvoiceRequest) (*gopay.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	f.seq++
	return &gopay.Invoice{
		BillNumber:  fmt.Sprintf("B-%d", f.seq),
		SadadNumber: fmt.Sprintf("S-%d", f.seq),
	}, nil
}

type fakeHyperpay struct {
	session    *hyperpay.Session
	sessionErr error
	verify     *hyperpay.VerifyResult
	verifyErr  error
	verifies   int
}

func (f *fakeHyperpay) CreateCheckoutSession(_ context.Context, _ hyperpay.SessionRequest) (*hyperpay.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeHyperpay) VerifyPayment(_ context.Context, _ string) (*hyperpay.VerifyResult, error) {
	f.verifies++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verify, nil
}

type fakeNotifier struct {
	inputs []notifications.EnqueueInput
	err    error
}

func (f *fakeNotifier) Enqueue(_ context.Context, _ *gorm.DB, input notifications.EnqueueInput) (*models.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &models.Notification{ID: uuid.New()}, nil
}

type checkoutFixture struct {
	svc       Service
	carts     *fakeCartRepo
	orderRepo *fakeOrderRepo
	outbox    *fakeOutbox
	gopay     *fakeGopay
	hyperpay  *fakeHyperpay
	notifier  *fakeNotifier
	buyer     *models.User
}

func newCheckoutFixture(t *testing.T, record *models.CartRecord) *checkoutFixture {
	t.Helper()

	orderRepo := newFakeOrderRepo()
	publisher := &fakeOutbox{}
	lifecycle, err := orders.NewService(orderRepo, noopTx{}, publisher, 3*24*time.Hour)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}

	phone := "+966512345678"
	buyer := &models.User{
		ID:    record.BuyerID,
		Email: "buyer@example.com",
		Name:  "Buyer One",
		Phone: &phone,
	}

	fixture := &checkoutFixture{
		carts:     &fakeCartRepo{record: record},
		orderRepo: orderRepo,
		outbox:    publisher,
		gopay:     &fakeGopay{},
		hyperpay:  &fakeHyperpay{session: &hyperpay.Session{ID: "chk-1", ResourcePath: "/v1/checkouts/chk-1/payment"}},
		notifier:  &fakeNotifier{},
		buyer:     buyer,
	}

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(
		fixture.carts,
		orderRepo,
		lifecycle,
		&fakeUsers{user: buyer},
		coupons.NewStaticValidator(),
		fixture.gopay,
		fixture.hyperpay,
		fixture.notifier,
		publisher,
		noopTx{},
		logg,
		7*24*time.Hour,
		"Marsos Marketplace",
	)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func priced(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}

func cartLine(supplierID uuid.UUID, name, price string, qty int, shipping string) models.CartItem {
	return models.CartItem{
		ID:               uuid.New(),
		ProductID:        uuid.New(),
		SupplierID:       supplierID,
		Name:             name,
		DeliveryLocation: "riyadh",
		Quantity:         qty,
		UnitPrice:        priced(price),
		ShippingCost:     priced(shipping),
		Currency:         "SAR",
	}
}

func twoSupplierCart(buyerID uuid.UUID) *models.CartRecord {
	supplierA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	supplierB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	return &models.CartRecord{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.CartStatusActive,
		Items: []models.CartItem{
			cartLine(supplierA, "Rebar Bundle", "20.00", 10, "10.00"),
			cartLine(supplierB, "Cement Bag", "25.00", 4, "0.00"),
		},
	}
}

func TestStartSadadCheckoutCreatesOrderPerSupplier(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))

	result, err := fixture.svc.StartSadadCheckout(context.Background(), buyerID, CheckoutInput{})
	if err != nil {
		t.Fatalf("StartSadadCheckout: %v", err)
	}
	if len(result.Invoices) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(result.Invoices))
	}

	// Supplier A: 20*10 + 10 shipping, VAT 15% = 31.50, total 241.50.
	first := result.Invoices[0]
	if first.BillNumber == "" || first.SadadNumber == "" {
		t.Fatalf("invoice numbers missing: %+v", first)
	}
	if got := first.TotalAmount.StringFixed(2); got != "241.50" {
		t.Fatalf("supplier A total = %s, want 241.50", got)
	}
	// Supplier B: 25*4, VAT 15% = 15.00, total 115.00.
	if got := result.Invoices[1].TotalAmount.StringFixed(2); got != "115.00" {
		t.Fatalf("supplier B total = %s, want 115.00", got)
	}

	order, err := fixture.orderRepo.FindByID(context.Background(), first.OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("order status = %s, want pending", order.Status)
	}
	if order.SupplierID == nil || order.BillNumber == nil || order.SadadNumber == nil {
		t.Fatal("sadad order must carry supplier and invoice numbers")
	}
	if order.ExpiresAt == nil {
		t.Fatal("sadad order must carry an expiry")
	}
	wantExpiry := time.Now().UTC().Add(7 * 24 * time.Hour)
	if diff := order.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expiry %s not near %s", order.ExpiresAt, wantExpiry)
	}
	if len(order.Items) != 1 {
		t.Fatalf("order snapshot lines = %d, want 1", len(order.Items))
	}

	if !fixture.carts.converted {
		t.Fatal("cart should be converted after all groups checked out")
	}
	if got := fixture.outbox.countByType(enums.EventOrderCreated); got != 2 {
		t.Fatalf("order created events = %d, want 2", got)
	}
	if got := fixture.outbox.countByType(enums.EventCartConverted); got != 1 {
		t.Fatalf("cart converted events = %d, want 1", got)
	}
	if len(fixture.notifier.inputs) != 2 {
		t.Fatalf("notifications = %d, want 2", len(fixture.notifier.inputs))
	}
	if fixture.notifier.inputs[0].Channel != enums.NotificationChannelWhatsApp {
		t.Fatalf("notification channel = %s, want whatsapp", fixture.notifier.inputs[0].Channel)
	}
}

func TestStartSadadCheckoutInvoiceCarriesShippingAndDiscount(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	supplierID := uuid.New()
	record := &models.CartRecord{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.CartStatusActive,
		Items: []models.CartItem{
			cartLine(supplierID, "Rebar Bundle", "20.00", 10, "10.00"),
		},
	}
	fixture := newCheckoutFixture(t, record)

	result, err := fixture.svc.StartSadadCheckout(context.Background(), buyerID, CheckoutInput{CouponCode: "SAVE20"})
	if err != nil {
		t.Fatalf("StartSadadCheckout: %v", err)
	}
	if got := result.Invoices[0].TotalAmount.StringFixed(2); got != "221.50" {
		t.Fatalf("discounted total = %s, want 221.50", got)
	}

	if len(fixture.gopay.requests) != 1 {
		t.Fatalf("invoice requests = %d, want 1", len(fixture.gopay.requests))
	}
	req := fixture.gopay.requests[0]
	if len(req.BillItemList) != 2 {
		t.Fatalf("bill items = %d, want product plus shipping", len(req.BillItemList))
	}
	if !req.BillItemList[0].Discount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("first line discount = %s, want 20", req.BillItemList[0].Discount)
	}
	shipping := req.BillItemList[1]
	if shipping.Name != "Shipping Fee" || !shipping.VAT.IsZero() {
		t.Fatalf("shipping line wrong: %+v", shipping)
	}
	if req.CustomerIDType != enums.CustomerIDTypeNational {
		t.Fatalf("customer id type = %s, want NAT", req.CustomerIDType)
	}
}

func TestStartSadadCheckoutGatewayFailureLeavesNoOrder(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))
	fixture.gopay.err = pkgerrors.New(pkgerrors.CodeGateway, "gateway returned incomplete invoice numbers")

	_, err := fixture.svc.StartSadadCheckout(context.Background(), buyerID, CheckoutInput{})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(fixture.orderRepo.orders) != 0 {
		t.Fatalf("orders persisted = %d, want 0", len(fixture.orderRepo.orders))
	}
	if len(fixture.carts.record.Items) != 2 {
		t.Fatal("cart lines must remain after a failed invoice")
	}
}

func TestStartSadadCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	record := &models.CartRecord{ID: uuid.New(), BuyerID: buyerID, Status: enums.CartStatusActive}
	fixture := newCheckoutFixture(t, record)

	_, err := fixture.svc.StartSadadCheckout(context.Background(), buyerID, CheckoutInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartSadadCheckoutBlocksUnpricedLines(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	supplierID := uuid.New()
	broken := cartLine(supplierID, "Ghost Product", "10.00", 1, "0.00")
	broken.UnitPrice = decimal.NullDecimal{}
	record := &models.CartRecord{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.CartStatusActive,
		Items:   []models.CartItem{broken},
	}
	fixture := newCheckoutFixture(t, record)

	_, err := fixture.svc.StartSadadCheckout(context.Background(), buyerID, CheckoutInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fixture.gopay.requests) != 0 {
		t.Fatal("gateway must not be called for an unpriced cart")
	}
}

func TestStartCardCheckoutOpensSession(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))

	session, err := fixture.svc.StartCardCheckout(context.Background(), buyerID, CheckoutInput{})
	if err != nil {
		t.Fatalf("StartCardCheckout: %v", err)
	}
	if session.CheckoutID != "chk-1" {
		t.Fatalf("checkout id = %s, want chk-1", session.CheckoutID)
	}
	// Whole cart: 241.50 + 115.00.
	if got := session.TotalAmount.StringFixed(2); got != "356.50" {
		t.Fatalf("session total = %s, want 356.50", got)
	}

	order, err := fixture.orderRepo.FindByID(context.Background(), session.OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		t.Fatalf("order status = %s, want awaiting_payment", order.Status)
	}
	if order.SupplierID != nil {
		t.Fatal("card order covers the whole cart and has no supplier")
	}
	if order.CheckoutSessionID == nil || *order.CheckoutSessionID != "chk-1" {
		t.Fatal("checkout session id not stored")
	}
	if len(order.Items) != 2 {
		t.Fatalf("order snapshot lines = %d, want 2", len(order.Items))
	}
}

func TestStartCardCheckoutSessionFailureFailsOrder(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))
	fixture.hyperpay.sessionErr = errors.New("entity rejected")

	_, err := fixture.svc.StartCardCheckout(context.Background(), buyerID, CheckoutInput{})
	if err == nil {
		t.Fatal("expected session error")
	}

	if len(fixture.orderRepo.orders) != 1 {
		t.Fatalf("orders persisted = %d, want 1", len(fixture.orderRepo.orders))
	}
	for _, order := range fixture.orderRepo.orders {
		if order.Status != enums.OrderStatusFailed {
			t.Fatalf("order status = %s, want failed", order.Status)
		}
	}
}

func TestVerifyCardPaymentSuccess(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))
	fixture.hyperpay.verify = &hyperpay.VerifyResult{Code: "000.100.110", Description: "Request successfully processed"}

	session, err := fixture.svc.StartCardCheckout(context.Background(), buyerID, CheckoutInput{})
	if err != nil {
		t.Fatalf("StartCardCheckout: %v", err)
	}

	verification, err := fixture.svc.VerifyCardPayment(context.Background(), buyerID, session.OrderID, session.ResourcePath)
	if err != nil {
		t.Fatalf("VerifyCardPayment: %v", err)
	}
	if !verification.Paid || verification.Status != enums.OrderStatusPaid {
		t.Fatalf("verification = %+v, want paid", verification)
	}

	order, err := fixture.orderRepo.FindByID(context.Background(), session.OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.PaidAt == nil || order.ResultCode == nil || *order.ResultCode != "000.100.110" {
		t.Fatalf("paid order missing audit fields: %+v", order)
	}
	if !fixture.carts.converted {
		t.Fatal("cart should be converted after a settled payment")
	}
	if got := fixture.outbox.countByType(enums.EventOrderPaid); got != 1 {
		t.Fatalf("order paid events = %d, want 1", got)
	}

	// Re-verifying is idempotent and skips the gateway.
	before := fixture.hyperpay.verifies
	again, err := fixture.svc.VerifyCardPayment(context.Background(), buyerID, session.OrderID, session.ResourcePath)
	if err != nil {
		t.Fatalf("second VerifyCardPayment: %v", err)
	}
	if !again.Paid {
		t.Fatal("second verification should report paid")
	}
	if fixture.hyperpay.verifies != before {
		t.Fatal("second verification must not hit the gateway")
	}
}

func TestVerifyCardPaymentDecline(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))
	fixture.hyperpay.verify = &hyperpay.VerifyResult{Code: "800.100.100", Description: "transaction declined"}

	session, err := fixture.svc.StartCardCheckout(context.Background(), buyerID, CheckoutInput{})
	if err != nil {
		t.Fatalf("StartCardCheckout: %v", err)
	}

	verification, err := fixture.svc.VerifyCardPayment(context.Background(), buyerID, session.OrderID, session.ResourcePath)
	if err != nil {
		t.Fatalf("VerifyCardPayment: %v", err)
	}
	if verification.Paid || verification.Status != enums.OrderStatusFailed {
		t.Fatalf("verification = %+v, want failed", verification)
	}

	order, err := fixture.orderRepo.FindByID(context.Background(), session.OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.FailureReason == nil || *order.FailureReason != "transaction declined" {
		t.Fatalf("failure reason not recorded: %+v", order)
	}
	if fixture.carts.converted {
		t.Fatal("cart must stay active after a declined payment")
	}
	if got := fixture.outbox.countByType(enums.EventOrderFailed); got != 1 {
		t.Fatalf("order failed events = %d, want 1", got)
	}
}

func TestVerifyCardPaymentEmptyResultCodeFailsOrder(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))
	fixture.hyperpay.verify = &hyperpay.VerifyResult{Description: "no payment session found"}

	session, err := fixture.svc.StartCardCheckout(context.Background(), buyerID, CheckoutInput{})
	if err != nil {
		t.Fatalf("StartCardCheckout: %v", err)
	}

	verification, err := fixture.svc.VerifyCardPayment(context.Background(), buyerID, session.OrderID, session.ResourcePath)
	if err != nil {
		t.Fatalf("VerifyCardPayment: %v", err)
	}
	if verification.Paid || verification.Status != enums.OrderStatusFailed {
		t.Fatalf("verification = %+v, want failed", verification)
	}

	order, err := fixture.orderRepo.FindByID(context.Background(), session.OrderID)
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusFailed {
		t.Fatalf("order status = %s, want failed when the gateway omits a result code", order.Status)
	}
}

func TestVerifyCardPaymentForeignBuyer(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	fixture := newCheckoutFixture(t, twoSupplierCart(buyerID))
	fixture.hyperpay.verify = &hyperpay.VerifyResult{Code: "000.000.000"}

	session, err := fixture.svc.StartCardCheckout(context.Background(), buyerID, CheckoutInput{})
	if err != nil {
		t.Fatalf("StartCardCheckout: %v", err)
	}

	_, err = fixture.svc.VerifyCardPayment(context.Background(), uuid.New(), session.OrderID, session.ResourcePath)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
