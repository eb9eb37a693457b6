package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marsos-sa/marketplace-backend/internal/cart"
	"github.com/marsos-sa/marketplace-backend/internal/checkout/helpers"
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
	"github.com/marsos-sa/marketplace-backend/pkg/outbox/payloads"
	"github.com/marsos-sa/marketplace-backend/pkg/types"
)

const (
	shippingLineName  = "Shipping Fee"
	invoiceDateLayout = "2006-01-02"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type invoiceGateway interface {
	CreateInvoice(ctx context.Context, req gopay.InvoiceRequest) (*gopay.Invoice, error)
}

type cardGateway interface {
	CreateCheckoutSession(ctx context.Context, req hyperpay.SessionRequest) (*hyperpay.Session, error)
	VerifyPayment(ctx context.Context, resourcePath string) (*hyperpay.VerifyResult, error)
}

type notifier interface {
	Enqueue(ctx context.Context, tx *gorm.DB, input notifications.EnqueueInput) (*models.Notification, error)
}

// SadadInvoice is one per-supplier order produced by a SADAD checkout.
type SadadInvoice struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber int64           `json:"orderNumber"`
	SupplierID  uuid.UUID       `json:"supplierId"`
	BillNumber  string          `json:"billNumber"`
	SadadNumber string          `json:"sadadNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    enums.Currency  `json:"currency"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// SadadResult is the outcome of a SADAD checkout across all suppliers.
type SadadResult struct {
	Invoices []SadadInvoice `json:"invoices"`
}

// CardSession is the opened hosted card session the storefront redirects to.
type CardSession struct {
	OrderID      uuid.UUID       `json:"orderId"`
	OrderNumber  int64           `json:"orderNumber"`
	CheckoutID   string          `json:"checkoutId"`
	ResourcePath string          `json:"resourcePath"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Currency     enums.Currency  `json:"currency"`
}

// CardVerification reports the settled state after the shopper returns from
// the hosted page.
type CardVerification struct {
	OrderID    uuid.UUID         `json:"orderId"`
	Status     enums.OrderStatus `json:"status"`
	ResultCode string            `json:"resultCode"`
	Paid       bool              `json:"paid"`
}

// CheckoutInput carries the buyer's checkout request.
type CheckoutInput struct {
	CouponCode string
}

// Service runs the two checkout flows against an active cart.
type Service interface {
	StartSadadCheckout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*SadadResult, error)
	StartCardCheckout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CardSession, error)
	VerifyCardPayment(ctx context.Context, buyerID, orderID uuid.UUID, resourcePath string) (*CardVerification, error)
}

type service struct {
	carts       cart.CartRepository
	orders      orders.Repository
	lifecycle   orders.Service
	users       userLoader
	coupons     coupons.Validator
	gopay       invoiceGateway
	hyperpay    cardGateway
	notifier    notifier
	outbox      outboxPublisher
	tx          txRunner
	logg        *logger.Logger
	sadadExpiry time.Duration
	serviceName string
}

// NewService wires the checkout orchestrator.
func NewService(
	carts cart.CartRepository,
	orderRepo orders.Repository,
	lifecycle orders.Service,
	users userLoader,
	couponValidator coupons.Validator,
	invoices invoiceGateway,
	cards cardGateway,
	notifier notifier,
	publisher outboxPublisher,
	tx txRunner,
	logg *logger.Logger,
	sadadExpiry time.Duration,
	serviceName string,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if lifecycle == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if users == nil {
		return nil, fmt.Errorf("users loader required")
	}
	if couponValidator == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("gopay client required")
	}
	if cards == nil {
		return nil, fmt.Errorf("hyperpay client required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sadadExpiry <= 0 {
		return nil, fmt.Errorf("sadad expiry must be positive")
	}
	return &service{
		carts:       carts,
		orders:      orderRepo,
		lifecycle:   lifecycle,
		users:       users,
		coupons:     couponValidator,
		gopay:       invoices,
		hyperpay:    cards,
		notifier:    notifier,
		outbox:      publisher,
		tx:          tx,
		logg:        logg,
		sadadExpiry: sadadExpiry,
		serviceName: serviceName,
	}, nil
}

// StartSadadCheckout issues one SADAD invoice per supplier group and persists
// one pending order per invoice. The invoice is requested before the order is
// written, so a gateway failure never leaves an order without bill numbers.
func (s *service) StartSadadCheckout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*SadadResult, error) {
	record, discount, couponCode, err := s.loadCheckoutCart(ctx, buyerID, input.CouponCode)
	if err != nil {
		return nil, err
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	groups := helpers.GroupBySupplier(record.Items)
	supplierIDs := sortedSupplierIDs(groups)

	result := &SadadResult{Invoices: make([]SadadInvoice, 0, len(supplierIDs))}
	now := time.Now().UTC()
	expiresAt := now.Add(s.sadadExpiry)

	for _, supplierID := range supplierIDs {
		items := groups[supplierID]
		totals := helpers.ComputeSupplierTotals(items, discount)
		if totals.ContactSupplier {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				"order total is not payable; contact the supplier").
				WithDetails(map[string]any{"supplierId": supplierID})
		}

		invoice, err := s.gopay.CreateInvoice(ctx, s.invoiceRequest(buyer, items, totals, now, expiresAt))
		if err != nil {
			return nil, err
		}

		supplier := supplierID
		order := &models.Order{
			ID:            uuid.New(),
			BuyerID:       buyerID,
			SupplierID:    &supplier,
			PaymentMethod: enums.PaymentMethodSadad,
			Status:        enums.OrderStatusPending,
			Items:         snapshotItems(items),
			Subtotal:      totals.Subtotal,
			ShippingTotal: totals.ShippingTotal,
			TaxTotal:      totals.Tax,
			Discount:      totals.Discount,
			TotalAmount:   totals.Total,
			CouponCode:    couponCode,
			Currency:      enums.CurrencySAR,
			BillNumber:    &invoice.BillNumber,
			SadadNumber:   &invoice.SadadNumber,
			ExpiresAt:     &expiresAt,
		}

		if err := s.persistSadadOrder(ctx, record, order); err != nil {
			return nil, err
		}

		result.Invoices = append(result.Invoices, SadadInvoice{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			SupplierID:  supplierID,
			BillNumber:  invoice.BillNumber,
			SadadNumber: invoice.SadadNumber,
			TotalAmount: order.TotalAmount,
			Currency:    order.Currency,
			ExpiresAt:   expiresAt,
		})
	}

	return result, nil
}

// persistSadadOrder writes one supplier order, clears that supplier's cart
// lines, and emits the created event, all in a single transaction.
func (s *service) persistSadadOrder(ctx context.Context, record *models.CartRecord, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.orders.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		*order = *created

		cartRepo := s.carts.WithTx(tx)
		if err := cartRepo.DeleteSupplierItems(ctx, record.ID, *order.SupplierID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear supplier cart lines")
		}

		remaining, err := cartRepo.CountItems(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count remaining cart lines")
		}
		if remaining == 0 {
			if err := cartRepo.MarkConverted(ctx, record.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
			}
			if err := s.emitCartConverted(ctx, tx, record, order.ID); err != nil {
				return err
			}
		}

		if err := s.emitOrderCreated(ctx, tx, order); err != nil {
			return err
		}

		s.enqueueOrderNotification(ctx, tx, order)
		return nil
	})
}

// StartCardCheckout opens a hosted card session covering the whole cart. The
// order is persisted first so a crash between session creation and response
// still leaves a traceable record.
func (s *service) StartCardCheckout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CardSession, error) {
	record, discount, couponCode, err := s.loadCheckoutCart(ctx, buyerID, input.CouponCode)
	if err != nil {
		return nil, err
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	order := cartWideOrder(buyerID, record.Items, discount, couponCode)
	if order.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"order total is not payable; contact the supplier")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, txErr := s.orders.WithTx(tx).Create(ctx, order)
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "create order")
		}
		*order = *created
		return s.emitOrderCreated(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	session, err := s.hyperpay.CreateCheckoutSession(ctx, hyperpay.SessionRequest{
		Amount:        order.TotalAmount,
		Currency:      string(order.Currency),
		MerchantTxID:  order.ID.String(),
		CustomerEmail: buyer.Email,
	})
	if err != nil {
		reason := "card session could not be opened"
		if failErr := s.lifecycle.Transition(ctx, order.ID, enums.OrderStatusFailed, orders.TransitionMeta{
			FailureReason: &reason,
		}); failErr != nil {
			s.logg.Error(ctx, "failing order after session error", failErr)
		}
		return nil, err
	}

	if err := s.orders.Update(ctx, order.ID, map[string]any{"checkout_session_id": session.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
	}
	if err := s.lifecycle.Transition(ctx, order.ID, enums.OrderStatusAwaitingPayment, orders.TransitionMeta{}); err != nil {
		return nil, err
	}

	return &CardSession{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		CheckoutID:   session.ID,
		ResourcePath: session.ResourcePath,
		TotalAmount:  order.TotalAmount,
		Currency:     order.Currency,
	}, nil
}

// VerifyCardPayment settles an awaiting order from the gateway's verdict.
// Re-verifying an already paid order is a no-op returning the paid state.
func (s *service) VerifyCardPayment(ctx context.Context, buyerID, orderID uuid.UUID, resourcePath string) (*CardVerification, error) {
	if strings.TrimSpace(resourcePath) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource path is required")
	}

	order, err := s.lifecycle.Get(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusPaid || order.Status == enums.OrderStatusApproved {
		return &CardVerification{
			OrderID:    order.ID,
			Status:     order.Status,
			ResultCode: derefString(order.ResultCode),
			Paid:       true,
		}, nil
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be verified", order.Status))
	}

	verdict, err := s.hyperpay.VerifyPayment(ctx, resourcePath)
	if err != nil {
		return nil, err
	}

	if !hyperpay.IsSuccessCode(verdict.Code) {
		reason := verdict.Description
		if err := s.lifecycle.Transition(ctx, order.ID, enums.OrderStatusFailed, orders.TransitionMeta{
			ResultCode:    &verdict.Code,
			FailureReason: &reason,
		}); err != nil {
			return nil, err
		}
		return &CardVerification{
			OrderID:    order.ID,
			Status:     enums.OrderStatusFailed,
			ResultCode: verdict.Code,
			Paid:       false,
		}, nil
	}

	if err := s.lifecycle.Transition(ctx, order.ID, enums.OrderStatusPaid, orders.TransitionMeta{
		ResultCode: &verdict.Code,
	}); err != nil {
		return nil, err
	}
	if err := s.convertCart(ctx, buyerID, order.ID); err != nil {
		return nil, err
	}

	return &CardVerification{
		OrderID:    order.ID,
		Status:     enums.OrderStatusPaid,
		ResultCode: verdict.Code,
		Paid:       true,
	}, nil
}

// loadCheckoutCart fetches the active cart and resolves the coupon. An
// unknown coupon degrades to a zero discount rather than blocking checkout.
func (s *service) loadCheckoutCart(ctx context.Context, buyerID uuid.UUID, couponCode string) (*models.CartRecord, decimal.Decimal, *string, error) {
	if buyerID == uuid.Nil {
		return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	record, err := s.carts.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	if err := helpers.ValidateCheckoutItems(record.Items); err != nil {
		return nil, decimal.Zero, nil, err
	}

	discount := decimal.Zero
	var appliedCode *string
	if trimmed := strings.TrimSpace(couponCode); trimmed != "" {
		amount, couponErr := s.coupons.Validate(ctx, trimmed)
		if couponErr == nil {
			discount = amount
			appliedCode = &trimmed
		}
	}

	return record, discount, appliedCode, nil
}

// convertCart marks the active cart converted after a settled card payment.
// A buyer with no active cart left is already in the desired state.
func (s *service) convertCart(ctx context.Context, buyerID, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		record, err := cartRepo.FindActiveByBuyer(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := cartRepo.DeleteItems(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart lines")
		}
		if err := cartRepo.MarkConverted(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
		}
		return s.emitCartConverted(ctx, tx, record, orderID)
	})
}

// invoiceRequest builds the SADAD invoice payload for one supplier group.
// Every product line carries the standard VAT rate; the synthetic shipping
// line carries zero VAT. The group discount rides on the first item.
func (s *service) invoiceRequest(buyer *models.User, items []models.CartItem, totals helpers.SupplierTotals, issuedAt, expiresAt time.Time) gopay.InvoiceRequest {
	billItems := make([]gopay.BillItem, 0, len(items)+1)
	for i, item := range items {
		line := gopay.BillItem{
			Reference: item.ProductID.String(),
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Decimal,
			Discount:  decimal.Zero,
			VAT:       helpers.VATRate,
		}
		if i == 0 {
			line.Discount = totals.Discount
		}
		billItems = append(billItems, line)
	}
	if totals.ShippingTotal.IsPositive() {
		billItems = append(billItems, gopay.BillItem{
			Reference: "shipping",
			Name:      shippingLineName,
			Quantity:  1,
			UnitPrice: totals.ShippingTotal,
			Discount:  decimal.Zero,
			VAT:       decimal.Zero,
		})
	}

	return gopay.InvoiceRequest{
		CustomerIDType:       enums.CustomerIDTypeNational,
		CustomerFullName:     buyer.Name,
		CustomerEmailAddress: buyer.Email,
		CustomerMobileNumber: derefString(buyer.Phone),
		IssueDate:            issuedAt.Format(invoiceDateLayout),
		ExpireDate:           expiresAt.Format(invoiceDateLayout),
		ServiceName:          s.serviceName,
		BillItemList:         billItems,
	}
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			BuyerID:       order.BuyerID,
			SupplierID:    order.SupplierID,
			PaymentMethod: order.PaymentMethod,
			TotalAmount:   order.TotalAmount,
			Currency:      order.Currency,
			BillNumber:    order.BillNumber,
			ExpiresAt:     order.ExpiresAt,
		},
		Version: 1,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
	}
	return nil
}

func (s *service) emitCartConverted(ctx context.Context, tx *gorm.DB, record *models.CartRecord, orderID uuid.UUID) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventCartConverted,
		AggregateType: enums.AggregateCart,
		AggregateID:   record.ID,
		Data: payloads.CartConvertedEvent{
			CartID:   record.ID,
			BuyerID:  record.BuyerID,
			OrderIDs: []uuid.UUID{orderID},
		},
		Version: 1,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit cart converted event")
	}
	return nil
}

// enqueueOrderNotification queues the invoice notification. Delivery is best
// effort; a queue failure never rolls the order back.
func (s *service) enqueueOrderNotification(ctx context.Context, tx *gorm.DB, order *models.Order) {
	orderID := order.ID
	_, err := s.notifier.Enqueue(ctx, tx, notifications.EnqueueInput{
		UserID:  order.BuyerID,
		OrderID: &orderID,
		Kind:    enums.NotificationKindOrderCreated,
		Channel: enums.NotificationChannelWhatsApp,
		Title:   "Your SADAD invoice is ready",
		Message: fmt.Sprintf("Pay bill %s before %s", derefString(order.BillNumber), order.ExpiresAt.Format(invoiceDateLayout)),
	})
	if err != nil {
		s.logg.Error(ctx, "queue order notification", err)
	}
}

// cartWideOrder builds the single whole-cart order a card checkout pays. The
// per-group discount applies to each supplier group independently and the
// order carries the summed totals.
func cartWideOrder(buyerID uuid.UUID, items []models.CartItem, discount decimal.Decimal, couponCode *string) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		PaymentMethod: enums.PaymentMethodCard,
		Status:        enums.OrderStatusInitiated,
		Items:         snapshotItems(items),
		CouponCode:    couponCode,
		Currency:      enums.CurrencySAR,
	}
	for _, totals := range helpers.ComputeTotalsBySupplier(items, discount) {
		order.Subtotal = order.Subtotal.Add(totals.Subtotal)
		order.ShippingTotal = order.ShippingTotal.Add(totals.ShippingTotal)
		order.TaxTotal = order.TaxTotal.Add(totals.Tax)
		order.Discount = order.Discount.Add(totals.Discount)
		order.TotalAmount = order.TotalAmount.Add(totals.Total)
	}
	return order
}

func snapshotItems(items []models.CartItem) types.OrderItems {
	snapshot := make(types.OrderItems, 0, len(items))
	for _, item := range items {
		snapshot = append(snapshot, types.OrderItem{
			ProductID:        item.ProductID,
			Name:             item.Name,
			Color:            item.Color,
			Size:             item.Size,
			UnitPrice:        item.UnitPrice,
			Quantity:         item.Quantity,
			ShippingCost:     item.ShippingCost,
			DeliveryLocation: item.DeliveryLocation,
			Currency:         item.Currency,
		})
	}
	return snapshot
}

func sortedSupplierIDs(groups map[uuid.UUID][]models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
