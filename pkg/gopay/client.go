package gopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/pkg/config"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

const (
	invoicePath  = "/api/v1/invoices"
	paymentsPath = "/api/v1/payments"

	responseBodyReadLimit int64 = 2048
)

// PaymentStatus is the invoice settlement state reported by the gateway.
type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusExpired  PaymentStatus = "EXPIRED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

var (
	errBaseURLRequired = errors.New("gopay base url is required")
	errAPIKeyRequired  = errors.New("gopay api key is required")
)

// BillItem is one SADAD invoice line. Product lines carry the standard VAT
// rate; the synthetic shipping line carries zero VAT.
type BillItem struct {
	Reference string          `json:"reference"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
	VAT       decimal.Decimal `json:"vat"`
}

// InvoiceRequest is the SADAD invoice issuance payload.
type InvoiceRequest struct {
	CustomerIDType       enums.CustomerIDType `json:"customerIdType"`
	CustomerFullName     string               `json:"customerFullName"`
	CustomerEmailAddress string               `json:"customerEmailAddress"`
	CustomerMobileNumber string               `json:"customerMobileNumber"`
	IssueDate            string               `json:"issueDate"`
	ExpireDate           string               `json:"expireDate"`
	ServiceName          string               `json:"serviceName"`
	BillItemList         []BillItem           `json:"billItemList"`
}

// Invoice is the issued SADAD invoice. Both numbers are mandatory for a
// checkout to proceed; the gateway occasionally returns partial payloads.
type Invoice struct {
	BillNumber  string `json:"billNumber"`
	SadadNumber string `json:"sadadNumber"`
}

// StatusResult reports the settlement state for one bill number.
type StatusResult struct {
	BillNumber string        `json:"billNumber"`
	Status     PaymentStatus `json:"paymentStatus"`
	PaidAt     *time.Time    `json:"paidAt,omitempty"`
}

// Client talks to the GoPay SADAD invoicing gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the GoPay client from config.
func NewClient(cfg config.GoPayConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CreateInvoice issues a SADAD invoice and returns the bill/SADAD numbers.
// A response missing either number is treated as a gateway failure.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gopay client not configured")
	}
	if len(req.BillItemList) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice requires at least one bill item")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal invoice request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invoicePath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build invoice request")
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute invoice request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, responseError(resp), "invoice request failed")
	}

	var invoice Invoice
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode invoice response")
	}

	if strings.TrimSpace(invoice.BillNumber) == "" || strings.TrimSpace(invoice.SadadNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned incomplete invoice numbers")
	}

	return &invoice, nil
}

// PaymentStatus looks up the settlement state for a bill number.
func (c *Client) PaymentStatus(ctx context.Context, billNumber string) (*StatusResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeReconcile, "gopay client not configured")
	}
	trimmed := strings.TrimSpace(billNumber)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill number is required")
	}

	query := url.Values{"billNumber": []string{trimmed}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+paymentsPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeReconcile, err, "build payment status request")
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeReconcile, err, "execute payment status request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment found for bill number")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeReconcile, responseError(resp), "payment status request failed")
	}

	var result StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeReconcile, err, "decode payment status response")
	}
	if result.BillNumber == "" {
		result.BillNumber = trimmed
	}

	return &result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func responseError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
