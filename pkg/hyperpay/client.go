package hyperpay

import (
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
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

const (
	checkoutsPath = "/v1/checkouts"

	responseBodyReadLimit int64 = 2048
)

// successResultCodes are the gateway result codes that mean a card payment
// settled. Any other code fails the order.
var successResultCodes = map[string]struct{}{
	"000.000.000": {},
	"000.100.110": {},
	"000.100.112": {},
}

// IsSuccessCode reports whether a verify result code means payment settled.
func IsSuccessCode(code string) bool {
	_, ok := successResultCodes[strings.TrimSpace(code)]
	return ok
}

var (
	errBaseURLRequired = errors.New("hyperpay base url is required")
	errTokenRequired   = errors.New("hyperpay access token is required")
	errEntityRequired  = errors.New("hyperpay entity id is required")
)

// SessionRequest describes the hosted checkout session to open.
type SessionRequest struct {
	Amount        decimal.Decimal
	Currency      string
	MerchantTxID  string
	CustomerEmail string
	BillingCity   string
	BillingStreet string
	BillingState  string
	BillingZip    string
	Country       string
}

// Session is the opened checkout session the storefront redirects into.
type Session struct {
	ID           string `json:"id"`
	ResourcePath string `json:"resourcePath"`
}

// VerifyResult is the payment outcome reported after the shopper returns.
type VerifyResult struct {
	ID          string `json:"id"`
	MerchantTx  string `json:"merchantTransactionId"`
	Code        string
	Description string
}

// Client talks to the HyperPay hosted checkout gateway.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	entityID    string
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

// NewClient builds the HyperPay client from config.
func NewClient(cfg config.HyperPayConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errTokenRequired
	}
	entity := strings.TrimSpace(cfg.EntityID)
	if entity == "" {
		return nil, errEntityRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: token,
		entityID:    entity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CreateCheckoutSession opens a hosted payment session for the given amount.
func (c *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "hyperpay client not configured")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout amount must be positive")
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "SAR"
	}

	form := url.Values{}
	form.Set("entityId", c.entityID)
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("currency", currency)
	form.Set("paymentType", "DB")
	if req.MerchantTxID != "" {
		form.Set("merchantTransactionId", req.MerchantTxID)
	}
	if req.CustomerEmail != "" {
		form.Set("customer.email", req.CustomerEmail)
	}
	if req.BillingStreet != "" {
		form.Set("billing.street1", req.BillingStreet)
	}
	if req.BillingCity != "" {
		form.Set("billing.city", req.BillingCity)
	}
	if req.BillingState != "" {
		form.Set("billing.state", req.BillingState)
	}
	if req.BillingZip != "" {
		form.Set("billing.postcode", req.BillingZip)
	}
	if req.Country != "" {
		form.Set("billing.country", req.Country)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build checkout session request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute checkout session request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, responseError(resp), "checkout session request failed")
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode checkout session response")
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway returned empty session id")
	}
	if session.ResourcePath == "" {
		session.ResourcePath = checkoutsPath + "/" + session.ID + "/payment"
	}

	return &session, nil
}

// VerifyPayment fetches the payment result for a returned resource path.
func (c *Client) VerifyPayment(ctx context.Context, resourcePath string) (*VerifyResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "hyperpay client not configured")
	}
	trimmed := strings.TrimSpace(resourcePath)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource path is required")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}

	query := url.Values{"entityId": []string{c.entityID}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+trimmed+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build verify payment request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute verify payment request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, responseError(resp), "verify payment request failed")
	}

	var payload struct {
		ID         string `json:"id"`
		MerchantTx string `json:"merchantTransactionId"`
		Result     struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode verify payment response")
	}
	// An absent result code means the payment did not settle. Returning it
	// as-is lets the caller fail the order instead of leaving it parked in
	// awaiting_payment behind a retryable gateway error.
	return &VerifyResult{
		ID:          payload.ID,
		MerchantTx:  payload.MerchantTx,
		Code:        payload.Result.Code,
		Description: payload.Result.Description,
	}, nil
}

func responseError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
