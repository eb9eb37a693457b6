package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marsos-sa/marketplace-backend/pkg/config"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

const (
	messagesPath = "/v1/messages"

	responseBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired = errors.New("whatsapp base url is required")
	errTokenRequired   = errors.New("whatsapp access token is required")
)

// Message is one templated WhatsApp notification.
type Message struct {
	To       string   `json:"to"`
	Template string   `json:"template"`
	Params   []string `json:"params,omitempty"`
}

// Client talks to the WhatsApp business messaging provider.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	senderID    string
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

// NewClient builds the WhatsApp client from config.
func NewClient(cfg config.WhatsAppConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: token,
		senderID:    strings.TrimSpace(cfg.SenderID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Send delivers one templated message. Delivery is best-effort from the
// caller's perspective; failures surface as gateway errors for logging.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeGateway, "whatsapp client not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone is required")
	}
	if strings.TrimSpace(msg.Template) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message template is required")
	}

	body := struct {
		Message
		From string `json:"from,omitempty"`
	}{Message: msg, From: c.senderID}

	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal whatsapp message")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build whatsapp request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute whatsapp request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeGateway,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"whatsapp send failed",
		)
	}

	return nil
}
