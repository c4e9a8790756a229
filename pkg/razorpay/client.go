package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	rzpsdk "github.com/razorpay/razorpay-go"

	"github.com/tractorbid/tractorbid-backend/pkg/config"
	"github.com/tractorbid/tractorbid-backend/pkg/logger"
)

var (
	errKeyRequired           = errors.New("razorpay key id is required")
	errSecretRequired        = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// OrderRequest describes a gateway order to create. Notes carry the payment
// type tag plus the domain record IDs the webhook reconciler keys on.
type OrderRequest struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway order descriptor handed back to clients.
type Order struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	KeyID       string `json:"keyId"`
}

// Client exposes Razorpay primitives with centralized auth, logging, and error mapping.
type Client struct {
	sdk           *rzpsdk.Client
	keyID         string
	webhookSecret string
	logger        *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyRequired
	}

	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errSecretRequired
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	c := &Client{
		sdk:           rzpsdk.NewClient(keyID, keySecret),
		keyID:         keyID,
		webhookSecret: webhookSecret,
		logger:        logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the configured public key identifier.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// SigningSecret returns the webhook secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// NewReceipt returns a unique receipt reference for gateway orders.
func (c *Client) NewReceipt(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "tb"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreateOrder creates a gateway order carrying the provided notes metadata.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c == nil || c.sdk == nil {
		return nil, errors.New("razorpay client not initialized")
	}
	if req.AmountPaise <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "INR"
	}
	receipt := strings.TrimSpace(req.Receipt)
	if receipt == "" {
		receipt = c.NewReceipt("")
	}

	notes := map[string]interface{}{}
	for k, v := range req.Notes {
		notes[k] = v
	}

	data := map[string]interface{}{
		"amount":   req.AmountPaise,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	body, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("creating razorpay order: %w", err)
	}

	order := &Order{
		AmountPaise: req.AmountPaise,
		Currency:    currency,
		Receipt:     receipt,
		KeyID:       c.keyID,
	}
	if id, ok := body["id"].(string); ok {
		order.ID = id
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}

	logCtx := c.logger.WithField(ctx, "order_id", order.ID)
	c.logger.Info(logCtx, "razorpay order created")
	return order, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 hex signature over the raw body.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c == nil {
		return false
	}
	return VerifySignature(body, signature, c.webhookSecret)
}

// VerifySignature performs a constant-time HMAC-SHA256 hex comparison.
func VerifySignature(body []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
