package mercadopago

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

	"github.com/google/uuid"

	"github.com/dmarquezg/storefront-backend/pkg/config"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	defaultBaseURL = "https://api.mercadopago.com"
	defaultTimeout = 15 * time.Second
)

var (
	errAccessTokenRequired = errors.New("mercadopago access token is required")
	errInvalidEnv          = fmt.Errorf("mercadopago environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("mercadopago logger is required")
)

// Client exposes the processor primitives with centralized auth, logging,
// idempotency, and error mapping.
type Client struct {
	httpClient  *http.Client
	accessToken string
	environment string
	baseURL     string
	logger      *logger.Logger
}

// NewClient initializes the processor wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		accessToken: accessToken,
		environment: env,
		baseURL:     defaultBaseURL,
		logger:      logg,
	}

	logg.Info(ctx, "mercadopago client initialized")
	return c, nil
}

// Environment reports the normalized processor environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CheckoutURL picks the redirect target for a preference based on the
// configured environment.
func (c *Client) CheckoutURL(pref *Preference) string {
	if pref == nil {
		return ""
	}
	if c != nil && c.environment == sandboxEnv && pref.SandboxInitPoint != "" {
		return pref.SandboxInitPoint
	}
	return pref.InitPoint
}

// CreatePreference opens a hosted-checkout session.
func (c *Client) CreatePreference(ctx context.Context, params PreferenceCreateParams) (*Preference, error) {
	c.log(ctx, "request", "create_preference", map[string]any{
		"external_reference": params.ExternalReference,
		"items":              len(params.Items),
	})

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", params.toRequest(), &pref, ""); err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create preference")
	}

	c.log(ctx, "response", "create_preference", map[string]any{"preference_id": pref.ID})
	return &pref, nil
}

// CreatePayment charges a card token directly.
func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*Payment, error) {
	idempotencyKey := fmt.Sprintf("payment-%s", uuid.NewString())
	c.log(ctx, "request", "create_payment", map[string]any{
		"external_reference": params.ExternalReference,
		"amount":             params.Amount,
		"card_token":         params.CardToken,
	})

	var payment Payment
	if err := c.do(ctx, http.MethodPost, "/v1/payments", params.toRequest(), &payment, idempotencyKey); err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "create payment")
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return &payment, nil
}

// GetPayment looks up a payment by its processor id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	var payment Payment
	path := fmt.Sprintf("/v1/payments/%s", strings.TrimSpace(paymentID))
	if err := c.do(ctx, http.MethodGet, path, nil, &payment, ""); err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, c.mapError(err, "get payment")
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return &payment, nil
}

type httpError struct {
	status  int
	payload apiError
}

func (e *httpError) Error() string {
	if e.payload.Message != "" {
		return fmt.Sprintf("mercadopago status %d: %s", e.status, e.payload.Message)
	}
	return fmt.Sprintf("mercadopago status %d", e.status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, idempotencyKey string) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		herr := &httpError{status: resp.StatusCode}
		_ = json.Unmarshal(raw, &herr.payload)
		return herr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "cvv", "cvc", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var herr *httpError
	if errors.As(err, &herr) {
		return pkgerrors.Wrap(domainCodeForStatus(herr.status), err, fmt.Sprintf("mercadopago %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("mercadopago %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodePaymentRejected
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	}
	return "", errInvalidEnv
}
