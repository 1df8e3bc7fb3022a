package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrGatewayUnavailable indicates the payment gateway could not be
	// reached or answered with a server error. The attempt may be retried.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrConfiguration indicates the gateway rejected the session request;
	// the current attempt cannot proceed and the user should reload.
	ErrConfiguration = errors.New("payment session configuration rejected")
)

// SessionRequest is the shape sent to the backend configuration endpoint to
// open a hosted checkout session. Secrets never ride along; the endpoint
// holds them server-side.
type SessionRequest struct {
	OrderID      string `json:"orderId"`
	Amount       int64  `json:"amount"`
	DocumentType string `json:"documentType"`
	Token        string `json:"token"`
}

// SessionConfig is what the gateway hands back for the hosted checkout.
type SessionConfig struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	PublicKey   string `json:"publicKey"`
	CheckoutURL string `json:"checkoutUrl"`
}

// Gateway abstracts the payment provider: opening checkout sessions and
// looking up the approval status of an order.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*SessionConfig, error)
	// LookupStatus reports whether the order's payment has been approved.
	// Transport errors and unexpected responses mean "not approved yet",
	// never a terminal failure; the gateway may still confirm later.
	LookupStatus(ctx context.Context, orderID string) (bool, error)
}

// UnconfiguredGateway stands in when no gateway endpoint is configured.
// Paid checkout fails with ErrConfiguration; lookups never approve.
type UnconfiguredGateway struct{}

func (UnconfiguredGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionConfig, error) {
	return nil, ErrConfiguration
}

func (UnconfiguredGateway) LookupStatus(ctx context.Context, orderID string) (bool, error) {
	return false, nil
}

// HTTPGateway talks to the gateway's backend configuration service over HTTP.
type HTTPGateway struct {
	http     *http.Client
	endpoint *url.URL
}

// NewHTTPGateway builds a gateway client for the given base endpoint.
func NewHTTPGateway(endpoint string, timeout time.Duration) (*HTTPGateway, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse gateway endpoint: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{http: &http.Client{Timeout: timeout}, endpoint: u}, nil
}

func (g *HTTPGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionConfig, error) {
	sessURL, err := g.endpoint.Parse("/api/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("parse session URL: %w", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sessURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %s", ErrGatewayUnavailable, res.Status)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %s", ErrConfiguration, res.Status)
	}
	var cfg SessionConfig
	if err := json.NewDecoder(res.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode session config: %v", ErrConfiguration, err)
	}
	if cfg.OrderID == "" {
		cfg.OrderID = req.OrderID
	}
	return &cfg, nil
}

func (g *HTTPGateway) LookupStatus(ctx context.Context, orderID string) (bool, error) {
	statusURL, err := g.endpoint.Parse("/api/v1/sessions/" + url.PathEscape(orderID) + "/status")
	if err != nil {
		return false, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL.String(), nil)
	if err != nil {
		return false, err
	}
	res, err := g.http.Do(httpReq)
	if err != nil {
		// absence of an answer is "not yet approved"
		return false, nil
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, nil
	}
	var out struct {
		PaymentApproved bool `json:"paymentApproved"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return false, nil
	}
	return out.PaymentApproved, nil
}
