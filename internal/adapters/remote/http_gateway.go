package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
)

// maxBootstrapBytes caps how much of the bootstrap document is scanned.
const maxBootstrapBytes = 1 << 20

// HTTPGateway talks to the sync endpoint over HTTP(S).
type HTTPGateway struct {
	client *http.Client
}

// GatewayOption configures an HTTPGateway.
type GatewayOption func(*HTTPGateway)

// WithHTTPClient replaces the default client. Tests use it to trust a
// test TLS server.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// NewHTTPGateway creates a gateway. No timeout is set on the default client;
// callers bound requests through the context.
func NewHTTPGateway(opts ...GatewayOption) *HTTPGateway {
	g := &HTTPGateway{client: &http.Client{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ensure HTTPGateway implements gateways.RemoteGateway
var _ gateways.RemoteGateway = (*HTTPGateway)(nil)

func (g *HTTPGateway) FetchBootstrap(ctx context.Context, bootstrapURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bootstrapURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build bootstrap request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch bootstrap document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("bootstrap document returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBootstrapBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read bootstrap document: %w", err)
	}
	return string(body), nil
}

func (g *HTTPGateway) SendPush(ctx context.Context, endpoint string, payload domain.SyncPushRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	// text/plain keeps the request "simple" for script endpoints that reject
	// preflight; the body is JSON either way.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	// The response is opaque: status and body are ignored.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

func (g *HTTPGateway) FetchPull(ctx context.Context, endpoint string, partitionKey string) (*domain.SyncPullResponse, error) {
	var out domain.SyncPullResponse
	if err := g.getJSON(ctx, endpoint, url.Values{
		"action":    {domain.ActionSyncPull},
		"companyId": {partitionKey},
	}, &out); err != nil {
		return nil, fmt.Errorf("pull %s: %w", partitionKey, err)
	}
	return &out, nil
}

func (g *HTTPGateway) LookupUser(ctx context.Context, endpoint string, email string) (*domain.UserLookupResponse, error) {
	var out domain.UserLookupResponse
	if err := g.getJSON(ctx, endpoint, url.Values{
		"action": {domain.ActionGetUser},
		"email":  {email},
	}, &out); err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return &out, nil
}

func (g *HTTPGateway) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	for k, v := range query {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
