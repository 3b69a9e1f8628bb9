package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/arcstream/vgate-api/pkg/config"
)

// Client talks to the external redemption-code validity oracle. The oracle
// is the sole authority on whether a code is active, unexpired and under
// quota; this service only asks yes/no.
//
// Every call carries a bounded timeout. Any transport failure means
// "unavailable" and callers must treat it as a denial, never a grant.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

type validateRequest struct {
	Code string `json:"code"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// NewClient constructs an oracle client from configuration.
func NewClient(cfg config.OracleConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether an oracle endpoint is set. An unconfigured
// oracle means every code-dependent check fails closed.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Validate asks the oracle whether the code is currently redeemable. The
// returned error indicates the oracle was unreachable or answered
// malformed, in which case the caller must deny.
func (c *Client) Validate(ctx context.Context, code string) (bool, error) {
	if !c.Configured() {
		return false, fmt.Errorf("code oracle not configured")
	}

	payload, err := json.Marshal(validateRequest{Code: code})
	if err != nil {
		return false, fmt.Errorf("encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/codes/validate", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("call code oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("code oracle returned status %d", resp.StatusCode)
	}

	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode oracle response: %w", err)
	}

	return body.Valid, nil
}
