// Package client talks to the count approval API over HTTP. It is the
// remote StockMutationTrigger used by review tools.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	apiPrefix      = "/api/v1/inventory/counts/"
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Client calls the count approval API on behalf of one bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetReview loads a fresh review of a pending count.
func (c *Client) GetReview(ctx context.Context, countID uuid.UUID) (*appinv.ReviewResponse, error) {
	var out envelope[appinv.ReviewResponse]
	if err := c.do(ctx, http.MethodGet, apiPrefix+countID.String()+"/review", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Decide posts a decision and returns the server's answer.
func (c *Client) Decide(ctx context.Context, decision inventory.ApprovalDecision) (*appinv.DecisionResponse, error) {
	approved := decision.Approved
	body, err := json.Marshal(appinv.DecisionRequest{
		Approved:        &approved,
		Notes:           decision.Notes,
		ExpectedVersion: decision.ExpectedVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("encode decision: %w", err)
	}

	var out envelope[appinv.DecisionResponse]
	if err := c.do(ctx, http.MethodPost, apiPrefix+decision.CountID.String()+"/decision", body, &out); err != nil {
		return nil, err
	}
	out.Data.Success = out.Data.Success && out.Success
	return &out.Data, nil
}

// ApproveCount implements inventory.StockMutationTrigger. Error responses
// come back as *shared.DomainError with the server's code, so
// shared.IsStaleState and ErrDecisionInFlight checks work across the wire.
func (c *Client) ApproveCount(ctx context.Context, decision inventory.ApprovalDecision) (bool, error) {
	resp, err := c.Decide(ctx, decision)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// transportCodes maps the API's transport-level codes onto domain codes.
var transportCodes = map[string]string{
	"ERR_UNAUTHORIZED":  shared.CodeUnauthorized,
	"ERR_TOKEN_EXPIRED": shared.CodeUnauthorized,
	"ERR_TOKEN_INVALID": shared.CodeUnauthorized,
	"ERR_FORBIDDEN":     shared.CodeForbidden,
	"ERR_NOT_FOUND":     shared.CodeNotFound,
	"ERR_VALIDATION":    shared.CodeValidation,
}

func decodeError(status int, body []byte) error {
	var out envelope[json.RawMessage]
	if err := json.Unmarshal(body, &out); err == nil && out.Error != nil && out.Error.Code != "" {
		code := out.Error.Code
		if mapped, ok := transportCodes[code]; ok {
			code = mapped
		}
		return shared.NewDomainError(code, out.Error.Message)
	}
	switch status {
	case http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusNotFound:
		return shared.ErrNotFound
	}
	return fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
}

var _ inventory.StockMutationTrigger = (*Client)(nil)
