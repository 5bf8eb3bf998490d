package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appfulfillment "github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/domain/fulfillment"
)

// maxResponseSize is the maximum allowed response size from the supplier API (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrNotConfigured indicates the supplier gateway URL is missing
var ErrNotConfigured = errors.New("supplier: gateway URL not configured")

// Config holds supplier gateway connection settings
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNotConfigured
	}
	return nil
}

// fulfillmentRequest is the wire payload for a fulfillment attempt
type fulfillmentRequest struct {
	EntryID     string `json:"entry_id"`
	OrderID     string `json:"order_id"`
	SupplierRef string `json:"supplier_ref"`
	Attempt     int    `json:"attempt"`
}

// HTTPInvoker triggers fulfillment attempts against the supplier gateway
type HTTPInvoker struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ appfulfillment.Invoker = (*HTTPInvoker)(nil)

// NewHTTPInvoker creates a new HTTPInvoker
func NewHTTPInvoker(config *Config, logger *zap.Logger) (*HTTPInvoker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPInvoker{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Invoke asks the supplier gateway to attempt fulfillment of the entry.
// A non-2xx response is an attempt failure and counts against the
// entry's attempt ceiling.
func (i *HTTPInvoker) Invoke(ctx context.Context, entry fulfillment.QueueEntry) error {
	payload, err := json.Marshal(fulfillmentRequest{
		EntryID:     entry.ID.String(),
		OrderID:     entry.OrderID.String(),
		SupplierRef: entry.SupplierRef,
		Attempt:     entry.AttemptCount,
	})
	if err != nil {
		return fmt.Errorf("supplier: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.config.BaseURL+"/v1/fulfillments", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("supplier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.config.APIKey)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supplier: invoke fulfillment %s: %w", entry.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("supplier: invoke fulfillment %s: status %d: %s", entry.ID, resp.StatusCode, string(body))
	}

	i.logger.Debug("fulfillment attempt accepted",
		zap.String("entry_id", entry.ID.String()),
		zap.String("order_id", entry.OrderID.String()),
		zap.Int("attempt", entry.AttemptCount))
	return nil
}
