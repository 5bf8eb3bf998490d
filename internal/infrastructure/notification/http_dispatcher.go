package notification

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

	"github.com/storefront/backend/internal/application/tracking"
)

// maxResponseSize is the maximum allowed response size from the notification service (1MB)
const maxResponseSize = 1 * 1024 * 1024

// ErrNotConfigured indicates the notification service URL is missing
var ErrNotConfigured = errors.New("notification: service URL not configured")

// Config holds notification service connection settings
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

// HTTPDispatcher delivers customer notifications over the notification
// service HTTP API. Delivery is at-most-once; the caller treats failures
// as best-effort.
type HTTPDispatcher struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ tracking.Dispatcher = (*HTTPDispatcher)(nil)

// NewHTTPDispatcher creates a new HTTPDispatcher
func NewHTTPDispatcher(config *Config, logger *zap.Logger) (*HTTPDispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Dispatch posts the notification to the notification service
func (d *HTTPDispatcher) Dispatch(ctx context.Context, n tracking.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.BaseURL+"/v1/notifications", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notification: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.APIKey)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification: dispatch %s: %w", n.Template, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return fmt.Errorf("notification: dispatch %s: status %d: %s", n.Template, resp.StatusCode, string(body))
	}

	d.logger.Debug("notification dispatched",
		zap.String("template", n.Template),
		zap.String("order_id", n.OrderID.String()))
	return nil
}

// LoggingDispatcher is a fallback dispatcher that only logs notifications.
// Used when no notification service is configured.
type LoggingDispatcher struct {
	logger *zap.Logger
}

var _ tracking.Dispatcher = (*LoggingDispatcher)(nil)

// NewLoggingDispatcher creates a new LoggingDispatcher
func NewLoggingDispatcher(logger *zap.Logger) *LoggingDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingDispatcher{logger: logger}
}

// Dispatch logs the notification instead of delivering it
func (d *LoggingDispatcher) Dispatch(_ context.Context, n tracking.Notification) error {
	d.logger.Info("notification (not delivered, no service configured)",
		zap.String("template", n.Template),
		zap.String("order_id", n.OrderID.String()),
		zap.String("recipient", n.RecipientEmail),
		zap.String("status", n.Status))
	return nil
}
