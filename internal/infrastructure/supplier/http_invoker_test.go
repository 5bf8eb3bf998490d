package supplier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/shared"
)

func testEntry() fulfillment.QueueEntry {
	next := time.Now().Add(-time.Hour)
	return fulfillment.QueueEntry{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      uuid.New(),
		SupplierRef:  "SUP-001",
		Status:       fulfillment.StatusProcessing,
		AttemptCount: 2,
		NextRetryAt:  &next,
	}
}

func TestHTTPInvoker_Invoke(t *testing.T) {
	var received fulfillmentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/fulfillments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	invoker, err := NewHTTPInvoker(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	entry := testEntry()
	require.NoError(t, invoker.Invoke(context.Background(), entry))

	assert.Equal(t, entry.ID.String(), received.EntryID)
	assert.Equal(t, entry.OrderID.String(), received.OrderID)
	assert.Equal(t, "SUP-001", received.SupplierRef)
	assert.Equal(t, 2, received.Attempt)
}

func TestHTTPInvoker_Invoke_SupplierRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sku unavailable", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	invoker, err := NewHTTPInvoker(&Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)

	err = invoker.Invoke(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "sku unavailable")
}

func TestNewHTTPInvoker_RequiresURL(t *testing.T) {
	_, err := NewHTTPInvoker(&Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
