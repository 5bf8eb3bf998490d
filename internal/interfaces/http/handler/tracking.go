package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/tracking"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader carries the caller-supplied deduplication key for
// webhook deliveries that may be retried.
const IdempotencyKeyHeader = "Idempotency-Key"

// TrackingHandler handles carrier tracking update webhooks
type TrackingHandler struct {
	BaseHandler
	service      *tracking.Service
	dedupe       shared.IdempotencyStore
	dedupeConfig shared.IdempotencyConfig
	logger       *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler. The idempotency store
// is optional; without it every delivery is processed.
func NewTrackingHandler(service *tracking.Service, dedupe shared.IdempotencyStore, logger *zap.Logger) *TrackingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingHandler{
		service:      service,
		dedupe:       dedupe,
		dedupeConfig: shared.DefaultIdempotencyConfig(),
		logger:       logger,
	}
}

// TrackingUpdateRequest represents an inbound tracking update
type TrackingUpdateRequest struct {
	OrderID           string `json:"order_id" binding:"required,uuid"`
	TrackingNumber    string `json:"tracking_number"`
	Carrier           string `json:"carrier"`
	Status            string `json:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled refunded failed"`
	EstimatedDelivery string `json:"estimated_delivery" binding:"omitempty"`
	Message           string `json:"message"`
}

// TrackingUpdateResponse wraps the applied result with the dedupe outcome
type TrackingUpdateResponse struct {
	*tracking.Result
	Duplicate bool `json:"duplicate,omitempty"`
}

// HandleTrackingUpdate godoc
//
//	@ID				handleTrackingUpdateTracking
//	@Summary		Apply a carrier tracking update to an order
//	@Description	Updates the order's tracking fields and status, syncs the fulfillment queue and notifies the customer
//	@Tags			tracking
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string					false	"Deduplication key for retried deliveries"
//	@Param			request			body		TrackingUpdateRequest	true	"Tracking update"
//	@Success		200				{object}	APIResponse[TrackingUpdateResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Router			/tracking-update [post]
func (h *TrackingHandler) HandleTrackingUpdate(c *gin.Context) {
	var req TrackingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			middleware.HandleValidationError(c, err)
			return
		}
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.ValidationError(c, []dto.ValidationDetail{
			{Field: "order_id", Message: "Must be a valid UUID"},
		})
		return
	}

	var estimatedDelivery *time.Time
	if req.EstimatedDelivery != "" {
		t, err := time.Parse(time.RFC3339, req.EstimatedDelivery)
		if err != nil {
			h.ValidationError(c, []dto.ValidationDetail{
				{Field: "estimated_delivery", Message: "Must be an RFC 3339 timestamp"},
			})
			return
		}
		estimatedDelivery = &t
	}

	ctx := c.Request.Context()

	// Retried webhook deliveries carry the same Idempotency-Key; replays
	// are acknowledged without reprocessing.
	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
	if h.dedupe != nil && h.dedupeConfig.Enabled && idempotencyKey != "" {
		processed, err := h.dedupe.IsProcessed(ctx, idempotencyKey)
		if err != nil {
			h.logger.Warn("idempotency check failed, processing anyway",
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
		} else if processed {
			h.logger.Info("duplicate tracking update ignored",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("order_id", orderID.String()))
			h.Success(c, TrackingUpdateResponse{Duplicate: true})
			return
		}
	}

	result, err := h.service.Apply(ctx, tracking.Command{
		OrderID:           orderID,
		TrackingNumber:    req.TrackingNumber,
		Carrier:           req.Carrier,
		Status:            req.Status,
		EstimatedDelivery: estimatedDelivery,
		Message:           req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.dedupe != nil && h.dedupeConfig.Enabled && idempotencyKey != "" {
		if _, err := h.dedupe.MarkProcessed(ctx, idempotencyKey, h.dedupeConfig.TTL); err != nil {
			h.logger.Warn("failed to mark tracking update processed",
				zap.String("idempotency_key", idempotencyKey),
				zap.Error(err))
		}
	}

	h.Success(c, TrackingUpdateResponse{Result: result})
}
