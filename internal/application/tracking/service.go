package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/fulfillment"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Dispatcher delivers a customer notification. Delivery is best-effort;
// implementations must not assume exactly-once semantics.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// MetricsRecorder records processed tracking updates
type MetricsRecorder interface {
	RecordTrackingUpdate(ctx context.Context, carrier, orderStatus string)
}

// Service applies carrier tracking updates to orders. The order row is
// the authoritative outcome; the fulfillment queue sync and the customer
// notification are best-effort side effects.
type Service struct {
	orders     ordering.OrderRepository
	queue      fulfillment.QueueRepository
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    MetricsRecorder
	now        func() time.Time
}

// NewService creates a new tracking Service
func NewService(orders ordering.OrderRepository, queue fulfillment.QueueRepository, dispatcher Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:     orders,
		queue:      queue,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(metrics MetricsRecorder) {
	s.metrics = metrics
}

// Apply loads the order, applies the tracking patch and persists it as a
// single atomic row update, then syncs the fulfillment queue entry and
// dispatches a notification. Only the order lookup and the order update
// can fail the call.
func (s *Service) Apply(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.OrderID == uuid.Nil {
		return nil, shared.NewDomainError("MISSING_ORDER_ID", "Order ID is required")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "tracking", "apply_update",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, cmd.OrderID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCarrier, cmd.Carrier),
	)
	defer span.End()

	now := s.now()

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	patch := ordering.TrackingPatch{
		TrackingNumber:    cmd.TrackingNumber,
		Carrier:           cmd.Carrier,
		Status:            ordering.OrderStatus(cmd.Status),
		EstimatedDelivery: cmd.EstimatedDelivery,
	}
	changes, err := order.ApplyTracking(patch, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.orders.ApplyTrackingChanges(ctx, order.ID, changes); err != nil {
		err = fmt.Errorf("update order %s: %w", order.ID, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	synced := false
	if cmd.TrackingNumber != "" {
		queueStatus := fulfillment.ShipmentStatus(changes.Status.String())
		if err := s.queue.UpdateShipment(ctx, order.ID, changes.TrackingNumber, changes.Carrier, queueStatus, now); err != nil {
			s.logger.Warn("fulfillment queue shipment sync failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		} else {
			synced = true
		}
	}

	s.notify(ctx, order, changes, cmd.Message)

	if s.metrics != nil {
		s.metrics.RecordTrackingUpdate(ctx, changes.Carrier, changes.Status.String())
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderStatus, changes.Status.String(),
		"fulfillment_synced", synced,
	)
	telemetry.SetOK(span)

	return &Result{
		OrderID:           order.ID,
		Status:            changes.Status.String(),
		TrackingNumber:    changes.TrackingNumber,
		FulfillmentSynced: synced,
	}, nil
}

func (s *Service) notify(ctx context.Context, order *ordering.Order, changes ordering.TrackingChanges, message string) {
	if s.dispatcher == nil {
		return
	}

	template := TemplateTrackingUpdate
	if changes.Status == ordering.OrderStatusShipped {
		template = TemplateShippingUpdate
	}

	n := Notification{
		Template:          template,
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		RecipientEmail:    order.CustomerEmail,
		RecipientName:     order.CustomerName,
		Status:            changes.Status.String(),
		TrackingNumber:    changes.TrackingNumber,
		Carrier:           changes.Carrier,
		EstimatedDelivery: order.EstimatedDelivery,
		Message:           message,
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.Warn("notification dispatch failed",
			zap.String("order_id", order.ID.String()),
			zap.String("template", template),
			zap.Error(err))
	}
}
