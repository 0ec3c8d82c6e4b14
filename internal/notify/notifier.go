package notify

import (
	"context"

	"snackhub-be/internal/logger"
	"snackhub-be/internal/order"

	"go.uber.org/zap"
)

// LogNotifier implements order.Notifier by recording events to the
// application log. It stands in for the external notification collaborator
// in deployments without one; delivery and retry are that collaborator's
// concern, never the core's.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) OrderCreated(ctx context.Context, o *order.Order) {
	logger.FromCtx(ctx).Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.Int64("total", o.Total),
		zap.String("delivery_type", string(o.DeliveryType)),
	)
}

func (n *LogNotifier) StatusChanged(ctx context.Context, o *order.Order, from order.OrderStatus) {
	logger.FromCtx(ctx).Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.Number),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
}
