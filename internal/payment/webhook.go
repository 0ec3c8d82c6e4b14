package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"snackhub-be/internal/logger"
	"snackhub-be/internal/order"
	"snackhub-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookPayload is the callback the payment collaborator sends once it has
// resolved a charge.
type WebhookPayload struct {
	Event   string `json:"event"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
}

// Collaborator payment statuses.
const (
	statusPaid     = "PAID"
	statusRefunded = "REFUNDED"
)

type Handler struct {
	orders order.Service
}

func NewWebhookHandler(orders order.Service) *Handler {
	return &Handler{orders: orders}
}

// WebhookHandler applies the collaborator's payment result to the order.
// Statuses the platform does not track are acknowledged and dropped so the
// collaborator stops retrying.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("handler", "payment_webhook"))

	token := os.Getenv("PAYMENT_WEBHOOK_TOKEN")
	if token == "" || r.Header.Get("x-callback-token") != token {
		utils.WriteJSONError(w, "invalid callback token", http.StatusUnauthorized)
		return
	}

	var payload WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("order_id", orderID.String()),
		zap.String("event", payload.Event),
		zap.String("payment_status", payload.Status),
	)

	var status order.PaymentStatus
	switch payload.Status {
	case statusPaid:
		status = order.PaymentStatusPaid
	case statusRefunded:
		status = order.PaymentStatusRefunded
	default:
		log.Info("ignoring untracked payment status")
		w.WriteHeader(http.StatusOK)
		return
	}

	// The collaborator acts with service identity, not on behalf of the
	// customer.
	ctx := utils.SetUserContext(r.Context(), 0, "", utils.RoleAdmin)

	o, err := h.orders.GetOrder(ctx, orderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		utils.WriteJSONError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("failed to load order for webhook", zap.Error(err))
		utils.WriteJSONError(w, "failed to load order", http.StatusInternalServerError)
		return
	}

	if payload.Amount != 0 && payload.Amount != o.Total {
		log.Warn("webhook amount does not match order total",
			zap.Int64("webhook_amount", payload.Amount),
			zap.Int64("order_total", o.Total),
		)
		utils.WriteJSONError(w, "amount mismatch", http.StatusConflict)
		return
	}

	if err := h.orders.SetPaymentStatus(ctx, orderID, status); err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		utils.WriteJSONError(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	log.Info("payment status applied")
	w.WriteHeader(http.StatusOK)
}
