package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"snackhub-be/internal/catalog"
	"snackhub-be/internal/logger"
	"snackhub-be/internal/order"
	"snackhub-be/internal/promo"
	"snackhub-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	orders  order.Service
	catalog catalog.Reader
}

func NewHandler(orders order.Service, reader catalog.Reader) *Handler {
	return &Handler{orders: orders, catalog: reader}
}

// writeDomainError maps domain failures onto HTTP statuses. Conflicts that
// a client can resolve by adjusting the cart or retrying map to 409.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *order.ValidationError
	var puErr *order.ProductUnavailableError
	var isErr *order.InsufficientStockError
	var itErr *order.IllegalTransitionError

	switch {
	case errors.As(err, &vErr):
		utils.WriteJSONError(w, vErr.Error(), http.StatusBadRequest)
	case errors.As(err, &puErr):
		utils.WriteJSONError(w, puErr.Error(), http.StatusConflict)
	case errors.As(err, &isErr):
		utils.WriteJSONError(w, isErr.Error(), http.StatusConflict)
	case errors.As(err, &itErr):
		utils.WriteJSONError(w, itErr.Error(), http.StatusConflict)
	case errors.Is(err, promo.ErrExhausted):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrOrderNotFound):
		utils.WriteJSONError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, order.ErrUnauthorized):
		// Do not reveal whether the order exists.
		utils.WriteJSONError(w, "order not found", http.StatusNotFound)
	default:
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	input := order.SubmitOrderInput{
		CustomerID:   customerID,
		DeliveryType: order.DeliveryType(req.DeliveryType),
		Address:      req.Address,
		City:         req.City,
		Phone:        req.Phone,
		Notes:        req.Notes,
		PromoCode:    req.PromoCode,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, order.CartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	o, err := h.orders.SubmitOrder(r.Context(), input)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("order submission rejected", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	utils.WriteJSON(w, toOrderResponse(o), http.StatusCreated)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	utils.WriteJSON(w, toOrderResponse(o), http.StatusOK)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter order.OrderFilterInput
	if search := q.Get("search"); search != "" {
		filter.Search = &search
	}
	if status := q.Get("status"); status != "" {
		s := order.OrderStatus(strings.ToUpper(status))
		if !order.ValidStatus(s) {
			utils.WriteJSONError(w, fmt.Sprintf("unknown status %s", status), http.StatusBadRequest)
			return
		}
		filter.Status = &s
	}
	if from := q.Get("date_from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			utils.WriteJSONError(w, "invalid date_from", http.StatusBadRequest)
			return
		}
		filter.DateFrom = &ts
	}
	if to := q.Get("date_to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			utils.WriteJSONError(w, "invalid date_to", http.StatusBadRequest)
			return
		}
		filter.DateTo = &ts
	}

	var sort *order.OrderSortInput
	if field := q.Get("sort_by"); field != "" {
		sort = &order.OrderSortInput{Direction: order.SortDirectionDesc}
		switch strings.ToLower(field) {
		case "total":
			sort.Field = order.OrderSortFieldTotal
		case "created_at":
			sort.Field = order.OrderSortFieldCreatedAt
		default:
			utils.WriteJSONError(w, fmt.Sprintf("unknown sort field %s", field), http.StatusBadRequest)
			return
		}
		if strings.EqualFold(q.Get("sort_dir"), "asc") {
			sort.Direction = order.SortDirectionAsc
		}
	}

	var limit, page *int32
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 {
			utils.WriteJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		v := int32(n)
		limit = &v
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 {
			utils.WriteJSONError(w, "invalid page", http.StatusBadRequest)
			return
		}
		v := int32(n)
		page = &v
	}

	orders, err := h.orders.ListOrders(r.Context(), &filter, sort, limit, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}

	utils.WriteJSON(w, map[string]any{"orders": resp}, http.StatusOK)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	staffID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	actor := fmt.Sprintf("staff:%d", staffID)
	target := order.OrderStatus(strings.ToUpper(req.Status))

	o, err := h.orders.Transition(r.Context(), orderID, target, req.Note, actor)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("status transition rejected", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	utils.WriteJSON(w, toOrderResponse(o), http.StatusOK)
}

func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		utils.WriteJSONError(w, "missing ids parameter", http.StatusBadRequest)
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	snapshots, err := h.catalog.GetProducts(r.Context(), ids)
	if err != nil {
		utils.WriteJSONError(w, "failed to load products", http.StatusInternalServerError)
		return
	}

	resp := make([]productResponse, 0, len(snapshots))
	for _, s := range snapshots {
		resp = append(resp, toProductResponse(s))
	}

	utils.WriteJSON(w, map[string]any{"products": resp}, http.StatusOK)
}
