package transport

import (
	"time"

	"snackhub-be/internal/catalog"
	"snackhub-be/internal/order"
)

type cartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type submitOrderRequest struct {
	Lines        []cartLineRequest `json:"lines"`
	DeliveryType string            `json:"delivery_type"`
	Address      *string           `json:"address,omitempty"`
	City         *string           `json:"city,omitempty"`
	Phone        string            `json:"phone"`
	Notes        *string           `json:"notes,omitempty"`
	PromoCode    *string           `json:"promo_code,omitempty"`
}

type updateStatusRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty"`
}

type orderLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	LineTotal   int64  `json:"line_total"`
}

type timelineEntryResponse struct {
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type orderResponse struct {
	ID            string                  `json:"id"`
	Number        string                  `json:"number"`
	Status        string                  `json:"status"`
	PaymentStatus string                  `json:"payment_status"`
	DeliveryType  string                  `json:"delivery_type"`
	Address       *string                 `json:"address,omitempty"`
	City          *string                 `json:"city,omitempty"`
	Phone         string                  `json:"phone"`
	Notes         *string                 `json:"notes,omitempty"`
	PromoCode     *string                 `json:"promo_code,omitempty"`
	Subtotal      int64                   `json:"subtotal"`
	DeliveryFee   int64                   `json:"delivery_fee"`
	Discount      int64                   `json:"discount"`
	Total         int64                   `json:"total"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Lines         []orderLineResponse     `json:"lines,omitempty"`
	Timeline      []timelineEntryResponse `json:"timeline,omitempty"`
}

type productResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	Published bool   `json:"published"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		DeliveryType:  string(o.DeliveryType),
		Address:       o.Address,
		City:          o.City,
		Phone:         o.Phone,
		Notes:         o.Notes,
		PromoCode:     o.PromoCode,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Discount:      o.Discount,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	for _, line := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	for _, entry := range o.Timeline {
		resp.Timeline = append(resp.Timeline, timelineEntryResponse{
			Status:    string(entry.Status),
			Note:      entry.Note,
			Actor:     entry.Actor,
			CreatedAt: entry.CreatedAt,
		})
	}

	return resp
}

func toProductResponse(s catalog.Snapshot) productResponse {
	return productResponse{
		ID:        s.ID,
		Name:      s.Name,
		Price:     s.Price,
		Stock:     s.Stock,
		Published: s.Published,
	}
}
