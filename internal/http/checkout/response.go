package checkout

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/checkout"
)

type rejectionResponse struct {
	State   string   `json:"state"`
	Reasons []string `json:"reasons"`
}

type saleResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitCost    float64   `json:"unit_cost"`
	Price       float64   `json:"price"`
	Total       float64   `json:"total"`
}

type failedItemResponse struct {
	ItemID uuid.UUID `json:"item_id"`
	Error  string    `json:"error"`
}

type resultResponse struct {
	State         string               `json:"state"`
	TransactionID uuid.UUID            `json:"transaction_id"`
	Number        string               `json:"number"`
	Sales         []saleResponse       `json:"sales"`
	FailedItems   []failedItemResponse `json:"failed_items,omitempty"`
	CommittedAt   time.Time            `json:"committed_at"`
}

func toResultResponse(res *checkout.Result) resultResponse {
	resp := resultResponse{
		State:         string(res.State),
		TransactionID: res.TransactionID,
		Number:        res.Number,
		Sales:         make([]saleResponse, len(res.Sales)),
		CommittedAt:   res.CommittedAt,
	}

	for i, s := range res.Sales {
		resp.Sales[i] = saleResponse{
			ID:          s.ID,
			ProductID:   s.ProductID,
			ProductName: s.ProductName,
			Quantity:    s.Quantity,
			UnitCost:    s.UnitCost,
			Price:       s.Price,
			Total:       s.Total,
		}
	}

	for _, f := range res.FailedItems {
		resp.FailedItems = append(resp.FailedItems, failedItemResponse{
			ItemID: f.ItemID,
			Error:  f.Err.Error(),
		})
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
