package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tillkit/till/internal/cancel"
	"github.com/tillkit/till/internal/checkout"
)

type Handler struct {
	svc    *checkout.Service
	window *cancel.Window
}

func NewHandler(svc *checkout.Service, window *cancel.Window) *Handler {
	return &Handler{svc: svc, window: window}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.commit)
	r.Post("/{transactionID}/cancel", h.cancel)
}

type checkoutLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type checkoutRequest struct {
	Lines            []checkoutLineRequest `json:"lines"`
	PaymentMethod    string                `json:"payment_method"`
	CustomerCategory string                `json:"customer_category"`
	SeatingMode      string                `json:"seating_mode"`
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cart checkout.Cart
	for _, line := range req.Lines {
		cart.Add(line.ProductID, line.Quantity)
	}

	res, err := h.svc.Commit(r.Context(), checkout.Params{
		Cart:             cart,
		PaymentMethod:    req.PaymentMethod,
		CustomerCategory: req.CustomerCategory,
		SeatingMode:      req.SeatingMode,
	})
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, rejectionResponse{
				State:   string(checkout.StateRejected),
				Reasons: verr.Reasons,
			})

			return
		}

		slog.Error("checkout failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toResultResponse(res))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		http.Error(w, "invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.window.Cancel(r.Context(), transactionID); err != nil {
		switch {
		case errors.Is(err, cancel.ErrNotFound):
			http.Error(w, "no cancellable transaction", http.StatusNotFound)
		case errors.Is(err, cancel.ErrExpired):
			http.Error(w, "cancellation window expired", http.StatusGone)
		default:
			slog.Error("cancellation failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
