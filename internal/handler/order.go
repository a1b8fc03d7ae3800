package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"couture-be/internal/order"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type checkoutRequest struct {
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}

type linkRequest struct {
	CustomOrderID string `json:"customOrderId"`
}

func (h *OrderHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.GetOrCreateCart(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cart, err := h.svc.AddItem(r.Context(), principal(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.svc.RemoveItem(r.Context(), principal(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Checkout(r.Context(), principal(r), order.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sort, err := orderSort(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.ListOrders(r.Context(), principal(r), filter, sort, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.svc.GetOrder(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, ErrInvalidBody)
		return
	}
	cmds, comment, err := decodePatch(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.svc.UpdateFields(r.Context(), principal(r), id, cmds, comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.AuditTrail(r.Context(), principal(r), id, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) LinkCustomOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	customOrderID, err := uuid.Parse(strings.TrimSpace(req.CustomOrderID))
	if err != nil {
		writeError(w, r, ErrInvalidID)
		return
	}

	o, err := h.svc.LinkCustomOrder(r.Context(), principal(r), id, customOrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
