package handler

import (
	"encoding/json"
	"net/http"

	"couture-be/internal/customorder"
)

type CustomOrderHandler struct {
	svc customorder.Service
}

func NewCustomOrderHandler(svc customorder.Service) *CustomOrderHandler {
	return &CustomOrderHandler{svc: svc}
}

type createCustomOrderRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Measurements      json.RawMessage `json:"measurements"`
	InspirationImages []string        `json:"inspirationImages"`
	BudgetCents       *int64          `json:"budgetCents"`
}

type respondRequest struct {
	Action                string `json:"action"`
	QuoteCents            *int64 `json:"quoteCents"`
	DepositCents          *int64 `json:"depositCents"`
	EstimatedDeliveryDays *int   `json:"estimatedDeliveryDays"`
	Note                  string `json:"note"`
}

type statusRequest struct {
	Status        *string `json:"status"`
	ProgressStep  *string `json:"progressStep"`
	PaymentStatus *string `json:"paymentStatus"`
	TrackingURL   *string `json:"trackingUrl"`
}

type assetsRequest struct {
	URLs []string `json:"urls"`
}

func (h *CustomOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.CreateRequest(r.Context(), principal(r), customorder.CreateInput{
		Title:             req.Title,
		Description:       req.Description,
		Measurements:      req.Measurements,
		InspirationImages: req.InspirationImages,
		BudgetCents:       req.BudgetCents,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CustomOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter customorder.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := customorder.ParseStatus(raw)
		if !ok {
			writeError(w, r, customorder.ErrInvalidStatus)
			return
		}
		filter.Status = &st
	}
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.List(r.Context(), principal(r), filter, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CustomOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.Get(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomOrderHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.Respond(r.Context(), principal(r), id, customorder.RespondInput{
		Action:                customorder.Action(req.Action),
		QuoteCents:            req.QuoteCents,
		DepositCents:          req.DepositCents,
		EstimatedDeliveryDays: req.EstimatedDeliveryDays,
		Note:                  req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := customorder.StatusPatch{TrackingURL: req.TrackingURL}
	if req.Status != nil {
		st := customorder.Status(*req.Status)
		patch.Status = &st
	}
	if req.ProgressStep != nil {
		step := customorder.ProgressStep(*req.ProgressStep)
		patch.ProgressStep = &step
	}
	if req.PaymentStatus != nil {
		ps := customorder.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &ps
	}

	c, err := h.svc.UpdateStatus(r.Context(), principal(r), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomOrderHandler) AttachAssets(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assetsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.svc.AttachAssets(r.Context(), principal(r), id, req.URLs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
