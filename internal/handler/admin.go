package handler

import (
	"io"
	"net/http"
	"strconv"

	"couture-be/internal/admin"
)

type AdminHandler struct {
	svc admin.Service
}

func NewAdminHandler(svc admin.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	includeAudit, _ := strconv.ParseBool(r.URL.Query().Get("includeAudit"))

	detail, err := h.svc.GetOrder(r.Context(), principal(r), id, includeAudit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *AdminHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
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

	o, err := h.svc.UpdateOrder(r.Context(), principal(r), id, cmds, comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.svc.Summary(r.Context(), principal(r), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
