package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"couture-be/internal/apperror"
	"couture-be/internal/auth"
	"couture-be/internal/order"
	"couture-be/internal/pagination"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	errInvalidPage   = apperror.Validation("limit and page must be positive integers")
	errInvalidDate   = apperror.Validation("dates must be RFC3339 or YYYY-MM-DD")
	errInvalidSort   = apperror.Validation("sort must be created_at or total")
	errInvalidOrder  = apperror.Validation("order must be asc or desc")
	errInvalidFilter = apperror.Validation("unknown status or type filter")
)

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

// requirePrincipal answers 401 before any handler runs for anonymous callers.
func requirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := auth.PrincipalFromContext(r.Context()); !ok || p.ID == "" {
			writeError(w, r, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	var p pagination.Params
	q := r.URL.Query()
	for key, dst := range map[string]*int{"limit": &p.Limit, "page": &p.Page} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, errInvalidPage
		}
		*dst = n
	}
	return p, nil
}

func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, errInvalidDate
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func dateRange(r *http.Request) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if from, err = parseDate(q.Get("dateFrom"), false); err != nil {
		return nil, nil, err
	}
	if to, err = parseDate(q.Get("dateTo"), true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func orderFilter(r *http.Request) (order.Filter, error) {
	var f order.Filter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		st, ok := order.ParseStatus(raw)
		if !ok {
			return f, errInvalidFilter
		}
		f.Status = &st
	}
	if raw := q.Get("type"); raw != "" {
		t, ok := order.ParseType(raw)
		if !ok {
			return f, errInvalidFilter
		}
		f.Type = &t
	}
	f.CustomerID = strings.TrimSpace(q.Get("customerId"))
	f.DesignerID = strings.TrimSpace(q.Get("designerId"))
	f.Search = strings.TrimSpace(q.Get("search"))

	from, to, err := dateRange(r)
	if err != nil {
		return f, err
	}
	f.DateFrom, f.DateTo = from, to
	return f, nil
}

func orderSort(r *http.Request) (order.Sort, error) {
	var s order.Sort
	q := r.URL.Query()

	switch order.SortField(q.Get("sort")) {
	case "":
	case order.SortCreatedAt:
		s.Field = order.SortCreatedAt
	case order.SortTotal:
		s.Field = order.SortTotal
	default:
		return s, errInvalidSort
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
		s.Desc = true
	case "asc":
		s.Desc = false
	default:
		return s, errInvalidOrder
	}
	if s.Field == "" {
		s.Field = order.SortCreatedAt
	}
	return s, nil
}
