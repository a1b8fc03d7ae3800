// Package auth carries the acting principal supplied by the identity service.
// This backend never authenticates users itself; it only reads the verified
// principal and authorizes against its role.
package auth

import (
	"context"
	"strings"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleDesigner Role = "designer"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts any casing; unknown roles yield false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleDesigner, RoleAdmin:
		return r, true
	}
	return "", false
}

type Principal struct {
	ID                string
	Role              Role
	PreferredCurrency string
}

func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Principal) IsDesigner() bool { return p.Role == RoleDesigner }
func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFromContext returns the principal set by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.ID == "" {
		return Principal{}, false
	}
	return p, true
}
