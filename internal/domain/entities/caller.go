package entities

import "context"

// Role is the caller's role as asserted by the identity provider
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleStructureManager Role = "structure-manager"
	RoleUser             Role = "user"
)

// Caller is the authenticated identity behind a request
type Caller struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// IsAdmin reports whether the caller is an administrator
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

type callerContextKey struct{}

// ContextWithCaller returns a copy of ctx carrying caller
func ContextWithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext returns the authenticated caller, or nil for anonymous requests
func CallerFromContext(ctx context.Context) *Caller {
	caller, _ := ctx.Value(callerContextKey{}).(*Caller)
	return caller
}
