// Package actorcontext carries the authenticated caller through request
// contexts. Authentication itself happens upstream; handlers only read
// the identity headers the gateway sets.
package actorcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleInternal Role = "internal"
	RoleCustomer Role = "customer"
)

// Actor identifies the caller of an operation.
type Actor struct {
	Role       Role
	CustomerID snowflake.ID // set only for customer actors
}

// IsStaff reports whether the actor holds a back-office role.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleInternal
}

func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleInternal:
		return RoleInternal, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}

type actorKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor from context, if set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
