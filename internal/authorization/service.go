package authorization

import (
	"context"
	"errors"

	"github.com/smallbiznis/subora/internal/actorcontext"
)

// Service answers whether a role may perform an action on an object.
// Fine-grained ownership checks (a customer closing their own
// subscription) live in the feature services; this layer gates routes.
type Service interface {
	Authorize(ctx context.Context, role actorcontext.Role, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
