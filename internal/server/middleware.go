package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/subora/internal/actorcontext"
)

const (
	// Identity headers set by the upstream gateway. Authentication is an
	// external collaborator; this service only trusts what it is handed.
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

// ActorContext resolves the caller identity headers into the request
// context. Requests without a role pass through anonymously; route
// gates reject them later.
func (s *Server) ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawRole := c.GetHeader(HeaderActorRole)
		if strings.TrimSpace(rawRole) == "" {
			c.Next()
			return
		}

		role, ok := actorcontext.ParseRole(rawRole)
		if !ok {
			AbortWithError(c, newValidationError("actor_role", "invalid_actor_role", "invalid actor role"))
			return
		}

		actor := actorcontext.Actor{Role: role}
		if role == actorcontext.RoleCustomer {
			customerID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader(HeaderActorID)))
			if err != nil || customerID == 0 {
				AbortWithError(c, newValidationError("actor_id", "invalid_actor_id", "invalid actor id"))
				return
			}
			actor.CustomerID = customerID
		}

		ctx := actorcontext.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// authorize gates a route on the casbin policy for the actor's role.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorcontext.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), actor.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Next()
	}
}
