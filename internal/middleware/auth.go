package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/polyclinic-api/internal/handler"
	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/repository"
	"github.com/jwalitptl/polyclinic-api/pkg/auth"
)

const contextActor = "actor"

type AuthMiddleware struct {
	jwtSvc auth.JWTService
	actors repository.ActorRepository
	cache  *cache.Cache
}

func NewAuthMiddleware(jwtSvc auth.JWTService, actors repository.ActorRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSvc: jwtSvc,
		actors: actors,
		// Short TTL so deactivation takes effect quickly.
		cache: cache.New(30*time.Second, time.Minute),
	}
}

// Authenticate verifies the bearer token and puts the actor record in the
// request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtSvc.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token claims"))
			c.Abort()
			return
		}

		actor, err := m.loadActor(c, actorID)
		if err != nil || !actor.Active || !actor.Role.Valid() {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unknown or inactive actor"))
			c.Abort()
			return
		}

		c.Set(contextActor, actor)
		c.Next()
	}
}

func (m *AuthMiddleware) loadActor(c *gin.Context, id uuid.UUID) (*model.Actor, error) {
	if cached, ok := m.cache.Get(id.String()); ok {
		return cached.(*model.Actor), nil
	}

	actor, err := m.actors.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	m.cache.SetDefault(id.String(), actor)
	return actor, nil
}

// ActorFromContext returns the authenticated actor set by Authenticate.
func ActorFromContext(c *gin.Context) *model.Actor {
	if v, ok := c.Get(contextActor); ok {
		if actor, ok := v.(*model.Actor); ok {
			return actor
		}
	}
	return nil
}
