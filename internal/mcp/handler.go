package mcp

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/auth/middleware"
	"github.com/folio-studio/folio-backend/internal/logging"
	"github.com/folio-studio/folio-backend/internal/ratelimit"
)

const maxBodyBytes = 1 << 20

// Limiter is satisfied by *ratelimit.Limiter.
type Limiter interface {
	Allow(ctx context.Context, subject string) (ratelimit.Decision, error)
}

type Handler struct {
	server  *Server
	limiter Limiter
}

func NewHandler(server *Server, limiter Limiter) *Handler {
	return &Handler{server: server, limiter: limiter}
}

// Register mounts POST /mcp/v1/messages on rg behind bearer auth and the
// per-profile rate limit.
func (h *Handler) Register(rg *gin.RouterGroup, authn *middleware.Authenticator) {
	rg.POST("/mcp/v1/messages", authn.RequireProfile(), h.RateLimit(), h.Messages)
}

// RateLimit must run after RequireProfile. When Redis is unreachable the
// limiter's local bucket decides; a limiter that cannot decide at all lets
// the request through.
func (h *Handler) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := auth.ProfileFrom(c)
		if h.limiter == nil || profile == nil {
			c.Next()
			return
		}

		d, err := h.limiter.Allow(c.Request.Context(), profile.ID)
		if err != nil {
			logging.FromContext(c.Request.Context()).Warn("mcp.ratelimit.unavailable", "error", err, "degraded", d.Degraded)
			if !d.Degraded {
				c.Next()
				return
			}
		}
		if !d.Allowed {
			c.Header("Retry-After", ratelimit.RetryAfterSeconds(d.RetryAfter))
			logging.FromContext(c.Request.Context()).Info("mcp.ratelimit.exceeded", "profile_id", profile.ID, "limit", d.Limit)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse(nil, CodeRateLimited, "rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// Messages answers one JSON-RPC message. Notifications get 202 and no body.
func (h *Handler) Messages(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse(nil, CodeInvalidRequest, "request body too large"))
		return
	}

	caller := &Caller{Profile: auth.ProfileFrom(c), Identity: auth.IdentityFrom(c)}
	resp := h.server.Handle(c.Request.Context(), caller, body)
	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, resp)
}
