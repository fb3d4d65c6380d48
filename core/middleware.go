package core

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const identityContextKey = "identity"
const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an ID for log correlation,
// honoring an inbound X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequireAuth extracts and verifies the bearer token, rejecting the request
// before any protected handler runs. The verified identity is placed in the
// request context for handlers to read explicitly; there is no ambient
// security state.
func RequireAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
			c.Abort()
			return
		}
		ident, err := issuer.Verify(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(identityContextKey, ident)
		c.Next()
	}
}

// RequireRole ensures the verified token's role claim equals role. It must
// be mounted after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
			c.Abort()
			return
		}
		if ident.Role != role {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "insufficient authority")
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the verified token identity set by RequireAuth.
func IdentityFrom(c *gin.Context) (TokenIdentity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return TokenIdentity{}, false
	}
	ident, ok := v.(TokenIdentity)
	return ident, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// OriginMiddleware validates Origin/Referer against the allowed list and
// sets CORS headers for browser clients.
func OriginMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		if len(allowed) == 0 {
			return false
		}
		origin = strings.ToLower(origin)
		_, ok := allowed[origin]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		// Preflight handling
		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin) {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
}
