package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoleContextKey is where guards record the resolved role for handlers.
const RoleContextKey = "session_role"

// Guard enforces role requirements on gin routes.
type Guard struct {
	resolver  *SessionResolver
	adminPin  string
	pinHeader string
}

func NewGuard(resolver *SessionResolver, adminPin, pinHeader string) *Guard {
	return &Guard{resolver: resolver, adminPin: adminPin, pinHeader: pinHeader}
}

// RequireViewer allows any valid session, viewer or admin.
func (g *Guard) RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := g.resolver.Role(c)
		if !ok {
			reject(c)
			return
		}
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

// RequireAdmin allows a valid admin cookie, or the configured PIN sent as a
// request header. The PIN compare is plain equality; it is the low-security
// fallback channel, not the primary one.
func (g *Guard) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.resolver.AdminRole(c) {
			c.Set(RoleContextKey, RoleAdmin)
			c.Next()
			return
		}
		if pin := c.GetHeader(g.pinHeader); g.adminPin != "" && pin == g.adminPin {
			c.Set(RoleContextKey, RoleAdmin)
			c.Next()
			return
		}
		reject(c)
	}
}

func reject(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		gin.H{"message": "error", "error": "not authorized"})
}
