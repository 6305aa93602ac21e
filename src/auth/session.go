package auth

import (
	"github.com/gin-gonic/gin"
)

// SessionResolver extracts a role-bearing session from request cookies.
type SessionResolver struct {
	codec            *TokenCodec
	viewerCookieName string
	adminCookieName  string
}

func NewSessionResolver(codec *TokenCodec, viewerCookieName, adminCookieName string) *SessionResolver {
	return &SessionResolver{
		codec:            codec,
		viewerCookieName: viewerCookieName,
		adminCookieName:  adminCookieName,
	}
}

// Role resolves the request's session role. The admin cookie wins over the
// viewer cookie when both are present and valid.
func (r *SessionResolver) Role(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(r.adminCookieName); err == nil {
		if role, ok := r.codec.VerifyToken(token); ok && role == RoleAdmin {
			return RoleAdmin, true
		}
	}
	if token, err := c.Cookie(r.viewerCookieName); err == nil {
		if role, ok := r.codec.VerifyToken(token); ok && role == RoleViewer {
			return RoleViewer, true
		}
	}
	return "", false
}

// AdminRole accepts only the admin cookie.
func (r *SessionResolver) AdminRole(c *gin.Context) bool {
	token, err := c.Cookie(r.adminCookieName)
	if err != nil {
		return false
	}
	role, ok := r.codec.VerifyToken(token)
	return ok && role == RoleAdmin
}
