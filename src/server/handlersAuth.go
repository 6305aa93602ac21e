package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auth "memocal/src/auth"
	cfg "memocal/src/configuration"
)

type (
	AuthHandler struct {
		codec            *auth.TokenCodec
		resolver         *auth.SessionResolver
		viewerPassword   string
		adminPin         string
		viewerCookieName string
		adminCookieName  string
		viewerMaxAge     time.Duration
		adminMaxAge      time.Duration
	}

	LoginBody struct {
		Password string `json:"password"`
	}

	AdminLoginBody struct {
		Pin string `json:"pin"`
	}
)

func NewAuthHandler(config *cfg.Properties, codec *auth.TokenCodec, resolver *auth.SessionResolver) *AuthHandler {
	if config.Auth.Secret == "" {
		log.Fatalf("AUTH_SECRET is not set, can not issue session tokens")
		return nil
	}
	return &AuthHandler{
		codec:            codec,
		resolver:         resolver,
		viewerPassword:   config.Auth.ViewerPassword,
		adminPin:         config.Auth.AdminPin,
		viewerCookieName: config.Auth.ViewerCookieName,
		adminCookieName:  config.Auth.AdminCookieName,
		viewerMaxAge:     config.Auth.ViewerMaxAge,
		adminMaxAge:      config.Auth.AdminMaxAge,
	}
}

// PostLogin checks the shared viewer password and issues the viewer cookie.
func (a *AuthHandler) PostLogin(c *gin.Context) {
	var requestBody LoginBody
	if err := c.BindJSON(&requestBody); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no password in request"})
		return
	}
	if a.viewerPassword == "" || requestBody.Password != a.viewerPassword {
		c.Header("Cache-Control", "no-store")
		c.IndentedJSON(http.StatusUnauthorized, gin.H{"message": "error", "error": "not authorized"})
		return
	}
	token, err := a.codec.CreateToken(auth.RoleViewer, a.viewerMaxAge)
	if err != nil {
		log.Printf("can not create viewer token: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "can not create session"})
		return
	}
	a.setSessionCookie(c, a.viewerCookieName, token, int(a.viewerMaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{"role": auth.RoleViewer}})
}

// PostAdminLogin checks the admin PIN and issues the admin cookie.
func (a *AuthHandler) PostAdminLogin(c *gin.Context) {
	var requestBody AdminLoginBody
	if err := c.BindJSON(&requestBody); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": "no pin in request"})
		return
	}
	if a.adminPin == "" || requestBody.Pin != a.adminPin {
		c.Header("Cache-Control", "no-store")
		c.IndentedJSON(http.StatusUnauthorized, gin.H{"message": "error", "error": "not authorized"})
		return
	}
	token, err := a.codec.CreateToken(auth.RoleAdmin, a.adminMaxAge)
	if err != nil {
		log.Printf("can not create admin token: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "can not create session"})
		return
	}
	a.setSessionCookie(c, a.adminCookieName, token, int(a.adminMaxAge.Seconds()))
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{"role": auth.RoleAdmin}})
}

// Logout clears both role cookies.
func (a *AuthHandler) Logout(c *gin.Context) {
	a.setSessionCookie(c, a.viewerCookieName, "", -1)
	a.setSessionCookie(c, a.adminCookieName, "", -1)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Session reports the current role so the frontend can bootstrap.
func (a *AuthHandler) Session(c *gin.Context) {
	role, ok := a.resolver.Role(c)
	if !ok {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{"role": nil}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": gin.H{"role": role}})
}

func (a *AuthHandler) setSessionCookie(c *gin.Context, name, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, maxAge, "/", "", true, true)
}
