package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

const principalKey = "principal"

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if header == "" || !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", apperror.AuthenticationFailed("Bearer token required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperror.AuthenticationFailed("Bearer token required")
	}
	return token, nil
}

// Authenticate resolves the bearer token to a principal, rejecting
// revoked tokens and deleted users.
func Authenticate(authn *services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		principal, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := services.RequireAdmin(CurrentPrincipal(c)); err != nil {
			utils.SendError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by Authenticate, or nil.
func CurrentPrincipal(c *gin.Context) *services.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*services.Principal)
	return p
}
