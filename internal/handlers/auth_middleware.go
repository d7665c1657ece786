package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atknylmz/Urtim-server/internal/utils"
)

const (
	ctxClaims = "claims"
	ctxUserID = "user_id"
)

// TokenVerifier is satisfied by services.AuthService.
type TokenVerifier interface {
	VerifyToken(token string) (*utils.Claims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects a missing or expired token with 401 and any other
// invalid token with 403.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "auth_error", "authorization token missing")
			return
		}

		claims, err := m.verifier.VerifyToken(token)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				abortJSON(c, http.StatusUnauthorized, "auth_error", "token expired")
				return
			}
			abortJSON(c, http.StatusForbidden, "forbidden", "invalid token")
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil || !claims.IsAdmin() {
			abortJSON(c, http.StatusForbidden, "forbidden", "admin authority required")
			return
		}
		c.Next()
	}
}

// RequireSelf lets the request through only when the token belongs to the
// user named by the path parameter.
func (m *AuthMiddleware) RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		id, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			abortJSON(c, http.StatusBadRequest, "validation_error", "invalid "+param)
			return
		}
		if claims == nil || claims.UserID != id {
			abortJSON(c, http.StatusForbidden, "forbidden", "token does not belong to this user")
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *utils.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func abortJSON(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: kind, Message: message})
}
