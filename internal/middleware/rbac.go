package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/model"
	"github.com/ieltsprep/ielts-backend/internal/response"
)

// RequirePermission checks that the admin JWT contains the required permission.
func RequirePermission(p model.Permission) gin.HandlerFunc {
	return RequireAnyPermission(p)
}

// RequireAnyPermission checks that the admin JWT contains at least one of the given permissions.
func RequireAnyPermission(perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, p := range perms {
			if claims.HasPermission(p) {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
	}
}
