package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	"github.com/rs/zerolog"
)

// RejectRevoked blocks tokens that were signed out. If Redis is unreachable the
// request proceeds; signature and expiry were already checked.
func RejectRevoked(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.CheckRevoked(c.Request.Context(), claims); err != nil {
			if errors.Is(err, service.ErrTokenRevoked) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRevoked)
				return
			}
			log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Revocation check failed")
		}

		c.Next()
	}
}
