// internal/middleware/session.go
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const CartSessionCookie = "cart_session"

// CartSession assigns every caller an opaque session id kept in a cookie. The id keys the cart.
func CartSession(ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(CartSessionCookie)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.NewString()
		}

		// refreshed on every request so the cookie outlives the cart's sliding ttl
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CartSessionCookie, sessionID, int(ttl.Seconds()), "/", "", secure, true)

		c.Set("session_id", sessionID)
		c.Next()
	}
}
