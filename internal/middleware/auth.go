package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/mediasweep/api"
)

// RequireToken rejects requests that do not carry token as a bearer token
func RequireToken(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		got, found := strings.CutPrefix(header, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="mediasweep"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}
