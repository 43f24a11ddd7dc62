package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// clientIP keys per-client limits and logs. Forwarded headers are honored only
// when the request came through a proxy the engine trusts (see
// gin.Engine.SetTrustedProxies), so a direct caller cannot pick its own key.
func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}
