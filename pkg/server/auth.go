package server

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smash-term/smash/pkg/config"
)

// basicAuthMiddleware enforces HTTP Basic auth when the config carries
// credentials; with none configured, every request passes through.
func basicAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/health" {
			c.Next()
			return
		}
		if !cfg.HasAuth() {
			c.Next()
			return
		}

		if validateBasicAuth(cfg, c.GetHeader("Authorization")) {
			c.Next()
			return
		}

		c.Header("WWW-Authenticate", `Basic realm="smash"`)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		c.Abort()
	}
}

func validateBasicAuth(cfg *config.Config, header string) bool {
	if !strings.HasPrefix(header, "Basic ") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len("Basic "):])
	if err != nil {
		return false
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return false
	}
	return parts[0] == cfg.BasicAuthUsername && parts[1] == cfg.BasicAuthPassword
}
