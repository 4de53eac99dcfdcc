package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Audit emits a structured audit record after every mutating request: the
// action, the model touched, the authenticated client when auth is on, and
// where the request came from. Reads pass through silently.
func Audit() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := auditAction(c.Request.Method)
		if action == "" {
			return
		}

		slog.Default().Info("audit",
			slog.String("action", action),
			slog.String("model", c.Param("model")),
			slog.String("client_id", c.GetString("client_id")),
			slog.String("ip_address", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("status", c.Writer.Status()),
		)
	}
}

func auditAction(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return ""
	}
}
