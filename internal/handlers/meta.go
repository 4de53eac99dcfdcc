package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/logging"
)

// MetaHandler serves the API index and the log file endpoints.
type MetaHandler struct {
	routes  func() []string
	logFile string
}

func NewMetaHandler(routes func() []string, logFile string) *MetaHandler {
	return &MetaHandler{
		routes:  routes,
		logFile: logFile,
	}
}

// Routes lists the registered route paths.
func (h *MetaHandler) Routes(c *gin.Context) {
	RespondData(c, h.routes())
}

// Logs returns the last limit lines of the log file (default 100).
func (h *MetaHandler) Logs(c *gin.Context) {
	if h.logFile == "" {
		RespondError(c, http.StatusNotFound, "no log file configured")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		RespondError(c, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	lines, err := logging.Tail(h.logFile, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Error reading log file: "+err.Error())
		return
	}

	RespondData(c, lines)
}

// ClearLogs truncates the log file.
func (h *MetaHandler) ClearLogs(c *gin.Context) {
	if h.logFile == "" {
		RespondError(c, http.StatusNotFound, "no log file configured")
		return
	}

	if err := logging.Clear(h.logFile); err != nil {
		RespondError(c, http.StatusInternalServerError, "Error clearing log file: "+err.Error())
		return
	}

	RespondNoContent(c)
}
