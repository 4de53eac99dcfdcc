package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with one of three shapes: 200 with a data field,
// 204 with an empty body, or an error status with an error field.

// DataResponse is the success envelope.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondData writes a 200 success envelope.
func RespondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondNoContent writes an empty 204 response.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondError writes an error envelope with the given status. Failed
// lookups use 404.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}
