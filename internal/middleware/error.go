package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/aumreport/internal/domain/dto"
	"github.com/guttosm/aumreport/internal/logger"
)

// ErrorHandler turns errors attached with c.Error into a JSON error
// response when the handler chain wrote nothing itself.
//
// The status already set on the writer is kept when it is 4xx or 5xx,
// anything else becomes 500 Internal Server Error.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	last := c.Errors.Last()
	rid, _ := c.Get(RequestIDKey)
	logger.L().Error().
		Str("request_id", toString(rid)).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Err(last.Err).
		Msg("request failed")

	c.JSON(status, dto.NewErrorResponse(http.StatusText(status), last.Err))
}

// AbortWithError records err on the context, stops the chain and writes a
// standardized JSON error with the given status.
//
// Example:
//
//	if err := c.ShouldBindJSON(&req); err != nil {
//		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request body", err)
//		return
//	}
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
