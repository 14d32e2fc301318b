package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"inventory-api/pkg/apperror"
	"inventory-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// UploadedFileKey holds the disk path of a file saved for the current request.
// The error handler removes it when the request fails.
const UploadedFileKey = "uploadedFile"

// ErrorHandler turns the last error pushed with c.Error into the JSON error envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if path := c.GetString(UploadedFileKey); path != "" {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				slog.Warn("failed to remove uploaded file", "path", path, "error", rmErr)
			}
		}

		status, msg := apperror.Resolve(err)
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(status, response.Error(status, msg))
	}
}

// NoRoute answers unmatched paths.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Could not find this route."))
}
