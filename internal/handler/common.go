package handler

import (
	"strings"

	"inventory-api/internal/middleware"
	"inventory-api/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const invalidInputs = "Invalid inputs passed, please check your data."

// bindJSON reports binding failures through the error middleware.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperror.Validation(invalidInputs))
		return false
	}
	return true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm)
}

// actor is the authenticated user id, empty for anonymous requests.
func actor(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
