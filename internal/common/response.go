package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes payload as-is with 200.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Fail writes the error envelope {"error": msg, "code": code}.
func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"error": msg,
		"code":  code,
	})
}

// AbortFail is Fail for middleware.
func AbortFail(c *gin.Context, httpStatus int, code int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"error": msg,
		"code":  code,
	})
}
