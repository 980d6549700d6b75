package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK 以统一的 {status, message, data} 信封返回成功响应。
func OK(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"status": status, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"status": status, "message": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "message": MsgUnauthorized})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, MsgUnauthorized) }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }
