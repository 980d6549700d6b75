package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Correlation ID 贯穿一次请求产生的访问日志、队列任务与通知消息。
const (
	correlationIDHeader = "X-Correlation-ID"
	correlationIDKey    = "correlationID"
)

// CorrelationIDMiddleware 透传客户端携带的 Correlation ID，缺省时生成一个，
// 并回写到响应头供调用方关联日志。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(correlationIDHeader, id)

		c.Next()
	}
}

// GetCorrelationID 返回当前请求的 Correlation ID；请求未经过中间件时为空串。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
