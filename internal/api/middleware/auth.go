package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// OperatorKey gin上下文里操作人身份的键。
// 身份只在这里从请求头解析一次，往下全部显式传参。
const OperatorKey = "operator"

const anonymousOperator = "anonymous"

// Identity 从 Authorization 头解析操作人。
// 令牌格式为 token_<username>_<timestamp>，解析不出来时落到 anonymous。
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(OperatorKey, parseOperator(c.GetHeader("Authorization")))
		c.Next()
	}
}

func parseOperator(auth string) string {
	if !strings.HasPrefix(auth, "Bearer ") {
		return anonymousOperator
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if len(token) <= 10 {
		return anonymousOperator
	}
	parts := strings.Split(token, "_")
	if len(parts) >= 3 && parts[0] == "token" && parts[1] != "" {
		return parts[1]
	}
	return anonymousOperator
}

// Operator 读取当前请求的操作人身份
func Operator(c *gin.Context) string {
	if v, ok := c.Get(OperatorKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return anonymousOperator
}
