package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// subjectKey 认证通过后 gin.Context 中保存 sub 声明的键
const subjectKey = "subject"

// BearerAuth 校验 HS256 签名的 Bearer Token
func BearerAuth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "bearer token required")
			return
		}

		claims := jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, keyFunc); err != nil {
			writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}
		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// Subject 请求的认证主体，未启用认证时为空
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
