package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/code-tutor/internal/auth"
	"github.com/suPer8Hu/code-tutor/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired accepts "Authorization: Bearer <access token>" and stores the
// user id under UserIDKey.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if len(h) <= 7 || !strings.EqualFold(h[:7], "Bearer ") {
			common.AbortFail(c, http.StatusUnauthorized, 40101, "Authentication credentials were not provided.")
			return
		}
		uid, err := auth.ParseJWT(strings.TrimSpace(h[7:]), auth.AccessToken, secret)
		if err != nil {
			common.AbortFail(c, http.StatusUnauthorized, 40102, "Given token not valid for any token type")
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}

func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
