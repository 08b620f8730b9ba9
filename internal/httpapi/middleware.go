package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/security"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// corsMiddleware permits cross-origin requests from any origin and
// short-circuits preflight before any routing.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"code": envelope.CodeOK, "data": "ok"})
			return
		}
		c.Next()
	}
}

// requestLogMiddleware mirrors the upstream server's per-request line.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Debugf("[API] %s %s", c.Request.Method, c.Request.URL.Path)
		c.Next()
	}
}

// recoveryMiddleware converts panics into internal-fault envelopes; one
// broken request must never take the process down.
func recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusOK, gin.H{
			"code": envelope.CodeInternal,
			"data": gin.H{"message": "服务器异常", "detail": fmt.Sprint(recovered)},
		})
	})
}

// authMiddleware validates the bearer token and loads the caller's account.
// Missing, malformed, expired, and tampered tokens all yield the same 401;
// so does a token whose user no longer exists.
func authMiddleware(s *store.Store, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || strings.TrimSpace(token) == "" {
			envelope.Unauthorized(c, "Token 无效或已过期")
			return
		}

		claims, errParse := security.ParseToken(jwtCfg.Secret, strings.TrimSpace(token))
		if errParse != nil {
			envelope.Unauthorized(c, "Token 无效或已过期")
			return
		}

		user, ok := s.FindUser(claims.UserID)
		if !ok {
			envelope.Unauthorized(c, "用户不存在")
			return
		}

		c.Set("claims", claims)
		c.Set("user", user)
		c.Next()
	}
}

// contextUser reads the account loaded by authMiddleware.
func contextUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, ok := v.(models.User)
	if !ok {
		return nil
	}
	return &user
}

// requireCapability gates a route group on a capability flag. Admins pass
// every gate.
func requireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := contextUser(c)
		if user == nil || !permissions.Has(user, capability) {
			envelope.Forbidden(c, "没有权限访问该功能")
			return
		}
		c.Next()
	}
}

// requireAdmin gates a route group on the administrator flag.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := contextUser(c)
		if user == nil || !user.IsAdmin {
			envelope.Forbidden(c, "需要管理员权限")
			return
		}
		c.Next()
	}
}
