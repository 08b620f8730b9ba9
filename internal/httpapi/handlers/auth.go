package handlers

import (
	"strings"

	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/security"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AuthHandler serves login and the current-user projection.
type AuthHandler struct {
	store *store.Store
	jwt   config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(s *store.Store, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{store: s, jwt: jwtCfg}
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a bearer token. A wrong username and
// a wrong password are indistinguishable to the caller.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		envelope.Fail(c, envelope.CodeBadRequest, "用户名和密码必填")
		return
	}

	user, ok := h.store.FindUserByUsername(username)
	if !ok || !security.CheckPassword(user.Password, body.Password) {
		envelope.Fail(c, envelope.CodeUnauthorized, "用户名或密码错误")
		return
	}

	token, errIssue := security.IssueToken(h.jwt.Secret, user.ID, user.Username, user.Nickname, h.jwt.Expiry)
	if errIssue != nil {
		log.WithError(errIssue).Error("issue token failed")
		envelope.Fail(c, envelope.CodeInternal, "服务器异常")
		return
	}

	envelope.OK(c, gin.H{
		"token":     token,
		"expiresIn": int(h.jwt.Expiry.Seconds()),
		"user":      user.Sanitized(),
	})
}

// UserInfo returns the caller's own account, password stripped.
func (h *AuthHandler) UserInfo(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}
	envelope.OK(c, user.Sanitized())
}
