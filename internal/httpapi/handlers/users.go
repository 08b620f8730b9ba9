package handlers

import (
	"errors"
	"strings"

	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/security"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
)

// errDuplicateUsername marks a username conflict inside an update closure.
var errDuplicateUsername = errors.New("duplicate username")

// UserHandler manages user account endpoints.
type UserHandler struct {
	store         *store.Store
	adminUsername string
}

// NewUserHandler constructs a UserHandler. adminUsername is the reserved
// administrator name applied during permission normalization.
func NewUserHandler(s *store.Store, adminUsername string) *UserHandler {
	return &UserHandler{store: s, adminUsername: adminUsername}
}

// createUserRequest defines the request body for user creation.
type createUserRequest struct {
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	Nickname    string          `json:"nickname"`
	Account     string          `json:"account"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	IsAdmin     bool            `json:"isAdmin"`
	Permissions map[string]bool `json:"permissions"`
}

// List returns every user, passwords stripped.
func (h *UserHandler) List(c *gin.Context) {
	out := []map[string]any{}
	h.store.View(func(doc *models.Document) {
		for i := range doc.Users {
			out = append(out, doc.Users[i].Sanitized())
		}
	})
	envelope.OK(c, out)
}

// Get returns a user by ID, password stripped.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}
	user, found := h.store.FindUser(id)
	if !found {
		envelope.Fail(c, envelope.CodeNotFound, "用户不存在", gin.H{"id": id})
		return
	}
	envelope.OK(c, user.Sanitized())
}

// Create adds a new user account. The username must be unique; a conflict
// leaves the store untouched.
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		envelope.Fail(c, envelope.CodeBadRequest, "用户名必填")
		return
	}
	password := strings.TrimSpace(body.Password)
	if password == "" {
		envelope.Fail(c, envelope.CodeBadRequest, "密码必填")
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常")
		return
	}

	account := strings.TrimSpace(body.Account)
	if account == "" {
		account = username
	}

	var user models.User
	errUpdate := h.store.Update(func(doc *models.Document) error {
		for i := range doc.Users {
			if doc.Users[i].Username == username {
				return errDuplicateUsername
			}
		}
		user = models.User{
			ID:          doc.NextUserID,
			Username:    username,
			Password:    hash,
			Nickname:    strings.TrimSpace(body.Nickname),
			Account:     account,
			Phone:       strings.TrimSpace(body.Phone),
			Email:       strings.TrimSpace(body.Email),
			IsAdmin:     body.IsAdmin,
			Permissions: body.Permissions,
			CreatedAt:   models.NowMillis(),
		}
		doc.NextUserID++
		permissions.Normalize(&user, h.adminUsername)
		doc.Users = append(doc.Users, user)
		return nil
	})
	if errUpdate == errDuplicateUsername {
		envelope.Fail(c, envelope.CodeBadRequest, "用户名已存在")
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, user.Sanitized())
}

// updateUserRequest defines the request body for user updates. Only provided
// fields are merged.
type updateUserRequest struct {
	Username    *string          `json:"username"`
	Password    *string          `json:"password"`
	Nickname    *string          `json:"nickname"`
	Account     *string          `json:"account"`
	Phone       *string          `json:"phone"`
	Email       *string          `json:"email"`
	IsAdmin     *bool            `json:"isAdmin"`
	Permissions *map[string]bool `json:"permissions"`
}

// Update merges the provided fields into a user account, preserving the
// rest.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}
	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}

	var hash string
	if body.Password != nil && strings.TrimSpace(*body.Password) != "" {
		var errHash error
		hash, errHash = security.HashPassword(strings.TrimSpace(*body.Password))
		if errHash != nil {
			envelope.Fail(c, envelope.CodeInternal, "服务器异常")
			return
		}
	}

	var user models.User
	errUpdate := h.store.Update(func(doc *models.Document) error {
		idx := -1
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return store.ErrNotFound
		}

		if body.Username != nil {
			username := strings.TrimSpace(*body.Username)
			if username != "" {
				for i := range doc.Users {
					if doc.Users[i].Username == username && doc.Users[i].ID != id {
						return errDuplicateUsername
					}
				}
				doc.Users[idx].Username = username
			}
		}
		if hash != "" {
			doc.Users[idx].Password = hash
		}
		if body.Nickname != nil {
			doc.Users[idx].Nickname = strings.TrimSpace(*body.Nickname)
		}
		if body.Account != nil {
			doc.Users[idx].Account = strings.TrimSpace(*body.Account)
		}
		if body.Phone != nil {
			doc.Users[idx].Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			doc.Users[idx].Email = strings.TrimSpace(*body.Email)
		}
		if body.IsAdmin != nil {
			doc.Users[idx].IsAdmin = *body.IsAdmin
		}
		if body.Permissions != nil {
			doc.Users[idx].Permissions = *body.Permissions
		}
		doc.Users[idx].UpdatedAt = models.NowMillis()
		permissions.Normalize(&doc.Users[idx], h.adminUsername)
		user = doc.Users[idx]
		return nil
	})
	if errUpdate == store.ErrNotFound {
		envelope.Fail(c, envelope.CodeNotFound, "用户不存在", gin.H{"id": id})
		return
	}
	if errUpdate == errDuplicateUsername {
		envelope.Fail(c, envelope.CodeBadRequest, "用户名已存在")
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, user.Sanitized())
}

// Delete removes a user account and returns its sanitized projection.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}

	var removed models.User
	errUpdate := h.store.Update(func(doc *models.Document) error {
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				removed = doc.Users[i]
				doc.Users = append(doc.Users[:i], doc.Users[i+1:]...)
				return nil
			}
		}
		return store.ErrNotFound
	})
	if errUpdate == store.ErrNotFound {
		envelope.Fail(c, envelope.CodeNotFound, "用户不存在", gin.H{"id": id})
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, removed.Sanitized())
}
