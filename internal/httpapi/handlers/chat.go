package handlers

import (
	"encoding/json"
	"errors"

	"github.com/finboard/finboard/internal/completion"
	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/quota"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ChatHandler proxies completion calls and manages per-user chat state.
type ChatHandler struct {
	store       *store.Store
	tracker     *quota.Tracker
	completions *completion.Client
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(s *store.Store, tracker *quota.Tracker, completions *completion.Client) *ChatHandler {
	return &ChatHandler{store: s, tracker: tracker, completions: completions}
}

// chatRequest defines the request body for a completion call.
type chatRequest struct {
	Messages []completion.Message `json:"messages"`
}

// Complete meters the call, forwards the transcript upstream, and returns
// the reply text.
func (h *ChatHandler) Complete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	var body chatRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil || body.Messages == nil {
		envelope.Fail(c, envelope.CodeBadRequest, "messages 格式错误")
		return
	}

	unlimited := permissions.Has(user, permissions.CapVIP)
	usage, errConsume := h.tracker.Consume(user.ID, unlimited)
	if errConsume != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errConsume.Error()})
		return
	}
	if !usage.Allowed {
		envelope.Fail(c, envelope.CodeQuotaExceeded, "今日对话次数已达上限", gin.H{
			"count": usage.Count,
			"limit": usage.Limit,
		})
		return
	}

	text, errComplete := h.completions.Complete(c.Request.Context(), body.Messages)
	if errComplete != nil {
		var upErr *completion.UpstreamError
		if errors.As(errComplete, &upErr) {
			extra := gin.H{}
			if upErr.Detail != "" {
				extra["detail"] = upErr.Detail
			}
			envelope.Fail(c, upErr.Code, upErr.Message, extra)
			return
		}
		log.WithError(errComplete).Error("completion call failed")
		envelope.Fail(c, envelope.CodeInternal, "AI 服务连接失败", gin.H{"detail": errComplete.Error()})
		return
	}

	data := gin.H{"content": text}
	if !unlimited {
		data["usage"] = usage
	}
	envelope.OK(c, data)
}

// historyRequest defines the request body for replacing chat state.
type historyRequest struct {
	ActiveID      *string           `json:"activeId"`
	Conversations []json.RawMessage `json:"conversations"`
}

// GetHistory returns the caller's chat state, or an empty session when none
// is stored yet.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	session := &models.ChatSession{Conversations: []json.RawMessage{}}
	h.store.View(func(doc *models.Document) {
		if stored := doc.ChatHistory[models.UserKey(user.ID)]; stored != nil {
			session = stored.Clone()
		}
	})
	envelope.OK(c, session)
}

// PutHistory replaces the caller's chat state wholesale; the server never
// interprets conversation contents.
func (h *ChatHandler) PutHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	var body historyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}
	if body.Conversations == nil {
		body.Conversations = []json.RawMessage{}
	}

	session := &models.ChatSession{
		ActiveID:      body.ActiveID,
		Conversations: body.Conversations,
		UpdatedAt:     models.NowMillis(),
	}
	errUpdate := h.store.Update(func(doc *models.Document) error {
		doc.ChatHistory[models.UserKey(user.ID)] = session
		return nil
	})
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, session)
}

// DeleteHistory clears the caller's chat state.
func (h *ChatHandler) DeleteHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	errUpdate := h.store.Update(func(doc *models.Document) error {
		delete(doc.ChatHistory, models.UserKey(user.ID))
		return nil
	})
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, gin.H{"cleared": true})
}
