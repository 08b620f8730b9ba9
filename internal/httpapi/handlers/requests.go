package handlers

import (
	"errors"
	"strings"

	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
)

// errAlreadyReviewed marks a review of a request that left pending state.
var errAlreadyReviewed = errors.New("request already reviewed")

// AccessRequestHandler manages assistant elevation requests.
type AccessRequestHandler struct {
	store *store.Store
}

// NewAccessRequestHandler constructs an AccessRequestHandler.
func NewAccessRequestHandler(s *store.Store) *AccessRequestHandler {
	return &AccessRequestHandler{store: s}
}

// createRequestBody defines the request body for filing an elevation
// request.
type createRequestBody struct {
	Reason string `json:"reason"`
}

// Create files a pending elevation request for the caller.
func (h *AccessRequestHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	var body createRequestBody
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		envelope.Fail(c, envelope.CodeBadRequest, "申请理由必填")
		return
	}

	var request models.AccessRequest
	errUpdate := h.store.Update(func(doc *models.Document) error {
		request = models.AccessRequest{
			ID:        doc.NextRequestID,
			UserID:    user.ID,
			Username:  user.Username,
			Nickname:  user.Nickname,
			Reason:    reason,
			Status:    models.RequestStatusPending,
			CreatedAt: models.NowMillis(),
		}
		doc.NextRequestID++
		doc.AIAccessRequests = append(doc.AIAccessRequests, request)
		return nil
	})
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, request)
}

// List returns elevation requests for review, newest first, optionally
// filtered by status.
func (h *AccessRequestHandler) List(c *gin.Context) {
	statusQ := strings.TrimSpace(c.Query("status"))

	out := []models.AccessRequest{}
	h.store.View(func(doc *models.Document) {
		for i := len(doc.AIAccessRequests) - 1; i >= 0; i-- {
			r := doc.AIAccessRequests[i]
			if statusQ != "" && r.Status != statusQ {
				continue
			}
			out = append(out, r)
		}
	})
	envelope.OK(c, out)
}

// Approve grants the requester unlimited assistant usage and closes the
// request.
func (h *AccessRequestHandler) Approve(c *gin.Context) {
	h.review(c, models.RequestStatusApproved)
}

// Reject closes the request without granting anything.
func (h *AccessRequestHandler) Reject(c *gin.Context) {
	h.review(c, models.RequestStatusRejected)
}

// review applies a reviewer decision to a pending request.
func (h *AccessRequestHandler) review(c *gin.Context, status string) {
	reviewer := currentUser(c)
	if reviewer == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}

	var request models.AccessRequest
	errUpdate := h.store.Update(func(doc *models.Document) error {
		idx := -1
		for i := range doc.AIAccessRequests {
			if doc.AIAccessRequests[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return store.ErrNotFound
		}
		if doc.AIAccessRequests[idx].Status != models.RequestStatusPending {
			return errAlreadyReviewed
		}

		if status == models.RequestStatusApproved {
			granted := false
			for i := range doc.Users {
				if doc.Users[i].ID == doc.AIAccessRequests[idx].UserID {
					if doc.Users[i].Permissions == nil {
						doc.Users[i].Permissions = map[string]bool{}
					}
					doc.Users[i].Permissions[permissions.CapVIP] = true
					doc.Users[i].UpdatedAt = models.NowMillis()
					granted = true
					break
				}
			}
			if !granted {
				return store.ErrNotFound
			}
		}

		now := models.NowMillis()
		doc.AIAccessRequests[idx].Status = status
		doc.AIAccessRequests[idx].ReviewedBy = reviewer.Username
		doc.AIAccessRequests[idx].ReviewedAt = now
		doc.AIAccessRequests[idx].UpdatedAt = now
		request = doc.AIAccessRequests[idx]
		return nil
	})
	if errUpdate == store.ErrNotFound {
		envelope.Fail(c, envelope.CodeNotFound, "申请不存在", gin.H{"id": id})
		return
	}
	if errUpdate == errAlreadyReviewed {
		envelope.Fail(c, envelope.CodeBadRequest, "该申请已处理")
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, request)
}
