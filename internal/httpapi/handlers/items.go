package handlers

import (
	"strings"

	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
)

// ItemHandler manages item endpoints.
type ItemHandler struct {
	store *store.Store
}

// NewItemHandler constructs an ItemHandler.
func NewItemHandler(s *store.Store) *ItemHandler {
	return &ItemHandler{store: s}
}

// itemRequest defines the request body for item creation and updates.
type itemRequest struct {
	Name string `json:"name"`
}

// List returns every item.
func (h *ItemHandler) List(c *gin.Context) {
	var items []models.Item
	h.store.View(func(doc *models.Document) {
		items = append([]models.Item{}, doc.Items...)
	})
	envelope.OK(c, items)
}

// Get returns an item by ID.
func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}
	var (
		item  models.Item
		found bool
	)
	h.store.View(func(doc *models.Document) {
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				item = doc.Items[i]
				found = true
				return
			}
		}
	})
	if !found {
		envelope.Fail(c, envelope.CodeNotFound, "资源不存在", gin.H{"id": id})
		return
	}
	envelope.OK(c, item)
}

// Create adds a new item.
func (h *ItemHandler) Create(c *gin.Context) {
	var body itemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		envelope.Fail(c, envelope.CodeBadRequest, "name 必填")
		return
	}

	var item models.Item
	errUpdate := h.store.Update(func(doc *models.Document) error {
		item = models.Item{ID: doc.NextID, Name: name, CreatedAt: models.NowMillis()}
		doc.NextID++
		doc.Items = append(doc.Items, item)
		return nil
	})
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, item)
}

// Update renames an item, preserving its other fields.
func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}
	var body itemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "JSON 解析失败")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		envelope.Fail(c, envelope.CodeBadRequest, "name 必填")
		return
	}

	var item models.Item
	errUpdate := h.store.Update(func(doc *models.Document) error {
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				doc.Items[i].Name = name
				doc.Items[i].UpdatedAt = models.NowMillis()
				item = doc.Items[i]
				return nil
			}
		}
		return store.ErrNotFound
	})
	if errUpdate == store.ErrNotFound {
		envelope.Fail(c, envelope.CodeNotFound, "资源不存在", gin.H{"id": id})
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, item)
}

// Delete removes an item and returns it.
func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}

	var removed models.Item
	errUpdate := h.store.Update(func(doc *models.Document) error {
		for i := range doc.Items {
			if doc.Items[i].ID == id {
				removed = doc.Items[i]
				doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
				return nil
			}
		}
		return store.ErrNotFound
	})
	if errUpdate == store.ErrNotFound {
		envelope.Fail(c, envelope.CodeNotFound, "资源不存在", gin.H{"id": id})
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, removed)
}
