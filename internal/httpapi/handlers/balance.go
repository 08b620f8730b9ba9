package handlers

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/finboard/finboard/internal/balance"
	"github.com/finboard/finboard/internal/httpapi/envelope"
	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxUploadBytes caps uploaded workbooks at 5 MiB.
const maxUploadBytes = 5 << 20

// BalanceHandler manages balance sheet uploads.
type BalanceHandler struct {
	store *store.Store
}

// NewBalanceHandler constructs a BalanceHandler.
func NewBalanceHandler(s *store.Store) *BalanceHandler {
	return &BalanceHandler{store: s}
}

// Upload decodes an uploaded workbook, aggregates it, and stores the result
// under the caller's ownership.
func (h *BalanceHandler) Upload(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	fileHeader, errFile := c.FormFile("file")
	if errFile != nil {
		envelope.Fail(c, envelope.CodeBadRequest, "请上传文件")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		envelope.Fail(c, envelope.CodeBadRequest, "文件大小不能超过 5MB")
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		envelope.Fail(c, envelope.CodeBadRequest, "仅支持 .xlsx/.xls 文件")
		return
	}

	file, errOpen := fileHeader.Open()
	if errOpen != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errOpen.Error()})
		return
	}
	defer file.Close()

	data, errRead := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if errRead != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errRead.Error()})
		return
	}
	if len(data) > maxUploadBytes {
		envelope.Fail(c, envelope.CodeBadRequest, "文件大小不能超过 5MB")
		return
	}

	sheet, errDecode := balance.DecodeWorkbook(data)
	if errDecode != nil {
		log.WithError(errDecode).Warnf("reject workbook %s", fileHeader.Filename)
		envelope.Fail(c, envelope.CodeBadRequest, "无法解析表格文件")
		return
	}
	if len(sheet.Rows) == 0 {
		envelope.Fail(c, envelope.CodeBadRequest, "表格没有数据")
		return
	}

	table := balance.Aggregate(sheet.Headers, sheet.Rows)
	rowCount := len(table.Rows)
	if table.Mode == models.BalanceModeRaw {
		rowCount = len(table.RawRows)
	}

	var upload models.BalanceUpload
	errUpdate := h.store.Update(func(doc *models.Document) error {
		upload = models.BalanceUpload{
			ID:        doc.NextBalanceID,
			UserID:    user.ID,
			FileName:  fileHeader.Filename,
			SheetName: sheet.Name,
			Mode:      table.Mode,
			RowCount:  rowCount,
			Summary:   table.Summary,
			Data:      table,
			CreatedAt: models.NowMillis(),
		}
		doc.NextBalanceID++
		doc.BalanceUploads = append(doc.BalanceUploads, upload)
		return nil
	})
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	envelope.OK(c, upload)
}

// List returns the caller's uploads, newest first and paginated. Admins see
// every user's uploads. The full table data is omitted from list items.
func (h *BalanceHandler) List(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}

	page := parsePositiveQuery(c, "page", 1)
	pageSize := parsePositiveQuery(c, "pageSize", 10)
	if pageSize > 100 {
		pageSize = 100
	}

	visible := []models.BalanceUpload{}
	h.store.View(func(doc *models.Document) {
		for i := len(doc.BalanceUploads) - 1; i >= 0; i-- {
			u := doc.BalanceUploads[i]
			if !user.IsAdmin && u.UserID != user.ID {
				continue
			}
			u.Data = nil
			visible = append(visible, u)
		}
	})

	total := len(visible)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	envelope.OK(c, gin.H{
		"list":     visible[start:end],
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Get returns one upload with its full table.
func (h *BalanceHandler) Get(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}

	var (
		upload models.BalanceUpload
		found  bool
	)
	h.store.View(func(doc *models.Document) {
		for i := range doc.BalanceUploads {
			if doc.BalanceUploads[i].ID == id {
				upload = doc.BalanceUploads[i]
				found = true
				return
			}
		}
	})
	if !found {
		envelope.Fail(c, envelope.CodeNotFound, "记录不存在", gin.H{"id": id})
		return
	}
	if !user.IsAdmin && upload.UserID != user.ID {
		envelope.Forbidden(c, "没有权限访问该记录")
		return
	}
	envelope.OK(c, upload)
}

// Delete removes an upload owned by the caller (or any upload, for admins).
func (h *BalanceHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		envelope.Unauthorized(c, "用户不存在")
		return
	}
	id, ok := parseID(c)
	if !ok {
		envelope.Fail(c, envelope.CodeBadRequest, "id 参数非法")
		return
	}

	var forbidden bool
	var removed models.BalanceUpload
	errUpdate := h.store.Update(func(doc *models.Document) error {
		for i := range doc.BalanceUploads {
			if doc.BalanceUploads[i].ID == id {
				if !user.IsAdmin && doc.BalanceUploads[i].UserID != user.ID {
					forbidden = true
					return store.ErrNotFound
				}
				removed = doc.BalanceUploads[i]
				doc.BalanceUploads = append(doc.BalanceUploads[:i], doc.BalanceUploads[i+1:]...)
				return nil
			}
		}
		return store.ErrNotFound
	})
	if forbidden {
		envelope.Forbidden(c, "没有权限访问该记录")
		return
	}
	if errUpdate == store.ErrNotFound {
		envelope.Fail(c, envelope.CodeNotFound, "记录不存在", gin.H{"id": id})
		return
	}
	if errUpdate != nil {
		envelope.Fail(c, envelope.CodeInternal, "服务器异常", gin.H{"detail": errUpdate.Error()})
		return
	}
	removed.Data = nil
	envelope.OK(c, removed)
}

// parsePositiveQuery parses a positive integer query parameter with a
// fallback.
func parsePositiveQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	v, errParse := strconv.Atoi(raw)
	if errParse != nil || v < 1 {
		return fallback
	}
	return v
}
