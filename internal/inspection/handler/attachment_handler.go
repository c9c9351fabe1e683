package handler

import (
	"fmt"

	"github.com/bitfantasy/aims/internal/inspection/service"
	"github.com/gin-gonic/gin"
)

// AttachmentHandler 附件处理器
type AttachmentHandler struct {
	svc *service.AttachmentService
}

func NewAttachmentHandler(svc *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload 上传附件（multipart: file, source_type, source_id, structure_id）
// POST /api/attachment
func (h *AttachmentHandler) Upload(c *gin.Context) {
	var req service.UploadAttachmentRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请选择要上传的文件")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "读取文件失败: "+err.Error())
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	a, err := h.svc.Upload(c.Request.Context(), GetUserID(c), &req, src, fileHeader.Filename, fileHeader.Size, contentType)
	if err != nil {
		respondError(c, err, "上传附件失败")
		return
	}
	Created(c, a)
}

// List 按来源列出附件
// GET /api/attachment?source_type=xxx&source_id=xxx
func (h *AttachmentHandler) List(c *gin.Context) {
	sourceType, sourceID := c.Query("source_type"), c.Query("source_id")
	if sourceType == "" || sourceID == "" {
		BadRequest(c, "source_type 和 source_id 不能为空")
		return
	}
	items, err := h.svc.List(c.Request.Context(), sourceType, sourceID)
	if err != nil {
		respondError(c, err, "获取附件列表失败")
		return
	}
	Success(c, gin.H{"items": items})
}

// Tree 结构物附件树
// GET /api/attachment/tree?structure_id=xxx
func (h *AttachmentHandler) Tree(c *gin.Context) {
	structureID := c.Query("structure_id")
	if structureID == "" {
		BadRequest(c, "structure_id 不能为空")
		return
	}
	tree, err := h.svc.Tree(c.Request.Context(), structureID)
	if err != nil {
		respondError(c, err, "获取附件树失败")
		return
	}
	Success(c, tree)
}

// Download 下载附件内容
// GET /api/attachment/:id/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	a, rc, err := h.svc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "下载附件失败")
		return
	}
	defer rc.Close()

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(200, a.Size, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", a.Name),
	})
}

// Delete 删除附件
// DELETE /api/attachment?id=xxx
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		BadRequest(c, "id 不能为空")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "删除附件失败")
		return
	}
	Success(c, gin.H{"id": id})
}
