package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mufudza/teachertimetable/internal/dto"
	"github.com/mufudza/teachertimetable/internal/service"
	"github.com/mufudza/teachertimetable/pkg/response"
)

// LessonHandler 课程模块 HTTP 处理器
type LessonHandler struct {
	lessonSvc   service.LessonService
	reminderSvc service.ReminderService
}

// NewLessonHandler 创建 LessonHandler
func NewLessonHandler(lessonSvc service.LessonService, reminderSvc service.ReminderService) *LessonHandler {
	return &LessonHandler{lessonSvc: lessonSvc, reminderSvc: reminderSvc}
}

// Create 创建课程
// POST /api/v1/lessons
func (h *LessonHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lessonSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.Created(c, result)
}

// List 查询当前用户全部课程
// GET /api/v1/lessons
func (h *LessonHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	items, err := h.lessonSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, items)
}

// Get 查询单个课程（含例外）
// GET /api/v1/lessons/:id
func (h *LessonHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.lessonSvc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, result)
}

// Update 更新课程
// PUT /api/v1/lessons/:id
func (h *LessonHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lessonSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除课程
// DELETE /api/v1/lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.lessonSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, nil)
}

// ScheduleReminders 手动触发课程下一次发生的提醒调度
// POST /api/v1/lessons/:id/reminders
func (h *LessonHandler) ScheduleReminders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// 归属校验走课程查询路径
	if _, err := h.lessonSvc.Get(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeLessonError(c, err)
		return
	}

	result, err := h.reminderSvc.ScheduleLesson(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 课程例外 ──

// CreateException 创建课程例外
// POST /api/v1/lessons/:id/exceptions
func (h *LessonHandler) CreateException(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lessonSvc.CreateException(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateException 更新课程例外
// PUT /api/v1/exceptions/:id
func (h *LessonHandler) UpdateException(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lessonSvc.UpdateException(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteException 删除课程例外
// DELETE /api/v1/exceptions/:id
func (h *LessonHandler) DeleteException(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.lessonSvc.DeleteException(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, nil)
}

// WeekView 周视图
// GET /api/v1/timetable/week?from=2006-01-02
func (h *LessonHandler) WeekView(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.lessonSvc.WeekView(c.Request.Context(), userID, c.Query("from"))
	if err != nil {
		h.writeLessonError(c, err)
		return
	}

	response.OK(c, result)
}

// writeLessonError 课程模块业务错误到 HTTP 响应的映射
func (h *LessonHandler) writeLessonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		response.NotFound(c, 12001, "课程不存在")
	case errors.Is(err, service.ErrExceptionNotFound):
		response.NotFound(c, 12002, "课程例外不存在")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 12003, "开始时间必须早于结束时间")
	case errors.Is(err, service.ErrBadClockFormat):
		response.BadRequest(c, 12004, "时间格式无效，应为 15:04")
	case errors.Is(err, service.ErrInvalidColor):
		response.BadRequest(c, 12005, "无效的课程颜色")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12006, "日期格式无效，应为 2006-01-02")
	case errors.Is(err, service.ErrDateWeekdayMismatch):
		response.BadRequest(c, 12007, "例外日期的星期与课程不一致")
	case errors.Is(err, service.ErrExceptionExists):
		response.Error(c, http.StatusConflict, 12008, "该课程当日已存在例外")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/lesson_handler.go
