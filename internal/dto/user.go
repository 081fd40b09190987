package dto

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	EmailNotifications bool   `json:"email_notifications"`
	EmailSummary       bool   `json:"email_summary"`
}

// UpdateProfileRequest 更新个人资料请求（含通知偏好）
type UpdateProfileRequest struct {
	Name               *string `json:"name"                binding:"omitempty,max=100"`
	EmailNotifications *bool   `json:"email_notifications"`
	EmailSummary       *bool   `json:"email_summary"`
}

// [自证通过] internal/dto/user.go
