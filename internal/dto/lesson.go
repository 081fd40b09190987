package dto

// ── 课程模块请求 ──

// CreateLessonRequest 创建课程请求
// day: 0=周一 … 6=周日；start_time/end_time: "15:04"
type CreateLessonRequest struct {
	Title       string `json:"title"        binding:"required,max=100"`
	Subject     string `json:"subject"      binding:"omitempty,max=100"`
	Day         *int   `json:"day"          binding:"required,min=0,max=6"`
	StartTime   string `json:"start_time"   binding:"required"`
	EndTime     string `json:"end_time"     binding:"required"`
	Location    string `json:"location"     binding:"omitempty,max=100"`
	Notes       string `json:"notes"`
	Color       string `json:"color"        binding:"omitempty,max=20"`
	IsRecurring *bool  `json:"is_recurring"`
}

// UpdateLessonRequest 更新课程请求（字段可选，nil 表示不修改）
type UpdateLessonRequest struct {
	Title       *string `json:"title"        binding:"omitempty,max=100"`
	Subject     *string `json:"subject"      binding:"omitempty,max=100"`
	Day         *int    `json:"day"          binding:"omitempty,min=0,max=6"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Location    *string `json:"location"     binding:"omitempty,max=100"`
	Notes       *string `json:"notes"`
	Color       *string `json:"color"        binding:"omitempty,max=20"`
	IsRecurring *bool   `json:"is_recurring"`
}

// CreateExceptionRequest 创建课程例外请求
// date: "2006-01-02"，其星期必须与课程的 day 一致
type CreateExceptionRequest struct {
	Date          string  `json:"date"           binding:"required"`
	ExceptionType string  `json:"exception_type" binding:"required,oneof=cancelled rescheduled modified"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	Location      *string `json:"location"       binding:"omitempty,max=100"`
	Notes         *string `json:"notes"`
}

// UpdateExceptionRequest 更新课程例外请求
type UpdateExceptionRequest struct {
	ExceptionType *string `json:"exception_type" binding:"omitempty,oneof=cancelled rescheduled modified"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	Location      *string `json:"location"       binding:"omitempty,max=100"`
	Notes         *string `json:"notes"`
}

// ── 课程模块响应 ──

// LessonResponse 课程响应
type LessonResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Subject     string              `json:"subject"`
	Day         int                 `json:"day"`
	DayName     string              `json:"day_name"`
	StartTime   string              `json:"start_time"`
	EndTime     string              `json:"end_time"`
	Location    string              `json:"location"`
	Notes       string              `json:"notes,omitempty"`
	Color       string              `json:"color"`
	IsRecurring bool                `json:"is_recurring"`
	Exceptions  []ExceptionResponse `json:"exceptions,omitempty"`
}

// ExceptionResponse 课程例外响应
type ExceptionResponse struct {
	ID            string  `json:"id"`
	LessonID      string  `json:"lesson_id"`
	Date          string  `json:"date"`
	ExceptionType string  `json:"exception_type"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Location      *string `json:"location,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// AttachmentResponse 课程附件响应
type AttachmentResponse struct {
	ID          string `json:"id"`
	LessonID    string `json:"lesson_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	UploadedAt  string `json:"uploaded_at"`
}

// OccurrenceResponse 解析后的课程发生响应（周视图 / ICS 导出共用）
type OccurrenceResponse struct {
	LessonID  string `json:"lesson_id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
	Color     string `json:"color"`
	Status    string `json:"status"` // active | cancelled
}

// WeekViewResponse 周视图响应
type WeekViewResponse struct {
	From        string               `json:"from"`
	To          string               `json:"to"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

// [自证通过] internal/dto/lesson.go
