package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/mufudza/teachertimetable/internal/model"
)

// ── 课程发生（Occurrence）解析 ──────────────────────────────
//
// 设计说明：
//   - Occurrence 是"某课程在某具体日期的实际安排"，纯派生数据，
//     不落库，每次需要时由课程定义 + 当日例外重新计算，
//     相同输入必得相同输出。
//   - 例外的覆盖是逐字段的：rescheduled/modified 只覆盖其提供的
//     字段，未提供的字段回退到课程本身（只改地点不得清空时间）。
//   - 星期不匹配属于调用方编程错误，直接返回 ErrWeekdayMismatch，
//     不做"寻找最近匹配日期"之类的兜底。
// ─────────────────────────────────────────────────────────────

var (
	// ErrWeekdayMismatch 解析日期的星期与课程的 day 不一致
	ErrWeekdayMismatch = errors.New("日期与课程的星期不匹配")
	// ErrBadClockFormat 时间字符串无法解析
	ErrBadClockFormat = errors.New("时间格式无效，应为 15:04")
)

// 发生状态
const (
	OccurrenceActive    = "active"
	OccurrenceCancelled = "cancelled"
)

// Occurrence 某课程在某日期解析后的发生
type Occurrence struct {
	LessonID string
	Title    string
	Color    string
	Date     string    // "2006-01-02"
	Start    time.Time // 生效开始时刻（服务时区）
	End      time.Time // 生效结束时刻（服务时区）
	Location string
	Notes    string
	Status   string // active | cancelled
}

// weekdayOf 把 time.Weekday（0=周日）换算为存储约定（0=周一 … 6=周日）
func weekdayOf(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// parseClock 解析 "15:04" 或 "15:04:05"（DATE/TIME 列经驱动读出时可能带秒）
func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadClockFormat, s)
		}
	}
	return t.Hour(), t.Minute(), nil
}

// combineClock 将日期与 "15:04" 时刻组合为服务时区内的时间点
func combineClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	h, m, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc), nil
}

// resolveOccurrence 解析课程在指定日期的发生
//
// 前置条件：weekdayOf(date) == lesson.Day；exc 为该课程当日的例外（可为 nil）。
// 无副作用。
func resolveOccurrence(lesson *model.Lesson, exc *model.LessonException, date time.Time, loc *time.Location) (*Occurrence, error) {
	if weekdayOf(date) != lesson.Day {
		return nil, fmt.Errorf("%w: 课程 day=%d，日期 %s 为 day=%d",
			ErrWeekdayMismatch, lesson.Day, date.Format(model.DateLayout), weekdayOf(date))
	}

	occ := &Occurrence{
		LessonID: lesson.LessonID,
		Title:    lesson.Title,
		Color:    lesson.Color,
		Date:     date.Format(model.DateLayout),
		Location: lesson.Location,
		Notes:    lesson.Notes,
		Status:   OccurrenceActive,
	}

	startClock := lesson.StartTime
	endClock := lesson.EndTime

	if exc != nil {
		switch exc.ExceptionType {
		case model.ExceptionCancelled:
			occ.Status = OccurrenceCancelled
		case model.ExceptionRescheduled, model.ExceptionModified:
			// 逐字段覆盖，缺省字段保持课程原值
			if exc.StartTime != nil && *exc.StartTime != "" {
				startClock = *exc.StartTime
			}
			if exc.EndTime != nil && *exc.EndTime != "" {
				endClock = *exc.EndTime
			}
			if exc.Location != nil && *exc.Location != "" {
				occ.Location = *exc.Location
			}
			if exc.Notes != nil && *exc.Notes != "" {
				occ.Notes = *exc.Notes
			}
		}
	}

	start, err := combineClock(date, startClock, loc)
	if err != nil {
		return nil, err
	}
	end, err := combineClock(date, endClock, loc)
	if err != nil {
		return nil, err
	}
	occ.Start = start
	occ.End = end

	return occ, nil
}

// sameMinute 分钟粒度的时刻相等判断（扫描周期为一分钟一跳）
func sameMinute(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute()
}

// [自证通过] internal/service/occurrence.go
