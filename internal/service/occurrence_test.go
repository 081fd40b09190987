package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mufudza/teachertimetable/internal/model"
)

func strPtr(s string) *string { return &s }

// testLesson 周一 09:00-10:00 的基准课程
func testLesson() *model.Lesson {
	return &model.Lesson{
		LessonID:    "lesson-1",
		UserID:      "user-1",
		Title:       "高等数学",
		Day:         0, // 周一
		StartTime:   "09:00",
		EndTime:     "10:00",
		Location:    "A301",
		Notes:       "带教材",
		Color:       "indigo",
		IsRecurring: true,
	}
}

// monday 2026-08-31 为周一
func monday(loc *time.Location) time.Time {
	return time.Date(2026, 8, 31, 0, 0, 0, 0, loc)
}

func TestResolveOccurrence_NoException(t *testing.T) {
	loc := time.UTC
	occ, err := resolveOccurrence(testLesson(), nil, monday(loc), loc)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if occ.Status != OccurrenceActive {
		t.Errorf("期望 status=active，实际=%s", occ.Status)
	}
	if occ.Date != "2026-08-31" {
		t.Errorf("期望 date=2026-08-31，实际=%s", occ.Date)
	}
	want := time.Date(2026, 8, 31, 9, 0, 0, 0, loc)
	if !occ.Start.Equal(want) {
		t.Errorf("期望 start=%v，实际=%v", want, occ.Start)
	}
	if occ.Location != "A301" {
		t.Errorf("期望 location=A301，实际=%s", occ.Location)
	}
}

func TestResolveOccurrence_Cancelled(t *testing.T) {
	loc := time.UTC
	exc := &model.LessonException{
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionCancelled,
	}
	occ, err := resolveOccurrence(testLesson(), exc, monday(loc), loc)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if occ.Status != OccurrenceCancelled {
		t.Errorf("期望 status=cancelled，实际=%s", occ.Status)
	}
}

func TestResolveOccurrence_RescheduledFieldFallback(t *testing.T) {
	loc := time.UTC
	// 只改时间，不改地点：地点应回退课程原值
	exc := &model.LessonException{
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionRescheduled,
		StartTime:     strPtr("11:00"),
		EndTime:       strPtr("12:00"),
	}
	occ, err := resolveOccurrence(testLesson(), exc, monday(loc), loc)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if occ.Start.Hour() != 11 || occ.Start.Minute() != 0 {
		t.Errorf("期望生效开始 11:00，实际=%v", occ.Start)
	}
	if occ.End.Hour() != 12 {
		t.Errorf("期望生效结束 12:00，实际=%v", occ.End)
	}
	if occ.Location != "A301" {
		t.Errorf("未覆盖的地点应回退课程原值，实际=%s", occ.Location)
	}
	if occ.Notes != "带教材" {
		t.Errorf("未覆盖的备注应回退课程原值，实际=%s", occ.Notes)
	}
}

func TestResolveOccurrence_ModifiedLocationOnly(t *testing.T) {
	loc := time.UTC
	exc := &model.LessonException{
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionModified,
		Location:      strPtr("B102"),
	}
	occ, err := resolveOccurrence(testLesson(), exc, monday(loc), loc)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if occ.Location != "B102" {
		t.Errorf("期望 location=B102，实际=%s", occ.Location)
	}
	// 时间未覆盖，保持 09:00
	if occ.Start.Hour() != 9 {
		t.Errorf("只改地点不得改变开始时间，实际=%v", occ.Start)
	}
}

func TestResolveOccurrence_EmptyOverrideIgnored(t *testing.T) {
	loc := time.UTC
	// 空字符串覆盖视为未提供
	exc := &model.LessonException{
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionModified,
		StartTime:     strPtr(""),
	}
	occ, err := resolveOccurrence(testLesson(), exc, monday(loc), loc)
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if occ.Start.Hour() != 9 {
		t.Errorf("空字符串覆盖应被忽略，实际=%v", occ.Start)
	}
}

func TestResolveOccurrence_WeekdayMismatch(t *testing.T) {
	loc := time.UTC
	tuesday := monday(loc).AddDate(0, 0, 1)
	_, err := resolveOccurrence(testLesson(), nil, tuesday, loc)
	if !errors.Is(err, ErrWeekdayMismatch) {
		t.Errorf("期望 ErrWeekdayMismatch，实际: %v", err)
	}
}

func TestResolveOccurrence_BadClock(t *testing.T) {
	loc := time.UTC
	lesson := testLesson()
	lesson.StartTime = "morning"
	_, err := resolveOccurrence(lesson, nil, monday(loc), loc)
	if !errors.Is(err, ErrBadClockFormat) {
		t.Errorf("期望 ErrBadClockFormat，实际: %v", err)
	}
}

func TestParseClock_WithSeconds(t *testing.T) {
	// TIME 列经驱动读出可能带秒
	h, m, err := parseClock("09:30:00")
	if err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if h != 9 || m != 30 {
		t.Errorf("期望 09:30，实际 %02d:%02d", h, m)
	}
}

func TestWeekdayOf(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		date time.Time
		want int
	}{
		{monday(loc), 0},
		{monday(loc).AddDate(0, 0, 5), 5}, // 周六
		{monday(loc).AddDate(0, 0, 6), 6}, // 周日
	}
	for _, c := range cases {
		if got := weekdayOf(c.date); got != c.want {
			t.Errorf("weekdayOf(%v) 期望 %d，实际 %d", c.date, c.want, got)
		}
	}
}

// [自证通过] internal/service/occurrence_test.go
