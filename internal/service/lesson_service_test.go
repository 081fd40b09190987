package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mufudza/teachertimetable/config"
	"github.com/mufudza/teachertimetable/internal/dto"
	"github.com/mufudza/teachertimetable/internal/model"
	"github.com/mufudza/teachertimetable/internal/repository"
)

// nopReminder 课程服务测试中不关心调度行为
type nopReminder struct{}

func (nopReminder) SweepOnce(_ context.Context, _ time.Time) (*dto.SweepSummary, error) {
	return &dto.SweepSummary{}, nil
}
func (nopReminder) ScheduleLesson(_ context.Context, _ string, _ time.Time) (*dto.ScheduleRemindersResponse, error) {
	return &dto.ScheduleRemindersResponse{}, nil
}
func (nopReminder) DailyDigest(_ context.Context, _ time.Time) (int, error) { return 0, nil }
func (nopReminder) PruneClaims(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func setupLessonService() (LessonService, *mockLessonRepo, *mockExceptionRepo) {
	cfg := &config.Config{
		Reminder: config.ReminderConfig{
			LeadTimes:     []int{30, 10},
			SweepInterval: time.Minute,
			Timezone:      "UTC",
		},
	}

	users := newMockUserRepo()
	lessons := newMockLessonRepo(users)
	exceptions := newMockExceptionRepo()
	repo := &repository.Repository{
		User:            users,
		Lesson:          lessons,
		LessonException: exceptions,
		Notification:    newMockNotificationRepo(users),
		ReminderClaim:   newMockClaimRepo(),
	}

	svc := NewLessonService(cfg, repo, nopReminder{}, zap.NewNop())
	return svc, lessons, exceptions
}

func intPtr(i int) *int { return &i }

func validCreateRequest() *dto.CreateLessonRequest {
	return &dto.CreateLessonRequest{
		Title:     "高等数学",
		Day:       intPtr(0),
		StartTime: "09:00",
		EndTime:   "10:00",
		Location:  "A301",
	}
}

// ── 课程 CRUD ──

func TestCreateLesson_Success(t *testing.T) {
	svc, _, _ := setupLessonService()

	result, err := svc.Create(context.Background(), "user-1", validCreateRequest())
	if err != nil {
		t.Fatalf("创建应成功: %v", err)
	}
	if result.Color != "indigo" {
		t.Errorf("缺省颜色应为 indigo，实际=%s", result.Color)
	}
	if !result.IsRecurring {
		t.Error("缺省应为周期性课程")
	}
	if result.DayName != "周一" {
		t.Errorf("期望 day_name=周一，实际=%s", result.DayName)
	}
}

func TestCreateLesson_InvalidTimeRange(t *testing.T) {
	svc, _, _ := setupLessonService()

	req := validCreateRequest()
	req.StartTime = "10:00"
	req.EndTime = "09:00"
	_, err := svc.Create(context.Background(), "user-1", req)
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("期望 ErrInvalidTimeRange，实际: %v", err)
	}
}

func TestCreateLesson_BadClock(t *testing.T) {
	svc, _, _ := setupLessonService()

	req := validCreateRequest()
	req.StartTime = "9am"
	_, err := svc.Create(context.Background(), "user-1", req)
	if !errors.Is(err, ErrBadClockFormat) {
		t.Errorf("期望 ErrBadClockFormat，实际: %v", err)
	}
}

func TestCreateLesson_InvalidColor(t *testing.T) {
	svc, _, _ := setupLessonService()

	req := validCreateRequest()
	req.Color = "magenta"
	_, err := svc.Create(context.Background(), "user-1", req)
	if !errors.Is(err, ErrInvalidColor) {
		t.Errorf("期望 ErrInvalidColor，实际: %v", err)
	}
}

func TestGetLesson_OtherOwnerHidden(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson() // 归属 user-1

	_, err := svc.Get(context.Background(), "user-2", "lesson-1")
	if !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("他人课程应按不存在处理，实际: %v", err)
	}
}

func TestUpdateLesson_PartialFields(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()

	result, err := svc.Update(context.Background(), "user-1", "lesson-1", &dto.UpdateLessonRequest{
		Location: strPtr("B202"),
	})
	if err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	if result.Location != "B202" {
		t.Errorf("期望 location=B202，实际=%s", result.Location)
	}
	if result.StartTime != "09:00" {
		t.Errorf("未提供的字段不应变化，实际 start=%s", result.StartTime)
	}
}

func TestUpdateLesson_RejectsInvertedRange(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()

	// 只改结束时间，使其早于开始时间
	_, err := svc.Update(context.Background(), "user-1", "lesson-1", &dto.UpdateLessonRequest{
		EndTime: strPtr("08:00"),
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("期望 ErrInvalidTimeRange，实际: %v", err)
	}
}

func TestDeleteLesson_Success(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()

	if err := svc.Delete(context.Background(), "user-1", "lesson-1"); err != nil {
		t.Fatalf("删除应成功: %v", err)
	}
	if _, ok := lessons.lessons["lesson-1"]; ok {
		t.Error("课程应已删除")
	}
}

// ── 课程例外 ──

func TestCreateException_WeekdayMismatch(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson() // 周一的课

	_, err := svc.CreateException(context.Background(), "user-1", "lesson-1", &dto.CreateExceptionRequest{
		Date:          "2026-09-01", // 周二
		ExceptionType: model.ExceptionCancelled,
	})
	if !errors.Is(err, ErrDateWeekdayMismatch) {
		t.Errorf("期望 ErrDateWeekdayMismatch，实际: %v", err)
	}
}

func TestCreateException_DuplicateDate(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()

	req := &dto.CreateExceptionRequest{
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionCancelled,
	}
	if _, err := svc.CreateException(context.Background(), "user-1", "lesson-1", req); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}
	_, err := svc.CreateException(context.Background(), "user-1", "lesson-1", req)
	if !errors.Is(err, ErrExceptionExists) {
		t.Errorf("期望 ErrExceptionExists，实际: %v", err)
	}
}

func TestCreateException_RescheduledInvalidRange(t *testing.T) {
	svc, lessons, _ := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()

	// 覆盖后的生效时段 11:00-10:00 非法
	_, err := svc.CreateException(context.Background(), "user-1", "lesson-1", &dto.CreateExceptionRequest{
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionRescheduled,
		StartTime:     strPtr("11:00"),
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("期望 ErrInvalidTimeRange，实际: %v", err)
	}
}

func TestDeleteException_ViaLessonOwnership(t *testing.T) {
	svc, lessons, exceptions := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()
	exceptions.exceptions["exc-1"] = &model.LessonException{
		ExceptionID:   "exc-1",
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionCancelled,
	}

	if err := svc.DeleteException(context.Background(), "user-2", "exc-1"); !errors.Is(err, ErrExceptionNotFound) {
		t.Errorf("他人课程的例外应按不存在处理，实际: %v", err)
	}
	if err := svc.DeleteException(context.Background(), "user-1", "exc-1"); err != nil {
		t.Fatalf("本人删除应成功: %v", err)
	}
}

// ── 周视图 ──

func TestWeekView_ResolvesExceptions(t *testing.T) {
	svc, lessons, exceptions := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()
	exceptions.exceptions["exc-1"] = &model.LessonException{
		ExceptionID:   "exc-1",
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionRescheduled,
		StartTime:     strPtr("11:00"),
		EndTime:       strPtr("12:00"),
	}

	result, err := svc.WeekView(context.Background(), "user-1", "2026-08-31")
	if err != nil {
		t.Fatalf("周视图应成功: %v", err)
	}
	if len(result.Occurrences) != 1 {
		t.Fatalf("期望 1 个发生，实际 %d", len(result.Occurrences))
	}
	occ := result.Occurrences[0]
	if occ.StartTime != "11:00" {
		t.Errorf("改期后周视图应显示新时间，实际=%s", occ.StartTime)
	}
	if occ.Status != OccurrenceActive {
		t.Errorf("期望 status=active，实际=%s", occ.Status)
	}
}

func TestWeekView_IncludesCancelled(t *testing.T) {
	svc, lessons, exceptions := setupLessonService()
	lessons.lessons["lesson-1"] = testLesson()
	exceptions.exceptions["exc-1"] = &model.LessonException{
		ExceptionID:   "exc-1",
		LessonID:      "lesson-1",
		Date:          "2026-08-31",
		ExceptionType: model.ExceptionCancelled,
	}

	result, err := svc.WeekView(context.Background(), "user-1", "2026-08-31")
	if err != nil {
		t.Fatalf("周视图应成功: %v", err)
	}
	if len(result.Occurrences) != 1 {
		t.Fatalf("停课的发生也应返回，实际 %d 个", len(result.Occurrences))
	}
	if result.Occurrences[0].Status != OccurrenceCancelled {
		t.Errorf("期望 status=cancelled，实际=%s", result.Occurrences[0].Status)
	}
}

func TestWeekView_InvalidFrom(t *testing.T) {
	svc, _, _ := setupLessonService()
	_, err := svc.WeekView(context.Background(), "user-1", "31/08/2026")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

// [自证通过] internal/service/lesson_service_test.go
