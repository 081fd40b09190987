package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mufudza/teachertimetable/config"
	"github.com/mufudza/teachertimetable/internal/dto"
	"github.com/mufudza/teachertimetable/internal/model"
	"github.com/mufudza/teachertimetable/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrInvalidTimeRange    = errors.New("开始时间必须早于结束时间")
	ErrInvalidColor        = errors.New("无效的课程颜色")
	ErrInvalidDate         = errors.New("日期格式无效，应为 2006-01-02")
	ErrDateWeekdayMismatch = errors.New("例外日期的星期与课程不一致")
	ErrExceptionExists     = errors.New("该课程当日已存在例外")
	ErrExceptionNotFound   = errors.New("课程例外不存在")
)

// scheduleTimeout 创建课程后异步调度提醒的超时
const scheduleTimeout = 10 * time.Second

// LessonService 课程业务接口
type LessonService interface {
	Create(ctx context.Context, userID string, req *dto.CreateLessonRequest) (*dto.LessonResponse, error)
	Get(ctx context.Context, userID, lessonID string) (*dto.LessonResponse, error)
	List(ctx context.Context, userID string) ([]dto.LessonResponse, error)
	Update(ctx context.Context, userID, lessonID string, req *dto.UpdateLessonRequest) (*dto.LessonResponse, error)
	Delete(ctx context.Context, userID, lessonID string) error

	CreateException(ctx context.Context, userID, lessonID string, req *dto.CreateExceptionRequest) (*dto.ExceptionResponse, error)
	UpdateException(ctx context.Context, userID, exceptionID string, req *dto.UpdateExceptionRequest) (*dto.ExceptionResponse, error)
	DeleteException(ctx context.Context, userID, exceptionID string) error

	// WeekView 解析自 from 起 7 天内的全部发生（含停课，供前端置灰展示）
	WeekView(ctx context.Context, userID, from string) (*dto.WeekViewResponse, error)
}

type lessonService struct {
	repo     *repository.Repository
	reminder ReminderService
	logger   *zap.Logger
	loc      *time.Location
}

// NewLessonService 创建 LessonService 实例
// reminder 用于课程创建后的一次性提醒调度
func NewLessonService(cfg *config.Config, repo *repository.Repository, reminder ReminderService, logger *zap.Logger) LessonService {
	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &lessonService{
		repo:     repo,
		reminder: reminder,
		logger:   logger,
		loc:      loc,
	}
}

// validateTimeRange 校验 "15:04" 格式且开始早于结束
func validateTimeRange(startClock, endClock string) error {
	sh, sm, err := parseClock(startClock)
	if err != nil {
		return err
	}
	eh, em, err := parseClock(endClock)
	if err != nil {
		return err
	}
	if sh*60+sm >= eh*60+em {
		return ErrInvalidTimeRange
	}
	return nil
}

// validateColor 校验颜色在枚举内；空串表示使用默认色
func validateColor(color string) error {
	if color == "" {
		return nil
	}
	for _, c := range model.LessonColors {
		if c == color {
			return nil
		}
	}
	return ErrInvalidColor
}

func (s *lessonService) Create(ctx context.Context, userID string, req *dto.CreateLessonRequest) (*dto.LessonResponse, error) {
	if err := validateTimeRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := validateColor(req.Color); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		UserID:      userID,
		Title:       req.Title,
		Subject:     req.Subject,
		Day:         *req.Day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Notes:       req.Notes,
		Color:       req.Color,
		IsRecurring: true,
	}
	if lesson.Color == "" {
		lesson.Color = "indigo"
	}
	if req.IsRecurring != nil {
		lesson.IsRecurring = *req.IsRecurring
	}

	if err := s.repo.Lesson.Create(ctx, lesson); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	// 异步做一次性提醒调度：课程若在下一个提醒窗口内立即生效，
	// 不必等周期扫描追上（两条路径经去重表天然互斥）
	go func(lessonID string) {
		bgCtx, cancel := context.WithTimeout(context.Background(), scheduleTimeout)
		defer cancel()
		if _, err := s.reminder.ScheduleLesson(bgCtx, lessonID, time.Now()); err != nil {
			s.logger.Warn("课程创建后提醒调度失败",
				zap.String("lesson_id", lessonID), zap.Error(err))
		}
	}(lesson.LessonID)

	resp := toLessonResponse(lesson, nil)
	return &resp, nil
}

// getOwned 查出课程并校验归属；他人课程一律按不存在处理
func (s *lessonService) getOwned(ctx context.Context, userID, lessonID string) (*model.Lesson, error) {
	lesson, err := s.repo.Lesson.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	if lesson.UserID != userID {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

func (s *lessonService) Get(ctx context.Context, userID, lessonID string) (*dto.LessonResponse, error) {
	lesson, err := s.getOwned(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	excs, err := s.repo.LessonException.ListByLesson(ctx, lessonID)
	if err != nil {
		s.logger.Error("查询课程例外失败", zap.Error(err))
		return nil, err
	}
	resp := toLessonResponse(lesson, excs)
	return &resp, nil
}

func (s *lessonService) List(ctx context.Context, userID string) ([]dto.LessonResponse, error) {
	lessons, err := s.repo.Lesson.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	items := make([]dto.LessonResponse, 0, len(lessons))
	for i := range lessons {
		items = append(items, toLessonResponse(&lessons[i], nil))
	}
	return items, nil
}

func (s *lessonService) Update(ctx context.Context, userID, lessonID string, req *dto.UpdateLessonRequest) (*dto.LessonResponse, error) {
	lesson, err := s.getOwned(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Subject != nil {
		lesson.Subject = *req.Subject
	}
	if req.Day != nil {
		lesson.Day = *req.Day
	}
	if req.StartTime != nil {
		lesson.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		lesson.EndTime = *req.EndTime
	}
	if req.Location != nil {
		lesson.Location = *req.Location
	}
	if req.Notes != nil {
		lesson.Notes = *req.Notes
	}
	if req.Color != nil {
		if err := validateColor(*req.Color); err != nil {
			return nil, err
		}
		lesson.Color = *req.Color
	}
	if req.IsRecurring != nil {
		lesson.IsRecurring = *req.IsRecurring
	}

	if err := validateTimeRange(lesson.StartTime, lesson.EndTime); err != nil {
		return nil, err
	}

	if err := s.repo.Lesson.Update(ctx, lesson); err != nil {
		s.logger.Error("更新课程失败", zap.Error(err))
		return nil, err
	}

	resp := toLessonResponse(lesson, nil)
	return &resp, nil
}

func (s *lessonService) Delete(ctx context.Context, userID, lessonID string) error {
	if _, err := s.getOwned(ctx, userID, lessonID); err != nil {
		return err
	}
	if err := s.repo.Lesson.Delete(ctx, lessonID); err != nil {
		s.logger.Error("删除课程失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 课程例外 ──

func (s *lessonService) CreateException(ctx context.Context, userID, lessonID string, req *dto.CreateExceptionRequest) (*dto.ExceptionResponse, error) {
	lesson, err := s.getOwned(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation(model.DateLayout, req.Date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if weekdayOf(date) != lesson.Day {
		return nil, ErrDateWeekdayMismatch
	}

	if req.ExceptionType != model.ExceptionCancelled {
		if err := validateExceptionClocks(lesson, req.StartTime, req.EndTime); err != nil {
			return nil, err
		}
	}

	// 预检唯一约束（(lesson_id, date) 上仍有 DB 级唯一索引兜底并发）
	if _, err := s.repo.LessonException.GetByLessonAndDate(ctx, lessonID, req.Date); err == nil {
		return nil, ErrExceptionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询课程例外失败", zap.Error(err))
		return nil, err
	}

	exc := &model.LessonException{
		LessonID:      lessonID,
		Date:          req.Date,
		ExceptionType: req.ExceptionType,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Location:      req.Location,
		Notes:         req.Notes,
	}
	if err := s.repo.LessonException.Create(ctx, exc); err != nil {
		s.logger.Error("创建课程例外失败", zap.Error(err))
		return nil, err
	}

	resp := toExceptionResponse(exc)
	return &resp, nil
}

// validateExceptionClocks 校验例外覆盖后的生效时段依然合法
func validateExceptionClocks(lesson *model.Lesson, startOverride, endOverride *string) error {
	startClock := lesson.StartTime
	endClock := lesson.EndTime
	if startOverride != nil && *startOverride != "" {
		startClock = *startOverride
	}
	if endOverride != nil && *endOverride != "" {
		endClock = *endOverride
	}
	return validateTimeRange(startClock, endClock)
}

// getOwnedException 查出例外并沿课程校验归属
func (s *lessonService) getOwnedException(ctx context.Context, userID, exceptionID string) (*model.LessonException, *model.Lesson, error) {
	exc, err := s.repo.LessonException.GetByID(ctx, exceptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrExceptionNotFound
		}
		s.logger.Error("查询课程例外失败", zap.Error(err))
		return nil, nil, err
	}
	lesson, err := s.getOwned(ctx, userID, exc.LessonID)
	if err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			return nil, nil, ErrExceptionNotFound
		}
		return nil, nil, err
	}
	return exc, lesson, nil
}

func (s *lessonService) UpdateException(ctx context.Context, userID, exceptionID string, req *dto.UpdateExceptionRequest) (*dto.ExceptionResponse, error) {
	exc, lesson, err := s.getOwnedException(ctx, userID, exceptionID)
	if err != nil {
		return nil, err
	}

	if req.ExceptionType != nil {
		exc.ExceptionType = *req.ExceptionType
	}
	if req.StartTime != nil {
		exc.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		exc.EndTime = req.EndTime
	}
	if req.Location != nil {
		exc.Location = req.Location
	}
	if req.Notes != nil {
		exc.Notes = req.Notes
	}

	if exc.ExceptionType != model.ExceptionCancelled {
		if err := validateExceptionClocks(lesson, exc.StartTime, exc.EndTime); err != nil {
			return nil, err
		}
	}

	if err := s.repo.LessonException.Update(ctx, exc); err != nil {
		s.logger.Error("更新课程例外失败", zap.Error(err))
		return nil, err
	}

	resp := toExceptionResponse(exc)
	return &resp, nil
}

func (s *lessonService) DeleteException(ctx context.Context, userID, exceptionID string) error {
	exc, _, err := s.getOwnedException(ctx, userID, exceptionID)
	if err != nil {
		return err
	}
	if err := s.repo.LessonException.Delete(ctx, exc.ExceptionID); err != nil {
		s.logger.Error("删除课程例外失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 周视图 ──

// WeekView 解析自 from 起 7 天的发生。from 为空时取本周周一。
// 停课的发生也返回（status=cancelled），由前端决定展示方式。
func (s *lessonService) WeekView(ctx context.Context, userID, from string) (*dto.WeekViewResponse, error) {
	var start time.Time
	if from == "" {
		now := time.Now().In(s.loc)
		start = now.AddDate(0, 0, -weekdayOf(now))
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	} else {
		var err error
		start, err = time.ParseInLocation(model.DateLayout, from, s.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}
	end := start.AddDate(0, 0, 6)

	lessons, err := s.repo.Lesson.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.WeekViewResponse{
		From:        start.Format(model.DateLayout),
		To:          end.Format(model.DateLayout),
		Occurrences: []dto.OccurrenceResponse{},
	}

	for i := range lessons {
		lesson := &lessons[i]
		if !lesson.IsRecurring {
			continue
		}
		// 7 天窗口内每个 day 恰好对应一天
		date := start.AddDate(0, 0, (lesson.Day-weekdayOf(start)+7)%7)

		exc, err := s.repo.LessonException.GetByLessonAndDate(ctx, lesson.LessonID, date.Format(model.DateLayout))
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询课程例外失败", zap.Error(err))
				return nil, err
			}
			exc = nil
		}

		occ, err := resolveOccurrence(lesson, exc, date, s.loc)
		if err != nil {
			s.logger.Warn("周视图解析课程发生失败，跳过该课程",
				zap.String("lesson_id", lesson.LessonID), zap.Error(err))
			continue
		}
		resp.Occurrences = append(resp.Occurrences, dto.OccurrenceResponse{
			LessonID:  occ.LessonID,
			Title:     occ.Title,
			Date:      occ.Date,
			StartTime: occ.Start.Format(model.TimeLayout),
			EndTime:   occ.End.Format(model.TimeLayout),
			Location:  occ.Location,
			Color:     occ.Color,
			Status:    occ.Status,
		})
	}

	return resp, nil
}

// ── DTO 转换 ──

func toLessonResponse(lesson *model.Lesson, excs []model.LessonException) dto.LessonResponse {
	resp := dto.LessonResponse{
		ID:          lesson.LessonID,
		Title:       lesson.Title,
		Subject:     lesson.Subject,
		Day:         lesson.Day,
		StartTime:   lesson.StartTime,
		EndTime:     lesson.EndTime,
		Location:    lesson.Location,
		Notes:       lesson.Notes,
		Color:       lesson.Color,
		IsRecurring: lesson.IsRecurring,
	}
	if lesson.Day >= 0 && lesson.Day < len(model.DayNames) {
		resp.DayName = model.DayNames[lesson.Day]
	}
	for i := range excs {
		resp.Exceptions = append(resp.Exceptions, toExceptionResponse(&excs[i]))
	}
	return resp
}

func toExceptionResponse(exc *model.LessonException) dto.ExceptionResponse {
	return dto.ExceptionResponse{
		ID:            exc.ExceptionID,
		LessonID:      exc.LessonID,
		Date:          exc.Date,
		ExceptionType: exc.ExceptionType,
		StartTime:     exc.StartTime,
		EndTime:       exc.EndTime,
		Location:      exc.Location,
		Notes:         exc.Notes,
	}
}

// [自证通过] internal/service/lesson_service.go
