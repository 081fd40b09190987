package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mufudza/teachertimetable/internal/model"
)

// ReminderClaimRepository 提醒去重数据访问接口
//
// Claim 是提醒引擎唯一的正确性关键原语：必须实现为对复合主键的
// "不存在才插入"原子操作，而不是先查再插（并发的扫描 tick 之间、
// 扫描与一次性调度之间，先查再插会竞态丢失）。
type ReminderClaimRepository interface {
	// Claim 尝试占用 (lessonID, occurDate, leadMinutes)。
	// 返回 true 表示本次调用抢到了该提醒；false 表示已被占用（非错误，
	// 调用方应静默跳过）。并发竞争同一键时恰好一方得到 true。
	Claim(ctx context.Context, lessonID, occurDate string, leadMinutes int) (bool, error)
	// Prune 删除发生日期早于 before 的记录（仅为控制表体量，不影响正确性）
	Prune(ctx context.Context, before string) (int64, error)
}

// reminderClaimRepo ReminderClaimRepository 的 GORM 实现
type reminderClaimRepo struct {
	db *gorm.DB
}

// NewReminderClaimRepo 创建 ReminderClaimRepository 实例
func NewReminderClaimRepo(db *gorm.DB) ReminderClaimRepository {
	return &reminderClaimRepo{db: db}
}

func (r *reminderClaimRepo) Claim(ctx context.Context, lessonID, occurDate string, leadMinutes int) (bool, error) {
	claim := model.ReminderClaim{
		LessonID:    lessonID,
		OccurDate:   occurDate,
		LeadMinutes: leadMinutes,
	}

	// INSERT ... ON CONFLICT DO NOTHING：冲突时 RowsAffected=0，
	// 由数据库主键约束裁决并发先后
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&claim)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *reminderClaimRepo) Prune(ctx context.Context, before string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("occur_date < ?", before).
		Delete(&model.ReminderClaim{})
	return result.RowsAffected, result.Error
}

// [自证通过] internal/repository/reminder_claim_repo.go
