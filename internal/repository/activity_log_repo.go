package repository

import (
	"go-pharmacy-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityLogRepository interface {
	Create(entry *model.ActivityLog) error
	CreateAll(entries []model.ActivityLog) error
	FindByBatchID(batchID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error)
	FindByBatchNumber(number string, page, limit int) ([]model.ActivityLog, int64, error)
	FindRecent(limit int) ([]model.ActivityLog, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db}
}

func (r *activityLogRepo) Create(entry *model.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *activityLogRepo) CreateAll(entries []model.ActivityLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

func (r *activityLogRepo) FindByBatchID(batchID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error) {
	return r.paginated(r.db.Model(&model.ActivityLog{}).Where("batch_id = ?", batchID), page, limit)
}

func (r *activityLogRepo) FindByBatchNumber(number string, page, limit int) ([]model.ActivityLog, int64, error) {
	return r.paginated(r.db.Model(&model.ActivityLog{}).Where("batch_number = ?", number), page, limit)
}

// paginated returns entries newest first plus the total row count.
func (r *activityLogRepo) paginated(q *gorm.DB, page, limit int) ([]model.ActivityLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.ActivityLog
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *activityLogRepo) FindRecent(limit int) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
