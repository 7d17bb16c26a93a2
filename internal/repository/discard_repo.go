package repository

import (
	"go-pharmacy-ws/internal/model"

	"gorm.io/gorm"
)

type DiscardRepository interface {
	Create(record *model.DiscardRecord) error
	FindAll(page, limit int) ([]model.DiscardRecord, int64, error)
	FindByMedicine(medicineID int) ([]model.DiscardRecord, error)
	TotalDiscardedValue() (float64, error)
	FindRecent(limit int) ([]model.DiscardRecord, error)
}

type discardRepo struct {
	db *gorm.DB
}

func NewDiscardRepo(db *gorm.DB) DiscardRepository {
	return &discardRepo{db}
}

func (r *discardRepo) Create(record *model.DiscardRecord) error {
	return r.db.Create(record).Error
}

func (r *discardRepo) FindAll(page, limit int) ([]model.DiscardRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	if err := r.db.Model(&model.DiscardRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.DiscardRecord
	err := r.db.Order("discarded_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&records).Error
	return records, total, err
}

func (r *discardRepo) FindByMedicine(medicineID int) ([]model.DiscardRecord, error) {
	var records []model.DiscardRecord
	err := r.db.Where("medicine_id = ?", medicineID).Order("discarded_at DESC").Find(&records).Error
	return records, err
}

func (r *discardRepo) TotalDiscardedValue() (float64, error) {
	var total float64
	err := r.db.Model(&model.DiscardRecord{}).Select("COALESCE(SUM(total_value), 0)").Scan(&total).Error
	return total, err
}

func (r *discardRepo) FindRecent(limit int) ([]model.DiscardRecord, error) {
	var records []model.DiscardRecord
	err := r.db.Order("discarded_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
