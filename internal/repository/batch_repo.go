package repository

import (
	"go-pharmacy-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(batch *model.Batch) error
	FindByID(id uuid.UUID) (*model.Batch, error)
	FindByNumber(number string) (*model.Batch, error)
	NumberExists(number string, excludeID uuid.UUID) (bool, error)
	FindAll() ([]model.Batch, error)
	FindFinalized() ([]model.Batch, error)
	FindFinalizedByMedicine(medicineID int) ([]model.Batch, error)
	UpdateWithLock(id uuid.UUID, fn func(batch *model.Batch) error) (*model.Batch, error)
	Delete(id uuid.UUID) error
	CountBatches() (finalized int64, drafts int64, err error)
}

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db}
}

func (r *batchRepo) Create(batch *model.Batch) error {
	return r.db.Create(batch).Error
}

func (r *batchRepo) FindByID(id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.Preload("Medicines").First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) FindByNumber(number string) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.Preload("Medicines").First(&batch, "batch_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) NumberExists(number string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.Model(&model.Batch{}).Where("batch_number = ?", number)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *batchRepo) FindAll() ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.Preload("Medicines").Order("created_at DESC").Find(&batches).Error
	return batches, err
}

func (r *batchRepo) FindFinalized() ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.Preload("Medicines").Where("is_draft = ?", false).Order("created_at DESC").Find(&batches).Error
	return batches, err
}

func (r *batchRepo) FindFinalizedByMedicine(medicineID int) ([]model.Batch, error) {
	var batches []model.Batch
	err := r.db.Preload("Medicines").
		Joins("JOIN batch_medicines ON batch_medicines.batch_id = batches.id").
		Where("batch_medicines.medicine_id = ? AND batches.is_draft = ?", medicineID, false).
		Distinct("batches.*").
		Find(&batches).Error
	return batches, err
}

// UpdateWithLock loads the batch under a row lock, applies fn, and persists
// the result (batch fields plus a full replace of the medicine lines) in one
// transaction. Every batch mutation goes through here so concurrent writers
// on the same batch are serialized.
func (r *batchRepo) UpdateWithLock(id uuid.UUID, fn func(batch *model.Batch) error) (*model.Batch, error) {
	var updated *model.Batch

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var batch model.Batch
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&batch, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", batch.ID).Find(&batch.Medicines).Error; err != nil {
			return err
		}

		if err := fn(&batch); err != nil {
			return err
		}

		// Replace the line set wholesale; fn may have added, changed, or
		// removed lines.
		if err := tx.Where("batch_id = ?", batch.ID).Delete(&model.BatchMedicine{}).Error; err != nil {
			return err
		}
		for i := range batch.Medicines {
			batch.Medicines[i].BatchID = batch.ID
			if batch.Medicines[i].ID == uuid.Nil {
				batch.Medicines[i].ID = uuid.New()
			}
		}
		if len(batch.Medicines) > 0 {
			if err := tx.Create(&batch.Medicines).Error; err != nil {
				return err
			}
		}

		if err := tx.Omit("Medicines").Save(&batch).Error; err != nil {
			return err
		}

		updated = &batch
		return nil
	})

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the batch and its lines permanently. Activity logs and
// discard records reference the batch by value and are untouched.
func (r *batchRepo) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", id).Delete(&model.BatchMedicine{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Batch{}, "id = ?", id).Error
	})
}

func (r *batchRepo) CountBatches() (int64, int64, error) {
	var finalized, drafts int64
	if err := r.db.Model(&model.Batch{}).Where("is_draft = ?", false).Count(&finalized).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.Model(&model.Batch{}).Where("is_draft = ?", true).Count(&drafts).Error; err != nil {
		return 0, 0, err
	}
	return finalized, drafts, nil
}
