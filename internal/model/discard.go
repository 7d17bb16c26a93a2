package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscardRecord is the immutable receipt of destroyed expired stock. It
// snapshots price and expiry at discard time and references the source batch
// by id/number only, so it survives batch deletion. Never updated or deleted.
type DiscardRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MedicineID   int    `gorm:"not null;index" json:"medicine_id"`
	MedicineName string `gorm:"type:varchar(255);not null" json:"medicine_name"`

	BatchID     uuid.UUID `gorm:"type:uuid;index" json:"batch_id"`
	BatchNumber string    `gorm:"type:varchar(100)" json:"batch_number"`

	QuantityDiscarded int     `gorm:"not null" json:"quantity_discarded"`
	PricePerUnit      float64 `gorm:"not null" json:"price_per_unit"`
	TotalValue        float64 `gorm:"not null" json:"total_value"` // quantity * price per unit

	ExpiryDate  time.Time `gorm:"not null" json:"expiry_date"`
	Reason      string    `gorm:"type:text" json:"reason"`
	DiscardedAt time.Time `gorm:"not null" json:"discarded_at"`

	// Denormalized actor
	DiscardedByID   string `gorm:"type:varchar(255)" json:"discarded_by_id"`
	DiscardedByName string `gorm:"type:varchar(255)" json:"discarded_by_name"`
}

func (d *DiscardRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
