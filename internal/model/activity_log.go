package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityAction string

const (
	ActivityCreated   ActivityAction = "CREATED"
	ActivityFinalized ActivityAction = "FINALIZED"
	ActivityUpdated   ActivityAction = "UPDATED"
	ActivityDeleted   ActivityAction = "DELETED"
)

// FieldChange is one old/new tuple inside an activity log entry.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// ActivityLog is one immutable, human-readable audit fact about a batch
// mutation. Entries are append-only and reference the batch by id and number
// only, so they survive batch deletion. No gorm foreign key on purpose.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	BatchID     uuid.UUID      `gorm:"type:uuid;index" json:"batch_id"`
	BatchNumber string         `gorm:"type:varchar(100);index" json:"batch_number"`
	Action      ActivityAction `gorm:"type:varchar(20);not null" json:"action"`
	Details     string         `gorm:"type:text" json:"details"`

	// Denormalized actor so history stays readable after user changes
	OwnerID   string `gorm:"type:varchar(255)" json:"owner_id"`
	OwnerName string `gorm:"type:varchar(255)" json:"owner_name"`

	Changes []FieldChange `gorm:"serializer:json" json:"changes,omitempty"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
