package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Batch is one stock-receipt record: a set of medicine line items plus the
// declared overall price. Drafts are mutable and never counted toward stock;
// finalization is a one-way transition.
type Batch struct {
	BaseModel
	BatchNumber string `gorm:"type:varchar(100);uniqueIndex;not null" json:"batch_number" validate:"required"`
	BillID      string `gorm:"type:varchar(100)" json:"bill_id"`

	IsDraft     bool       `gorm:"default:false;index" json:"is_draft"`
	DraftNote   string     `gorm:"type:text" json:"draft_note,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`

	OverallPrice        float64 `gorm:"not null" json:"overall_price"`
	MiscellaneousAmount float64 `gorm:"default:0" json:"miscellaneous_amount"`

	Attachments []string `gorm:"serializer:json" json:"attachments,omitempty"`

	Medicines []BatchMedicine `gorm:"foreignKey:BatchID" json:"medicines"`

	// User tracking
	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	UpdatedByUserID *string `gorm:"type:varchar(255)" json:"updated_by_user_id,omitempty"`
}

// BatchMedicine is one medicine's quantity/price/expiry entry within a batch.
// MedicineID is the stable key used for change tracking; a batch never holds
// two lines for the same medicine.
type BatchMedicine struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BatchID        uuid.UUID `gorm:"type:uuid;index;not null" json:"batch_id"`
	MedicineID     int       `gorm:"not null;index" json:"medicine_id"`
	MedicineName   string    `gorm:"type:varchar(255);not null" json:"medicine_name"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	Price          float64   `gorm:"not null" json:"price"` // per unit
	ExpiryDate     time.Time `gorm:"not null" json:"expiry_date"`
	DateOfPurchase time.Time `gorm:"not null" json:"date_of_purchase"`
	ReorderLevel   int       `gorm:"not null;default:0" json:"reorder_level"`
	TotalAmount    float64   `gorm:"not null" json:"total_amount"` // quantity * price
}

func (m *BatchMedicine) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// LineTotal returns the sum of all line totals, excluding the miscellaneous amount.
func (b *Batch) LineTotal() float64 {
	var sum float64
	for _, m := range b.Medicines {
		sum += m.TotalAmount
	}
	return sum
}

// FindMedicine returns the line for the given medicine id, or nil.
func (b *Batch) FindMedicine(medicineID int) *BatchMedicine {
	for i := range b.Medicines {
		if b.Medicines[i].MedicineID == medicineID {
			return &b.Medicines[i]
		}
	}
	return nil
}

// RecomputeOverallPrice sets OverallPrice to the sum of the remaining line
// totals plus the miscellaneous amount. Used after discards.
func (b *Batch) RecomputeOverallPrice() {
	b.OverallPrice = b.LineTotal() + b.MiscellaneousAmount
}
