package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/repository"
	"go-pharmacy-ws/internal/ws"
	"go-pharmacy-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceTolerance is the allowed difference between the declared overall price
// and the sum of line totals plus the miscellaneous amount.
const PriceTolerance = 0.01

// Error definitions
var (
	ErrValidation            = errors.New("validation failed")
	ErrBatchNotFound         = errors.New("batch not found")
	ErrDuplicateBatch        = errors.New("batch number already exists")
	ErrDuplicateMedicine     = errors.New("duplicate medicine in batch")
	ErrPriceMismatch         = errors.New("price mismatch")
	ErrNotDraft              = errors.New("batch is already finalized")
	ErrIllegalDraftReversion = errors.New("finalized batch cannot be reverted to draft")
)

type BatchService interface {
	CreateBatch(req *CreateBatchRequest, actor Actor) (*model.Batch, error)
	FinalizeBatch(id uuid.UUID, actor Actor) (*model.Batch, error)
	UpdateBatch(id uuid.UUID, req *UpdateBatchRequest, actor Actor) (*BatchUpdateResult, error)
	DeleteBatch(id uuid.UUID, actor Actor) (*DeletedBatchSummary, error)
	GetBatchByID(id uuid.UUID) (*model.Batch, error)
	GetAllBatches() ([]model.Batch, error)
	GetActivityByBatchID(id uuid.UUID, page, limit int) (*ActivityPage, error)
	GetActivityByBatchNumber(number string, page, limit int) (*ActivityPage, error)
}

type MedicineInput struct {
	MedicineID     int     `json:"medicine_id" validate:"required,gt=0"`
	MedicineName   string  `json:"medicine_name" validate:"required"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	Price          float64 `json:"price" validate:"required,gt=0"`
	ExpiryDate     string  `json:"expiry_date" validate:"required"`      // YYYY-MM-DD
	DateOfPurchase string  `json:"date_of_purchase" validate:"required"` // YYYY-MM-DD
	ReorderLevel   *int    `json:"reorder_level" validate:"required,gte=0"`
}

type CreateBatchRequest struct {
	BatchNumber         string          `json:"batch_number" validate:"required"`
	BillID              string          `json:"bill_id"`
	IsDraft             bool            `json:"is_draft"`
	DraftNote           string          `json:"draft_note"`
	OverallPrice        float64         `json:"overall_price" validate:"gte=0"`
	MiscellaneousAmount float64         `json:"miscellaneous_amount" validate:"gte=0"`
	Attachments         []string        `json:"attachments"`
	Medicines           []MedicineInput `json:"medicines" validate:"required,min=1,dive"`
}

// UpdateBatchRequest carries a validated partial update: nil means
// "leave this field alone". Raw request bodies are never merged onto
// persisted state.
type UpdateBatchRequest struct {
	BatchNumber         *string         `json:"batch_number"`
	BillID              *string         `json:"bill_id"`
	IsDraft             *bool           `json:"is_draft"`
	DraftNote           *string         `json:"draft_note"`
	OverallPrice        *float64        `json:"overall_price"`
	MiscellaneousAmount *float64        `json:"miscellaneous_amount"`
	Attachments         []string        `json:"attachments"`
	Medicines           []MedicineInput `json:"medicines" validate:"omitempty,dive"`
}

type BatchUpdateResult struct {
	Batch   *model.Batch `json:"batch"`
	Changes []string     `json:"changes"` // details of the emitted log entries
}

type DeletedBatchSummary struct {
	BatchNumber   string  `json:"batch_number"`
	MedicineCount int     `json:"medicine_count"`
	TotalValue    float64 `json:"total_value"`
}

type ActivityPage struct {
	Entries []model.ActivityLog `json:"entries"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
}

type batchService struct {
	batchRepo    repository.BatchRepository
	activityRepo repository.ActivityLogRepository
	wsHub        *ws.Hub
}

func NewBatchService(batchRepo repository.BatchRepository, activityRepo repository.ActivityLogRepository, hub *ws.Hub) BatchService {
	return &batchService{
		batchRepo:    batchRepo,
		activityRepo: activityRepo,
		wsHub:        hub,
	}
}

// buildLines validates and converts the submitted medicine inputs. Every line
// must carry a stable medicine id; the same id may not appear twice.
func buildLines(inputs []MedicineInput) ([]model.BatchMedicine, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one medicine is required", ErrValidation)
	}

	seen := make(map[int]bool, len(inputs))
	lines := make([]model.BatchMedicine, 0, len(inputs))

	for _, in := range inputs {
		if seen[in.MedicineID] {
			return nil, fmt.Errorf("%w: medicine id %d appears more than once", ErrDuplicateMedicine, in.MedicineID)
		}
		seen[in.MedicineID] = true

		expiry, err := time.Parse("2006-01-02", in.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid expiry_date for medicine %d, use YYYY-MM-DD", ErrValidation, in.MedicineID)
		}
		purchase, err := time.Parse("2006-01-02", in.DateOfPurchase)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date_of_purchase for medicine %d, use YYYY-MM-DD", ErrValidation, in.MedicineID)
		}

		lines = append(lines, model.BatchMedicine{
			MedicineID:     in.MedicineID,
			MedicineName:   in.MedicineName,
			Quantity:       in.Quantity,
			Price:          in.Price,
			ExpiryDate:     expiry,
			DateOfPurchase: purchase,
			ReorderLevel:   *in.ReorderLevel,
			TotalAmount:    float64(in.Quantity) * in.Price,
		})
	}

	return lines, nil
}

// checkPriceReconciliation enforces the core invariant: line totals plus the
// miscellaneous amount must equal the declared overall price within
// PriceTolerance. The error names both totals so the caller can diagnose.
func checkPriceReconciliation(lineTotal, misc, overall float64) error {
	computed := lineTotal + misc
	if math.Abs(computed-overall) > PriceTolerance {
		return fmt.Errorf("%w: computed total %.2f does not match declared overall price %.2f",
			ErrPriceMismatch, computed, overall)
	}
	return nil
}

func validateAttachments(attachments []string) error {
	for _, a := range attachments {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("%w: attachments must be non-empty strings", ErrValidation)
		}
	}
	return nil
}

// snapshotBatch deep-copies the fields the diff generator compares.
func snapshotBatch(b *model.Batch) model.Batch {
	snap := *b
	snap.Medicines = make([]model.BatchMedicine, len(b.Medicines))
	copy(snap.Medicines, b.Medicines)
	snap.Attachments = make([]string, len(b.Attachments))
	copy(snap.Attachments, b.Attachments)
	return snap
}

func createdDetails(b *model.Batch) string {
	if b.IsDraft {
		return fmt.Sprintf("Draft batch '%s' created with %d medicines, total %s",
			b.BatchNumber, len(b.Medicines), formatMoney(b.OverallPrice))
	}
	return fmt.Sprintf("Batch '%s' created with %d medicines, total %s, miscellaneous %s",
		b.BatchNumber, len(b.Medicines), formatMoney(b.OverallPrice), formatMoney(b.MiscellaneousAmount))
}

func finalizedDetails(b *model.Batch) string {
	return fmt.Sprintf("Batch '%s' finalized: %d medicines, total %s, miscellaneous %s",
		b.BatchNumber, len(b.Medicines), formatMoney(b.OverallPrice), formatMoney(b.MiscellaneousAmount))
}

func (s *batchService) CreateBatch(req *CreateBatchRequest, actor Actor) (*model.Batch, error) {
	// 1. Validate request shape
	if msg := validator.FirstError(req); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	// 2. Validate and convert line items (duplicate medicine check included)
	lines, err := buildLines(req.Medicines)
	if err != nil {
		return nil, err
	}

	// 3. Price reconciliation against the declared overall price
	var lineTotal float64
	for _, l := range lines {
		lineTotal += l.TotalAmount
	}
	if err := checkPriceReconciliation(lineTotal, req.MiscellaneousAmount, req.OverallPrice); err != nil {
		return nil, err
	}

	// 4. Attachments must be opaque, non-empty references
	if err := validateAttachments(req.Attachments); err != nil {
		return nil, err
	}

	// 5. Batch number must be globally unique
	exists, err := s.batchRepo.NumberExists(req.BatchNumber, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicateBatch, req.BatchNumber)
	}

	// 6. Persist
	batch := &model.Batch{
		BatchNumber:         req.BatchNumber,
		BillID:              req.BillID,
		IsDraft:             req.IsDraft,
		OverallPrice:        req.OverallPrice,
		MiscellaneousAmount: req.MiscellaneousAmount,
		Attachments:         req.Attachments,
		Medicines:           lines,
	}
	if req.IsDraft {
		batch.DraftNote = req.DraftNote
	} else {
		now := time.Now()
		batch.FinalizedAt = &now
	}
	batch.CreatedBy = actor.ID
	batch.UpdatedBy = actor.ID
	batch.CreatedByUserID = &actor.ID
	batch.UpdatedByUserID = &actor.ID

	if err := s.batchRepo.Create(batch); err != nil {
		return nil, err
	}

	// 7. One CREATED entry for drafts and finalized batches alike. The log is
	// a side effect of an already committed write; never roll back on failure.
	entry := newBatchEntry(batch, model.ActivityCreated, createdDetails(batch), actor, nil)
	if err := s.activityRepo.Create(&entry); err != nil {
		log.Printf("Warning: failed to write CREATED log for batch %s: %v", batch.BatchNumber, err)
	}

	// 8. Broadcast to connected dashboards
	go s.wsHub.BroadcastEvent("batch_created", map[string]interface{}{
		"batch_id":     batch.ID,
		"batch_number": batch.BatchNumber,
		"is_draft":     batch.IsDraft,
		"total":        batch.OverallPrice,
		"actor":        actor.Name,
	})

	return batch, nil
}

func (s *batchService) FinalizeBatch(id uuid.UUID, actor Actor) (*model.Batch, error) {
	updated, err := s.batchRepo.UpdateWithLock(id, func(batch *model.Batch) error {
		if !batch.IsDraft {
			return ErrNotDraft
		}
		now := time.Now()
		batch.IsDraft = false
		batch.FinalizedAt = &now
		batch.UpdatedBy = actor.ID
		batch.UpdatedByUserID = &actor.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	entry := newBatchEntry(updated, model.ActivityFinalized, finalizedDetails(updated), actor, nil)
	if err := s.activityRepo.Create(&entry); err != nil {
		log.Printf("Warning: failed to write FINALIZED log for batch %s: %v", updated.BatchNumber, err)
	}

	go s.wsHub.BroadcastEvent("batch_finalized", map[string]interface{}{
		"batch_id":     updated.ID,
		"batch_number": updated.BatchNumber,
		"total":        updated.OverallPrice,
		"actor":        actor.Name,
	})

	return updated, nil
}

func (s *batchService) UpdateBatch(id uuid.UUID, req *UpdateBatchRequest, actor Actor) (*BatchUpdateResult, error) {
	// 1. Validate request shape
	if msg := validator.FirstError(req); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	// 2. Pre-checks that need no row lock
	if req.BatchNumber != nil {
		exists, err := s.batchRepo.NumberExists(*req.BatchNumber, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateBatch, *req.BatchNumber)
		}
	}

	var newLines []model.BatchMedicine
	if req.Medicines != nil {
		var err error
		newLines, err = buildLines(req.Medicines)
		if err != nil {
			return nil, err
		}
	}

	if req.MiscellaneousAmount != nil && *req.MiscellaneousAmount < 0 {
		return nil, fmt.Errorf("%w: miscellaneous amount cannot be negative", ErrValidation)
	}
	if req.Attachments != nil {
		if err := validateAttachments(req.Attachments); err != nil {
			return nil, err
		}
	}

	// 3. Apply under the batch row lock
	var old model.Batch
	var finalizing bool

	updated, err := s.batchRepo.UpdateWithLock(id, func(batch *model.Batch) error {
		old = snapshotBatch(batch)

		// Finalization is one-way
		if req.IsDraft != nil && *req.IsDraft && !batch.IsDraft {
			return ErrIllegalDraftReversion
		}
		finalizing = batch.IsDraft && req.IsDraft != nil && !*req.IsDraft

		if req.BatchNumber != nil {
			batch.BatchNumber = *req.BatchNumber
		}
		if req.BillID != nil {
			batch.BillID = *req.BillID
		}
		if req.DraftNote != nil {
			batch.DraftNote = *req.DraftNote
		}
		if req.MiscellaneousAmount != nil {
			batch.MiscellaneousAmount = *req.MiscellaneousAmount
		}
		if req.Attachments != nil {
			batch.Attachments = req.Attachments
		}
		if req.Medicines != nil {
			batch.Medicines = newLines
		}
		if req.OverallPrice != nil {
			batch.OverallPrice = *req.OverallPrice
		}

		// Re-reconcile whenever any money-bearing field was touched; the
		// untouched side of the equation comes from the existing batch.
		if req.Medicines != nil || req.OverallPrice != nil || req.MiscellaneousAmount != nil {
			if err := checkPriceReconciliation(batch.LineTotal(), batch.MiscellaneousAmount, batch.OverallPrice); err != nil {
				return err
			}
		}

		if finalizing {
			now := time.Now()
			batch.IsDraft = false
			batch.FinalizedAt = &now
		}

		batch.UpdatedBy = actor.ID
		batch.UpdatedByUserID = &actor.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	// 4. Audit. A draft-to-finalized transition gets the single FINALIZED
	// entry; a finalized batch gets the full diff; a batch that is still a
	// draft stays silent.
	var entries []model.ActivityLog
	switch {
	case finalizing:
		entries = []model.ActivityLog{newBatchEntry(updated, model.ActivityFinalized, finalizedDetails(updated), actor, nil)}
	case !old.IsDraft:
		entries = buildUpdateEntries(&old, updated, actor)
	}
	if len(entries) > 0 {
		if err := s.activityRepo.CreateAll(entries); err != nil {
			log.Printf("Warning: failed to write update logs for batch %s: %v", updated.BatchNumber, err)
		}
	}

	go s.wsHub.BroadcastEvent("batch_updated", map[string]interface{}{
		"batch_id":     updated.ID,
		"batch_number": updated.BatchNumber,
		"is_draft":     updated.IsDraft,
		"total":        updated.OverallPrice,
		"actor":        actor.Name,
	})

	changes := make([]string, len(entries))
	for i, e := range entries {
		changes[i] = e.Details
	}
	return &BatchUpdateResult{Batch: updated, Changes: changes}, nil
}

func (s *batchService) DeleteBatch(id uuid.UUID, actor Actor) (*DeletedBatchSummary, error) {
	batch, err := s.batchRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	// The DELETED entry is written before removal so the history outlives the
	// batch itself.
	entry := newBatchEntry(batch, model.ActivityDeleted,
		fmt.Sprintf("Batch '%s' deleted: %d medicines, total value %s",
			batch.BatchNumber, len(batch.Medicines), formatMoney(batch.OverallPrice)),
		actor, nil)
	if err := s.activityRepo.Create(&entry); err != nil {
		log.Printf("Warning: failed to write DELETED log for batch %s: %v", batch.BatchNumber, err)
	}

	if err := s.batchRepo.Delete(id); err != nil {
		return nil, err
	}

	go s.wsHub.BroadcastEvent("batch_deleted", map[string]interface{}{
		"batch_id":     batch.ID,
		"batch_number": batch.BatchNumber,
		"actor":        actor.Name,
	})

	return &DeletedBatchSummary{
		BatchNumber:   batch.BatchNumber,
		MedicineCount: len(batch.Medicines),
		TotalValue:    batch.OverallPrice,
	}, nil
}

func (s *batchService) GetBatchByID(id uuid.UUID) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

func (s *batchService) GetAllBatches() ([]model.Batch, error) {
	return s.batchRepo.FindAll()
}

func (s *batchService) GetActivityByBatchID(id uuid.UUID, page, limit int) (*ActivityPage, error) {
	entries, total, err := s.activityRepo.FindByBatchID(id, page, limit)
	if err != nil {
		return nil, err
	}
	// Logs outlive deleted batches, so NotFound fires only when neither the
	// batch nor any history exists.
	if total == 0 {
		if _, err := s.batchRepo.FindByID(id); err != nil {
			return nil, ErrBatchNotFound
		}
	}
	return &ActivityPage{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}

func (s *batchService) GetActivityByBatchNumber(number string, page, limit int) (*ActivityPage, error) {
	entries, total, err := s.activityRepo.FindByBatchNumber(number, page, limit)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		if _, err := s.batchRepo.FindByNumber(number); err != nil {
			return nil, ErrBatchNotFound
		}
	}
	return &ActivityPage{Entries: entries, Total: total, Page: page, Limit: limit}, nil
}
