package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/repository"
	"go-pharmacy-ws/internal/ws"
	"go-pharmacy-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotExpired           = errors.New("medicine is not expired")
	ErrInsufficientQuantity = errors.New("discard quantity exceeds remaining stock")
	ErrNothingToDiscard     = errors.New("no expired stock to discard")
	ErrMedicineNotFound     = errors.New("medicine not found in batch")
)

type DiscardService interface {
	DiscardLine(req *DiscardRequest, actor Actor) (*model.DiscardRecord, error)
	DiscardAllForMedicine(req *DiscardAllRequest, actor Actor) (*DiscardAllResult, error)
	GetDiscards(page, limit int) ([]model.DiscardRecord, int64, error)
	GetDiscardsByMedicine(medicineID int) ([]model.DiscardRecord, error)
}

type DiscardRequest struct {
	BatchID    uuid.UUID `json:"batch_id" validate:"required"`
	MedicineID int       `json:"medicine_id" validate:"required,gt=0"`
	Quantity   int       `json:"quantity" validate:"gte=0"` // 0 discards the whole line
	Reason     string    `json:"reason"`
}

type DiscardAllRequest struct {
	MedicineID   int    `json:"medicine_id" validate:"omitempty,gt=0"`
	MedicineName string `json:"medicine_name" validate:"required_without=MedicineID"`
	Reason       string `json:"reason"`
}

type DiscardAllResult struct {
	TotalBatchesAffected   int                   `json:"total_batches_affected"`
	TotalQuantityDiscarded int                   `json:"total_quantity_discarded"`
	TotalValueDiscarded    float64               `json:"total_value_discarded"`
	Records                []model.DiscardRecord `json:"records"`
}

type discardService struct {
	batchRepo   repository.BatchRepository
	discardRepo repository.DiscardRepository
	wsHub       *ws.Hub
}

func NewDiscardService(batchRepo repository.BatchRepository, discardRepo repository.DiscardRepository, hub *ws.Hub) DiscardService {
	return &discardService{
		batchRepo:   batchRepo,
		discardRepo: discardRepo,
		wsHub:       hub,
	}
}

// discardFromBatch removes expired stock for one medicine line under the batch
// row lock: the line shrinks (or disappears at zero), the overall price is
// recomputed from what remains, and a receipt snapshot is returned for the
// caller to persist after the stock write has committed.
func (s *discardService) discardFromBatch(batchID uuid.UUID, medicineID, quantity int, reason string, now time.Time, actor Actor) (*model.DiscardRecord, error) {
	var record *model.DiscardRecord

	_, err := s.batchRepo.UpdateWithLock(batchID, func(batch *model.Batch) error {
		if batch.IsDraft {
			return fmt.Errorf("%w: draft batches hold no stock", ErrNothingToDiscard)
		}

		line := batch.FindMedicine(medicineID)
		if line == nil {
			return fmt.Errorf("%w: medicine id %d in batch '%s'", ErrMedicineNotFound, medicineID, batch.BatchNumber)
		}

		if cls := ClassifyExpiry(line.ExpiryDate, now); !cls.Expired {
			return fmt.Errorf("%w: '%s' expires on %s", ErrNotExpired, line.MedicineName, formatDate(line.ExpiryDate))
		}

		qty := quantity
		if qty <= 0 {
			qty = line.Quantity
		}
		if qty > line.Quantity {
			return fmt.Errorf("%w: requested %d, remaining %d", ErrInsufficientQuantity, qty, line.Quantity)
		}

		record = &model.DiscardRecord{
			MedicineID:        line.MedicineID,
			MedicineName:      line.MedicineName,
			BatchID:           batch.ID,
			BatchNumber:       batch.BatchNumber,
			QuantityDiscarded: qty,
			PricePerUnit:      line.Price,
			TotalValue:        float64(qty) * line.Price,
			ExpiryDate:        line.ExpiryDate,
			Reason:            reason,
			DiscardedAt:       now,
			DiscardedByID:     actor.ID,
			DiscardedByName:   actor.Name,
		}

		line.Quantity -= qty
		line.TotalAmount = float64(line.Quantity) * line.Price
		if line.Quantity == 0 {
			kept := batch.Medicines[:0]
			for _, m := range batch.Medicines {
				if m.MedicineID != medicineID {
					kept = append(kept, m)
				}
			}
			batch.Medicines = kept
		}
		batch.RecomputeOverallPrice()

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

	// The stock reduction is committed; the receipt is written second so a
	// failed receipt never blocks the physical discard. The receipt is the
	// discard's whole audit trail: no activity-log entry is written.
	if err := s.discardRepo.Create(record); err != nil {
		return nil, fmt.Errorf("stock updated but discard receipt failed: %w", err)
	}

	return record, nil
}

func (s *discardService) DiscardLine(req *DiscardRequest, actor Actor) (*model.DiscardRecord, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	record, err := s.discardFromBatch(req.BatchID, req.MedicineID, req.Quantity, req.Reason, time.Now(), actor)
	if err != nil {
		return nil, err
	}

	go s.wsHub.BroadcastEvent("stock_discarded", map[string]interface{}{
		"medicine_id":   record.MedicineID,
		"medicine_name": record.MedicineName,
		"batch_number":  record.BatchNumber,
		"quantity":      record.QuantityDiscarded,
		"total_value":   record.TotalValue,
		"actor":         actor.Name,
	})

	return record, nil
}

// DiscardAllForMedicine sweeps every finalized batch holding expired stock of
// the target medicine (matched by id, case-insensitive name, or both) and
// discards the full remaining quantity in each. The sweep is best-effort per
// batch: one batch failing does not abort the rest.
func (s *discardService) DiscardAllForMedicine(req *DiscardAllRequest, actor Actor) (*DiscardAllResult, error) {
	if msg := validator.FirstError(req); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	batches, err := s.batchRepo.FindFinalized()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	name := strings.ToLower(strings.TrimSpace(req.MedicineName))
	// When both id and name are supplied the line must satisfy both.
	matches := func(line model.BatchMedicine) bool {
		if req.MedicineID > 0 && line.MedicineID != req.MedicineID {
			return false
		}
		if name != "" && strings.ToLower(line.MedicineName) != name {
			return false
		}
		return true
	}
	result := &DiscardAllResult{Records: []model.DiscardRecord{}}

	for _, batch := range batches {
		for _, line := range batch.Medicines {
			if !matches(line) {
				continue
			}
			if cls := ClassifyExpiry(line.ExpiryDate, now); !cls.Expired {
				continue
			}

			record, err := s.discardFromBatch(batch.ID, line.MedicineID, 0, req.Reason, now, actor)
			if err != nil {
				log.Printf("Warning: discard sweep skipped batch %s: %v", batch.BatchNumber, err)
				continue
			}

			result.TotalBatchesAffected++
			result.TotalQuantityDiscarded += record.QuantityDiscarded
			result.TotalValueDiscarded += record.TotalValue
			result.Records = append(result.Records, *record)
		}
	}

	if len(result.Records) == 0 {
		if req.MedicineID > 0 {
			return nil, fmt.Errorf("%w: medicine id %d", ErrNothingToDiscard, req.MedicineID)
		}
		return nil, fmt.Errorf("%w: '%s'", ErrNothingToDiscard, req.MedicineName)
	}

	go s.wsHub.BroadcastEvent("stock_discarded", map[string]interface{}{
		"medicine_name": req.MedicineName,
		"batches":       result.TotalBatchesAffected,
		"quantity":      result.TotalQuantityDiscarded,
		"total_value":   result.TotalValueDiscarded,
		"actor":         actor.Name,
	})

	return result, nil
}

func (s *discardService) GetDiscards(page, limit int) ([]model.DiscardRecord, int64, error) {
	return s.discardRepo.FindAll(page, limit)
}

func (s *discardService) GetDiscardsByMedicine(medicineID int) ([]model.DiscardRecord, error) {
	return s.discardRepo.FindByMedicine(medicineID)
}
