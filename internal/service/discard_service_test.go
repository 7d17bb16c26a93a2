package service

import (
	"errors"
	"testing"
	"time"

	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/ws"

	"github.com/google/uuid"
)

func newTestDiscardService() (*fakeBatchRepo, *fakeDiscardRepo, DiscardService) {
	batchRepo := newFakeBatchRepo()
	discardRepo := newFakeDiscardRepo()
	hub := ws.NewHub()
	go hub.Run()
	return batchRepo, discardRepo, NewDiscardService(batchRepo, discardRepo, hub)
}

// seedBatch stores a finalized batch directly in the fake repo.
func seedBatch(t *testing.T, repo *fakeBatchRepo, number string, draft bool, lines ...model.BatchMedicine) *model.Batch {
	t.Helper()
	batch := &model.Batch{
		BatchNumber: number,
		IsDraft:     draft,
		Medicines:   lines,
	}
	batch.ID = uuid.New()
	batch.RecomputeOverallPrice()
	if err := repo.Create(batch); err != nil {
		t.Fatalf("seed batch %s: %v", number, err)
	}
	return batch
}

func expiredLine(medicineID int, name string, qty int, price float64) model.BatchMedicine {
	return model.BatchMedicine{
		MedicineID:   medicineID,
		MedicineName: name,
		Quantity:     qty,
		Price:        price,
		ExpiryDate:   time.Now().AddDate(0, 0, -30),
		TotalAmount:  float64(qty) * price,
	}
}

func freshLine(medicineID int, name string, qty int, price float64) model.BatchMedicine {
	return model.BatchMedicine{
		MedicineID:   medicineID,
		MedicineName: name,
		Quantity:     qty,
		Price:        price,
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		TotalAmount:  float64(qty) * price,
	}
}

func TestDiscardLinePartialQuantity(t *testing.T) {
	batchRepo, discardRepo, svc := newTestDiscardService()
	batch := seedBatch(t, batchRepo, "BN-100", false,
		expiredLine(101, "Paracetamol 500mg", 100, 1.50),
		freshLine(202, "Amoxicillin 250mg", 30, 3.00),
	)

	record, err := svc.DiscardLine(&DiscardRequest{
		BatchID:    batch.ID,
		MedicineID: 101,
		Quantity:   40,
		Reason:     "expired on shelf",
	}, testActor)
	if err != nil {
		t.Fatalf("DiscardLine failed: %v", err)
	}

	if record.QuantityDiscarded != 40 || record.TotalValue != 60.00 {
		t.Errorf("record = %+v", record)
	}
	if record.DiscardedByName != testActor.Name {
		t.Errorf("actor = %q", record.DiscardedByName)
	}

	stored, _ := batchRepo.FindByID(batch.ID)
	line := stored.FindMedicine(101)
	if line == nil || line.Quantity != 60 {
		t.Fatalf("remaining line = %+v", line)
	}
	if line.TotalAmount != 90.00 {
		t.Errorf("line total = %.2f, want 90.00", line.TotalAmount)
	}
	// 60*1.50 + 30*3.00
	if stored.OverallPrice != 180.00 {
		t.Errorf("overall price = %.2f, want 180.00", stored.OverallPrice)
	}

	if got := discardRepo.all(); len(got) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(got))
	}
}

func TestDiscardLineFullQuantityRemovesLine(t *testing.T) {
	batchRepo, _, svc := newTestDiscardService()
	batch := seedBatch(t, batchRepo, "BN-101", false,
		expiredLine(101, "Paracetamol 500mg", 100, 1.50),
		freshLine(202, "Amoxicillin 250mg", 30, 3.00),
	)

	// Quantity 0 means everything.
	if _, err := svc.DiscardLine(&DiscardRequest{BatchID: batch.ID, MedicineID: 101}, testActor); err != nil {
		t.Fatalf("DiscardLine failed: %v", err)
	}

	stored, _ := batchRepo.FindByID(batch.ID)
	if stored.FindMedicine(101) != nil {
		t.Error("fully discarded line should be removed")
	}
	if stored.OverallPrice != 90.00 {
		t.Errorf("overall price = %.2f, want 90.00", stored.OverallPrice)
	}
}

func TestDiscardLineRejectsUnexpired(t *testing.T) {
	batchRepo, discardRepo, svc := newTestDiscardService()
	batch := seedBatch(t, batchRepo, "BN-102", false,
		freshLine(202, "Amoxicillin 250mg", 30, 3.00),
	)

	_, err := svc.DiscardLine(&DiscardRequest{BatchID: batch.ID, MedicineID: 202, Quantity: 10}, testActor)
	if !errors.Is(err, ErrNotExpired) {
		t.Fatalf("expected ErrNotExpired, got %v", err)
	}

	stored, _ := batchRepo.FindByID(batch.ID)
	if stored.FindMedicine(202).Quantity != 30 {
		t.Error("rejected discard must not touch stock")
	}
	if len(discardRepo.all()) != 0 {
		t.Error("rejected discard must not write a receipt")
	}
}

func TestDiscardLineRejectsOverdraw(t *testing.T) {
	batchRepo, _, svc := newTestDiscardService()
	batch := seedBatch(t, batchRepo, "BN-103", false,
		expiredLine(101, "Paracetamol 500mg", 10, 1.50),
	)

	_, err := svc.DiscardLine(&DiscardRequest{BatchID: batch.ID, MedicineID: 101, Quantity: 11}, testActor)
	if !errors.Is(err, ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}
}

func TestDiscardLineUnknownMedicine(t *testing.T) {
	batchRepo, _, svc := newTestDiscardService()
	batch := seedBatch(t, batchRepo, "BN-104", false,
		expiredLine(101, "Paracetamol 500mg", 10, 1.50),
	)

	_, err := svc.DiscardLine(&DiscardRequest{BatchID: batch.ID, MedicineID: 999, Quantity: 1}, testActor)
	if !errors.Is(err, ErrMedicineNotFound) {
		t.Fatalf("expected ErrMedicineNotFound, got %v", err)
	}
}

func TestDiscardAllForMedicineSweepsBatches(t *testing.T) {
	batchRepo, discardRepo, svc := newTestDiscardService()

	seedBatch(t, batchRepo, "BN-105", false, expiredLine(101, "Paracetamol 500mg", 100, 1.50))
	seedBatch(t, batchRepo, "BN-106", false, expiredLine(101, "Paracetamol 500mg", 50, 2.00))
	// Not expired, must be skipped.
	seedBatch(t, batchRepo, "BN-107", false, freshLine(101, "Paracetamol 500mg", 25, 1.50))
	// Draft, never counted as stock.
	seedBatch(t, batchRepo, "BN-108", true, expiredLine(101, "Paracetamol 500mg", 10, 1.50))

	result, err := svc.DiscardAllForMedicine(&DiscardAllRequest{
		MedicineName: "paracetamol 500MG", // case-insensitive match
		Reason:       "quarterly expiry sweep",
	}, testActor)
	if err != nil {
		t.Fatalf("DiscardAllForMedicine failed: %v", err)
	}

	if result.TotalBatchesAffected != 2 {
		t.Errorf("batches affected = %d, want 2", result.TotalBatchesAffected)
	}
	if result.TotalQuantityDiscarded != 150 {
		t.Errorf("quantity = %d, want 150", result.TotalQuantityDiscarded)
	}
	if result.TotalValueDiscarded != 250.00 { // 100*1.50 + 50*2.00
		t.Errorf("value = %.2f, want 250.00", result.TotalValueDiscarded)
	}
	if len(discardRepo.all()) != 2 {
		t.Errorf("receipts = %d, want 2", len(discardRepo.all()))
	}

	// The unexpired batch is untouched.
	fresh, _ := batchRepo.FindByNumber("BN-107")
	if fresh.FindMedicine(101).Quantity != 25 {
		t.Error("unexpired stock must survive the sweep")
	}
}

func TestDiscardAllForMedicineNothingExpired(t *testing.T) {
	batchRepo, _, svc := newTestDiscardService()
	seedBatch(t, batchRepo, "BN-109", false, freshLine(101, "Paracetamol 500mg", 25, 1.50))

	_, err := svc.DiscardAllForMedicine(&DiscardAllRequest{MedicineName: "Paracetamol 500mg"}, testActor)
	if !errors.Is(err, ErrNothingToDiscard) {
		t.Fatalf("expected ErrNothingToDiscard, got %v", err)
	}
}

// The discard receipt is the discard's only audit record, so it must carry the
// full provenance of what left the shelf.
func TestDiscardReceiptCarriesProvenance(t *testing.T) {
	batchRepo, discardRepo, svc := newTestDiscardService()
	batch := seedBatch(t, batchRepo, "BN-110", false,
		expiredLine(101, "Paracetamol 500mg", 10, 1.50),
	)

	record, err := svc.DiscardLine(&DiscardRequest{BatchID: batch.ID, MedicineID: 101, Reason: "expired"}, testActor)
	if err != nil {
		t.Fatalf("DiscardLine failed: %v", err)
	}

	if record.BatchNumber != "BN-110" || record.MedicineName != "Paracetamol 500mg" {
		t.Errorf("receipt identity = %+v", record)
	}
	if record.TotalValue != 15.00 || record.PricePerUnit != 1.50 {
		t.Errorf("receipt pricing = %+v", record)
	}
	if record.Reason != "expired" || record.DiscardedByID != testActor.ID {
		t.Errorf("receipt provenance = %+v", record)
	}
	if record.DiscardedAt.IsZero() {
		t.Error("receipt must carry the discard timestamp")
	}
	if len(discardRepo.all()) != 1 {
		t.Fatalf("expected exactly 1 receipt, got %d", len(discardRepo.all()))
	}
}

func TestDiscardAllForMedicineByID(t *testing.T) {
	batchRepo, _, svc := newTestDiscardService()
	seedBatch(t, batchRepo, "BN-111", false, expiredLine(101, "Paracetamol 500mg", 10, 1.50))
	seedBatch(t, batchRepo, "BN-112", false, expiredLine(303, "Ibuprofen 400mg", 5, 2.00))

	result, err := svc.DiscardAllForMedicine(&DiscardAllRequest{MedicineID: 303}, testActor)
	if err != nil {
		t.Fatalf("DiscardAllForMedicine failed: %v", err)
	}
	if result.TotalBatchesAffected != 1 || result.TotalQuantityDiscarded != 5 {
		t.Errorf("result = %+v", result)
	}

	// The other medicine is untouched.
	other, _ := batchRepo.FindByNumber("BN-111")
	if other.FindMedicine(101).Quantity != 10 {
		t.Error("sweep by id must not touch other medicines")
	}
}

func TestDiscardAllForMedicineMatchesBothIDAndName(t *testing.T) {
	batchRepo, _, svc := newTestDiscardService()
	seedBatch(t, batchRepo, "BN-113", false, expiredLine(101, "Paracetamol 500mg", 10, 1.50))

	// Id and name disagree: nothing may match.
	_, err := svc.DiscardAllForMedicine(&DiscardAllRequest{
		MedicineID:   101,
		MedicineName: "Amoxicillin 250mg",
	}, testActor)
	if !errors.Is(err, ErrNothingToDiscard) {
		t.Fatalf("expected ErrNothingToDiscard on id/name mismatch, got %v", err)
	}

	stored, _ := batchRepo.FindByNumber("BN-113")
	if stored.FindMedicine(101).Quantity != 10 {
		t.Error("mismatched sweep must not touch stock")
	}

	// Agreeing id and name discard as usual.
	result, err := svc.DiscardAllForMedicine(&DiscardAllRequest{
		MedicineID:   101,
		MedicineName: "paracetamol 500mg",
	}, testActor)
	if err != nil {
		t.Fatalf("DiscardAllForMedicine failed: %v", err)
	}
	if result.TotalQuantityDiscarded != 10 {
		t.Errorf("quantity = %d, want 10", result.TotalQuantityDiscarded)
	}
}
