package service

import (
	"errors"
	"sync"
	"time"

	"go-pharmacy-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeBatchRepo is an in-memory BatchRepository. It mirrors the real
// repository's contract: gorm.ErrRecordNotFound for missing rows and a full
// line replace on UpdateWithLock.
type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*model.Batch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]*model.Batch)}
}

func copyBatch(b *model.Batch) *model.Batch {
	snap := snapshotBatch(b)
	return &snap
}

func (r *fakeBatchRepo) Create(batch *model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	for i := range batch.Medicines {
		if batch.Medicines[i].ID == uuid.Nil {
			batch.Medicines[i].ID = uuid.New()
		}
		batch.Medicines[i].BatchID = batch.ID
	}
	batch.CreatedAt = time.Now()
	r.batches[batch.ID] = copyBatch(batch)
	return nil
}

func (r *fakeBatchRepo) FindByID(id uuid.UUID) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyBatch(batch), nil
}

func (r *fakeBatchRepo) FindByNumber(number string) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, batch := range r.batches {
		if batch.BatchNumber == number {
			return copyBatch(batch), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBatchRepo) NumberExists(number string, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, batch := range r.batches {
		if batch.BatchNumber == number && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBatchRepo) FindAll() ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Batch, 0, len(r.batches))
	for _, batch := range r.batches {
		out = append(out, *copyBatch(batch))
	}
	return out, nil
}

func (r *fakeBatchRepo) FindFinalized() ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Batch
	for _, batch := range r.batches {
		if !batch.IsDraft {
			out = append(out, *copyBatch(batch))
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) FindFinalizedByMedicine(medicineID int) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Batch
	for _, batch := range r.batches {
		if batch.IsDraft {
			continue
		}
		for _, line := range batch.Medicines {
			if line.MedicineID == medicineID {
				out = append(out, *copyBatch(batch))
				break
			}
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) UpdateWithLock(id uuid.UUID, fn func(batch *model.Batch) error) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	working := copyBatch(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	for i := range working.Medicines {
		working.Medicines[i].BatchID = working.ID
		if working.Medicines[i].ID == uuid.Nil {
			working.Medicines[i].ID = uuid.New()
		}
	}
	r.batches[id] = copyBatch(working)
	return working, nil
}

func (r *fakeBatchRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.batches, id)
	return nil
}

func (r *fakeBatchRepo) CountBatches() (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var finalized, drafts int64
	for _, batch := range r.batches {
		if batch.IsDraft {
			drafts++
		} else {
			finalized++
		}
	}
	return finalized, drafts, nil
}

// fakeActivityRepo collects log entries in write order. failNext makes the
// next write fail once, for exercising log-and-continue behavior.
type fakeActivityRepo struct {
	mu       sync.Mutex
	entries  []model.ActivityLog
	failNext bool
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Create(entry *model.ActivityLog) error {
	return r.CreateAll([]model.ActivityLog{*entry})
}

func (r *fakeActivityRepo) CreateAll(entries []model.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("activity store unavailable")
	}
	now := time.Now()
	for i := range entries {
		entries[i].ID = uuid.New()
		entries[i].CreatedAt = now
	}
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeActivityRepo) FindByBatchID(batchID uuid.UUID, page, limit int) ([]model.ActivityLog, int64, error) {
	return r.filter(func(e model.ActivityLog) bool { return e.BatchID == batchID }, page, limit)
}

func (r *fakeActivityRepo) FindByBatchNumber(number string, page, limit int) ([]model.ActivityLog, int64, error) {
	return r.filter(func(e model.ActivityLog) bool { return e.BatchNumber == number }, page, limit)
}

func (r *fakeActivityRepo) filter(keep func(model.ActivityLog) bool, page, limit int) ([]model.ActivityLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	// Newest first.
	var matched []model.ActivityLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		if keep(r.entries[i]) {
			matched = append(matched, r.entries[i])
		}
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeActivityRepo) FindRecent(limit int) ([]model.ActivityLog, error) {
	entries, _, err := r.filter(func(model.ActivityLog) bool { return true }, 1, limit)
	return entries, err
}

func (r *fakeActivityRepo) all() []model.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ActivityLog, len(r.entries))
	copy(out, r.entries)
	return out
}

// fakeDiscardRepo collects discard receipts in write order.
type fakeDiscardRepo struct {
	mu      sync.Mutex
	records []model.DiscardRecord
}

func newFakeDiscardRepo() *fakeDiscardRepo {
	return &fakeDiscardRepo{}
}

func (r *fakeDiscardRepo) Create(record *model.DiscardRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeDiscardRepo) FindAll(page, limit int) ([]model.DiscardRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.DiscardRecord, len(r.records))
	copy(out, r.records)
	return out, int64(len(r.records)), nil
}

func (r *fakeDiscardRepo) FindByMedicine(medicineID int) ([]model.DiscardRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DiscardRecord
	for _, rec := range r.records {
		if rec.MedicineID == medicineID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeDiscardRepo) TotalDiscardedValue() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, rec := range r.records {
		total += rec.TotalValue
	}
	return total, nil
}

func (r *fakeDiscardRepo) FindRecent(limit int) ([]model.DiscardRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DiscardRecord
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

func (r *fakeDiscardRepo) all() []model.DiscardRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.DiscardRecord, len(r.records))
	copy(out, r.records)
	return out
}
