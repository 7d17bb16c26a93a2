package service

import (
	"testing"
	"time"

	"go-pharmacy-ws/internal/model"

	"github.com/google/uuid"
)

func stockLine(medicineID int, name string, qty int, price float64, expiry time.Time, reorder int) model.BatchMedicine {
	return model.BatchMedicine{
		MedicineID:   medicineID,
		MedicineName: name,
		Quantity:     qty,
		Price:        price,
		ExpiryDate:   expiry,
		ReorderLevel: reorder,
		TotalAmount:  float64(qty) * price,
	}
}

func stockBatch(number string, draft bool, lines ...model.BatchMedicine) model.Batch {
	b := model.Batch{
		BatchNumber: number,
		IsDraft:     draft,
		Medicines:   lines,
	}
	b.ID = uuid.New()
	return b
}

func TestAggregateStock(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	soon := now.AddDate(0, 0, 7)
	future := now.AddDate(1, 0, 0)

	batches := []model.Batch{
		stockBatch("BN-1", false,
			stockLine(101, "Paracetamol 500mg", 100, 1.50, future, 20),
			stockLine(202, "Amoxicillin 250mg", 30, 3.00, past, 10),
		),
		stockBatch("BN-2", false,
			stockLine(101, "Paracetamol 500mg", 40, 1.60, soon, 25),
		),
		// Drafts never contribute to stock.
		stockBatch("BN-3", true,
			stockLine(101, "Paracetamol 500mg", 999, 1.00, future, 0),
		),
	}

	views := aggregateStock(batches, now)
	if len(views) != 2 {
		t.Fatalf("expected 2 medicines, got %d", len(views))
	}

	// Sorted by name: Amoxicillin first.
	amox := views[0]
	if amox.MedicineID != 202 {
		t.Fatalf("first view = %+v, want Amoxicillin", amox)
	}
	if !amox.HasExpired || amox.HasExpiringSoon {
		t.Errorf("amox flags = expired:%v soon:%v", amox.HasExpired, amox.HasExpiringSoon)
	}

	para := views[1]
	if para.TotalQuantity != 140 {
		t.Errorf("paracetamol quantity = %d, want 140", para.TotalQuantity)
	}
	if para.TotalValue != 214.00 { // 100*1.50 + 40*1.60
		t.Errorf("paracetamol value = %.2f, want 214.00", para.TotalValue)
	}
	if para.ReorderLevel != 20 {
		t.Errorf("reorder level = %d, want lowest across lines 20", para.ReorderLevel)
	}
	if para.HasExpired {
		t.Error("paracetamol has no expired line")
	}
	if !para.HasExpiringSoon {
		t.Error("paracetamol has a line inside the near-expiry window")
	}
	if len(para.Batches) != 2 {
		t.Fatalf("paracetamol batch lines = %d, want 2", len(para.Batches))
	}
	// Per-medicine lines are ordered soonest expiry first.
	if para.Batches[0].BatchNumber != "BN-2" {
		t.Errorf("first line from %q, want BN-2", para.Batches[0].BatchNumber)
	}
}

func TestAggregateStockLowStockFlag(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(1, 0, 0)

	batches := []model.Batch{
		stockBatch("BN-1", false,
			stockLine(101, "Paracetamol 500mg", 15, 1.50, future, 20),
			stockLine(202, "Amoxicillin 250mg", 50, 3.00, future, 10),
		),
	}

	views := aggregateStock(batches, now)
	for _, v := range views {
		switch v.MedicineID {
		case 101:
			if !v.LowStock {
				t.Error("15 on hand with reorder level 20 should be low stock")
			}
		case 202:
			if v.LowStock {
				t.Error("50 on hand with reorder level 10 should not be low stock")
			}
		}
	}
}

func TestAggregateStockLowStockUsesLowestReorderLevel(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(1, 0, 0)

	batches := []model.Batch{
		stockBatch("BN-1", false, stockLine(101, "Paracetamol 500mg", 3, 1.50, future, 5)),
		stockBatch("BN-2", false, stockLine(101, "Paracetamol 500mg", 5, 1.50, future, 12)),
	}

	views := aggregateStock(batches, now)
	if len(views) != 1 {
		t.Fatalf("expected 1 medicine, got %d", len(views))
	}
	v := views[0]
	if v.ReorderLevel != 5 {
		t.Errorf("reorder level = %d, want lowest across lines 5", v.ReorderLevel)
	}
	// 8 on hand against the lowest threshold of 5 is not low stock.
	if v.LowStock {
		t.Error("8 on hand with lowest reorder level 5 should not be low stock")
	}
}

func TestQueryStockSearchAndPagination(t *testing.T) {
	repo := newFakeBatchRepo()
	now := time.Now()
	future := now.AddDate(1, 0, 0)

	for i, name := range []string{"Paracetamol 500mg", "Amoxicillin 250mg", "Ibuprofen 400mg"} {
		b := stockBatch("BN-"+name, false, stockLine(100+i, name, 10, 1.00, future, 0))
		if err := repo.Create(&b); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	svc := NewStockService(repo)

	page, err := svc.QueryStock(StockQuery{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("QueryStock failed: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 {
		t.Errorf("total = %d items = %d, want 3/2", page.Total, len(page.Items))
	}

	page, err = svc.QueryStock(StockQuery{Search: "amox"})
	if err != nil {
		t.Fatalf("QueryStock failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].MedicineName != "Amoxicillin 250mg" {
		t.Errorf("search result = %+v", page.Items)
	}
}

func TestQueryExpiringFiltersToAtRiskMedicines(t *testing.T) {
	repo := newFakeBatchRepo()
	now := time.Now()

	expired := stockBatch("BN-1", false, stockLine(101, "Paracetamol 500mg", 10, 1.00, now.AddDate(0, 0, -3), 0))
	fresh := stockBatch("BN-2", false, stockLine(202, "Amoxicillin 250mg", 10, 1.00, now.AddDate(1, 0, 0), 0))
	if err := repo.Create(&expired); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(&fresh); err != nil {
		t.Fatal(err)
	}

	svc := NewStockService(repo)
	page, err := svc.QueryExpiring(StockQuery{})
	if err != nil {
		t.Fatalf("QueryExpiring failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].MedicineID != 101 {
		t.Errorf("expiring result = %+v", page.Items)
	}
}

func TestGetStockByMedicine(t *testing.T) {
	repo := newFakeBatchRepo()
	future := time.Now().AddDate(1, 0, 0)

	b := stockBatch("BN-1", false, stockLine(101, "Paracetamol 500mg", 10, 1.50, future, 0))
	if err := repo.Create(&b); err != nil {
		t.Fatal(err)
	}

	svc := NewStockService(repo)

	view, err := svc.GetStockByMedicine(101)
	if err != nil {
		t.Fatalf("GetStockByMedicine failed: %v", err)
	}
	if view.TotalQuantity != 10 || view.TotalValue != 15.00 {
		t.Errorf("view = %+v", view)
	}

	if _, err := svc.GetStockByMedicine(999); err == nil {
		t.Fatal("expected error for unknown medicine")
	}
}
