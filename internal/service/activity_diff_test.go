package service

import (
	"strings"
	"testing"
	"time"

	"go-pharmacy-ws/internal/model"

	"github.com/google/uuid"
)

func testBatch() *model.Batch {
	b := &model.Batch{
		BatchNumber:         "BN-2026-001",
		BillID:              "BILL-77",
		OverallPrice:        250.00,
		MiscellaneousAmount: 10.00,
		Attachments:         []string{"https://files.local/inv-1.pdf"},
		Medicines: []model.BatchMedicine{
			{
				MedicineID:   101,
				MedicineName: "Paracetamol 500mg",
				Quantity:     100,
				Price:        1.50,
				ExpiryDate:   time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC),
				TotalAmount:  150.00,
			},
			{
				MedicineID:   202,
				MedicineName: "Amoxicillin 250mg",
				Quantity:     30,
				Price:        3.00,
				ExpiryDate:   time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
				TotalAmount:  90.00,
			},
		},
	}
	b.ID = uuid.New()
	return b
}

func cloneBatch(b *model.Batch) *model.Batch {
	snap := snapshotBatch(b)
	return &snap
}

var testActor = Actor{ID: "user-1", Name: "Jane Doe"}

func TestBuildUpdateEntriesNoChanges(t *testing.T) {
	old := testBatch()
	updated := cloneBatch(old)

	entries := buildUpdateEntries(old, updated, testActor)
	if len(entries) != 0 {
		t.Fatalf("expected no entries for an unchanged batch, got %d", len(entries))
	}
}

func TestBuildUpdateEntriesScalarFields(t *testing.T) {
	old := testBatch()
	updated := cloneBatch(old)
	updated.MiscellaneousAmount = 25.00
	updated.OverallPrice = 265.00
	updated.BatchNumber = "BN-2026-002"

	entries := buildUpdateEntries(old, updated, testActor)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantDetails := []string{
		"Miscellaneous amount changed from 10.00 to 25.00",
		"Total amount changed from 250.00 to 265.00",
		"Batch number changed from 'BN-2026-001' to 'BN-2026-002'",
	}
	for i, want := range wantDetails {
		if entries[i].Details != want {
			t.Errorf("entry %d details = %q, want %q", i, entries[i].Details, want)
		}
		if entries[i].Action != model.ActivityUpdated {
			t.Errorf("entry %d action = %q, want %q", i, entries[i].Action, model.ActivityUpdated)
		}
		if entries[i].OwnerName != testActor.Name {
			t.Errorf("entry %d owner = %q, want %q", i, entries[i].OwnerName, testActor.Name)
		}
	}

	// Entries written after a rename carry the new number so history lookups
	// by the current number keep working.
	for i, e := range entries {
		if e.BatchNumber != "BN-2026-002" {
			t.Errorf("entry %d batch number = %q, want BN-2026-002", i, e.BatchNumber)
		}
	}
}

func TestBuildUpdateEntriesMedicineModified(t *testing.T) {
	old := testBatch()
	updated := cloneBatch(old)
	updated.Medicines[0].Quantity = 80
	updated.Medicines[0].TotalAmount = 120.00

	entries := buildUpdateEntries(old, updated, testActor)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	want := "Medicine 'Paracetamol 500mg' updated: quantity 100 to 80, total 150.00 to 120.00"
	if entries[0].Details != want {
		t.Errorf("details = %q, want %q", entries[0].Details, want)
	}

	if len(entries[0].Changes) != 2 {
		t.Fatalf("expected 2 field changes, got %d", len(entries[0].Changes))
	}
	if entries[0].Changes[0].Field != "quantity" || entries[0].Changes[0].NewValue != "80" {
		t.Errorf("unexpected first change: %+v", entries[0].Changes[0])
	}
}

func TestBuildUpdateEntriesMedicineExpiryUsesDayMonthYear(t *testing.T) {
	old := testBatch()
	updated := cloneBatch(old)
	updated.Medicines[1].ExpiryDate = time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	entries := buildUpdateEntries(old, updated, testActor)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	want := "Medicine 'Amoxicillin 250mg' updated: expiry 15/01/2027 to 01/03/2027"
	if entries[0].Details != want {
		t.Errorf("details = %q, want %q", entries[0].Details, want)
	}
}

func TestBuildUpdateEntriesMedicineAddedAndRemoved(t *testing.T) {
	old := testBatch()
	updated := cloneBatch(old)

	// Drop Amoxicillin, add Ibuprofen.
	updated.Medicines = []model.BatchMedicine{
		updated.Medicines[0],
		{
			MedicineID:   303,
			MedicineName: "Ibuprofen 400mg",
			Quantity:     50,
			Price:        2.00,
			ExpiryDate:   time.Date(2027, 9, 1, 0, 0, 0, 0, time.UTC),
			TotalAmount:  100.00,
		},
	}

	entries := buildUpdateEntries(old, updated, testActor)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if !strings.HasPrefix(entries[0].Details, "Medicine 'Ibuprofen 400mg' added:") {
		t.Errorf("first entry = %q, want added entry", entries[0].Details)
	}
	if !strings.HasPrefix(entries[1].Details, "Medicine 'Amoxicillin 250mg' removed:") {
		t.Errorf("second entry = %q, want removed entry", entries[1].Details)
	}
}

func TestBuildUpdateEntriesFixedOrdering(t *testing.T) {
	old := testBatch()
	updated := cloneBatch(old)
	updated.Attachments = append(updated.Attachments, "https://files.local/inv-2.pdf")
	updated.DraftNote = "checked against supplier invoice"
	updated.BillID = "BILL-88"
	updated.Medicines[0].Price = 1.60
	updated.Medicines[0].TotalAmount = 160.00
	updated.OverallPrice = 260.00

	entries := buildUpdateEntries(old, updated, testActor)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	wantOrder := []string{
		"Total amount changed",
		"Bill ID changed",
		"Medicine 'Paracetamol 500mg' updated",
		"Draft note updated",
		"Attachments changed from 1 to 2 file(s)",
	}
	for i, prefix := range wantOrder {
		if !strings.HasPrefix(entries[i].Details, prefix) {
			t.Errorf("entry %d = %q, want prefix %q", i, entries[i].Details, prefix)
		}
	}
}
