package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-pharmacy-ws/internal/model"
)

// Actor identifies the authenticated user performing a mutation, denormalized
// into every log entry and discard receipt.
type Actor struct {
	ID   string
	Name string
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func newBatchEntry(batch *model.Batch, action model.ActivityAction, details string, actor Actor, changes []model.FieldChange) model.ActivityLog {
	return model.ActivityLog{
		BatchID:     batch.ID,
		BatchNumber: batch.BatchNumber,
		Action:      action,
		Details:     details,
		OwnerID:     actor.ID,
		OwnerName:   actor.Name,
		Changes:     changes,
	}
}

func singleChange(field, oldValue, newValue string) []model.FieldChange {
	return []model.FieldChange{{Field: field, OldValue: oldValue, NewValue: newValue}}
}

// buildUpdateEntries converts the difference between two batch snapshots into
// a set of semantically separated log entries, one per logically distinct
// change, so each entry in the batch's history reads as one attributable
// fact. An update that changes nothing observable yields an empty slice and
// no log is written at all.
//
// Entry order is fixed: miscellaneous amount, overall price, batch number,
// bill id, medicine lines, draft note, attachment count.
func buildUpdateEntries(old, updated *model.Batch, actor Actor) []model.ActivityLog {
	var entries []model.ActivityLog

	if old.MiscellaneousAmount != updated.MiscellaneousAmount {
		entries = append(entries, newBatchEntry(updated, model.ActivityUpdated,
			fmt.Sprintf("Miscellaneous amount changed from %s to %s",
				formatMoney(old.MiscellaneousAmount), formatMoney(updated.MiscellaneousAmount)),
			actor,
			singleChange("miscellaneousAmount", formatMoney(old.MiscellaneousAmount), formatMoney(updated.MiscellaneousAmount)),
		))
	}

	if old.OverallPrice != updated.OverallPrice {
		entries = append(entries, newBatchEntry(updated, model.ActivityUpdated,
			fmt.Sprintf("Total amount changed from %s to %s",
				formatMoney(old.OverallPrice), formatMoney(updated.OverallPrice)),
			actor,
			singleChange("overallPrice", formatMoney(old.OverallPrice), formatMoney(updated.OverallPrice)),
		))
	}

	if old.BatchNumber != updated.BatchNumber {
		entries = append(entries, newBatchEntry(updated, model.ActivityUpdated,
			fmt.Sprintf("Batch number changed from '%s' to '%s'", old.BatchNumber, updated.BatchNumber),
			actor,
			singleChange("batchNumber", old.BatchNumber, updated.BatchNumber),
		))
	}

	if old.BillID != updated.BillID {
		entries = append(entries, newBatchEntry(updated, model.ActivityUpdated,
			fmt.Sprintf("Bill ID changed from '%s' to '%s'", old.BillID, updated.BillID),
			actor,
			singleChange("billID", old.BillID, updated.BillID),
		))
	}

	entries = append(entries, diffMedicineLines(old.Medicines, updated.Medicines, updated, actor)...)

	if old.DraftNote != updated.DraftNote {
		entries = append(entries, newBatchEntry(updated, model.ActivityUpdated,
			"Draft note updated",
			actor,
			singleChange("draftNote", old.DraftNote, updated.DraftNote),
		))
	}

	// Attachments are opaque URLs; only the count is compared.
	if len(old.Attachments) != len(updated.Attachments) {
		entries = append(entries, newBatchEntry(updated, model.ActivityUpdated,
			fmt.Sprintf("Attachments changed from %d to %d file(s)", len(old.Attachments), len(updated.Attachments)),
			actor,
			singleChange("attachments", strconv.Itoa(len(old.Attachments)), strconv.Itoa(len(updated.Attachments))),
		))
	}

	return entries
}

// diffMedicineLines compares the old and new line sets keyed by medicine id
// and emits one entry per affected medicine: added, removed, or modified.
// A modified medicine aggregates all of its field changes into one entry.
func diffMedicineLines(oldLines, newLines []model.BatchMedicine, batch *model.Batch, actor Actor) []model.ActivityLog {
	oldByID := make(map[int]model.BatchMedicine, len(oldLines))
	for _, l := range oldLines {
		oldByID[l.MedicineID] = l
	}

	var entries []model.ActivityLog
	seen := make(map[int]bool, len(newLines))

	for _, nl := range newLines {
		seen[nl.MedicineID] = true
		ol, existed := oldByID[nl.MedicineID]
		if !existed {
			entries = append(entries, newBatchEntry(batch, model.ActivityUpdated,
				fmt.Sprintf("Medicine '%s' added: quantity %d, price %s, expiry %s, total %s",
					nl.MedicineName, nl.Quantity, formatMoney(nl.Price), formatDate(nl.ExpiryDate), formatMoney(nl.TotalAmount)),
				actor,
				[]model.FieldChange{
					{Field: "quantity", NewValue: strconv.Itoa(nl.Quantity)},
					{Field: "price", NewValue: formatMoney(nl.Price)},
					{Field: "expiryDate", NewValue: formatDate(nl.ExpiryDate)},
					{Field: "totalAmount", NewValue: formatMoney(nl.TotalAmount)},
				},
			))
			continue
		}

		if entry, changed := diffMedicine(ol, nl, batch, actor); changed {
			entries = append(entries, entry)
		}
	}

	for _, ol := range oldLines {
		if seen[ol.MedicineID] {
			continue
		}
		entries = append(entries, newBatchEntry(batch, model.ActivityUpdated,
			fmt.Sprintf("Medicine '%s' removed: quantity %d, price %s, expiry %s, total %s",
				ol.MedicineName, ol.Quantity, formatMoney(ol.Price), formatDate(ol.ExpiryDate), formatMoney(ol.TotalAmount)),
			actor,
			[]model.FieldChange{
				{Field: "quantity", OldValue: strconv.Itoa(ol.Quantity)},
				{Field: "price", OldValue: formatMoney(ol.Price)},
				{Field: "expiryDate", OldValue: formatDate(ol.ExpiryDate)},
				{Field: "totalAmount", OldValue: formatMoney(ol.TotalAmount)},
			},
		))
	}

	return entries
}

// diffMedicine compares one medicine line across snapshots. The derived total
// is only reported when quantity or price moved it.
func diffMedicine(ol, nl model.BatchMedicine, batch *model.Batch, actor Actor) (model.ActivityLog, bool) {
	var parts []string
	var changes []model.FieldChange

	if ol.Quantity != nl.Quantity {
		parts = append(parts, fmt.Sprintf("quantity %d to %d", ol.Quantity, nl.Quantity))
		changes = append(changes, model.FieldChange{Field: "quantity", OldValue: strconv.Itoa(ol.Quantity), NewValue: strconv.Itoa(nl.Quantity)})
	}
	if ol.Price != nl.Price {
		parts = append(parts, fmt.Sprintf("price %s to %s", formatMoney(ol.Price), formatMoney(nl.Price)))
		changes = append(changes, model.FieldChange{Field: "price", OldValue: formatMoney(ol.Price), NewValue: formatMoney(nl.Price)})
	}
	if !ol.ExpiryDate.Equal(nl.ExpiryDate) {
		parts = append(parts, fmt.Sprintf("expiry %s to %s", formatDate(ol.ExpiryDate), formatDate(nl.ExpiryDate)))
		changes = append(changes, model.FieldChange{Field: "expiryDate", OldValue: formatDate(ol.ExpiryDate), NewValue: formatDate(nl.ExpiryDate)})
	}
	if (ol.Quantity != nl.Quantity || ol.Price != nl.Price) && ol.TotalAmount != nl.TotalAmount {
		parts = append(parts, fmt.Sprintf("total %s to %s", formatMoney(ol.TotalAmount), formatMoney(nl.TotalAmount)))
		changes = append(changes, model.FieldChange{Field: "totalAmount", OldValue: formatMoney(ol.TotalAmount), NewValue: formatMoney(nl.TotalAmount)})
	}
	if ol.MedicineName != nl.MedicineName {
		parts = append(parts, fmt.Sprintf("name '%s' to '%s'", ol.MedicineName, nl.MedicineName))
		changes = append(changes, model.FieldChange{Field: "medicineName", OldValue: ol.MedicineName, NewValue: nl.MedicineName})
	}

	if len(parts) == 0 {
		return model.ActivityLog{}, false
	}

	details := fmt.Sprintf("Medicine '%s' updated: %s", nl.MedicineName, strings.Join(parts, ", "))
	return newBatchEntry(batch, model.ActivityUpdated, details, actor, changes), true
}
