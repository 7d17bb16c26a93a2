package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/repository"

	"github.com/google/uuid"
)

type StockService interface {
	QueryStock(q StockQuery) (*StockPage, error)
	QueryExpiring(q StockQuery) (*StockPage, error)
	QueryLowStock(q StockQuery) (*StockPage, error)
	GetStockByMedicine(medicineID int) (*MedicineStockView, error)
}

type StockQuery struct {
	Page   int
	Limit  int
	Search string // case-insensitive substring on medicine name
	Sort   string // name | quantity | value | expiry
}

// StockBatchLine is one batch's contribution to a medicine's stock, with its
// expiry classification precomputed for the caller.
type StockBatchLine struct {
	BatchID        uuid.UUID `json:"batch_id"`
	BatchNumber    string    `json:"batch_number"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price"`
	ExpiryDate     time.Time `json:"expiry_date"`
	DateOfPurchase time.Time `json:"date_of_purchase"`
	Expired        bool      `json:"expired"`
	ExpiringSoon   bool      `json:"expiring_soon"`
	DaysRemaining  int       `json:"days_remaining"`
}

// MedicineStockView aggregates one medicine across every finalized batch.
// Drafts never contribute. Totals include expired units; the flags tell the
// caller how much of the position needs attention.
type MedicineStockView struct {
	MedicineID      int              `json:"medicine_id"`
	MedicineName    string           `json:"medicine_name"`
	TotalQuantity   int              `json:"total_quantity"`
	TotalValue      float64          `json:"total_value"`
	ReorderLevel    int              `json:"reorder_level"`
	LowStock        bool             `json:"low_stock"`
	HasExpired      bool             `json:"has_expired"`
	HasExpiringSoon bool             `json:"has_expiring_soon"`
	EarliestExpiry  time.Time        `json:"earliest_expiry"`
	Batches         []StockBatchLine `json:"batches"`
}

type StockPage struct {
	Items []MedicineStockView `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

type stockService struct {
	batchRepo repository.BatchRepository
}

func NewStockService(batchRepo repository.BatchRepository) StockService {
	return &stockService{batchRepo: batchRepo}
}

// aggregateStock folds finalized batches into per-medicine views keyed by the
// stable medicine id. Pure: the reference time is a parameter so the expiry
// boundary is deterministic in tests.
func aggregateStock(batches []model.Batch, now time.Time) []MedicineStockView {
	byID := make(map[int]*MedicineStockView)

	for _, batch := range batches {
		if batch.IsDraft {
			continue
		}
		for _, line := range batch.Medicines {
			cls := ClassifyExpiry(line.ExpiryDate, now)

			view, ok := byID[line.MedicineID]
			if !ok {
				view = &MedicineStockView{
					MedicineID:     line.MedicineID,
					MedicineName:   line.MedicineName,
					ReorderLevel:   line.ReorderLevel,
					EarliestExpiry: line.ExpiryDate,
				}
				byID[line.MedicineID] = view
			}

			view.MedicineName = line.MedicineName
			view.TotalQuantity += line.Quantity
			view.TotalValue += line.TotalAmount
			// The lowest reorder level across the lines is the one that trips
			// the low-stock flag.
			if line.ReorderLevel < view.ReorderLevel {
				view.ReorderLevel = line.ReorderLevel
			}
			if line.ExpiryDate.Before(view.EarliestExpiry) {
				view.EarliestExpiry = line.ExpiryDate
			}
			if cls.Expired {
				view.HasExpired = true
			}
			if cls.ExpiringSoon {
				view.HasExpiringSoon = true
			}

			view.Batches = append(view.Batches, StockBatchLine{
				BatchID:        batch.ID,
				BatchNumber:    batch.BatchNumber,
				Quantity:       line.Quantity,
				Price:          line.Price,
				ExpiryDate:     line.ExpiryDate,
				DateOfPurchase: line.DateOfPurchase,
				Expired:        cls.Expired,
				ExpiringSoon:   cls.ExpiringSoon,
				DaysRemaining:  cls.DaysRemaining,
			})
		}
	}

	views := make([]MedicineStockView, 0, len(byID))
	for _, view := range byID {
		view.LowStock = view.TotalQuantity <= view.ReorderLevel
		sort.Slice(view.Batches, func(i, j int) bool {
			return view.Batches[i].ExpiryDate.Before(view.Batches[j].ExpiryDate)
		})
		views = append(views, *view)
	}

	sort.Slice(views, func(i, j int) bool {
		return strings.ToLower(views[i].MedicineName) < strings.ToLower(views[j].MedicineName)
	})
	return views
}

func sortViews(views []MedicineStockView, key string) {
	switch key {
	case "quantity":
		sort.SliceStable(views, func(i, j int) bool { return views[i].TotalQuantity < views[j].TotalQuantity })
	case "value":
		sort.SliceStable(views, func(i, j int) bool { return views[i].TotalValue > views[j].TotalValue })
	case "expiry":
		sort.SliceStable(views, func(i, j int) bool { return views[i].EarliestExpiry.Before(views[j].EarliestExpiry) })
	}
	// default: name order from aggregateStock
}

func paginateViews(views []MedicineStockView, page, limit int) *StockPage {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total := len(views)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &StockPage{Items: views[start:end], Total: total, Page: page, Limit: limit}
}

func filterViews(views []MedicineStockView, search string, keep func(MedicineStockView) bool) []MedicineStockView {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]MedicineStockView, 0, len(views))
	for _, v := range views {
		if search != "" && !strings.Contains(strings.ToLower(v.MedicineName), search) {
			continue
		}
		if keep != nil && !keep(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *stockService) query(q StockQuery, keep func(MedicineStockView) bool) (*StockPage, error) {
	batches, err := s.batchRepo.FindFinalized()
	if err != nil {
		return nil, err
	}

	views := filterViews(aggregateStock(batches, time.Now()), q.Search, keep)
	sortViews(views, q.Sort)
	return paginateViews(views, q.Page, q.Limit), nil
}

func (s *stockService) QueryStock(q StockQuery) (*StockPage, error) {
	return s.query(q, nil)
}

func (s *stockService) QueryExpiring(q StockQuery) (*StockPage, error) {
	return s.query(q, func(v MedicineStockView) bool {
		return v.HasExpired || v.HasExpiringSoon
	})
}

func (s *stockService) QueryLowStock(q StockQuery) (*StockPage, error) {
	return s.query(q, func(v MedicineStockView) bool {
		return v.LowStock
	})
}

func (s *stockService) GetStockByMedicine(medicineID int) (*MedicineStockView, error) {
	batches, err := s.batchRepo.FindFinalizedByMedicine(medicineID)
	if err != nil {
		return nil, err
	}

	for _, view := range aggregateStock(batches, time.Now()) {
		if view.MedicineID == medicineID {
			v := view
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: medicine id %d has no finalized stock", ErrMedicineNotFound, medicineID)
}
