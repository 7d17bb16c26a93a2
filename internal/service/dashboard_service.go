package service

import (
	"time"

	"go-pharmacy-ws/internal/model"
	"go-pharmacy-ws/internal/repository"
)

type DashboardService interface {
	GetDashboardStats() (*DashboardStats, error)
}

// DashboardStats is the landing-page summary: batch counts, the aggregated
// stock position, and the most recent audit activity.
type DashboardStats struct {
	FinalizedBatches    int64                 `json:"finalized_batches"`
	DraftBatches        int64                 `json:"draft_batches"`
	TotalMedicines      int                   `json:"total_medicines"`
	TotalStockValue     float64               `json:"total_stock_value"`
	LowStockCount       int                   `json:"low_stock_count"`
	ExpiredCount        int                   `json:"expired_count"`
	ExpiringSoonCount   int                   `json:"expiring_soon_count"`
	TotalDiscardedValue float64               `json:"total_discarded_value"`
	RecentActivity      []model.ActivityLog   `json:"recent_activity"`
	RecentDiscards      []model.DiscardRecord `json:"recent_discards"`
}

type dashboardService struct {
	batchRepo    repository.BatchRepository
	activityRepo repository.ActivityLogRepository
	discardRepo  repository.DiscardRepository
}

func NewDashboardService(batchRepo repository.BatchRepository, activityRepo repository.ActivityLogRepository, discardRepo repository.DiscardRepository) DashboardService {
	return &dashboardService{
		batchRepo:    batchRepo,
		activityRepo: activityRepo,
		discardRepo:  discardRepo,
	}
}

func (s *dashboardService) GetDashboardStats() (*DashboardStats, error) {
	finalized, drafts, err := s.batchRepo.CountBatches()
	if err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.FindFinalized()
	if err != nil {
		return nil, err
	}
	views := aggregateStock(batches, time.Now())

	stats := &DashboardStats{
		FinalizedBatches: finalized,
		DraftBatches:     drafts,
		TotalMedicines:   len(views),
	}
	for _, v := range views {
		stats.TotalStockValue += v.TotalValue
		if v.LowStock {
			stats.LowStockCount++
		}
		if v.HasExpired {
			stats.ExpiredCount++
		}
		if v.HasExpiringSoon {
			stats.ExpiringSoonCount++
		}
	}

	stats.TotalDiscardedValue, err = s.discardRepo.TotalDiscardedValue()
	if err != nil {
		return nil, err
	}

	stats.RecentActivity, err = s.activityRepo.FindRecent(10)
	if err != nil {
		return nil, err
	}
	stats.RecentDiscards, err = s.discardRepo.FindRecent(10)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
