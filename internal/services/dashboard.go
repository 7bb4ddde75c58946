package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"inquirydesk/internal/repository"
)

// MonthTotal is the number of inquiries created in one month.
type MonthTotal struct {
	Month string `json:"month"` // YYYY-MM
	Total int    `json:"total"`
}

// DashboardService aggregates inquiries for the dashboard.
type DashboardService struct {
	repo repository.InquiryRepository
	loc  *time.Location
	now  func() time.Time
}

// NewDashboardService creates a dashboard service that draws calendar
// boundaries in loc.
func NewDashboardService(repo repository.InquiryRepository, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{repo: repo, loc: loc, now: time.Now}
}

// EntriesByMonth counts this year's inquiries per month, January through
// December, with empty months reported as zero.
func (s *DashboardService) EntriesByMonth(ctx context.Context) ([]MonthTotal, error) {
	now := s.now().In(s.loc)
	year := now.Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)

	created, err := s.repo.CreatedBetween(ctx, start, end)
	if err != nil {
		log.Printf("[DASHBOARD] Entries by month failed: %v", err)
		return nil, NewInternalError("failed to load creation times", err)
	}

	var counts [12]int
	for _, ts := range created {
		local := ts.In(s.loc)
		if local.Year() != year {
			continue
		}
		counts[local.Month()-1]++
	}

	result := make([]MonthTotal, 12)
	for i := range counts {
		result[i] = MonthTotal{
			Month: fmt.Sprintf("%04d-%02d", year, i+1),
			Total: counts[i],
		}
	}
	log.Printf("[DASHBOARD] Entries by month: year=%d, records=%d", year, len(created))
	return result, nil
}
