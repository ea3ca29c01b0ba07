package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/qepting91/campsite-watcher/internal/domain"
)

// MockClient implements domain.Collector with synthetic, repeatable availability.
type MockClient struct {
	Sites   int
	Latency time.Duration
}

func NewMockClient() *MockClient {
	return &MockClient{Sites: 3, Latency: 300 * time.Millisecond}
}

func (mc *MockClient) FetchMonth(ctx context.Context, campgroundID, month string) ([]domain.AvailabilityRecord, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("mock: bad month %q: %w", month, err)
	}

	// Simulate network latency
	select {
	case <-ctx.Done():
		return nil, &TransportError{Campground: campgroundID, Month: month, Err: ctx.Err()}
	case <-time.After(mc.Latency):
	}

	days := first.AddDate(0, 1, -1).Day()
	var records []domain.AvailabilityRecord
	for i := 1; i <= mc.Sites; i++ {
		siteID := fmt.Sprintf("mock_%s_%d", campgroundID, i)
		seed := seedFor(siteID, month)

		var dates []string
		for d := 0; d < days; d++ {
			// Roughly one night in four is open, in short streaks.
			if (seed>>(d%32))&3 == 0 {
				dates = append(dates, first.AddDate(0, 0, d).Format("2006-01-02"))
			}
		}
		if len(dates) == 0 {
			continue
		}
		records = append(records, domain.AvailabilityRecord{
			CampgroundID:   campgroundID,
			SiteID:         siteID,
			SiteName:       fmt.Sprintf("%03d", i),
			Loop:           "Mock Loop",
			SiteType:       "STANDARD NONELECTRIC",
			AvailableDates: dates,
			Month:          month,
		})
	}
	return records, nil
}

func seedFor(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return h.Sum64()
}
