package collector

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/campsite-watcher/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public recreation.gov API root.
const DefaultBaseURL = "https://www.recreation.gov"

// availableStatus is the only per-day status that counts as open.
const availableStatus = "Available"

// RecGovClient reads the public campground month endpoint.
type RecGovClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

type monthResponse struct {
	Campsites map[string]struct {
		Site           string            `json:"site"`
		Loop           string            `json:"loop"`
		CampsiteType   string            `json:"campsite_type"`
		Availabilities map[string]string `json:"availabilities"`
	} `json:"campsites"`
}

func NewRecGovClient(baseURL string) *RecGovClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RecGovClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		// Bursts cover a typical campground x month fan-out, then ~4 req/s.
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 8),
		baseURL: baseURL,
	}
}

// MonthURL builds the availability URL for the first day of month.
func (c *RecGovClient) MonthURL(campgroundID, month string) string {
	start := month + "-01T00:00:00.000Z"
	return fmt.Sprintf("%s/api/camps/availability/campground/%s/month?start_date=%s",
		c.baseURL, url.PathEscape(campgroundID), url.QueryEscape(start))
}

func (c *RecGovClient) FetchMonth(ctx context.Context, campgroundID, month string) ([]domain.AvailabilityRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Campground: campgroundID, Month: month, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.MonthURL(campgroundID, month), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s/%s: %w", campgroundID, month, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Campground: campgroundID, Month: month, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Campground: campgroundID, Month: month, StatusCode: resp.StatusCode}
	}

	var mr monthResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, &TransportError{Campground: campgroundID, Month: month, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return mr.records(campgroundID, month), nil
}

// records keeps sites with at least one "Available" day, dates truncated
// to YYYY-MM-DD, sorted and unique. Sites are ordered by id.
func (mr monthResponse) records(campgroundID, month string) []domain.AvailabilityRecord {
	if mr.Campsites == nil {
		return nil
	}

	ids := make([]string, 0, len(mr.Campsites))
	for id := range mr.Campsites {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareSiteIDs)

	var result []domain.AvailabilityRecord
	for _, id := range ids {
		site := mr.Campsites[id]
		var dates []string
		for day, status := range site.Availabilities {
			if status != availableStatus {
				continue
			}
			if len(day) > 10 {
				day = day[:10]
			}
			dates = append(dates, day)
		}
		if len(dates) == 0 {
			continue
		}
		sort.Strings(dates)
		result = append(result, domain.AvailabilityRecord{
			CampgroundID:   campgroundID,
			SiteID:         id,
			SiteName:       site.Site,
			Loop:           site.Loop,
			SiteType:       site.CampsiteType,
			AvailableDates: slices.Compact(dates),
			Month:          month,
		})
	}
	return result
}

// compareSiteIDs orders integer ids by value ahead of any other ids, which
// compare lexically. "0100" is not an integer id.
func compareSiteIDs(a, b string) int {
	an, aok := siteNumber(a)
	bn, bok := siteNumber(b)
	switch {
	case aok && bok:
		return cmp.Compare(an, bn)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

func siteNumber(id string) (uint64, bool) {
	if id == "" || (len(id) > 1 && id[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 10, 64)
	return n, err == nil
}
