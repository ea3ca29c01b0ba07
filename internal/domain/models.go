package domain

import (
	"context"
	"time"
)

// AvailabilityRecord is one site's open nights for a campground/month pair.
type AvailabilityRecord struct {
	CampgroundID   string   `json:"campground_id"`
	SiteID         string   `json:"site_id"`
	SiteName       string   `json:"site_name,omitempty"`
	Loop           string   `json:"loop,omitempty"`
	SiteType       string   `json:"site_type,omitempty"`
	AvailableDates []string `json:"available_dates"`
	Month          string   `json:"month"`
}

// DisplayName prefers the human site name over the upstream id.
func (r AvailabilityRecord) DisplayName() string {
	if r.SiteName != "" {
		return r.SiteName
	}
	return r.SiteID
}

// MatchedSite is a record whose dates contain a qualifying run.
type MatchedSite struct {
	AvailabilityRecord
	MatchedRun []string `json:"matched_run"`
}

// Trigger tells the orchestrator who asked for a poll.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// PollConfig is set once at startup and shared read-only afterwards.
type PollConfig struct {
	CampgroundIDs []string
	Months        []string
	MinNights     int
	StartDates    []string
	Interval      time.Duration
	NotifyPartial bool
}

// Requests is the number of upstream fetches one poll issues.
func (c PollConfig) Requests() int {
	return len(c.CampgroundIDs) * len(c.Months)
}

// Collector fetches one campground/month of availability.
type Collector interface {
	FetchMonth(ctx context.Context, campgroundID, month string) ([]AvailabilityRecord, error)
}

// Notifier delivers messages to a chat destination. Delivery failures are
// logged by the implementation and never returned.
type Notifier interface {
	NotifyMatches(ctx context.Context, sites []MatchedSite, destination string)
	NotifyText(ctx context.Context, message, destination string)
}

// CycleOutcome summarizes how a poll cycle ended.
type CycleOutcome string

const (
	OutcomeFailed  CycleOutcome = "failed"
	OutcomeEmpty   CycleOutcome = "nothing available"
	OutcomePartial CycleOutcome = "partial match"
	OutcomeMatched CycleOutcome = "matched"
)

// CycleResult is what one poll cycle saw. It lives in memory only.
type CycleResult struct {
	ID         string               `json:"id"`
	Label      string               `json:"label"`
	Trigger    Trigger              `json:"trigger"`
	FinishedAt time.Time            `json:"finished_at"`
	Outcome    CycleOutcome         `json:"outcome"`
	Records    []AvailabilityRecord `json:"records,omitempty"`
	Matches    []MatchedSite        `json:"matches,omitempty"`
	Err        string               `json:"error,omitempty"`
}

// AvailableNights is the total number of open nights across all records.
func (r CycleResult) AvailableNights() int {
	total := 0
	for _, rec := range r.Records {
		total += len(rec.AvailableDates)
	}
	return total
}
