package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidJob is returned when a SearchJob is missing required fields
// or asks for a non-positive number of leads.
var ErrInvalidJob = errors.New("invalid search job: niche, city and region are required and target_count must be positive")

// DealStatus tracks where a lead sits in the outreach workflow.
// These values are operator-owned and never produced by scraping.
type DealStatus string

const (
	DealNotContacted DealStatus = "not_contacted"
	DealContacted    DealStatus = "contacted"
	DealWon          DealStatus = "won"
	DealLost         DealStatus = "lost"
)

// ValidDealStatus reports whether s is one of the known workflow states.
func ValidDealStatus(s DealStatus) bool {
	switch s {
	case DealNotContacted, DealContacted, DealWon, DealLost:
		return true
	}
	return false
}

// SearchJob describes one harvest request. Immutable for the duration
// of a run.
type SearchJob struct {
	Niche       string `json:"niche"`
	City        string `json:"city"`
	Region      string `json:"region"`
	TargetCount int    `json:"target_count"`
}

// Validate checks the required fields. Every entry point into the
// pipeline calls this before doing any work.
func (j SearchJob) Validate() error {
	if strings.TrimSpace(j.Niche) == "" ||
		strings.TrimSpace(j.City) == "" ||
		strings.TrimSpace(j.Region) == "" ||
		j.TargetCount <= 0 {
		return ErrInvalidJob
	}
	return nil
}

// DefaultHours is stored when a listing's opening hours cannot be read.
const DefaultHours = "Hours not available"

// LeadRecord is the unit of durable output. The pair (BusinessName, City)
// is the natural key; re-harvesting the same business replaces the scraped
// columns and preserves the operator-owned ones (Called, DealStatus, Notes).
type LeadRecord struct {
	ID            int64      `json:"id,omitempty"`
	BusinessName  string     `json:"business_name"`
	Phone         string     `json:"phone"`
	HasWebsite    bool       `json:"has_website"`
	WebsiteURL    string     `json:"website_url"`
	MapsURL       string     `json:"maps_url"`
	BusinessHours string     `json:"business_hours"`
	Rating        *float64   `json:"rating"`
	ReviewCount   int        `json:"review_count"`
	ContactEmail  string     `json:"contact_email"`
	Called        bool       `json:"called"`
	DealStatus    DealStatus `json:"deal_status"`
	Notes         string     `json:"notes"`
	City          string     `json:"city"`
	CollectedAt   time.Time  `json:"collected_at"`
}

// Key returns the dedup key for the (business_name, city) pair.
func (l *LeadRecord) Key() string {
	return strings.ToLower(strings.TrimSpace(l.BusinessName)) + "|" +
		strings.ToLower(strings.TrimSpace(l.City))
}

// LeadStats holds the computed summary over a set of leads.
type LeadStats struct {
	TotalLeads    int                `json:"total_leads"`
	WithWebsite   int                `json:"with_website"`
	WithPhone     int                `json:"with_phone"`
	AverageRating float64            `json:"average_rating"`
	LeadsByCity   map[string]int     `json:"leads_by_city"`
	LeadsByStatus map[DealStatus]int `json:"leads_by_status"`
}
