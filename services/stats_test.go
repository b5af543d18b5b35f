package services

import (
	"testing"

	"leadfinder/models"
	"leadfinder/utils"
)

func ratingOf(v float64) *float64 { return &v }

func sampleLeads() []*models.LeadRecord {
	return []*models.LeadRecord{
		{BusinessName: "A Plumbing", City: "Toronto", Phone: "(416) 555-0001", HasWebsite: true, Rating: ratingOf(4.8), DealStatus: models.DealContacted},
		{BusinessName: "B Plumbing", City: "Toronto", Phone: "", HasWebsite: false, Rating: ratingOf(4.2), DealStatus: models.DealNotContacted},
		{BusinessName: "C Plumbing", City: "Mississauga", Phone: "(905) 555-0002", HasWebsite: true, Rating: nil, DealStatus: models.DealWon},
		{BusinessName: "D Plumbing", City: "Toronto", Phone: "", HasWebsite: false, Rating: nil, DealStatus: models.DealNotContacted},
	}
}

func TestStatsCounts(t *testing.T) {
	svc := NewStatsService(utils.NewLogger())
	r := svc.Compute(sampleLeads())

	if r.TotalLeads != 4 {
		t.Errorf("TotalLeads: got %d, want 4", r.TotalLeads)
	}
	if r.WithWebsite != 2 {
		t.Errorf("WithWebsite: got %d, want 2", r.WithWebsite)
	}
	if r.WithPhone != 2 {
		t.Errorf("WithPhone: got %d, want 2", r.WithPhone)
	}
}

func TestStatsAverageRatingSkipsUnrated(t *testing.T) {
	svc := NewStatsService(utils.NewLogger())
	r := svc.Compute(sampleLeads())

	want := 4.5 // (4.8 + 4.2) / 2, unrated leads excluded
	if r.AverageRating != want {
		t.Errorf("AverageRating: got %.2f, want %.2f", r.AverageRating, want)
	}
}

func TestStatsGrouping(t *testing.T) {
	svc := NewStatsService(utils.NewLogger())
	r := svc.Compute(sampleLeads())

	if r.LeadsByCity["Toronto"] != 3 {
		t.Errorf("Toronto count: got %d, want 3", r.LeadsByCity["Toronto"])
	}
	if r.LeadsByCity["Mississauga"] != 1 {
		t.Errorf("Mississauga count: got %d, want 1", r.LeadsByCity["Mississauga"])
	}
	if r.LeadsByStatus[models.DealNotContacted] != 2 {
		t.Errorf("not_contacted count: got %d, want 2", r.LeadsByStatus[models.DealNotContacted])
	}
	if r.LeadsByStatus[models.DealWon] != 1 {
		t.Errorf("won count: got %d, want 1", r.LeadsByStatus[models.DealWon])
	}
}

func TestStatsEmptyInput(t *testing.T) {
	svc := NewStatsService(utils.NewLogger())
	r := svc.Compute(nil)
	if r.TotalLeads != 0 || r.AverageRating != 0 {
		t.Errorf("expected zeroed stats for empty input, got %+v", r)
	}
}
