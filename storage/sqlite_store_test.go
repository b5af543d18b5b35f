package storage

import (
	"path/filepath"
	"testing"
	"time"

	"leadfinder/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testLead(name, city string) *models.LeadRecord {
	r := 4.5
	return &models.LeadRecord{
		BusinessName:  name,
		Phone:         "(416) 555-0199",
		HasWebsite:    true,
		WebsiteURL:    "https://example.com",
		MapsURL:       "https://maps.example.com/x",
		BusinessHours: "Mon-Fri 9-5",
		Rating:        &r,
		ReviewCount:   12,
		DealStatus:    models.DealNotContacted,
		City:          city,
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)

	lead := testLead("Joe's Plumbing", "Toronto")
	for i := 0; i < 3; i++ {
		if err := s.Upsert(lead); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	leads, err := s.List(100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 row after repeated upserts, got %d", len(leads))
	}
}

func TestUpsertKeyUniqueness(t *testing.T) {
	s := newTestStore(t)

	// Same name in different cities are distinct leads.
	if err := s.Upsert(testLead("Joe's Plumbing", "Toronto")); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(testLead("Joe's Plumbing", "Mississauga")); err != nil {
		t.Fatal(err)
	}

	leads, err := s.List(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(leads))
	}

	seen := map[string]bool{}
	for _, l := range leads {
		if seen[l.Key()] {
			t.Errorf("duplicate key stored: %s", l.Key())
		}
		seen[l.Key()] = true
	}
}

func TestUpsertPreservesOperatorFields(t *testing.T) {
	s := newTestStore(t)

	lead := testLead("Joe's Plumbing", "Toronto")
	if err := s.Upsert(lead); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateOutreach("Joe's Plumbing", "Toronto", true, models.DealWon, "signed 2yr contract"); err != nil {
		t.Fatalf("update outreach: %v", err)
	}

	// Re-harvest the same business with fresh scraped data.
	again := testLead("Joe's Plumbing", "Toronto")
	again.Phone = "(416) 555-0300"
	again.CollectedAt = time.Now().Add(time.Minute)
	if err := s.Upsert(again); err != nil {
		t.Fatal(err)
	}

	leads, err := s.List(1)
	if err != nil {
		t.Fatal(err)
	}
	got := leads[0]

	if got.Phone != "(416) 555-0300" {
		t.Errorf("scraped field should update: phone = %q", got.Phone)
	}
	if !got.Called || got.DealStatus != models.DealWon || got.Notes != "signed 2yr contract" {
		t.Errorf("operator fields must survive re-harvest: called=%v status=%q notes=%q",
			got.Called, got.DealStatus, got.Notes)
	}
}

func TestUpsertKeepsEnrichedEmail(t *testing.T) {
	s := newTestStore(t)

	lead := testLead("Joe's Plumbing", "Toronto")
	lead.ContactEmail = "info@joesplumbing.ca"
	if err := s.Upsert(lead); err != nil {
		t.Fatal(err)
	}

	again := testLead("Joe's Plumbing", "Toronto")
	again.ContactEmail = ""
	if err := s.Upsert(again); err != nil {
		t.Fatal(err)
	}

	leads, _ := s.List(1)
	if leads[0].ContactEmail != "info@joesplumbing.ca" {
		t.Errorf("empty email should not clobber enriched one, got %q", leads[0].ContactEmail)
	}
}

func TestListOrderMostRecentFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	for i, name := range []string{"First", "Second", "Third"} {
		l := testLead(name, "Toronto")
		l.CollectedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.Upsert(l); err != nil {
			t.Fatal(err)
		}
	}

	leads, err := s.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 2 {
		t.Fatalf("limit not respected: got %d rows", len(leads))
	}
	if leads[0].BusinessName != "Third" || leads[1].BusinessName != "Second" {
		t.Errorf("wrong order: got %q, %q", leads[0].BusinessName, leads[1].BusinessName)
	}
}

func TestListRoundTripsFields(t *testing.T) {
	s := newTestStore(t)

	lead := testLead("Joe's Plumbing", "Toronto")
	if err := s.Upsert(lead); err != nil {
		t.Fatal(err)
	}

	leads, _ := s.List(1)
	got := leads[0]

	if got.BusinessName != lead.BusinessName || got.City != lead.City {
		t.Errorf("key mismatch: %q/%q", got.BusinessName, got.City)
	}
	if !got.HasWebsite || got.WebsiteURL != lead.WebsiteURL {
		t.Errorf("website fields lost: %v %q", got.HasWebsite, got.WebsiteURL)
	}
	if got.Rating == nil || *got.Rating != 4.5 {
		t.Errorf("rating lost: %v", got.Rating)
	}
	if got.ReviewCount != 12 {
		t.Errorf("review count: got %d", got.ReviewCount)
	}
	if got.CollectedAt.IsZero() {
		t.Error("collected_at not set")
	}
}

func TestNilRatingStoredAsNull(t *testing.T) {
	s := newTestStore(t)

	lead := testLead("No Ratings Yet", "Toronto")
	lead.Rating = nil
	if err := s.Upsert(lead); err != nil {
		t.Fatal(err)
	}

	leads, _ := s.List(1)
	if leads[0].Rating != nil {
		t.Errorf("expected nil rating, got %v", *leads[0].Rating)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"A", "B", "C"} {
		if err := s.Upsert(testLead(name, "Toronto")); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	leads, err := s.List(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 0 {
		t.Errorf("expected empty store after clear, got %d rows", len(leads))
	}
}

func TestUpdateOutreachUnknownLead(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateOutreach("Nobody", "Nowhere", true, models.DealContacted, "")
	if err == nil {
		t.Error("expected error for unknown lead")
	}
}
