package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"leadfinder/models"
)

// timeLayout is fixed-width so collected_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is the default lead backend, a single-file database with
// WAL enabled for write throughput.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path, applies the
// pragmas and schema, and returns a ready-to-use store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("sqlite: setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS leads (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			business_name  TEXT NOT NULL,
			phone          TEXT NOT NULL DEFAULT '',
			has_website    INTEGER NOT NULL DEFAULT 0,
			website_url    TEXT NOT NULL DEFAULT '',
			maps_url       TEXT NOT NULL DEFAULT '',
			business_hours TEXT NOT NULL DEFAULT 'Hours not available',
			rating         REAL,
			review_count   INTEGER NOT NULL DEFAULT 0,
			contact_email  TEXT NOT NULL DEFAULT '',
			called         INTEGER NOT NULL DEFAULT 0,
			deal_status    TEXT NOT NULL DEFAULT 'not_contacted',
			notes          TEXT NOT NULL DEFAULT '',
			city           TEXT NOT NULL,
			collected_at   TEXT NOT NULL,
			UNIQUE(business_name, city)
		);
		CREATE INDEX IF NOT EXISTS idx_leads_city      ON leads(city);
		CREATE INDEX IF NOT EXISTS idx_leads_status    ON leads(deal_status);
		CREATE INDEX IF NOT EXISTS idx_leads_collected ON leads(collected_at);
	`)
	return err
}

// Upsert inserts or replaces the row matching (business_name, city) in a
// single atomic statement. Scraped columns are overwritten; called,
// deal_status and notes are operator-owned and preserved on conflict.
// An empty contact_email never clobbers a previously enriched one.
func (s *SQLiteStore) Upsert(l *models.LeadRecord) error {
	if l.CollectedAt.IsZero() {
		l.CollectedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO leads (
			business_name, phone, has_website, website_url, maps_url,
			business_hours, rating, review_count, contact_email, city, collected_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(business_name, city) DO UPDATE SET
			phone          = excluded.phone,
			has_website    = excluded.has_website,
			website_url    = excluded.website_url,
			maps_url       = excluded.maps_url,
			business_hours = excluded.business_hours,
			rating         = excluded.rating,
			review_count   = excluded.review_count,
			contact_email  = CASE WHEN excluded.contact_email = ''
			                 THEN leads.contact_email ELSE excluded.contact_email END,
			collected_at   = excluded.collected_at
	`,
		l.BusinessName, l.Phone, boolToInt(l.HasWebsite), l.WebsiteURL, l.MapsURL,
		l.BusinessHours, ratingArg(l.Rating), l.ReviewCount, l.ContactEmail,
		l.City, l.CollectedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert %q/%q: %w", l.BusinessName, l.City, err)
	}
	return nil
}

// List returns the limit most recently collected leads, most recent first.
func (s *SQLiteStore) List(limit int) ([]*models.LeadRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, business_name, phone, has_website, website_url, maps_url,
		       business_hours, rating, review_count, contact_email,
		       called, deal_status, notes, city, collected_at
		FROM leads
		ORDER BY collected_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// Clear removes all leads unconditionally.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM leads"); err != nil {
		return fmt.Errorf("sqlite: clear: %w", err)
	}
	return nil
}

// UpdateOutreach sets the operator-owned workflow fields for one lead.
func (s *SQLiteStore) UpdateOutreach(businessName, city string, called bool, status models.DealStatus, notes string) error {
	res, err := s.db.Exec(`
		UPDATE leads SET called = ?, deal_status = ?, notes = ?
		WHERE business_name = ? AND city = ?
	`, boolToInt(called), string(status), notes, businessName, city)
	if err != nil {
		return fmt.Errorf("sqlite: update outreach: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sqlite: no lead found for %q in %q", businessName, city)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanLeads(rows *sql.Rows) ([]*models.LeadRecord, error) {
	var leads []*models.LeadRecord
	for rows.Next() {
		l := &models.LeadRecord{}
		var rating sql.NullFloat64
		var hasWebsite, called int
		var status, collected string
		if err := rows.Scan(
			&l.ID, &l.BusinessName, &l.Phone, &hasWebsite, &l.WebsiteURL, &l.MapsURL,
			&l.BusinessHours, &rating, &l.ReviewCount, &l.ContactEmail,
			&called, &status, &l.Notes, &l.City, &collected,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			l.Rating = &v
		}
		l.HasWebsite = hasWebsite != 0
		l.Called = called != 0
		l.DealStatus = models.DealStatus(status)
		if ts, err := time.Parse(timeLayout, collected); err == nil {
			l.CollectedAt = ts
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func ratingArg(r *float64) interface{} {
	if r == nil {
		return nil
	}
	return *r
}
