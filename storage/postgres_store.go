package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"leadfinder/models"
)

// PostgresStore is the alternative lead backend for deployments that
// already run PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs schema migrations, and
// returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS leads (
			id             SERIAL PRIMARY KEY,
			business_name  TEXT NOT NULL,
			phone          TEXT NOT NULL DEFAULT '',
			has_website    BOOLEAN NOT NULL DEFAULT FALSE,
			website_url    TEXT NOT NULL DEFAULT '',
			maps_url       TEXT NOT NULL DEFAULT '',
			business_hours TEXT NOT NULL DEFAULT 'Hours not available',
			rating         NUMERIC(3,1),
			review_count   INTEGER NOT NULL DEFAULT 0,
			contact_email  TEXT NOT NULL DEFAULT '',
			called         BOOLEAN NOT NULL DEFAULT FALSE,
			deal_status    VARCHAR(20) NOT NULL DEFAULT 'not_contacted',
			notes          TEXT NOT NULL DEFAULT '',
			city           TEXT NOT NULL,
			collected_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(business_name, city)
		);

		CREATE INDEX IF NOT EXISTS idx_leads_city      ON leads(city);
		CREATE INDEX IF NOT EXISTS idx_leads_status    ON leads(deal_status);
		CREATE INDEX IF NOT EXISTS idx_leads_collected ON leads(collected_at);
	`)
	return err
}

// Upsert inserts or replaces the row matching (business_name, city).
// Operator-owned columns are preserved on conflict; an empty
// contact_email never clobbers a previously enriched one.
func (s *PostgresStore) Upsert(l *models.LeadRecord) error {
	if l.CollectedAt.IsZero() {
		l.CollectedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO leads (
			business_name, phone, has_website, website_url, maps_url,
			business_hours, rating, review_count, contact_email, city, collected_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (business_name, city) DO UPDATE SET
			phone          = EXCLUDED.phone,
			has_website    = EXCLUDED.has_website,
			website_url    = EXCLUDED.website_url,
			maps_url       = EXCLUDED.maps_url,
			business_hours = EXCLUDED.business_hours,
			rating         = EXCLUDED.rating,
			review_count   = EXCLUDED.review_count,
			contact_email  = CASE WHEN EXCLUDED.contact_email = ''
			                 THEN leads.contact_email ELSE EXCLUDED.contact_email END,
			collected_at   = EXCLUDED.collected_at
	`,
		l.BusinessName, l.Phone, l.HasWebsite, l.WebsiteURL, l.MapsURL,
		l.BusinessHours, ratingArg(l.Rating), l.ReviewCount, l.ContactEmail,
		l.City, l.CollectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert %q/%q: %w", l.BusinessName, l.City, err)
	}
	return nil
}

// List returns the limit most recently collected leads, most recent first.
func (s *PostgresStore) List(limit int) ([]*models.LeadRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, business_name, phone, has_website, website_url, maps_url,
		       business_hours, rating, review_count, contact_email,
		       called, deal_status, notes, city, collected_at
		FROM leads
		ORDER BY collected_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	var leads []*models.LeadRecord
	for rows.Next() {
		l := &models.LeadRecord{}
		var rating sql.NullFloat64
		var status string
		if err := rows.Scan(
			&l.ID, &l.BusinessName, &l.Phone, &l.HasWebsite, &l.WebsiteURL, &l.MapsURL,
			&l.BusinessHours, &rating, &l.ReviewCount, &l.ContactEmail,
			&l.Called, &status, &l.Notes, &l.City, &l.CollectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			l.Rating = &v
		}
		l.DealStatus = models.DealStatus(status)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// Clear removes all leads unconditionally.
func (s *PostgresStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM leads"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// UpdateOutreach sets the operator-owned workflow fields for one lead.
func (s *PostgresStore) UpdateOutreach(businessName, city string, called bool, status models.DealStatus, notes string) error {
	res, err := s.db.Exec(`
		UPDATE leads SET called = $1, deal_status = $2, notes = $3
		WHERE business_name = $4 AND city = $5
	`, called, string(status), notes, businessName, city)
	if err != nil {
		return fmt.Errorf("postgres: update outreach: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("postgres: no lead found for %q in %q", businessName, city)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
