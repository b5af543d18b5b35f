package storage

import "leadfinder/models"

// LeadStore is the interface any durable lead backend must satisfy.
// Upsert is keyed on (business_name, city): an existing row is replaced,
// never duplicated, and operator-owned columns survive the replacement.
type LeadStore interface {
	Upsert(lead *models.LeadRecord) error
	List(limit int) ([]*models.LeadRecord, error)
	Clear() error
	UpdateOutreach(businessName, city string, called bool, status models.DealStatus, notes string) error
	Close() error
}

// LeadExporter is the interface for spreadsheet-style hand-off formats.
type LeadExporter interface {
	Export(leads []*models.LeadRecord) error
	Close() error
}
