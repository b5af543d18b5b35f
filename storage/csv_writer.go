package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"leadfinder/models"
)

// CSVWriter exports harvested leads to a CSV file for spreadsheet hand-off.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"business_name", "phone", "has_website", "website_url", "maps_url",
		"business_hours", "rating", "review_count", "contact_email",
		"called", "deal_status", "notes", "city", "collected_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Export appends the given leads as CSV rows.
func (c *CSVWriter) Export(leads []*models.LeadRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range leads {
		rating := ""
		if l.Rating != nil {
			rating = strconv.FormatFloat(*l.Rating, 'f', 1, 64)
		}
		row := []string{
			l.BusinessName,
			l.Phone,
			strconv.FormatBool(l.HasWebsite),
			l.WebsiteURL,
			l.MapsURL,
			l.BusinessHours,
			rating,
			strconv.Itoa(l.ReviewCount),
			l.ContactEmail,
			strconv.FormatBool(l.Called),
			string(l.DealStatus),
			l.Notes,
			l.City,
			l.CollectedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
