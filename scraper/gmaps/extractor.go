package gmaps

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"leadfinder/models"
	"leadfinder/utils"
)

var (
	// phoneRegexp matches a North-American 10-digit number with optional
	// parenthesized area code and separators.
	phoneRegexp = regexp.MustCompile(`\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	// reviewCountRegexp captures the first parenthesized integer of a
	// review label, e.g. "(1,204)".
	reviewCountRegexp = regexp.MustCompile(`\(([\d,]+)\)`)
)

// Extractor turns one result card into a LeadRecord. Every field read is
// independently fault-tolerant: only a missing business name discards the
// record.
type Extractor struct {
	logger      *utils.Logger
	settleDelay time.Duration
}

func NewExtractor(logger *utils.Logger, settleDelay time.Duration) *Extractor {
	return &Extractor{logger: logger, settleDelay: settleDelay}
}

// Extract reads the card at idx. city is the search location the lead is
// recorded under, which may be a nearby-city variant rather than the
// job's own city.
func (e *Extractor) Extract(sess Session, idx int, city string) (*models.LeadRecord, error) {
	name, err := sess.Text(resultCardSel, idx, nameSel)
	if err != nil {
		return nil, fmt.Errorf("listing %d: name unreadable: %w", idx, err)
	}
	name = normalizeText(name)
	if name == "" {
		return nil, fmt.Errorf("listing %d: empty name", idx)
	}

	lead := &models.LeadRecord{
		BusinessName:  name,
		City:          city,
		BusinessHours: models.DefaultHours,
		DealStatus:    models.DealNotContacted,
	}

	// Rating and review count sit on the summary card.
	if txt, err := sess.Text(resultCardSel, idx, ratingSel); err == nil {
		lead.Rating = parseRating(txt)
	}
	if txt, err := sess.Text(resultCardSel, idx, reviewsSel); err == nil {
		lead.ReviewCount = parseReviewCount(txt)
	}

	// Phone, website and hours only render after the detail panel opens.
	if err := sess.Click(resultCardSel, idx, ""); err != nil {
		e.logger.Debug("[extract] %s: activate failed: %v", name, err)
	} else {
		time.Sleep(e.settleDelay)
	}

	if href, err := sess.Attr(resultCardSel, idx, websiteSel, "href"); err == nil && href != "" {
		lead.HasWebsite = true
		lead.WebsiteURL = href
	}

	if labels, err := sess.Labels(resultCardSel, idx, phoneSel); err == nil {
		lead.Phone = firstPhone(labels)
	}

	lead.BusinessHours = e.readHours(sess)

	if url, err := sess.CurrentURL(); err == nil {
		lead.MapsURL = url
	}

	return lead, nil
}

// readHours expands the hours disclosure in the detail panel and joins
// the table rows. Any failure keeps the default placeholder.
func (e *Extractor) readHours(sess Session) string {
	if err := sess.Click(hoursToggleSel, 0, ""); err != nil {
		return models.DefaultHours
	}

	rows, err := sess.Texts("body", 0, hoursRowSel)
	if err != nil || len(rows) == 0 {
		return models.DefaultHours
	}

	var lines []string
	for _, row := range rows {
		if row = normalizeText(row); row != "" {
			lines = append(lines, row)
		}
	}
	if len(lines) == 0 {
		return models.DefaultHours
	}
	return strings.Join(lines, "\n")
}

// firstPhone scans the labels in order and returns the first match
// reformatted to the canonical (NNN) NNN-NNNN form; no match yields "".
func firstPhone(labels []string) string {
	for _, label := range labels {
		if m := phoneRegexp.FindStringSubmatch(label); m != nil {
			return fmt.Sprintf("(%s) %s-%s", m[1], m[2], m[3])
		}
	}
	return ""
}

// parseRating parses a 0.0–5.0 decimal; anything unparsable or out of
// range is nil, never an error. Rating is a scale value, so "missing"
// stays distinguishable from 0.
func parseRating(raw string) *float64 {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || val < 0 || val > 5 {
		return nil
	}
	return &val
}

// parseReviewCount extracts the first parenthesized integer; missing
// means 0 — review count is a cardinality, not a scale.
func parseReviewCount(raw string) int {
	m := reviewCountRegexp.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// normalizeText strips leading/trailing whitespace and collapses internal
// whitespace runs.
func normalizeText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
