package services

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"leadfinder/models"
	"leadfinder/utils"
)

const maxEnrichBodyBytes = 2 * 1024 * 1024

var emailRegexp = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

// Enricher visits lead websites and pulls out a contact email address.
// Failures leave the lead untouched — enrichment is strictly best-effort.
type Enricher struct {
	logger *utils.Logger
	client *http.Client
	pool   *utils.WorkerPool
}

// NewEnricher creates an Enricher with a bounded HTTP client and a
// rate-limited worker pool.
func NewEnricher(logger *utils.Logger, timeout time.Duration, concurrency, rateLimitMs int) *Enricher {
	return &Enricher{
		logger: logger,
		client: &http.Client{Timeout: timeout},
		pool:   utils.NewWorkerPool(concurrency, rateLimitMs),
	}
}

// EnrichAll fills ContactEmail for every lead that has a website and no
// email yet. Leads are updated in place; the call returns once all
// lookups have finished.
func (e *Enricher) EnrichAll(leads []*models.LeadRecord) {
	for _, lead := range leads {
		l := lead
		if !l.HasWebsite || l.WebsiteURL == "" || l.ContactEmail != "" {
			continue
		}

		e.pool.Submit(func() {
			email, err := e.lookupEmail(l.WebsiteURL)
			if err != nil {
				e.logger.Debug("[enrich] %s: %v", l.BusinessName, err)
				return
			}
			if email != "" {
				l.ContactEmail = email
				e.logger.Info("[enrich] %s → %s", l.BusinessName, email)
			}
		})
	}
	e.pool.Wait()
}

func (e *Enricher) lookupEmail(siteURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, siteURL, nil)
	if err != nil {
		return "", fmt.Errorf("enrich: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrich: fetch %s: %w", siteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("enrich: fetch %s: status %d", siteURL, resp.StatusCode)
	}

	return extractEmail(io.LimitReader(resp.Body, maxEnrichBodyBytes))
}

// extractEmail parses HTML and returns the first plausible contact email:
// mailto: anchors win, then a text scan of the whole document.
func extractEmail(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("enrich: parse html: %w", err)
	}

	var email string
	doc.Find("a[href^='mailto:']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if emailRegexp.MatchString(addr) {
			email = strings.ToLower(addr)
			return false
		}
		return true
	})
	if email != "" {
		return email, nil
	}

	for _, match := range emailRegexp.FindAllString(doc.Text(), -1) {
		if plausibleEmail(match) {
			return strings.ToLower(match), nil
		}
	}
	return "", nil
}

// plausibleEmail filters out asset filenames that happen to match the
// email pattern (logo@2x.png and friends).
func plausibleEmail(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}
