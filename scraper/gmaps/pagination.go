package gmaps

import (
	"strings"
	"time"

	"leadfinder/utils"
)

const searchBaseURL = "https://www.google.com/maps/search/"

// SearchURL builds the maps search URL for a query string.
func SearchURL(query string) string {
	return searchBaseURL + strings.ReplaceAll(strings.TrimSpace(query), " ", "+")
}

// Pager drives incremental disclosure of result cards for one query
// against one session. The results panel loads more cards as it scrolls
// and has no end-of-results signal, so height stability over a fixed
// number of attempts is the termination oracle.
type Pager struct {
	logger         *utils.Logger
	resultsTimeout time.Duration
	scrollDelay    time.Duration
	stableLimit    int
}

func NewPager(logger *utils.Logger, resultsTimeout, scrollDelay time.Duration, stableLimit int) *Pager {
	return &Pager{
		logger:         logger,
		resultsTimeout: resultsTimeout,
		scrollDelay:    scrollDelay,
		stableLimit:    stableLimit,
	}
}

// Collect navigates to the query's search page and hands each newly
// revealed card index to fn exactly once. fn returns false to stop early
// (quota reached). Returns the number of indices handed out.
//
// A results timeout is an expected outcome — empty pages are common — and
// yields zero results rather than an error. Failures inside the scroll
// loop are logged and skipped so partial progress is preserved.
func (p *Pager) Collect(sess Session, query string, fn func(idx int) bool) int {
	url := SearchURL(query)
	p.logger.Info("[pager] Searching: %s", url)

	if err := sess.Navigate(url); err != nil {
		p.logger.Warn("[pager] Navigation failed for %q: %v", query, err)
		return 0
	}

	if err := sess.WaitVisible(resultCardSel, p.resultsTimeout); err != nil {
		p.logger.Warn("[pager] No results for %q: %v", query, err)
		return 0
	}

	handed := 0
	seen := 0
	stable := 0
	lastHeight := -1

	for stable < p.stableLimit {
		count, err := sess.Count(resultCardSel)
		if err != nil {
			p.logger.Warn("[pager] Reading result cards failed: %v", err)
			stable++
			continue
		}

		for idx := seen; idx < count; idx++ {
			handed++
			if !fn(idx) {
				return handed
			}
		}
		if count > seen {
			seen = count
		}

		if err := sess.ScrollToBottom(resultsFeedSel); err != nil {
			p.logger.Debug("[pager] Scroll failed: %v", err)
		}
		time.Sleep(p.scrollDelay)

		height, err := sess.PageHeight(resultsFeedSel)
		if err != nil || height == lastHeight {
			stable++
			continue
		}
		stable = 0
		lastHeight = height
	}

	p.logger.Debug("[pager] Exhausted %q after %d cards", query, seen)
	return handed
}
