package gmaps

import (
	"errors"
	"fmt"
	"time"

	"leadfinder/models"
)

// fakeCard is one scripted result entry on the fake page.
type fakeCard struct {
	name    string
	rating  string
	reviews string
	website string
	phones  []string
}

// fakeSession is a scripted page session. Cards are revealed
// revealPerScroll at a time; height follows the heights script and then
// holds its last value, so constant-height scripts exercise the
// stability-counter termination.
type fakeSession struct {
	cards           []fakeCard
	visible         int
	revealPerScroll int
	heights         []int
	heightIdx       int
	hoursRows       []string
	failWait        bool
	url             string

	navigations []string
	nameReads   map[int]int
	closed      bool
}

func newFakeSession(cards []fakeCard) *fakeSession {
	return &fakeSession{
		cards:           cards,
		visible:         len(cards),
		revealPerScroll: len(cards),
		heights:         []int{1000},
		url:             "https://maps.example.com/current",
		nameReads:       make(map[int]int),
	}
}

func (f *fakeSession) Navigate(url string) error {
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeSession) WaitVisible(selector string, timeout time.Duration) error {
	if f.failWait {
		return fmt.Errorf("wait for %q: timeout", selector)
	}
	return nil
}

func (f *fakeSession) Count(selector string) (int, error) {
	return f.visible, nil
}

func (f *fakeSession) card(idx int) (*fakeCard, error) {
	if idx < 0 || idx >= len(f.cards) {
		return nil, fmt.Errorf("%w: card %d", ErrElementMissing, idx)
	}
	return &f.cards[idx], nil
}

func (f *fakeSession) Text(selector string, idx int, childSel string) (string, error) {
	c, err := f.card(idx)
	if err != nil {
		return "", err
	}
	switch childSel {
	case nameSel:
		f.nameReads[idx]++
		if c.name == "" {
			return "", fmt.Errorf("%w: %s", ErrElementMissing, nameSel)
		}
		return c.name, nil
	case ratingSel:
		if c.rating == "" {
			return "", fmt.Errorf("%w: %s", ErrElementMissing, ratingSel)
		}
		return c.rating, nil
	case reviewsSel:
		if c.reviews == "" {
			return "", fmt.Errorf("%w: %s", ErrElementMissing, reviewsSel)
		}
		return c.reviews, nil
	}
	return "", fmt.Errorf("%w: %s", ErrElementMissing, childSel)
}

func (f *fakeSession) Texts(selector string, idx int, childSel string) ([]string, error) {
	if childSel == hoursRowSel {
		return f.hoursRows, nil
	}
	return nil, nil
}

func (f *fakeSession) Labels(selector string, idx int, childSel string) ([]string, error) {
	c, err := f.card(idx)
	if err != nil {
		return nil, err
	}
	if childSel == phoneSel {
		return c.phones, nil
	}
	return nil, nil
}

func (f *fakeSession) Attr(selector string, idx int, childSel, name string) (string, error) {
	c, err := f.card(idx)
	if err != nil {
		return "", err
	}
	if childSel == websiteSel {
		if c.website == "" {
			return "", fmt.Errorf("%w: %s", ErrElementMissing, websiteSel)
		}
		return c.website, nil
	}
	return "", fmt.Errorf("%w: %s", ErrElementMissing, childSel)
}

func (f *fakeSession) Click(selector string, idx int, childSel string) error {
	if selector == hoursToggleSel && len(f.hoursRows) == 0 {
		return fmt.Errorf("%w: %s", ErrElementMissing, hoursToggleSel)
	}
	return nil
}

func (f *fakeSession) ScrollToBottom(selector string) error {
	f.visible += f.revealPerScroll
	if f.visible > len(f.cards) {
		f.visible = len(f.cards)
	}
	return nil
}

func (f *fakeSession) PageHeight(selector string) (int, error) {
	h := f.heights[f.heightIdx]
	if f.heightIdx < len(f.heights)-1 {
		f.heightIdx++
	}
	return h, nil
}

func (f *fakeSession) CurrentURL() (string, error) {
	return f.url, nil
}

func (f *fakeSession) Close() {
	f.closed = true
}

// fakeSource hands out one scripted outcome per WithSession call.
type fakeSource struct {
	sessions []*fakeSession
	errs     []error
	calls    int
}

func (s *fakeSource) WithSession(fn func(Session) error) error {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return s.errs[i]
	}
	if i >= len(s.sessions) {
		return ErrSessionUnavailable
	}
	sess := s.sessions[i]
	defer sess.Close()
	return fn(sess)
}

// memStore is an in-memory LeadStore for coordinator tests.
type memStore struct {
	rows    map[string]*models.LeadRecord
	order   []string
	upserts int
	failKey string
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.LeadRecord)}
}

func (m *memStore) Upsert(l *models.LeadRecord) error {
	m.upserts++
	if m.failKey != "" && l.Key() == m.failKey {
		return errors.New("disk full")
	}
	if _, exists := m.rows[l.Key()]; !exists {
		m.order = append(m.order, l.Key())
	}
	cp := *l
	m.rows[l.Key()] = &cp
	return nil
}

func (m *memStore) List(limit int) ([]*models.LeadRecord, error) {
	var out []*models.LeadRecord
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rows[m.order[i]])
	}
	return out, nil
}

func (m *memStore) Clear() error {
	m.rows = make(map[string]*models.LeadRecord)
	m.order = nil
	return nil
}

func (m *memStore) UpdateOutreach(name, city string, called bool, status models.DealStatus, notes string) error {
	key := (&models.LeadRecord{BusinessName: name, City: city}).Key()
	l, ok := m.rows[key]
	if !ok {
		return fmt.Errorf("no lead found for %q in %q", name, city)
	}
	l.Called = called
	l.DealStatus = status
	l.Notes = notes
	return nil
}

func (m *memStore) Close() error { return nil }
