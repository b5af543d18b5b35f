package gmaps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"leadfinder/config"
	"leadfinder/utils"
)

// ErrSessionUnavailable is returned when a browser session cannot be
// acquired within the retry budget. Fatal to one location's harvest,
// never to the whole job.
var ErrSessionUnavailable = errors.New("browser session unavailable")

// ErrElementMissing is returned by session reads when the requested
// element is not present in the page.
var ErrElementMissing = errors.New("element not found")

const (
	opTimeout       = 10 * time.Second
	navigateTimeout = 30 * time.Second
)

var _ Session = (*chromeSession)(nil)

// Session is the minimal page-session capability the pipeline needs.
// Element access is scoped: (selector, index) addresses one result card
// and childSel addresses an element inside it; childSel == "" means the
// card itself. Implementations are not safe for concurrent use.
type Session interface {
	Navigate(url string) error
	WaitVisible(selector string, timeout time.Duration) error
	Count(selector string) (int, error)
	Text(selector string, index int, childSel string) (string, error)
	Texts(selector string, index int, childSel string) ([]string, error)
	Labels(selector string, index int, childSel string) ([]string, error)
	Attr(selector string, index int, childSel, name string) (string, error)
	Click(selector string, index int, childSel string) error
	ScrollToBottom(selector string) error
	PageHeight(selector string) (int, error)
	CurrentURL() (string, error)
	Close()
}

// Manager acquires and releases Chrome-backed sessions against a shared
// exec allocator. The allocator options are environmental constraints
// (headless rendering, shared-memory workaround, fixed viewport, realistic
// user agent, automation flags off), not per-run decisions.
type Manager struct {
	cfg         *config.Config
	logger      *utils.Logger
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewManager builds the allocator once. Call Shutdown when done.
func NewManager(cfg *config.Config, logger *utils.Logger) *Manager {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		logger.Info("[session] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Manager{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
	}
}

// Acquire launches a fresh browser tab, retrying within the configured
// budget. On exhaustion it returns ErrSessionUnavailable.
func (m *Manager) Acquire() (Session, error) {
	var sess *chromeSession

	retry := &utils.RetryConfig{
		MaxAttempts: m.cfg.SessionRetries,
		BaseDelay:   time.Second,
		Logger:      m.logger,
	}
	err := retry.Do("acquire-session", func() error {
		ctx, cancel := chromedp.NewContext(m.allocCtx,
			chromedp.WithLogf(func(string, ...interface{}) {}))

		// An empty Run forces the browser process to start so launch
		// failures surface here instead of on the first navigation.
		if err := chromedp.Run(ctx); err != nil {
			cancel()
			return fmt.Errorf("launch browser: %w", err)
		}

		sess = &chromeSession{ctx: ctx, cancel: cancel}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	return sess, nil
}

// Release closes the session. Safe to call exactly once per Acquire.
func (m *Manager) Release(s Session) {
	if s != nil {
		s.Close()
	}
}

// WithSession runs fn against a freshly acquired session and guarantees
// the release on every exit path, including panics inside fn.
func (m *Manager) WithSession(fn func(Session) error) error {
	sess, err := m.Acquire()
	if err != nil {
		return err
	}
	defer m.Release(sess)
	return fn(sess)
}

// Shutdown tears down the shared allocator and any remaining browser
// processes.
func (m *Manager) Shutdown() {
	m.cancelAlloc()
}

// chromeSession implements Session over a chromedp tab context. DOM access
// goes through Evaluate so element handles never outlive a mutation.
type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
}

type evalResult struct {
	Ok  bool   `json:"ok"`
	Val string `json:"val"`
}

func (s *chromeSession) eval(expr string, out interface{}) error {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Evaluate(expr, out))
}

// elementExpr builds the JS expression addressing one (selector, index)
// element, optionally narrowed to a child.
func elementExpr(sel string, idx int, childSel string) string {
	expr := fmt.Sprintf("document.querySelectorAll(%q)[%d]", sel, idx)
	if childSel != "" {
		expr = fmt.Sprintf("(%s ? %s.querySelector(%q) : null)", expr, expr, childSel)
	}
	return expr
}

func (s *chromeSession) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, navigateTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) WaitVisible(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (s *chromeSession) Count(selector string) (int, error) {
	var n int
	expr := fmt.Sprintf("document.querySelectorAll(%q).length", selector)
	if err := s.eval(expr, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *chromeSession) Text(selector string, idx int, childSel string) (string, error) {
	var res evalResult
	expr := fmt.Sprintf(`(function() {
		var el = %s;
		if (!el) return {ok: false, val: ''};
		return {ok: true, val: (el.textContent || '').trim()};
	})()`, elementExpr(selector, idx, childSel))
	if err := s.eval(expr, &res); err != nil {
		return "", err
	}
	if !res.Ok {
		return "", fmt.Errorf("%w: %s %s", ErrElementMissing, selector, childSel)
	}
	return res.Val, nil
}

func (s *chromeSession) Texts(selector string, idx int, childSel string) ([]string, error) {
	var out []string
	expr := fmt.Sprintf(`(function() {
		var root = document.querySelectorAll(%q)[%d];
		if (!root) return [];
		var out = [];
		root.querySelectorAll(%q).forEach(function(el) {
			out.push((el.textContent || '').trim());
		});
		return out;
	})()`, selector, idx, childSel)
	if err := s.eval(expr, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *chromeSession) Labels(selector string, idx int, childSel string) ([]string, error) {
	var out []string
	expr := fmt.Sprintf(`(function() {
		var root = document.querySelectorAll(%q)[%d];
		if (!root) return [];
		var out = [];
		root.querySelectorAll(%q).forEach(function(el) {
			out.push(el.getAttribute('aria-label') || (el.textContent || '').trim());
		});
		return out;
	})()`, selector, idx, childSel)
	if err := s.eval(expr, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *chromeSession) Attr(selector string, idx int, childSel, name string) (string, error) {
	var res evalResult
	expr := fmt.Sprintf(`(function() {
		var el = %s;
		if (!el) return {ok: false, val: ''};
		var name = %q;
		var val = (name === 'href' && el.href) ? el.href : el.getAttribute(name);
		return {ok: true, val: val || ''};
	})()`, elementExpr(selector, idx, childSel), name)
	if err := s.eval(expr, &res); err != nil {
		return "", err
	}
	if !res.Ok {
		return "", fmt.Errorf("%w: %s %s", ErrElementMissing, selector, childSel)
	}
	return res.Val, nil
}

func (s *chromeSession) Click(selector string, idx int, childSel string) error {
	var res evalResult
	expr := fmt.Sprintf(`(function() {
		var el = %s;
		if (!el) return {ok: false, val: ''};
		el.click();
		return {ok: true, val: ''};
	})()`, elementExpr(selector, idx, childSel))
	if err := s.eval(expr, &res); err != nil {
		return err
	}
	if !res.Ok {
		return fmt.Errorf("%w: %s %s", ErrElementMissing, selector, childSel)
	}
	return nil
}

func (s *chromeSession) ScrollToBottom(selector string) error {
	var ok bool
	expr := fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		if (el) { el.scrollTop = el.scrollHeight; return true; }
		window.scrollTo(0, document.body.scrollHeight);
		return true;
	})()`, selector)
	return s.eval(expr, &ok)
}

func (s *chromeSession) PageHeight(selector string) (int, error) {
	var h int
	expr := fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		return el ? el.scrollHeight : document.body.scrollHeight;
	})()`, selector)
	if err := s.eval(expr, &h); err != nil {
		return 0, err
	}
	return h, nil
}

func (s *chromeSession) CurrentURL() (string, error) {
	var url string
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (s *chromeSession) Close() {
	s.cancel()
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
