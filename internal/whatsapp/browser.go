package whatsapp

import (
	"context"         // For cancellation and send timeouts
	"encoding/base64" // For the QR image
	"errors"          // For error inspection
	"fmt"             // For error wrapping
	"net/url"         // For chat links
	"os"              // For profiles and staged attachments
	"path/filepath"   // For profile paths
	"sync"            // For session state
	"time"            // For polling and timeouts

	"github.com/go-rod/rod"              // Browser automation
	"github.com/go-rod/rod/lib/launcher" // Chromium process management
	"github.com/go-rod/rod/lib/proto"    // DevTools protocol types
	"github.com/sirupsen/logrus"         // Logging library
)

const (
	webURL    = "https://web.whatsapp.com/"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	pollInterval = 2 * time.Second
	sendTimeout  = 45 * time.Second
)

// WhatsApp Web selectors. The page markup changes often, so every concern
// lists the variants seen in the wild.
var (
	selReady   = []string{"#pane-side", `div[data-testid="chat-list"]`}
	selQR      = []string{"div[data-ref] canvas", `canvas[aria-label*="QR"]`, `canvas[aria-label*="Scan"]`}
	selSend    = []string{`span[data-icon="send"]`, `button[aria-label="Send"]`, `div[role="button"][aria-label="Send"]`}
	selInvalid = []string{`div[data-animate-modal-popup="true"]`}
	selCompose = []string{`footer div[contenteditable="true"]`, `div[contenteditable="true"][data-tab="10"]`}
	selAttach  = []string{`span[data-icon="plus"]`, `span[data-icon="attach-menu-plus"]`, `div[title="Attach"]`, `button[title="Attach"]`}
	selImage   = []string{`input[type="file"][accept*="image"]`}
)

// BrowserConfig configures headless WhatsApp Web sessions.
type BrowserConfig struct {
	DataDir     string        // parent directory of per-tenant profiles
	Bin         string        // Chromium binary, auto-downloaded when empty
	PairTimeout time.Duration // how long to wait for a QR scan
	Headless    bool
}

// NewBrowserFactory returns a Factory launching one Chromium per tenant with
// a persistent profile, so a paired device survives restarts.
func NewBrowserFactory(cfg BrowserConfig) Factory {
	if cfg.PairTimeout <= 0 {
		cfg.PairTimeout = 3 * time.Minute
	}
	return func(tenantID uint) (Session, error) {
		dir := ProfileDir(cfg.DataDir, tenantID)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve profile dir: %w", err)
		}
		return &browserSession{cfg: cfg, profile: abs, tenantID: tenantID, snap: Snapshot{Status: StatusDisconnected}}, nil
	}
}

type browserSession struct {
	cfg      BrowserConfig
	profile  string
	tenantID uint

	mu       sync.RWMutex
	snap     Snapshot
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cancel   context.CancelFunc

	sendMu sync.Mutex // the single page handles one chat at a time
}

func (s *browserSession) set(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func (s *browserSession) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *browserSession) Start(ctx context.Context) error {
	s.set(Snapshot{Status: StatusInitializing})
	ctx, cancel := context.WithCancel(ctx)

	// Persistent profile keeps the pairing across restarts
	l := launcher.New().
		UserDataDir(s.profile).
		Headless(s.cfg.Headless).
		Set("disable-gpu").
		Set("no-first-run")
	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin) // Otherwise rod downloads a Chromium
	}
	controlURL, err := l.Launch()
	if err != nil {
		cancel()
		s.set(Snapshot{Status: StatusFailed, Error: err.Error()})
		return fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		cancel()
		l.Kill()
		s.set(Snapshot{Status: StatusFailed, Error: err.Error()})
		return fmt.Errorf("connect to chrome: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		cancel()
		_ = browser.Close()
		l.Kill()
		s.set(Snapshot{Status: StatusFailed, Error: err.Error()})
		return fmt.Errorf("create page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		logrus.WithField("tenant_id", s.tenantID).Warnf("failed to set user agent: %v", err)
	}
	if err := page.Navigate(webURL); err != nil {
		cancel()
		_ = browser.Close()
		l.Kill()
		s.set(Snapshot{Status: StatusFailed, Error: err.Error()})
		return fmt.Errorf("open whatsapp web: %w", err)
	}

	s.mu.Lock()
	s.launcher, s.browser, s.page, s.cancel = l, browser, page, cancel
	s.mu.Unlock()

	go s.watch(ctx, page) // Pairing continues in the background
	return nil
}

// watch polls the page until it is paired, the pairing window closes, or ctx ends.
func (s *browserSession) watch(ctx context.Context, page *rod.Page) {
	deadline := time.NewTimer(s.cfg.PairTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if _, ok := first(page, selReady); ok {
			s.set(Snapshot{Status: StatusReady})
			logrus.WithField("tenant_id", s.tenantID).Info("WhatsApp session paired")
			return
		}
		// Refresh the QR, WhatsApp rotates it every few seconds
		if el, ok := first(page, selQR); ok {
			if png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0); err == nil {
				s.set(Snapshot{Status: StatusQR, QR: base64.StdEncoding.EncodeToString(png)})
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			s.expire()
			logrus.WithField("tenant_id", s.tenantID).Warn("WhatsApp pairing timed out")
			return
		case <-ticker.C:
		}
	}
}

func (s *browserSession) readyPage(ctx context.Context) (*rod.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap.Status != StatusReady || s.page == nil {
		return nil, ErrNotReady
	}
	return s.page.Context(ctx), nil
}

// openChat navigates to the chat with phone and waits for the compose box.
func openChat(ctx context.Context, page *rod.Page, phone, text string) error {
	target := webURL + "send?phone=" + url.QueryEscape(phone)
	if text != "" {
		target += "&text=" + url.QueryEscape(text)
	}
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	want := selCompose
	if text != "" {
		want = selSend
	}
	_, err := waitAny(ctx, page, want, selInvalid)
	return err
}

func (s *browserSession) SendText(ctx context.Context, phone, text string) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	page, err := s.readyPage(ctx)
	if err != nil {
		return err
	}
	if err := openChat(ctx, page, phone, text); err != nil {
		return err
	}
	btn, err := waitAny(ctx, page, selSend, selInvalid)
	if err != nil {
		return err
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	return waitGone(ctx, page, selSend)
}

func (s *browserSession) SendImage(ctx context.Context, phone string, image []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	page, err := s.readyPage(ctx)
	if err != nil {
		return err
	}

	// The file input needs a path on disk
	tmp, err := os.CreateTemp("", "wa-attachment-*.png")
	if err != nil {
		return fmt.Errorf("stage attachment: %w", err)
	}
	defer os.Remove(tmp.Name()) // Clean up the staged file
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return fmt.Errorf("stage attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage attachment: %w", err)
	}

	if err := openChat(ctx, page, phone, ""); err != nil {
		return err
	}
	attach, err := waitAny(ctx, page, selAttach, nil)
	if err != nil {
		return err
	}
	if err := attach.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("open attach menu: %w", err)
	}
	input, err := waitAny(ctx, page, selImage, nil)
	if err != nil {
		return err
	}
	if err := input.SetFiles([]string{tmp.Name()}); err != nil {
		return fmt.Errorf("attach image: %w", err)
	}
	btn, err := waitAny(ctx, page, selSend, nil)
	if err != nil {
		return err
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click send: %w", err)
	}
	return waitGone(ctx, page, selSend)
}

func (s *browserSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.release()
	s.snap = Snapshot{Status: StatusDisconnected}
	return err
}

// expire ends a pairing attempt that ran out of time. The browser goes away but
// the failed state stays visible until the tenant connects again.
func (s *browserSession) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.release(); err != nil {
		logrus.WithFields(logrus.Fields{"tenant_id": s.tenantID, "error": err.Error()}).Warn("failed to close expired browser")
	}
	s.snap = Snapshot{Status: StatusFailed, Error: "pairing timed out, connect again for a new QR code"}
}

// release closes the browser and stops its process. s.mu must be held.
func (s *browserSession) release() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.browser, s.page, s.launcher, s.cancel = nil, nil, nil, nil
	return err
}

// first returns the first selector present on the page right now.
func first(page *rod.Page, selectors []string) (*rod.Element, bool) {
	for _, sel := range selectors {
		if ok, el, err := page.Has(sel); err == nil && ok {
			return el, true
		}
	}
	return nil, false
}

// waitAny polls until one of want appears, or fails early if one of fail does.
func waitAny(ctx context.Context, page *rod.Page, want, fail []string) (*rod.Element, error) {
	for {
		if el, ok := first(page, want); ok {
			return el, nil
		}
		if _, ok := first(page, fail); ok {
			return nil, ErrInvalidNumber
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for whatsapp web: %w", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// waitGone polls until none of selectors is present.
func waitGone(ctx context.Context, page *rod.Page, selectors []string) error {
	for {
		if _, ok := first(page, selectors); !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("message stuck in composer: %w", ctx.Err())
			}
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
