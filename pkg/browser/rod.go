package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"jdscraper/pkg/config"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/session"
)

// Factory launches and shares browser instances across sessions.
//
// A single headless browser backs all crawl sessions. A second visible
// browser is launched lazily the first time a challenge or bootstrap
// flow needs a window a human can interact with. Nothing is launched
// until the first session is requested.
type Factory struct {
	cfg *config.Config
	log logger.Logger

	mu       sync.Mutex
	headless *instance
	visible  *instance
}

// instance pairs a connected browser with the launcher that owns its
// process, so Close can tear down both.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewFactory creates a browser factory. Browsers are launched on demand.
func NewFactory(cfg *config.Config, log logger.Logger) *Factory {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Factory{
		cfg: cfg,
		log: log,
	}
}

// Session returns a fresh page on the shared crawl browser, with the
// stealth script installed and the configured user agent applied.
func (f *Factory) Session(ctx context.Context) (Session, error) {
	inst, err := f.ensure(&f.headless, f.cfg.Browser.Headless)
	if err != nil {
		return nil, err
	}
	return f.newSession(ctx, inst)
}

// VisibleSession returns a page on the visible browser, launching it on
// first use. Challenge handoff and login bootstrap use it so a human can
// see and operate the page.
func (f *Factory) VisibleSession(ctx context.Context) (Session, error) {
	inst, err := f.ensure(&f.visible, false)
	if err != nil {
		return nil, err
	}
	return f.newSession(ctx, inst)
}

// ensure launches the browser behind slot if it is not already running.
func (f *Factory) ensure(slot **instance, headless bool) (*instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if *slot != nil {
		return *slot, nil
	}

	inst, err := f.launch(headless)
	if err != nil {
		return nil, err
	}
	*slot = inst
	return inst, nil
}

// launch starts a browser process and connects to it.
func (f *Factory) launch(headless bool) (*instance, error) {
	bin := f.cfg.Browser.ChromePath
	if bin == "" {
		f.log.Info("No browser binary configured, resolving default")
		path, err := launcher.NewBrowser().Get()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve browser binary: %w", err)
		}
		bin = path
	}

	l := launcher.New().
		Headless(headless).
		Bin(bin).
		NoSandbox(true).
		Set("remote-allow-origins", "*")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.log.InfoWithFields("Browser started", map[string]interface{}{
		"bin":      bin,
		"headless": headless,
	})

	return &instance{browser: b, launcher: l}, nil
}

// newSession opens a page and prepares it for storefront traffic.
// Stealth must be installed before any navigation or it has no effect.
func (f *Factory) newSession(ctx context.Context, inst *instance) (Session, error) {
	page, err := inst.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		f.log.WithError(err).Warn("Stealth injection failed, proceeding without it")
	}

	if ua := f.cfg.Browser.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			f.log.WithError(err).Warn("Failed to override user agent")
		}
	}

	return &rodSession{page: page, log: f.log}, nil
}

// Close shuts down every browser the factory has launched.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for _, inst := range []*instance{f.headless, f.visible} {
		if inst == nil {
			continue
		}
		if err := inst.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		inst.launcher.Cleanup()
	}
	f.headless = nil
	f.visible = nil
	return firstErr
}

// rodSession drives a single rod page.
type rodSession struct {
	page *rod.Page
	log  logger.Logger
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	// Best effort. Heavy storefront pages often keep loading trackers
	// long after the listing grid is usable.
	if err := p.WaitLoad(); err != nil {
		s.log.WithError(err).Debug("WaitLoad did not complete, continuing with current DOM")
	}
	return nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

func (s *rodSession) Eval(ctx context.Context, js string) (string, error) {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("script evaluation failed: %w", err)
	}
	return res.Value.Str(), nil
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("no element matches %q: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

func (s *rodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (s *rodSession) Cookies(ctx context.Context) ([]session.RawCookie, error) {
	cookies, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return rawCookiesFromProto(cookies), nil
}

func (s *rodSession) SetCookies(ctx context.Context, tokens []session.Token) error {
	p := s.page.Context(ctx)
	for _, tok := range tokens {
		_, err := proto.NetworkSetCookie{
			Name:   tok.Name,
			Value:  tok.Value,
			Domain: tok.Domain,
			Path:   tok.Path,
		}.Call(p)
		if err != nil {
			return fmt.Errorf("failed to set cookie %s: %w", tok.Name, err)
		}
	}
	return nil
}

func (s *rodSession) Close() error {
	return s.page.Close()
}

// rawCookiesFromProto converts browser cookies into the minimal form the
// session package normalizes.
func rawCookiesFromProto(cookies []*proto.NetworkCookie) []session.RawCookie {
	raw := make([]session.RawCookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		raw = append(raw, session.RawCookie{Name: c.Name, Value: c.Value})
	}
	return raw
}
