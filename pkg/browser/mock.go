package browser

import (
	"context"
	"sync"

	"jdscraper/pkg/session"
)

// MockSession is a scripted Session for testing collection and guard
// logic without a real browser.
//
// HTMLFrames and URLFrames play back one entry per call. When a script
// runs out the last frame repeats, which models a page that has stopped
// changing. Error fields, when set, are returned by the matching method.
type MockSession struct {
	mu sync.Mutex

	// Scripted playback
	HTMLFrames []string
	URLFrames  []string
	CookieSet  []session.RawCookie

	// Injectable errors
	NavigateError   error
	HTMLError       error
	EvalError       error
	ClickError      error
	URLError        error
	CookiesError    error
	SetCookiesError error

	// Recorded calls
	NavigatedURLs    []string
	EvalScripts      []string
	ClickedSelectors []string
	StoredTokens     []session.Token
	Closed           bool

	htmlIndex int
	urlIndex  int
}

// NewMockSession creates an empty scripted session.
func NewMockSession() *MockSession {
	return &MockSession{}
}

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NavigateError != nil {
		return m.NavigateError
	}
	m.NavigatedURLs = append(m.NavigatedURLs, url)
	return nil
}

func (m *MockSession) HTML(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HTMLError != nil {
		return "", m.HTMLError
	}
	if len(m.HTMLFrames) == 0 {
		return "", nil
	}
	frame := m.HTMLFrames[m.htmlIndex]
	if m.htmlIndex < len(m.HTMLFrames)-1 {
		m.htmlIndex++
	}
	return frame, nil
}

func (m *MockSession) Eval(ctx context.Context, js string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EvalError != nil {
		return "", m.EvalError
	}
	m.EvalScripts = append(m.EvalScripts, js)
	return "", nil
}

func (m *MockSession) Click(ctx context.Context, selector string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClickError != nil {
		return m.ClickError
	}
	m.ClickedSelectors = append(m.ClickedSelectors, selector)
	return nil
}

func (m *MockSession) CurrentURL(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.URLError != nil {
		return "", m.URLError
	}
	if len(m.URLFrames) == 0 {
		return "", nil
	}
	frame := m.URLFrames[m.urlIndex]
	if m.urlIndex < len(m.URLFrames)-1 {
		m.urlIndex++
	}
	return frame, nil
}

func (m *MockSession) Cookies(ctx context.Context) ([]session.RawCookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CookiesError != nil {
		return nil, m.CookiesError
	}
	return m.CookieSet, nil
}

func (m *MockSession) SetCookies(ctx context.Context, tokens []session.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetCookiesError != nil {
		return m.SetCookiesError
	}
	m.StoredTokens = append(m.StoredTokens, tokens...)
	return nil
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// HTMLCalls returns how many frames have been consumed so far.
func (m *MockSession) HTMLCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.HTMLFrames) == 0 {
		return 0
	}
	return m.htmlIndex
}

// ClickCount returns the number of successful click calls.
func (m *MockSession) ClickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ClickedSelectors)
}

// MockFactory hands out pre-built sessions in order. It satisfies the
// session sources the crawler uses, so orchestration tests can run a
// full crawl against scripted pages.
type MockFactory struct {
	mu       sync.Mutex
	Sessions []Session
	next     int

	// VisibleSessions backs VisibleSession calls separately, so tests
	// can verify the challenge flow opens a window of its own.
	VisibleSessions []Session
	visibleNext     int

	SessionError error
}

// NewMockFactory creates a factory that replays the given sessions.
func NewMockFactory(sessions ...Session) *MockFactory {
	return &MockFactory{Sessions: sessions}
}

func (f *MockFactory) Session(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionError != nil {
		return nil, f.SessionError
	}
	if f.next >= len(f.Sessions) {
		return NewMockSession(), nil
	}
	s := f.Sessions[f.next]
	f.next++
	return s, nil
}

func (f *MockFactory) VisibleSession(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visibleNext >= len(f.VisibleSessions) {
		f.visibleNext++
		return NewMockSession(), nil
	}
	s := f.VisibleSessions[f.visibleNext]
	f.visibleNext++
	return s, nil
}

func (f *MockFactory) Close() error {
	return nil
}

// SessionsHandedOut returns how many crawl sessions were requested.
func (f *MockFactory) SessionsHandedOut() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

// VisibleSessionsHandedOut returns how many visible sessions were
// requested.
func (f *MockFactory) VisibleSessionsHandedOut() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visibleNext
}
