package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"simplegit.dev/simplegit/internal/credentials"
	sgerrors "simplegit.dev/simplegit/internal/errors"
	"simplegit.dev/simplegit/internal/output"
	"simplegit.dev/simplegit/internal/utils"
)

const (
	defaultTimeout      = 2 * time.Minute
	defaultCallbackHost = "127.0.0.1"
	subscriberBuffer    = 8
)

// Options configures a Manager
type Options struct {
	Exchanger    Exchanger
	Store        *credentials.Store
	Timeout      time.Duration
	CallbackHost string
	// OpenBrowser opens the authorization page. Defaults to the system browser.
	OpenBrowser func(url string) error
	Logger      *slog.Logger
}

// SessionInfo describes a session returned by Start
type SessionInfo struct {
	ID          string
	AuthURL     string
	RedirectURL string
	Deadline    time.Time
}

type session struct {
	id          string
	state       State
	deadline    time.Time
	redirectURL string
	server      *callbackServer
	timer       *time.Timer
	cancelFn    context.CancelFunc
}

// Manager brokers OAuth logins. It is safe for concurrent use.
type Manager struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	current *session
	subs    map[chan Event]struct{}
}

// NewManager creates a manager
func NewManager(opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CallbackHost == "" {
		opts.CallbackHost = defaultCallbackHost
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = utils.OpenBrowser
	}
	if opts.Store == nil {
		opts.Store = credentials.NewStore()
	}
	log := opts.Logger
	if log == nil {
		log = output.Discard()
	}
	return &Manager{
		opts: opts,
		log:  log.With("component", "auth"),
		subs: map[chan Event]struct{}{},
	}
}

// Store returns the credential store tokens are written to
func (m *Manager) Store() *credentials.Store {
	return m.opts.Store
}

// Subscribe registers for terminal events. Call the returned func to unsubscribe.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
		})
	}
}

// Start begins a new login. Any pending session is cancelled first.
// The outcome is delivered through Subscribe.
func (m *Manager) Start(ctx context.Context) (SessionInfo, error) {
	if m.opts.Exchanger == nil {
		return SessionInfo{}, sgerrors.NewAuthFlowError(nil, "OAuth is not configured")
	}

	id := uuid.NewString()
	server, err := startCallbackServer(m.opts.CallbackHost, m)
	if err != nil {
		return SessionInfo{}, sgerrors.NewAuthFlowError(err, "could not start the login callback listener")
	}

	s := &session{
		id:          id,
		state:       StateAwaitingRedirect,
		deadline:    time.Now().Add(m.opts.Timeout),
		redirectURL: server.RedirectURL(),
		server:      server,
	}
	info := SessionInfo{
		ID:          id,
		AuthURL:     m.opts.Exchanger.AuthCodeURL(id, s.redirectURL),
		RedirectURL: s.redirectURL,
		Deadline:    s.deadline,
	}

	var events []Event
	m.mu.Lock()
	if prev := m.current; prev != nil && !prev.state.Terminal() {
		m.log.Debug("superseding pending login", "session", prev.id)
		events = append(events, m.finishLocked(prev, StateCancelled, Event{Type: EventError, Reason: ReasonCancelled}))
	}
	m.current = s
	s.timer = time.AfterFunc(m.opts.Timeout, func() { m.expire(id) })
	m.mu.Unlock()
	m.emit(events...)

	m.log.Debug("login started", "session", id, "callback", s.redirectURL)
	if err := m.opts.OpenBrowser(info.AuthURL); err != nil {
		m.log.Warn("could not open browser, open the login URL manually", "error", err)
	}
	return info, nil
}

// HandleRedirect completes the session identified by sessionID with an
// authorization code. Redirects for any other session are ignored.
func (m *Manager) HandleRedirect(ctx context.Context, code, sessionID string) error {
	m.mu.Lock()
	s := m.current
	if s == nil || s.id != sessionID || s.state != StateAwaitingRedirect {
		m.mu.Unlock()
		m.log.Debug("ignoring redirect for inactive session", "session", sessionID)
		return nil
	}
	s.state = StateExchangingToken
	exCtx, cancel := context.WithDeadline(ctx, s.deadline)
	s.cancelFn = cancel
	redirectURL := s.redirectURL
	m.mu.Unlock()

	token, err := m.opts.Exchanger.Exchange(exCtx, code, redirectURL)
	cancel()

	m.mu.Lock()
	if m.current != s || s.state != StateExchangingToken {
		m.mu.Unlock()
		m.log.Debug("token exchange finished after session ended", "session", sessionID)
		return nil
	}
	var ev Event
	if err != nil {
		ev = m.finishLocked(s, StateFailed, Event{Type: EventError, Reason: err.Error()})
	} else {
		m.opts.Store.Set(token)
		ev = m.finishLocked(s, StateAuthenticated, Event{Type: EventSuccess})
	}
	m.mu.Unlock()
	m.emit(ev)

	if err != nil {
		m.log.Warn("token exchange failed", "session", sessionID, "error", err)
		return sgerrors.NewAuthFlowError(err, "token exchange failed")
	}
	m.log.Debug("login succeeded", "session", sessionID)
	return nil
}

// Cancel ends the pending session, if any
func (m *Manager) Cancel() {
	m.mu.Lock()
	s := m.current
	if s == nil || s.state.Terminal() {
		m.mu.Unlock()
		return
	}
	ev := m.finishLocked(s, StateCancelled, Event{Type: EventError, Reason: ReasonCancelled})
	m.mu.Unlock()
	m.emit(ev)
	m.log.Debug("login cancelled", "session", s.id)
}

// Logout cancels any pending session and clears the stored token
func (m *Manager) Logout() {
	m.Cancel()
	m.opts.Store.Clear()
}

// SetToken makes an externally obtained token current
func (m *Manager) SetToken(token string) {
	m.opts.Store.Set(token)
}

// State returns the state of the most recent session
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return StateIdle
	}
	return m.current.state
}

// SessionID returns the id of the most recent session, or ""
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.id
}

func (m *Manager) expire(sessionID string) {
	m.mu.Lock()
	s := m.current
	if s == nil || s.id != sessionID || s.state.Terminal() {
		m.mu.Unlock()
		return
	}
	ev := m.finishLocked(s, StateTimedOut, Event{Type: EventTimeout})
	m.mu.Unlock()
	m.emit(ev)
	m.log.Debug("login timed out", "session", sessionID)
}

// fail ends a session the provider reported an error for
func (m *Manager) fail(sessionID, reason string) {
	m.mu.Lock()
	s := m.current
	if s == nil || s.id != sessionID || s.state != StateAwaitingRedirect {
		m.mu.Unlock()
		return
	}
	ev := m.finishLocked(s, StateFailed, Event{Type: EventError, Reason: reason})
	m.mu.Unlock()
	m.emit(ev)
	m.log.Warn("provider rejected login", "session", sessionID, "reason", reason)
}

// finishLocked moves s to a terminal state and releases its resources.
// The caller holds m.mu and emits the returned event after unlocking.
func (m *Manager) finishLocked(s *session, state State, ev Event) Event {
	s.state = state
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancelFn != nil {
		s.cancelFn()
	}
	s.server.Close()
	ev.SessionID = s.id
	return ev
}

func (m *Manager) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		for ch := range m.subs {
			select {
			case ch <- ev:
			default:
				m.log.Warn("dropping auth event for slow subscriber", "type", ev.Type)
			}
		}
	}
}
