package session

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
)

// State is the authentication state of a [Manager].
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Default navigation targets for transitions.
const (
	HomePath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Navigator moves the client to a route. Replace overwrites the current history entry instead of pushing.
type Navigator interface {
	Navigate(path string, replace bool)
}

// Locator is implemented by navigators that know the current route.
type Locator interface {
	Current() string
}

// Listener is called with the new session after every transition.
type Listener func(models.Session)

// Options configures a [Manager].
type Options struct {
	Store     Store       // Defaults to an empty [MemoryStore]
	Navigator Navigator   // Optional
	Logger    *log.Logger // Defaults to [shared.NewLogger]

	// InvalidateOnAuthFailure makes [Manager.HandleError] log out on authentication errors.
	InvalidateOnAuthFailure bool
}

// Manager owns the session state machine.
type Manager struct {
	mu         sync.RWMutex
	token      string
	user       *models.User
	store      Store
	nav        Navigator
	logger     *log.Logger
	invalidate bool
	listeners  map[int]Listener
	nextID     int
}

// NewManager creates a [Manager] and restores the persisted credential pair.
//
// The manager starts [Authenticated] only when both entries are present and decodable. A partial pair is cleared.
func NewManager(opts Options) *Manager {
	if opts.Store == nil {
		opts.Store = NewMemoryStore(nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	m := &Manager{
		store:      opts.Store,
		nav:        opts.Navigator,
		logger:     opts.Logger.With("component", "session"),
		invalidate: opts.InvalidateOnAuthFailure,
		listeners:  make(map[int]Listener),
	}
	m.restore()
	return m
}

func (m *Manager) restore() {
	token, hasToken, err := m.store.Get(TokenKey)
	if err != nil {
		m.logger.Warn("failed to read persisted token", "error", err)
		return
	}
	raw, hasUser, err := m.store.Get(UserKey)
	if err != nil {
		m.logger.Warn("failed to read persisted user", "error", err)
		return
	}

	var user models.User
	if hasToken && hasUser && token != "" {
		if err := json.Unmarshal([]byte(raw), &user); err == nil && user.ID != 0 {
			m.token, m.user = token, &user
			m.logger.Debug("restored session", "user", user.Email)
			return
		}
		m.logger.Warn("discarding undecodable persisted user")
	}

	if hasToken || hasUser {
		if err := m.store.Delete(TokenKey, UserKey); err != nil {
			m.logger.Warn("failed to clear partial credentials", "error", err)
		}
	}
}

// Login installs a new credential, replacing any current session.
//
// Side effects in order: persist the pair, expose the token to the gateway, transition to [Authenticated],
// notify listeners and navigate to the home view.
func (m *Manager) Login(token string, user models.User) error {
	if strings.TrimSpace(token) == "" {
		return shared.NewValidationError("token", "must not be empty")
	}
	if user.ID == 0 {
		return shared.NewValidationError("user", "must have an id")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if err := m.store.Put(map[string]string{TokenKey: token, UserKey: string(data)}); err != nil {
		m.logger.Warn("failed to persist credentials, session will not survive restart", "error", err)
	}
	m.token, m.user = token, &user
	s := m.snapshot()
	m.mu.Unlock()

	m.logger.Info("logged in", "user", user.Email)
	m.notify(s)
	if m.nav != nil {
		m.nav.Navigate(HomePath, false)
	}
	return nil
}

// Logout clears the session. Calling it while anonymous is a no-op apart from notification and navigation.
//
// The move to the login route replaces the current history entry when that entry is protected,
// so going back cannot return to it. Navigators that are not a [Locator] always replace.
func (m *Manager) Logout() {
	m.mu.Lock()
	if err := m.store.Delete(TokenKey, UserKey); err != nil {
		m.logger.Warn("failed to clear persisted credentials", "error", err)
	}
	was := m.user
	m.token, m.user = "", nil
	s := m.snapshot()
	m.mu.Unlock()

	if was != nil {
		m.logger.Info("logged out", "user", was.Email)
	}
	m.notify(s)
	if m.nav != nil {
		m.nav.Navigate(LoginPath, m.onProtectedRoute())
	}
}

func (m *Manager) onProtectedRoute() bool {
	loc, ok := m.nav.(Locator)
	if !ok {
		return true
	}
	current := loc.Current()
	return current != LoginPath && current != RegisterPath
}

// HandleError logs out when err is an authentication failure and the manager was configured to do so.
//
// Reports whether the session was invalidated.
func (m *Manager) HandleError(err error) bool {
	if !m.invalidate || !errors.Is(err, shared.ErrAuthentication) {
		return false
	}
	if m.State() == Anonymous {
		return false
	}

	m.logger.Warn("credential rejected by server, logging out", "error", err)
	m.Logout()
	return true
}

// Token returns the current bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Session returns a copy of the current session.
func (m *Manager) Session() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

// State returns the current [State].
func (m *Manager) State() State {
	if m.Session().Authenticated() {
		return Authenticated
	}
	return Anonymous
}

// Subscribe registers l for every transition. The returned func removes it.
//
// Listeners run on the goroutine that changed the session.
func (m *Manager) Subscribe(l Listener) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) snapshot() models.Session {
	if m.user == nil {
		return models.Session{}
	}
	u := *m.user
	return models.Session{Token: m.token, User: &u}
}

func (m *Manager) notify(s models.Session) {
	m.mu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.RUnlock()

	for _, l := range listeners {
		l(s)
	}
}
