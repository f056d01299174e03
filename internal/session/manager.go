// Package session orchestrates sign-up, sign-in and sign-out, binding a
// verified user to a persisted session token. State transitions are exposed
// as immutable snapshots through an observer interface so callers never see
// a half-updated state.
package session

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"wellmind/internal/auth"
	"wellmind/internal/keystore"
	"wellmind/internal/logger"
	"wellmind/internal/users"

	"github.com/sirupsen/logrus"
)

// Phase is the discriminant of the session state machine
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseSignedOut
	PhaseSignedIn
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSignedOut:
		return "signed_out"
	case PhaseSignedIn:
		return "signed_in"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a complete snapshot of the session state machine. User is
// non-nil exactly when Phase is PhaseSignedIn; Message is set only for
// PhaseError.
type State struct {
	Phase   Phase
	User    *users.User
	Message string
}

// Local sign-up validation failures, message-for-message what clients render
var (
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrMissingFields    = errors.New("Please fill in all fields")
)

// Manager is the authentication session state machine. Construct one per
// process and pass it explicitly to consumers.
type Manager struct {
	mu        sync.Mutex
	state     State
	directory *users.Directory
	store     keystore.Store
	observers map[int]func(State)
	nextObs   int
	now       func() time.Time
}

// NewManager creates a Manager in the loading phase. Call Restore to
// resolve it against the credential store.
func NewManager(directory *users.Directory, store keystore.Store) *Manager {
	return &Manager{
		state:     State{Phase: PhaseLoading},
		directory: directory,
		store:     store,
		observers: make(map[int]func(State)),
		now:       time.Now,
	}
}

// State returns the current state snapshot
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer invoked with a snapshot on every
// transition. The returned function cancels the subscription.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// setState applies the transition and notifies observers outside the lock
func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	notify := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		notify = append(notify, fn)
	}
	m.mu.Unlock()

	for _, fn := range notify {
		fn(s)
	}
}

// Restore resolves the initial loading state from the credential store: a
// persisted user record together with an auth token means signed in,
// anything less means signed out.
func (m *Manager) Restore() State {
	userData, hasUser := m.store.Load(keystore.KeyUserData)
	_, hasToken := m.store.Load(keystore.KeyAuthToken)

	if hasUser && hasToken {
		var user users.User
		if err := json.Unmarshal(userData, &user); err == nil {
			state := State{Phase: PhaseSignedIn, User: &user}
			m.setState(state)
			logger.Log.WithField("user_id", user.ID).Info("Restored persisted session")
			return state
		}
		logger.Log.Warn("Persisted user record is unreadable, treating as signed out")
	}

	state := State{Phase: PhaseSignedOut}
	m.setState(state)
	return state
}

// SignIn verifies the credentials, persists a fresh session and transitions
// to signed in. Every failure is terminal for the attempt and transitions
// to the error phase; the caller may re-invoke manually.
func (m *Manager) SignIn(email, password string) error {
	m.setState(State{Phase: PhaseLoading})

	user, err := m.directory.Verify(email, password)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"email": email}).Info("Sign in failed")
		m.setState(State{Phase: PhaseError, Message: err.Error()})
		return err
	}

	if err := m.persistSession(user); err != nil {
		logger.Log.WithError(err).Error("Failed to persist session")
		m.setState(State{Phase: PhaseError, Message: auth.ErrSessionPersist.Error()})
		return auth.ErrSessionPersist
	}

	logger.Log.WithField("user_id", user.ID).Info("User signed in")
	m.setState(State{Phase: PhaseSignedIn, User: user})
	return nil
}

// SignUp validates the form locally, registers the user and then behaves
// like a successful sign-in.
func (m *Manager) SignUp(email, password, confirmPassword, firstName, lastName string) error {
	if password != confirmPassword {
		m.setState(State{Phase: PhaseError, Message: ErrPasswordMismatch.Error()})
		return ErrPasswordMismatch
	}
	if email == "" || password == "" || confirmPassword == "" || firstName == "" || lastName == "" {
		m.setState(State{Phase: PhaseError, Message: ErrMissingFields.Error()})
		return ErrMissingFields
	}

	m.setState(State{Phase: PhaseLoading})

	user, err := m.directory.Register(email, firstName, lastName, password)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"email": email}).Info("Sign up failed")
		m.setState(State{Phase: PhaseError, Message: err.Error()})
		return err
	}

	if err := m.persistSession(user); err != nil {
		logger.Log.WithError(err).Error("Failed to persist session")
		m.setState(State{Phase: PhaseError, Message: auth.ErrSessionPersist.Error()})
		return auth.ErrSessionPersist
	}

	logger.Log.WithField("user_id", user.ID).Info("User signed up")
	m.setState(State{Phase: PhaseSignedIn, User: user})
	return nil
}

// SignOut clears the credential store and transitions to signed out. If
// clearing fails the current state is kept: never claim signed-out while
// the token might still be persisted.
func (m *Manager) SignOut() error {
	if err := m.store.ClearAll(); err != nil {
		logger.Log.WithError(err).Error("Failed to clear credential store")
		return err
	}

	logger.Log.Info("User signed out")
	m.setState(State{Phase: PhaseSignedOut})
	return nil
}

// ClearError acknowledges an error state, returning to signed out without
// re-running verification.
func (m *Manager) ClearError() {
	m.mu.Lock()
	isError := m.state.Phase == PhaseError
	m.mu.Unlock()

	if isError {
		m.setState(State{Phase: PhaseSignedOut})
	}
}

// persistSession writes all four credential slots. The first failed slot
// aborts: partial success is not a usable session.
func (m *Manager) persistSession(user *users.User) error {
	token := auth.GenerateSessionToken(user.ID, m.now())

	userData, err := json.Marshal(user)
	if err != nil {
		return err
	}

	slots := []struct {
		key   keystore.Key
		value []byte
	}{
		{keystore.KeyAuthToken, []byte(token)},
		{keystore.KeyUserData, userData},
		{keystore.KeyUserEmail, []byte(user.Email)},
		{keystore.KeyUserID, []byte(user.ID)},
	}

	for _, slot := range slots {
		if err := m.store.Save(slot.key, slot.value); err != nil {
			return err
		}
	}
	return nil
}
