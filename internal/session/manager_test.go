package session

import (
	"errors"
	"testing"

	"wellmind/internal/auth"
	"wellmind/internal/keystore"
	"wellmind/internal/testutil"
	"wellmind/internal/users"
)

func newTestManager() (*Manager, keystore.Store) {
	store := keystore.NewMemoryStore()
	directory := users.NewDirectory(users.NewMemoryRepository())
	return NewManager(directory, store), store
}

func registerTestUser(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.SignUp("alice@example.com", "LongEnough1!", "LongEnough1!", "Alice", "Smith"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
}

func TestManager_InitialPhaseIsLoading(t *testing.T) {
	m, _ := newTestManager()
	if phase := m.State().Phase; phase != PhaseLoading {
		t.Errorf("Expected initial phase loading, got %v", phase)
	}
}

func TestRestore_NoPersistedSession(t *testing.T) {
	m, _ := newTestManager()
	state := m.Restore()
	if state.Phase != PhaseSignedOut {
		t.Errorf("Expected signed out with empty store, got %v", state.Phase)
	}
}

func TestRestore_PersistedSession(t *testing.T) {
	m, store := newTestManager()
	registerTestUser(t, m)

	// Cold start against the same store
	directory := users.NewDirectory(users.NewMemoryRepository())
	restarted := NewManager(directory, store)
	state := restarted.Restore()

	if state.Phase != PhaseSignedIn {
		t.Fatalf("Expected signed in after restore, got %v", state.Phase)
	}
	if state.User == nil || state.User.Email != "alice@example.com" {
		t.Errorf("Expected restored user record, got %+v", state.User)
	}
}

func TestRestore_TokenWithoutUserIsSignedOut(t *testing.T) {
	m, store := newTestManager()
	store.Save(keystore.KeyAuthToken, []byte("orphan-token"))

	if state := m.Restore(); state.Phase != PhaseSignedOut {
		t.Errorf("Expected signed out with a partial session, got %v", state.Phase)
	}
}

func TestSignUp_Success(t *testing.T) {
	m, store := newTestManager()
	registerTestUser(t, m)

	state := m.State()
	if state.Phase != PhaseSignedIn {
		t.Fatalf("Expected signed in after sign up, got %v", state.Phase)
	}
	if state.User == nil {
		t.Fatal("Signed-in state must carry a user")
	}

	// All four slots are persisted
	for _, key := range keystore.Keys {
		if _, ok := store.Load(key); !ok {
			t.Errorf("Expected slot %s to be persisted", key)
		}
	}
}

func TestSignUp_LocalValidation(t *testing.T) {
	tests := []struct {
		name            string
		password        string
		confirmPassword string
		firstName       string
		wantErr         error
	}{
		{
			name:            "password mismatch",
			password:        "LongEnough1!",
			confirmPassword: "Different1!",
			firstName:       "Alice",
			wantErr:         ErrPasswordMismatch,
		},
		{
			name:            "missing field",
			password:        "LongEnough1!",
			confirmPassword: "LongEnough1!",
			firstName:       "",
			wantErr:         ErrMissingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager()
			err := m.SignUp("alice@example.com", tt.password, tt.confirmPassword, tt.firstName, "Smith")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SignUp() error = %v, want %v", err, tt.wantErr)
			}

			state := m.State()
			if state.Phase != PhaseError {
				t.Errorf("Expected error phase, got %v", state.Phase)
			}
			if state.Message != tt.wantErr.Error() {
				t.Errorf("Expected message %q, got %q", tt.wantErr.Error(), state.Message)
			}
		})
	}
}

func TestSignIn_Success(t *testing.T) {
	m, _ := newTestManager()
	registerTestUser(t, m)
	if err := m.SignOut(); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	if err := m.SignIn("alice@example.com", "LongEnough1!"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	state := m.State()
	if state.Phase != PhaseSignedIn {
		t.Fatalf("Expected signed in, got %v", state.Phase)
	}
	if state.User.LastLoginAt == nil {
		t.Error("Expected last login to be refreshed on sign in")
	}
}

func TestSignIn_Failures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "unknown user",
			email:    "nobody@example.com",
			password: "LongEnough1!",
			wantErr:  auth.ErrUserNotFound,
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "WrongPass1!",
			wantErr:  auth.ErrIncorrectPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager()
			registerTestUser(t, m)

			err := m.SignIn(tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SignIn() error = %v, want %v", err, tt.wantErr)
			}

			state := m.State()
			if state.Phase != PhaseError {
				t.Errorf("Expected error phase, got %v", state.Phase)
			}
			if state.Message != tt.wantErr.Error() {
				t.Errorf("Expected message %q, got %q", tt.wantErr.Error(), state.Message)
			}
		})
	}
}

func TestSignIn_PersistFailure(t *testing.T) {
	store := testutil.NewMockStore()
	store.SaveFunc = func(key keystore.Key, value []byte) error {
		return errors.New("disk full")
	}

	directory := users.NewDirectory(users.NewMemoryRepository())
	if _, err := directory.Register("alice@example.com", "Alice", "Smith", "LongEnough1!"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	m := NewManager(directory, store)
	err := m.SignIn("alice@example.com", "LongEnough1!")
	if !errors.Is(err, auth.ErrSessionPersist) {
		t.Errorf("SignIn() error = %v, want ErrSessionPersist", err)
	}
	if phase := m.State().Phase; phase != PhaseError {
		t.Errorf("Expected error phase after persist failure, got %v", phase)
	}
}

func TestSignOut(t *testing.T) {
	m, store := newTestManager()
	registerTestUser(t, m)

	if err := m.SignOut(); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	if phase := m.State().Phase; phase != PhaseSignedOut {
		t.Errorf("Expected signed out, got %v", phase)
	}
	if _, ok := store.Load(keystore.KeyAuthToken); ok {
		t.Error("Expected auth token to be cleared")
	}

	// A cold start against the cleared store is also signed out
	directory := users.NewDirectory(users.NewMemoryRepository())
	restarted := NewManager(directory, store)
	if state := restarted.Restore(); state.Phase != PhaseSignedOut {
		t.Errorf("Expected cold start signed out, got %v", state.Phase)
	}
}

func TestSignOut_ClearFailureKeepsState(t *testing.T) {
	store := testutil.NewMockStore()
	directory := users.NewDirectory(users.NewMemoryRepository())
	m := NewManager(directory, store)

	if err := m.SignUp("alice@example.com", "LongEnough1!", "LongEnough1!", "Alice", "Smith"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	store.ClearAllFunc = func() error {
		return errors.New("keystore unavailable")
	}

	if err := m.SignOut(); err == nil {
		t.Fatal("Expected SignOut() to fail")
	}

	// Never claim signed-out while the token might still be persisted
	if phase := m.State().Phase; phase != PhaseSignedIn {
		t.Errorf("Expected state to remain signed in, got %v", phase)
	}
}

func TestClearError(t *testing.T) {
	m, _ := newTestManager()
	m.Restore()

	_ = m.SignIn("nobody@example.com", "LongEnough1!")
	if phase := m.State().Phase; phase != PhaseError {
		t.Fatalf("Expected error phase, got %v", phase)
	}

	m.ClearError()
	if phase := m.State().Phase; phase != PhaseSignedOut {
		t.Errorf("Expected signed out after clearing error, got %v", phase)
	}

	// ClearError outside the error phase is a no-op
	m.ClearError()
	if phase := m.State().Phase; phase != PhaseSignedOut {
		t.Errorf("Expected state unchanged, got %v", phase)
	}
}

func TestSubscribe(t *testing.T) {
	m, _ := newTestManager()

	var seen []Phase
	cancel := m.Subscribe(func(s State) {
		if s.Phase == PhaseSignedIn && s.User == nil {
			t.Error("Observer saw a signed-in state without a user")
		}
		seen = append(seen, s.Phase)
	})

	registerTestUser(t, m)

	if len(seen) < 2 {
		t.Fatalf("Expected at least loading and signed-in notifications, got %v", seen)
	}
	if seen[len(seen)-1] != PhaseSignedIn {
		t.Errorf("Expected final notification to be signed in, got %v", seen[len(seen)-1])
	}

	cancel()
	before := len(seen)
	_ = m.SignOut()
	if len(seen) != before {
		t.Error("Expected no notifications after cancellation")
	}
}
