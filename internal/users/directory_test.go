package users

import (
	"errors"
	"testing"
	"time"

	"wellmind/internal/auth"
)

func newTestDirectory() *Directory {
	return NewDirectory(NewMemoryRepository())
}

func TestRegisterThenVerify(t *testing.T) {
	d := newTestDirectory()

	registered, err := d.Register("alice@example.com", "Alice", "Smith", "LongEnough1!")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.ID == "" {
		t.Error("Expected a generated user id")
	}
	if registered.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	verified, err := d.Verify("alice@example.com", "LongEnough1!")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified.ID != registered.ID {
		t.Errorf("Expected same user id, got %q and %q", registered.ID, verified.ID)
	}
	if verified.Email != registered.Email {
		t.Errorf("Expected same email, got %q and %q", registered.Email, verified.Email)
	}
	if verified.LastLoginAt == nil {
		t.Error("Expected LastLoginAt to be refreshed on verify")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "invalid email",
			email:    "not-an-email",
			password: "LongEnough1!",
			wantErr:  auth.ErrInvalidEmail,
		},
		{
			name:     "weak password",
			email:    "bob@example.com",
			password: "short1!",
			wantErr:  auth.ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDirectory()
			_, err := d.Register(tt.email, "Bob", "Jones", tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	d := newTestDirectory()

	if _, err := d.Register("carol@example.com", "Carol", "White", "LongEnough1!"); err != nil {
		t.Fatalf("First Register() error = %v", err)
	}

	// Different names and password make no difference: the email is the key
	_, err := d.Register("carol@example.com", "Other", "Person", "Different1!")
	if !errors.Is(err, auth.ErrUserAlreadyExists) {
		t.Errorf("Second Register() error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	d := newTestDirectory()

	if _, err := d.Register("dave@example.com", "Dave", "Brown", "LongEnough1!"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := d.Verify("dave@example.com", "WrongPassword1!")
	if !errors.Is(err, auth.ErrIncorrectPassword) {
		t.Errorf("Verify() error = %v, want ErrIncorrectPassword", err)
	}
	if errors.Is(err, auth.ErrUserNotFound) {
		t.Error("Wrong password must never surface as user-not-found")
	}
}

func TestVerify_UnknownUser(t *testing.T) {
	d := newTestDirectory()

	_, err := d.Verify("nobody@example.com", "LongEnough1!")
	if !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("Verify() error = %v, want ErrUserNotFound", err)
	}
}

func TestMemoryRepository_UpdateLastLogin(t *testing.T) {
	repo := NewMemoryRepository()
	creds := StoredCredentials{
		User: User{ID: "u1", Email: "eve@example.com", FirstName: "Eve", LastName: "Black", CreatedAt: time.Now()},
	}
	if err := repo.Save(creds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	at := time.Now()
	if err := repo.UpdateLastLogin("eve@example.com", at); err != nil {
		t.Fatalf("UpdateLastLogin() error = %v", err)
	}

	found, err := repo.FindByEmail("eve@example.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if found.User.LastLoginAt == nil || !found.User.LastLoginAt.Equal(at) {
		t.Errorf("Expected last login %v, got %v", at, found.User.LastLoginAt)
	}

	if err := repo.UpdateLastLogin("missing@example.com", at); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("UpdateLastLogin() for unknown email error = %v, want ErrUserNotFound", err)
	}
}

func TestSeedDemoUser(t *testing.T) {
	d := newTestDirectory()

	if err := SeedDemoUser(d); err != nil {
		t.Fatalf("SeedDemoUser() error = %v", err)
	}

	if _, err := d.Verify("demo@wellmind.app", "Demo123!"); err != nil {
		t.Errorf("Expected demo user to verify, error = %v", err)
	}

	// Seeding twice is a no-op
	if err := SeedDemoUser(d); err != nil {
		t.Errorf("Second SeedDemoUser() error = %v", err)
	}
}
