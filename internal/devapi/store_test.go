package devapi

import (
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreCreateAndAuthenticate(t *testing.T) {
	store := newTestStore(t, "")

	created, err := store.Create("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.Username != "alice" {
		t.Fatalf("unexpected user %+v", created)
	}
	if created.PasswordHash == "password123" {
		t.Fatal("password stored in clear text")
	}

	got, err := store.Authenticate("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, got.ID)
	}
}

func TestStoreRejectsDuplicateEmail(t *testing.T) {
	store := newTestStore(t, "")
	if _, err := store.Create("alice@example.com", "password123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.Create("alice@example.com", "another-password")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one account, got %d", store.Len())
	}
}

func TestStoreAuthenticateFailures(t *testing.T) {
	store := newTestStore(t, "")
	if _, err := store.Create("alice@example.com", "password123"); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "unknown email", email: "bob@example.com", password: "password123"},
		{name: "wrong password", email: "alice@example.com", password: "password124"},
		{name: "email case differs", email: "Alice@example.com", password: "password123"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Authenticate(tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestStoreUniqueUsernames(t *testing.T) {
	store := newTestStore(t, "")
	emails := []string{"sam@one.test", "sam@two.test", "sam@three.test", "sam1@four.test"}
	want := []string{"sam", "sam1", "sam2", "sam11"}
	for i, email := range emails {
		user, err := store.Create(email, "password123")
		if err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
		if user.Username != want[i] {
			t.Fatalf("email %s: expected username %q, got %q", email, want[i], user.Username)
		}
	}
}

func TestStorePasswordTooLong(t *testing.T) {
	store := newTestStore(t, "")
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	_, err := store.Create("alice@example.com", string(long))
	if !errors.Is(err, bcrypt.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("failed create must not add an account")
	}
}

func TestStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "users.json")
	store := newTestStore(t, path)
	first, err := store.Create("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reopened := newTestStore(t, path)
	if reopened.Len() != 1 {
		t.Fatalf("expected one persisted account, got %d", reopened.Len())
	}
	if _, err := reopened.Authenticate("alice@example.com", "password123"); err != nil {
		t.Fatalf("authenticate after reopen: %v", err)
	}
	second, err := reopened.Create("alice@other.test", "password123")
	if err != nil {
		t.Fatalf("create after reopen: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected ids to keep increasing, got %d after %d", second.ID, first.ID)
	}
	if second.Username != "alice1" {
		t.Fatalf("expected username alice1, got %q", second.Username)
	}
}

func TestStoreGet(t *testing.T) {
	store := newTestStore(t, "")
	created, err := store.Create("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(created.ID)
	if err != nil || got.Email != "alice@example.com" {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if _, err := store.Get(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
