package devapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account held by the development backend.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	DateJoined   time.Time `json:"date_joined"`
}

type storeFile struct {
	NextID int64  `json:"next_id"`
	Users  []User `json:"users"`
}

// Store keeps accounts in memory and, when a path is set, mirrors them to a
// JSON file after every change.
type Store struct {
	path   string
	cost   int
	mu     sync.RWMutex
	nextID int64
	users  []*User
	now    func() time.Time
}

// NewStore opens the account store. An empty path keeps accounts in memory
// only. cost is the bcrypt work factor; values outside bcrypt's range use
// bcrypt.DefaultCost.
func NewStore(path string, cost int) (*Store, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	s := &Store{
		path:   strings.TrimSpace(path),
		cost:   cost,
		nextID: 1,
		now:    time.Now,
	}
	if s.path == "" {
		return s, nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for i := range file.Users {
		u := file.Users[i]
		s.users = append(s.users, &u)
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}
	if file.NextID > s.nextID {
		s.nextID = file.NextID
	}
	return s, nil
}

// Path returns the backing file, empty for a memory-only store.
func (s *Store) Path() string {
	return s.path
}

// Create registers a new account. Emails are matched exactly; a taken email
// returns ErrAlreadyExists.
func (s *Store) Create(email, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmail(email) != nil {
		return User{}, fmt.Errorf("%w: %s", ErrAlreadyExists, email)
	}
	user := &User{
		ID:           s.nextID,
		Username:     s.uniqueUsername(email),
		Email:        email,
		PasswordHash: string(hash),
		DateJoined:   s.now().UTC(),
	}
	s.nextID++
	s.users = append(s.users, user)
	if err := s.persist(); err != nil {
		s.users = s.users[:len(s.users)-1]
		s.nextID--
		return User{}, err
	}
	return *user, nil
}

// Authenticate returns the account for email when password matches it. Unknown
// emails and wrong passwords both return ErrInvalidCredentials.
func (s *Store) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	user := s.findByEmail(email)
	var snapshot User
	if user != nil {
		snapshot = *user
	}
	s.mu.RUnlock()

	if user == nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(snapshot.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return snapshot, nil
}

// Get returns the account with id.
func (s *Store) Get(id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return *u, nil
		}
	}
	return User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
}

// Len reports how many accounts exist.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *Store) findByEmail(email string) *User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *Store) usernameTaken(name string) bool {
	for _, u := range s.users {
		if u.Username == name {
			return true
		}
	}
	return false
}

// uniqueUsername derives a username from the local part of email, appending
// 1, 2, ... until it is free.
func (s *Store) uniqueUsername(email string) string {
	base := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		base = email[:at]
	}
	name := base
	for counter := 1; s.usernameTaken(name); counter++ {
		name = base + strconv.Itoa(counter)
	}
	return name
}

// persist writes the store to disk. Callers hold s.mu.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	file := storeFile{NextID: s.nextID, Users: make([]User, 0, len(s.users))}
	for _, u := range s.users {
		file.Users = append(file.Users, *u)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create users directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Join(fmt.Errorf("replace users: %w", err), os.Remove(tmp))
	}
	return nil
}
