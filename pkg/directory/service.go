// Package directory owns user existence and credential lookup. Every other
// component consults it before touching a login it did not validate itself.
package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rhom001/database-messenger/pkg/auth"
	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/store"
)

// ErrPasswordRequired is returned when registering with a blank password.
var ErrPasswordRequired = errors.New("password required")

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Register creates a user together with its empty contact and block lists.
// The stored credential is a bcrypt hash, never the plaintext.
func (s *Service) Register(login, password, phone string) (domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return domain.User{}, domain.ErrLoginRequired
	}
	if strings.TrimSpace(password) == "" {
		return domain.User{}, ErrPasswordRequired
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{Login: login, PasswordHash: hash, PhoneNum: strings.TrimSpace(phone)}
	if err := s.store.CreateUser(user); err != nil {
		return domain.User{}, err
	}
	created, _, err := s.store.GetUser(login)
	if err != nil {
		return domain.User{}, err
	}
	return created, nil
}

// Exists reports whether a user row with the login is present.
func (s *Service) Exists(login string) (bool, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return false, domain.ErrLoginRequired
	}
	return s.store.HasUser(login)
}

// Authenticate returns the login on a credential match and
// domain.ErrInvalidCredentials otherwise. A missing user and a wrong
// password are indistinguishable to the caller.
func (s *Service) Authenticate(login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", domain.ErrLoginRequired
	}
	user, ok, err := s.store.GetUser(login)
	if err != nil {
		return "", err
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}
	return user.Login, nil
}
