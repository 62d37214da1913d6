// Package account orchestrates user deletion. It is the one place where a
// cascade crosses ownership boundaries: deleting a user scrubs its login
// from every other user's contact and block lists.
package account

import (
	"strings"

	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/store"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Delete removes the user, its two relationship lists, and every reference
// to its login in other users' lists, in one transaction. It is rejected
// outright with domain.ErrChatsRemain while the login is still the init
// sender of any chat; the precondition is re-checked inside the transaction.
func (s *Service) Delete(login string) error {
	login = strings.TrimSpace(login)
	if login == "" {
		return domain.ErrLoginRequired
	}
	ok, err := s.store.HasUser(login)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	owned, err := s.store.CountChatsByInitSender(login)
	if err != nil {
		return err
	}
	if owned > 0 {
		return domain.ErrChatsRemain
	}
	return s.store.DeleteUserCascade(login)
}
