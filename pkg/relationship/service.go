// Package relationship owns the per-user contact and block lists. A login is
// never present in both of an owner's lists: adding to one removes it from
// the other in the same transaction.
package relationship

import (
	"strings"

	"github.com/rhom001/database-messenger/pkg/directory"
	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/store"
)

type Service struct {
	store store.Store
	dir   *directory.Service
}

func NewService(st store.Store, dir *directory.Service) *Service {
	return &Service{store: st, dir: dir}
}

func (s *Service) add(owner, candidate string, kind domain.ListKind) (domain.ListAddOutcome, error) {
	owner = strings.TrimSpace(owner)
	candidate = strings.TrimSpace(candidate)
	if owner == "" || candidate == "" {
		return "", domain.ErrLoginRequired
	}
	ok, err := s.dir.Exists(candidate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrNotFound
	}
	return s.store.AddListMember(owner, kind, candidate)
}

// AddContact puts candidate on owner's contact list. When candidate is
// currently blocked the operation is a move: the block entry is removed as
// the contact entry is inserted, atomically. The outcome reports which of
// add, move, or already-present actually happened.
func (s *Service) AddContact(owner, candidate string) (domain.ListAddOutcome, error) {
	return s.add(owner, candidate, domain.ListContact)
}

// AddBlock is symmetric to AddContact, moving out of the contact list when
// necessary.
func (s *Service) AddBlock(owner, candidate string) (domain.ListAddOutcome, error) {
	return s.add(owner, candidate, domain.ListBlock)
}

func (s *Service) remove(owner, candidate string, kind domain.ListKind) (bool, error) {
	owner = strings.TrimSpace(owner)
	candidate = strings.TrimSpace(candidate)
	if owner == "" || candidate == "" {
		return false, domain.ErrLoginRequired
	}
	ok, err := s.dir.Exists(candidate)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.ErrNotFound
	}
	return s.store.RemoveListMember(owner, kind, candidate)
}

// RemoveContact deletes candidate from owner's contact list. A false result
// means candidate was not on the list and nothing was written.
func (s *Service) RemoveContact(owner, candidate string) (bool, error) {
	return s.remove(owner, candidate, domain.ListContact)
}

// RemoveBlock deletes candidate from owner's block list.
func (s *Service) RemoveBlock(owner, candidate string) (bool, error) {
	return s.remove(owner, candidate, domain.ListBlock)
}

// ListContacts returns owner's contacts in insertion order.
func (s *Service) ListContacts(owner string) ([]string, error) {
	return s.list(owner, domain.ListContact)
}

// ListBlocked returns owner's blocked logins in insertion order.
func (s *Service) ListBlocked(owner string) ([]string, error) {
	return s.list(owner, domain.ListBlock)
}

func (s *Service) list(owner string, kind domain.ListKind) ([]string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, domain.ErrLoginRequired
	}
	return s.store.ListMembers(owner, kind)
}
