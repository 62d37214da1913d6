// Package chat owns chat creation, membership, type promotion, and deletion.
// Only a chat's init sender may mutate its membership or delete it.
package chat

import (
	"errors"
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

// AddMemberResult reports what AddMember actually did. AlreadyMember is the
// informational no-op case; Promoted is set when this add flipped the chat
// from private to group.
type AddMemberResult struct {
	AlreadyMember bool
	Promoted      bool
}

// Create starts a private chat with initiator as init sender and sole member.
func (s *Service) Create(initiator string) (domain.Chat, error) {
	initiator = strings.TrimSpace(initiator)
	if initiator == "" {
		return domain.Chat{}, domain.ErrLoginRequired
	}
	ok, err := s.dir.Exists(initiator)
	if err != nil {
		return domain.Chat{}, err
	}
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}
	return s.store.CreateChat(initiator)
}

// Get retrieves a chat by id.
func (s *Service) Get(chatID int64) (domain.Chat, error) {
	chat, ok, err := s.store.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !ok {
		return domain.Chat{}, domain.ErrNotFound
	}
	return chat, nil
}

// IsMember reports whether login currently belongs to the chat.
func (s *Service) IsMember(chatID int64, login string) (bool, error) {
	return s.store.IsChatMember(chatID, strings.TrimSpace(login))
}

// Members returns the chat's member logins in join order.
func (s *Service) Members(chatID int64) ([]string, error) {
	if _, err := s.Get(chatID); err != nil {
		return nil, err
	}
	return s.store.ListChatMembers(chatID)
}

// AddMember inserts candidate into the chat. Only the init sender may do
// this. Membership insert and the promotion check run in one transaction, so
// the type flips to group exactly once, the instant the count reaches three.
func (s *Service) AddMember(actor string, chatID int64, candidate string) (AddMemberResult, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return AddMemberResult{}, domain.ErrLoginRequired
	}
	chat, err := s.Get(chatID)
	if err != nil {
		return AddMemberResult{}, err
	}
	if chat.InitSender != strings.TrimSpace(actor) {
		return AddMemberResult{}, domain.ErrUnauthorized
	}
	ok, err := s.dir.Exists(candidate)
	if err != nil {
		return AddMemberResult{}, err
	}
	if !ok {
		return AddMemberResult{}, domain.ErrNotFound
	}
	promoted, err := s.store.AddChatMember(chatID, candidate)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return AddMemberResult{AlreadyMember: true}, nil
	}
	if err != nil {
		return AddMemberResult{}, err
	}
	return AddMemberResult{Promoted: promoted}, nil
}

// RemoveMember deletes candidate's membership. A false result means the
// candidate was not a member and nothing was written. Removal never demotes
// a group back to private.
func (s *Service) RemoveMember(actor string, chatID int64, candidate string) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, domain.ErrLoginRequired
	}
	chat, err := s.Get(chatID)
	if err != nil {
		return false, err
	}
	if chat.InitSender != strings.TrimSpace(actor) {
		return false, domain.ErrUnauthorized
	}
	ok, err := s.dir.Exists(candidate)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.ErrNotFound
	}
	return s.store.RemoveChatMember(chatID, candidate)
}

// Delete removes the chat with all its messages and memberships, in one
// transaction. Only the init sender may delete.
func (s *Service) Delete(actor string, chatID int64) error {
	chat, err := s.Get(chatID)
	if err != nil {
		return err
	}
	if chat.InitSender != strings.TrimSpace(actor) {
		return domain.ErrUnauthorized
	}
	return s.store.DeleteChat(chatID)
}

// ListFor returns the chats login belongs to, ordered by most recent message
// first; chats without messages sort last.
func (s *Service) ListFor(login string) ([]domain.ChatSummary, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, domain.ErrLoginRequired
	}
	ok, err := s.dir.Exists(login)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.store.ListChatsByMember(login)
}
