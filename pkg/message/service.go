// Package message owns the message ledger: sending, in-place edits, deletes,
// and newest-first paged retrieval. Edit and delete rights belong to the
// original sender for the life of the message, regardless of whether the
// sender still belongs to the chat.
package message

import (
	"errors"
	"strings"

	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/store"
)

// DefaultPageSize matches the ten-message pages of retrieval.
const DefaultPageSize = 10

// ErrTextRequired is returned for blank message bodies.
var ErrTextRequired = errors.New("message text required")

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Send inserts a message with a server-assigned id and timestamp. The sender
// must hold a membership on the chat at send time; the check and the insert
// share a transaction.
func (s *Service) Send(chatID int64, sender, text string) (domain.Message, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return domain.Message{}, domain.ErrLoginRequired
	}
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrTextRequired
	}
	return s.store.CreateMessage(chatID, sender, text)
}

// Edit overwrites the text in place. Id and timestamp are unchanged, so
// edits never reorder history.
func (s *Service) Edit(msgID int64, actor, newText string) error {
	if strings.TrimSpace(newText) == "" {
		return ErrTextRequired
	}
	if err := s.authorize(msgID, actor); err != nil {
		return err
	}
	return s.store.UpdateMessageText(msgID, newText)
}

// Delete removes the message. Same authorization rule as Edit.
func (s *Service) Delete(msgID int64, actor string) error {
	if err := s.authorize(msgID, actor); err != nil {
		return err
	}
	return s.store.DeleteMessage(msgID)
}

func (s *Service) authorize(msgID int64, actor string) error {
	msg, ok, err := s.store.GetMessage(msgID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	if msg.Sender != strings.TrimSpace(actor) {
		return domain.ErrUnauthorized
	}
	return nil
}

// Page returns up to pageSize messages newest first starting at offset.
// Callers walk the history by advancing offset until a short page signals
// exhaustion; a page is always restartable from any offset.
func (s *Service) Page(chatID int64, offset, pageSize int) ([]domain.Message, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if _, ok, err := s.store.GetChat(chatID); err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrNotFound
	}
	return s.store.ListMessagesPage(chatID, offset, pageSize)
}
