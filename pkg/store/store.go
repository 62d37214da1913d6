package store

import (
	"github.com/rhom001/database-messenger/pkg/domain"
)

// Store defines persistence operations for users, relationship lists, chats,
// and messages. Every multi-step operation (list move, membership insert with
// group promotion, chat deletion, account deletion) runs as a single atomic
// transaction inside the implementation: a failure leaves all rows unchanged.
type Store interface {
	// users
	CreateUser(domain.User) error
	GetUser(login string) (domain.User, bool, error)
	HasUser(login string) (bool, error)

	// relationship lists
	AddListMember(owner string, kind domain.ListKind, member string) (domain.ListAddOutcome, error)
	RemoveListMember(owner string, kind domain.ListKind, member string) (bool, error)
	ListMembers(owner string, kind domain.ListKind) ([]string, error)

	// chats
	CreateChat(initSender string) (domain.Chat, error)
	GetChat(id int64) (domain.Chat, bool, error)
	IsChatMember(chatID int64, login string) (bool, error)
	ListChatMembers(chatID int64) ([]string, error)
	AddChatMember(chatID int64, member string) (promoted bool, err error)
	RemoveChatMember(chatID int64, member string) (bool, error)
	DeleteChat(chatID int64) error
	ListChatsByMember(login string) ([]domain.ChatSummary, error)
	CountChatsByInitSender(login string) (int64, error)

	// messages
	CreateMessage(chatID int64, sender, text string) (domain.Message, error)
	GetMessage(id int64) (domain.Message, bool, error)
	UpdateMessageText(id int64, text string) error
	DeleteMessage(id int64) error
	ListMessagesPage(chatID int64, offset, limit int) ([]domain.Message, error)

	// account
	DeleteUserCascade(login string) error
}

// SessionStore persists login session tokens for front ends.
type SessionStore interface {
	NewSession(login string) (string, error)
	GetLoginByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
