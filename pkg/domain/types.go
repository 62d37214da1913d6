package domain

import "time"

// ListKind distinguishes the two relationship lists every user owns.
type ListKind string

const (
	ListContact ListKind = "contact"
	ListBlock   ListKind = "block"
)

// Other returns the opposite list kind.
func (k ListKind) Other() ListKind {
	if k == ListContact {
		return ListBlock
	}
	return ListContact
}

// ChatType is private for 1-2 member chats and group from 3 members on.
// Promotion to group is irreversible.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// GroupThreshold is the membership count at which a chat becomes a group.
const GroupThreshold = 3

// User is keyed by its login. PasswordHash is a bcrypt hash, never the
// plaintext credential.
type User struct {
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	PhoneNum     string    `json:"phoneNum"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Chat is administratively controlled by InitSender: only that login may add
// or remove members or delete the chat.
type Chat struct {
	ID         int64     `json:"id"`
	Type       ChatType  `json:"type"`
	InitSender string    `json:"initSender"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChatSummary is a chat as seen from a member's chat list.
// LastMessageAt is nil for chats with no messages yet.
type ChatSummary struct {
	Chat
	Members       []string   `json:"members"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// Message belongs to exactly one chat. Edits keep ID and CreatedAt unchanged
// so history never reorders.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListAddOutcome reports what a relationship-list add actually did.
type ListAddOutcome string

const (
	// OutcomeAdded means the member was inserted.
	OutcomeAdded ListAddOutcome = "added"
	// OutcomeAlreadyPresent means the member already sat in the target list.
	OutcomeAlreadyPresent ListAddOutcome = "already_present"
	// OutcomeMoved means the member was removed from the opposite list and
	// inserted into the target list in the same transaction.
	OutcomeMoved ListAddOutcome = "moved"
)
