package store

import "time"

// GORM models used for persistence. Relationship lists keep the indirection
// through a list id: every user owns exactly one contact list row and one
// block list row, created in the same transaction as the user.
type UserModel struct {
	Login        string `gorm:"primaryKey"`
	PasswordHash string `gorm:"not null"`
	PhoneNum     string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type RelationshipListModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Owner     string    `gorm:"not null;index;uniqueIndex:uidx_owner_kind"`
	Kind      string    `gorm:"not null;uniqueIndex:uidx_owner_kind"`
	CreatedAt time.Time `gorm:"not null"`
}

type ListMemberModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ListID    int64     `gorm:"not null;index;uniqueIndex:uidx_list_member"`
	Member    string    `gorm:"not null;index;uniqueIndex:uidx_list_member"`
	CreatedAt time.Time `gorm:"not null"`
}

type ChatModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ChatType   string    `gorm:"not null"`
	InitSender string    `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time
}

type ChatMemberModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"not null;index;uniqueIndex:uidx_chat_member"`
	Member    string    `gorm:"not null;index;uniqueIndex:uidx_chat_member"`
	CreatedAt time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"not null;index"`
	Sender    string    `gorm:"not null;index"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
