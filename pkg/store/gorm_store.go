package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rhom001/database-messenger/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&RelationshipListModel{},
		&ListMemberModel{},
		&ChatModel{},
		&ChatMemberModel{},
		&MessageModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreWithDB wraps an already opened gorm connection. Intended for
// tests and callers that manage the connection themselves.
func NewGormStoreWithDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&UserModel{},
		&RelationshipListModel{},
		&ListMemberModel{},
		&ChatModel{},
		&ChatMemberModel{},
		&MessageModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateUser registers a user together with its empty contact and block
// lists. The three inserts are one transaction.
func (s *GormStore) CreateUser(u domain.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserModel{}).Where("login = ?", u.Login).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyExists
		}
		now := u.CreatedAt
		if now.IsZero() {
			now = time.Now().UTC()
		}
		for _, kind := range []domain.ListKind{domain.ListBlock, domain.ListContact} {
			list := RelationshipListModel{Owner: u.Login, Kind: string(kind), CreatedAt: now}
			if err := tx.Create(&list).Error; err != nil {
				return err
			}
		}
		model := UserModel{
			Login:        u.Login,
			PasswordHash: u.PasswordHash,
			PhoneNum:     u.PhoneNum,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&model).Error
	})
}

// GetUser looks up a user by login.
func (s *GormStore) GetUser(login string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "login = ?", login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// HasUser checks whether a login is registered.
func (s *GormStore) HasUser(login string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("login = ?", login).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func listID(tx *gorm.DB, owner string, kind domain.ListKind) (int64, error) {
	var list RelationshipListModel
	if err := tx.First(&list, "owner = ? AND kind = ?", owner, string(kind)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return list.ID, nil
}

// lockedListID takes a row lock on the list so concurrent mutations of the
// same list serialize. Mutating paths only; plain reads use listID.
func lockedListID(tx *gorm.DB, owner string, kind domain.ListKind) (int64, error) {
	var list RelationshipListModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&list, "owner = ? AND kind = ?", owner, string(kind)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return list.ID, nil
}

// AddListMember inserts member into owner's list of the given kind. When the
// member currently sits in the opposite list the delete and the insert happen
// in the same transaction, so the member is never present in both lists. Both
// list rows are locked up front in one id-ordered query: concurrent adds for
// the same owner serialize instead of each passing a stale presence check, and
// the fixed lock order rules out deadlock between a contact add and a block
// add.
func (s *GormStore) AddListMember(owner string, kind domain.ListKind, member string) (domain.ListAddOutcome, error) {
	var outcome domain.ListAddOutcome
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var lists []RelationshipListModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner = ?", owner).
			Order("id").
			Find(&lists).Error; err != nil {
			return err
		}
		var targetID, otherID int64
		for _, list := range lists {
			switch domain.ListKind(list.Kind) {
			case kind:
				targetID = list.ID
			case kind.Other():
				otherID = list.ID
			}
		}
		if targetID == 0 || otherID == 0 {
			return domain.ErrNotFound
		}
		var count int64
		if err := tx.Model(&ListMemberModel{}).
			Where("list_id = ? AND member = ?", targetID, member).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			outcome = domain.OutcomeAlreadyPresent
			return nil
		}
		res := tx.Where("list_id = ? AND member = ?", otherID, member).Delete(&ListMemberModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			outcome = domain.OutcomeMoved
		} else {
			outcome = domain.OutcomeAdded
		}
		row := ListMemberModel{ListID: targetID, Member: member, CreatedAt: time.Now().UTC()}
		return tx.Create(&row).Error
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// RemoveListMember deletes the single membership row, reporting whether it
// was present.
func (s *GormStore) RemoveListMember(owner string, kind domain.ListKind, member string) (bool, error) {
	removed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		id, err := lockedListID(tx, owner, kind)
		if err != nil {
			return err
		}
		res := tx.Where("list_id = ? AND member = ?", id, member).Delete(&ListMemberModel{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	return removed, err
}

// ListMembers returns the member logins of owner's list in insertion order.
func (s *GormStore) ListMembers(owner string, kind domain.ListKind) ([]string, error) {
	id, err := listID(s.db, owner, kind)
	if err != nil {
		return nil, err
	}
	var models []ListMemberModel
	if err := s.db.Where("list_id = ?", id).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	members := make([]string, 0, len(models))
	for _, m := range models {
		members = append(members, m.Member)
	}
	return members, nil
}

// CreateChat inserts a private chat and its initiator membership in one
// transaction.
func (s *GormStore) CreateChat(initSender string) (domain.Chat, error) {
	now := time.Now().UTC()
	model := ChatModel{ChatType: string(domain.ChatPrivate), InitSender: initSender, CreatedAt: now, UpdatedAt: now}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		membership := ChatMemberModel{ChatID: model.ID, Member: initSender, CreatedAt: now}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chatFromModel(model), nil
}

// GetChat retrieves a chat by id.
func (s *GormStore) GetChat(id int64) (domain.Chat, bool, error) {
	var model ChatModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Chat{}, false, nil
		}
		return domain.Chat{}, false, err
	}
	return chatFromModel(model), true, nil
}

// IsChatMember reports whether login currently holds a membership on the chat.
func (s *GormStore) IsChatMember(chatID int64, login string) (bool, error) {
	var count int64
	if err := s.db.Model(&ChatMemberModel{}).
		Where("chat_id = ? AND member = ?", chatID, login).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListChatMembers returns the chat's member logins in join order.
func (s *GormStore) ListChatMembers(chatID int64) ([]string, error) {
	var models []ChatMemberModel
	if err := s.db.Where("chat_id = ?", chatID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	members := make([]string, 0, len(models))
	for _, m := range models {
		members = append(members, m.Member)
	}
	return members, nil
}

// AddChatMember inserts the membership and, in the same transaction, flips
// the chat type to group once the member count reaches the threshold. The
// chat row is locked first, so concurrent adds to the same chat serialize and
// the later transaction's count subquery sees the earlier insert; without the
// lock two adds taking the chat from one to three members could each count
// two and neither promote. The promotion UPDATE is additionally guarded by
// chat_type='private', so it applies at most once and removals never demote.
func (s *GormStore) AddChatMember(chatID int64, member string) (bool, error) {
	promoted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var chat ChatModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&chat, "id = ?", chatID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var count int64
		if err := tx.Model(&ChatMemberModel{}).
			Where("chat_id = ? AND member = ?", chatID, member).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyExists
		}
		row := ChatMemberModel{ChatID: chatID, Member: member, CreatedAt: time.Now().UTC()}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res := tx.Model(&ChatModel{}).
			Where("id = ? AND chat_type = ?", chatID, string(domain.ChatPrivate)).
			Where("(SELECT COUNT(*) FROM chat_member_models WHERE chat_id = ?) >= ?", chatID, domain.GroupThreshold).
			Update("chat_type", string(domain.ChatGroup))
		if res.Error != nil {
			return res.Error
		}
		promoted = res.RowsAffected > 0
		return nil
	})
	return promoted, err
}

// RemoveChatMember deletes the membership row. The chat type is left alone:
// a group never demotes back to private.
func (s *GormStore) RemoveChatMember(chatID int64, member string) (bool, error) {
	res := s.db.Where("chat_id = ? AND member = ?", chatID, member).Delete(&ChatMemberModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteChat removes the chat's messages, then its memberships, then the
// chat row itself, all in one transaction.
func (s *GormStore) DeleteChat(chatID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "chat_id = ?", chatID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ChatMemberModel{}, "chat_id = ?", chatID).Error; err != nil {
			return err
		}
		res := tx.Delete(&ChatModel{}, "id = ?", chatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

type chatListRow struct {
	ChatModel
	LastMessageAt *time.Time
}

// ListChatsByMember returns the chats login belongs to, most recently active
// first. Chats with no messages sort after all chats that have at least one.
func (s *GormStore) ListChatsByMember(login string) ([]domain.ChatSummary, error) {
	var rows []chatListRow
	if err := s.db.Model(&ChatModel{}).
		Select("chat_models.*, MAX(message_models.created_at) AS last_message_at").
		Joins("JOIN chat_member_models ON chat_member_models.chat_id = chat_models.id AND chat_member_models.member = ?", login).
		Joins("LEFT JOIN message_models ON message_models.chat_id = chat_models.id").
		Group("chat_models.id").
		Order("MAX(message_models.created_at) DESC NULLS LAST").
		Order("chat_models.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	summaries := make([]domain.ChatSummary, 0, len(rows))
	for _, row := range rows {
		members, err := s.ListChatMembers(row.ChatModel.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.ChatSummary{
			Chat:          chatFromModel(row.ChatModel),
			Members:       members,
			LastMessageAt: row.LastMessageAt,
		})
	}
	return summaries, nil
}

// CountChatsByInitSender counts the chats a login administers.
func (s *GormStore) CountChatsByInitSender(login string) (int64, error) {
	var count int64
	err := s.db.Model(&ChatModel{}).Where("init_sender = ?", login).Count(&count).Error
	return count, err
}

// CreateMessage verifies the sender's membership and inserts the message in
// one transaction, with a server-assigned id and UTC timestamp.
func (s *GormStore) CreateMessage(chatID int64, sender, text string) (domain.Message, error) {
	model := MessageModel{ChatID: chatID, Sender: sender, Text: text, CreatedAt: time.Now().UTC()}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ChatMemberModel{}).
			Where("chat_id = ? AND member = ?", chatID, sender).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotMember
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Message{}, err
	}
	return messageFromModel(model), nil
}

// GetMessage retrieves a message by id.
func (s *GormStore) GetMessage(id int64) (domain.Message, bool, error) {
	var model MessageModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	return messageFromModel(model), true, nil
}

// UpdateMessageText overwrites the body in place. Id and timestamp are
// untouched so edits do not reorder history.
func (s *GormStore) UpdateMessageText(id int64, text string) error {
	res := s.db.Model(&MessageModel{}).Where("id = ?", id).Update("text", text)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteMessage removes the row.
func (s *GormStore) DeleteMessage(id int64) error {
	res := s.db.Delete(&MessageModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListMessagesPage returns up to limit messages newest first starting at
// offset. Timestamp ties break on id descending so pagination stays
// deterministic.
func (s *GormStore) ListMessagesPage(chatID int64, offset, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	var models []MessageModel
	if err := s.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

// DeleteUserCascade removes the user and every reference to its login from
// other users' lists. The owned-chat precondition is re-checked inside the
// transaction so a concurrent chat creation cannot slip through.
func (s *GormStore) DeleteUserCascade(login string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user UserModel
		if err := tx.First(&user, "login = ?", login).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var owned int64
		if err := tx.Model(&ChatModel{}).Where("init_sender = ?", login).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return domain.ErrChatsRemain
		}
		var lists []RelationshipListModel
		if err := tx.Where("owner = ?", login).Find(&lists).Error; err != nil {
			return err
		}
		ids := make([]int64, 0, len(lists))
		for _, list := range lists {
			ids = append(ids, list.ID)
		}
		if len(ids) > 0 {
			if err := tx.Where("list_id IN ?", ids).Delete(&ListMemberModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("member = ?", login).Delete(&ListMemberModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner = ?", login).Delete(&RelationshipListModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "login = ?", login).Error
	})
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		Login:        m.Login,
		PasswordHash: m.PasswordHash,
		PhoneNum:     m.PhoneNum,
		CreatedAt:    m.CreatedAt,
	}
}

func chatFromModel(m ChatModel) domain.Chat {
	return domain.Chat{
		ID:         m.ID,
		Type:       domain.ChatType(m.ChatType),
		InitSender: m.InitSender,
		CreatedAt:  m.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.Sender,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
