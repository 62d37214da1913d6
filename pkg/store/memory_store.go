package store

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rhom001/database-messenger/pkg/domain"
)

// MemoryStore keeps everything in-process. It implements the same contract
// as GormStore, including the atomicity of the multi-step operations, and is
// used by tests and front ends running without a database.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]domain.User
	lists       map[string]map[domain.ListKind][]string // owner -> kind -> members, insertion order
	chats       map[int64]domain.Chat
	chatOrder   []int64
	chatMembers map[int64][]string // join order
	messages    map[int64]domain.Message
	nextChatID  int64
	nextMsgID   int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		lists:       make(map[string]map[domain.ListKind][]string),
		chats:       make(map[int64]domain.Chat),
		chatMembers: make(map[int64][]string),
		messages:    make(map[int64]domain.Message),
	}
}

// CreateUser registers a user with empty contact and block lists.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Login]; exists {
		return domain.ErrAlreadyExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.Login] = u
	m.lists[u.Login] = map[domain.ListKind][]string{
		domain.ListContact: {},
		domain.ListBlock:   {},
	}
	return nil
}

// GetUser looks up a user by login.
func (m *MemoryStore) GetUser(login string) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[login]
	return u, ok, nil
}

// HasUser checks whether a login is registered.
func (m *MemoryStore) HasUser(login string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[login]
	return ok, nil
}

// AddListMember inserts member into owner's list, moving it out of the
// opposite list when present there.
func (m *MemoryStore) AddListMember(owner string, kind domain.ListKind, member string) (domain.ListAddOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lists, ok := m.lists[owner]
	if !ok {
		return "", domain.ErrNotFound
	}
	if slices.Contains(lists[kind], member) {
		return domain.OutcomeAlreadyPresent, nil
	}
	outcome := domain.OutcomeAdded
	other := kind.Other()
	if i := slices.Index(lists[other], member); i >= 0 {
		lists[other] = slices.Delete(lists[other], i, i+1)
		outcome = domain.OutcomeMoved
	}
	lists[kind] = append(lists[kind], member)
	return outcome, nil
}

// RemoveListMember deletes the membership, reporting whether it was present.
func (m *MemoryStore) RemoveListMember(owner string, kind domain.ListKind, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lists, ok := m.lists[owner]
	if !ok {
		return false, domain.ErrNotFound
	}
	i := slices.Index(lists[kind], member)
	if i < 0 {
		return false, nil
	}
	lists[kind] = slices.Delete(lists[kind], i, i+1)
	return true, nil
}

// ListMembers returns the list's members in insertion order.
func (m *MemoryStore) ListMembers(owner string, kind domain.ListKind) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lists, ok := m.lists[owner]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(lists[kind]), nil
}

// CreateChat inserts a private chat with the initiator as sole member.
func (m *MemoryStore) CreateChat(initSender string) (domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextChatID++
	chat := domain.Chat{
		ID:         m.nextChatID,
		Type:       domain.ChatPrivate,
		InitSender: initSender,
		CreatedAt:  time.Now().UTC(),
	}
	m.chats[chat.ID] = chat
	m.chatOrder = append(m.chatOrder, chat.ID)
	m.chatMembers[chat.ID] = []string{initSender}
	return chat, nil
}

// GetChat retrieves a chat by id.
func (m *MemoryStore) GetChat(id int64) (domain.Chat, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	return c, ok, nil
}

// IsChatMember reports whether login currently belongs to the chat.
func (m *MemoryStore) IsChatMember(chatID int64, login string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.chatMembers[chatID], login), nil
}

// ListChatMembers returns the chat's members in join order.
func (m *MemoryStore) ListChatMembers(chatID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.chatMembers[chatID]), nil
}

// AddChatMember inserts the membership and promotes the chat to group the
// instant the member count reaches the threshold. The whole step runs under
// one lock, mirroring the single transaction of the DB store.
func (m *MemoryStore) AddChatMember(chatID int64, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[chatID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if slices.Contains(m.chatMembers[chatID], member) {
		return false, domain.ErrAlreadyExists
	}
	m.chatMembers[chatID] = append(m.chatMembers[chatID], member)
	if chat.Type == domain.ChatPrivate && len(m.chatMembers[chatID]) >= domain.GroupThreshold {
		chat.Type = domain.ChatGroup
		m.chats[chatID] = chat
		return true, nil
	}
	return false, nil
}

// RemoveChatMember deletes the membership. The chat type never demotes.
func (m *MemoryStore) RemoveChatMember(chatID int64, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := m.chatMembers[chatID]
	i := slices.Index(members, member)
	if i < 0 {
		return false, nil
	}
	m.chatMembers[chatID] = slices.Delete(members, i, i+1)
	return true, nil
}

// DeleteChat removes the chat with its memberships and messages.
func (m *MemoryStore) DeleteChat(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[chatID]; !ok {
		return domain.ErrNotFound
	}
	for id, msg := range m.messages {
		if msg.ChatID == chatID {
			delete(m.messages, id)
		}
	}
	delete(m.chatMembers, chatID)
	delete(m.chats, chatID)
	if i := slices.Index(m.chatOrder, chatID); i >= 0 {
		m.chatOrder = slices.Delete(m.chatOrder, i, i+1)
	}
	return nil
}

// ListChatsByMember returns login's chats, most recently active first; chats
// without messages sort last.
func (m *MemoryStore) ListChatsByMember(login string) ([]domain.ChatSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var summaries []domain.ChatSummary
	for _, id := range m.chatOrder {
		if !slices.Contains(m.chatMembers[id], login) {
			continue
		}
		var last *time.Time
		for _, msg := range m.messages {
			if msg.ChatID != id {
				continue
			}
			if last == nil || msg.CreatedAt.After(*last) {
				ts := msg.CreatedAt
				last = &ts
			}
		}
		summaries = append(summaries, domain.ChatSummary{
			Chat:          m.chats[id],
			Members:       slices.Clone(m.chatMembers[id]),
			LastMessageAt: last,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessageAt, summaries[j].LastMessageAt
		switch {
		case a == nil && b == nil:
			return summaries[i].ID > summaries[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return summaries[i].ID > summaries[j].ID
		}
	})
	return summaries, nil
}

// CountChatsByInitSender counts the chats a login administers.
func (m *MemoryStore) CountChatsByInitSender(login string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, chat := range m.chats {
		if chat.InitSender == login {
			count++
		}
	}
	return count, nil
}

// CreateMessage checks membership and inserts the message under one lock.
func (m *MemoryStore) CreateMessage(chatID int64, sender, text string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.chatMembers[chatID], sender) {
		return domain.Message{}, domain.ErrNotMember
	}
	m.nextMsgID++
	msg := domain.Message{
		ID:        m.nextMsgID,
		ChatID:    chatID,
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	m.messages[msg.ID] = msg
	return msg, nil
}

// GetMessage retrieves a message by id.
func (m *MemoryStore) GetMessage(id int64) (domain.Message, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	return msg, ok, nil
}

// UpdateMessageText overwrites the body; id and timestamp stay put.
func (m *MemoryStore) UpdateMessageText(id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return domain.ErrNotFound
	}
	msg.Text = text
	m.messages[id] = msg
	return nil
}

// DeleteMessage removes the row.
func (m *MemoryStore) DeleteMessage(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.messages, id)
	return nil
}

// ListMessagesPage returns up to limit messages newest first from offset,
// ties broken by id descending.
func (m *MemoryStore) ListMessagesPage(chatID int64, offset, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var msgs []domain.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		}
		return msgs[i].ID > msgs[j].ID
	})
	if offset >= len(msgs) {
		return []domain.Message{}, nil
	}
	end := offset + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return slices.Clone(msgs[offset:end]), nil
}

// DeleteUserCascade removes the user, its lists, and every appearance of its
// login in other users' lists, after re-checking the owned-chat precondition.
func (m *MemoryStore) DeleteUserCascade(login string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[login]; !ok {
		return domain.ErrNotFound
	}
	for _, chat := range m.chats {
		if chat.InitSender == login {
			return domain.ErrChatsRemain
		}
	}
	delete(m.lists, login)
	for owner, lists := range m.lists {
		for kind, members := range lists {
			if i := slices.Index(members, login); i >= 0 {
				m.lists[owner][kind] = slices.Delete(members, i, i+1)
			}
		}
	}
	delete(m.users, login)
	return nil
}
