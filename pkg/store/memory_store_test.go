package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/rhom001/database-messenger/pkg/domain"
)

func newStoreWithUsers(t *testing.T, logins ...string) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	for _, login := range logins {
		if err := s.CreateUser(domain.User{Login: login, PasswordHash: "x"}); err != nil {
			t.Fatalf("create user %s: %v", login, err)
		}
	}
	return s
}

func TestCreateUserRejectsDuplicateLogin(t *testing.T) {
	s := newStoreWithUsers(t, "alice")
	if err := s.CreateUser(domain.User{Login: "alice", PasswordHash: "x"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got: %v", err)
	}
}

func TestAddListMemberMovesBetweenLists(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")

	outcome, err := s.AddListMember("alice", domain.ListBlock, "bob")
	if err != nil {
		t.Fatalf("add block: %v", err)
	}
	if outcome != domain.OutcomeAdded {
		t.Fatalf("unexpected outcome: %q", outcome)
	}

	outcome, err = s.AddListMember("alice", domain.ListContact, "bob")
	if err != nil {
		t.Fatalf("add contact: %v", err)
	}
	if outcome != domain.OutcomeMoved {
		t.Fatalf("expected move, got: %q", outcome)
	}

	contacts, err := s.ListMembers("alice", domain.ListContact)
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0] != "bob" {
		t.Fatalf("unexpected contacts: %v", contacts)
	}
	blocked, err := s.ListMembers("alice", domain.ListBlock)
	if err != nil {
		t.Fatalf("list blocked: %v", err)
	}
	if len(blocked) != 0 {
		t.Fatalf("bob still blocked after move: %v", blocked)
	}
}

func TestAddListMemberAlreadyPresentIsNoOp(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")
	if _, err := s.AddListMember("alice", domain.ListContact, "bob"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	outcome, err := s.AddListMember("alice", domain.ListContact, "bob")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if outcome != domain.OutcomeAlreadyPresent {
		t.Fatalf("expected already present, got: %q", outcome)
	}
	contacts, _ := s.ListMembers("alice", domain.ListContact)
	if len(contacts) != 1 {
		t.Fatalf("duplicate membership written: %v", contacts)
	}
}

func TestRemoveListMemberReportsAbsence(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")
	removed, err := s.RemoveListMember("alice", domain.ListContact, "bob")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed {
		t.Fatalf("expected no-op for absent member")
	}
}

// Two adds racing a chat from one member to three must serialize: the type
// flips to group the instant the count reaches three, and exactly one of the
// adds observes the flip.
func TestConcurrentAddsPromoteExactlyOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := newStoreWithUsers(t, "alice", "bob", "carol")
		created, err := s.CreateChat("alice")
		if err != nil {
			t.Fatalf("create chat: %v", err)
		}

		results := make(chan bool, 2)
		var wg sync.WaitGroup
		for _, member := range []string{"bob", "carol"} {
			wg.Add(1)
			go func(member string) {
				defer wg.Done()
				promoted, err := s.AddChatMember(created.ID, member)
				if err != nil {
					t.Errorf("add %s: %v", member, err)
					return
				}
				results <- promoted
			}(member)
		}
		wg.Wait()
		close(results)

		promotions := 0
		for promoted := range results {
			if promoted {
				promotions++
			}
		}
		if promotions != 1 {
			t.Fatalf("expected exactly one promotion, got %d", promotions)
		}
		chat, _, err := s.GetChat(created.ID)
		if err != nil {
			t.Fatalf("get chat: %v", err)
		}
		if chat.Type != domain.ChatGroup {
			t.Fatalf("three-member chat left %q", chat.Type)
		}
	}
}

// Racing a contact add against a block add for the same pair must never leave
// the member in both lists.
func TestConcurrentListAddsStayExclusive(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := newStoreWithUsers(t, "alice", "bob")

		var wg sync.WaitGroup
		for _, kind := range []domain.ListKind{domain.ListContact, domain.ListBlock} {
			wg.Add(1)
			go func(kind domain.ListKind) {
				defer wg.Done()
				if _, err := s.AddListMember("alice", kind, "bob"); err != nil {
					t.Errorf("add to %s: %v", kind, err)
				}
			}(kind)
		}
		wg.Wait()

		contacts, err := s.ListMembers("alice", domain.ListContact)
		if err != nil {
			t.Fatalf("list contacts: %v", err)
		}
		blocked, err := s.ListMembers("alice", domain.ListBlock)
		if err != nil {
			t.Fatalf("list blocked: %v", err)
		}
		if len(contacts)+len(blocked) != 1 {
			t.Fatalf("member in both lists: contacts=%v blocked=%v", contacts, blocked)
		}
	}
}

func TestChatPromotionAtThreeMembersOnly(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob", "carol")
	created, err := s.CreateChat("alice")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if created.Type != domain.ChatPrivate {
		t.Fatalf("new chat should be private, got %q", created.Type)
	}

	promoted, err := s.AddChatMember(created.ID, "bob")
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if promoted {
		t.Fatalf("promoted at two members")
	}
	promoted, err = s.AddChatMember(created.ID, "carol")
	if err != nil {
		t.Fatalf("add carol: %v", err)
	}
	if !promoted {
		t.Fatalf("expected promotion at three members")
	}

	// Removal never demotes.
	if _, err := s.RemoveChatMember(created.ID, "bob"); err != nil {
		t.Fatalf("remove bob: %v", err)
	}
	chat, _, err := s.GetChat(created.ID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if chat.Type != domain.ChatGroup {
		t.Fatalf("chat demoted after removal: %q", chat.Type)
	}
}

func TestAddChatMemberDuplicate(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")
	created, _ := s.CreateChat("alice")
	if _, err := s.AddChatMember(created.ID, "bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if _, err := s.AddChatMember(created.ID, "bob"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got: %v", err)
	}
}

func TestDeleteChatCascades(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")
	created, _ := s.CreateChat("alice")
	if _, err := s.AddChatMember(created.ID, "bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	msg, err := s.CreateMessage(created.ID, "alice", "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.DeleteChat(created.ID); err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	if _, ok, _ := s.GetChat(created.ID); ok {
		t.Fatalf("chat row survived delete")
	}
	if _, ok, _ := s.GetMessage(msg.ID); ok {
		t.Fatalf("message survived chat delete")
	}
	if member, _ := s.IsChatMember(created.ID, "bob"); member {
		t.Fatalf("membership survived chat delete")
	}
}

func TestCreateMessageRequiresMembership(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")
	created, _ := s.CreateChat("alice")
	if _, err := s.CreateMessage(created.ID, "bob", "hi"); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected not-member, got: %v", err)
	}
}

func TestListMessagesPageNewestFirstWithIDTieBreak(t *testing.T) {
	s := newStoreWithUsers(t, "alice")
	created, _ := s.CreateChat("alice")
	var ids []int64
	for i := 0; i < 25; i++ {
		msg, err := s.CreateMessage(created.ID, "alice", "m")
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		ids = append(ids, msg.ID)
	}

	var seen []int64
	offset := 0
	for {
		page, err := s.ListMessagesPage(created.ID, offset, 10)
		if err != nil {
			t.Fatalf("page at %d: %v", offset, err)
		}
		for _, msg := range page {
			seen = append(seen, msg.ID)
		}
		offset += 10
		if len(page) < 10 {
			break
		}
	}
	if len(seen) != len(ids) {
		t.Fatalf("pagination lost or duplicated rows: got %d, want %d", len(seen), len(ids))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] >= seen[i-1] {
			t.Fatalf("not strictly newest-first at %d: %v", i, seen)
		}
	}
}

func TestListChatsByMemberOrdersByActivity(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")
	first, _ := s.CreateChat("alice")
	second, _ := s.CreateChat("alice")
	empty, _ := s.CreateChat("alice")

	if _, err := s.CreateMessage(first.ID, "alice", "old"); err != nil {
		t.Fatalf("send first: %v", err)
	}
	if _, err := s.CreateMessage(second.ID, "alice", "new"); err != nil {
		t.Fatalf("send second: %v", err)
	}

	summaries, err := s.ListChatsByMember("alice")
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 chats, got %d", len(summaries))
	}
	if summaries[len(summaries)-1].ID != empty.ID {
		t.Fatalf("chat without messages should sort last: %+v", summaries)
	}
	if summaries[len(summaries)-1].LastMessageAt != nil {
		t.Fatalf("empty chat reported a last message time")
	}
}

func TestDeleteUserCascadeScrubsForeignReferences(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob", "carol")
	if _, err := s.AddListMember("bob", domain.ListContact, "alice"); err != nil {
		t.Fatalf("bob adds alice: %v", err)
	}
	if _, err := s.AddListMember("carol", domain.ListBlock, "alice"); err != nil {
		t.Fatalf("carol blocks alice: %v", err)
	}

	if err := s.DeleteUserCascade("alice"); err != nil {
		t.Fatalf("delete alice: %v", err)
	}
	if ok, _ := s.HasUser("alice"); ok {
		t.Fatalf("user row survived")
	}
	contacts, _ := s.ListMembers("bob", domain.ListContact)
	if len(contacts) != 0 {
		t.Fatalf("alice still referenced in bob's contacts: %v", contacts)
	}
	blocked, _ := s.ListMembers("carol", domain.ListBlock)
	if len(blocked) != 0 {
		t.Fatalf("alice still referenced in carol's blocks: %v", blocked)
	}
}

func TestDeleteUserCascadeBlockedByOwnedChat(t *testing.T) {
	s := newStoreWithUsers(t, "alice")
	if _, err := s.CreateChat("alice"); err != nil {
		t.Fatalf("create chat: %v", err)
	}
	if err := s.DeleteUserCascade("alice"); !errors.Is(err, domain.ErrChatsRemain) {
		t.Fatalf("expected chats-remain, got: %v", err)
	}
	if ok, _ := s.HasUser("alice"); !ok {
		t.Fatalf("rejected delete still removed the user")
	}
}
