package account

import (
	"errors"
	"testing"

	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/store"
)

func newTestService(t *testing.T, logins ...string) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	for _, login := range logins {
		if err := st.CreateUser(domain.User{Login: login, PasswordHash: "x"}); err != nil {
			t.Fatalf("create user %s: %v", login, err)
		}
	}
	return NewService(st), st
}

func TestDeleteValidation(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Delete("  "); !errors.Is(err, domain.ErrLoginRequired) {
		t.Fatalf("expected login required, got: %v", err)
	}
	if err := svc.Delete("ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestDeleteBlockedWhileOwningChats(t *testing.T) {
	svc, st := newTestService(t, "alice")
	created, err := st.CreateChat("alice")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	if err := svc.Delete("alice"); !errors.Is(err, domain.ErrChatsRemain) {
		t.Fatalf("expected chats-remain, got: %v", err)
	}
	if ok, _ := st.HasUser("alice"); !ok {
		t.Fatalf("rejected delete removed the user")
	}

	if err := st.DeleteChat(created.ID); err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	if err := svc.Delete("alice"); err != nil {
		t.Fatalf("delete after disposing chat: %v", err)
	}
	if ok, _ := st.HasUser("alice"); ok {
		t.Fatalf("user survived delete")
	}
}

func TestDeleteScrubsOtherUsersLists(t *testing.T) {
	svc, st := newTestService(t, "alice", "bob")
	if _, err := st.AddListMember("bob", domain.ListContact, "alice"); err != nil {
		t.Fatalf("bob adds alice: %v", err)
	}

	if err := svc.Delete("alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	contacts, err := st.ListMembers("bob", domain.ListContact)
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	if len(contacts) != 0 {
		t.Fatalf("deleted user still referenced: %v", contacts)
	}
}
