package relationship

import (
	"errors"
	"testing"

	"github.com/rhom001/database-messenger/pkg/directory"
	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/store"
)

func newTestService(t *testing.T, logins ...string) *Service {
	t.Helper()
	st := store.NewMemoryStore()
	dir := directory.NewService(st)
	for _, login := range logins {
		if _, err := dir.Register(login, "s3cret", ""); err != nil {
			t.Fatalf("register %s: %v", login, err)
		}
	}
	return NewService(st, dir)
}

func TestAddContactRejectsUnknownCandidate(t *testing.T) {
	svc := newTestService(t, "alice")
	if _, err := svc.AddContact("alice", "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
	if _, err := svc.AddContact("alice", ""); !errors.Is(err, domain.ErrLoginRequired) {
		t.Fatalf("expected login required, got: %v", err)
	}
}

func TestContactAndBlockListsAreExclusive(t *testing.T) {
	svc := newTestService(t, "alice", "bob")

	outcome, err := svc.AddContact("alice", "bob")
	if err != nil {
		t.Fatalf("add contact: %v", err)
	}
	if outcome != domain.OutcomeAdded {
		t.Fatalf("unexpected outcome: %q", outcome)
	}

	outcome, err = svc.AddBlock("alice", "bob")
	if err != nil {
		t.Fatalf("add block: %v", err)
	}
	if outcome != domain.OutcomeMoved {
		t.Fatalf("expected move outcome, got: %q", outcome)
	}

	contacts, err := svc.ListContacts("alice")
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	if len(contacts) != 0 {
		t.Fatalf("bob still a contact after block: %v", contacts)
	}
	blocked, err := svc.ListBlocked("alice")
	if err != nil {
		t.Fatalf("list blocked: %v", err)
	}
	if len(blocked) != 1 || blocked[0] != "bob" {
		t.Fatalf("unexpected block list: %v", blocked)
	}
}

func TestAddContactIsIdempotent(t *testing.T) {
	svc := newTestService(t, "alice", "bob")
	if _, err := svc.AddContact("alice", "bob"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	outcome, err := svc.AddContact("alice", "bob")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if outcome != domain.OutcomeAlreadyPresent {
		t.Fatalf("expected already present, got: %q", outcome)
	}
}

func TestRemoveContact(t *testing.T) {
	svc := newTestService(t, "alice", "bob")
	if _, err := svc.AddContact("alice", "bob"); err != nil {
		t.Fatalf("add: %v", err)
	}

	removed, err := svc.RemoveContact("alice", "bob")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal")
	}
	removed, err = svc.RemoveContact("alice", "bob")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatalf("second removal should be a no-op")
	}
}

func TestListsAreIndependentPerOwner(t *testing.T) {
	svc := newTestService(t, "alice", "bob")
	if _, err := svc.AddContact("alice", "bob"); err != nil {
		t.Fatalf("alice adds bob: %v", err)
	}
	if _, err := svc.AddBlock("bob", "alice"); err != nil {
		t.Fatalf("bob blocks alice: %v", err)
	}

	contacts, _ := svc.ListContacts("bob")
	if len(contacts) != 0 {
		t.Fatalf("alice's contact leaked into bob's list: %v", contacts)
	}
	blocked, _ := svc.ListBlocked("alice")
	if len(blocked) != 0 {
		t.Fatalf("bob's block leaked into alice's list: %v", blocked)
	}
}
