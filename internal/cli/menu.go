// Package cli is the textual front end. It only reads input, invokes the
// core services, and renders their results; every rule lives below it.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rhom001/database-messenger/internal/ratelimit"
	"github.com/rhom001/database-messenger/pkg/account"
	"github.com/rhom001/database-messenger/pkg/chat"
	"github.com/rhom001/database-messenger/pkg/directory"
	"github.com/rhom001/database-messenger/pkg/domain"
	"github.com/rhom001/database-messenger/pkg/message"
	"github.com/rhom001/database-messenger/pkg/relationship"
	"github.com/rhom001/database-messenger/pkg/store"
)

// Menu drives the numbered menus over the core services.
type Menu struct {
	dir      *directory.Service
	rel      *relationship.Service
	chats    *chat.Service
	messages *message.Service
	accounts *account.Service
	sessions store.SessionStore
	limiter  *ratelimit.FixedWindowLimiter

	in  *bufio.Reader
	out io.Writer
	eof bool
}

type Config struct {
	Directory    *directory.Service
	Relationship *relationship.Service
	Chats        *chat.Service
	Messages     *message.Service
	Accounts     *account.Service
	Sessions     store.SessionStore
	LoginLimiter *ratelimit.FixedWindowLimiter // optional
	In           io.Reader
	Out          io.Writer
}

func New(cfg Config) *Menu {
	return &Menu{
		dir:      cfg.Directory,
		rel:      cfg.Relationship,
		chats:    cfg.Chats,
		messages: cfg.Messages,
		accounts: cfg.Accounts,
		sessions: cfg.Sessions,
		limiter:  cfg.LoginLimiter,
		in:       bufio.NewReader(cfg.In),
		out:      cfg.Out,
	}
}

// Run loops on the top-level menu until the user exits.
func (m *Menu) Run() {
	for {
		fmt.Fprintln(m.out, "MAIN MENU")
		fmt.Fprintln(m.out, "---------")
		fmt.Fprintln(m.out, "1. Create user")
		fmt.Fprintln(m.out, "2. Log in")
		fmt.Fprintln(m.out, "9. < EXIT")
		switch m.readChoice() {
		case 1:
			m.createUser()
		case 2:
			if token, login := m.logIn(); token != "" {
				m.userMenu(token, login)
			}
		case 9:
			return
		default:
			fmt.Fprintln(m.out, "Unrecognized choice!")
		}
	}
}

func (m *Menu) createUser() {
	login := m.prompt("Enter user login: ")
	password := m.prompt("Enter user password: ")
	phone := m.prompt("Enter user phone: ")
	if _, err := m.dir.Register(login, password, phone); err != nil {
		m.report(err)
		return
	}
	fmt.Fprintln(m.out, "User successfully created!")
}

func (m *Menu) logIn() (token, login string) {
	login = m.prompt("Enter user login: ")
	password := m.prompt("Enter user password: ")
	if m.limiter != nil && !m.limiter.Allow(login) {
		fmt.Fprintln(m.out, "Too many sign-in attempts, try again later.")
		return "", ""
	}
	authed, err := m.dir.Authenticate(login, password)
	if err != nil {
		m.report(err)
		return "", ""
	}
	token, err = m.sessions.NewSession(authed)
	if err != nil {
		m.report(err)
		return "", ""
	}
	return token, authed
}

func (m *Menu) userMenu(token, login string) {
	defer m.sessions.DeleteSession(token)
	for {
		fmt.Fprintln(m.out, "USER MENU")
		fmt.Fprintln(m.out, "---------")
		fmt.Fprintln(m.out, "1. Contact list")
		fmt.Fprintln(m.out, "2. Block list")
		fmt.Fprintln(m.out, "3. Chat list")
		fmt.Fprintln(m.out, "4. Delete account")
		fmt.Fprintln(m.out, "9. Log out")
		switch m.readChoice() {
		case 1:
			m.listMenu(login, domain.ListContact)
		case 2:
			m.listMenu(login, domain.ListBlock)
		case 3:
			m.chatMenu(login)
		case 4:
			if m.deleteAccount(login) {
				return
			}
		case 9:
			return
		default:
			fmt.Fprintln(m.out, "Unrecognized choice!")
		}
	}
}

func (m *Menu) listMenu(login string, kind domain.ListKind) {
	name := "Contact"
	if kind == domain.ListBlock {
		name = "Block"
	}
	for {
		fmt.Fprintf(m.out, "%s List Menu\n", name)
		fmt.Fprintln(m.out, "-----------")
		fmt.Fprintf(m.out, "1. Browse %s list\n", strings.ToLower(name))
		fmt.Fprintf(m.out, "2. Add to %s list\n", strings.ToLower(name))
		fmt.Fprintf(m.out, "3. Delete from %s list\n", strings.ToLower(name))
		fmt.Fprintln(m.out, "9. Return to user menu")
		switch m.readChoice() {
		case 1:
			m.browseList(login, kind)
		case 2:
			m.addToList(login, kind)
		case 3:
			m.removeFromList(login, kind)
		case 9:
			return
		default:
			fmt.Fprintln(m.out, "Unrecognized choice!")
		}
	}
}

func (m *Menu) browseList(login string, kind domain.ListKind) {
	var members []string
	var err error
	if kind == domain.ListContact {
		members, err = m.rel.ListContacts(login)
	} else {
		members, err = m.rel.ListBlocked(login)
	}
	if err != nil {
		m.report(err)
		return
	}
	for _, member := range members {
		fmt.Fprintln(m.out, member)
	}
}

func (m *Menu) addToList(login string, kind domain.ListKind) {
	candidate := m.prompt("Enter login to add: ")
	// Offer the move before performing it, as the core reports but does not ask.
	var other []string
	var err error
	if kind == domain.ListContact {
		other, err = m.rel.ListBlocked(login)
	} else {
		other, err = m.rel.ListContacts(login)
	}
	if err != nil {
		m.report(err)
		return
	}
	for _, member := range other {
		if member == strings.TrimSpace(candidate) {
			if !m.readYN(candidate + " is on your other list. Move them?") {
				fmt.Fprintln(m.out, "Cancelled; "+candidate+" stays where they were.")
				return
			}
		}
	}
	var outcome domain.ListAddOutcome
	if kind == domain.ListContact {
		outcome, err = m.rel.AddContact(login, candidate)
	} else {
		outcome, err = m.rel.AddBlock(login, candidate)
	}
	if err != nil {
		m.report(err)
		return
	}
	switch outcome {
	case domain.OutcomeAlreadyPresent:
		fmt.Fprintln(m.out, candidate+" is already on the list.")
	case domain.OutcomeMoved:
		fmt.Fprintln(m.out, candidate+" has been moved over.")
	default:
		fmt.Fprintln(m.out, candidate+" has been added.")
	}
}

func (m *Menu) removeFromList(login string, kind domain.ListKind) {
	candidate := m.prompt("Enter login to delete: ")
	var removed bool
	var err error
	if kind == domain.ListContact {
		removed, err = m.rel.RemoveContact(login, candidate)
	} else {
		removed, err = m.rel.RemoveBlock(login, candidate)
	}
	if err != nil {
		m.report(err)
		return
	}
	if !removed {
		fmt.Fprintln(m.out, candidate+" is not on the list; nothing to delete.")
		return
	}
	fmt.Fprintln(m.out, candidate+" has been deleted.")
}

func (m *Menu) chatMenu(login string) {
	for {
		fmt.Fprintln(m.out, "Chat List Menu")
		fmt.Fprintln(m.out, "--------------")
		fmt.Fprintln(m.out, "1. Browse chat list")
		fmt.Fprintln(m.out, "2. Open a chat")
		fmt.Fprintln(m.out, "3. Add a new chat")
		fmt.Fprintln(m.out, "4. Delete a chat")
		fmt.Fprintln(m.out, "9. Return to user menu")
		switch m.readChoice() {
		case 1:
			m.browseChats(login)
		case 2:
			if id, ok := m.promptChatID(); ok {
				m.openChat(login, id)
			}
		case 3:
			m.createChat(login)
		case 4:
			m.deleteChat(login)
		case 9:
			return
		default:
			fmt.Fprintln(m.out, "Unrecognized choice!")
		}
	}
}

func (m *Menu) browseChats(login string) {
	summaries, err := m.chats.ListFor(login)
	if err != nil {
		m.report(err)
		return
	}
	for _, summary := range summaries {
		fmt.Fprintf(m.out, "Chat #%d (%s)\n", summary.ID, summary.Type)
		if summary.LastMessageAt != nil {
			fmt.Fprintf(m.out, "\tLast updated: %s\n", summary.LastMessageAt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintln(m.out, "\tNo messages yet")
		}
		fmt.Fprintln(m.out, "\tMembers:")
		for _, member := range summary.Members {
			fmt.Fprintf(m.out, "\t%s\n", member)
		}
	}
}

func (m *Menu) createChat(login string) {
	created, err := m.chats.Create(login)
	if err != nil {
		m.report(err)
		return
	}
	fmt.Fprintf(m.out, "Chat #%d created.\n", created.ID)
	for {
		candidate := m.prompt("Enter user to add: ")
		result, err := m.chats.AddMember(login, created.ID, candidate)
		if err != nil {
			m.report(err)
		} else if result.AlreadyMember {
			fmt.Fprintln(m.out, candidate+" is already a member of this chat.")
		} else {
			fmt.Fprintln(m.out, candidate+" has been added to the chat.")
			if result.Promoted {
				fmt.Fprintln(m.out, "The chat is now a group chat.")
			}
		}
		if m.readYN("Are these all the users you want to add?") || m.eof {
			break
		}
	}
	text := m.prompt("Type the first message: ")
	if _, err := m.messages.Send(created.ID, login, text); err != nil {
		m.report(err)
		return
	}
	fmt.Fprintln(m.out, "Message has been sent.")
}

func (m *Menu) deleteChat(login string) {
	id, ok := m.promptChatID()
	if !ok {
		return
	}
	if !m.readYN("Are you sure you want to delete this chat?") {
		return
	}
	if err := m.chats.Delete(login, id); err != nil {
		m.report(err)
		return
	}
	fmt.Fprintln(m.out, "Chat deleted.")
}

func (m *Menu) openChat(login string, chatID int64) {
	member, err := m.chats.IsMember(chatID, login)
	if err != nil {
		m.report(err)
		return
	}
	if !member {
		fmt.Fprintln(m.out, "You are not a member of this chat.")
		return
	}
	offset := 0
	m.showPage(chatID, &offset)
	for {
		fmt.Fprintf(m.out, "Chat #%d Menu\n", chatID)
		fmt.Fprintln(m.out, "------------")
		fmt.Fprintln(m.out, "1. Add new message")
		fmt.Fprintln(m.out, "2. Edit a message")
		fmt.Fprintln(m.out, "3. Delete a message")
		fmt.Fprintln(m.out, "4. Display more messages")
		fmt.Fprintln(m.out, "5. Add chat member")
		fmt.Fprintln(m.out, "6. Remove chat member")
		fmt.Fprintln(m.out, "9. Back to chat list")
		switch m.readChoice() {
		case 1:
			text := m.prompt("Please type your message: ")
			if _, err := m.messages.Send(chatID, login, text); err != nil {
				m.report(err)
			} else {
				fmt.Fprintln(m.out, "Message has been sent.")
			}
		case 2:
			m.editMessage(login)
		case 3:
			m.deleteMessage(login)
		case 4:
			m.showPage(chatID, &offset)
		case 5:
			candidate := m.prompt("Enter user to add: ")
			result, err := m.chats.AddMember(login, chatID, candidate)
			if err != nil {
				m.report(err)
			} else if result.AlreadyMember {
				fmt.Fprintln(m.out, candidate+" is already a member of this chat.")
			} else {
				fmt.Fprintln(m.out, candidate+" has been added to the chat.")
				if result.Promoted {
					fmt.Fprintln(m.out, "The chat is now a group chat.")
				}
			}
		case 6:
			candidate := m.prompt("Enter user to remove: ")
			removed, err := m.chats.RemoveMember(login, chatID, candidate)
			if err != nil {
				m.report(err)
			} else if !removed {
				fmt.Fprintln(m.out, candidate+" is not a member of this chat.")
			} else {
				fmt.Fprintln(m.out, candidate+" has been removed from the chat.")
			}
		case 9:
			return
		default:
			fmt.Fprintln(m.out, "Unrecognized choice!")
		}
	}
}

func (m *Menu) showPage(chatID int64, offset *int) {
	page, err := m.messages.Page(chatID, *offset, message.DefaultPageSize)
	if err != nil {
		m.report(err)
		return
	}
	if len(page) == 0 {
		fmt.Fprintln(m.out, "No more messages.")
		return
	}
	for _, msg := range page {
		fmt.Fprintf(m.out, "Message #%d\n", msg.ID)
		fmt.Fprintf(m.out, "\tSent at: %s\n", msg.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(m.out, "\tFrom: %s\n", msg.Sender)
		fmt.Fprintf(m.out, "\t%s\n", msg.Text)
	}
	*offset += len(page)
}

func (m *Menu) editMessage(login string) {
	id, ok := m.promptID("Message to update: ")
	if !ok {
		return
	}
	text := m.prompt("New text: ")
	if err := m.messages.Edit(id, login, text); err != nil {
		m.report(err)
		return
	}
	fmt.Fprintln(m.out, "Message has been edited.")
}

func (m *Menu) deleteMessage(login string) {
	id, ok := m.promptID("Message to delete: ")
	if !ok {
		return
	}
	if !m.readYN("Are you sure you want to delete this message?") {
		return
	}
	if err := m.messages.Delete(id, login); err != nil {
		m.report(err)
		return
	}
	fmt.Fprintln(m.out, "Message has been deleted.")
}

func (m *Menu) deleteAccount(login string) bool {
	if !m.readYN("Are you sure you want to delete your account?") {
		return false
	}
	if err := m.accounts.Delete(login); err != nil {
		if errors.Is(err, domain.ErrChatsRemain) {
			fmt.Fprintln(m.out, "Please delete all chats you own first.")
			return false
		}
		m.report(err)
		return false
	}
	fmt.Fprintln(m.out, "Your account has been deleted. You are now logged out.")
	return true
}

func (m *Menu) prompt(label string) string {
	fmt.Fprint(m.out, label)
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		m.eof = true
	}
	return strings.TrimSpace(line)
}

// readChoice re-prompts on garbage but treats exhausted input as "back",
// so an EOF unwinds every nested menu instead of spinning.
func (m *Menu) readChoice() int {
	for {
		raw := m.prompt("Please make your choice: ")
		if m.eof {
			return 9
		}
		choice, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintln(m.out, "Your input is invalid!")
			continue
		}
		return choice
	}
}

func (m *Menu) readYN(label string) bool {
	for {
		switch strings.ToLower(m.prompt(label + " (y/n): ")) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		if m.eof {
			return false
		}
		fmt.Fprintln(m.out, "Please answer 'y' or 'n'.")
	}
}

func (m *Menu) promptChatID() (int64, bool) {
	return m.promptID("Chat id: ")
}

func (m *Menu) promptID(label string) (int64, bool) {
	raw := m.prompt(label)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintln(m.out, "Your input is invalid!")
		return 0, false
	}
	return id, true
}

func (m *Menu) report(err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintln(m.out, "That user, chat, or message does not exist.")
	case errors.Is(err, domain.ErrUnauthorized):
		fmt.Fprintln(m.out, "You are not allowed to do that.")
	case errors.Is(err, domain.ErrAlreadyExists):
		fmt.Fprintln(m.out, "That already exists.")
	case errors.Is(err, domain.ErrNotMember):
		fmt.Fprintln(m.out, "You are not a member of this chat.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		fmt.Fprintln(m.out, "Incorrect login or password.")
	case errors.Is(err, domain.ErrLoginRequired):
		fmt.Fprintln(m.out, "A login is required.")
	case errors.Is(err, directory.ErrPasswordRequired):
		fmt.Fprintln(m.out, "A password is required.")
	case errors.Is(err, message.ErrTextRequired):
		fmt.Fprintln(m.out, "The message cannot be empty.")
	default:
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
}
