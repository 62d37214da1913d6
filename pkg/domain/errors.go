package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced user, chat, or message does
	// not exist. Callers must abort rather than proceed with partial writes.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the actor lacks the required role:
	// a chat's init sender for membership changes, a message's original
	// sender for edits and deletes.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists is returned when a create would duplicate existing
	// state, e.g. registering a taken login.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotMember is returned when an operation requires a current chat
	// membership the login does not hold.
	ErrNotMember = errors.New("not a chat member")

	// ErrChatsRemain blocks account deletion while the login is still the
	// init sender of any chat.
	ErrChatsRemain = errors.New("account still owns chats")

	// ErrInvalidCredentials is returned on a failed login. The message is
	// deliberately unspecific to avoid account enumeration.
	ErrInvalidCredentials = errors.New("incorrect login or password")

	// ErrLoginRequired is returned for empty or blank logins.
	ErrLoginRequired = errors.New("login required")
)
