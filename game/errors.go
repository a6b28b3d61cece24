package game

import "errors"

// Sentinel errors returned by room operations. Handlers map these to HTTP
// statuses with errors.Is; the core never produces user-facing message text.
var (
	ErrNotFound            = errors.New("not found")
	ErrNotHost             = errors.New("caller is not the host")
	ErrAlreadyMember       = errors.New("user is already a member")
	ErrInsufficientPlayers = errors.New("room needs at least two players")
	ErrWinnerConflict      = errors.New("round winner already claimed")
	ErrInvalidState        = errors.New("operation not allowed in current room status")
	ErrInvalidScore        = errors.New("invalid score")
)
