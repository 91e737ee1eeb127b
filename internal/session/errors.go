package session

import "errors"

// Validation errors returned on command reply channels. They never
// mutate session state.
var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidFEN      = errors.New("invalid FEN")
	ErrBadSquare       = errors.New("bad square")
	ErrSkillOutOfRange = errors.New("skill level out of range (0-20)")
	ErrSessionNotFound = errors.New("session not found")
	ErrGameEnded       = errors.New("game has ended")
	ErrNotPaused       = errors.New("session is not paused")
	ErrAlreadyPaused   = errors.New("session is already paused")
	ErrNoEngine        = errors.New("no engine attached")
	ErrMailboxClosed   = errors.New("session mailbox closed")
)
