package domain

import "errors"

var (
	// ErrTestNotFound indicates the requested test id is not in the bank.
	ErrTestNotFound = errors.New("invalid test selected")
	// ErrRoomNotFound is returned when a room code resolves to nothing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrUnauthorized is returned for host-only actions requested by a
	// non-host, or submissions from connections that never joined.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNameTaken is returned when a display name is already used in a room.
	ErrNameTaken = errors.New("display name already taken")
	// ErrGameNotInProgress rejects gameplay actions outside an active game.
	ErrGameNotInProgress = errors.New("game not in progress")
	// ErrGameEnded rejects joins and lifecycle transitions on an ended room.
	ErrGameEnded = errors.New("game has ended")
	// ErrGameAlreadyStarted rejects a second start on a running room.
	ErrGameAlreadyStarted = errors.New("game already started")
)
