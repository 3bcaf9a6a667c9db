package game

import "errors"

var (
	// ErrUnknownPlayer is returned when a name does not belong to an active seat.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrActionNotAllowed is returned when an action's precondition does not hold.
	ErrActionNotAllowed = errors.New("action not allowed")
	// ErrInvalidGame is returned for an unknown game type or trump suit.
	ErrInvalidGame = errors.New("invalid game")
	// ErrInvalidState is returned for tables that cannot be built from the given input.
	ErrInvalidState = errors.New("invalid table state")
)
