package engine

import "errors"

var (
	// ErrRejected signals a validation rejection: the submitted action broke
	// a rule, no event was appended and state is unchanged.
	ErrRejected = errors.New("action rejected")

	// ErrTileNotFound signals a data-integrity fault: an event referenced a
	// tile absent from its source collection. The log no longer reconciles.
	ErrTileNotFound = errors.New("tile not found in source collection")

	// ErrMixedSuits signals declared melds spanning two numbered suits.
	// Mixed-suit hands are permanently illegal.
	ErrMixedSuits = errors.New("declared melds mix numbered suits")
)
