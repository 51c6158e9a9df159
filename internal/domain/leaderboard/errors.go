package leaderboard

import "errors"

// ErrUnknownCategory is returned for a category the event does not have.
var ErrUnknownCategory = errors.New("leaderboard: unknown category")
