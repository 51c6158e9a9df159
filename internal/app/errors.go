package service

import (
	"fmt"

	"github.com/okian/finishline/internal/domain/types"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = fmt.Errorf("service not started: %w", types.ErrUnavailable)
