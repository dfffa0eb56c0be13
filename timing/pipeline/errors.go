package pipeline

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is returned when a neighbor breaks the handshake
// contract. The engine latches the first violation and refuses further ticks
// until Reset.
var ErrProtocolViolation = errors.New("protocol violation")

// ErrMisconfiguration is returned when a Config cannot be built.
var ErrMisconfiguration = errors.New("misconfiguration")

// ErrIndexOutOfRange is returned when a request names an item outside the
// state array.
var ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrProtocolViolation)
