package service

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks malformed input, as opposed to a domain rejection.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
