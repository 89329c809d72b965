package convert

import (
	"fmt"

	"github.com/pkg/errors"
)

// UsageError reports a malformed invocation: wrong argument count or an
// invalid option value. No file is written when it is returned.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// IOError reports a source that could not be read in full or a destination
// that could not be written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}
