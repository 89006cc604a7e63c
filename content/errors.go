package content

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrMissingBlockType = errors.New("missing block type")
	ErrMissingField     = errors.New("missing required field")
)

// DataError reports a stored block that cannot be turned into a Block.
// Index is the position of the block in its sequence, or -1 when the
// failure is not tied to a single block.
type DataError struct {
	Index int
	Type  string
	Field string
	Err   error
}

func (e *DataError) Error() string {
	var b strings.Builder
	b.WriteString("content: ")
	if e.Index >= 0 {
		fmt.Fprintf(&b, "block %d", e.Index)
		if e.Type != "" {
			fmt.Fprintf(&b, " (%s)", e.Type)
		}
		b.WriteString(": ")
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q: ", e.Field)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *DataError) Unwrap() error {
	return e.Err
}
