package patch

import (
	"errors"
	"fmt"
)

// ErrStructural marks a malformed patch entry.
var ErrStructural = errors.New("malformed patch")

// StructuralError describes why one document entry was rejected.
type StructuralError struct {
	Index    int
	Action   string
	EventKey string
	Field    string
	Msg      string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	where := fmt.Sprintf("entry %d", e.Index)
	if e.EventKey != "" {
		where += " (" + e.EventKey + ")"
	}
	if e.Field != "" {
		return fmt.Sprintf("%v: %s: %s: %s", ErrStructural, where, e.Field, e.Msg)
	}
	return fmt.Sprintf("%v: %s: %s", ErrStructural, where, e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }
