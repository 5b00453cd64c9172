package ir

import (
	"fmt"

	"github.com/Flesymeb/rustlikec/lexer"
)

// Error reports a construct that type-checks but has no lowering to
// quadruples, such as a borrow expression reaching a value position.
type Error struct {
	Pos     lexer.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error at %s: %s", e.Pos, e.Message)
}
