package parser

import (
	"fmt"

	"github.com/Flesymeb/rustlikec/lexer"
)

// Error is a fatal syntax error: unexpected token, missing terminator, or
// malformed declaration. Parsing stops at the first one (single-error
// reporting, no recovery).
type Error struct {
	Pos      lexer.Position
	Expected string
	Found    lexer.Token
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error at %s: expected %s, found %q", e.Pos, e.Expected, e.Found.Lexeme)
}
