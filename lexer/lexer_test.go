package lexer_test

import (
	"testing"

	"github.com/Flesymeb/rustlikec/lexer"
)

func TestTokenize_BasicTokens(t *testing.T) {
	input := "let mut x: i32 = 1 + 2;"
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []lexer.TokenType{
		lexer.TokenKeyword, // let
		lexer.TokenKeyword, // mut
		lexer.TokenIdent,   // x
		lexer.TokenColon,
		lexer.TokenKeyword, // i32
		lexer.TokenAssign,
		lexer.TokenInt,
		lexer.TokenPlus,
		lexer.TokenInt,
		lexer.TokenSemi,
		lexer.TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, tokens[i].Type)
		}
	}
}

func TestTokenize_MultiCharOperatorsBeforePrefixes(t *testing.T) {
	tests := []struct {
		input string
		want  lexer.TokenType
	}{
		{"==", lexer.TokenEq},
		{">=", lexer.TokenGe},
		{"<=", lexer.TokenLe},
		{"!=", lexer.TokenNe},
		{"->", lexer.TokenArrow},
		{"..", lexer.TokenDotDot},
		{"&&", lexer.TokenAndAnd},
		{"||", lexer.TokenOrOr},
		{"=", lexer.TokenAssign},
		{">", lexer.TokenGt},
		{"<", lexer.TokenLt},
		{"!", lexer.TokenNot},
		{"-", lexer.TokenMinus},
		{".", lexer.TokenDot},
		{"&", lexer.TokenAmp},
	}
	for _, tc := range tests {
		tokens, err := lexer.Tokenize(tc.input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.input, err)
		}
		if tokens[0].Type != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.input, tc.want, tokens[0].Type)
		}
	}
}

func TestTokenize_StringEscapes(t *testing.T) {
	tokens, err := lexer.Tokenize(`"a\nb\t\"c\\"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Type != lexer.TokenString {
		t.Fatalf("expected STRING, got %v", tokens[0].Type)
	}
	if got, want := tokens[0].Lexeme, "a\nb\t\"c\\"; got != want {
		t.Errorf("lexeme = %q, want %q", got, want)
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	_, err := lexer.Tokenize(`"unterminated`)
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
	lexErr, ok := err.(*lexer.Error)
	if !ok {
		t.Fatalf("expected *lexer.Error, got %T", err)
	}
	if lexErr.Kind != lexer.ErrorUnterminatedString {
		t.Errorf("expected ErrorUnterminatedString, got %v", lexErr.Kind)
	}
}

func TestTokenize_NumberOverflow(t *testing.T) {
	_, err := lexer.Tokenize("99999999999999999999")
	if err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestTokenize_UnknownChar(t *testing.T) {
	_, err := lexer.Tokenize("let x = 1 @ 2;")
	if err == nil {
		t.Fatal("expected error for unknown character")
	}
}

func TestTokenize_CommentsSkipped(t *testing.T) {
	input := "// line comment\nlet x = 1; /* block\ncomment */ let y = 2;"
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// two statements, each 5 tokens (let ident = int ;), plus EOF
	if len(tokens) != 11 {
		t.Fatalf("expected 11 tokens, got %d: %v", len(tokens), tokens)
	}
}

func TestTokenize_PositionMonotonicity(t *testing.T) {
	input := "let x = 1;\nlet y = 2;"
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		if b.Pos.Line < a.Pos.Line {
			t.Fatalf("token %d has earlier line than token %d", i+1, i)
		}
		if b.Pos.Line == a.Pos.Line && b.Pos.Column < a.Pos.Column+len(a.Lexeme) {
			t.Fatalf("token %d column %d overlaps token %d (col %d, len %d)",
				i+1, b.Pos.Column, i, a.Pos.Column, len(a.Lexeme))
		}
	}
}

func TestTokenize_Keywords(t *testing.T) {
	input := "fn let mut if else while for in loop break continue return true false i32 bool"
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i].Type != lexer.TokenKeyword {
			t.Errorf("token %d (%q): expected KEYWORD, got %v", i, tokens[i].Lexeme, tokens[i].Type)
		}
	}
}
