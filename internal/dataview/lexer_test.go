package dataview_test

import (
	"testing"

	"github.com/goliatone/go-memory/internal/dataview"
)

func tokenTypes(t *testing.T, tokens []dataview.Token) []dataview.TokenType {
	t.Helper()
	types := make([]dataview.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestTokenizeKeywords(t *testing.T) {
	tokens, err := dataview.Tokenize(`TABLE title FROM "projects" WHERE status = "active" SORT title ASC LIMIT 10`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	types := tokenTypes(t, tokens)
	want := []dataview.TokenType{
		dataview.TokenTable, dataview.TokenIdentifier, dataview.TokenFrom, dataview.TokenString,
		dataview.TokenWhere, dataview.TokenIdentifier, dataview.TokenEquals, dataview.TokenString,
		dataview.TokenSort, dataview.TokenIdentifier, dataview.TokenAsc, dataview.TokenLimit,
		dataview.TokenNumber, dataview.TokenEOF,
	}
	if len(types) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(types), types)
	}
	for i, tt := range want {
		if types[i] != tt {
			t.Fatalf("token %d: expected type %v, got %v", i, tt, types[i])
		}
	}
}

func TestTokenizeFieldPath(t *testing.T) {
	tokens, err := dataview.Tokenize(`file.name`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if tokens[0].Type != dataview.TokenFieldPath || tokens[0].Value != "file.name" {
		t.Fatalf("expected single FieldPath token, got %#v", tokens[0])
	}
}

func TestTokenizeOperators(t *testing.T) {
	tokens, err := dataview.Tokenize(`!= <= >= < > =`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []dataview.TokenType{
		dataview.TokenNotEquals, dataview.TokenLessEqual, dataview.TokenGreaterEqual,
		dataview.TokenLessThan, dataview.TokenGreaterThan, dataview.TokenEquals, dataview.TokenEOF,
	}
	types := tokenTypes(t, tokens)
	for i, tt := range want {
		if types[i] != tt {
			t.Fatalf("token %d: expected %v, got %v", i, tt, types[i])
		}
	}
}

func TestTokenizeLineComment(t *testing.T) {
	tokens, err := dataview.Tokenize("LIST // a trailing comment\nFROM \"x\"")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	types := tokenTypes(t, tokens)
	want := []dataview.TokenType{dataview.TokenList, dataview.TokenFrom, dataview.TokenString, dataview.TokenEOF}
	if len(types) != len(want) {
		t.Fatalf("expected comment to be skipped, got tokens %v", types)
	}
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := dataview.Tokenize(`"unterminated`)
	if err == nil {
		t.Fatal("expected error for unterminated string literal")
	}
}

func TestTokenizeNegativeNumber(t *testing.T) {
	tokens, err := dataview.Tokenize(`LIMIT -5`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if tokens[1].Type != dataview.TokenNumber || tokens[1].Value != "-5" {
		t.Fatalf("expected negative number token, got %#v", tokens[1])
	}
}

func TestTokenizeBooleanKeepsOriginalCase(t *testing.T) {
	tokens, err := dataview.Tokenize(`true`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if tokens[0].Type != dataview.TokenBoolean || tokens[0].Value != "true" {
		t.Fatalf("expected boolean token with original case, got %#v", tokens[0])
	}
}
