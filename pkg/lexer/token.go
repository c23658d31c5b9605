// Package lexer implements a stateful, one-token-lookahead tokenizer
// for ECMAScript source, rewindable via a (offset, line) Point. The
// regexp-versus-division ambiguity is resolved by the caller, which
// passes an allow-regexp bit on every token request.
package lexer

import "paserati/pkg/intern"

// TokenType is a closed tag set: identifier, number, string,
// regexp, one of the punctuator/keyword spellings, or EOF.
type TokenType uint8

const (
	ILLEGAL TokenType = iota
	EOF

	IDENT
	NUMBER
	STRING
	REGEXP

	// Punctuators
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	DOT
	SEMICOLON
	COMMA
	LT
	GT
	LE
	GE
	EQ
	NEQ
	SEQ
	SNEQ
	PLUS
	MINUS
	STAR
	PERCENT
	STARSTAR
	SLASH
	PLUSPLUS
	MINUSMINUS
	SHL
	SHR
	USHR
	AMP
	PIPE
	CARET
	BANG
	TILDE
	ANDAND
	OROR
	QUESTION
	COLON
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	PERCENT_ASSIGN
	SLASH_ASSIGN
	SHL_ASSIGN
	SHR_ASSIGN
	USHR_ASSIGN
	AMP_ASSIGN
	PIPE_ASSIGN
	CARET_ASSIGN
	ARROW
	SPREAD

	// Keywords
	BREAK
	CASE
	CATCH
	CONTINUE
	DEBUGGER
	DEFAULT
	DELETE
	DO
	ELSE
	FALSE
	FINALLY
	FOR
	FUNCTION
	IF
	IN
	INSTANCEOF
	NEW
	NULL
	RETURN
	SWITCH
	THIS
	THROW
	TRUE
	TRY
	TYPEOF
	VAR
	VOID
	WHILE
	WITH

	// Future reserved words relevant to strict mode rejection.
	IMPLEMENTS
	INTERFACE
	LET
	PACKAGE
	PRIVATE
	PROTECTED
	PUBLIC
	STATIC
	YIELD

	// Contextual keywords (not reserved; recognized only where the grammar
	// expects them, e.g. get/set accessor properties).
	GET
	SET
)

var keywords = map[string]TokenType{
	"break": BREAK, "case": CASE, "catch": CATCH, "continue": CONTINUE,
	"debugger": DEBUGGER, "default": DEFAULT, "delete": DELETE, "do": DO,
	"else": ELSE, "false": FALSE, "finally": FINALLY, "for": FOR,
	"function": FUNCTION, "if": IF, "in": IN, "instanceof": INSTANCEOF,
	"new": NEW, "null": NULL, "return": RETURN, "switch": SWITCH,
	"this": THIS, "throw": THROW, "true": TRUE, "try": TRY,
	"typeof": TYPEOF, "var": VAR, "void": VOID, "while": WHILE, "with": WITH,
	"implements": IMPLEMENTS, "interface": INTERFACE, "let": LET,
	"package": PACKAGE, "private": PRIVATE, "protected": PROTECTED,
	"public": PUBLIC, "static": STATIC, "yield": YIELD,
}

// strictReserved is the subset of keywords rejected only in strict mode.
var strictReserved = map[TokenType]bool{
	IMPLEMENTS: true, INTERFACE: true, LET: true, PACKAGE: true,
	PRIVATE: true, PROTECTED: true, PUBLIC: true, STATIC: true, YIELD: true,
}

func IsStrictReserved(t TokenType) bool { return strictReserved[t] }

// IsStrictReservedName reports whether the spelling names a word that is
// reserved only in strict mode; used by the prologue emitter, which
// validates formal and function names after the directive prologue has
// settled the function's final strictness.
func IsStrictReservedName(name string) bool {
	t, ok := keywords[name]
	return ok && strictReserved[t]
}

var names = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", IDENT: "IDENT", NUMBER: "NUMBER",
	STRING: "STRING", REGEXP: "REGEXP",
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	DOT: ".", SEMICOLON: ";", COMMA: ",",
	LT: "<", GT: ">", LE: "<=", GE: ">=", EQ: "==", NEQ: "!=", SEQ: "===", SNEQ: "!==",
	PLUS: "+", MINUS: "-", STAR: "*", PERCENT: "%", STARSTAR: "**", SLASH: "/",
	PLUSPLUS: "++", MINUSMINUS: "--",
	SHL: "<<", SHR: ">>", USHR: ">>>",
	AMP: "&", PIPE: "|", CARET: "^", BANG: "!", TILDE: "~",
	ANDAND: "&&", OROR: "||", QUESTION: "?", COLON: ":",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=",
	PERCENT_ASSIGN: "%=", SLASH_ASSIGN: "/=", SHL_ASSIGN: "<<=", SHR_ASSIGN: ">>=",
	USHR_ASSIGN: ">>>=", AMP_ASSIGN: "&=", PIPE_ASSIGN: "|=", CARET_ASSIGN: "^=",
	ARROW: "=>", SPREAD: "...",
	BREAK: "break", CASE: "case", CATCH: "catch", CONTINUE: "continue",
	DEBUGGER: "debugger", DEFAULT: "default", DELETE: "delete", DO: "do",
	ELSE: "else", FALSE: "false", FINALLY: "finally", FOR: "for",
	FUNCTION: "function", IF: "if", IN: "in", INSTANCEOF: "instanceof",
	NEW: "new", NULL: "null", RETURN: "return", SWITCH: "switch",
	THIS: "this", THROW: "throw", TRUE: "true", TRY: "try",
	TYPEOF: "typeof", VAR: "var", VOID: "void", WHILE: "while", WITH: "with",
	GET: "get", SET: "set",
}

// KeywordSpelling reports the literal spelling of a keyword-ish token
// (reserved word or contextual get/set), for use as an IdentifierName
// in property-name and label positions where any reserved word is
// grammatically allowed.
func KeywordSpelling(t TokenType) (string, bool) {
	switch t {
	case BREAK, CASE, CATCH, CONTINUE, DEBUGGER, DEFAULT, DELETE, DO, ELSE,
		FALSE, FINALLY, FOR, FUNCTION, IF, IN, INSTANCEOF, NEW, NULL, RETURN,
		SWITCH, THIS, THROW, TRUE, TRY, TYPEOF, VAR, VOID, WHILE, WITH,
		IMPLEMENTS, INTERFACE, LET, PACKAGE, PRIVATE, PROTECTED, PUBLIC,
		STATIC, YIELD, GET, SET:
		return names[t], true
	}
	return "", false
}

func (t TokenType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// Point is a rewindable lexer position: a byte
// offset and line number are sufficient to resume scanning from here.
type Point struct {
	Offset int
	Line   int
}

// Token is one lexical unit. StrValue is only meaningful for
// IDENT/STRING; NumValue only for NUMBER; RegexPattern/RegexFlags only
// for REGEXP.
type Token struct {
	Type TokenType

	Literal      string
	StrValue     *intern.String
	NumValue     float64
	RegexPattern string
	RegexFlags   string

	Line     int
	Column   int
	StartPos int
	EndPos   int

	// AllowAutoSemi is true when this token may be preceded by an
	// automatically-inserted semicolon.
	AllowAutoSemi bool
	// LineTerm is true when a line terminator occurred between the
	// previous token and this one (drives ASI and the postfix ++/--
	// termination rule).
	LineTerm bool
	// TNoRes marks an identifier-shaped token that must not be treated as
	// a keyword even if its spelling matches one (e.g. a property name
	// immediately after '.').
	TNoRes bool
	// NumEscapes counts escape sequences within a STRING literal;
	// a directive-prologue string containing any escape is inert.
	NumEscapes int
}
