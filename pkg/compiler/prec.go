package compiler

import "paserati/pkg/lexer"

// Binding powers for the Pratt loop. The exact numeric spacing isn't
// load-bearing, only the relative order is; even steps keep room for
// the odd right-associative rbp values in between.
const (
	bpInvalid        = 0
	bpComma          = 6
	bpAssignment     = 8
	bpConditional    = 10
	bpLogicalOr      = 12
	bpLogicalAnd     = 14
	bpBitOr          = 16
	bpBitXor         = 18
	bpBitAnd         = 20
	bpEquality       = 22
	bpRelational     = 24
	bpShift          = 26
	bpAdditive       = 28
	bpMultiplicative = 30
	bpPostfix        = 32
	bpCall           = 34
	bpMember         = 36
)

var binaryLBP = map[lexer.TokenType]int{
	lexer.OROR: bpLogicalOr,
	lexer.ANDAND: bpLogicalAnd,
	lexer.PIPE: bpBitOr,
	lexer.CARET: bpBitXor,
	lexer.AMP: bpBitAnd,
	lexer.EQ: bpEquality, lexer.NEQ: bpEquality, lexer.SEQ: bpEquality, lexer.SNEQ: bpEquality,
	lexer.LT: bpRelational, lexer.GT: bpRelational, lexer.LE: bpRelational, lexer.GE: bpRelational,
	lexer.INSTANCEOF: bpRelational, lexer.IN: bpRelational,
	lexer.SHL: bpShift, lexer.SHR: bpShift, lexer.USHR: bpShift,
	lexer.PLUS: bpAdditive, lexer.MINUS: bpAdditive,
	lexer.STAR: bpMultiplicative, lexer.SLASH: bpMultiplicative, lexer.PERCENT: bpMultiplicative,
}

var assignOps = map[lexer.TokenType]bool{
	lexer.ASSIGN: true, lexer.PLUS_ASSIGN: true, lexer.MINUS_ASSIGN: true,
	lexer.STAR_ASSIGN: true, lexer.PERCENT_ASSIGN: true, lexer.SLASH_ASSIGN: true,
	lexer.SHL_ASSIGN: true, lexer.SHR_ASSIGN: true, lexer.USHR_ASSIGN: true,
	lexer.AMP_ASSIGN: true, lexer.PIPE_ASSIGN: true, lexer.CARET_ASSIGN: true,
}

// noRegexpAfter: after any of these tokens, a following '/' begins
// division, not a regexp literal.
var noRegexpAfter = map[lexer.TokenType]bool{
	lexer.IDENT: true, lexer.NUMBER: true, lexer.STRING: true, lexer.REGEXP: true,
	lexer.THIS: true, lexer.TRUE: true, lexer.FALSE: true, lexer.NULL: true,
	lexer.RPAREN: true, lexer.RBRACKET: true, lexer.RBRACE: true,
	lexer.PLUSPLUS: true, lexer.MINUSMINUS: true,
}
