package compiler

import (
	"paserati/pkg/intern"
	"paserati/pkg/lexer"
)

// maxRecursionDepth bounds recursive-descent nesting.
const maxRecursionDepth = 2500

// Parser fuses a recursive-descent statement parser with a Pratt
// expression parser over a one-token-lookahead lexer, emitting bytecode
// into the current FuncState as it goes; there is no AST.
type Parser struct {
	lx       *lexer.Lexer
	interner *intern.Table
	filename string
	hasFile  bool

	cur lexer.Token
	// curPoint is the lexer point from which cur was scanned; rewinding
	// to it and advancing re-yields cur (used for the pass-1/pass-2
	// rewind and the label lookahead).
	curPoint lexer.Point

	// noRegexpOnce forces the next token fetch to disallow a leading
	// regexp even if cur's own token type would normally allow one.
	noRegexpOnce bool
	// noReservedOnce requests t_nores on the next fetch (property name
	// immediately after '.').
	noReservedOnce bool

	// allowIn suppresses `in` as a relational operator while parsing a
	// for-statement header; restored to true inside any
	// parenthesized or bracketed subexpression.
	allowIn bool

	fs *FuncState

	opts CompileOptions
}

func newParser(src, filename string, hasFile bool, interner *intern.Table, opts CompileOptions) *Parser {
	return &Parser{
		lx:       lexer.New(src, filename, interner),
		interner: interner,
		filename: filename,
		hasFile:  hasFile,
		allowIn:  true,
		opts:     opts,
	}
}

// allowRegexpNow reports whether a '/' at the current lexer position
// should be read as the start of a regexp literal.
func (p *Parser) allowRegexpNow() bool {
	if p.noRegexpOnce {
		return false
	}
	return !noRegexpAfter[p.cur.Type]
}

func (p *Parser) advance() {
	allowRe := p.allowRegexpNow()
	noRes := p.noReservedOnce
	p.noRegexpOnce = false
	p.noReservedOnce = false
	p.curPoint = p.lx.GetPoint()
	tok, err := p.lx.Next(allowRe, noRes)
	if err != nil {
		syntaxErrf(p.fs, "%s", err.Error())
	}
	p.cur = tok
	if p.fs != nil {
		p.fs.CurLine = tok.Line
		p.fs.CurCol = tok.Column
		p.fs.CurPos = tok.StartPos
	}
}

func (p *Parser) line() int { return p.cur.Line }

// rewindTo repositions the lexer at pt and fetches the token there in
// statement-start context (a '/' begins a regexp literal). Used for the
// pass-1 to pass-2 rewind, where cur still holds the body's closing
// token and would otherwise poison the regexp-ambiguity decision.
func (p *Parser) rewindTo(pt lexer.Point) {
	p.lx.SetPoint(pt)
	p.noRegexpOnce = false
	p.noReservedOnce = false
	p.curPoint = p.lx.GetPoint()
	tok, err := p.lx.Next(true, false)
	if err != nil {
		syntaxErrf(p.fs, "%s", err.Error())
	}
	p.cur = tok
	if p.fs != nil {
		p.fs.CurLine = tok.Line
		p.fs.CurCol = tok.Column
		p.fs.CurPos = tok.StartPos
	}
}

// peekIs reports whether the token after cur has type tt, then restores
// the lexer and cur. Used for the IDENT ':' label lookahead and the
// for/for-in discrimination, the only places the one-token-lookahead
// discipline needs a second token.
func (p *Parser) peekIs(tt lexer.TokenType) bool {
	saveCur := p.cur
	savePt := p.curPoint
	saveNoRe := p.noRegexpOnce
	saveNoRes := p.noReservedOnce
	p.advance()
	hit := p.cur.Type == tt
	// p.curPoint now marks where the peeked token's scan began (just
	// after saveCur); rewind there so the next advance re-scans it.
	p.lx.SetPoint(p.curPoint)
	p.cur = saveCur
	p.curPoint = savePt
	p.noRegexpOnce = saveNoRe
	p.noReservedOnce = saveNoRes
	if p.fs != nil {
		p.fs.CurLine = saveCur.Line
		p.fs.CurCol = saveCur.Column
		p.fs.CurPos = saveCur.StartPos
	}
	return hit
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur.Type == tt }

func (p *Parser) accept(tt lexer.TokenType) bool {
	if p.at(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if !p.at(tt) {
		syntaxErrf(p.fs, "expected %s, got %s", tt.String(), p.cur.Type.String())
	}
	tok := p.cur
	p.advance()
	return tok
}

// semicolon implements Automatic Semicolon Insertion.
func (p *Parser) semicolon() {
	if p.accept(lexer.SEMICOLON) {
		return
	}
	if p.at(lexer.RBRACE) || p.at(lexer.EOF) || p.cur.LineTerm {
		return
	}
	syntaxErrf(p.fs, "expected ';' (automatic semicolon insertion rule not met), got %s", p.cur.Type.String())
}

// identifierName accepts any token that is grammatically an
// IdentifierName (keywords included) for use as a property name, a
// member-access name after '.', or a label.
func (p *Parser) identifierName() string {
	switch p.cur.Type {
	case lexer.IDENT, lexer.GET, lexer.SET:
		s := p.cur.Literal
		p.advance()
		return s
	default:
		if name, ok := lexer.KeywordSpelling(p.cur.Type); ok {
			p.advance()
			return name
		}
	}
	syntaxErrf(p.fs, "expected identifier name, got %s", p.cur.Type.String())
	return ""
}

func (p *Parser) enterRecursion() {
	p.fs.RecursionDepth++
	if p.fs.RecursionDepth > maxRecursionDepth {
		rangeErrf(p.fs, "recursion depth exceeded")
	}
}

func (p *Parser) exitRecursion() {
	p.fs.RecursionDepth--
}
