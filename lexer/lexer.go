package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer converts a whole source file into a token slice in one pass. It does
// not look ahead across interpolation boundaries: strings and commands
// delegate to scanInterpolated, which tokenizes each `{expr}` span with this
// same Lexer (scanInterpolationExpr) into its own token window, so that the
// parser later sees ordinary token windows.
type Lexer struct {
	src  string
	path string

	pos    int // byte offset
	line   int
	col    int
	tokens []Token
}

// New creates a Lexer over src. path is used only in error messages.
func New(path, src string) *Lexer {
	return &Lexer{src: src, path: path, line: 1, col: 1}
}

// Error is a lexical error tied to a position (spec §7.1).
type Error struct {
	Path string
	Pos  Pos
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Path, e.Pos, e.Msg)
}

// Tokenize scans the whole source and returns the resulting token stream,
// terminated by a single EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipSpaceAndComments(false)
		if l.eof() {
			break
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}
	l.tokens = append(l.tokens, Token{Kind: EOF, Span: Span{Start: l.here(), End: l.here()}})
	return l.tokens, nil
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) here() Pos { return Pos{Line: l.line, Col: l.col, Offset: l.pos} }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

// skipSpaceAndComments consumes whitespace, `//` line comments and `///` doc
// comments are NOT consumed here — those are emitted as tokens, since the
// parser attaches doc comments to the following declaration (spec §4.1, and
// the doc-comment-association supplement in SPEC_FULL.md §3).
func (l *Lexer) skipSpaceAndComments(_ bool) {
	for !l.eof() {
		switch l.peekByte() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) next() (Token, error) {
	start := l.here()
	c := l.peekByte()

	switch {
	case c == '/' && l.peekByteAt(1) == '/':
		return l.scanComment(start)
	case c == '"':
		return l.scanStringLiteral(start)
	case c == '$':
		return l.scanCommandLiteral(start)
	case c == '#' && l.peekByteAt(1) == '!':
		// compiler-flag marker or shebang; treated identically, consumed to EOL
		return l.scanCompilerFlag(start)
	case isDigit(c):
		return l.scanNumber(start)
	case isIdentStart(c):
		return l.scanIdentOrKeyword(start)
	default:
		return l.scanOperatorOrPunct(start)
	}
}

func (l *Lexer) scanComment(start Pos) (Token, error) {
	kind := Comment
	if l.peekByteAt(2) == '/' {
		kind = DocComment
	}
	var sb strings.Builder
	for !l.eof() && l.peekByte() != '\n' {
		sb.WriteByte(l.advance())
	}
	return Token{Kind: kind, Word: sb.String(), Span: Span{Start: start, End: l.here()}}, nil
}

func (l *Lexer) scanCompilerFlag(start Pos) (Token, error) {
	var sb strings.Builder
	for !l.eof() && l.peekByte() != '\n' {
		sb.WriteByte(l.advance())
	}
	return Token{Kind: CompilerFlag, Word: sb.String(), Span: Span{Start: start, End: l.here()}}, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= utf8.RuneSelf
}

func isIdentCont(b byte) bool { return isIdentStart(b) || isDigit(b) }

func (l *Lexer) scanIdentOrKeyword(start Pos) (Token, error) {
	var sb strings.Builder
	for !l.eof() && isIdentCont(l.peekByte()) {
		sb.WriteByte(l.advance())
	}
	word := sb.String()
	kind := Ident
	if IsKeyword(word) {
		kind = Keyword
	}
	return Token{Kind: kind, Word: word, Span: Span{Start: start, End: l.here()}}, nil
}

func (l *Lexer) scanNumber(start Pos) (Token, error) {
	var sb strings.Builder
	isFloat := false
	for !l.eof() && (isDigit(l.peekByte()) || l.peekByte() == '_') {
		b := l.advance()
		if b != '_' {
			sb.WriteByte(b)
		}
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		sb.WriteByte(l.advance())
		for !l.eof() && (isDigit(l.peekByte()) || l.peekByte() == '_') {
			b := l.advance()
			if b != '_' {
				sb.WriteByte(b)
			}
		}
	}
	word := sb.String()
	if isFloat {
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return Token{}, &Error{Path: l.path, Pos: start, Msg: "invalid number literal " + word}
		}
		return Token{Kind: NumLit, Word: word, Num: v, Span: Span{Start: start, End: l.here()}}, nil
	}
	v, err := strconv.ParseInt(word, 10, 64)
	if err != nil {
		return Token{}, &Error{Path: l.path, Pos: start, Msg: "invalid integer literal " + word}
	}
	return Token{Kind: IntLit, Word: word, Int: v, Span: Span{Start: start, End: l.here()}}, nil
}

var multiCharOps = []string{
	"..=", "..", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
}

func (l *Lexer) scanOperatorOrPunct(start Pos) (Token, error) {
	rest := l.src[l.pos:]
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.advance()
			}
			return Token{Kind: Operator, Word: op, Span: Span{Start: start, End: l.here()}}, nil
		}
	}
	c := l.advance()
	word := string(c)
	kind := Operator
	switch c {
	case '(', ')', '{', '}', '[', ']', ',', ':', ';', '.', '?':
		kind = Punct
	case '+', '-', '*', '/', '%', '=', '<', '>', '!':
		kind = Operator
	default:
		return Token{}, &Error{Path: l.path, Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
	return Token{Kind: kind, Word: word, Span: Span{Start: start, End: l.here()}}, nil
}

// scanInterpolated is shared by string and command literals: it reads until
// the closing delimiter, splitting literal runs and `{expr}` regions. Escape
// handling is delimiter-aware: inside strings `\$` is an escape, inside
// commands `\"` is (spec §4.1).
func (l *Lexer) scanInterpolated(delim byte, inCommand bool) (*Region, error) {
	reg := &Region{}
	var lit strings.Builder

	flush := func() {
		reg.Literals = append(reg.Literals, lit.String())
		lit.Reset()
	}

	for {
		if l.eof() {
			return nil, &Error{Path: l.path, Pos: l.here(), Msg: "unterminated literal"}
		}
		c := l.peekByte()
		switch {
		case c == delim:
			l.advance()
			flush()
			return reg, nil
		case c == '\\':
			escPos := l.here()
			l.advance()
			if l.eof() {
				return nil, &Error{Path: l.path, Pos: l.here(), Msg: "unterminated escape sequence"}
			}
			e := l.advance()
			repl, ok := unescape(e, inCommand)
			if !ok {
				reg.InvalidEscapes = append(reg.InvalidEscapes, escPos)
			}
			lit.WriteString(repl)
		case c == '{':
			flush()
			l.advance()
			exprToks, err := l.scanInterpolationExpr()
			if err != nil {
				return nil, err
			}
			reg.Exprs = append(reg.Exprs, exprToks)
		default:
			lit.WriteByte(l.advance())
		}
	}
}

// unescape maps a single escaped character to its literal replacement,
// reporting whether e was a recognized escape. The lexer itself stays
// warning-free per spec's stage boundaries: an unrecognized `\x` still
// preserves the literal two-character sequence, but its position is
// recorded on the enclosing Region so the checker can warn on it (spec §7).
func unescape(e byte, inCommand bool) (string, bool) {
	switch e {
	case 'n':
		return "\n", true
	case 't':
		return "\t", true
	case 'r':
		return "\r", true
	case '0':
		return "\x00", true
	case '\\':
		return "\\", true
	case '{':
		return "{", true
	case '"':
		if inCommand {
			return "\"", true
		}
		return "\\\"", true
	case '$':
		if !inCommand {
			return "$", true
		}
		return "\\$", true
	case '\'':
		return "'", true
	default:
		return "\\" + string(e), false
	}
}

// scanInterpolationExpr tokenizes the contents of a `{…}` region up to its
// matching closing brace, tracking nested braces so that e.g. `{a[{0}]}`
// does not terminate early.
func (l *Lexer) scanInterpolationExpr() ([]Token, error) {
	depth := 1
	var toks []Token
	for {
		l.skipSpaceAndComments(false)
		if l.eof() {
			return nil, &Error{Path: l.path, Pos: l.here(), Msg: "unterminated interpolation"}
		}
		if l.peekByte() == '}' {
			depth--
			if depth == 0 {
				l.advance()
				toks = append(toks, Token{Kind: EOF, Span: Span{Start: l.here(), End: l.here()}})
				return toks, nil
			}
		}
		if l.peekByte() == '{' {
			depth++
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) scanStringLiteral(start Pos) (Token, error) {
	l.advance() // opening quote
	reg, err := l.scanInterpolated('"', false)
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: StringLit, Region: reg, Span: Span{Start: start, End: l.here()}}, nil
}

func (l *Lexer) scanCommandLiteral(start Pos) (Token, error) {
	l.advance() // opening '$'
	reg, err := l.scanInterpolated('$', true)
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: CommandLit, Region: reg, Span: Span{Start: start, End: l.here()}}, nil
}
