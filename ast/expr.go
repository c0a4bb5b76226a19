// Package ast defines the Expr/Statement/Block sum types (spec §3.2) used
// across parsing, type-checking and translation.
package ast

import (
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/types"
)

// BinOp enumerates the binary operators (spec §3.2).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Neq
	Lt
	Le
	Gt
	Ge
	And
	Or
	Range
	RangeInclusive
)

// UnOp enumerates the unary operators.
type UnOp int

const (
	Neg UnOp = iota
	Not
)

// TypeOp enumerates the `is`/`as` operators.
type TypeOp int

const (
	IsOp TypeOp = iota
	AsOp
)

// Expr is the sum type over all expression variants. Every concrete variant
// embeds Base, which carries the span and inferred type slot common to all
// of them (spec §3.2: "Each Expr node records: the variant, its inferred
// type, and the token span").
type Expr interface {
	Span() lexer.Span
	Type() *types.Type
	SetType(*types.Type)
	exprNode()
}

// Base is embedded by every Expr variant.
type Base struct {
	Pos lexer.Span
	Typ *types.Type
}

func (b *Base) Span() lexer.Span     { return b.Pos }
func (b *Base) Type() *types.Type    { return b.Typ }
func (b *Base) SetType(t *types.Type) { b.Typ = t }
func (*Base) exprNode()              {}

// Literal variants.

type NullLit struct{ Base }
type BoolLit struct {
	Base
	Value bool
}
type IntLit struct {
	Base
	Value int64
}
type NumLit struct {
	Base
	Value float64
}

// StringLit is an interpolated text literal: alternating literal runs and
// interpolated expressions (spec §3.6 Interpolable mirrors this directly).
type StringLit struct {
	Base
	Literals       []string
	Exprs          []Expr
	InvalidEscapes []lexer.Pos
}

// CommandLit is an interpolated `$…$` shell-command literal.
type CommandLit struct {
	Base
	Literals       []string
	Exprs          []Expr
	Modifiers      CommandModifiers
	InvalidEscapes []lexer.Pos
}

// CommandModifiers captures `trust`/`silent`/`sudo` attached to a command
// expression or to the block it applies to (spec §4.1). `unsafe` is accepted
// as a deprecated spelling of `trust`: it sets Trust like `trust` does but
// also sets DeprecatedUnsafe so the checker can warn on it (spec §7).
type CommandModifiers struct {
	Trust            bool
	Silent           bool
	Sudo             bool
	DeprecatedUnsafe bool
	UnsafePos        lexer.Pos
}

// VarGet reads a variable by name.
type VarGet struct {
	Base
	Name     string
	GlobalID int
}

// Binary is a binary operator application.
type Binary struct {
	Base
	Op    BinOp
	Left  Expr
	Right Expr
}

// Unary is a unary operator application.
type Unary struct {
	Base
	Op      UnOp
	Operand Expr
}

// TypeExpr is the `is`/`as` family.
type TypeExpr struct {
	Base
	Op       TypeOp
	Operand  Expr
	Target   *types.Type
	IsAbsurd bool // set by the checker when `as` is an "absurd" cast (spec §4.2)
}

// Ternary is `cond then a else b`.
type Ternary struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

// Paren wraps a parenthesized expression (kept as its own node so rendering
// can decide whether parens are still needed, spec §4.1 precedence table).
type Paren struct {
	Base
	Inner Expr
}

// ArrayLit is an array literal. ElemType is set for the `[T]` empty-typed
// form; otherwise it is inferred from Elems.
type ArrayLit struct {
	Base
	Elems    []Expr
	ElemType *types.Type
}

// Index is `a[i]` or a range-index `a[i..j]`.
type Index struct {
	Base
	Array Expr
	Start Expr
	End   Expr // nil unless this is a range index
}

// Invocation is a function call, resolved to a FunctionDecl by name during
// parsing and to a concrete variant by the monomorphizer (spec §4.3).
type Invocation struct {
	Base
	Name     string
	DeclID   int
	VariantID int
	Args     []Expr
}

// Status reads `$?`-equivalent, the `status` builtin.
type Status struct{ Base }

// NameOf is the `nameof` operator; Target names the identifier whose source
// spelling is captured.
type NameOf struct {
	Base
	Target string
}

