package ast

import (
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/types"
)

// Statement is the sum type over all statement variants (spec §3.2).
type Statement interface {
	Span() lexer.Span
	stmtNode()
}

// StmtBase is embedded by every Statement variant.
type StmtBase struct {
	Pos lexer.Span
}

func (b *StmtBase) Span() lexer.Span { return b.Pos }
func (*StmtBase) stmtNode()          {}

// ShorthandOp enumerates `+=`, `-=`, `*=`, `/=`, `%=`.
type ShorthandOp int

const (
	AddAssign ShorthandOp = iota
	SubAssign
	MulAssign
	DivAssign
	ModAssign
)

// VarInit is `let`/`const`, optionally destructuring an array into names.
type VarInit struct {
	StmtBase
	IsConst       bool
	Names         []string   // len > 1 for destructuring
	GlobalIDs     []int
	DeclaredType  *types.Type // nil when inferred from Value
	Value         Expr
	IsRef         bool
}

// VarSet is `name = expr` or `name[i] = expr`.
type VarSet struct {
	StmtBase
	Name     string
	GlobalID int
	Index    Expr // nil unless this is an element write
	RangeEnd Expr // set for a range-index write
	Value    Expr
}

// ShorthandAssign is `name += expr` etc.
type ShorthandAssign struct {
	StmtBase
	Name     string
	GlobalID int
	Op       ShorthandOp
	Value    Expr
}

// IfCond is a single `if cond { block } [else { block }]`.
type IfCond struct {
	StmtBase
	Cond Expr
	Then *Block
	Else *Block // nil if no else
}

// IfChain is `if c1 {...} else if c2 {...} else {...}`, flattened.
type IfChain struct {
	StmtBase
	Conds   []Expr
	Blocks  []*Block
	Default *Block // nil if no trailing else
}

// LoopInfinite is `loop { … }`.
type LoopInfinite struct {
	StmtBase
	Body *Block
}

// LoopIter is `loop i, v in expr { … }` (the index binding `i` is optional).
type LoopIter struct {
	StmtBase
	IndexName  string // "" if omitted
	IndexID    int
	ValueName  string
	ValueID    int
	Collection Expr
	Body       *Block
}

// LoopWhile is `while cond { … }`.
type LoopWhile struct {
	StmtBase
	Cond Expr
	Body *Block
}

type Break struct{ StmtBase }
type Continue struct{ StmtBase }

// FunctionDeclStmt is a top-level `fun` declaration. Body is only populated
// on the lazily-parsed FunctionInstance (mono package); the declaration-site
// node carries just the signature plus the raw token window needed to parse
// it again per specialization (spec §4.1, §3.4).
type FunctionDeclStmt struct {
	StmtBase
	Name         string
	ID           int
	IsPublic     bool
	ArgNames     []string
	ArgTypes     []*types.Type // nil entries mark Generic params
	ArgRefs      []bool
	ArgDefaults  []Expr // nil entries mark required params
	ReturnType   *types.Type
	IsFailable   bool
	DocComment   string
	BodyTokens   []lexer.Token
}

// Return is `ret expr` (expr may be nil for a bare `ret`).
type Return struct {
	StmtBase
	Value Expr
}

// Fail is `fail [expr]`.
type Fail struct {
	StmtBase
	Code Expr // nil means exit code 1
}

// Import is `import name, … from "path"` (or `import "path"`).
type Import struct {
	StmtBase
	Names []string // empty means import everything public
	Path  string
}

// MainBlock is the program's `main { … }` entry point.
type MainBlock struct {
	StmtBase
	Params   []string // positional parameter bindings, `$1`, `$2`, …
	ParamIDs []int    // global ids assigned to Params during checking, parallel to Params
	Body     *Block
}

// TestBlock is a named `test "name" { … }`.
type TestBlock struct {
	StmtBase
	Name string
	Body *Block
}

type Echo struct {
	StmtBase
	Value Expr
}

type Exit struct {
	StmtBase
	Code Expr
}

type Cd struct {
	StmtBase
	Path    Expr
	Handler *FailureHandler
}

type Mv struct {
	StmtBase
	From, To Expr
	Handler  *FailureHandler
}

type Rm struct {
	StmtBase
	Target  Expr
	Force   bool
	Handler *FailureHandler
}

// Silent wraps a statement, suppressing its stdout/stderr (spec §4.1).
type Silent struct {
	StmtBase
	Inner Statement
}

// CommandModifierStmt attaches `trust`/`sudo`/`silent` to the block that
// follows it (spec §4.1: "a modifier context may apply transitively").
type CommandModifierStmt struct {
	StmtBase
	Modifiers CommandModifiers
	Body      *Block
}

type CommentStmt struct {
	StmtBase
	Text string
}

type DocCommentStmt struct {
	StmtBase
	Text string
}

// ExprStmt is a bare expression used as a statement (typically a command
// invocation whose value is discarded).
type ExprStmt struct {
	StmtBase
	Value   Expr
	Handler *FailureHandler
}

// FailureHandlerKind is the resolved state of the handler state machine in
// spec §4.1.
type FailureHandlerKind int

const (
	HandlerNone FailureHandlerKind = iota
	HandlerPropagate                  // `?`
	HandlerFailed
	HandlerSucceeded
	HandlerExited
	HandlerSuppressed // inside a `trust` context, no keyword required
)

// FailureHandler is attached to any statement that runs an external command
// and therefore must address spec §4.1's failure-handling requirement.
type FailureHandler struct {
	Kind      FailureHandlerKind
	BindName  string // set for `failed(name)` / `exited(name)`
	BindID    int
	Block     *Block // nil for HandlerPropagate/HandlerSuppressed
	Pos       lexer.Pos
	Redundant bool // handler keyword matched on a construct that cannot fail (spec §7)
}

// Block is an ordered statement sequence carrying the flags spec §3.2
// describes.
type Block struct {
	Stmts         []Statement
	NeedsNoop     bool
	IsCondition   bool
	IsScopeless   bool
	IndentOverride int // -1 means "use ambient indent"
}
