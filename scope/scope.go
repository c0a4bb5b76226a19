// Package scope holds the variable/function symbol tables and the parse-time
// Context, per spec §3.3.
package scope

import (
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/types"
)

// VariableKind distinguishes how a variable was introduced.
type VariableKind int

const (
	KindLet VariableKind = iota
	KindConst
	KindParam
)

// VariableDecl is one entry of a ScopeUnit's variable table (spec §3.3).
type VariableDecl struct {
	Name        string
	Type        *types.Type
	Kind        VariableKind
	IsRef       bool
	IsConst     bool
	GlobalID    int
	IsUsed      bool
	IsModified  bool
	WarnPos     lexer.Pos
}

// FunctionDecl is one entry of a ScopeUnit's function table (spec §3.3,
// §3.4). Body tokens and per-call-site instances live in the monomorphizer's
// FunctionCacheEntry, keyed by ID; FunctionDecl itself only carries the
// declaration-level signature shape.
type FunctionDecl struct {
	Name         string
	ArgNames     []string
	ArgTypes     []*types.Type
	ArgRefs      []bool
	ArgOptionals []bool // true where a default expression exists
	Returns      *types.Type
	ID           int
	IsArgsTyped  bool
	IsPublic     bool
	IsFailable   bool
	DocComment   string // supplemented feature, SPEC_FULL.md §3
}

// RequiredArgs returns the minimum argument count (first optional index).
func (f *FunctionDecl) RequiredArgs() int {
	for i, opt := range f.ArgOptionals {
		if opt {
			return i
		}
	}
	return len(f.ArgOptionals)
}

// ScopeUnit is one lexical scope level: the global scope (index 0) or one
// function-body scope. Function scopes open/close symmetrically (spec §3.3
// invariant 4).
type ScopeUnit struct {
	Variables map[string]*VariableDecl
	Functions map[string]*FunctionDecl
	IsGlobal  bool
}

func NewScopeUnit(isGlobal bool) *ScopeUnit {
	return &ScopeUnit{
		Variables: make(map[string]*VariableDecl),
		Functions: make(map[string]*FunctionDecl),
		IsGlobal:  isGlobal,
	}
}

// Flags are the boolean context toggles tracked by Context (spec §3.3).
type Flags struct {
	IsFunCtx    bool
	IsLoopCtx   bool
	IsMainCtx   bool
	IsTrustCtx  bool
	IsTestCtx   bool
	IsEscapedCtx bool
}

// Context owns everything the parser/checker/monomorphizer thread through a
// single file's compilation (spec §3.3). It intentionally replaces hidden
// global state with one struct passed explicitly.
type Context struct {
	Tokens []lexer.Token
	Index  int

	FilePath string

	scopes []*ScopeUnit

	ImportTrace []lexer.Pos

	Flags Flags

	ActiveCompilerFlags map[string]bool

	PublicFunctions []string

	CurrentReturnType *types.Type

	nextGlobalID *int // shared across the whole program (spec §3.3 invariant 1)
	nextFuncID   *int // shared decl-id counter (spec §3.4)
}

// NewContext creates a Context over tokens for a file, sharing the monotonic
// global-id and decl-id counters with the rest of the program (owned by the
// driver and passed down so ids never collide across files).
func NewContext(filePath string, tokens []lexer.Token, nextGlobalID, nextFuncID *int) *Context {
	c := &Context{
		Tokens:              tokens,
		FilePath:            filePath,
		ActiveCompilerFlags: make(map[string]bool),
		nextGlobalID:        nextGlobalID,
		nextFuncID:          nextFuncID,
	}
	c.scopes = []*ScopeUnit{NewScopeUnit(true)}
	return c
}

// NextGlobalID allocates a fresh, never-reused variable identifier.
func (c *Context) NextGlobalID() int {
	id := *c.nextGlobalID
	*c.nextGlobalID++
	return id
}

// NextFuncID allocates a fresh, never-reused function declaration id.
func (c *Context) NextFuncID() int {
	id := *c.nextFuncID
	*c.nextFuncID++
	return id
}

// PushScope opens a new lexical scope (function bodies only; spec §3.3
// invariant 4).
func (c *Context) PushScope() *ScopeUnit {
	su := NewScopeUnit(false)
	c.scopes = append(c.scopes, su)
	return su
}

// PopScope closes the most recently pushed scope. Callers must pair every
// PushScope with a PopScope even on error paths — see ScopedBool for the
// same discipline applied to Flags.
func (c *Context) PopScope() {
	if len(c.scopes) <= 1 {
		panic("scope: PopScope called on global scope")
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// Depth reports the number of currently open scopes (>=1). Used by tests to
// assert the "every pushed ScopeUnit has been popped" invariant (spec §8.3).
func (c *Context) Depth() int { return len(c.scopes) }

// Global returns scope index 0.
func (c *Context) Global() *ScopeUnit { return c.scopes[0] }

// Current returns the innermost open scope.
func (c *Context) Current() *ScopeUnit { return c.scopes[len(c.scopes)-1] }

// LookupVariable searches from innermost to outermost scope.
func (c *Context) LookupVariable(name string) (*VariableDecl, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i].Variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupFunction searches from innermost to outermost scope.
func (c *Context) LookupFunction(name string) (*FunctionDecl, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if f, ok := c.scopes[i].Functions[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// ScopedBool sets *field to v, runs fn, then unconditionally restores the
// saved value — the "scoped-mutation helper" design note (spec §9) that
// guarantees context flags are balanced regardless of how fn returns.
func ScopedBool(field *bool, v bool, fn func()) {
	saved := *field
	*field = v
	defer func() { *field = saved }()
	fn()
}

// Peek returns the token at the current index without consuming it.
func (c *Context) Peek() lexer.Token { return c.Tokens[c.Index] }

// PeekAt returns the token n positions ahead of the current index, clamped
// to the final (EOF) token.
func (c *Context) PeekAt(n int) lexer.Token {
	i := c.Index + n
	if i >= len(c.Tokens) {
		i = len(c.Tokens) - 1
	}
	return c.Tokens[i]
}

// Advance consumes and returns the current token.
func (c *Context) Advance() lexer.Token {
	t := c.Tokens[c.Index]
	if c.Index < len(c.Tokens)-1 {
		c.Index++
	}
	return t
}

// AtEnd reports whether the cursor sits on the EOF token.
func (c *Context) AtEnd() bool { return c.Peek().Kind == lexer.EOF }
