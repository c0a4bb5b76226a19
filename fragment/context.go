package fragment

import "strings"

// FuncMeta carries the mangled names the renderer needs inside a function
// body's `ret`/`fail` statements (spec §4.5 "optional function-metadata").
type FuncMeta struct {
	Name      string
	DeclID    int
	VariantID int
}

// ReturnGlobal is the well-known shell variable a function instance's `ret`
// assigns into (spec §4.3, §6): "__AF_{fun_name}{decl_id}_v{variant_id}".
func (m *FuncMeta) ReturnGlobal() string {
	return "__AF_" + m.Name + itoa(m.DeclID) + "_v" + itoa(m.VariantID)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

// TranslateContext is the mutable state threaded through one file's
// lowering-and-render pass (spec §4.5).
type TranslateContext struct {
	Indent int // starts at -1 (spec §4.5)
	Eval   bool

	valueID int

	queue []Fragment

	Silent bool
	Sudo   bool

	Func *FuncMeta // nil outside a function body

	TestMode bool

	condDepth int
}

func NewTranslateContext() *TranslateContext {
	return &TranslateContext{Indent: -1}
}

// GenIndent returns four-space repetitions for the current indent level
// (spec §4.5); indent -1 (top level) renders no indent.
func (c *TranslateContext) GenIndent() string {
	if c.Indent <= 0 {
		return ""
	}
	return strings.Repeat("    ", c.Indent)
}

// NextValueID hands out a monotonically increasing id for synthetic names
// (e.g. deref locals, spec §4.5).
func (c *TranslateContext) NextValueID() int {
	id := c.valueID
	c.valueID++
	return id
}

// GenQuote returns `""` in eval context, `"\""` otherwise (spec §4.5): an
// `eval`-rendered string already carries its own outer quoting, so nested
// fragments must not add another layer.
func (c *TranslateContext) GenQuote() string {
	if c.Eval {
		return ""
	}
	return `"`
}

// GenDollar returns `\$` in eval context, `$` otherwise (spec §4.5): the
// same reasoning as GenQuote, applied to interpolation sigils that would
// otherwise be consumed twice by a surrounding `eval`.
func (c *TranslateContext) GenDollar() string {
	if c.Eval {
		return `\$`
	}
	return "$"
}

// Push enqueues a fragment that must render before the statement currently
// being built (spec §4.5 statement queue / §9 "statement-queue hoisting").
func (c *TranslateContext) Push(f Fragment) { c.queue = append(c.queue, f) }

// Drain empties and returns the queue in FIFO order.
func (c *TranslateContext) Drain() []Fragment {
	out := c.queue
	c.queue = nil
	return out
}

// BeginConditional/EndConditional track nesting inside a conditionally
// executed Block while it renders. The unused-variable pass does not read
// this counter; it finds conditional blocks from the fragment tree itself.
func (c *TranslateContext) BeginConditional() { c.condDepth++ }
func (c *TranslateContext) EndConditional()   { c.condDepth-- }
func (c *TranslateContext) InConditional() bool { return c.condDepth > 0 }
