package parser

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tide-lang/tidec/diag"
	"github.com/tide-lang/tidec/lexer"
)

// quietErr marks a failed parse alternative that the caller may still try
// other alternatives for (spec §4.1 "fails quietly"). loudErr marks one that
// must abort the whole alternation and surface a diagnostic tied to a token
// position (spec §4.1 "fails loudly").
type quietErr struct{ err error }

func (q quietErr) Error() string { return q.err.Error() }
func (q quietErr) Unwrap() error { return q.err }

func quiet(format string, args ...interface{}) error {
	return quietErr{err: fmt.Errorf(format, args...)}
}

// loud wraps err as a position-anchored diagnostic and attaches a stack via
// github.com/pkg/errors so the driver can print it even after it has
// propagated through several parser calls (SPEC_FULL.md §0 "Errors").
func (p *Parser) loud(pos lexer.Pos, format string, args ...interface{}) error {
	d := &diag.Diagnostic{
		Severity: diag.Error,
		Path:     p.ctx.FilePath,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	}
	return errors.WithStack(d)
}

// isQuiet reports whether err was produced via quiet() anywhere in its chain.
func isQuiet(err error) bool {
	var q quietErr
	return errors.As(err, &q)
}

// tryAlt runs fn; if it fails quietly, the token cursor is restored to its
// position before fn ran so the next alternative can attempt the same
// tokens (spec §9 "Parser alternative selection"). A loud failure is
// returned as-is without restoring the cursor, aborting the alternation.
func (p *Parser) tryAlt(fn func() (interface{}, error)) (interface{}, error) {
	save := p.ctx.Index
	v, err := fn()
	if err != nil && isQuiet(err) {
		p.ctx.Index = save
		return nil, err
	}
	return v, err
}
