package driver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/txtar"

	"github.com/tide-lang/tidec/ast"
	"github.com/tide-lang/tidec/lexer"
	"github.com/tide-lang/tidec/parser"
	"github.com/tide-lang/tidec/scope"
)

// Docs extracts every public function's doc comment from path into outdir,
// one txtar archive per function (spec SPEC_FULL.md §3 "docs" subcommand).
// A doc comment that is itself txtar-formatted (holds "-- name --" sections)
// is treated as carrying runnable examples alongside its prose, rather than
// left as inert text inside the comment.
func Docs(path, outdir string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	tokens, err := lexer.New(path, string(src)).Tokenize()
	if err != nil {
		return errors.Wrapf(err, "lexing %s", path)
	}

	var nextGlobalID, nextFuncID int
	ctx := scope.NewContext(path, tokens, &nextGlobalID, &nextFuncID)
	stmts, err := parser.New(ctx).ParseFile()
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	if err := os.MkdirAll(outdir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", outdir)
	}

	for _, st := range stmts {
		fn, ok := st.(*ast.FunctionDeclStmt)
		if !ok || !fn.IsPublic || fn.DocComment == "" {
			continue
		}
		outPath := filepath.Join(outdir, fn.Name+".txtar")
		if err := os.WriteFile(outPath, txtar.Format(docArchive(fn)), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", outPath)
		}
	}
	return nil
}

func docArchive(fn *ast.FunctionDeclStmt) *txtar.Archive {
	sig := signature(fn)
	if embedded := txtar.Parse([]byte(fn.DocComment)); len(embedded.Files) > 0 {
		embedded.Comment = append([]byte(sig+"\n\n"), embedded.Comment...)
		return embedded
	}
	return &txtar.Archive{Comment: []byte(sig + "\n\n" + fn.DocComment + "\n")}
}

func signature(fn *ast.FunctionDeclStmt) string {
	var sb strings.Builder
	sb.WriteString("pub fun ")
	sb.WriteString(fn.Name)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(fn.ArgNames, ", "))
	sb.WriteByte(')')
	if fn.ReturnType != nil {
		sb.WriteString(": ")
		sb.WriteString(fn.ReturnType.String())
	}
	if fn.IsFailable {
		sb.WriteByte('?')
	}
	return sb.String()
}
