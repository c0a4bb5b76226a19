package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tide-lang/tidec/lexer"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.tide")
	if err := os.WriteFile(src, []byte("main {}\n"), 0644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	d := &Dir{root: t.TempDir(), buildHash: "abc123"}
	want := []lexer.Token{{Kind: lexer.Ident, Word: "main"}}
	if err := d.Put(src, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := d.Get(src)
	if !ok {
		t.Fatal("expected a cache hit right after Put")
	}
	if len(got) != 1 || got[0].Word != "main" {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestGetMissesOnModifiedFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.tide")
	if err := os.WriteFile(src, []byte("main {}\n"), 0644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	d := &Dir{root: t.TempDir(), buildHash: "abc123"}
	if err := d.Put(src, []lexer.Token{{Kind: lexer.Ident, Word: "main"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Change the file's content (and therefore its size), invalidating the
	// cached entry's recorded size even if the filesystem's mtime
	// resolution is too coarse to change on its own.
	if err := os.WriteFile(src, []byte("main { echo 1 }\n"), 0644); err != nil {
		t.Fatalf("rewriting source: %v", err)
	}

	if _, ok := d.Get(src); ok {
		t.Error("expected a cache miss after the source file changed")
	}
}

func TestGetMissesForUnknownFile(t *testing.T) {
	d := &Dir{root: t.TempDir(), buildHash: "abc123"}
	if _, ok := d.Get(filepath.Join(t.TempDir(), "never-written.tide")); ok {
		t.Error("expected a miss for a file with no cache entry")
	}
}

func TestBuildHashIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.go"), []byte("package x\n"), 0644); err != nil {
		t.Fatalf("writing: %v", err)
	}
	h1, err := BuildHash(dir)
	if err != nil {
		t.Fatalf("BuildHash: %v", err)
	}
	h2, err := BuildHash(dir)
	if err != nil {
		t.Fatalf("BuildHash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected a stable hash for an unchanged tree, got %q then %q", h1, h2)
	}
}
