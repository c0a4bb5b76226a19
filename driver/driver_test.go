package driver

import (
	"path/filepath"
	"testing"
)

func TestResolveImportPath(t *testing.T) {
	cases := []struct {
		from, imp, want string
	}{
		{"/proj/main.tide", "util.tide", "/proj/util.tide"},
		{"/proj/cmd/main.tide", "../lib/strings.tide", "/proj/lib/strings.tide"},
		{"/proj/main.tide", "./helpers.tide", "/proj/helpers.tide"},
	}
	for _, c := range cases {
		if got := resolveImportPath(c.from, c.imp); got != filepath.Clean(c.want) {
			t.Errorf("resolveImportPath(%q, %q) = %q, want %q", c.from, c.imp, got, c.want)
		}
	}
}

func TestNoProcMatch(t *testing.T) {
	if noProcMatch("", "/a/b/vendor.tide") {
		t.Error("an empty pattern should never match")
	}
	if !noProcMatch("vendor_*.tide", "/a/b/vendor_foo.tide") {
		t.Error("expected the glob to match the file's base name")
	}
	if noProcMatch("vendor_*.tide", "/a/b/other.tide") {
		t.Error("expected the glob not to match an unrelated file")
	}
}
