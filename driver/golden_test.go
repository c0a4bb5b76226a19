package driver

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestGoldenEndToEnd compiles each testdata/*.txtar fixture and runs the
// emitted shell under a real bash, asserting stdout and exit code against
// the fixture's expectations (spec §8 "End-to-end scenarios").
func TestGoldenEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not found on PATH")
	}

	paths, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no testdata/*.txtar fixtures found")
	}

	for _, path := range paths {
		path := path
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("parsing %s: %v", path, err)
			}
			src := txtarFile(ar, "input.tide")
			if src == nil {
				t.Fatalf("%s: missing input.tide section", path)
			}
			wantStdout := string(txtarFile(ar, "stdout"))
			wantExit := 0
			if exit := txtarFile(ar, "exit"); exit != nil {
				wantExit, err = strconv.Atoi(strings.TrimSpace(string(exit)))
				if err != nil {
					t.Fatalf("%s: bad exit section: %v", path, err)
				}
			}

			srcFile, err := os.CreateTemp(t.TempDir(), "golden-*.tide")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := srcFile.Write(src); err != nil {
				t.Fatal(err)
			}
			srcFile.Close()

			d := New(nil)
			res, err := d.Compile(srcFile.Name(), Options{})
			if err != nil {
				t.Fatalf("%s: compile failed: %v", path, err)
			}

			shPath := filepath.Join(t.TempDir(), "golden.sh")
			if err := os.WriteFile(shPath, []byte(res.Shell), 0755); err != nil {
				t.Fatal(err)
			}

			cmd := exec.Command("bash", shPath)
			var stdout bytes.Buffer
			cmd.Stdout = &stdout
			runErr := cmd.Run()

			gotExit := 0
			if runErr != nil {
				exitErr, ok := runErr.(*exec.ExitError)
				if !ok {
					t.Fatalf("%s: running bash: %v", path, runErr)
				}
				gotExit = exitErr.ExitCode()
			}

			if gotExit != wantExit {
				t.Errorf("%s: exit code = %d, want %d (shell:\n%s)", path, gotExit, wantExit, res.Shell)
			}
			if stdout.String() != wantStdout {
				t.Errorf("%s: stdout = %q, want %q", path, stdout.String(), wantStdout)
			}
		})
	}
}

func txtarFile(ar *txtar.Archive, name string) []byte {
	for _, f := range ar.Files {
		if f.Name == name {
			return f.Data
		}
	}
	return nil
}
