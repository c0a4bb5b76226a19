// Command tidec compiles Tide source into standalone Bash scripts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/tide-lang/tidec/cache"
	"github.com/tide-lang/tidec/driver"
)

func main() {
	log.SetFlags(log.Lshortfile)
	if os.Getenv("TIDEC_DEBUG_PARSER") != "" {
		log.SetFlags(log.Lshortfile | log.Lmicroseconds)
	}

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:", os.Args[0], "<run|build|eval|docs> [options] ...")
		fmt.Fprintln(os.Stderr, "  run <file> [args...]")
		fmt.Fprintln(os.Stderr, "  build <in> <out>")
		fmt.Fprintln(os.Stderr, "  eval <code> [args...]")
		fmt.Fprintln(os.Stderr, "  docs <file> [<outdir>]")
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}
	sub := os.Args[1]

	fs := flag.NewFlagSet(sub, flag.ExitOnError)
	noCache := fs.Bool("no-cache", false, "bypass the on-disk token cache")
	noProc := fs.String("no-proc", "", "glob of source files to exclude from the cache")
	minify := fs.Bool("minify", false, "omit blank lines between emitted declarations")
	test := fs.String("test", "", "emit test blocks instead of main (empty value selects every test)")
	fs.Parse(os.Args[2:])
	args := fs.Args()

	testMode := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "test" {
			testMode = true
		}
	})

	opts := driver.Options{
		NoCache:  *noCache,
		NoProc:   *noProc,
		Minify:   *minify,
		TestMode: testMode,
		TestName: *test,
	}

	switch sub {
	case "run":
		if len(args) < 1 {
			log.Fatal("run requires a source file")
		}
		os.Exit(runFile(args[0], args[1:], opts))
	case "build":
		if len(args) != 2 {
			log.Fatal("build requires <in> <out>")
		}
		buildFile(args[0], args[1], opts)
	case "eval":
		if len(args) < 1 {
			log.Fatal("eval requires an inline program")
		}
		os.Exit(evalCode(args[0], args[1:], opts))
	case "docs":
		if len(args) < 1 {
			log.Fatal("docs requires a source file")
		}
		outdir := "docs"
		if len(args) > 1 {
			outdir = args[1]
		}
		if err := driver.Docs(args[0], outdir); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func newDriver() *driver.Driver {
	buildHash, err := cache.BuildHash(moduleRoot())
	if err != nil {
		log.Fatal(err)
	}
	c, err := cache.Open("tidec", buildHash)
	if err != nil {
		log.Fatal(err)
	}
	return driver.New(c)
}

// moduleRoot locates this module's source tree for cache.BuildHash, using
// the build-time path of this very file (valid when run via `go run`/`go
// build` from a checkout; an installed binary with no accompanying source
// simply hashes whatever directory it finds, which only ever disagrees with
// a prior run's hash, never corrupts a result).
func moduleRoot() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func runFile(path string, scriptArgs []string, opts driver.Options) int {
	d := newDriver()
	res, err := d.Compile(path, opts)
	if err != nil {
		log.Fatal(err)
	}
	printWarnings(res)
	return runBash(res.Shell, scriptArgs)
}

func evalCode(code string, scriptArgs []string, opts driver.Options) int {
	tmp, err := os.CreateTemp("", "tidec-eval-*.tide")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(code); err != nil {
		log.Fatal(err)
	}
	tmp.Close()

	d := newDriver()
	res, err := d.Compile(tmp.Name(), opts)
	if err != nil {
		log.Fatal(err)
	}
	printWarnings(res)
	return runBash(res.Shell, scriptArgs)
}

func buildFile(in, out string, opts driver.Options) {
	d := newDriver()
	res, err := d.Compile(in, opts)
	if err != nil {
		log.Fatal(err)
	}
	printWarnings(res)
	if err := os.WriteFile(out, []byte(res.Shell), 0755); err != nil {
		log.Fatal(err)
	}
}

func printWarnings(res *driver.Result) {
	for _, w := range res.Bag.Warnings() {
		fmt.Fprintln(os.Stderr, w.Format(""))
	}
}

// runBash writes shell to a temp file and shells out to bash, propagating
// its exit code as this process's own (spec §6: "the driver's exit code
// equals Bash's exit code").
func runBash(shell string, scriptArgs []string) int {
	tmp, err := os.CreateTemp("", "tidec-run-*.sh")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(shell); err != nil {
		log.Fatal(err)
	}
	tmp.Close()

	cmd := exec.Command("bash", append([]string{tmp.Name()}, scriptArgs...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		log.Fatal(err)
	}
	return 0
}
