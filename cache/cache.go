// Package cache implements the on-disk cache collaborator of spec §6: a
// pre-tokenized form of each compiled source file, stored under
// ~/.cache/<compiler>/, keyed by the file's mtime, length, and the
// compiler's own build hash so a stale entry (an edited source file, or a
// rebuilt compiler) is never reused.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/mod/sumdb/dirhash"

	"github.com/pkg/errors"

	"github.com/tide-lang/tidec/lexer"
)

// Dir is the on-disk cache root for one compiler name, created with mode
// 0700 (spec §6 "directory created with mode 0700").
type Dir struct {
	root      string
	buildHash string
}

// Open resolves ~/.cache/<compiler>/ and creates it if absent. buildHash
// identifies the compiler binary's own source tree (see BuildHash:
// dirhash.Hash1 over its .go files, computed once at startup) so entries written by an older
// or newer tidec never collide with the current one.
func Open(compiler, buildHash string) (*Dir, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, errors.Wrap(err, "cache: resolving user cache dir")
	}
	root := filepath.Join(base, compiler)
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, errors.Wrapf(err, "cache: creating %s", root)
	}
	return &Dir{root: root, buildHash: buildHash}, nil
}

// BuildHash hashes a compiler source tree rooted at dir with dirhash (spec
// SPEC_FULL.md §1 "hashes the compiler's own source tree once at startup to
// form part of the cache key").
func BuildHash(dir string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "cache: walking compiler source tree")
	}
	h, err := dirhash.Hash1(files, func(name string) (io.ReadCloser, error) {
		return os.Open(name)
	})
	if err != nil {
		return "", errors.Wrap(err, "cache: hashing compiler source tree")
	}
	return h, nil
}

// Entry is the pre-tokenized form of one source file.
type Entry struct {
	Tokens []lexer.Token
}

// key derives the cache file name from a SHA-256 of path plus a prefix of the
// compiler's build hash, so a different build never reads this build's
// entries. The source file's mtime and length are not part of the name: Put
// records them inside the entry, and Get compares them and removes an entry
// that no longer matches.
func (d *Dir) key(path string) string {
	sum := sha256.Sum256([]byte(path))
	digest := hex.EncodeToString(sum[:])
	suffix := d.buildHash
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return filepath.Join(d.root, digest+"-"+suffix+"-cache")
}

// Get returns the cached tokens for path if present and still valid (the
// backing file's mtime/length match what was recorded), removing a stale
// entry it finds instead of returning it.
func (d *Dir) Get(path string) ([]lexer.Token, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	cachePath := d.key(path)
	f, err := os.Open(cachePath)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var stamped stampedEntry
	if err := gob.NewDecoder(f).Decode(&stamped); err != nil {
		os.Remove(cachePath)
		return nil, false
	}
	if stamped.ModTime != info.ModTime().UnixNano() || stamped.Size != info.Size() {
		os.Remove(cachePath)
		return nil, false
	}
	return stamped.Entry.Tokens, true
}

// Put records tokens for path under its current mtime/length.
func (d *Dir) Put(path string, tokens []lexer.Token) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "cache: stat %s", path)
	}
	cachePath := d.key(path)
	f, err := os.OpenFile(cachePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrapf(err, "cache: creating %s", cachePath)
	}
	defer f.Close()

	stamped := stampedEntry{
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
		Entry:   Entry{Tokens: tokens},
	}
	return gob.NewEncoder(f).Encode(&stamped)
}

type stampedEntry struct {
	ModTime int64
	Size    int64
	Entry   Entry
}
