// Package fsys is the thin layer between the command dispatcher and the
// storage it browses.  Storage is any go-billy filesystem; the server
// runs on osfs.Default, tests on memfs.  Every call is synchronous and
// may block on storage.
package fsys

import (
	"bufio"
	"path/filepath"
	"sort"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	ncerr "fsbrowse/internal/errors"
)

// maxLineBytes caps a single text line returned by ReadLines.
const maxLineBytes = 1 << 20

// Storage is the part of billy.Filesystem the adapter reads through.
type Storage interface {
	billy.Basic
	billy.Dir
}

// Attributes is the subset of file metadata reported by touch.
type Attributes struct {
	Size    int64
	Created time.Time
}

// FS resolves client paths against a Storage.
type FS struct {
	store Storage
	host  bool // paths are host paths, so statx can see them
}

// New wraps store.  Creation times fall back to modification times.
func New(store Storage) *FS {
	return &FS{store: store}
}

// Host returns an FS over the host filesystem with no chroot, so
// absolute paths and ".." reach anywhere the process can.
func Host() *FS {
	return &FS{store: osfs.Default, host: true}
}

// ListEntries returns the names of the immediate entries of dir, sorted.
func (f *FS) ListEntries(dir string) ([]string, error) {
	infos, err := f.store.ReadDir(dir)
	if err != nil {
		return nil, ncerr.WrapPath("list", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists follows symlinks.
func (f *FS) Exists(path string) bool {
	_, err := f.store.Stat(path)
	return err == nil
}

// IsDir follows symlinks.
func (f *FS) IsDir(path string) bool {
	fi, err := f.store.Stat(path)
	return err == nil && fi.IsDir()
}

// ReadLines returns every line of the file at path without line
// terminators.  "\n" and "\r\n" both end a line.
func (f *FS) ReadLines(path string) ([]string, error) {
	file, err := f.store.Open(path)
	if err != nil {
		return nil, ncerr.WrapPath("read", path, err)
	}
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, ncerr.WrapPath("read", path, err)
	}
	return lines, nil
}

// Attributes reports the size and creation time of path.  When the
// storage keeps no birth time the modification time stands in.
func (f *FS) Attributes(path string) (Attributes, error) {
	fi, err := f.store.Stat(path)
	if err != nil {
		return Attributes{}, ncerr.WrapPath("stat", path, err)
	}
	created := fi.ModTime()
	if f.host {
		if bt, ok := birthTime(path); ok {
			created = bt
		}
	}
	return Attributes{Size: fi.Size(), Created: created}, nil
}

// Resolve joins arg onto base the way a shell would see it: an absolute
// arg replaces base, anything else is appended after a separator.  The
// result is not cleaned, so ".." segments survive.
func Resolve(base, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	if base == "" {
		return arg
	}
	if base[len(base)-1] == filepath.Separator {
		return base + arg
	}
	return base + string(filepath.Separator) + arg
}
