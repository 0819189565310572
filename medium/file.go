package medium

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// File stores each item as a file under Dir of a billy filesystem.
// Writes go to a temp file that is renamed over the target, so a crash
// mid-write leaves the previous snapshot intact.
type File struct {
	fs  billy.Filesystem
	dir string
}

var _ Medium = (*File)(nil)

type FileConfig struct {
	// FS defaults to the OS filesystem rooted at "/".
	FS billy.Filesystem
	// Dir holds the item files. Required.
	Dir string
}

func NewFile(cfg FileConfig) (*File, error) {
	if cfg.Dir == "" {
		return nil, errors.New("medium: file dir is required")
	}
	fs := cfg.FS
	if fs == nil {
		fs = osfs.New("/")
	}
	if err := fs.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("medium: create %s: %w", cfg.Dir, err)
	}
	return &File{fs: fs, dir: cfg.Dir}, nil
}

// name maps key to a single path element. Escaping is reversible, so
// distinct keys never share a file.
func (f *File) name(key string) string {
	return path.Join(f.dir, url.PathEscape(key)+".snapshot")
}

func (f *File) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	b, err := util.ReadFile(f.fs, f.name(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (f *File) SetItem(_ context.Context, key string, value []byte) error {
	tmp, err := util.TempFile(f.fs, f.dir, ".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return err
	}
	if err := f.fs.Rename(tmpName, f.name(key)); err != nil {
		_ = f.fs.Remove(tmpName)
		return err
	}
	return nil
}

// Clear removes every snapshot file in Dir. Other files are left alone.
func (f *File) Clear(_ context.Context) error {
	infos, err := f.fs.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var errs []error
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".snapshot") {
			continue
		}
		if err := f.fs.Remove(path.Join(f.dir, fi.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *File) Close(context.Context) error { return nil }
