package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pwbjournal/internal/filex"
	"github.com/oklog/ulid/v2"
)

const fileSuffix = ".blob"

// FileRepository keeps each key in its own file inside a directory. Writes
// go through a temp file and a rename.
//
// A file starts with its revision on a line of its own, followed by the
// value. Files without that header (written by hand, say) are read whole and
// get a revision derived from modification time and size.
type FileRepository struct {
	dir string
	rev *revisionSource
}

// NewFileRepository creates dir if needed and returns a repository over it.
func NewFileRepository(dir string) (*FileRepository, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FileRepository{dir: abs, rev: newRevisionSource()}, nil
}

// Dir is the directory holding the blob files.
func (r *FileRepository) Dir() string {
	return r.dir
}

// FileName returns the base name used to store key.
func FileName(key string) string {
	return url.QueryEscape(key) + fileSuffix
}

// KeyFromFileName reverses FileName. It reports false for names that are
// not blob files, such as in-flight temp files.
func KeyFromFileName(name string) (string, bool) {
	name = filepath.Base(name)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return key, true
}

func (r *FileRepository) path(key string) string {
	return filepath.Join(r.dir, FileName(key))
}

func (r *FileRepository) Get(_ context.Context, key string) (Blob, error) {
	p := r.path(key)
	value, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Blob{}, nil
	}
	if err != nil {
		return Blob{}, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}
	if rev, rest, ok := splitHeader(value); ok {
		return Blob{Value: rest, Revision: rev}, nil
	}
	rev, err := statRevision(p)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}
	return Blob{Value: value, Revision: rev}, nil
}

func (r *FileRepository) Set(_ context.Context, key string, value []byte) (string, error) {
	rev := r.rev.next()
	data := make([]byte, 0, len(rev)+1+len(value))
	data = append(data, rev...)
	data = append(data, '\n')
	data = append(data, value...)

	if err := filex.WriteFileAtomic(r.path(key), data, 0o600); err != nil {
		return "", fmt.Errorf("failed to set blob[%s]: %w", key, err)
	}
	return rev, nil
}

func (r *FileRepository) Delete(_ context.Context, key string) error {
	err := os.Remove(r.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob[%s]: %w", key, err)
	}
	return nil
}

func (r *FileRepository) Revision(_ context.Context, key string) (string, error) {
	p := r.path(key)
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get revision[%s]: %w", key, err)
	}
	defer f.Close()

	head := make([]byte, ulid.EncodedSize+1)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to get revision[%s]: %w", key, err)
	}
	if rev, _, ok := splitHeader(head[:n]); ok {
		return rev, nil
	}
	rev, err := statRevision(p)
	if err != nil {
		return "", fmt.Errorf("failed to get revision[%s]: %w", key, err)
	}
	return rev, nil
}

func (r *FileRepository) Close() error {
	return nil
}

// splitHeader separates the revision line from the value.
func splitHeader(data []byte) (rev string, value []byte, ok bool) {
	if len(data) < ulid.EncodedSize+1 || data[ulid.EncodedSize] != '\n' {
		return "", nil, false
	}
	id, err := ulid.ParseStrict(string(data[:ulid.EncodedSize]))
	if err != nil {
		return "", nil, false
	}
	return id.String(), data[ulid.EncodedSize+1:], true
}

func statRevision(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x-%x", fi.ModTime().UnixNano(), fi.Size()), nil
}
