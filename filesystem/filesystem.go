// Package filesystem holds the swappable afero backend every file access goes through.
// Tests switch it to memory with SetMemMapFs.
package filesystem

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active backend.
func API() afero.Afero {
	return backend
}

func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// ReadLimited reads a whole file, refusing files larger than limit bytes.
func ReadLimited(path string, limit int64) ([]byte, error) {
	info, err := API().Stat(path)
	if err != nil {
		return nil, err
	}

	if info.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), limit)
	}

	return API().ReadFile(path)
}

// CacheFs lets gache caches store their files on the active backend.
type CacheFs struct{}

func (CacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (CacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
