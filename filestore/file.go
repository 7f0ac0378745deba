package filestore

import (
	"os"
	"path/filepath"
)

type fd struct {
	*os.File
	basepath string
	filename string
}

func newFile(basepath string, filename string) (File, error) {
	var err error
	result := fd{basepath: basepath, filename: filename}
	result.File, err = os.OpenFile(result.osPath(), os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (f fd) osPath() string {
	return filepath.Join(f.basepath, f.filename)
}

// Path returns the file's name relative to its store, suitable for a later
// Open or Delete on the same store.
func (f fd) Path() Path {
	return Path(f.filename)
}

func (f fd) Size() int64 {
	info, err := os.Stat(f.osPath())
	if err != nil {
		return -1
	}
	return info.Size()
}
