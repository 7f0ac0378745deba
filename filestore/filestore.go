package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type fileStore struct {
	base string
}

// NewLocalFileStore creates a filestore mounted on a given local directory path
func NewLocalFileStore(basedirectory string) (FileStore, error) {
	base, err := checkIsDir(basedirectory)
	if err != nil {
		return nil, err
	}
	return &fileStore{base}, nil
}

func checkIsDir(baseDir string) (string, error) {
	i := len(baseDir) - 1
	for ; i >= 0; i-- {
		if baseDir[i] != os.PathSeparator {
			break
		}
	}
	base := baseDir[0 : i+1]
	info, err := os.Stat(base)
	if err != nil {
		return "", fmt.Errorf("error getting %s info: %s", base, err.Error())
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", base)
	}
	return base, nil
}

func (fs fileStore) filename(p Path) string {
	return fmt.Sprintf("%s%c%s", fs.base, os.PathSeparator, p)
}

func (fs fileStore) Open(p Path) (File, error) {
	name := fs.filename(p)
	_, err := os.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("error trying to open %s: %s", name, err.Error())
	}
	return newFile(fs.base, string(p))
}

func (fs fileStore) Create(p Path) (File, error) {
	name := fs.filename(p)
	_, err := os.Stat(name)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", name)
	}
	return newFile(fs.base, string(p))
}

func (fs fileStore) CreateTemp() (File, error) {
	file, err := os.CreateTemp(fs.base, "payload-*.car")
	if err != nil {
		return nil, err
	}
	return &fd{File: file, basepath: fs.base, filename: filepath.Base(file.Name())}, nil
}

func (fs fileStore) Store(p Path, src File) error {
	dest, err := fs.Create(p)
	if err != nil {
		return err
	}
	defer dest.Close()
	_, err = io.Copy(dest, src)
	return err
}

func (fs fileStore) Delete(p Path) error {
	return os.Remove(fs.filename(p))
}
