package filestore_test

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portus-project/go-asset-vault/filestore"
)

const existingFile = "existing.txt"

func randBytes(n int) []byte {
	arr := make([]byte, n)
	rand.Read(arr)
	return arr
}

func newStore(t *testing.T) (filestore.FileStore, string) {
	t.Helper()
	base := t.TempDir()
	filename := filepath.Join(base, existingFile)
	err := os.WriteFile(filename, randBytes(64), 0644)
	require.NoError(t, err)
	store, err := filestore.NewLocalFileStore(base)
	require.NoError(t, err)
	return store, base
}

func Test_SizeFails(t *testing.T) {
	store, _ := newStore(t)
	name := filestore.Path("newFile.txt")
	file, err := store.Create(name)
	require.NoError(t, err)
	err = store.Delete(name)
	require.NoError(t, err)
	require.Equal(t, int64(-1), file.Size())
}

func Test_RemoveSeparators(t *testing.T) {
	_, base := newStore(t)
	first, err := filestore.NewLocalFileStore(base)
	require.NoError(t, err)
	second, err := filestore.NewLocalFileStore(fmt.Sprintf("%s%c%c", base, os.PathSeparator, os.PathSeparator))
	require.NoError(t, err)
	f1, err := first.Open(existingFile)
	require.NoError(t, err)
	f2, err := second.Open(existingFile)
	require.NoError(t, err)
	require.Equal(t, f1.Path(), f2.Path())
}

func Test_BaseDirIsFileFails(t *testing.T) {
	_, base := newStore(t)
	_, err := filestore.NewLocalFileStore(filepath.Join(base, existingFile))
	require.Error(t, err)
}

func Test_CreateExistingFileFails(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Create(filestore.Path(existingFile))
	require.Error(t, err)
}

func Test_StoreFails(t *testing.T) {
	store, _ := newStore(t)
	file, err := store.Open(filestore.Path(existingFile))
	require.NoError(t, err)
	err = store.Store(filestore.Path(existingFile), file)
	require.Error(t, err)
}

func Test_OpenFails(t *testing.T) {
	store, _ := newStore(t)
	name := filestore.Path("newFile.txt")
	_, err := store.Open(name)
	require.Error(t, err)
}

func Test_InvalidBaseDirectory(t *testing.T) {
	_, err := filestore.NewLocalFileStore("NoSuchDirectory")
	require.Error(t, err)
}

func Test_CreateFile(t *testing.T) {
	store, _ := newStore(t)
	name := filestore.Path("newFile.txt")
	file, err := store.Create(name)
	require.NoError(t, err)
	defer func() { store.Delete(name) }()
	require.Equal(t, name, file.Path())
	bytesToWrite := 32
	written, err := file.Write(randBytes(bytesToWrite))
	require.NoError(t, err)
	require.Equal(t, bytesToWrite, written)
	require.Equal(t, int64(bytesToWrite), file.Size())
}

func Test_CreateTempRoundTrips(t *testing.T) {
	store, _ := newStore(t)
	file, err := store.CreateTemp()
	require.NoError(t, err)
	contents := randBytes(128)
	_, err = file.Write(contents)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	reopened, err := store.Open(file.Path())
	require.NoError(t, err)
	read, err := io.ReadAll(reopened)
	require.NoError(t, err)
	require.Equal(t, contents, read)
	require.NoError(t, reopened.Close())
	require.NoError(t, store.Delete(file.Path()))
	_, err = store.Open(file.Path())
	require.Error(t, err)
}

func Test_OpenAndReadFile(t *testing.T) {
	store, _ := newStore(t)
	file, err := store.Open(filestore.Path(existingFile))
	require.NoError(t, err)
	size := file.Size()
	require.NotEqual(t, -1, size)
	pos := int64(size / 2)
	offset, err := file.Seek(pos, 0)
	require.NoError(t, err)
	require.Equal(t, pos, offset)
	buffer := make([]byte, size/2)
	read, err := file.Read(buffer)
	require.NoError(t, err)
	require.Equal(t, int(size/2), read)
	err = file.Close()
	require.NoError(t, err)
}

func Test_CopyFile(t *testing.T) {
	store, _ := newStore(t)
	file, err := store.Open(filestore.Path(existingFile))
	require.NoError(t, err)
	newFile := filestore.Path("newFile.txt")
	err = store.Store(newFile, file)
	require.NoError(t, err)
	err = store.Delete(newFile)
	require.NoError(t, err)
}
