package filestore

import "io"

// Path identifies a file within a FileStore, relative to the store's base
// directory. Paths stay valid across reopening the store on the same
// directory.
type Path string

// File is an open handle inside a FileStore.
type File interface {
	Path() Path
	Size() int64

	io.Closer
	io.Reader
	io.Writer
	io.Seeker
}

// FileStore provides local staging space for encoded payloads awaiting
// transfer and for payloads fetched back from a depot.
type FileStore interface {
	Open(p Path) (File, error)
	Create(p Path) (File, error)
	CreateTemp() (File, error)
	Store(p Path, src File) error
	Delete(p Path) error
}
