package embedding

import (
	"fmt"
	"io/fs"
	"os"
)

// ResourceLoader resolves a bundled artifact by name.
type ResourceLoader interface {
	Open(name string) ([]byte, error)
}

// FSLoader reads resources from a file system, such as an embed.FS holding
// bundled models or os.DirFS over a models directory.
type FSLoader struct {
	fsys fs.FS
}

// NewFSLoader returns a loader over fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// NewDirLoader returns a loader that reads resources from dir.
func NewDirLoader(dir string) *FSLoader {
	return NewFSLoader(os.DirFS(dir))
}

// Open reads the named resource. Any failure to read it is reported as ErrResourceNotFound.
func (l *FSLoader) Open(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceNotFound, name, err)
	}
	return data, nil
}
