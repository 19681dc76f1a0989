// Package cleanup deletes cleanup candidates after explicit approval.
package cleanup

import (
	"io/fs"
	"os"
)

//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=remover.go -destination=mock_remover_test.go -package=cleanup_test

// Remover is the filesystem surface deletion needs.
type Remover interface {
	Lstat(path string) (fs.FileInfo, error)
	Remove(path string) error
}

// OSRemover removes entries from the local filesystem.
type OSRemover struct{}

// Lstat returns file info without following symlinks.
func (OSRemover) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Remove removes a single file.
func (OSRemover) Remove(path string) error {
	return os.Remove(path)
}
