package dirstat

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Kind represents the type of filesystem entry.
type Kind uint8

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link. Links are recorded but never followed.
	KindSymlink
	// KindOther is anything else (sockets, devices, pipes).
	KindOther
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name. Unknown names decode to KindOther.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file":
		*k = KindFile
	case "dir":
		*k = KindDir
	case "symlink":
		*k = KindSymlink
	default:
		*k = KindOther
	}

	return nil
}

// KindFromMode derives the Kind from a file mode type.
func KindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is one filesystem object observed during a scan.
type Entry struct {
	// Path is the absolute path of the entry.
	Path string `json:"path" yaml:"path"`
	// Name is the base name of the entry.
	Name string `json:"name" yaml:"name"`
	// Kind is the type of the entry.
	Kind Kind `json:"kind" yaml:"kind"`
	// Size is the size in bytes. For directories it is the aggregated size of
	// everything below them.
	Size int64 `json:"size" yaml:"size"`
	// ModifiedAt is the last modification time.
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
	// Extension is the lowercase extension including the dot, or empty.
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// IsFile reports whether the entry is a regular file.
func (e Entry) IsFile() bool { return e.Kind == KindFile }

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDir }

// NewEntry builds an Entry for path from its file info.
func NewEntry(path string, info fs.FileInfo) Entry {
	entry := Entry{
		Path:       path,
		Name:       filepath.Base(path),
		Kind:       KindFromMode(info.Mode()),
		ModifiedAt: info.ModTime(),
	}

	if entry.Kind == KindFile {
		entry.Size = info.Size()
		entry.Extension = Extension(path)
	}

	return entry
}

// Extension returns the lowercase extension of path, including the leading dot.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
