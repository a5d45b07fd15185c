package resource

import "io/fs"

// Kind discriminates what a path currently denotes on disk.
type Kind int

const (
	// KindUnknown means the path is missing or could not be stat'ed.
	KindUnknown Kind = iota
	// KindFile is anything that is not a directory.
	KindFile
	// KindDirectory is a directory.
	KindDirectory
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

func kindOf(info fs.FileInfo) Kind {
	if info == nil {
		return KindUnknown
	}
	if info.IsDir() {
		return KindDirectory
	}
	return KindFile
}
