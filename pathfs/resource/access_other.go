//go:build !unix

package resource

import "os"

// canAccess falls back to permission bits where access(2) is unavailable.
func canAccess(path string, mode accessMode) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	perm := info.Mode().Perm()
	switch mode {
	case accessRead:
		return perm&0o444 != 0
	case accessWrite:
		return perm&0o222 != 0
	case accessExecute:
		return perm&0o111 != 0
	}
	return false
}
