//go:build unix

package resource

import "golang.org/x/sys/unix"

// canAccess asks the kernel through access(2), so ownership, groups and ACLs
// are taken into account the way the platform does.
func canAccess(path string, mode accessMode) bool {
	var m uint32
	switch mode {
	case accessRead:
		m = unix.R_OK
	case accessWrite:
		m = unix.W_OK
	case accessExecute:
		m = unix.X_OK
	}
	return unix.Access(path, m) == nil
}
