// Package resource wraps local filesystem paths as resources.
//
// A PathResource stands for one path, file or directory, and need not exist.
// It remembers the modification time seen at creation or at the last Refresh
// and reports staleness against the live value. Directory listings are cached
// and rebuilt whenever the directory is found stale.
//
// Operations that return (bool, error) use false for expected outcomes such as
// "already exists" or "already gone" and reserve errors for I/O failures and
// invalid arguments; errors are *common.ResourceError values carrying the
// operation, the path and the underlying cause.
//
// Resources are normally obtained from a Factory. DefaultFactory interns one
// instance per path and tracks moves and deletions.
package resource
