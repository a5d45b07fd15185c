package common

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceError_KindMatching(t *testing.T) {
	ioErr := NewIOFailure("delete", "/tmp/x", fs.ErrPermission)
	preErr := NewPreconditionViolation("setContents", "/tmp/x", ErrNilContents)

	assert.True(t, IsIOFailure(ioErr))
	assert.False(t, IsPreconditionViolation(ioErr))
	assert.True(t, IsPreconditionViolation(preErr))
	assert.False(t, IsIOFailure(preErr))

	// the low-level cause stays reachable
	assert.ErrorIs(t, ioErr, fs.ErrPermission)
	assert.ErrorIs(t, preErr, ErrNilContents)
}

func TestResourceError_Message(t *testing.T) {
	err := NewIOFailure("rename", "/a/b", errors.New("boom"))
	assert.Equal(t, "rename /a/b: io failure: boom", err.Error())

	err = NewPreconditionViolation("move", "", ErrNilTarget)
	assert.Equal(t, "move: precondition violation: target resource must not be nil", err.Error())
}

func TestResourceError_NilCause(t *testing.T) {
	assert.NoError(t, NewIOFailure("stat", "/x", nil))
	assert.NoError(t, NewPreconditionViolation("stat", "/x", nil))
}

func TestResourceError_As(t *testing.T) {
	err := NewIOFailure("mkdirs", "/x/y", fs.ErrExist)

	var re *ResourceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "mkdirs", re.Op)
	assert.Equal(t, "/x/y", re.Path)
	assert.Equal(t, IOFailure, re.Kind)
}

func TestValidatePath(t *testing.T) {
	pu := NewPathUtils()

	assert.NoError(t, pu.ValidatePath("/tmp/file.txt"))
	assert.ErrorIs(t, pu.ValidatePath(""), ErrPathEmpty)
	assert.ErrorIs(t, pu.ValidatePath("   "), ErrPathEmpty)
	assert.ErrorIs(t, pu.ValidatePath("bad\x00path"), ErrPathInvalid)

	long := make([]byte, MaxPathLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, pu.ValidatePath(string(long)), ErrPathTooLong)
}

func TestIsSubpath(t *testing.T) {
	pu := NewPathUtils()

	assert.True(t, pu.IsSubpath("/a", "/a/b"))
	assert.True(t, pu.IsSubpath("/a", "/a/b/c"))
	assert.False(t, pu.IsSubpath("/a", "/a"))
	assert.False(t, pu.IsSubpath("/a/b", "/a"))
	assert.True(t, pu.IsSubpath("/a", "/a/..b"))
}
