package resource

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/pathresource/pathfs/filesystem/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read exploded") }

func TestSetContents_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "parents", "hello.txt")

	r, err := newTestFactory(t).Create(path)
	require.NoError(t, err)

	require.NoError(t, r.SetContentsString("hello"))

	data, err := r.ReadContents()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSetContents_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	writeFile(t, path, "a much longer original body")
	r := New(nil, path, nil)

	require.NoError(t, r.SetContentsBytes([]byte("short")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))

	require.NoError(t, r.SetContentsBytes(nil))
	size, err := r.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestSetContents_PreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	writeFile(t, path, "old")
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, New(nil, path, nil).SetContentsString("new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetContents_ClosesReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.txt")
	src := &trackingReader{Reader: strings.NewReader("body")}

	require.NoError(t, New(nil, path, nil).SetContents(src))
	assert.True(t, src.closed)
}

func TestSetContents_FailedReadKeepsOldContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stable.txt")
	writeFile(t, path, "original")

	src := &trackingReader{Reader: failingReader{}}
	err := New(nil, path, nil).SetContents(src)
	require.Error(t, err)
	assert.True(t, common.IsIOFailure(err))
	assert.True(t, src.closed)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSetContents_WritesThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data", "real.txt")
	link := filepath.Join(dir, "link.txt")
	writeFile(t, target, "old")
	require.NoError(t, os.Symlink(target, link))

	require.NoError(t, New(nil, link, nil).SetContentsString("new"))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link was replaced by a regular file")

	// the staging file lives beside the real file and is gone afterwards
	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSetContents_KeepsHardLinksTogether(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	peer := filepath.Join(dir, "b.txt")
	writeFile(t, path, "old contents")
	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, os.Link(path, peer))

	require.NoError(t, New(nil, path, nil).SetContentsString("new"))

	got, err := os.ReadFile(peer)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	a, err := os.Stat(path)
	require.NoError(t, err)
	b, err := os.Stat(peer)
	require.NoError(t, err)
	assert.True(t, os.SameFile(a, b))
	assert.Equal(t, os.FileMode(0o600), a.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSetContents_HardLinkFailedReadKeepsOldContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "original")
	require.NoError(t, os.Link(path, filepath.Join(dir, "b.txt")))

	err := New(nil, path, nil).SetContents(failingReader{})
	require.Error(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestSetContents_NilReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nil.txt")

	err := New(nil, path, nil).SetContents(nil)
	require.Error(t, err)
	assert.True(t, common.IsPreconditionViolation(err))
	assert.ErrorIs(t, err, common.ErrNilContents)
	assert.NoFileExists(t, path)
}

func TestSetContents_CountsBytes(t *testing.T) {
	fac := newTestFactory(t)
	r, err := fac.Create(filepath.Join(t.TempDir(), "count.txt"))
	require.NoError(t, err)

	require.NoError(t, r.SetContentsString("12345"))

	assert.Equal(t, int64(5), fac.Metrics()["bytes_written"])
}

func TestContentReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "read.txt")
	writeFile(t, path, "streamed")
	r := New(nil, path, nil)

	rc, err := r.ContentReader()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(data))

	_, err = New(nil, filepath.Join(t.TempDir(), "absent"), nil).ContentReader()
	assert.True(t, common.IsIOFailure(err))
}
