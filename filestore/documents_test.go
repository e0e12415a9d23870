package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/balccon/balcconator/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Root: t.TempDir()}
}

func TestFiles_MissingDirectoryIsEmpty(t *testing.T) {
	s := newStore(t)

	files, err := s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = s.Files(upload.Public, "alice")
	require.NoError(t, err)
	assert.Empty(t, files)

	all, err := s.AllPending()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpload_ThenPublish(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("%PDF")))

	pending, err := s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf"}, pending)

	public, err := s.Files(upload.Public, "alice")
	require.NoError(t, err)
	assert.Empty(t, public)

	all, err := s.AllPending()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"alice": {"cv.pdf"}}, all)

	require.NoError(t, s.Publish(true, "alice", "cv.pdf"))

	pending, err = s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)

	public, err = s.Files(upload.Public, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf"}, public)

	path, err := s.Path(upload.Public, "alice", "cv.pdf")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content))
}

func TestUpload_ActorMismatch(t *testing.T) {
	s := newStore(t)

	err := s.Upload("bob", "alice", "cv.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, upload.ErrUnauthorized)

	err = s.Upload("", "alice", "cv.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, upload.ErrUnauthorized)

	_, statErr := os.Stat(filepath.Join(s.Root, "pending", "alice"))
	assert.True(t, os.IsNotExist(statErr), "no state must be produced")
}

func TestUpload_Existing(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("one")))

	err := s.Upload("alice", "alice", "cv.pdf", strings.NewReader("two"))
	require.ErrorIs(t, err, upload.ErrExists)

	path, err := s.Path(upload.Pending, "alice", "cv.pdf")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(content))

	// no temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpload_Traversal(t *testing.T) {
	s := newStore(t)
	for _, filename := range []string{"../../evil", "..", ".hidden", "a/b"} {
		err := s.Upload("alice", "alice", filename, strings.NewReader("x"))
		assert.ErrorIs(t, err, upload.ErrBadFilename, filename)
	}
	err := s.Upload("..", "..", "evil", strings.NewReader("x"))
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(s.Root), "evil"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPublish_RequiresReviewer(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("x")))

	require.ErrorIs(t, s.Publish(false, "alice", "cv.pdf"), upload.ErrUnauthorized)

	pending, err := s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf"}, pending)
}

func TestPublish_NotFoundLeavesBothUnchanged(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("x")))

	require.ErrorIs(t, s.Publish(true, "alice", "missing.pdf"), upload.ErrNotFound)

	pending, err := s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf"}, pending)

	public, err := s.Files(upload.Public, "alice")
	require.NoError(t, err)
	assert.Empty(t, public)
}

func TestPublish_ConcurrentOnlyOneWins(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("x")))

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Publish(true, "alice", "cv.pdf")
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, upload.ErrNotFound)
		}
	}
	assert.Equal(t, 1, ok)

	public, err := s.Files(upload.Public, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf"}, public)
}

func TestUpload_PublicNameIsRefused(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("v1")))
	require.NoError(t, s.Publish(true, "alice", "cv.pdf"))

	err := s.Upload("alice", "alice", "cv.pdf", strings.NewReader("v2"))
	require.ErrorIs(t, err, upload.ErrExists)

	pending, err := s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)

	path, err := s.Path(upload.Public, "alice", "cv.pdf")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))
}

func TestPublish_NeverReplacesPublic(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Upload("alice", "alice", "cv.pdf", strings.NewReader("v1")))
	require.NoError(t, s.Publish(true, "alice", "cv.pdf"))

	// a pending file with a public name, e.g. from before an upgrade
	pendingPath, err := s.Path(upload.Pending, "alice", "cv.pdf")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pendingPath, []byte("v2"), 0644))

	require.ErrorIs(t, s.Publish(true, "alice", "cv.pdf"), upload.ErrExists)

	publicPath, err := s.Path(upload.Public, "alice", "cv.pdf")
	require.NoError(t, err)
	content, err := os.ReadFile(publicPath)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	pending, err := s.Files(upload.Pending, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf"}, pending, "the pending document stays")
}
