package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/balccon/balcconator/upload"
)

// Store implements upload.Store on a local filesystem:
//
//	<Root>/pending/<username>/<filename>
//	<Root>/public/<username>/<filename>
//
// Publishing links a file, so pending and public must be on the same filesystem.
type Store struct {
	Root string

	publishMu sync.Mutex
}

func (s *Store) dir(state upload.State, username string) (string, error) {
	if state != upload.Pending && state != upload.Public {
		return "", fmt.Errorf("unknown document state %q", state)
	}
	username, err := upload.CleanFilename(username) // usernames are filesystem-safe anyway, this is just a second line of defense
	if err != nil {
		return "", err
	}
	return upload.SafeJoin(s.Root, string(state), username)
}

func (s *Store) Path(state upload.State, username, filename string) (string, error) {
	dir, err := s.dir(state, username)
	if err != nil {
		return "", err
	}
	filename, err = upload.CleanFilename(filename)
	if err != nil {
		return "", err
	}
	return upload.SafeJoin(dir, filename)
}

func (s *Store) Files(state upload.State, username string) ([]string, error) {
	dir, err := s.dir(state, username)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir) // sorted by filename
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files = []string{}
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), ".") { // skip temporary files of running uploads
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

func (s *Store) AllPending() (map[string][]string, error) {
	var all = make(map[string][]string)
	entries, err := os.ReadDir(filepath.Join(s.Root, string(upload.Pending)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return all, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := s.Files(upload.Pending, entry.Name())
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			all[entry.Name()] = files
		}
	}
	return all, nil
}

// exists returns upload.ErrExists if path exists.
func exists(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", upload.ErrExists, filepath.Base(path))
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return err
	}
}

// Upload writes src to a temporary file and links it into place, so a document is never seen half-written
// and an existing document is never overwritten. A name which is pending or public already is refused.
func (s *Store) Upload(actor, username, filename string, src io.Reader) error {

	if actor == "" || actor != username {
		return upload.ErrUnauthorized
	}

	path, err := s.Path(upload.Pending, username, filename)
	if err != nil {
		return err
	}

	public, err := s.Path(upload.Public, username, filename)
	if err != nil {
		return err
	}

	if err := exists(public); err != nil {
		return err
	}

	var dir = filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil { // 755 is required if the webserver runs as a different user
		return err
	}

	if err := exists(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", upload.ErrExists, filepath.Base(path))
		}
		return err
	}
	return nil
}

// Publish moves a document from pending to public. Public documents are never replaced.
func (s *Store) Publish(reviewer bool, username, filename string) error {

	if !reviewer {
		return upload.ErrUnauthorized
	}

	src, err := s.Path(upload.Pending, username, filename)
	if err != nil {
		return err
	}

	dst, err := s.Path(upload.Public, username, filename)
	if err != nil {
		return err
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", upload.ErrNotFound, username, filename)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	// link fails if dst exists, unlike rename
	if err := os.Link(src, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s/%s", upload.ErrExists, username, filename)
		}
		return err
	}

	return os.Remove(src)
}
