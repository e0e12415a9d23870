package upload

import (
	"io"
)

// State is the review state of a document.
type State string

const (
	Pending State = "pending"
	Public  State = "public"
)

// Store keeps documents per user. A document is first pending and then public. There is no way back and no deletion.
type Store interface {
	// AllPending returns the pending filenames of all users, by username.
	AllPending() (map[string][]string, error)
	// Files returns the sorted filenames. A missing directory yields no files.
	Files(state State, username string) ([]string, error)
	Path(state State, username, filename string) (string, error)
	Publish(reviewer bool, username, filename string) error
	Upload(actor, username, filename string, src io.Reader) error
}
