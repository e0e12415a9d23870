package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/balccon/balcconator/upload"
	"github.com/rs/zerolog/log"
)

// documentError makes errors of the document store match the core errors, so handlers can classify them.
func documentError(err error) error {
	switch {
	case errors.Is(err, upload.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, upload.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, upload.ErrExists):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

// UploadDocument stores a document of the given account for review. The acting account must be the owner.
func (req *Request) UploadDocument(username, filename string, src io.Reader) error {
	if err := req.db.Documents.Upload(req.Username(), username, filename, src); err != nil {
		return documentError(err)
	}
	req.db.Metrics.DocumentsUploaded.Inc()
	log.Info().Str("username", username).Str("filename", filename).Msg("document uploaded")
	return nil
}

// PublishDocument moves a pending document to the public ones. The acting account must be a reviewer.
func (req *Request) PublishDocument(username, filename string) error {
	if err := req.db.Documents.Publish(req.Permissions.Reviewer, username, filename); err != nil {
		return documentError(err)
	}
	req.db.Metrics.DocumentsPublished.Inc()
	log.Info().Str("reviewer", req.Username()).Str("username", username).Str("filename", filename).Msg("document published")
	return nil
}

// CanSeePending returns whether the pending documents of the given account are visible to the request.
func (req *Request) CanSeePending(username string) bool {
	return req.LoggedIn() && (req.Username() == username || req.Permissions.Reviewer)
}
