package frontend

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"

	"github.com/balccon/balcconator/core"
	"github.com/balccon/balcconator/upload"
	"github.com/julienschmidt/httprouter"
)

func publicDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return serveDocument(w, req, ctx, upload.Public, params.ByName("user"), params.ByName("filename"))
}

// pendingDocument is visible to the owner and to reviewers.
func pendingDocument(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	var username = params.ByName("user")
	if !ctx.CanSeePending(username) {
		return core.ErrUnauthorized
	}
	return serveDocument(w, req, ctx, upload.Pending, username, params.ByName("filename"))
}

func serveDocument(w http.ResponseWriter, req *http.Request, ctx *context, state upload.State, username, filename string) error {

	path, err := ctx.db.Documents.Path(state, username, filename)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.ErrNotFound
	}
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return core.ErrNotFound
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, req, filename, info.ModTime(), file)
	return nil
}
