package frontend

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

var adminTmpl = tmpl(`<h1>Administration</h1>
	<ul>
		{{ if .IsAdmin }}
			<li><a href="admin/accounts">Accounts</a></li>
			<li><a href="admin/groups">Groups</a></li>
		{{ end }}
		{{ if .Permissions.Reviewer }}
			<li><a href="admin/review">Review documents</a></li>
		{{ end }}
		{{ if .Permissions.Venue }}
			<li><a href="admin/venues">Venues</a></li>
		{{ end }}
		{{ if not .HasAny }}
			<li>You don't have any administrative permissions.</li>
		{{ end }}
	</ul>`)

type adminData struct {
	*context
}

func (data *adminData) HasAny() bool {
	return data.IsAdmin() || data.Permissions.Reviewer || data.Permissions.Venue
}

func admin(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return adminTmpl.Execute(w, &adminData{ctx})
}

var reviewTmpl = tmpl(`<h1>Review documents</h1>
	{{ $csrf := .CSRFField }}
	{{ range $username, $files := .AllPending }}
		<h2><a href="people/{{ PathEscape $username }}">{{ $username }}</a></h2>
		<ul>
			{{ range $files }}
				<li>
					<a href="documents/pending/{{ PathEscape $username }}/{{ PathEscape . }}">{{ . }}</a>
					<form method="post" style="display: inline">
						{{ $csrf }}
						<input type="hidden" name="username" value="{{ $username }}">
						<input type="hidden" name="filename" value="{{ . }}">
						<button type="submit">Publish</button>
					</form>
				</li>
			{{ end }}
		</ul>
	{{ else }}
		<p>No documents are waiting for review.</p>
	{{ end }}`)

type reviewData struct {
	*context
}

func (data *reviewData) AllPending() (map[string][]string, error) {
	return data.db.Documents.AllPending()
}

func review(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if req.Method == http.MethodPost {
		var username = req.PostFormValue("username")
		if username == "" {
			return fmt.Errorf("%w: missing username", ErrBadRequest)
		}
		if err := publishDocument(ctx, username, req.PostFormValue("filename")); err != nil {
			return err
		}
		ctx.SeeOther("/admin/review")
		return nil
	}

	return reviewTmpl.Execute(w, &reviewData{ctx})
}
