// Package frontend implements the HTTP surface of the conference site.
package frontend

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/balccon/balcconator/auth"
	"github.com/balccon/balcconator/core"
	"github.com/balccon/balcconator/upload"
	"github.com/balccon/balcconator/util"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

var ErrBadRequest = errors.New("bad request")

// maxRequestSize limits POST bodies, including document uploads.
var maxRequestSize int64 = 32 << 20

// we need the CoreDB in the frontend
type context struct {
	*core.Request
	Prefix string // with trailing slash
	db     *core.CoreDB
}

type handlerFunc func(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error

// middleware builds the request context, checks the anti-forgery token of POST requests and runs the guard before f.
func middleware(db *core.CoreDB, prefix string, guard core.Guard, f handlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		request, err := db.NewRequest(w, req)
		if err != nil {
			zerolog.Ctx(req.Context()).Error().Err(err).Msg("creating request")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var ctx = &context{
			Request: request,
			Prefix:  prefix + "/",
			db:      db,
		}

		if req.Method == http.MethodPost {
			req.Body = http.MaxBytesReader(w, req.Body, maxRequestSize)
			if err := ctx.CheckCSRF(); err != nil {
				fail(w, req, ctx, err)
				return
			}
		}

		if err := guard(ctx.Request); err != nil {
			fail(w, req, ctx, err)
			return
		}

		if err := f(w, req, ctx, params); err != nil {
			fail(w, req, ctx, err)
		}
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrBadToken), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized), errors.Is(err, auth.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound), errors.Is(err, upload.ErrBadFilename):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the status code which belongs to err and renders the error template.
// Unclassified errors are logged and not shown to the client.
func fail(w http.ResponseWriter, req *http.Request, ctx *context, err error) {

	var status = statusOf(err)
	var message = err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(req.Context()).Error().Err(err).Str("path", req.URL.Path).Msg("handler failed")
		message = "Something went wrong. Please try again later."
	}

	w.WriteHeader(status)
	errorTmpl.Execute(w, struct {
		*context
		Status  int
		Message string
	}{
		context: ctx,
		Status:  status,
		Message: message,
	})
}

// userError returns whether err is caused by user input. Such errors are shown as a notification.
func userError(err error) bool {
	for _, target := range []error{
		auth.ErrAuth,
		auth.ErrPasswordTooLong,
		auth.ErrUsername,
		core.ErrBadEmail,
		core.ErrDuplicate,
		core.ErrEmptyPassword,
		core.ErrInUse,
		core.ErrMissingEmail,
		core.ErrPasswordMismatch,
		core.ErrUnknownGender,
		upload.ErrBadFilename,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var errorTmpl = tmpl(`
	<h1>{{ .Status }}</h1>
	<div class="alert alert-danger" role="alert">
		{{ .Message }}
	</div>`)

// NewRouter returns the router of the site. The prefix is used in the base tag and should be without trailing slash.
func NewRouter(db *core.CoreDB, prefix string) http.Handler {

	var router = httprouter.New()

	var GETAndPOST = func(path string, handle httprouter.Handle) {
		router.GET(path, handle)
		router.POST(path, handle)
	}

	var handle = func(guard core.Guard, f handlerFunc) httprouter.Handle {
		return middleware(db, prefix, guard, f)
	}

	// public
	router.GET("/", handle(core.Anyone, index))
	router.GET("/documents/pending/:user/:filename", handle(core.LoggedIn, pendingDocument))
	router.GET("/documents/public/:user/:filename", handle(core.Anyone, publicDocument))
	router.GET("/groups", handle(core.Anyone, groups))
	router.GET("/groups/:group", handle(core.Anyone, group))
	GETAndPOST("/login", handle(core.Anyone, login))
	router.GET("/logout", handle(core.Anyone, logout))
	router.GET("/news", handle(core.Anyone, news))
	router.GET("/people", handle(core.Anyone, people))
	GETAndPOST("/people/:user", handle(core.Anyone, person))
	GETAndPOST("/register", handle(core.Anyone, register))
	router.GET("/register/confirm", handle(core.Anyone, confirm))
	router.GET("/schedule", handle(core.Anyone, schedule))
	router.GET("/venues", handle(core.Anyone, venues))
	router.GET("/venues/:id", handle(core.Anyone, venue))

	// admin
	router.GET("/admin", handle(core.LoggedIn, admin))
	GETAndPOST("/admin/accounts", handle(core.Admin, adminAccounts))
	GETAndPOST("/admin/accounts/:user", handle(core.Admin, adminAccount))
	GETAndPOST("/admin/groups", handle(core.Admin, adminGroups))
	GETAndPOST("/admin/groups/:group", handle(core.Admin, adminGroup))
	GETAndPOST("/admin/review", handle(core.Require(core.PermReviewer), review))
	GETAndPOST("/admin/venues", handle(core.Require(core.PermVenue), adminVenues))
	GETAndPOST("/admin/venues/:id", handle(core.Require(core.PermVenue), adminVenue))

	return router
}

func tmpl(text string) *template.Template {
	t := template.Must(layoutTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var layoutTmpl = template.Must(template.New("layout").Funcs(
	template.FuncMap{
		"Excerpt": func(text string, maxRunes int) string {
			return util.Excerpt(strings.NewReader(string(util.Markdown(text))), maxRunes)
		},
		"Markdown":   util.Markdown,
		"PathEscape": url.PathEscape,
		"PersonLink": func(acc *core.Account) template.HTML {
			return template.HTML(fmt.Sprintf(`<a href="people/%s">%s</a>`, url.PathEscape(acc.Username), template.HTMLEscapeString(acc.Name())))
		},
		"GroupLink": func(g *core.Group) template.HTML {
			return template.HTML(fmt.Sprintf(`<a href="groups/%s">%s</a>`, url.PathEscape(g.Name), template.HTMLEscapeString(g.Title())))
		},
	},
).Parse(`<!DOCTYPE html>
<html>
	<head>
		<base href="{{ .Prefix }}">
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
		<title>BalCCon</title>
		<style>

			body {
				font-family: sans-serif;
				margin: 0 auto;
				max-width: 60rem;
				padding: 0 1rem 1rem;
			}

			nav a {
				margin-right: 1rem;
			}

			.alert {
				border: 1px solid transparent;
				border-radius: .25rem;
				padding: .5rem 1rem;
			}

			.alert-danger {
				background-color: #f8d7da;
				border-color: #f5c6cb;
			}

			.alert-success {
				background-color: #d4edda;
				border-color: #c3e6cb;
			}

			label {
				display: block;
				margin-top: .5rem;
			}

		</style>
	</head>
	<body>

		<nav>
			<a href="">Home</a>
			<a href="news">News</a>
			<a href="schedule">Schedule</a>
			<a href="venues">Venues</a>
			<a href="people">People</a>
			<a href="groups">Groups</a>
			{{ if .LoggedIn }}
				<a href="people/{{ PathEscape .Account.Username }}">{{ .Account.Name }}</a>
				<a href="admin">Admin</a>
				<a href="logout">Logout</a>
			{{ else }}
				<a href="login">Login</a>
				<a href="register">Register</a>
			{{ end }}
		</nav>

		{{ .RenderNotifications }}
		{{ template "content" . }}

	</body>
</html>`))
