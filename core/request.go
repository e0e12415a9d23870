package core

import (
	"crypto/subtle"
	"encoding/gob"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/balccon/balcconator/util"
	"golang.org/x/text/language"
)

const (
	csrfKey          = "csrf"
	notificationsKey = "notifications"
	usernameKey      = "username"
)

type Notification struct {
	Message string
	Style   string
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

var langMatcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish, // default
	language.German,
	language.Serbian,
})

var monthNamesDe = strings.NewReplacer(
	"January", "Januar",
	"February", "Februar",
	"March", "März",
	"May", "Mai",
	"June", "Juni",
	"July", "Juli",
	"October", "Oktober",
	"December", "Dezember",
)

// A Request is the request-scoped context which is passed to every handler.
// It is created by CoreDB.NewRequest.
type Request struct {
	db          *CoreDB // unexported, so it can't be accessed in templates
	Account     *Account
	Permissions Permissions
	CSRF        string // anti-forgery token of the session

	// http
	writer  http.ResponseWriter
	request *http.Request

	statusWritten bool
	language      language.Tag
}

// NewRequest creates a Request with the given http.ResponseWriter and http.Request.
// It ensures that the session has an anti-forgery token and resolves the permissions of the logged-in account.
// Permissions are read from the AccountDB on every request and are never cached in the session.
func (c *CoreDB) NewRequest(w http.ResponseWriter, httpreq *http.Request) (*Request, error) {

	var req = &Request{
		db:      c,
		writer:  w,
		request: httpreq,
	}

	req.language, _ = language.MatchStrings(langMatcher, httpreq.Header.Get("Accept-Language"))

	var ctx = httpreq.Context()

	req.CSRF = c.SessionManager.GetString(ctx, csrfKey)
	if req.CSRF == "" {
		token, err := util.RandomString32()
		if err != nil {
			return nil, fmt.Errorf("generating anti-forgery token: %w", err)
		}
		req.CSRF = token
		c.SessionManager.Put(ctx, csrfKey, token)
	}

	if username := c.SessionManager.GetString(ctx, usernameKey); username != "" {
		acc, err := c.GetAccount(username)
		switch {
		case err == nil:
			req.Account = acc
			req.Permissions = acc.Permissions
		case errors.Is(err, ErrNotFound):
			c.SessionManager.Remove(ctx, usernameKey) // account has been deleted
		default:
			return nil, err
		}
	}

	return req, nil
}

// CheckCSRF compares the "csrf" form field with the anti-forgery token of the session.
func (req *Request) CheckCSRF() error {
	var given = req.request.PostFormValue("csrf")
	if given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(req.CSRF)) != 1 {
		return ErrBadToken
	}
	return nil
}

// CSRFField returns a hidden form input which carries the anti-forgery token.
func (req *Request) CSRFField() template.HTML {
	return template.HTML(`<input type="hidden" name="csrf" value="` + html.EscapeString(req.CSRF) + `">`)
}

// Danger adds a "danger" notification to the session.
func (req *Request) Danger(err error) {
	req.addNotification(err.Error(), "danger")
}

// Success adds a "success" notification to the session.
func (req *Request) Success(format string, args ...interface{}) {
	req.addNotification(fmt.Sprintf(format, args...), "success")
}

// style should be a bootstrap alert style without the leading "alert-"
func (req *Request) addNotification(message, style string) {
	notifications, _ := req.db.SessionManager.Get(req.request.Context(), notificationsKey).([]Notification)
	notifications = append(notifications, Notification{message, style})
	req.db.SessionManager.Put(req.request.Context(), notificationsKey, notifications)
}

// RenderNotifications removes all notifications from the session
// and renders them into an HTML string.
// If the HTTP status had already been written, it does nothing.
func (req *Request) RenderNotifications() template.HTML {
	var r string
	if !req.statusWritten {
		notifications, _ := req.db.SessionManager.Pop(req.request.Context(), notificationsKey).([]Notification)
		for _, n := range notifications {
			r += `<div class="alert alert-` + n.Style + ` mt-3" role="alert">` + html.EscapeString(n.Message) + `</div>`
		}
	}
	return template.HTML(r)
}

// SeeOther sets the HTTP header to redirect to an URL.
func (req *Request) SeeOther(format string, args ...interface{}) {
	if req.statusWritten {
		return
	}
	var url = fmt.Sprintf(format, args...)
	http.Redirect(req.writer, req.request, url, http.StatusSeeOther)
	req.statusWritten = true
}

// Login verifies the credentials. On success, the username is stored in the session.
func (req *Request) Login(username, password string) error {
	acc, err := req.db.Verify(username, password)
	if err != nil {
		req.db.Metrics.Logins.WithLabelValues("failure").Inc()
		return err // is auth.ErrAuth if the account is unknown, unconfirmed or the password is wrong
	}
	req.db.Metrics.Logins.WithLabelValues("success").Inc()
	return req.LoginAccount(acc)
}

// LoginAccount authenticates the session as the given account without checking credentials.
func (req *Request) LoginAccount(acc *Account) error {
	var ctx = req.request.Context()
	if err := req.db.SessionManager.RenewToken(ctx); err != nil {
		return err
	}
	req.db.SessionManager.Put(ctx, usernameKey, acc.Username)
	req.Account = acc
	req.Permissions = acc.Permissions
	req.Success("Welcome %s!", acc.Name())
	return nil
}

// Logout destroys the whole session, including the anti-forgery token.
// The next request gets a new session.
func (req *Request) Logout() error {
	if err := req.db.SessionManager.Destroy(req.request.Context()); err != nil {
		return err
	}
	req.Account = nil
	req.Permissions = Permissions{}
	req.CSRF = ""
	return nil
}

func (req *Request) LoggedIn() bool {
	return req.Account != nil
}

func (req *Request) IsAdmin() bool {
	return req.Account != nil && req.Account.IsAdmin()
}

// Username returns the username of the logged-in account, or an empty string.
func (req *Request) Username() string {
	if req.Account == nil {
		return ""
	}
	return req.Account.Username
}

func (req *Request) FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	b, _ := req.language.Base()
	switch b.String() {
	case "de":
		return monthNamesDe.Replace(t.Format("2. January 2006 15:04 Uhr"))
	case "sr":
		return t.Format("02.01.2006. 15:04")
	default:
		return t.Format("January 2, 2006 3:04 PM")
	}
}
