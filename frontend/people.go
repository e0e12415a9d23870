package frontend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/balccon/balcconator/auth"
	"github.com/balccon/balcconator/core"
	"github.com/balccon/balcconator/upload"
	"github.com/julienschmidt/httprouter"
)

var peopleTmpl = tmpl(`<h1>People</h1>
	<ul>
		{{ range .People }}
			<li>{{ PersonLink . }}</li>
		{{ end }}
	</ul>`)

type peopleData struct {
	*context
}

// People returns the confirmed accounts.
func (data *peopleData) People() ([]*core.Account, error) {
	all, err := data.db.GetAllAccounts()
	if err != nil {
		return nil, err
	}
	var confirmed = make([]*core.Account, 0, len(all))
	for _, acc := range all {
		if acc.Confirmed() {
			confirmed = append(confirmed, acc)
		}
	}
	return confirmed, nil
}

func people(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return peopleTmpl.Execute(w, &peopleData{ctx})
}

var personTmpl = tmpl(`<h1>{{ .Person.Name }}</h1>

	{{ with .Person }}
		{{ if or .FirstName .LastName }}<p>{{ .FirstName }} {{ .LastName }}</p>{{ end }}
	{{ end }}

	{{ with .Groups }}
		<h2>Groups</h2>
		<ul>
			{{ range . }}
				<li>{{ GroupLink . }}</li>
			{{ end }}
		</ul>
	{{ end }}

	<h2>Documents</h2>
	<ul>
		{{ $user := PathEscape .Person.Username }}
		{{ range .Public }}
			<li><a href="documents/public/{{ $user }}/{{ PathEscape . }}">{{ . }}</a></li>
		{{ else }}
			<li>No documents yet.</li>
		{{ end }}
	</ul>

	{{ if .ShowPending }}
		<h2>Pending review</h2>
		<ul>
			{{ range .Pending }}
				<li>
					<a href="documents/pending/{{ $user }}/{{ PathEscape . }}">{{ . }}</a>
					{{ if $.Permissions.Reviewer }}
						<form method="post" style="display: inline">
							{{ $.CSRFField }}
							<input type="hidden" name="action" value="publish">
							<input type="hidden" name="filename" value="{{ . }}">
							<button type="submit">Publish</button>
						</form>
					{{ end }}
				</li>
			{{ else }}
				<li>Nothing pending.</li>
			{{ end }}
		</ul>
	{{ end }}

	{{ if .IsOwner }}
		<h2>Upload a document</h2>
		<form method="post" enctype="multipart/form-data">
			{{ .CSRFField }}
			<input type="hidden" name="action" value="documentupload">
			<input type="file" name="document" required>
			<button type="submit">Upload</button>
		</form>
	{{ end }}

	{{ if .CanEdit }}
		<h2>Personal details</h2>
		<form method="post">
			{{ .CSRFField }}
			<input type="hidden" name="action" value="editpersonaldetails">
			<label>First name</label>
			<input type="text" name="firstname" value="{{ .Person.FirstName }}">
			<label>Last name</label>
			<input type="text" name="lastname" value="{{ .Person.LastName }}">
			<label>Display name</label>
			<input type="text" name="displayname" value="{{ .Person.DisplayName }}">
			<label>Gender</label>
			<select name="gender">
				{{ $gender := .Person.Gender }}
				{{ range .Genders }}
					<option {{ if eq . $gender }}selected{{ end }}>{{ . }}</option>
				{{ end }}
			</select>
			<label>E-Mail</label>
			<input type="email" name="email" value="{{ .Person.Email }}" required>
			<p>
				<button type="submit">Save</button>
			</p>
		</form>

		<h2>Change password</h2>
		<form method="post">
			{{ .CSRFField }}
			<input type="hidden" name="action" value="changepassword">
			{{ if not .IsAdmin }}
				<label>Current password</label>
				<input type="password" name="old">
			{{ end }}
			<label>New password</label>
			<input type="password" name="new1">
			<label>Repeat new password</label>
			<input type="password" name="new2">
			<p>
				<button type="submit">Change password</button>
			</p>
		</form>
	{{ end }}`)

type personData struct {
	*context
	Person *core.Account
}

func (data *personData) Genders() []string {
	return core.Genders
}

func (data *personData) Groups() ([]*core.Group, error) {
	return data.db.GetGroupsOf(data.Person.Username)
}

func (data *personData) IsOwner() bool {
	return data.Username() == data.Person.Username
}

func (data *personData) CanEdit() bool {
	return data.IsOwner() || data.IsAdmin()
}

func (data *personData) ShowPending() bool {
	return data.CanSeePending(data.Person.Username)
}

func (data *personData) Public() ([]string, error) {
	return data.db.Documents.Files(upload.Public, data.Person.Username)
}

func (data *personData) Pending() ([]string, error) {
	if !data.ShowPending() {
		return nil, nil
	}
	return data.db.Documents.Files(upload.Pending, data.Person.Username)
}

func person(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	acc, err := ctx.db.GetAccount(params.ByName("user"))
	if err != nil {
		return err
	}

	var data = &personData{
		context: ctx,
		Person:  acc,
	}

	if !acc.Confirmed() && !data.CanEdit() {
		return core.ErrNotFound
	}

	if req.Method == http.MethodPost {

		switch req.PostFormValue("action") {
		case "documentupload":
			err = uploadDocument(req, ctx, acc)
		case "editpersonaldetails":
			err = editPersonalDetails(req, ctx, acc)
		case "changepassword":
			err = changePassword(req, ctx, acc)
		case "publish":
			err = publishDocument(ctx, acc.Username, req.PostFormValue("filename"))
		default:
			err = fmt.Errorf("%w: unknown action", ErrBadRequest)
		}

		if err != nil {
			return err
		}

		ctx.SeeOther("/people/%s", acc.Username)
		return nil
	}

	return personTmpl.Execute(w, data)
}

// uploadDocument returns an error only if the request is not authorized or fails unexpectedly.
func uploadDocument(req *http.Request, ctx *context, acc *core.Account) error {

	file, header, err := req.FormFile("document")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	defer file.Close()

	err = ctx.UploadDocument(acc.Username, header.Filename, file)
	switch {
	case err == nil:
		ctx.Success("%s has been uploaded and is waiting for review.", header.Filename)
	case errors.Is(err, core.ErrDuplicate):
		ctx.Danger(fmt.Errorf("a document named %s already exists", header.Filename))
	case userError(err):
		ctx.Danger(err)
	default:
		return err
	}
	return nil
}

func publishDocument(ctx *context, username, filename string) error {
	err := ctx.PublishDocument(username, filename)
	switch {
	case err == nil:
		ctx.Success("%s of %s has been published.", filename, username)
	case errors.Is(err, core.ErrNotFound), errors.Is(err, upload.ErrBadFilename):
		ctx.Danger(fmt.Errorf("%s of %s not found", filename, username))
	case errors.Is(err, core.ErrDuplicate):
		ctx.Danger(fmt.Errorf("%s of %s has been published already", filename, username))
	default:
		return err
	}
	return nil
}

// readDetails copies the personal details from the form to acc.
func readDetails(req *http.Request, acc *core.Account) error {

	var gender = req.PostFormValue("gender")
	if !core.ValidGender(gender) {
		return core.ErrUnknownGender
	}

	var email = strings.TrimSpace(req.PostFormValue("email"))
	if err := core.ValidEmail(email); err != nil {
		return err
	}

	acc.FirstName = strings.TrimSpace(req.PostFormValue("firstname"))
	acc.LastName = strings.TrimSpace(req.PostFormValue("lastname"))
	acc.DisplayName = strings.TrimSpace(req.PostFormValue("displayname"))
	acc.Gender = gender
	acc.Email = email
	return nil
}

func editPersonalDetails(req *http.Request, ctx *context, acc *core.Account) error {

	if ctx.Username() != acc.Username && !ctx.IsAdmin() {
		return core.ErrUnauthorized
	}

	err := readDetails(req, acc)
	if err == nil {
		err = ctx.db.UpdateDetails(acc)
	}

	switch {
	case err == nil:
		ctx.Success("Personal details have been saved.")
	case errors.Is(err, core.ErrDuplicate):
		ctx.Danger(errors.New("e-mail address is already taken"))
	case userError(err):
		ctx.Danger(err)
	default:
		return err
	}
	return nil
}

func changePassword(req *http.Request, ctx *context, acc *core.Account) error {

	if ctx.Username() != acc.Username && !ctx.IsAdmin() {
		return core.ErrUnauthorized
	}

	var new1 = req.PostFormValue("new1")
	var new2 = req.PostFormValue("new2")

	var err error
	switch {
	case new1 != new2:
		err = core.ErrPasswordMismatch
	case strings.TrimSpace(new1) == "":
		err = core.ErrEmptyPassword
	case ctx.IsAdmin():
		err = ctx.db.SetPassword(acc, new1)
	default:
		err = ctx.db.ChangePassword(acc, req.PostFormValue("old"), new1)
	}

	switch {
	case err == nil:
		ctx.Success("Password has been changed.")
	case errors.Is(err, auth.ErrAuth):
		ctx.Danger(errors.New("current password is wrong"))
	case userError(err):
		ctx.Danger(err)
	default:
		return err
	}
	return nil
}
