package frontend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/balccon/balcconator/core"
	"github.com/julienschmidt/httprouter"
)

var errDeleteAdmin = errors.New("the admin account can't be deleted")

var adminAccountsTmpl = tmpl(`<h1>Accounts</h1>
	<table>
		{{ range .Accounts }}
			<tr>
				<td><a href="admin/accounts/{{ PathEscape .Username }}">{{ .Username }}</a></td>
				<td>{{ .Name }}</td>
				<td>{{ .Email }}</td>
				<td>{{ if not .Confirmed }}unconfirmed{{ end }}</td>
				<td>{{ range .List }}{{ . }} {{ end }}</td>
			</tr>
		{{ end }}
	</table>

	<h2>Create account</h2>
	<form method="post">
		{{ .CSRFField }}
		<label>Username</label>
		<input type="text" name="username" required>
		<label>E-Mail</label>
		<input type="email" name="email" required>
		<label>Display name</label>
		<input type="text" name="displayname">
		<label>Password</label>
		<input type="password" name="password" required>
		<label>Repeat password</label>
		<input type="password" name="password2" required>
		<p>
			<button type="submit">Create account</button>
		</p>
	</form>`)

type adminAccountsData struct {
	*context
}

func (data *adminAccountsData) Accounts() ([]*core.Account, error) {
	return data.db.GetAllAccounts()
}

func adminAccounts(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if req.Method == http.MethodPost {

		acc, err := ctx.db.InsertConfirmedAccount(readRegistration(req))
		switch {
		case err == nil:
			ctx.Success("Account %s has been created.", acc.Username)
			ctx.SeeOther("/admin/accounts/%s", acc.Username)
			return nil
		case errors.Is(err, core.ErrDuplicate):
			ctx.Danger(errTaken)
		case userError(err):
			ctx.Danger(err)
		default:
			return err
		}

		ctx.SeeOther("/admin/accounts")
		return nil
	}

	return adminAccountsTmpl.Execute(w, &adminAccountsData{ctx})
}

var adminAccountTmpl = tmpl(`<h1>Account {{ .Selected.Username }}</h1>

	<p><a href="people/{{ PathEscape .Selected.Username }}">Profile</a> &middot; registered {{ .FormatDateTime .Selected.Registered }}{{ if not .Selected.Confirmed }}, unconfirmed{{ end }}</p>

	<h2>Permissions</h2>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="permissions">
		{{ $selected := .Selected }}
		{{ range .AllPermissions }}
			<label><input type="checkbox" name="perm" value="{{ . }}" {{ if $selected.Has . }}checked{{ end }}> {{ . }}</label>
		{{ end }}
		<p>
			<button type="submit">Save permissions</button>
		</p>
	</form>

	<h2>Personal details</h2>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="details">
		<label>First name</label>
		<input type="text" name="firstname" value="{{ .Selected.FirstName }}">
		<label>Last name</label>
		<input type="text" name="lastname" value="{{ .Selected.LastName }}">
		<label>Display name</label>
		<input type="text" name="displayname" value="{{ .Selected.DisplayName }}">
		<label>Gender</label>
		<select name="gender">
			{{ range .Genders }}
				<option {{ if eq . $selected.Gender }}selected{{ end }}>{{ . }}</option>
			{{ end }}
		</select>
		<label>E-Mail</label>
		<input type="email" name="email" value="{{ .Selected.Email }}" required>
		<p>
			<button type="submit">Save</button>
		</p>
	</form>

	<h2>Set password</h2>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="password">
		<label>New password</label>
		<input type="password" name="new1">
		<label>Repeat new password</label>
		<input type="password" name="new2">
		<p>
			<button type="submit">Set password</button>
		</p>
	</form>

	<h2>Groups</h2>
	<ul>
		{{ $csrf := .CSRFField }}
		{{ range .Groups }}
			<li>
				{{ GroupLink . }}
				<form method="post" style="display: inline">
					{{ $csrf }}
					<input type="hidden" name="action" value="leave">
					<input type="hidden" name="group" value="{{ .Name }}">
					<button type="submit">Leave</button>
				</form>
			</li>
		{{ end }}
	</ul>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="join">
		<input type="text" name="group" placeholder="Group name" required>
		<button type="submit">Join group</button>
	</form>

	{{ if not .Selected.IsAdmin }}
		<h2>Delete account</h2>
		<form method="post">
			{{ .CSRFField }}
			<input type="hidden" name="action" value="delete">
			<button type="submit">Delete {{ .Selected.Username }}</button>
		</form>
	{{ end }}`)

type adminAccountData struct {
	*context
	Selected *core.Account
}

func (data *adminAccountData) AllPermissions() []core.Permission {
	return core.AllPermissions
}

func (data *adminAccountData) Genders() []string {
	return core.Genders
}

func (data *adminAccountData) Groups() ([]*core.Group, error) {
	return data.db.GetGroupsOf(data.Selected.Username)
}

// readPermissions parses the checked "perm" fields.
func readPermissions(req *http.Request) (core.Permissions, error) {
	var perms core.Permissions
	for _, value := range req.PostForm["perm"] {
		perm, err := core.ParsePermission(value)
		if err != nil {
			return perms, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		perms.Set(perm, true)
	}
	return perms, nil
}

func adminAccount(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	selected, err := ctx.db.GetAccount(params.ByName("user"))
	if err != nil {
		return err
	}

	if req.Method == http.MethodPost {

		switch req.PostFormValue("action") {
		case "permissions":
			perms, err := readPermissions(req)
			if err != nil {
				return err
			}
			if err := ctx.db.SetPermissions(selected.Username, perms); err != nil {
				return err
			}
			ctx.Success("Permissions of %s have been saved.", selected.Username)
		case "details":
			if err := editPersonalDetails(req, ctx, selected); err != nil {
				return err
			}
		case "password":
			if err := changePassword(req, ctx, selected); err != nil {
				return err
			}
		case "join":
			if err := membershipAction(ctx, ctx.db.Join, strings.TrimSpace(req.PostFormValue("group")), selected.Username, "joined"); err != nil {
				return err
			}
		case "leave":
			if err := membershipAction(ctx, ctx.db.Leave, req.PostFormValue("group"), selected.Username, "left"); err != nil {
				return err
			}
		case "delete":
			if selected.IsAdmin() {
				ctx.Danger(errDeleteAdmin)
				break
			}
			if err := ctx.db.DeleteAccount(selected.Username); err != nil {
				if !userError(err) {
					return err
				}
				ctx.Danger(fmt.Errorf("account %s can't be deleted: %w", selected.Username, err))
				break
			}
			ctx.Success("Account %s has been deleted.", selected.Username)
			ctx.SeeOther("/admin/accounts")
			return nil
		default:
			return fmt.Errorf("%w: unknown action", ErrBadRequest)
		}

		ctx.SeeOther("/admin/accounts/%s", selected.Username)
		return nil
	}

	return adminAccountTmpl.Execute(w, &adminAccountData{
		context:  ctx,
		Selected: selected,
	})
}

// membershipAction calls join or leave and adds a notification.
func membershipAction(ctx *context, f func(groupname, username string) error, groupname, username, verb string) error {
	err := f(groupname, username)
	switch {
	case err == nil:
		ctx.Success("%s has %s %s.", username, verb, groupname)
	case errors.Is(err, core.ErrNotFound):
		ctx.Danger(fmt.Errorf("group or account not found, or %s is not a member of %s", username, groupname))
	case errors.Is(err, core.ErrDuplicate):
		ctx.Danger(fmt.Errorf("%s is a member of %s already", username, groupname))
	default:
		return err
	}
	return nil
}
