package frontend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/balccon/balcconator/auth"
	"github.com/balccon/balcconator/core"
	"github.com/julienschmidt/httprouter"
)

var groupsTmpl = tmpl(`<h1>Groups</h1>
	<ul>
		{{ range .Groups }}
			<li>{{ GroupLink . }}</li>
		{{ end }}
	</ul>`)

type groupsData struct {
	*context
}

func (data *groupsData) Groups() ([]*core.Group, error) {
	return data.db.GetAllGroups()
}

func groups(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return groupsTmpl.Execute(w, &groupsData{ctx})
}

var groupTmpl = tmpl(`<h1>{{ .Group.Title }}</h1>
	{{ with .Group.Email }}<p><a href="mailto:{{ . }}">{{ . }}</a></p>{{ end }}
	<ul>
		{{ range .Members }}
			<li>{{ PersonLink . }}</li>
		{{ else }}
			<li>No members.</li>
		{{ end }}
	</ul>`)

type groupData struct {
	*context
	Group *core.Group
}

func (data *groupData) Members() ([]*core.Account, error) {
	return data.db.GetMembers(data.Group.Name)
}

func group(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	g, err := ctx.db.GetGroup(params.ByName("group"))
	if err != nil {
		return err
	}
	return groupTmpl.Execute(w, &groupData{
		context: ctx,
		Group:   g,
	})
}

var adminGroupsTmpl = tmpl(`<h1>Groups</h1>
	<ul>
		{{ range .Groups }}
			<li><a href="admin/groups/{{ PathEscape .Name }}">{{ .Title }}</a></li>
		{{ end }}
	</ul>

	<h2>Create group</h2>
	<form method="post">
		{{ .CSRFField }}
		<label>Name</label>
		<input type="text" name="name" required>
		<label>Display name</label>
		<input type="text" name="displayname">
		<label>E-Mail</label>
		<input type="email" name="email">
		<p>
			<button type="submit">Create group</button>
		</p>
	</form>`)

func adminGroups(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if req.Method == http.MethodPost {

		var g = &core.Group{
			Name:        auth.CleanUsername(req.PostFormValue("name")),
			DisplayName: strings.TrimSpace(req.PostFormValue("displayname")),
			Email:       strings.TrimSpace(req.PostFormValue("email")),
			Registered:  time.Now().UTC(),
		}

		// group names share the charset of usernames
		err := auth.ValidUsername(g.Name)
		if err == nil {
			err = ctx.db.InsertGroup(g)
		}

		switch {
		case err == nil:
			ctx.Success("Group %s has been created.", g.Name)
		case errors.Is(err, core.ErrDuplicate):
			ctx.Danger(fmt.Errorf("group %s exists already", g.Name))
		case userError(err):
			ctx.Danger(err)
		default:
			return err
		}

		ctx.SeeOther("/admin/groups")
		return nil
	}

	return adminGroupsTmpl.Execute(w, &groupsData{ctx})
}

var adminGroupTmpl = tmpl(`<h1>Group {{ .Group.Title }}</h1>
	<ul>
		{{ $csrf := .CSRFField }}
		{{ range .Members }}
			<li>
				{{ PersonLink . }}
				<form method="post" style="display: inline">
					{{ $csrf }}
					<input type="hidden" name="action" value="remove">
					<input type="hidden" name="username" value="{{ .Username }}">
					<button type="submit">Remove</button>
				</form>
			</li>
		{{ end }}
	</ul>

	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="add">
		<input type="text" name="username" placeholder="Username" required>
		<button type="submit">Add member</button>
	</form>

	<h2>Delete group</h2>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="delete">
		<button type="submit">Delete {{ .Group.Name }}</button>
	</form>`)

func adminGroup(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	g, err := ctx.db.GetGroup(params.ByName("group"))
	if err != nil {
		return err
	}

	if req.Method == http.MethodPost {

		var username = auth.CleanUsername(req.PostFormValue("username"))

		switch req.PostFormValue("action") {
		case "add":
			if err := membershipAction(ctx, ctx.db.Join, g.Name, username, "joined"); err != nil {
				return err
			}
		case "remove":
			if err := membershipAction(ctx, ctx.db.Leave, g.Name, username, "left"); err != nil {
				return err
			}
		case "delete":
			if err := ctx.db.DeleteGroup(g.Name); err != nil {
				return err
			}
			ctx.Success("Group %s has been deleted.", g.Name)
			ctx.SeeOther("/admin/groups")
			return nil
		default:
			return fmt.Errorf("%w: unknown action", ErrBadRequest)
		}

		ctx.SeeOther("/admin/groups/%s", g.Name)
		return nil
	}

	return adminGroupTmpl.Execute(w, &groupData{
		context: ctx,
		Group:   g,
	})
}
