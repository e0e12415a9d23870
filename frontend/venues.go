package frontend

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/balccon/balcconator/core"
	"github.com/julienschmidt/httprouter"
)

var errMissingTitle = errors.New("missing title")

var venuesTmpl = tmpl(`<h1>Venues</h1>
	<ul>
		{{ range .Venues }}
			<li><a href="venues/{{ .ID }}">{{ .Title }}</a></li>
		{{ else }}
			<li>No venues yet.</li>
		{{ end }}
	</ul>`)

type venuesData struct {
	*context
}

func (data *venuesData) Venues() ([]*core.Venue, error) {
	return data.db.GetAllVenues()
}

func venues(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return venuesTmpl.Execute(w, &venuesData{ctx})
}

var venueTmpl = tmpl(`<h1>{{ .Venue.Title }}</h1>
	{{ with .Venue.Address }}<p>{{ . }}</p>{{ end }}
	{{ Markdown .Venue.Description }}

	<h2>Events</h2>
	<ul>
		{{ range .Events }}
			<li>{{ $.FormatDateTime .Start }}: {{ .Title }}</li>
		{{ else }}
			<li>No events take place here.</li>
		{{ end }}
	</ul>`)

type venueData struct {
	*context
	Venue *core.Venue
}

func (data *venueData) Events() ([]*core.Event, error) {
	return data.db.GetEventsAt(data.Venue.ID)
}

// getVenue returns core.ErrNotFound if the id is malformed.
func getVenue(ctx *context, params httprouter.Params) (*core.Venue, error) {
	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return nil, core.ErrNotFound
	}
	return ctx.db.GetVenue(id)
}

func venue(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	v, err := getVenue(ctx, params)
	if err != nil {
		return err
	}
	return venueTmpl.Execute(w, &venueData{
		context: ctx,
		Venue:   v,
	})
}

func readVenue(req *http.Request, v *core.Venue) error {
	v.Title = strings.TrimSpace(req.PostFormValue("title"))
	v.Description = req.PostFormValue("description")
	v.Address = strings.TrimSpace(req.PostFormValue("address"))
	if v.Title == "" {
		return errMissingTitle
	}
	return nil
}

var adminVenuesTmpl = tmpl(`<h1>Venues</h1>
	<ul>
		{{ range .Venues }}
			<li><a href="admin/venues/{{ .ID }}">{{ .Title }}</a></li>
		{{ end }}
	</ul>

	<h2>Create venue</h2>
	<form method="post">
		{{ .CSRFField }}
		<label>Title</label>
		<input type="text" name="title" required>
		<label>Address</label>
		<input type="text" name="address">
		<label>Description</label>
		<textarea name="description" rows="6"></textarea>
		<p>
			<button type="submit">Create venue</button>
		</p>
	</form>`)

func adminVenues(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if req.Method == http.MethodPost {

		var v = &core.Venue{}
		if err := readVenue(req, v); err != nil {
			ctx.Danger(err)
			ctx.SeeOther("/admin/venues")
			return nil
		}

		if err := ctx.db.InsertVenue(v); err != nil {
			return err
		}

		ctx.Success("Venue %s has been created.", v.Title)
		ctx.SeeOther("/admin/venues/%d", v.ID)
		return nil
	}

	return adminVenuesTmpl.Execute(w, &venuesData{ctx})
}

var adminVenueTmpl = tmpl(`<h1>Edit venue</h1>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="save">
		<label>Title</label>
		<input type="text" name="title" value="{{ .Venue.Title }}" required>
		<label>Address</label>
		<input type="text" name="address" value="{{ .Venue.Address }}">
		<label>Description</label>
		<textarea name="description" rows="6">{{ .Venue.Description }}</textarea>
		<p>
			<button type="submit">Save</button>
		</p>
	</form>

	<h2>Delete venue</h2>
	<form method="post">
		{{ .CSRFField }}
		<input type="hidden" name="action" value="delete">
		<button type="submit">Delete {{ .Venue.Title }}</button>
	</form>`)

func adminVenue(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	v, err := getVenue(ctx, params)
	if err != nil {
		return err
	}

	if req.Method == http.MethodPost {

		switch req.PostFormValue("action") {
		case "save":
			if err := readVenue(req, v); err != nil {
				ctx.Danger(err)
				break
			}
			if err := ctx.db.UpdateVenue(v); err != nil {
				return err
			}
			ctx.Success("Venue %s has been saved.", v.Title)
		case "delete":
			err := ctx.db.DeleteVenue(v.ID)
			switch {
			case err == nil:
				ctx.Success("Venue %s has been deleted.", v.Title)
				ctx.SeeOther("/admin/venues")
				return nil
			case errors.Is(err, core.ErrInUse):
				ctx.Danger(fmt.Errorf("venue %s can't be deleted because events take place there", v.Title))
			default:
				return err
			}
		default:
			return fmt.Errorf("%w: unknown action", ErrBadRequest)
		}

		ctx.SeeOther("/admin/venues/%d", v.ID)
		return nil
	}

	return adminVenueTmpl.Execute(w, &venueData{
		context: ctx,
		Venue:   v,
	})
}
