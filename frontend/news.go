package frontend

import (
	"net/http"

	"github.com/balccon/balcconator/core"
	"github.com/julienschmidt/httprouter"
)

var newsTmpl = tmpl(`<h1>News</h1>
	{{ range .News }}
		<article id="news-{{ .ID }}">
			<h2>{{ .Title }}</h2>
			<p><small>{{ $.FormatDateTime .Time }}</small></p>
			{{ Markdown .Body }}
		</article>
	{{ else }}
		<p>No news yet.</p>
	{{ end }}`)

type newsData struct {
	*context
}

func (data *newsData) News() ([]*core.NewsItem, error) {
	return data.db.GetLatestNews(50)
}

func news(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return newsTmpl.Execute(w, &newsData{ctx})
}

var scheduleTmpl = tmpl(`<h1>Schedule</h1>
	<table>
		{{ range .Events }}
			<tr>
				<td>{{ $.FormatDateTime .Start }}</td>
				<td>{{ if .VenueID }}<a href="venues/{{ .VenueID }}">{{ .VenueTitle }}</a>{{ end }}</td>
				<td>
					<strong>{{ .Title }}</strong>
					{{ Markdown .Body }}
				</td>
			</tr>
		{{ else }}
			<tr><td>The schedule has not been published yet.</td></tr>
		{{ end }}
	</table>`)

type scheduleData struct {
	*context
}

// Events are ordered by start.
func (data *scheduleData) Events() ([]*core.Event, error) {
	return data.db.GetSchedule()
}

func schedule(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return scheduleTmpl.Execute(w, &scheduleData{ctx})
}
