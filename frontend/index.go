package frontend

import (
	"net/http"

	"github.com/balccon/balcconator/core"
	"github.com/julienschmidt/httprouter"
)

var indexTmpl = tmpl(`<h1>BalCCon</h1>
	<p>Balkan Computer Congress</p>

	<h2>Latest news</h2>
	{{ range .News }}
		<h3>{{ .Title }}</h3>
		<p><small>{{ $.FormatDateTime .Time }}</small></p>
		<p>{{ Excerpt .Body 200 }} <a href="news#news-{{ .ID }}">more</a></p>
	{{ else }}
		<p>No news yet.</p>
	{{ end }}`)

type indexData struct {
	*context
}

func (data *indexData) News() ([]*core.NewsItem, error) {
	return data.db.GetLatestNews(3)
}

func index(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return indexTmpl.Execute(w, &indexData{ctx})
}
