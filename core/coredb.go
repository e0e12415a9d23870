package core

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/balccon/balcconator/upload"
	"github.com/prometheus/client_golang/prometheus"
)

// CoreDB bundles the stores and collaborators which the handlers need.
type CoreDB struct {
	AccountDB
	EventDB
	GroupDB
	NewsDB
	VenueDB
	Documents      upload.Store
	Mailer         Mailer
	Metrics        *Metrics
	SessionManager *scs.SessionManager

	PublicURL string // used in confirmation links, without trailing slash
}

// Init creates the session manager and the metrics. If sessionStore is nil, sessions are kept in memory.
// If reg is nil, the metrics are not registered anywhere.
func (c *CoreDB) Init(sessionStore scs.Store, cookiePath string, reg prometheus.Registerer) {

	c.SessionManager = scs.New()
	if sessionStore != nil {
		c.SessionManager.Store = sessionStore
	}
	c.SessionManager.Cookie.Name = "balcconator_session"
	c.SessionManager.Cookie.Path = cookiePath + "/"         // 'The default value is "/". Passing the empty string "" will result in it being set to the path that the cookie was issued from.'
	c.SessionManager.Cookie.Persist = false                 // don't store cookie across browser sessions
	c.SessionManager.Cookie.SameSite = http.SameSiteLaxMode // the csrf form field protects POST requests anyway
	c.SessionManager.Cookie.Secure = false                  // else running on localhost or behind a http proxy fails
	c.SessionManager.IdleTimeout = 12 * time.Hour
	c.SessionManager.Lifetime = 720 * time.Hour

	c.Metrics = NewMetrics(reg)
}

// Mailer delivers confirmation codes.
type Mailer interface {
	SendConfirmation(to *Account, link string) error
}
