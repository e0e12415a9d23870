package frontend

import (
	"bytes"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/balccon/balcconator/core"
	"github.com/balccon/balcconator/filestore"
	"github.com/balccon/balcconator/sqldb"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicURL = "http://balccon.test"

type captureMailer struct {
	sync.Mutex
	links []string
}

func (m *captureMailer) SendConfirmation(to *core.Account, link string) error {
	m.Lock()
	defer m.Unlock()
	m.links = append(m.links, link)
	return nil
}

// Links returns the paths of the sent confirmation links.
func (m *captureMailer) Links() []string {
	m.Lock()
	defer m.Unlock()
	var paths = make([]string, len(m.links))
	for i, link := range m.links {
		paths[i] = strings.TrimPrefix(link, publicURL)
	}
	return paths
}

type testEnv struct {
	srv    *httptest.Server
	db     *core.CoreDB
	mailer *captureMailer
	root   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=1")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	var env = &testEnv{
		mailer: &captureMailer{},
		root:   t.TempDir(),
	}

	env.db = &core.CoreDB{
		AccountDB: sqldb.NewAccountDB(sqlDB),
		GroupDB:   sqldb.NewGroupDB(sqlDB),
		NewsDB:    sqldb.NewNewsDB(sqlDB, sqldb.SQLite3),
		VenueDB:   sqldb.NewVenueDB(sqlDB, sqldb.SQLite3),
		Documents: &filestore.Store{Root: env.root},
		Mailer:    env.mailer,
		PublicURL: publicURL,
	}
	env.db.EventDB = sqldb.NewEventDB(sqlDB, sqldb.SQLite3)
	env.db.Init(nil, "", prometheus.NewRegistry())

	env.srv = httptest.NewServer(Instrument(env.db.Metrics, env.db.SessionManager.LoadAndSave(NewRouter(env.db, ""))))
	t.Cleanup(env.srv.Close)
	return env
}

// newClient returns a client with its own cookie jar, i.e. its own session.
func (env *testEnv) newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (env *testEnv) insertAccount(t *testing.T, username string, perms core.Permissions) {
	t.Helper()
	_, err := env.db.InsertConfirmedAccount(core.Registration{
		Username:  username,
		Password:  username + "-secret",
		Password2: username + "-secret",
		Email:     username + "@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, env.db.SetPermissions(username, perms))
}

func read(t *testing.T, resp *http.Response, err error) (int, string) {
	t.Helper()
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (env *testEnv) get(t *testing.T, c *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := c.Get(env.srv.URL + path)
	return read(t, resp, err)
}

func (env *testEnv) post(t *testing.T, c *http.Client, path string, values url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(env.srv.URL+path, values)
	return read(t, resp, err)
}

var csrfRegexp = regexp.MustCompile(`name="csrf" value="([^"]+)"`)

// token returns the anti-forgery token from a form on the given page.
func (env *testEnv) token(t *testing.T, c *http.Client, path string) string {
	t.Helper()
	status, body := env.get(t, c, path)
	require.Equal(t, http.StatusOK, status)
	m := csrfRegexp.FindStringSubmatch(body)
	require.NotNil(t, m, "no csrf field on %s", path)
	return m[1]
}

func (env *testEnv) login(t *testing.T, c *http.Client, username string) {
	t.Helper()
	status, body := env.post(t, c, "/login", url.Values{
		"csrf":     {env.token(t, c, "/login")},
		"username": {username},
		"password": {username + "-secret"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Welcome "+username+"!")
}

// upload posts a document as the logged-in account self to the profile page of username.
func (env *testEnv) upload(t *testing.T, c *http.Client, self, username, filename, content string) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("csrf", env.token(t, c, "/people/"+self)))
	require.NoError(t, mw.WriteField("action", "documentupload"))
	fw, err := mw.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := c.Post(env.srv.URL+"/people/"+username, mw.FormDataContentType(), &buf)
	return read(t, resp, err)
}

func TestRegisterUploadReviewPublish(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newClient(t)

	// register and confirm
	status, body := env.post(t, alice, "/register", url.Values{
		"csrf":        {env.token(t, alice, "/register")},
		"username":    {"alice"},
		"email":       {"alice@example.com"},
		"displayname": {"Alice"},
		"password":    {"pw1"},
		"password2":   {"pw1"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "We have sent a confirmation link to alice@example.com.")
	require.Len(t, env.mailer.Links(), 1)

	status, body = env.get(t, alice, env.mailer.Links()[0])
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Welcome Alice!")

	// upload
	status, body = env.upload(t, alice, "alice", "alice", "talk.pdf", "slides")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "talk.pdf has been uploaded")
	assert.FileExists(t, filepath.Join(env.root, "pending", "alice", "talk.pdf"))

	anonymous := env.newClient(t)
	status, _ = env.get(t, anonymous, "/documents/pending/alice/talk.pdf")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.get(t, anonymous, "/documents/public/alice/talk.pdf")
	assert.Equal(t, http.StatusNotFound, status)

	// the owner sees the pending document but can't publish it
	status, body = env.get(t, alice, "/documents/pending/alice/talk.pdf")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "slides", body)
	status, _ = env.post(t, alice, "/people/alice", url.Values{
		"csrf":     {env.token(t, alice, "/people/alice")},
		"action":   {"publish"},
		"filename": {"talk.pdf"},
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// a reviewer publishes it
	env.insertAccount(t, "bob", core.Permissions{Reviewer: true})
	bob := env.newClient(t)
	env.login(t, bob, "bob")

	status, body = env.get(t, bob, "/admin/review")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "talk.pdf")
	var bobToken = env.token(t, bob, "/admin/review")

	status, body = env.post(t, bob, "/admin/review", url.Values{
		"csrf":     {bobToken},
		"username": {"alice"},
		"filename": {"talk.pdf"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "talk.pdf of alice has been published.")

	status, body = env.get(t, anonymous, "/documents/public/alice/talk.pdf")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "slides", body)
	assert.NoFileExists(t, filepath.Join(env.root, "pending", "alice", "talk.pdf"))

	status, body = env.get(t, anonymous, "/people/alice")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `href="documents/public/alice/talk.pdf"`)

	// publishing again finds nothing, the review page has no form left
	status, body = env.post(t, bob, "/admin/review", url.Values{
		"csrf":     {bobToken},
		"username": {"alice"},
		"filename": {"talk.pdf"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "talk.pdf of alice not found")

	// a published document can't be replaced by uploading it again
	status, body = env.upload(t, alice, "alice", "alice", "talk.pdf", "other slides")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "a document named talk.pdf already exists")
	assert.NoFileExists(t, filepath.Join(env.root, "pending", "alice", "talk.pdf"))
	_, body = env.get(t, anonymous, "/documents/public/alice/talk.pdf")
	assert.Equal(t, "slides", body)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.db.Metrics.DocumentsUploaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.db.Metrics.DocumentsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.db.Metrics.Registrations))
}

func TestUploadOnlyByOwner(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "alice", core.Permissions{})
	env.insertAccount(t, "mallory", core.Permissions{Reviewer: true})

	mallory := env.newClient(t)
	env.login(t, mallory, "mallory")

	status, _ := env.upload(t, mallory, "mallory", "alice", "evil.pdf", "x")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NoDirExists(t, filepath.Join(env.root, "pending", "alice"))

	// directories are stripped from the filename
	status, _ = env.upload(t, mallory, "mallory", "mallory", "../../etc/passwd", "x")
	assert.Equal(t, http.StatusOK, status)
	assert.FileExists(t, filepath.Join(env.root, "pending", "mallory", "passwd"))
	_, err := os.Stat(filepath.Join(env.root, "etc"))
	assert.True(t, os.IsNotExist(err))

	status, body := env.upload(t, mallory, "mallory", "mallory", ".htaccess", "x")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "alert-danger")
	assert.NoFileExists(t, filepath.Join(env.root, "pending", "mallory", ".htaccess"))
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "alice", core.Permissions{})

	alice := env.newClient(t)
	env.login(t, alice, "alice")
	var old = env.token(t, alice, "/people/alice")

	status, body := env.get(t, alice, "/logout")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `href="login"`)

	status, _ = env.post(t, alice, "/login", url.Values{
		"csrf":     {old},
		"username": {"alice"},
		"password": {"alice-secret"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.NotEqual(t, old, env.token(t, alice, "/login"))
}

func TestPostWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "alice", core.Permissions{})

	c := env.newClient(t)
	status, _ := env.post(t, c, "/login", url.Values{
		"username": {"alice"},
		"password": {"alice-secret"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.get(t, c, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, `href="logout"`)
}

func TestAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, core.AdminName, core.Permissions{})
	env.insertAccount(t, "alice", core.Permissions{News: true, Reviewer: true, Venue: true, Schedule: true})

	anonymous := env.newClient(t)
	status, _ := env.get(t, anonymous, "/admin/accounts")
	assert.Equal(t, http.StatusUnauthorized, status)

	alice := env.newClient(t)
	env.login(t, alice, "alice")
	status, _ = env.get(t, alice, "/admin/accounts")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.post(t, alice, "/admin/accounts", url.Values{
		"csrf":      {env.token(t, alice, "/people/alice")},
		"username":  {"eve"},
		"email":     {"eve@example.com"},
		"password":  {"pw"},
		"password2": {"pw"},
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	_, err := env.db.GetAccount("eve")
	assert.ErrorIs(t, err, core.ErrNotFound)

	admin := env.newClient(t)
	env.login(t, admin, core.AdminName)
	status, body := env.post(t, admin, "/admin/accounts", url.Values{
		"csrf":      {env.token(t, admin, "/admin/accounts")},
		"username":  {"eve"},
		"email":     {"eve@example.com"},
		"password":  {"pw"},
		"password2": {"pw"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Account eve has been created.")

	// the admin account can't be deleted
	status, body = env.post(t, admin, "/admin/accounts/admin", url.Values{
		"csrf":   {env.token(t, admin, "/admin/accounts")},
		"action": {"delete"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "can&#39;t be deleted")
	_, err = env.db.GetAccount(core.AdminName)
	assert.NoError(t, err)
}

func TestPermissionRevocation(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "bob", core.Permissions{Reviewer: true})

	bob := env.newClient(t)
	env.login(t, bob, "bob")

	status, _ := env.get(t, bob, "/admin/review")
	assert.Equal(t, http.StatusOK, status)

	require.NoError(t, env.db.SetPermissions("bob", core.Permissions{}))

	status, _ = env.get(t, bob, "/admin/review")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDeletedAccountLosesSession(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "bob", core.Permissions{Reviewer: true})

	bob := env.newClient(t)
	env.login(t, bob, "bob")
	require.NoError(t, env.db.DeleteAccount("bob"))

	status, _ := env.get(t, bob, "/admin/review")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegistrationFailures(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "alice", core.Permissions{})

	c := env.newClient(t)
	var form = func(username, email, pw1, pw2 string) url.Values {
		return url.Values{
			"csrf":      {env.token(t, c, "/register")},
			"username":  {username},
			"email":     {email},
			"password":  {pw1},
			"password2": {pw2},
		}
	}

	status, body := env.post(t, c, "/register", form("carol", "carol@example.com", "pw1", "pw2"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "passwords don&#39;t match")

	status, body = env.post(t, c, "/register", form("alice", "other@example.com", "pw", "pw"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "already taken")

	status, body = env.post(t, c, "/register", form("carol", "alice@example.com", "pw", "pw"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "already taken")

	status, _ = env.post(t, c, "/register", form("../carol", "carol@example.com", "pw", "pw"))
	assert.Equal(t, http.StatusOK, status)

	var long = strings.Repeat("x", 73)
	status, body = env.post(t, c, "/register", form("carol", "carol@example.com", long, long))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "password must not be longer than 72 bytes")

	status, body = env.post(t, c, "/register", form("carol", "carol at example", "pw", "pw"))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "invalid email address")

	accounts, err := env.db.GetAllAccounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Empty(t, env.mailer.Links())
}

func TestConfirmOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	status, _ := env.post(t, c, "/register", url.Values{
		"csrf":      {env.token(t, c, "/register")},
		"username":  {"dave"},
		"email":     {"dave@example.com"},
		"password":  {"pw"},
		"password2": {"pw"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.mailer.Links(), 1)
	var link = env.mailer.Links()[0]

	// login before confirmation fails
	status, body := env.post(t, c, "/login", url.Values{
		"csrf":     {env.token(t, c, "/login")},
		"username": {"dave"},
		"password": {"pw"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, ErrLogin.Error())

	// a wrong code shows the form again
	status, body = env.get(t, c, "/register/confirm?username=dave&code=wrong")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Confirm your registration")

	status, body = env.get(t, c, link)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Welcome dave!")

	env.get(t, c, "/logout")

	// a second confirmation looks like a wrong code
	status, body = env.get(t, c, link)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Confirm your registration")
	assert.NotContains(t, body, `href="logout"`)
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "alice", core.Permissions{})
	require.NoError(t, env.db.InsertGroup(&core.Group{Name: "orga", DisplayName: "Organizers"}))
	require.NoError(t, env.db.Join("orga", "alice"))
	require.NoError(t, env.db.InsertNews(&core.NewsItem{Title: "Call for papers", Body: "Submit your <b>talks</b>!"}))
	var hall = &core.Venue{Title: "Main Hall", Description: "*ground floor*"}
	require.NoError(t, env.db.InsertVenue(hall))
	require.NoError(t, env.db.InsertEvent(&core.Event{Owner: "alice", Title: "Opening", VenueID: hall.ID}))

	c := env.newClient(t)

	resp, err := c.Get(env.srv.URL + "/")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	status, body := read(t, resp, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Submit your &lt;b&gt;talks&lt;/b&gt;!")

	_, body = env.get(t, c, "/news")
	assert.NotContains(t, body, "<b>talks</b>")

	_, body = env.get(t, c, "/groups/orga")
	assert.Contains(t, body, `<a href="people/alice">alice</a>`)

	_, body = env.get(t, c, "/people/alice")
	assert.Contains(t, body, "Organizers")

	_, body = env.get(t, c, "/schedule")
	assert.Contains(t, body, "Opening")
	assert.Contains(t, body, "Main Hall")

	_, body = env.get(t, c, "/venues/"+strconv.Itoa(hall.ID))
	assert.Contains(t, body, "<em>ground floor</em>")

	status, _ = env.get(t, c, "/venues/abc")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.get(t, c, "/people/nobody")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVenueInUse(t *testing.T) {
	env := newTestEnv(t)
	env.insertAccount(t, "vera", core.Permissions{Venue: true})
	var hall = &core.Venue{Title: "Main Hall"}
	require.NoError(t, env.db.InsertVenue(hall))
	require.NoError(t, env.db.InsertEvent(&core.Event{Title: "Opening", VenueID: hall.ID}))

	c := env.newClient(t)
	env.login(t, c, "vera")

	status, body := env.post(t, c, "/admin/venues/"+strconv.Itoa(hall.ID), url.Values{
		"csrf":   {env.token(t, c, "/admin/venues")},
		"action": {"delete"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "events take place there")

	_, err := env.db.GetVenue(hall.ID)
	assert.NoError(t, err)
}
