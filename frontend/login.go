package frontend

import (
	"errors"
	"net/http"

	"github.com/balccon/balcconator/auth"
	"github.com/julienschmidt/httprouter"
)

var ErrLogin = errors.New("wrong username or password")

var loginTmpl = tmpl(`<h1>Login</h1>
	<form method="post">
		{{ .CSRFField }}
		<label>Username</label>
		<input type="text" name="username" value="{{ .Username }}" required autofocus>
		<label>Password</label>
		<input type="password" name="password" required>
		<p>
			<button type="submit">Login</button>
		</p>
	</form>
	<p>No account yet? <a href="register">Register</a></p>`)

type loginData struct {
	*context
	Username string
}

func login(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if ctx.LoggedIn() {
		ctx.SeeOther("/")
		return nil
	}

	var username string

	if req.Method == http.MethodPost {

		username = req.PostFormValue("username")

		err := ctx.Login(username, req.PostFormValue("password"))
		switch {
		case err == nil:
			ctx.SeeOther("/people/%s", ctx.Username())
			return nil
		case errors.Is(err, auth.ErrAuth):
			ctx.Danger(ErrLogin)
			// keep POST data for username field
		default:
			return err
		}
	}

	return loginTmpl.Execute(w, &loginData{
		context:  ctx,
		Username: username,
	})
}

func logout(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	if err := ctx.Logout(); err != nil {
		return err
	}
	ctx.SeeOther("/")
	return nil
}
