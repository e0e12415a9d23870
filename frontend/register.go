package frontend

import (
	"errors"
	"net/http"

	"github.com/balccon/balcconator/core"
	"github.com/julienschmidt/httprouter"
)

var (
	errMailFailed = errors.New("your account has been created, but the confirmation mail could not be sent, please contact the organizers")
	errTaken      = errors.New("username or e-mail address is already taken")
)

var registerTmpl = tmpl(`<h1>Register</h1>
	<form method="post">
		{{ .CSRFField }}
		<label>Username</label>
		<input type="text" name="username" value="{{ .Username }}" required autofocus>
		<label>E-Mail</label>
		<input type="email" name="email" value="{{ .Email }}" required>
		<label>First name</label>
		<input type="text" name="firstname" value="{{ .FirstName }}">
		<label>Last name</label>
		<input type="text" name="lastname" value="{{ .LastName }}">
		<label>Display name</label>
		<input type="text" name="displayname" value="{{ .DisplayName }}">
		<label>Gender</label>
		<select name="gender">
			{{ $gender := .Gender }}
			{{ range .Genders }}
				<option {{ if eq . $gender }}selected{{ end }}>{{ . }}</option>
			{{ end }}
		</select>
		<label>Password</label>
		<input type="password" name="password" required>
		<label>Repeat password</label>
		<input type="password" name="password2" required>
		<p>
			<button type="submit">Register</button>
		</p>
	</form>`)

type registerData struct {
	*context
	core.Registration
	Genders []string
}

func readRegistration(req *http.Request) core.Registration {
	return core.Registration{
		Username:    req.PostFormValue("username"),
		Password:    req.PostFormValue("password"),
		Password2:   req.PostFormValue("password2"),
		FirstName:   req.PostFormValue("firstname"),
		LastName:    req.PostFormValue("lastname"),
		DisplayName: req.PostFormValue("displayname"),
		Gender:      req.PostFormValue("gender"),
		Email:       req.PostFormValue("email"),
	}
}

func register(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if ctx.LoggedIn() {
		ctx.Success("You are already registered.")
		ctx.SeeOther("/")
		return nil
	}

	var reg core.Registration

	if req.Method == http.MethodPost {

		reg = readRegistration(req)

		acc, err := ctx.db.Register(reg)
		switch {
		case err == nil:
			ctx.Success("We have sent a confirmation link to %s.", acc.Email)
			ctx.SeeOther("/register/confirm?username=%s", acc.Username)
			return nil
		case errors.Is(err, core.ErrMailFailed):
			ctx.Danger(errMailFailed)
			ctx.SeeOther("/register/confirm?username=%s", acc.Username)
			return nil
		case errors.Is(err, core.ErrDuplicate):
			ctx.Danger(errTaken)
		case userError(err):
			ctx.Danger(err)
		default:
			return err
		}

		// don't echo passwords
		reg.Password = ""
		reg.Password2 = ""
	}

	return registerTmpl.Execute(w, &registerData{
		context:      ctx,
		Registration: reg,
		Genders:      core.Genders,
	})
}

var confirmTmpl = tmpl(`<h1>Confirm your registration</h1>
	<p>Please enter the confirmation code which we have sent to you.</p>
	<form method="get" action="register/confirm">
		<label>Username</label>
		<input type="text" name="username" value="{{ .Name }}" required>
		<label>Confirmation code</label>
		<input type="text" name="code" required autofocus>
		<p>
			<button type="submit">Confirm</button>
		</p>
	</form>`)

type confirmData struct {
	*context
	Name string
}

// confirm logs the session in if the code is valid. Any other input shows the form again.
func confirm(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var username = req.URL.Query().Get("username")
	var code = req.URL.Query().Get("code")

	if code != "" {
		acc, err := ctx.db.Confirm(username, code)
		switch {
		case err == nil:
			if err := ctx.LoginAccount(acc); err != nil {
				return err
			}
			ctx.SeeOther("/people/%s", acc.Username)
			return nil
		case errors.Is(err, core.ErrNotFound):
		default:
			return err
		}
	}

	return confirmTmpl.Execute(w, &confirmData{
		context: ctx,
		Name:    username,
	})
}
