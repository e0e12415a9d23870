package core

// A Guard decides whether a request may reach a handler. It returns ErrUnauthorized if not.
type Guard func(req *Request) error

func Anyone(req *Request) error {
	return nil
}

func LoggedIn(req *Request) error {
	if !req.LoggedIn() {
		return ErrUnauthorized
	}
	return nil
}

// Admin admits the account named "admin" only.
func Admin(req *Request) error {
	if !req.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}

// Require admits logged-in accounts which hold the given permission.
func Require(perm Permission) Guard {
	return func(req *Request) error {
		if !req.LoggedIn() || !req.Permissions.Has(perm) {
			return ErrUnauthorized
		}
		return nil
	}
}
