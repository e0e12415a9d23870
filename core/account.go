package core

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/balccon/balcconator/auth"
	"github.com/rs/zerolog/log"
)

// AdminName is the name of the account which may administrate accounts, groups and other accounts' details.
const AdminName = "admin"

var (
	ErrBadEmail         = errors.New("invalid email address")
	ErrEmptyPassword    = errors.New("refusing to set empty password")
	ErrMailFailed       = errors.New("could not send confirmation mail")
	ErrMissingEmail     = errors.New("missing email address")
	ErrPasswordMismatch = errors.New("passwords don't match")
	ErrUnknownGender    = errors.New("unknown gender")
)

// ValidEmail accepts a bare address like "alice@example.com". Display names and angle brackets are rejected.
func ValidEmail(email string) error {
	if email == "" {
		return ErrMissingEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return ErrBadEmail
	}
	return nil
}

var Genders = []string{"unspecified", "female", "male", "other"}

func ValidGender(gender string) bool {
	for _, g := range Genders {
		if g == gender {
			return true
		}
	}
	return false
}

type Account struct {
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	DisplayName  string
	Gender       string
	Email        string
	Registered   time.Time
	Confirmation string // non-empty while the registration is unconfirmed
	Permissions
}

func (a *Account) Confirmed() bool {
	return a.Confirmation == ""
}

func (a *Account) IsAdmin() bool {
	return a.Username == AdminName
}

// Name returns the display name, falling back to the username.
func (a *Account) Name() string {
	if name := strings.TrimSpace(a.DisplayName); name != "" {
		return name
	}
	return a.Username
}

type AccountDB interface {
	ConfirmAccount(username, code string) (bool, error) // clears the code if it matches
	DeleteAccount(username string) error
	GetAccount(username string) (*Account, error) // returns ErrNotFound
	GetAllAccounts() ([]*Account, error)
	InsertAccount(a *Account) error // returns ErrDuplicate
	SetPasswordHash(username, hash string) error
	SetPermissions(username string, p Permissions) error
	UpdateDetails(a *Account) error // returns ErrDuplicate
}

// Registration holds the fields of the registration form.
type Registration struct {
	Username    string
	Password    string
	Password2   string
	FirstName   string
	LastName    string
	DisplayName string
	Gender      string
	Email       string
}

// details returns the account details of the registration, without credentials.
func (reg Registration) details(username string) *Account {
	var gender = reg.Gender
	if gender == "" {
		gender = Genders[0]
	}
	return &Account{
		Username:    username,
		FirstName:   strings.TrimSpace(reg.FirstName),
		LastName:    strings.TrimSpace(reg.LastName),
		DisplayName: strings.TrimSpace(reg.DisplayName),
		Gender:      gender,
		Email:       strings.TrimSpace(reg.Email),
		Registered:  time.Now().UTC(),
	}
}

func (reg Registration) validate() (string, error) {
	var username = auth.CleanUsername(reg.Username)
	if reg.Password != reg.Password2 {
		return "", ErrPasswordMismatch
	}
	if reg.Password == "" {
		return "", ErrEmptyPassword
	}
	if err := auth.ValidPassword(reg.Password); err != nil {
		return "", err
	}
	if err := auth.ValidUsername(username); err != nil {
		return "", err
	}
	if err := ValidEmail(strings.TrimSpace(reg.Email)); err != nil {
		return "", err
	}
	if reg.Gender != "" && !ValidGender(reg.Gender) {
		return "", ErrUnknownGender
	}
	return username, nil
}

// Register creates an unconfirmed account and mails its confirmation code.
// If the account has been created but the mail could not be sent, it returns the account and ErrMailFailed.
func (c *CoreDB) Register(reg Registration) (*Account, error) {

	username, err := reg.validate()
	if err != nil {
		return nil, err
	}

	var acc = reg.details(username)

	acc.PasswordHash, err = auth.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	acc.Confirmation, err = auth.IssueConfirmationCode()
	if err != nil {
		return nil, err
	}

	if err := c.InsertAccount(acc); err != nil {
		return nil, err
	}

	c.Metrics.Registrations.Inc()

	if err := c.Mailer.SendConfirmation(acc, c.ConfirmationLink(acc)); err != nil {
		log.Error().Err(err).Str("username", acc.Username).Msg("sending confirmation mail")
		return acc, ErrMailFailed
	}

	return acc, nil
}

// InsertConfirmedAccount creates an account which can log in immediately. It is used by administrators.
func (c *CoreDB) InsertConfirmedAccount(reg Registration) (*Account, error) {

	username, err := reg.validate()
	if err != nil {
		return nil, err
	}

	var acc = reg.details(username)

	acc.PasswordHash, err = auth.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	return acc, c.InsertAccount(acc)
}

// ConfirmationLink returns the absolute link which confirms the registration of the given account.
func (c *CoreDB) ConfirmationLink(acc *Account) string {
	var query = url.Values{}
	query.Set("username", acc.Username)
	query.Set("code", acc.Confirmation)
	return strings.TrimSuffix(c.PublicURL, "/") + "/register/confirm?" + query.Encode()
}

// Confirm clears the confirmation code of the account if the code matches.
// A wrong code and an already confirmed account both result in ErrNotFound.
func (c *CoreDB) Confirm(username, code string) (*Account, error) {
	username = auth.CleanUsername(username)
	if username == "" || code == "" {
		return nil, ErrNotFound
	}
	ok, err := c.ConfirmAccount(username, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return c.GetAccount(username)
}

// Verify returns the account if it exists, is confirmed and the password matches.
// Otherwise it returns auth.ErrAuth, or the error of the AccountDB.
func (c *CoreDB) Verify(username, password string) (*Account, error) {
	acc, err := c.GetAccount(auth.CleanUsername(username))
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrAuth
	}
	if err != nil {
		return nil, err
	}
	if !acc.Confirmed() {
		return nil, auth.ErrAuth
	}
	if !auth.CheckPassword(acc.PasswordHash, password) {
		return nil, auth.ErrAuth
	}
	return acc, nil
}

// SetPassword hashes the password and stores it.
func (c *CoreDB) SetPassword(acc *Account, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if err := auth.ValidPassword(password); err != nil {
		return err
	}
	hash, err := auth.Hash(password)
	if err != nil {
		return err
	}
	if err := c.SetPasswordHash(acc.Username, hash); err != nil {
		return fmt.Errorf("setting password of %s: %w", acc.Username, err)
	}
	acc.PasswordHash = hash
	return nil
}

// ChangePassword sets a new password if the old one is correct.
func (c *CoreDB) ChangePassword(acc *Account, old, new string) error {
	if !auth.CheckPassword(acc.PasswordHash, old) {
		return auth.ErrAuth
	}
	return c.SetPassword(acc, new)
}
