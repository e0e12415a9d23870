package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/balccon/balcconator/util"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the input limit of bcrypt, in bytes.
const MaxPasswordLength = 72

var (
	ErrAuth            = errors.New("authentication failed")
	ErrPasswordTooLong = errors.New("password must not be longer than 72 bytes")
	ErrUsername        = errors.New("username must consist of 1 to 40 lowercase letters, digits, dashes or underscores and begin with a letter or digit")
)

// usernames are used as directory names, so they must be filesystem-safe
var usernameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,39}$`)

func CleanUsername(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return name
}

func ValidUsername(name string) error {
	if !usernameRegexp.MatchString(name) {
		return ErrUsername
	}
	return nil
}

// ValidPassword checks the length limit. Emptiness is checked by the caller.
func ValidPassword(password string) error {
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func Hash(password string) (string, error) {
	if err := ValidPassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns true if the password matches the hash. An empty hash never matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueConfirmationCode returns a random code with 192 bits of entropy.
func IssueConfirmationCode() (string, error) {
	return util.RandomString32()
}
