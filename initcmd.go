package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/balccon/balcconator/auth"
	"github.com/balccon/balcconator/core"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func insertGroup(db *core.CoreDB, name string) error {
	name = auth.CleanUsername(name)
	if err := auth.ValidUsername(name); err != nil {
		return err
	}
	if err := db.InsertGroup(&core.Group{Name: name, Registered: time.Now().UTC()}); err != nil {
		return fmt.Errorf(`creating group "%s": %w`, name, err)
	}
	log.Info().Str("group", name).Msg("group created")
	return nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	return pass, err
}

func insertUser(db *core.CoreDB, name string) error {

	pass1, err := readPassword(fmt.Sprintf("password for user %s: ", name))
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	pass2, err := readPassword("repeat password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if !bytes.Equal(pass1, pass2) {
		return core.ErrPasswordMismatch
	}

	acc, err := db.InsertConfirmedAccount(core.Registration{
		Username:  name,
		Password:  string(pass1),
		Password2: string(pass2),
		Email:     name + "@localhost",
	})
	if err != nil {
		return fmt.Errorf("creating user %s: %w", name, err)
	}

	log.Info().Str("username", acc.Username).Msg("user created, change the e-mail address on the website")
	return nil
}

func grant(db *core.CoreDB, username, permName string) error {

	perm, err := core.ParsePermission(permName)
	if err != nil {
		return err
	}

	acc, err := db.GetAccount(auth.CleanUsername(username))
	if err != nil {
		return fmt.Errorf("getting user %s: %w", username, err)
	}

	var perms = acc.Permissions
	perms.Set(perm, true)
	if err := db.SetPermissions(acc.Username, perms); err != nil {
		return err
	}

	log.Info().Str("username", acc.Username).Stringer("permission", perm).Msg("permission granted")
	return nil
}

// insertDemo creates the accounts and groups of a fresh installation, plus some content.
// The passwords are public, so don't use it in production.
func insertDemo(db *core.CoreDB) error {

	var now = time.Now().UTC()

	for _, g := range []*core.Group{
		{Name: "admins", DisplayName: "Administrators", Email: "admins@localhost", Registered: now},
		{Name: "lecturers", DisplayName: "Lecturers", Email: "lecturers@localhost", Registered: now},
	} {
		if err := db.InsertGroup(g); err != nil {
			return fmt.Errorf("creating group %s: %w", g.Name, err)
		}
	}

	var people = []struct {
		core.Registration
		groups []string
	}{
		{core.Registration{Username: core.AdminName, Password: "adm1n", Email: "admin@localhost", DisplayName: "Administrator", Gender: "unspecified"}, []string{"admins"}},
		{core.Registration{Username: "john", Password: "john", Email: "john@localhost", FirstName: "John", LastName: "Doe", DisplayName: "John Doe", Gender: "male"}, []string{"lecturers", "admins"}},
		{core.Registration{Username: "jane", Password: "jane", Email: "jane@localhost", FirstName: "Jane", LastName: "Doe", DisplayName: "Jane Doe", Gender: "female"}, []string{"lecturers"}},
	}

	for _, p := range people {
		p.Password2 = p.Password
		acc, err := db.InsertConfirmedAccount(p.Registration)
		if err != nil {
			return fmt.Errorf("creating user %s: %w", p.Username, err)
		}
		for _, g := range p.groups {
			if err := db.Join(g, acc.Username); err != nil {
				return fmt.Errorf("joining %s to %s: %w", acc.Username, g, err)
			}
		}
	}

	if err := db.SetPermissions("john", core.Permissions{Reviewer: true, Venue: true}); err != nil {
		return err
	}

	var hall = &core.Venue{
		Title:       "Main Hall",
		Description: "The big room on the **ground floor**.",
		Address:     "Novi Sad",
	}
	if err := db.InsertVenue(hall); err != nil {
		return err
	}

	if err := db.InsertNews(&core.NewsItem{
		Title: "Call for papers",
		Body:  "The call for papers is open. Register and upload your proposal on your profile page.",
		Time:  now,
	}); err != nil {
		return err
	}

	var start = now.Truncate(time.Hour).Add(30 * 24 * time.Hour)
	if err := db.InsertEvent(&core.Event{
		Owner:   "jane",
		Title:   "Opening",
		Body:    "Welcome to the conference.",
		Start:   start,
		End:     start.Add(time.Hour),
		VenueID: hall.ID,
	}); err != nil {
		return err
	}

	log.Warn().Msg("demo data inserted, change the passwords")
	return nil
}
