package core

import "fmt"

// A Permission is one of the boolean flags stored with an account.
type Permission int

const (
	PermNews Permission = iota + 1
	PermReviewer
	PermVenue
	PermSchedule
)

var AllPermissions = []Permission{PermNews, PermReviewer, PermVenue, PermSchedule}

func (p Permission) String() string {
	switch p {
	case PermNews:
		return "news"
	case PermReviewer:
		return "reviewer"
	case PermVenue:
		return "venue"
	case PermSchedule:
		return "schedule"
	}
	return "unknown"
}

func (p Permission) Valid() bool {
	switch p {
	case PermNews, PermReviewer, PermVenue, PermSchedule:
		return true
	default:
		return false
	}
}

func ParsePermission(s string) (Permission, error) {
	for _, p := range AllPermissions {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q", s)
}

// Permissions is the permission set of a request. The zero value is the empty set.
type Permissions struct {
	News     bool
	Reviewer bool
	Venue    bool
	Schedule bool
}

func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermNews:
		return p.News
	case PermReviewer:
		return p.Reviewer
	case PermVenue:
		return p.Venue
	case PermSchedule:
		return p.Schedule
	}
	return false
}

func (p *Permissions) Set(perm Permission, value bool) {
	switch perm {
	case PermNews:
		p.News = value
	case PermReviewer:
		p.Reviewer = value
	case PermVenue:
		p.Venue = value
	case PermSchedule:
		p.Schedule = value
	}
}

// List returns the permissions which are set, in a fixed order.
func (p Permissions) List() []Permission {
	var list []Permission
	for _, perm := range AllPermissions {
		if p.Has(perm) {
			list = append(list, perm)
		}
	}
	return list
}
