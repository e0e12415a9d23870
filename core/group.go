package core

import "time"

type Group struct {
	Name        string
	DisplayName string
	Email       string
	Registered  time.Time
}

// Title returns the display name, falling back to the group name.
func (g *Group) Title() string {
	if g.DisplayName != "" {
		return g.DisplayName
	}
	return g.Name
}

type GroupDB interface {
	DeleteGroup(name string) error // removes the memberships too
	GetAllGroups() ([]*Group, error)
	GetGroup(name string) (*Group, error) // returns ErrNotFound
	GetGroupsOf(username string) ([]*Group, error)
	GetMembers(name string) ([]*Account, error)
	InsertGroup(g *Group) error // returns ErrDuplicate
	Join(groupname, username string) error
	Leave(groupname, username string) error
}
