package core

type Venue struct {
	ID          int
	Title       string
	Description string // markdown
	Address     string
}

type VenueDB interface {
	DeleteVenue(id int) error // returns ErrInUse if events take place there
	GetAllVenues() ([]*Venue, error)
	GetVenue(id int) (*Venue, error)
	InsertVenue(v *Venue) error // sets v.ID
	UpdateVenue(v *Venue) error
}
