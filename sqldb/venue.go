package sqldb

import (
	"database/sql"

	"github.com/balccon/balcconator/core"
)

type VenueDB struct {
	*sql.DB
	get    *sql.Stmt
	getAll *sql.Stmt
	insert *sql.Stmt
	update *sql.Stmt
}

func NewVenueDB(db *sql.DB, dialect Dialect) *VenueDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS venue (
			id `+dialect.serial()+`,
			title varchar(200) NOT NULL,
			description TEXT NOT NULL,
			address varchar(200) NOT NULL DEFAULT ''
		)`)

	var venueDB = &VenueDB{}
	venueDB.DB = db
	venueDB.get = mustPrepare(db, "SELECT id, title, description, address FROM venue WHERE id = ?")
	venueDB.getAll = mustPrepare(db, "SELECT id, title, description, address FROM venue ORDER BY title, id")
	venueDB.insert = mustPrepare(db, "INSERT INTO venue (title, description, address) VALUES (?, ?, ?)")
	venueDB.update = mustPrepare(db, "UPDATE venue SET title = ?, description = ?, address = ? WHERE id = ?")
	return venueDB
}

func scanVenue(row scanner) (*core.Venue, error) {
	var v = &core.Venue{}
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Address); err != nil {
		return nil, classify(err)
	}
	return v, nil
}

// DeleteVenue refuses to delete a venue which events refer to.
func (db *VenueDB) DeleteVenue(id int) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	var events int
	if err := tx.QueryRow("SELECT COUNT(*) FROM event WHERE venue = ?", id).Scan(&events); err != nil {
		return rollback(tx, err)
	}
	if events > 0 {
		return rollback(tx, core.ErrInUse)
	}

	res, err := tx.Exec("DELETE FROM venue WHERE id = ?", id)
	if err != nil {
		return rollback(tx, err)
	}

	if err := requireAffected(res); err != nil {
		return rollback(tx, err)
	}

	return tx.Commit()
}

func (db *VenueDB) GetAllVenues() ([]*core.Venue, error) {

	rows, err := db.getAll.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues = []*core.Venue{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (db *VenueDB) GetVenue(id int) (*core.Venue, error) {
	return scanVenue(db.get.QueryRow(id))
}

func (db *VenueDB) InsertVenue(v *core.Venue) error {
	res, err := db.insert.Exec(v.Title, v.Description, v.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = int(id)
	return nil
}

// UpdateVenue does not report a missing venue on MySQL, which counts changed rows only.
func (db *VenueDB) UpdateVenue(v *core.Venue) error {
	_, err := db.update.Exec(v.Title, v.Description, v.Address, v.ID)
	return err
}
