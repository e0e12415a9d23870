package sqldb

import (
	"database/sql"

	"github.com/balccon/balcconator/core"
)

const eventColumns = `event.id, event.owner, event.title, event.body, event.ts_start, event.ts_end, event.venue, venue.title`

type EventDB struct {
	*sql.DB
	at       *sql.Stmt
	insert   *sql.Stmt
	schedule *sql.Stmt
}

// NewEventDB must be called after NewVenueDB and NewAccountDB because of the foreign keys.
func NewEventDB(db *sql.DB, dialect Dialect) *EventDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS event (
			id `+dialect.serial()+`,
			owner varchar(40) NULL,
			title varchar(200) NOT NULL,
			body TEXT NOT NULL,
			ts_start BIGINT NOT NULL,
			ts_end BIGINT NOT NULL,
			venue INTEGER NULL,
			FOREIGN KEY (owner) REFERENCES account (username),
			FOREIGN KEY (venue) REFERENCES venue (id)
		)`)

	var eventDB = &EventDB{}
	eventDB.DB = db
	eventDB.at = mustPrepare(db, "SELECT "+eventColumns+" FROM event LEFT JOIN venue ON event.venue = venue.id WHERE event.venue = ? ORDER BY event.ts_start, event.id")
	eventDB.insert = mustPrepare(db, "INSERT INTO event (owner, title, body, ts_start, ts_end, venue) VALUES (?, ?, ?, ?, ?, ?)")
	eventDB.schedule = mustPrepare(db, "SELECT "+eventColumns+" FROM event LEFT JOIN venue ON event.venue = venue.id ORDER BY event.ts_start, event.id")
	return eventDB
}

func (db *EventDB) getMultiple(stmt *sql.Stmt, args ...interface{}) ([]*core.Event, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events = []*core.Event{}
	for rows.Next() {
		var e = &core.Event{}
		var owner, venueTitle sql.NullString
		var venue sql.NullInt64
		var start, end int64
		if err := rows.Scan(&e.ID, &owner, &e.Title, &e.Body, &start, &end, &venue, &venueTitle); err != nil {
			return nil, err
		}
		e.Owner = owner.String
		e.Start = fromUnix(start)
		e.End = fromUnix(end)
		e.VenueID = int(venue.Int64)
		e.VenueTitle = venueTitle.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func (db *EventDB) GetEventsAt(venueID int) ([]*core.Event, error) {
	return db.getMultiple(db.at, venueID)
}

func (db *EventDB) GetSchedule() ([]*core.Event, error) {
	return db.getMultiple(db.schedule)
}

// InsertEvent returns core.ErrInUse if the owner or the venue does not exist.
func (db *EventDB) InsertEvent(e *core.Event) error {
	res, err := db.insert.Exec(nullString(e.Owner), e.Title, e.Body, toUnix(e.Start), toUnix(e.End), nullInt(e.VenueID))
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = int(id)
	return nil
}
