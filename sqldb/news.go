package sqldb

import (
	"database/sql"

	"github.com/balccon/balcconator/core"
)

type NewsDB struct {
	*sql.DB
	get    *sql.Stmt
	latest *sql.Stmt
	insert *sql.Stmt
}

func NewNewsDB(db *sql.DB, dialect Dialect) *NewsDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS news (
			id `+dialect.serial()+`,
			title varchar(200) NOT NULL,
			body TEXT NOT NULL,
			ts BIGINT NOT NULL
		)`)

	var newsDB = &NewsDB{}
	newsDB.DB = db
	newsDB.get = mustPrepare(db, "SELECT id, title, body, ts FROM news WHERE id = ?")
	newsDB.latest = mustPrepare(db, "SELECT id, title, body, ts FROM news ORDER BY ts DESC, id DESC LIMIT ?")
	newsDB.insert = mustPrepare(db, "INSERT INTO news (title, body, ts) VALUES (?, ?, ?)")
	return newsDB
}

func scanNews(row scanner) (*core.NewsItem, error) {
	var n = &core.NewsItem{}
	var ts int64
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &ts); err != nil {
		return nil, classify(err)
	}
	n.Time = fromUnix(ts)
	return n, nil
}

func (db *NewsDB) GetNews(id int) (*core.NewsItem, error) {
	return scanNews(db.get.QueryRow(id))
}

func (db *NewsDB) GetLatestNews(limit int) ([]*core.NewsItem, error) {

	rows, err := db.latest.Query(limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items = []*core.NewsItem{}
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (db *NewsDB) InsertNews(n *core.NewsItem) error {
	res, err := db.insert.Exec(n.Title, n.Body, toUnix(n.Time))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = int(id)
	return nil
}
