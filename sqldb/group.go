package sqldb

import (
	"database/sql"

	"github.com/balccon/balcconator/core"
)

type GroupDB struct {
	*sql.DB
	get     *sql.Stmt
	getAll  *sql.Stmt
	getOf   *sql.Stmt
	insert  *sql.Stmt
	join    *sql.Stmt
	leave   *sql.Stmt
	members *sql.Stmt
}

func NewGroupDB(db *sql.DB) *GroupDB {

	// separate statements, the mysql driver does not run multiple statements by default
	mustExec(db, `
		CREATE TABLE IF NOT EXISTS grp (
			groupname varchar(40) NOT NULL PRIMARY KEY,
			displayname varchar(80) NOT NULL DEFAULT '',
			email varchar(120) NOT NULL DEFAULT '',
			registered BIGINT NOT NULL
		)`)
	mustExec(db, `
		CREATE TABLE IF NOT EXISTS membership (
			groupname varchar(40) NOT NULL,
			username varchar(40) NOT NULL,
			PRIMARY KEY (groupname, username),
			FOREIGN KEY (groupname) REFERENCES grp (groupname),
			FOREIGN KEY (username) REFERENCES account (username)
		)`)

	var groupDB = &GroupDB{}
	groupDB.DB = db
	groupDB.get = mustPrepare(db, "SELECT groupname, displayname, email, registered FROM grp WHERE groupname = ?")
	groupDB.getAll = mustPrepare(db, "SELECT groupname, displayname, email, registered FROM grp ORDER BY groupname")
	groupDB.getOf = mustPrepare(db, "SELECT grp.groupname, grp.displayname, grp.email, grp.registered FROM grp JOIN membership ON grp.groupname = membership.groupname WHERE membership.username = ? ORDER BY grp.groupname")
	groupDB.insert = mustPrepare(db, "INSERT INTO grp (groupname, displayname, email, registered) VALUES (?, ?, ?, ?)")
	// inserts nothing if the account or the group does not exist
	groupDB.join = mustPrepare(db, "INSERT INTO membership (groupname, username) SELECT ?, username FROM account WHERE username = ? AND EXISTS (SELECT 1 FROM grp WHERE groupname = ?)")
	groupDB.leave = mustPrepare(db, "DELETE FROM membership WHERE groupname = ? AND username = ?")
	groupDB.members = mustPrepare(db, "SELECT "+accountColumns+" FROM account JOIN membership ON account.username = membership.username WHERE membership.groupname = ? ORDER BY account.username")
	return groupDB
}

func scanGroup(row scanner) (*core.Group, error) {
	var g = &core.Group{}
	var registered int64
	if err := row.Scan(&g.Name, &g.DisplayName, &g.Email, &registered); err != nil {
		return nil, classify(err)
	}
	g.Registered = fromUnix(registered)
	return g, nil
}

func (db *GroupDB) getMultiple(stmt *sql.Stmt, args ...interface{}) ([]*core.Group, error) {

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups = []*core.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes the memberships and the group in one transaction.
func (db *GroupDB) DeleteGroup(name string) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM membership WHERE groupname = ?", name); err != nil {
		return rollback(tx, err)
	}

	res, err := tx.Exec("DELETE FROM grp WHERE groupname = ?", name)
	if err != nil {
		return rollback(tx, err)
	}

	if err := requireAffected(res); err != nil {
		return rollback(tx, err)
	}

	return tx.Commit()
}

func (db *GroupDB) GetAllGroups() ([]*core.Group, error) {
	return db.getMultiple(db.getAll)
}

func (db *GroupDB) GetGroup(name string) (*core.Group, error) {
	return scanGroup(db.get.QueryRow(name))
}

func (db *GroupDB) GetGroupsOf(username string) ([]*core.Group, error) {
	return db.getMultiple(db.getOf, username)
}

func (db *GroupDB) GetMembers(name string) ([]*core.Account, error) {
	return scanAccounts(db.members.Query(name))
}

func (db *GroupDB) InsertGroup(g *core.Group) error {
	_, err := db.insert.Exec(g.Name, g.DisplayName, g.Email, toUnix(g.Registered))
	return classify(err)
}

// Join returns core.ErrNotFound if the group or the account does not exist, and core.ErrDuplicate if the account is a member already.
func (db *GroupDB) Join(groupname, username string) error {
	res, err := db.join.Exec(groupname, username, groupname)
	if err != nil {
		return classify(err)
	}
	return requireAffected(res)
}

func (db *GroupDB) Leave(groupname, username string) error {
	res, err := db.leave.Exec(groupname, username)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
