package sqldb

import (
	"database/sql"

	"github.com/balccon/balcconator/core"
)

const accountColumns = `account.username, account.password, account.firstname, account.lastname, account.displayname, account.gender, account.email, account.registered, account.confirmation, account.perm_news, account.perm_reviewer, account.perm_venue, account.perm_schedule`

func scanAccount(row scanner) (*core.Account, error) {
	var a = &core.Account{}
	var registered int64
	var confirmation sql.NullString
	err := row.Scan(&a.Username, &a.PasswordHash, &a.FirstName, &a.LastName, &a.DisplayName, &a.Gender, &a.Email, &registered, &confirmation, &a.News, &a.Reviewer, &a.Venue, &a.Schedule)
	if err != nil {
		return nil, classify(err)
	}
	a.Registered = fromUnix(registered)
	a.Confirmation = confirmation.String
	return a, nil
}

func scanAccounts(rows *sql.Rows, err error) ([]*core.Account, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts = []*core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type AccountDB struct {
	*sql.DB
	confirm        *sql.Stmt
	get            *sql.Stmt
	getAll         *sql.Stmt
	insert         *sql.Stmt
	setPassword    *sql.Stmt
	setPermissions *sql.Stmt
	updateDetails  *sql.Stmt
}

func NewAccountDB(db *sql.DB) *AccountDB {

	mustExec(db, `
		CREATE TABLE IF NOT EXISTS account (
			username varchar(40) NOT NULL PRIMARY KEY,
			password varchar(60) NOT NULL,
			firstname varchar(80) NOT NULL DEFAULT '',
			lastname varchar(80) NOT NULL DEFAULT '',
			displayname varchar(80) NOT NULL DEFAULT '',
			gender varchar(16) NOT NULL DEFAULT 'unspecified',
			email varchar(120) NOT NULL,
			registered BIGINT NOT NULL,
			confirmation varchar(64) NULL,
			perm_news BOOLEAN NOT NULL DEFAULT FALSE,
			perm_reviewer BOOLEAN NOT NULL DEFAULT FALSE,
			perm_venue BOOLEAN NOT NULL DEFAULT FALSE,
			perm_schedule BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE(email)
		)`)

	var accountDB = &AccountDB{}
	accountDB.DB = db
	accountDB.confirm = mustPrepare(db, "UPDATE account SET confirmation = NULL WHERE username = ? AND confirmation = ?")
	accountDB.get = mustPrepare(db, "SELECT "+accountColumns+" FROM account WHERE username = ?")
	accountDB.getAll = mustPrepare(db, "SELECT "+accountColumns+" FROM account ORDER BY username")
	accountDB.insert = mustPrepare(db, "INSERT INTO account (username, password, firstname, lastname, displayname, gender, email, registered, confirmation, perm_news, perm_reviewer, perm_venue, perm_schedule) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	accountDB.setPassword = mustPrepare(db, "UPDATE account SET password = ? WHERE username = ?")
	accountDB.setPermissions = mustPrepare(db, "UPDATE account SET perm_news = ?, perm_reviewer = ?, perm_venue = ?, perm_schedule = ? WHERE username = ?")
	accountDB.updateDetails = mustPrepare(db, "UPDATE account SET firstname = ?, lastname = ?, displayname = ?, gender = ?, email = ? WHERE username = ?")
	return accountDB
}

// ConfirmAccount clears the confirmation code. It returns false if the code does not match or has already been cleared.
func (db *AccountDB) ConfirmAccount(username, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	res, err := db.confirm.Exec(username, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteAccount deletes the account and its group memberships in one transaction.
func (db *AccountDB) DeleteAccount(username string) error {

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM membership WHERE username = ?", username); err != nil {
		return rollback(tx, err)
	}

	res, err := tx.Exec("DELETE FROM account WHERE username = ?", username)
	if err != nil {
		return rollback(tx, err)
	}

	if err := requireAffected(res); err != nil {
		return rollback(tx, err)
	}

	return tx.Commit()
}

func (db *AccountDB) GetAccount(username string) (*core.Account, error) {
	return scanAccount(db.get.QueryRow(username))
}

func (db *AccountDB) GetAllAccounts() ([]*core.Account, error) {
	return scanAccounts(db.getAll.Query())
}

func (db *AccountDB) InsertAccount(a *core.Account) error {
	_, err := db.insert.Exec(a.Username, a.PasswordHash, a.FirstName, a.LastName, a.DisplayName, a.Gender, a.Email, toUnix(a.Registered), nullString(a.Confirmation), a.News, a.Reviewer, a.Venue, a.Schedule)
	return classify(err)
}

func (db *AccountDB) SetPasswordHash(username, hash string) error {
	_, err := db.setPassword.Exec(hash, username)
	return err
}

func (db *AccountDB) SetPermissions(username string, p core.Permissions) error {
	_, err := db.setPermissions.Exec(p.News, p.Reviewer, p.Venue, p.Schedule, username)
	return err
}

func (db *AccountDB) UpdateDetails(a *core.Account) error {
	_, err := db.updateDetails.Exec(a.FirstName, a.LastName, a.DisplayName, a.Gender, a.Email, a.Username)
	return classify(err)
}
