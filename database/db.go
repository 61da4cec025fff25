package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("record not found")

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	NamedExec(query string, arg interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Rebind(query string) string
	Exec(query string, args ...interface{}) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// Open connects to the sqlite file with WAL, a busy timeout and FK enforcement.
func Open(path string) (*sqlx.DB, error) {
	dsn := path
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn += sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate&_loc=auto"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// WithTx runs fn inside a transaction; fn's error (or a panic) rolls it back.
func WithTx(db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(tx)
	return err
}

func insertNamed(dbtx DBTX, table string, cols []string, arg interface{}) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		table, strings.Join(cols, ", "), strings.Join(cols, ", :"))
	res, err := dbtx.NamedExec(q, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func updateNamed(dbtx DBTX, table string, cols []string, arg interface{}) error {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = :" + c
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", "))
	res, err := dbtx.NamedExec(q, arg)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func deleteByID(dbtx DBTX, table string, id int64) error {
	res, err := dbtx.Exec("DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getByID(dbtx DBTX, dest interface{}, table string, id int64) error {
	err := dbtx.Get(dest, "SELECT * FROM "+table+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func withoutCreatedAt(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != "created_at" {
			out = append(out, c)
		}
	}
	return out
}

// withID prefixes a column list with id, used when ids are carried over (restore).
func withID(cols []string) []string {
	return append([]string{"id"}, cols...)
}
