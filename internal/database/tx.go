package database

import (
	"database/sql"
)

// DBTX is the subset of operations repositories need. It is satisfied by
// both *DB and *Tx so repository methods can run inside or outside a
// transaction.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	GetDialect() Dialect
}

// GetDialect returns the connection's dialect
func (db *DB) GetDialect() Dialect {
	return db.Dialect
}

// TxHandle is a transaction as services see it: the query surface plus
// commit and rollback
type TxHandle interface {
	DBTX
	Commit() error
	Rollback() error
}

// Beginner is anything that can open a transaction
type Beginner interface {
	Begin() (TxHandle, error)
}

// Tx wraps sql.Tx with dialect-aware query rewriting
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// Exec executes a statement within the transaction
func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.Tx.Exec(tx.dialect.RewriteQuery(query), args...)
}

// Query executes a query within the transaction
func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.Tx.Query(tx.dialect.RewriteQuery(query), args...)
}

// QueryRow executes a single-row query within the transaction
func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.Tx.QueryRow(tx.dialect.RewriteQuery(query), args...)
}

// GetDialect returns the transaction's dialect
func (tx *Tx) GetDialect() Dialect {
	return tx.dialect
}

// Commit commits the transaction
func (tx *Tx) Commit() error {
	return tx.Tx.Commit()
}

// Rollback aborts the transaction
func (tx *Tx) Rollback() error {
	return tx.Tx.Rollback()
}
