// Package storage persists the default portfolio in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"portfolioBench/internal/portfolio"
)

// ErrNotFound is returned when no default portfolio was ever saved.
var ErrNotFound = errors.New("no default portfolio saved")

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(ctx context.Context, db DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS default_holdings(
		position INTEGER PRIMARY KEY, symbol TEXT NOT NULL, percentage REAL NOT NULL
	)`)
	return err
}

type Store struct{ db DB }

func NewStore(db DB) *Store { return &Store{db: db} }

// LoadDefault returns the saved default portfolio in its saved order.
func (s *Store) LoadDefault(ctx context.Context) (portfolio.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, percentage FROM default_holdings ORDER BY position ASC`)
	if err != nil {
		return portfolio.Portfolio{}, fmt.Errorf("query default portfolio: %w", err)
	}
	defer rows.Close()

	var p portfolio.Portfolio
	for rows.Next() {
		var h portfolio.Holding
		if err := rows.Scan(&h.Symbol, &h.Weight); err != nil {
			return portfolio.Portfolio{}, fmt.Errorf("scan holding: %w", err)
		}
		p.Holdings = append(p.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return portfolio.Portfolio{}, err
	}
	if len(p.Holdings) == 0 {
		return portfolio.Portfolio{}, ErrNotFound
	}
	return p, nil
}

// SaveDefault replaces the saved default portfolio atomically.
func (s *Store) SaveDefault(ctx context.Context, p portfolio.Portfolio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM default_holdings`); err != nil {
		return fmt.Errorf("clear default portfolio: %w", err)
	}
	for i, h := range p.Holdings {
		if _, err := tx.ExecContext(ctx, `INSERT INTO default_holdings(position,symbol,percentage) VALUES(?,?,?)`,
			i, h.Symbol, h.Weight); err != nil {
			return fmt.Errorf("insert %s: %w", h.Symbol, err)
		}
	}
	return tx.Commit()
}
