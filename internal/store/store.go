// Package store keeps k-mer context tables in a SQLite database so several
// runs (one per k) can be queried side by side.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"kmerctx/internal/kmer"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS contexts (
	k        INTEGER NOT NULL,
	kmer     TEXT    NOT NULL,
	follower TEXT    NOT NULL,
	count    INTEGER NOT NULL,
	PRIMARY KEY (k, kmer, follower)
)`

// Store is a SQLite-backed table archive.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces every row stored for k with the contents of t. K-mers with
// no followers are not representable and are skipped.
func (s *Store) Save(ctx context.Context, k int, t kmer.Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM contexts WHERE k = ?`, k); err != nil {
		return fmt.Errorf("clear k=%d: %w", k, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contexts (k, kmer, follower, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, km := range t.Kmers() {
		followers := t[km]
		for _, c := range followers.Chars() {
			if _, err = stmt.ExecContext(ctx, k, km, string(c), followers[c]); err != nil {
				return fmt.Errorf("insert %s/%c: %w", km, c, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the table stored for k. An unknown k yields an empty table.
func (s *Store) Load(ctx context.Context, k int) (kmer.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kmer, follower, count FROM contexts WHERE k = ?`, k)
	if err != nil {
		return nil, fmt.Errorf("query k=%d: %w", k, err)
	}
	defer rows.Close()

	table := make(kmer.Table)
	for rows.Next() {
		var (
			km, follower string
			count        int
		)
		if err := rows.Scan(&km, &follower, &count); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c, _ := utf8.DecodeRuneInString(follower)
		if table[km] == nil {
			table[km] = make(kmer.Followers)
		}
		table[km][c] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// Ks lists the window lengths that have stored rows, ascending.
func (s *Store) Ks(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT k FROM contexts ORDER BY k`)
	if err != nil {
		return nil, fmt.Errorf("query ks: %w", err)
	}
	defer rows.Close()
	var ks []int
	for rows.Next() {
		var k int
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		ks = append(ks, k)
	}
	return ks, rows.Err()
}
