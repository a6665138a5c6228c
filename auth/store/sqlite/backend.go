// Package sqlite provides a token store Backend persisted in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/viant/storegate/auth/store"
	"github.com/viant/storegate/auth/store/sqlite/migrations"
)

// Backend stores the named token entries in the auth_state table.
type Backend struct {
	db *sql.DB
}

// Open opens dsn with the pure-Go driver and applies migrations.
func Open(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	ret, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ret, nil
}

// New wraps db and applies pending migrations.
func New(db *sql.DB) (*Backend, error) {
	ret := &Backend{db: db}
	if err := ret.ApplyMigrations(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ApplyMigrations applies the embedded schema.
func (b *Backend) ApplyMigrations() error {
	driver, err := migratesqlite.WithInstance(b.db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}
	instance, err := migrate.NewWithInstance("iofs", source, "", driver)
	if err != nil {
		return err
	}
	if err = instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) Load(ctx context.Context) (store.Entries, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name, value FROM auth_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := store.Entries{}
	for rows.Next() {
		var name, value string
		if err = rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		ret[name] = value
	}
	return ret, rows.Err()
}

// Save replaces all entries in one transaction.
func (b *Backend) Save(ctx context.Context, entries store.Entries) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM auth_state`); err != nil {
			return err
		}
		for name, value := range entries {
			if _, err := tx.ExecContext(ctx, `INSERT INTO auth_state(name, value) VALUES (?, ?)`, name, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Backend) Delete(ctx context.Context) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM auth_state`)
		return err
	})
}

func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
