package testutil

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mamcisaac/teaching-engine2.0-sub000/internal/db"
)

// FailingUoW runs transactions through the real unit of work but makes one
// write fail: the Nth ExecContext whose SQL satisfies Match (any statement
// when Match is nil). Nth counts from 1 and defaults to 1. Reads pass
// through.
type FailingUoW struct {
	DB    *sql.DB
	Match func(query string) bool
	Nth   int
	Err   error
}

// OnStatement matches statements containing fragment, e.g. "INSERT INTO events".
func OnStatement(fragment string) func(string) bool {
	return func(query string) bool { return strings.Contains(query, fragment) }
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	nth := u.Nth
	if nth <= 0 {
		nth = 1
	}
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingExec{DBTX: tx, match: u.Match, nth: nth, err: u.Err})
	})
}

// failingExec is used by a single transaction, which owns the only
// connection, so the counter needs no locking.
type failingExec struct {
	db.DBTX
	match func(string) bool
	nth   int
	seen  int
	err   error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.match == nil || f.match(query) {
		f.seen++
		if f.seen == f.nth {
			return nil, f.err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
