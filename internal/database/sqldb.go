package database

import (
	"context"
	"database/sql"
)

// FromSQL adapts a database/sql handle, such as the pgx stdlib driver or a
// sqlmock connection, to DB.
func FromSQL(db *sql.DB) DB {
	return sqlDB{db: db}
}

type sqlDB struct {
	db *sql.DB
}

func (s sqlDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrNilDB
	}
	return s.db.PingContext(ctx)
}

func (s sqlDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s sqlDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, ErrNilDB
	}
	return execAffected(s.db.ExecContext(ctx, query, args...))
}

func (s sqlDB) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if s.db == nil {
		return nil, ErrNilDB
	}
	r, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows: r}, nil
}

func (s sqlDB) QueryRow(ctx context.Context, query string, args ...any) Row {
	if s.db == nil {
		return errRow{err: ErrNilDB}
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s sqlDB) Begin(ctx context.Context) (Tx, error) {
	if s.db == nil {
		return nil, ErrNilDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx: tx}, nil
}

func (s sqlDB) SQLDB() *sql.DB {
	return s.db
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execAffected(t.tx.ExecContext(ctx, query, args...))
}

func (t sqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	r, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows: r}, nil
}

func (t sqlTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t sqlTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t sqlTx) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}

// sqlRows drops the error from Close so it satisfies Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Close()                 { _ = r.rows.Close() }
func (r sqlRows) Next() bool             { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRows) Err() error             { return r.rows.Err() }

type errRow struct {
	err error
}

func (r errRow) Scan(_ ...any) error { return r.err }

func execAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
