// Package postgres stores documents as jsonb rows in a single table.
//
// Array transforms compile into one UPDATE statement, so each runs under
// the row lock and concurrent appends, removals and element updates on the
// same document never overwrite each other.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"job-tracker/internal/database"
	"job-tracker/internal/docstore"
	"job-tracker/internal/docstore/notify"
	"job-tracker/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Store struct {
	db     database.DB
	broker notify.Broker
	log    logger.Logger
	newID  func() (uuid.UUID, error)
}

func New(db database.DB, broker notify.Broker, log logger.Logger) *Store {
	if broker == nil {
		broker = notify.NewLocal()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{db: db, broker: broker, log: log, newID: uuid.NewV7}
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) Close() error {
	return s.broker.Close()
}

type collection struct {
	store *Store
	name  string
}

// publish never fails the write that triggered it; subscribers in this
// process still converge on the next signal.
func (c *collection) publish(ctx context.Context) {
	if err := c.store.broker.Publish(ctx, notify.Channel(c.name)); err != nil {
		c.store.log.Warn("change notification failed", map[string]interface{}{
			"collection": c.name,
			"error":      err,
		})
	}
}

func (c *collection) Create(ctx context.Context, data map[string]any) (string, error) {
	id, err := c.store.newID()
	if err != nil {
		return "", err
	}

	args := []any{c.name, id.String()}
	expr, args, err := buildPatch(`'{}'::jsonb`, data, args)
	if err != nil {
		return "", err
	}

	q := fmt.Sprintf(`INSERT INTO documents (collection, id, data) VALUES ($1, $2, %s)`, expr)
	if _, err := c.store.db.Exec(ctx, q, args...); err != nil {
		return "", err
	}

	c.publish(ctx)
	return id.String(), nil
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	var raw []byte
	err := c.store.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		c.name, id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}

	data, err := docstore.DecodeData(raw)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func (c *collection) Update(ctx context.Context, id string, data map[string]any) error {
	args := []any{c.name, id}
	expr, args, err := buildPatch("data", data, args)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`UPDATE documents SET data = %s, updated_at = now() WHERE collection = $1 AND id = $2`, expr)
	n, err := c.store.db.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return docstore.ErrNotFound
	}

	c.publish(ctx)
	return nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	n, err := c.store.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, c.name, id)
	if err != nil {
		return err
	}
	if n > 0 {
		c.publish(ctx)
	}
	return nil
}

func (c *collection) Query(ctx context.Context, f docstore.Filter) ([]docstore.Document, error) {
	q := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{c.name}
	if !f.IsZero() {
		// Containment lets documents_data_idx serve any field filter.
		v, err := json.Marshal(map[string]any{f.Field: f.Value})
		if err != nil {
			return nil, err
		}
		q += ` AND data @> $2::jsonb`
		args = append(args, string(v))
	}
	q += ` ORDER BY seq`

	rows, err := c.store.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := docstore.DecodeData(raw)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		out = append(out, docstore.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *collection) Subscribe(ctx context.Context, f docstore.Filter, onSnapshot docstore.SnapshotFunc, onError func(error)) (func(), error) {
	return docstore.Watch(ctx, c.store.broker, notify.Channel(c.name), c.Query, f, onSnapshot, onError)
}

const serverNowSQL = `jsonb_build_object('@ts', to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS.US"Z"'))`

// buildPatch folds data into nested jsonb_set calls over base. Field names
// and values are always bound as parameters. Keys are applied in sorted
// order so the statement text is stable.
func buildPatch(base string, data map[string]any, args []any) (string, []any, error) {
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	jsonParam := func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return param(string(b)) + "::jsonb", nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	expr := base
	for _, k := range keys {
		key := param(k) + "::text"
		current := fmt.Sprintf("(%s)->%s", base, key)
		list := fmt.Sprintf("(CASE WHEN jsonb_typeof(%s) = 'array' THEN %s ELSE '[]'::jsonb END)", current, current)

		var val string
		switch op := data[k].(type) {
		case docstore.Transform:
			var err error
			val, err = transformSQL(op, list, param, jsonParam)
			if err != nil {
				return "", nil, fmt.Errorf("field %s: %w", k, err)
			}
		default:
			p, err := jsonParam(op)
			if err != nil {
				return "", nil, fmt.Errorf("field %s: %w", k, err)
			}
			val = p
		}
		expr = fmt.Sprintf("jsonb_set(%s, ARRAY[%s], %s, true)", expr, key, val)
	}
	return expr, args, nil
}

func transformSQL(op docstore.Transform, list string, param func(any) string, jsonParam func(any) (string, error)) (string, error) {
	switch t := op.(type) {
	case docstore.UnionOp:
		elems, err := jsonParam(t.Elems)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"%s || (SELECT COALESCE(jsonb_agg(u.e ORDER BY u.ord), '[]'::jsonb) FROM "+
				"(SELECT x.e, min(x.ord) AS ord FROM jsonb_array_elements(%s) WITH ORDINALITY AS x(e, ord) GROUP BY x.e) AS u "+
				"WHERE NOT EXISTS (SELECT 1 FROM jsonb_array_elements(%s) AS c(e) WHERE c.e = u.e))",
			list, elems, list,
		), nil
	case docstore.RemoveWhereOp:
		key := param(t.Key)
		match, err := jsonParam(t.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"(SELECT COALESCE(jsonb_agg(a.e ORDER BY a.ord), '[]'::jsonb) FROM jsonb_array_elements(%s) WITH ORDINALITY AS a(e, ord) "+
				"WHERE (a.e->%s::text) IS DISTINCT FROM %s)",
			list, key, match,
		), nil
	case docstore.UpdateWhereOp:
		key := param(t.Key)
		match, err := jsonParam(t.Value)
		if err != nil {
			return "", err
		}
		patch, err := jsonParam(t.Patch)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"(SELECT COALESCE(jsonb_agg(CASE WHEN (a.e->%s::text) = %s THEN a.e || %s ELSE a.e END ORDER BY a.ord), '[]'::jsonb) "+
				"FROM jsonb_array_elements(%s) WITH ORDINALITY AS a(e, ord))",
			key, match, patch, list,
		), nil
	default:
		if op == docstore.ServerTimestamp {
			return serverNowSQL, nil
		}
		return "", fmt.Errorf("unsupported transform %T", op)
	}
}
