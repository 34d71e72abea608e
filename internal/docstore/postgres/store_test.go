package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"

	"job-tracker/internal/database"
	"job-tracker/internal/docstore"
	"job-tracker/internal/docstore/notify"
	"job-tracker/internal/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedID = uuid.MustParse("0190b6a8-0000-7000-8000-000000000001")

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *notify.Local) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	broker := notify.NewLocal()
	s := New(database.FromSQL(db), broker, logger.NewTestLogger(t))
	s.newID = func() (uuid.UUID, error) { return fixedID, nil }
	return s, mock, broker
}

func TestCreate(t *testing.T) {
	s, mock, broker := newMockStore(t)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, notify.Channel("jobs"))
	require.NoError(t, err)
	defer sub.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents (collection, id, data) VALUES ($1, $2, jsonb_set(`)).
		WithArgs(
			"jobs", fixedID.String(),
			"createdAt",
			"events", "[]",
			"userId", `"u1"`,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.Collection("jobs").Create(ctx, map[string]any{
		"userId":    "u1",
		"events":    []any{},
		"createdAt": docstore.ServerTimestamp,
	})
	require.NoError(t, err)
	assert.Equal(t, fixedID.String(), id)
	assert.NoError(t, mock.ExpectationsWereMet())

	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("create did not publish")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s, mock, _ := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET data = jsonb_set(data, ARRAY[$3::text], $4::jsonb, true), updated_at = now() WHERE collection = $1 AND id = $2`)).
		WithArgs("jobs", "missing", "status", `"offered"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Collection("jobs").Update(context.Background(), "missing", map[string]any{"status": "offered"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ArrayTransforms(t *testing.T) {
	s, mock, _ := newMockStore(t)

	mock.ExpectExec(`UPDATE documents SET data = jsonb_set\(jsonb_set\(data, ARRAY\[\$3::text\], .*jsonb_array_elements.*IS DISTINCT FROM \$5::jsonb\).*to_char\(now\(\)`).
		WithArgs("jobs", "j1", "events", "id", `"e1"`, "updatedAt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Collection("jobs").Update(context.Background(), "j1", map[string]any{
		"events":    docstore.ArrayRemoveWhere("id", "e1"),
		"updatedAt": docstore.ServerTimestamp,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildPatch(t *testing.T) {
	expr, args, err := buildPatch("data", map[string]any{
		"events": docstore.ArrayUnion(map[string]any{"id": "e1", "completed": false}),
	}, []any{"jobs", "j1"})
	require.NoError(t, err)

	assert.Equal(t, []any{"jobs", "j1", "events", `[{"completed":false,"id":"e1"}]`}, args)
	assert.True(t, strings.HasPrefix(expr, "jsonb_set(data, ARRAY[$3::text], "))
	assert.Contains(t, expr, "jsonb_array_elements($4::jsonb) WITH ORDINALITY")
	assert.Contains(t, expr, "WHERE NOT EXISTS")
	assert.Contains(t, expr, "GROUP BY x.e", "appended elements are deduplicated among themselves")

	expr, args, err = buildPatch("data", map[string]any{
		"events": docstore.ArrayUpdateWhere("id", "e1", map[string]any{"completed": true}),
	}, []any{"jobs", "j1"})
	require.NoError(t, err)
	assert.Equal(t, []any{"jobs", "j1", "events", "id", `"e1"`, `{"completed":true}`}, args)
	assert.Contains(t, expr, "CASE WHEN (a.e->$4::text) = $5::jsonb THEN a.e || $6::jsonb ELSE a.e END")
}

func TestBuildPatch_EncodesTimestamps(t *testing.T) {
	ts := docstore.TimestampOf(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	_, args, err := buildPatch(`'{}'::jsonb`, map[string]any{"dateApplied": ts}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"dateApplied", `{"@ts":"2024-03-01T00:00:00Z"}`}, args)
}

func TestGet(t *testing.T) {
	s, mock, _ := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM documents WHERE collection = $1 AND id = $2`)).
		WithArgs("jobs", "j1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"userId":"u1","dateApplied":{"@ts":"2024-03-01T00:00:00Z"}}`)))

	doc, err := s.Collection("jobs").Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.Data["userId"])
	assert.Equal(t, docstore.TimestampOf(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), doc.Data["dateApplied"])

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM documents`)).
		WithArgs("jobs", "gone").
		WillReturnError(sql.ErrNoRows)
	_, err = s.Collection("jobs").Get(ctx, "gone")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_FilterAndOrder(t *testing.T) {
	s, mock, _ := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, data FROM documents WHERE collection = $1 AND data @> $2::jsonb ORDER BY seq`)).
		WithArgs("jobs", `{"userId":"u1"}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "data"}).
			AddRow("a", []byte(`{"userId":"u1"}`)).
			AddRow("b", []byte(`{"userId":"u1"}`)))

	docs, err := s.Collection("jobs").Query(context.Background(), docstore.Where("userId", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_PublishesOnlyWhenRemoved(t *testing.T) {
	s, mock, broker := newMockStore(t)
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx, notify.Channel("jobs"))
	require.NoError(t, err)
	defer sub.Close()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE collection = $1 AND id = $2`)).
		WithArgs("jobs", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.Collection("jobs").Delete(ctx, "gone"))

	select {
	case <-sub.C():
		t.Fatal("unexpected publish")
	case <-time.After(50 * time.Millisecond):
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
