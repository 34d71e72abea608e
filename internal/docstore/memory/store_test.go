package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"job-tracker/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return New(nil, WithClock(func() time.Time { return fixed }))
}

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	jobs := newTestStore().Collection("jobs")

	id, err := jobs.Create(ctx, map[string]any{
		"userId":    "u1",
		"events":    []any{},
		"createdAt": docstore.ServerTimestamp,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.Data["userId"])
	assert.Equal(t, docstore.TimestampOf(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)), doc.Data["createdAt"])

	doc.Data["userId"] = "mutated"
	again, err := jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", again.Data["userId"], "returned data is a copy")

	require.NoError(t, jobs.Update(ctx, id, map[string]any{"status": "offered"}))
	doc, err = jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "offered", doc.Data["status"])
	assert.Equal(t, "u1", doc.Data["userId"])

	require.NoError(t, jobs.Delete(ctx, id))
	_, err = jobs.Get(ctx, id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.NoError(t, jobs.Delete(ctx, id), "deleting a missing document succeeds")
}

func TestUpdateMissing(t *testing.T) {
	jobs := newTestStore().Collection("jobs")
	err := jobs.Update(context.Background(), "missing", map[string]any{"status": "applied"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestQueryFiltersAndKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	jobs := newTestStore().Collection("jobs")

	var want []string
	for i := 0; i < 20; i++ {
		user := "u1"
		if i%3 == 0 {
			user = "u2"
		}
		id, err := jobs.Create(ctx, map[string]any{"userId": user, "n": i})
		require.NoError(t, err)
		if user == "u1" {
			want = append(want, id)
		}
	}

	docs, err := jobs.Query(ctx, docstore.Where("userId", "u1"))
	require.NoError(t, err)
	got := make([]string, 0, len(docs))
	for _, d := range docs {
		got = append(got, d.ID)
	}
	assert.Equal(t, want, got)
}

func TestConcurrentArrayUnionKeepsEveryElement(t *testing.T) {
	ctx := context.Background()
	jobs := newTestStore().Collection("jobs")
	id, err := jobs.Create(ctx, map[string]any{"events": []any{}})
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := map[string]any{"id": fmt.Sprintf("e%d", i)}
			assert.NoError(t, jobs.Update(ctx, id, map[string]any{"events": docstore.ArrayUnion(ev)}))
		}(i)
	}
	wg.Wait()

	doc, err := jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, doc.Data["events"], writers)
}

func TestConcurrentRemoveAndAppendDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	jobs := newTestStore().Collection("jobs")

	initial := make([]any, 0, 20)
	for i := 0; i < 20; i++ {
		initial = append(initial, map[string]any{"id": fmt.Sprintf("old%d", i)})
	}
	id, err := jobs.Create(ctx, map[string]any{"events": initial})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, jobs.Update(ctx, id, map[string]any{"events": docstore.ArrayRemoveWhere("id", fmt.Sprintf("old%d", i))}))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, jobs.Update(ctx, id, map[string]any{"events": docstore.ArrayUnion(map[string]any{"id": fmt.Sprintf("new%d", i)})}))
		}(i)
	}
	wg.Wait()

	doc, err := jobs.Get(ctx, id)
	require.NoError(t, err)
	list := doc.Data["events"].([]any)
	require.Len(t, list, 20)
	for _, e := range list {
		assert.Contains(t, e.(map[string]any)["id"], "new")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	jobs := newTestStore().Collection("jobs")

	_, err := jobs.Create(ctx, map[string]any{"userId": "u1"})
	require.NoError(t, err)
	_, err = jobs.Create(ctx, map[string]any{"userId": "u2"})
	require.NoError(t, err)

	snaps := make(chan []docstore.Document, 16)
	cancel, err := jobs.Subscribe(ctx, docstore.Where("userId", "u1"), func(d []docstore.Document) { snaps <- d }, nil)
	require.NoError(t, err)
	defer cancel()

	first := <-snaps
	require.Len(t, first, 1)

	_, err = jobs.Create(ctx, map[string]any{"userId": "u1"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		for {
			select {
			case s := <-snaps:
				if len(s) == 2 {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := newTestStore().Collection("jobs")

	_, err := jobs.Create(ctx, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = jobs.Query(ctx, docstore.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}
