package docstore

import (
	"context"
	"sync"

	"job-tracker/internal/docstore/notify"
)

// QueryFunc reads the current matching set.
type QueryFunc func(ctx context.Context, f Filter) ([]Document, error)

// Watch implements Collection.Subscribe for backends that can Query and
// publish change signals on channel.
//
// The broker subscription is opened before the first read so a write that
// lands between the two is never lost. Each signal triggers one re-read;
// signals that arrive while a snapshot is being delivered collapse into a
// single follow-up read. Snapshots are delivered one at a time from a
// single goroutine, so later deliveries never reflect older state.
func Watch(
	ctx context.Context,
	broker notify.Broker,
	channel string,
	query QueryFunc,
	f Filter,
	onSnapshot SnapshotFunc,
	onError func(error),
) (func(), error) {
	sub, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}

	initial, err := query(ctx, f)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	runCtx, cancelRun := context.WithCancel(context.WithoutCancel(ctx))
	go func() {
		deliver := func(docs []Document) {
			if runCtx.Err() == nil {
				onSnapshot(docs)
			}
		}

		deliver(initial)
		for {
			select {
			case <-runCtx.Done():
				return
			case _, ok := <-sub.C():
				if !ok {
					return
				}
				docs, err := query(runCtx, f)
				if err != nil {
					if runCtx.Err() == nil && onError != nil {
						onError(err)
					}
					continue
				}
				deliver(docs)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelRun()
			_ = sub.Close()
		})
	}, nil
}
