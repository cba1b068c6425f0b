package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/platform"
	"catalog-mirror/internal/store"

	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	resource string
	query    map[string]string
}

type fetchResponse struct {
	page *platform.Page
	err  error
}

// fakeFetcher replays scripted responses in order. Once the script is
// exhausted it keeps answering with next, when set.
type fakeFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	next      func(call int, query map[string]string) (*platform.Page, error)
	calls     []fetchCall
}

func (f *fakeFetcher) FetchPage(_ context.Context, resource string, query map[string]string) (*platform.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := make(map[string]string, len(query))
	for k, v := range query {
		copied[k] = v
	}
	f.calls = append(f.calls, fetchCall{resource: resource, query: copied})

	n := len(f.calls) - 1
	if n < len(f.responses) {
		return f.responses[n].page, f.responses[n].err
	}
	if f.next != nil {
		return f.next(n, copied)
	}
	return nil, fmt.Errorf("unexpected fetch #%d", n+1)
}

func (f *fakeFetcher) limits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.query[paramLimit])
	}
	return out
}

type fakePublisher struct {
	events []*models.SyncCompletedEvent
	err    error
}

func (p *fakePublisher) PublishSyncCompleted(_ context.Context, event *models.SyncCompletedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type fakeCache struct {
	data        map[string][]byte
	gets        int
	sets        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) GetExport(_ context.Context, resource string) ([]byte, bool, error) {
	c.gets++
	data, ok := c.data[resource]
	return data, ok, nil
}

func (c *fakeCache) SetExport(_ context.Context, resource string, data []byte) error {
	c.sets++
	c.data[resource] = data
	return nil
}

func (c *fakeCache) InvalidateExports(context.Context) error {
	c.invalidated++
	c.data = map[string][]byte{}
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testOptions() SyncOptions {
	opts := DefaultSyncOptions()
	opts.Retry = RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	return opts
}

// newTestService wires a service with sequential ids and a sleep that only
// records the requested delays.
func newTestService(t *testing.T, st *store.Store, fetcher PageFetcher, opts SyncOptions) (*SyncService, *[]time.Duration) {
	t.Helper()
	svc := NewSyncService(st, fetcher, nil, nil, opts)

	var seq int
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	var delays []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return svc, &delays
}

func rawRecords(t *testing.T, records ...any) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		if s, ok := r.(string); ok {
			out = append(out, json.RawMessage(s))
			continue
		}
		b, err := json.Marshal(r)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func ordersPage(first, count int, next string) *platform.Page {
	records := make([]json.RawMessage, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, json.RawMessage(fmt.Sprintf(`{"id":%d,"line_items":[]}`, first+i)))
	}
	return &platform.Page{Records: records, NextCursor: next}
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released []string
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key string) error {
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}
