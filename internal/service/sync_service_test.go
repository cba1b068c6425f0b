package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-mirror/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleFallback(t *testing.T) {
	p := ThrottleFallback{Fallback: 1}
	assert.Equal(t, 1, p.AfterFirstPage(50, 30, true))
	assert.Equal(t, 50, p.AfterFirstPage(50, 30, false))
	assert.Equal(t, 50, p.AfterFirstPage(50, 50, true))
	assert.Equal(t, 50, p.AfterFirstPage(50, 0, false))
	assert.Equal(t, 10, FixedPageSize{}.AfterFirstPage(10, 1, true))
}

func TestNewSyncService_NilPolicyIsFixed(t *testing.T) {
	opts := DefaultSyncOptions()
	opts.PageSize = nil
	svc := NewSyncService(nil, &fakeFetcher{}, nil, nil, opts)
	assert.Equal(t, FixedPageSize{}, svc.opts.PageSize)
}

func TestPageQuery(t *testing.T) {
	assert.Equal(t, map[string]string{"limit": "50"}, pageQuery(50, ""))
	assert.Equal(t, map[string]string{"limit": "1", "page_info": "abc"}, pageQuery(1, "abc"))
}

func TestSync_LockHeldElsewhere(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{}
	locker := &fakeLocker{held: map[string]bool{"sync:orders": true}}
	svc, _ := newTestService(t, st, fetcher, testOptions())
	svc.WithLocker(locker, time.Minute)

	_, err := svc.SyncOrders(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Empty(t, fetcher.calls)
	assert.Empty(t, locker.released)
}

func TestSync_LockReleasedAfterRun(t *testing.T) {
	st := newTestStore(t)
	locker := &fakeLocker{held: map[string]bool{}}

	fetcher := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t, `{"id":1,"title":"A"}`)}},
		{err: &platform.RemoteFetchError{Resource: "products", Status: 404, Err: errors.New("not found")}},
	}}
	svc, _ := newTestService(t, st, fetcher, testOptions())
	svc.WithLocker(locker, time.Minute)

	_, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)

	// A failed run releases too
	_, err = svc.SyncProducts(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"sync:products", "sync:products"}, locker.released)
	assert.Empty(t, locker.held)
}

func TestSync_LockBackendError(t *testing.T) {
	st := newTestStore(t)
	svc, _ := newTestService(t, st, &fakeFetcher{}, testOptions())
	svc.WithLocker(&fakeLocker{err: errors.New("redis down")}, time.Minute)

	_, err := svc.SyncProducts(context.Background())
	assert.ErrorContains(t, err, "redis down")
	assert.NotErrorIs(t, err, ErrSyncInProgress)
}

func TestRetryPolicy_AttemptsFloor(t *testing.T) {
	var calls int
	fetcher := &fakeFetcher{next: func(int, map[string]string) (*platform.Page, error) {
		calls++
		return nil, &platform.RemoteFetchError{Resource: "products", Status: 500, Err: errors.New("boom")}
	}}
	opts := testOptions()
	opts.Retry.MaxAttempts = 0
	svc, _ := newTestService(t, newTestStore(t), fetcher, opts)

	_, err := svc.SyncProducts(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
