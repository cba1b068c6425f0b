package service

import (
	"context"
	"testing"
	"time"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncProducts_Paginates(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t, `{"id":1,"title":"Shirt"}`, `{"id":2,"title":"Hat"}`), NextCursor: "c2"}},
		{page: &platform.Page{Records: rawRecords(t, `{"id":"3","title":"Scarf"}`)}},
	}}
	svc, delays := newTestService(t, st, fetcher, testOptions())

	result, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, models.ResourceProducts, result.Resource)
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, *delays)

	require.Len(t, fetcher.calls, 2)
	assert.Equal(t, map[string]string{"limit": "50"}, fetcher.calls[0].query)
	assert.Equal(t, map[string]string{"limit": "50", "page_info": "c2"}, fetcher.calls[1].query)

	products, err := st.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Product{
		{ID: "id-002", PlatformID: "2", Name: "Hat"},
		{ID: "id-003", PlatformID: "3", Name: "Scarf"},
		{ID: "id-001", PlatformID: "1", Name: "Shirt"},
	}, products)
}

func TestSyncProducts_ResyncUpdatesNameKeepsID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t, `{"id":123123,"title":"Product"}`)}},
	}}
	svc, _ := newTestService(t, st, first, testOptions())
	_, err := svc.SyncProducts(ctx)
	require.NoError(t, err)

	second := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t, `{"id":123123,"title":"Renamed"}`)}},
	}}
	svc.fetcher = second
	result, err := svc.SyncProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "id-001", products[0].ID)
	assert.Equal(t, "Renamed", products[0].Name)
}

func TestSyncProducts_MissingTitleStoresEmptyName(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t, `{"id":7}`)}},
	}}
	svc, _ := newTestService(t, st, fetcher, testOptions())

	_, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)

	products, err := st.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "", products[0].Name)
}

func TestSyncProducts_SkipsMalformedRecords(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t,
			`{"id":1,"title":"Ok"}`,
			`{"title":"No id"}`,
			`{"id":{"nested":true}}`,
		)}},
	}}
	svc, _ := newTestService(t, st, fetcher, testOptions())

	result, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 3, result.Fetched)
}

func TestSyncProducts_EmptyFirstPage(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t)}},
	}}
	svc, delays := newTestService(t, st, fetcher, testOptions())

	result, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Equal(t, 1, result.Pages)
	assert.Empty(t, *delays)
}

func TestSyncProducts_PublishesAndInvalidates(t *testing.T) {
	st := newTestStore(t)
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{page: &platform.Page{Records: rawRecords(t, `{"id":1,"title":"A"}`)}},
	}}
	publisher := &fakePublisher{err: assert.AnError}
	cache := newFakeCache()
	cache.data[models.ResourceProducts] = []byte("stale")

	svc, _ := newTestService(t, st, fetcher, testOptions())
	svc.publisher = publisher
	svc.cache = cache

	// A failing publisher must not fail the run
	result, err := svc.SyncProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	assert.Equal(t, 1, cache.invalidated)
	assert.Empty(t, cache.data)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, models.EventTypeProductsSynced, event.EventType)
	assert.Equal(t, models.ResourceProducts, event.Resource)
	assert.Equal(t, 1, event.Processed)
	assert.NotEmpty(t, event.EventID)
}
