package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/db"
	"taproom-services/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a disposable database: TEST_DATABASE_URL=postgres://...
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, "truncate menus, fallbackmenus, categories, events, messages, job_applications")
	require.NoError(t, err)
	return pool
}

func menuNamed(name string) catalog.MenuStructure {
	return catalog.MenuStructure{Sections: []catalog.MenuSection{
		{Name: "Wine", Items: []catalog.ProcessedItem{}},
		{Name: name, Items: []catalog.ProcessedItem{{ID: "1", Name: name, CategoryIDs: []string{}, LocationIDs: []string{}, InStock: true}}},
	}}
}

func countLatest(t *testing.T, pool *pgxpool.Pool, table string) (total, latest int) {
	t.Helper()
	err := pool.QueryRow(context.Background(),
		"select count(*), count(*) filter (where is_latest) from "+table).Scan(&total, &latest)
	require.NoError(t, err)
	return total, latest
}

func TestMenuStorePublishRetention(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	menus := NewMenuStore(pool, store.MenusCollection, store.MenuRetention)

	for i, name := range []string{"Draft", "Cans", "Specials"} {
		record, err := menus.Publish(ctx, menuNamed(name))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), record.Version)
		assert.True(t, record.IsLatest)

		total, latest := countLatest(t, pool, store.MenusCollection)
		assert.Equal(t, 1, latest)
		assert.LessOrEqual(t, total, store.MenuRetention)
	}

	record, err := menus.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Wine", "Specials"}, record.Menu.Keys())
	assert.Equal(t, int64(3), record.Version)
}

func TestFallbackStoreKeepsOneRecord(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	fallback := NewMenuStore(pool, store.FallbackMenusCollection, store.FallbackRetention)

	for _, name := range []string{"Draft", "Cans"} {
		_, err := fallback.Publish(ctx, menuNamed(name))
		require.NoError(t, err)
	}
	total, latest := countLatest(t, pool, store.FallbackMenusCollection)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, latest)
}

func TestMenuStoreLatestPromotesNewest(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	menus := NewMenuStore(pool, store.MenusCollection, store.MenuRetention)

	_, err := menus.Latest(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = menus.Publish(ctx, menuNamed("Draft"))
	require.NoError(t, err)
	_, err = menus.Publish(ctx, menuNamed("Cans"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "update menus set is_latest = false")
	require.NoError(t, err)

	record, err := menus.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, record.IsLatest)
	assert.Equal(t, []string{"Wine", "Cans"}, record.Menu.Keys())

	_, latest := countLatest(t, pool, store.MenusCollection)
	assert.Equal(t, 1, latest)
}

func TestCategoryStoreRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	categories := &CategoryStore{pool: pool}

	_, err := categories.Get(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	nested := "Canned / Bottled"
	want := catalog.ExpectedCategories{
		ParentCategories: []string{"Draft", nested},
		ChildCategories:  []string{"IPA"},
		ParentName:       &nested,
	}
	require.NoError(t, categories.Put(ctx, want))
	got, err := categories.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEventStoreListFilters(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	events := &EventStore{pool: pool}
	now := time.Now().UTC().Truncate(time.Second)

	past, err := events.Create(ctx, store.Event{Title: "Past", StartsAt: now.Add(-48 * time.Hour), Published: true})
	require.NoError(t, err)
	_, err = events.Create(ctx, store.Event{Title: "Draft", StartsAt: now.Add(24 * time.Hour)})
	require.NoError(t, err)
	upcoming, err := events.Create(ctx, store.Event{Title: "Trivia", StartsAt: now.Add(48 * time.Hour), Published: true})
	require.NoError(t, err)

	list, err := events.List(ctx, store.EventFilter{From: &now})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, upcoming.ID, list[0].ID)

	all, err := events.List(ctx, store.EventFilter{IncludeDrafts: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, past.ID, all[0].ID)

	require.NoError(t, events.Delete(ctx, past.ID))
	_, err = events.Get(ctx, past.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, events.Delete(ctx, "not-a-uuid"), store.ErrNotFound)
}

func TestMessageStoreMarkRead(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	messages := &MessageStore{pool: pool}

	msg, err := messages.Create(ctx, store.Message{Name: "Ada", Email: "ada@example.com", Body: "Do you host parties?"})
	require.NoError(t, err)
	assert.False(t, msg.Read)

	unread, err := messages.List(ctx, store.MessageFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)

	read, err := messages.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	unread, err = messages.List(ctx, store.MessageFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)
}
