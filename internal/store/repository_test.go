package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/store"
	"github.com/JonMunkholm/cardinventory/internal/store/memory"
)

func strPtr(s string) *string { return &s }

func seedItems() []core.NewItem {
	item := func(name string, qty int, price, set, code string) core.NewItem {
		n := core.NewItem{
			Name:     name,
			Quantity: qty,
			Price:    decimal.RequireFromString(price),
			Raw:      json.RawMessage(fmt.Sprintf(`{"Card Name":%q}`, name)),
		}
		if set != "" {
			n.Set = strPtr(set)
		}
		if code != "" {
			n.SetCode = strPtr(code)
		}
		return n
	}
	return []core.NewItem{
		item("Lightning Bolt", 4, "1.25", "Alpha", "LEA"),
		item("lightning helix", 2, "0.75", "Ravnica", "RAV"),
		item("Counterspell", 10, "1.25", "", ""),
		item("Black Lotus", 1, "25000", "Alpha", "LEA"),
		item("Ancestral Recall", 0, "9000.5", "beta", "LEB"),
		item("Brainstorm", 12, "0.10", "Ice Age", "ICE"),
		item("100% Pure", 3, "2", "", "TST"),
		item("under_score", 5, "3.30", "Test", ""),
		item("Zombie", 7, "0.05", "alpha", "lea"),
		item("Ball Lightning", 1, "1.99", "Ravnica", "RAV"),
		item("Lotus Petal", 8, "0.49", "Tempest", "TMP"),
	}
}

func ids(items []core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

var parityQueries = func() []core.QueryState {
	qs := []core.QueryState{
		{},
		{Search: "light"},
		{Search: "LIGHT", SortBy: "name"},
		{Search: "1"},
		{Search: "%"},
		{Search: "_"},
		{Search: "zzz"},
		{Page: 2, PageSize: 4},
		{Page: 9, PageSize: 4},
		{Page: 368934881474191034, PageSize: 25},
		{SortBy: "bogus", SortDir: core.SortDesc},
	}
	for _, f := range core.SortableFields() {
		qs = append(qs,
			core.QueryState{SortBy: f, SortDir: core.SortAsc, PageSize: 5},
			core.QueryState{SortBy: f, SortDir: core.SortDesc, Page: 2, PageSize: 5},
		)
	}
	return qs
}()

// runRepositorySuite checks a repository against the in-memory reference.
func runRepositorySuite(t *testing.T, repo core.Repository) {
	ctx := context.Background()

	n, err := repo.InsertBatch(ctx, seedItems())
	require.NoError(t, err)
	require.Equal(t, len(seedItems()), n)

	ref := memory.New()
	_, err = ref.InsertBatch(ctx, seedItems())
	require.NoError(t, err)

	t.Run("ListMatchesReference", func(t *testing.T) {
		for _, q := range parityQueries {
			name := fmt.Sprintf("q=%q sort=%s/%s page=%d/%d", q.Search, q.SortBy, q.SortDir, q.Page, q.PageSize)
			t.Run(name, func(t *testing.T) {
				want, err := ref.List(ctx, q)
				require.NoError(t, err)
				got, err := repo.List(ctx, q)
				require.NoError(t, err)

				assert.Equal(t, want.Total, got.Total)
				assert.Equal(t, ids(want.Items), ids(got.Items))
				assert.NotNil(t, got.Items)
			})
		}
	})

	t.Run("PageFarPastEnd", func(t *testing.T) {
		got, err := repo.List(ctx, core.QueryState{Page: 368934881474191034, PageSize: 25})
		require.NoError(t, err)
		assert.Empty(t, got.Items)
		assert.NotZero(t, got.Total)
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		got, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Lightning Bolt", got.Name)
		assert.Equal(t, 4, got.Quantity)
		assert.True(t, decimal.RequireFromString("1.25").Equal(got.Price), "price %s", got.Price)
		require.NotNil(t, got.SetCode)
		assert.Equal(t, "LEA", *got.SetCode)
		assert.Nil(t, got.Rarity)
		assert.JSONEq(t, `{"Card Name":"Lightning Bolt"}`, string(got.Raw))
		assert.False(t, got.CreatedAt.IsZero())

		_, err = repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		qty := 9
		got, err := repo.Update(ctx, 2, core.ItemPatch{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, 9, got.Quantity)
		assert.Equal(t, "lightning helix", got.Name)
		assert.True(t, decimal.RequireFromString("0.75").Equal(got.Price))

		price := decimal.RequireFromString("12.34")
		got, err = repo.Update(ctx, 2, core.ItemPatch{Name: strPtr("Lightning Helix"), Price: &price})
		require.NoError(t, err)
		assert.Equal(t, "Lightning Helix", got.Name)
		assert.Equal(t, 9, got.Quantity)
		assert.True(t, price.Equal(got.Price), "price %s", got.Price)

		again, err := repo.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, got.Name, again.Name)

		_, err = repo.Update(ctx, 9999, core.ItemPatch{Quantity: &qty})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, 3))
		assert.ErrorIs(t, repo.Delete(ctx, 3), core.ErrNotFound)

		_, err := repo.Get(ctx, 3)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("ClearKeepsIDsMonotonic", func(t *testing.T) {
		removed, err := repo.Clear(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(len(seedItems())-1), removed)

		page, err := repo.List(ctx, core.QueryState{})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
		assert.Empty(t, page.Items)

		_, err = repo.InsertBatch(ctx, seedItems()[:1])
		require.NoError(t, err)
		page, err = repo.List(ctx, core.QueryState{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Greater(t, page.Items[0].ID, int64(len(seedItems())))
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		n, err := repo.InsertBatch(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositorySuite(t, memory.New())
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite::memory:", store.Options{AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runRepositorySuite(t, s)
}

func TestSQLiteRepository_MigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, store.Migrate(ctx, s.DB(), store.DialectSQLite))
	require.NoError(t, store.Migrate(ctx, s.DB(), store.DialectSQLite))

	page, err := s.List(ctx, core.QueryState{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestSQLiteRepository_InsertBatchLargerThanChunk(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite::memory:", store.Options{AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	items := make([]core.NewItem, 1203)
	for i := range items {
		items[i] = core.NewItem{Name: fmt.Sprintf("card %04d", i), Quantity: 1, Price: decimal.NewFromInt(1)}
	}
	n, err := s.InsertBatch(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, len(items), n)

	page, err := s.List(ctx, core.QueryState{SortBy: "name", SortDir: core.SortDesc, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, len(items), page.Total)
	assert.Equal(t, "card 1202", page.Items[0].Name)
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := store.Open(context.Background(), "mongodb://localhost", store.Options{})
	assert.ErrorIs(t, err, store.ErrUnsupportedURL)
}
