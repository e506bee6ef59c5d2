package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeClient is an in-memory InventoryClient with injectable failures.
type fakeClient struct {
	mu        sync.Mutex
	items     []Item
	updateErr error
	deleteErr error
	lists     []QueryState
	listed    chan QueryState
}

func newFakeClient(items ...Item) *fakeClient {
	return &fakeClient{items: items, listed: make(chan QueryState, 16)}
}

func (f *fakeClient) ListInventory(_ context.Context, q QueryState) (Page, error) {
	f.mu.Lock()
	f.lists = append(f.lists, q)
	page := Query(f.items, q)
	f.mu.Unlock()
	f.listed <- q
	return page, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, id int64, p ItemPatch) (Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return Item{}, f.updateErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i] = p.Apply(f.items[i])
			return f.items[i], nil
		}
	}
	return Item{}, ErrNotFound
}

func (f *fakeClient) DeleteItem(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func loadedController(t *testing.T, client *fakeClient) *QueryController {
	t.Helper()
	c := NewQueryController(client)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	<-client.listed
	return c
}

func TestEditManager_SaveSuccess(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "Opt", Quantity: 1, Price: decimal.NewFromInt(1)})
	view := loadedController(t, client)
	m := NewEditManager(client, view)

	page, _ := view.Page()
	if err := m.Start(page.Items[0]); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.SetName("Opt (foil)")
	m.SetQuantity(3)
	m.SetPrice(decimal.RequireFromString("2.25"))

	updated, err := m.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if updated.Name != "Opt (foil)" || updated.Quantity != 3 {
		t.Errorf("updated = %+v", updated)
	}
	if state, _ := m.State(); state != EditViewing {
		t.Errorf("state = %v, want viewing", state)
	}

	page, _ = view.Page()
	if page.Items[0].Name != "Opt (foil)" || !page.Items[0].Price.Equal(decimal.RequireFromString("2.25")) {
		t.Errorf("local page not patched: %+v", page.Items[0])
	}
}

func TestEditManager_SaveFailureKeepsDraft(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "Opt"})
	client.updateErr = ErrTransport
	view := loadedController(t, client)
	m := NewEditManager(client, view)

	m.Start(Item{ID: 1, Name: "Opt"})
	m.SetName("Opt!")

	if _, err := m.Save(context.Background()); !errors.Is(err, ErrTransport) {
		t.Fatalf("Save = %v, want ErrTransport", err)
	}
	if state, id := m.State(); state != EditEditing || id != 1 {
		t.Errorf("state = %v/%d, want editing/1", state, id)
	}
	if got := m.Draft().Name; got != "Opt!" {
		t.Errorf("draft name = %q, want retained", got)
	}
	page, _ := view.Page()
	if page.Items[0].Name != "Opt" {
		t.Errorf("local page changed on failure: %q", page.Items[0].Name)
	}
}

func TestEditManager_StartAbandonsPreviousDraft(t *testing.T) {
	m := NewEditManager(newFakeClient(), nil)
	m.Start(Item{ID: 1, Name: "A"})
	m.SetName("A edited")
	m.Start(Item{ID: 2, Name: "B"})

	if _, id := m.State(); id != 2 {
		t.Errorf("editing id = %d, want 2", id)
	}
	if got := m.Draft().Name; got != "B" {
		t.Errorf("draft = %q, want B", got)
	}
}

func TestEditManager_DraftRequiresEditing(t *testing.T) {
	m := NewEditManager(newFakeClient(), nil)
	if err := m.SetName("x"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("SetName while viewing = %v, want ErrNotEditing", err)
	}
	if _, err := m.Save(context.Background()); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Save while viewing = %v, want ErrNotEditing", err)
	}

	m.Start(Item{ID: 1, Name: "A"})
	m.Cancel()
	if state, _ := m.State(); state != EditViewing {
		t.Errorf("after Cancel state = %v", state)
	}
}

func TestEditManager_BlankNameRejectedLocally(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "Opt"})
	m := NewEditManager(client, nil)
	m.Start(Item{ID: 1, Name: "Opt"})
	m.SetName("   ")

	if _, err := m.Save(context.Background()); !errors.Is(err, ErrInvalidField) {
		t.Errorf("Save = %v, want ErrInvalidField", err)
	}
	if state, _ := m.State(); state != EditEditing {
		t.Errorf("state = %v, want editing", state)
	}
}

func TestEditManager_DeleteFlow(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "A"}, Item{ID: 2, Name: "B"})
	view := loadedController(t, client)
	m := NewEditManager(client, view)

	if err := m.ConfirmDelete(context.Background()); !errors.Is(err, ErrNoPendingDelete) {
		t.Errorf("ConfirmDelete without request = %v", err)
	}

	m.RequestDelete(2)
	if state, id := m.DeleteState(); state != DeleteRequested || id != 2 {
		t.Errorf("after request = %v/%d", state, id)
	}
	page, _ := view.Page()
	if len(page.Items) != 2 {
		t.Fatal("item removed before confirmation")
	}

	if err := m.ConfirmDelete(context.Background()); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	page, _ = view.Page()
	if len(page.Items) != 1 || page.Items[0].ID != 1 || page.Total != 1 {
		t.Errorf("page after delete = %+v", page)
	}
	if state, _ := m.DeleteState(); state != DeleteIdle {
		t.Errorf("state after delete = %v", state)
	}
}

func TestEditManager_CancelDelete(t *testing.T) {
	client := newFakeClient(Item{ID: 1})
	m := NewEditManager(client, nil)

	m.RequestDelete(1)
	m.CancelDelete()
	if state, _ := m.DeleteState(); state != DeleteIdle {
		t.Errorf("state = %v, want idle", state)
	}
	if err := m.ConfirmDelete(context.Background()); !errors.Is(err, ErrNoPendingDelete) {
		t.Errorf("ConfirmDelete after cancel = %v", err)
	}
	if len(client.items) != 1 {
		t.Error("item deleted after cancel")
	}
}

func TestEditManager_DeleteFailureKeepsItem(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "A"})
	view := loadedController(t, client)
	m := NewEditManager(client, view)

	m.RequestDelete(7)
	client.deleteErr = ErrNotFound
	if err := m.ConfirmDelete(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ConfirmDelete = %v, want ErrNotFound", err)
	}
	if state, id := m.DeleteState(); state != DeleteRequested || id != 7 {
		t.Errorf("state = %v/%d, want requested/7", state, id)
	}
	page, _ := view.Page()
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}
}

func TestEditManager_DeletingEditedRowEndsEdit(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "A"})
	m := NewEditManager(client, nil)
	m.Start(Item{ID: 1, Name: "A"})
	m.RequestDelete(1)
	if err := m.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if state, _ := m.State(); state != EditViewing {
		t.Errorf("edit state = %v, want viewing", state)
	}
}

func TestQueryController_DebouncesSearch(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "Opt"}, Item{ID: 2, Name: "Ponder"})
	c := NewQueryController(client, WithDebounce(20*time.Millisecond))
	defer c.Stop()

	ctx := context.Background()
	c.SetSearch(ctx, "p")
	c.SetSearch(ctx, "po")
	c.SetSearch(ctx, "pon")

	select {
	case q := <-client.listed:
		if q.Search != "pon" || q.Page != 1 {
			t.Errorf("fetched %+v, want search pon page 1", q)
		}
	case <-time.After(time.Second):
		t.Fatal("debounced fetch never ran")
	}

	select {
	case q := <-client.listed:
		t.Errorf("unexpected second fetch %+v", q)
	case <-time.After(60 * time.Millisecond):
	}

	page, err := c.Page()
	if err != nil || len(page.Items) != 1 || page.Items[0].ID != 2 {
		t.Errorf("Page = %+v, %v", page, err)
	}
}

func TestQueryController_SortResetsPage(t *testing.T) {
	client := newFakeClient(Item{ID: 1}, Item{ID: 2})
	c := NewQueryController(client)

	if _, err := c.SetPage(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	<-client.listed
	if _, err := c.ToggleSort(context.Background(), "id"); err != nil {
		t.Fatal(err)
	}
	q := <-client.listed
	if q.Page != 1 || q.SortBy != "id" || q.SortDir != SortAsc {
		t.Errorf("fetched %+v", q)
	}
}

func TestQueryController_Revalidate(t *testing.T) {
	client := newFakeClient(Item{ID: 1, Name: "A"})
	c := loadedController(t, client)

	client.mu.Lock()
	client.items = append(client.items, Item{ID: 2, Name: "B"})
	client.mu.Unlock()

	page, err := c.Revalidate(context.Background())
	<-client.listed
	if err != nil || page.Total != 2 {
		t.Errorf("Revalidate = %+v, %v", page, err)
	}
}
