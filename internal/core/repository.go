package core

import "context"

// Repository is the persistence collaborator. Implementations live under
// internal/store and must return ErrNotFound for unknown ids.
type Repository interface {
	// List applies the query rules of NormalizeQuery and returns one page.
	List(ctx context.Context, q QueryState) (Page, error)

	Get(ctx context.Context, id int64) (Item, error)

	// Update applies a partial update and returns the stored item.
	Update(ctx context.Context, id int64, patch ItemPatch) (Item, error)

	Delete(ctx context.Context, id int64) error

	// Clear removes every item and returns how many were removed.
	Clear(ctx context.Context) (int64, error)

	// InsertBatch inserts items atomically: all of them or none.
	InsertBatch(ctx context.Context, items []NewItem) (int, error)
}

// InventoryClient is the operator-side view of the inventory used by
// EditManager and QueryController. Service implements it in-process and
// the HTTP client implements it over the wire.
type InventoryClient interface {
	ListInventory(ctx context.Context, q QueryState) (Page, error)
	UpdateItem(ctx context.Context, id int64, patch ItemPatch) (Item, error)
	DeleteItem(ctx context.Context, id int64) error
}
