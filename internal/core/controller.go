package core

import (
	"context"
	"sync"
	"time"
)

// DefaultSearchDebounce is how long search input must settle before a fetch.
const DefaultSearchDebounce = 300 * time.Millisecond

// QueryController owns an operator's query state and the last page fetched
// for it. Search input is debounced; sort and page changes fetch at once.
// Responses are not fenced: whichever fetch finishes last is kept.
type QueryController struct {
	client   InventoryClient
	debounce time.Duration
	onChange func(Page, error)

	mu    sync.Mutex
	state QueryState
	page  Page
	err   error
	timer *time.Timer
}

// ControllerOption configures a QueryController.
type ControllerOption func(*QueryController)

// WithDebounce sets the search debounce delay.
func WithDebounce(d time.Duration) ControllerOption {
	return func(c *QueryController) { c.debounce = d }
}

// WithOnChange registers a callback invoked after every fetch.
func WithOnChange(fn func(Page, error)) ControllerOption {
	return func(c *QueryController) { c.onChange = fn }
}

// WithInitialState seeds the query state.
func WithInitialState(q QueryState) ControllerOption {
	return func(c *QueryController) { c.state = q }
}

// NewQueryController creates a controller. Nothing is fetched until Refresh.
func NewQueryController(client InventoryClient, opts ...ControllerOption) *QueryController {
	c := &QueryController{
		client:   client,
		debounce: DefaultSearchDebounce,
		state:    QueryState{Page: 1, PageSize: DefaultPageSize},
		page:     Page{Items: []Item{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current query state.
func (c *QueryController) State() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Page returns the last fetched page and the error of the last fetch.
func (c *QueryController) Page() (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Item, len(c.page.Items))
	copy(items, c.page.Items)
	return Page{Items: items, Total: c.page.Total}, c.err
}

// Refresh fetches the current query state and stores the result.
func (c *QueryController) Refresh(ctx context.Context) (Page, error) {
	c.mu.Lock()
	q := c.state
	c.mu.Unlock()

	page, err := c.client.ListInventory(ctx, q)

	c.mu.Lock()
	if err == nil {
		c.page = page
	}
	c.err = err
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(page, err)
	}
	return page, err
}

// Revalidate refetches the current state, for example when the operator
// returns to the view.
func (c *QueryController) Revalidate(ctx context.Context) (Page, error) {
	return c.Refresh(ctx)
}

// SetSearch records new search input, resets paging and schedules a fetch
// after the debounce delay. Input arriving within the delay replaces the
// pending fetch.
func (c *QueryController) SetSearch(ctx context.Context, term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Search = term
	c.state.Page = 1
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.Refresh(ctx)
	})
}

// ToggleSort applies a column-header click and fetches immediately.
func (c *QueryController) ToggleSort(ctx context.Context, field string) (Page, error) {
	c.mu.Lock()
	c.state.ToggleSort(field)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetPage moves to page p and fetches immediately.
func (c *QueryController) SetPage(ctx context.Context, p int) (Page, error) {
	c.mu.Lock()
	c.state.Page = max(p, 1)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Stop cancels any pending debounced fetch.
func (c *QueryController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// ReplaceItem swaps an item on the current page for its updated version.
func (c *QueryController) ReplaceItem(item Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.page.Items {
		if c.page.Items[i].ID == item.ID {
			c.page.Items[i] = item
			return true
		}
	}
	return false
}

// RemoveItem drops an item from the current page and decrements the total.
func (c *QueryController) RemoveItem(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.page.Items {
		if c.page.Items[i].ID == id {
			c.page.Items = append(c.page.Items[:i:i], c.page.Items[i+1:]...)
			c.page.Total = max(c.page.Total-1, 0)
			return true
		}
	}
	return false
}
