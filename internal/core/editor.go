package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// EditState is the inline edit lifecycle of the manager.
type EditState int

const (
	EditViewing EditState = iota
	EditEditing
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditEditing:
		return "editing"
	case EditSaving:
		return "saving"
	default:
		return "viewing"
	}
}

// DeleteState is the two-step delete lifecycle.
type DeleteState int

const (
	DeleteIdle DeleteState = iota
	DeleteRequested
	DeleteConfirmed
)

func (s DeleteState) String() string {
	switch s {
	case DeleteRequested:
		return "requested"
	case DeleteConfirmed:
		return "confirmed"
	default:
		return "idle"
	}
}

var (
	// ErrNotEditing is returned when a draft operation runs with no row in edit.
	ErrNotEditing = errors.New("no item is being edited")

	// ErrSaveInProgress is returned while a save is awaiting its response.
	ErrSaveInProgress = errors.New("save in progress")

	// ErrNoPendingDelete is returned by ConfirmDelete without a RequestDelete.
	ErrNoPendingDelete = errors.New("no delete requested")
)

// Draft holds the editable values of the row being edited.
type Draft struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// LocalView is the operator's currently displayed page. EditManager patches
// it after successful saves and deletes instead of refetching.
type LocalView interface {
	ReplaceItem(item Item) bool
	RemoveItem(id int64) bool
}

// EditManager tracks one operator's inline edit and pending delete. At most
// one row is edited at a time; starting another abandons the unsaved draft.
type EditManager struct {
	client InventoryClient
	view   LocalView

	mu          sync.Mutex
	state       EditState
	editingID   int64
	draft       Draft
	deleteState DeleteState
	deleteID    int64
}

// NewEditManager creates a manager. view may be nil when nothing is displayed.
func NewEditManager(client InventoryClient, view LocalView) *EditManager {
	return &EditManager{client: client, view: view}
}

// State returns the edit state and the id of the row in edit.
func (m *EditManager) State() (EditState, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.editingID
}

// Draft returns a copy of the current draft.
func (m *EditManager) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Start opens item for editing with a draft seeded from its current values.
func (m *EditManager) Start(item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == EditSaving {
		return ErrSaveInProgress
	}
	m.state = EditEditing
	m.editingID = item.ID
	m.draft = Draft{Name: item.Name, Quantity: item.Quantity, Price: item.Price}
	return nil
}

func (m *EditManager) updateDraft(fn func(*Draft)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case EditEditing:
		fn(&m.draft)
		return nil
	case EditSaving:
		return ErrSaveInProgress
	default:
		return ErrNotEditing
	}
}

// SetName changes the draft name.
func (m *EditManager) SetName(name string) error {
	return m.updateDraft(func(d *Draft) { d.Name = name })
}

// SetQuantity changes the draft quantity.
func (m *EditManager) SetQuantity(qty int) error {
	return m.updateDraft(func(d *Draft) { d.Quantity = qty })
}

// SetPrice changes the draft price.
func (m *EditManager) SetPrice(price decimal.Decimal) error {
	return m.updateDraft(func(d *Draft) { d.Price = price })
}

// Save submits the draft. On success the displayed page is patched with the
// item returned by the server and the manager returns to viewing. On
// failure the draft is kept, the manager returns to editing and the error is
// returned for display.
func (m *EditManager) Save(ctx context.Context) (Item, error) {
	m.mu.Lock()
	switch m.state {
	case EditSaving:
		m.mu.Unlock()
		return Item{}, ErrSaveInProgress
	case EditViewing:
		m.mu.Unlock()
		return Item{}, ErrNotEditing
	}
	if strings.TrimSpace(m.draft.Name) == "" {
		m.mu.Unlock()
		return Item{}, fmt.Errorf("%w: name must not be blank", ErrInvalidField)
	}
	m.state = EditSaving
	id := m.editingID
	draft := m.draft
	m.mu.Unlock()

	patch := ItemPatch{Name: &draft.Name, Quantity: &draft.Quantity, Price: &draft.Price}
	updated, err := m.client.UpdateItem(ctx, id, patch)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if m.state == EditSaving && m.editingID == id {
			m.state = EditEditing
		}
		return Item{}, err
	}

	if m.view != nil {
		m.view.ReplaceItem(updated)
	}
	if m.editingID == id {
		m.state = EditViewing
		m.editingID = 0
		m.draft = Draft{}
	}
	return updated, nil
}

// Cancel abandons the draft.
func (m *EditManager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == EditSaving {
		return
	}
	m.state = EditViewing
	m.editingID = 0
	m.draft = Draft{}
}

// DeleteState returns the delete lifecycle state and the targeted id.
func (m *EditManager) DeleteState() (DeleteState, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteState, m.deleteID
}

// RequestDelete marks id for deletion. Nothing is removed until ConfirmDelete.
func (m *EditManager) RequestDelete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteState == DeleteConfirmed {
		return
	}
	m.deleteState = DeleteRequested
	m.deleteID = id
}

// CancelDelete drops a pending delete request.
func (m *EditManager) CancelDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteState == DeleteRequested {
		m.deleteState = DeleteIdle
		m.deleteID = 0
	}
}

// ConfirmDelete deletes the requested item. On success it is removed from
// the displayed page. On failure the request stays pending so the operator
// can retry or cancel.
func (m *EditManager) ConfirmDelete(ctx context.Context) error {
	m.mu.Lock()
	if m.deleteState != DeleteRequested {
		m.mu.Unlock()
		return ErrNoPendingDelete
	}
	m.deleteState = DeleteConfirmed
	id := m.deleteID
	m.mu.Unlock()

	err := m.client.DeleteItem(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.deleteState = DeleteRequested
		return err
	}

	if m.view != nil {
		m.view.RemoveItem(id)
	}
	m.deleteState = DeleteIdle
	m.deleteID = 0
	if m.editingID == id && m.state != EditSaving {
		m.state = EditViewing
		m.editingID = 0
		m.draft = Draft{}
	}
	return nil
}
