package core

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func stageRows(t *testing.T, n int) (*SessionStore, *Session) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Qty,Card Name,Price\n")
	for i := 0; i < n; i++ {
		b.WriteString("1,Card,0.25\n")
	}
	table, err := ParseCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	store := NewSessionStore(4, time.Hour)
	return store, store.Create("cards.csv", table, DefaultSynonyms())
}

func TestSession_UpdateCell(t *testing.T) {
	_, s := stageRows(t, 2)

	row, err := s.UpdateCell(1, FieldCardName, "Brainstorm")
	if err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}
	if got, _ := row.Get(FieldCardName); got != "Brainstorm" {
		t.Errorf("returned row name = %q", got)
	}
	if got, _ := s.Rows()[1].Get(FieldCardName); got != "Brainstorm" {
		t.Errorf("stored row name = %q", got)
	}
	if got, _ := s.Rows()[0].Get(FieldCardName); got != "Card" {
		t.Errorf("other row changed: %q", got)
	}
}

func TestSession_UpdateCellErrors(t *testing.T) {
	_, s := stageRows(t, 1)

	if _, err := s.UpdateCell(5, FieldCardName, "x"); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("out of range: %v, want ErrRowOutOfRange", err)
	}
	if _, err := s.UpdateCell(-1, FieldCardName, "x"); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("negative index: %v, want ErrRowOutOfRange", err)
	}
	if _, err := s.UpdateCell(0, Field("Photo"), "x"); !errors.Is(err, ErrInvalidField) {
		t.Errorf("unknown field: %v, want ErrInvalidField", err)
	}
}

func TestSession_AdjustQuantity(t *testing.T) {
	_, s := stageRows(t, 1)

	tests := []struct {
		delta int
		want  string
	}{
		{+1, "2"},
		{+1, "3"},
		{-5, "-2"},
	}
	for _, tt := range tests {
		row, err := s.AdjustQuantity(0, tt.delta)
		if err != nil {
			t.Fatalf("AdjustQuantity(%d): %v", tt.delta, err)
		}
		if got, _ := row.Get(FieldQuantity); got != tt.want {
			t.Errorf("after %+d quantity = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestSession_RowsAreCopies(t *testing.T) {
	_, s := stageRows(t, 1)
	rows := s.Rows()
	rows[0].Set(FieldCardName, "changed")
	rows[0].Raw["Card Name"] = "changed"

	got := s.Rows()[0]
	if name, _ := got.Get(FieldCardName); name != "Card" {
		t.Errorf("canonical value leaked: %q", name)
	}
	if got.Raw["Card Name"] != "Card" {
		t.Errorf("raw value leaked: %q", got.Raw["Card Name"])
	}
}

func TestSession_DisplayCap(t *testing.T) {
	_, s := stageRows(t, 250)

	shown, truncated := s.Display(DefaultPreviewRowLimit)
	if len(shown) != 200 || !truncated {
		t.Errorf("Display(200) = %d rows, truncated=%v; want 200, true", len(shown), truncated)
	}
	if s.Len() != 250 || len(s.Rows()) != 250 {
		t.Errorf("Len = %d, Rows = %d; want 250", s.Len(), len(s.Rows()))
	}

	sum := s.Summary(DefaultPreviewRowLimit)
	if sum.TotalRows != 250 || len(sum.Rows) != 200 || !sum.Truncated {
		t.Errorf("Summary = total %d, rows %d, truncated %v", sum.TotalRows, len(sum.Rows), sum.Truncated)
	}
}

func TestSession_SummaryReportsDefaults(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Qty,Name\nabc,Opt\n2,Ponder\n"))
	if err != nil {
		t.Fatal(err)
	}
	s := NewSessionStore(1, time.Hour).Create("x.csv", table, DefaultSynonyms())

	sum := s.Summary(0)
	if sum.Defaulted != 2 {
		t.Errorf("Defaulted = %d, want 2 (no price column)", sum.Defaulted)
	}
	if !sum.Rows[0].Report.QuantityDefaulted || sum.Rows[1].Report.QuantityDefaulted {
		t.Errorf("quantity reports = %+v, %+v", sum.Rows[0].Report, sum.Rows[1].Report)
	}
	if len(sum.Unmatched) == 0 {
		t.Error("Unmatched should list the missing price columns")
	}
}

func TestSession_ConcurrentEdits(t *testing.T) {
	_, s := stageRows(t, 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AdjustQuantity(0, 1); err != nil {
				t.Errorf("AdjustQuantity: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, _ := s.Rows()[0].Get(FieldQuantity); got != "51" {
		t.Errorf("quantity = %q, want 51", got)
	}
}

func TestSessionStore_GetDiscard(t *testing.T) {
	store, s := stageRows(t, 1)

	got, err := store.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	store.Discard(s.ID)
	if _, err := store.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Discard = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_Replace(t *testing.T) {
	store, s := stageRows(t, 3)
	if _, err := s.UpdateCell(0, FieldCardName, "Edited"); err != nil {
		t.Fatal(err)
	}

	table, err := ParseCSV(strings.NewReader("Card Name,Set Code,Quantity\nOpt,XLN,4\n"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Replace(s.ID, "fixed.csv", table, DefaultSynonyms())
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got != s {
		t.Fatal("Replace returned a different session")
	}
	if s.Len() != 1 || s.FileName() != "fixed.csv" {
		t.Errorf("Len = %d, FileName = %q", s.Len(), s.FileName())
	}
	row := s.Rows()[0]
	if v, _ := row.Get(FieldCardName); v != "Opt" {
		t.Errorf("name = %q, want Opt", v)
	}
	if v, _ := row.Get(FieldSetCode); v != "XLN" {
		t.Errorf("set code = %q, want XLN", v)
	}
	for _, f := range s.Headers().Unmatched() {
		if f == FieldSetCode {
			t.Error("Set Code should be matched after replace")
		}
	}

	if _, err := store.Replace("missing", "x.csv", table, DefaultSynonyms()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Replace unknown = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	table, _ := ParseCSV(strings.NewReader("Qty\n1\n"))
	store := NewSessionStore(4, 20*time.Millisecond)
	s := store.Create("x.csv", table, DefaultSynonyms())

	time.Sleep(60 * time.Millisecond)
	if _, err := store.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after TTL = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_IndependentSessions(t *testing.T) {
	table, _ := ParseCSV(strings.NewReader("Qty\n1\n"))
	store := NewSessionStore(4, time.Hour)
	a := store.Create("a.csv", table, DefaultSynonyms())
	b := store.Create("b.csv", table, DefaultSynonyms())

	if _, err := a.UpdateCell(0, FieldQuantity, "9"); err != nil {
		t.Fatal(err)
	}
	if got, _ := b.Rows()[0].Get(FieldQuantity); got != "1" {
		t.Errorf("session b saw session a's edit: %q", got)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
}
