package grid

import (
	"errors"
	"testing"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(15, Pricing{Edge: DefaultEdgePrice, Interior: DefaultInteriorPrice})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l
}

func TestPriceOfEdgeNeverBelowInterior(t *testing.T) {
	l := newTestLedger(t)
	for r := 0; r < l.Size(); r++ {
		for c := 0; c < l.Size(); c++ {
			want := DefaultInteriorPrice
			if r == 0 || c == 0 || r == 14 || c == 14 {
				want = DefaultEdgePrice
			}
			if got := l.PriceOf(c, r); got != want {
				t.Fatalf("PriceOf(%d,%d) = %d, want %d", c, r, got, want)
			}
			if l.IsEdge(c, r) && l.PriceOf(c, r) < l.PriceOf(7, 7) {
				t.Fatalf("edge (%d,%d) priced below interior", c, r)
			}
		}
	}
}

func TestClaim(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Claim(7, 7, "alice", "AL"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	cell, _ := l.At(7, 7)
	if cell.Owner != "alice" || cell.Tag != "AL" {
		t.Fatalf("unexpected cell %+v", cell)
	}
	if !l.IsClaimed(7, 7) {
		t.Fatal("expected cell to be claimed")
	}

	if err := l.Claim(7, 7, "bob", "BO"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	if l.OwnerOf(7, 7) != "alice" {
		t.Fatal("failed claim changed the owner")
	}

	if err := l.Claim(15, 0, "bob", "BO"); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := l.Claim(1, 1, "", "XX"); !errors.Is(err, ErrEmptyOwner) {
		t.Fatalf("expected ErrEmptyOwner, got %v", err)
	}
}

func TestReleaseAndReset(t *testing.T) {
	l := newTestLedger(t)
	_ = l.Claim(1, 2, "alice", "AL")
	_ = l.Claim(3, 4, "bob", "BO")

	l.Release(1, 2)
	if l.IsClaimed(1, 2) {
		t.Fatal("expected released cell to be unclaimed")
	}

	l.Reset()
	for _, row := range l.Cells() {
		for _, c := range row {
			if c.Owner != "" || c.Tag != "" {
				t.Fatalf("expected empty grid after reset, got %+v", c)
			}
		}
	}
}

func TestFirstOwnedByIsRowMajor(t *testing.T) {
	l := newTestLedger(t)
	_ = l.Claim(9, 3, "alice", "AL")
	_ = l.Claim(2, 5, "alice", "AL")
	_ = l.Claim(1, 3, "bob", "BO")

	c, r, ok := l.FirstOwnedBy("alice")
	if !ok || c != 9 || r != 3 {
		t.Fatalf("FirstOwnedBy = (%d,%d,%v), want (9,3,true)", c, r, ok)
	}
	if _, _, ok := l.FirstOwnedBy("carol"); ok {
		t.Fatal("expected no cell for carol")
	}
	if _, _, ok := l.FirstOwnedBy(""); ok {
		t.Fatal("expected no cell for empty owner")
	}
}

func TestCellsIsACopy(t *testing.T) {
	l := newTestLedger(t)
	cells := l.Cells()
	cells[0][0].Owner = "mallory"
	if l.IsClaimed(0, 0) {
		t.Fatal("mutating the copy changed the ledger")
	}
}
