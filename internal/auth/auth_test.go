package auth

import (
	"sync"
	"testing"
)

func TestGate(t *testing.T) {
	g := NewGate([]int64{111, 222, 222})

	tests := []struct {
		id   int64
		want bool
	}{
		{111, true},
		{222, true},
		{333, false},
		{0, false},
		{-111, false},
	}
	for _, tt := range tests {
		first := g.IsAuthorized(tt.id, "tester")
		second := g.IsAuthorized(tt.id, "tester")
		if first != tt.want {
			t.Errorf("IsAuthorized(%d) = %v, want %v", tt.id, first, tt.want)
		}
		if first != second {
			t.Errorf("IsAuthorized(%d) not stable: %v then %v", tt.id, first, second)
		}
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
}

func TestGateCopiesInput(t *testing.T) {
	ids := []int64{1}
	g := NewGate(ids)
	ids[0] = 2
	if !g.IsAuthorized(1, "") || g.IsAuthorized(2, "") {
		t.Error("gate changed after its input slice was modified")
	}
}

func TestEmptyAndNilGate(t *testing.T) {
	if NewGate(nil).IsAuthorized(1, "x") {
		t.Error("empty gate allowed a user")
	}
	var g *Gate
	if g.IsAuthorized(1, "x") || g.Len() != 0 || g.IDs() != nil {
		t.Error("nil gate should deny everyone")
	}
}

func TestIDsSorted(t *testing.T) {
	got := NewGate([]int64{30, 10, 20}).IDs()
	want := []int64{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", got, want)
		}
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(NewGate([]int64{1}))
	if !h.IsAuthorized(1, "") {
		t.Fatal("user 1 should be allowed")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.IsAuthorized(1, "")
			}
		}()
	}
	old := h.Swap(NewGate([]int64{2}))
	wg.Wait()

	if old.Len() != 1 || !old.IsAuthorized(1, "") {
		t.Error("old gate was modified by swap")
	}
	if h.IsAuthorized(1, "") || !h.IsAuthorized(2, "") {
		t.Error("holder did not switch to the new gate")
	}
}
