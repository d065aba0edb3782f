package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/kasir/internal/cart"
)

func TestSubsequence(t *testing.T) {
	got := []string{"a", "b", "c", "d"}

	assert.Equal(t, -1, subsequence([]string{"a", "c"}, got))
	assert.Equal(t, -1, subsequence([]string{"d"}, got))
	assert.Equal(t, 1, subsequence([]string{"c", "a"}, got))
	assert.Equal(t, 0, subsequence([]string{"x"}, got))
	assert.Equal(t, 1, subsequence([]string{"a", "a"}, got))
}

func TestCheckExpect(t *testing.T) {
	yes := true
	one := 1

	assert.Empty(t, checkExpect(nil, nil, nil))
	assert.Contains(t, checkExpect(nil, cart.ErrEmptyCart, nil), "unexpected error empty_cart")

	assert.Empty(t, checkExpect(&Expect{Error: "empty_cart"}, cart.ErrEmptyCart, nil))
	assert.Contains(t, checkExpect(&Expect{Error: "empty_cart"}, nil, nil), "got success")
	assert.Contains(t, checkExpect(&Expect{Error: "empty_cart"}, errors.New("boom"), nil), "got error")

	detail := map[string]any{"id": "offline_1_2", "offline": true, "total": "28600", "synced": 1}
	assert.Empty(t, checkExpect(&Expect{ID: "offline_1_2", Offline: &yes, Total: "28600.00", Synced: &one}, nil, detail))
	assert.Contains(t, checkExpect(&Expect{ID: "x"}, nil, detail), `expected id "x"`)
	assert.Contains(t, checkExpect(&Expect{Total: "1"}, nil, detail), "expected total 1")
}

func TestEvaluateAssertion(t *testing.T) {
	two := 2
	eight := 8
	r := &Result{
		Calls: []string{"insert transactions [x]", "update stock stock-1 [quantity updated_at]"},
		State: State{
			Pending:   2,
			Remote:    map[string]int{"transactions": 1},
			Stock:     map[string]int64{"kopi": 8},
			CartLines: 2,
			CartTotal: "100",
			Toasts:    []string{"A", "B"},
		},
	}

	assert.NoError(t, evaluateAssertion(Assertion{Type: AssertPendingCount, Count: &two}, r))
	assert.NoError(t, evaluateAssertion(Assertion{Type: AssertStock, ProductID: "kopi", Quantity: &eight}, r))
	assert.Error(t, evaluateAssertion(Assertion{Type: AssertStock, ProductID: "teh", Quantity: &eight}, r))
	assert.Error(t, evaluateAssertion(Assertion{Type: AssertRemoteCount, Kind: "transactions", Count: &two}, r))
	assert.NoError(t, evaluateAssertion(Assertion{Type: AssertToasts, Titles: []string{"B"}}, r))
	assert.Error(t, evaluateAssertion(Assertion{Type: AssertToasts, Titles: []string{"B", "A"}}, r))
	assert.NoError(t, evaluateAssertion(Assertion{Type: AssertCallOrder, Calls: r.Calls}, r))
	assert.NoError(t, evaluateAssertion(Assertion{Type: AssertCart, Count: &two, Total: "100.0"}, r))
}
