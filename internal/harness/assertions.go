package harness

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// checkExpect compares a step's outcome with its expect clause and returns
// a message describing the first mismatch, or "".
func checkExpect(exp *Expect, err error, detail map[string]any) string {
	if exp == nil || exp.Error == "" {
		if err != nil {
			return fmt.Sprintf("unexpected error %s: %v", errorCode(err), err)
		}
	} else {
		if err == nil {
			return fmt.Sprintf("expected error %s, got success", exp.Error)
		}
		if code := errorCode(err); code != exp.Error {
			return fmt.Sprintf("expected error %s, got %s: %v", exp.Error, code, err)
		}
		return ""
	}
	if exp == nil {
		return ""
	}

	if exp.ID != "" && detail["id"] != exp.ID {
		return fmt.Sprintf("expected id %q, got %v", exp.ID, detail["id"])
	}
	if exp.Offline != nil && detail["offline"] != *exp.Offline {
		return fmt.Sprintf("expected offline=%v, got %v", *exp.Offline, detail["offline"])
	}
	if exp.Total != "" {
		if msg := compareDecimal("total", exp.Total, detail["total"]); msg != "" {
			return msg
		}
	}
	if exp.Synced != nil && detail["synced"] != *exp.Synced {
		return fmt.Sprintf("expected synced=%d, got %v", *exp.Synced, detail["synced"])
	}
	if exp.Failed != nil && detail["failed"] != *exp.Failed {
		return fmt.Sprintf("expected failed=%d, got %v", *exp.Failed, detail["failed"])
	}
	return ""
}

func compareDecimal(field, want string, got any) string {
	w, err := decimal.NewFromString(want)
	if err != nil {
		return fmt.Sprintf("expected %s %q is not a number", field, want)
	}
	g, err := decimal.NewFromString(fmt.Sprint(got))
	if err != nil || !w.Equal(g) {
		return fmt.Sprintf("expected %s %s, got %v", field, want, got)
	}
	return ""
}

// evaluateAssertion checks one assertion against the final result.
func evaluateAssertion(a Assertion, r *Result) error {
	s := r.State
	switch a.Type {
	case AssertPendingCount:
		if s.Pending != *a.Count {
			return fmt.Errorf("expected %d pending, got %d", *a.Count, s.Pending)
		}

	case AssertRemoteCount:
		if got := s.Remote[a.Kind]; got != *a.Count {
			return fmt.Errorf("expected %d %s records, got %d", *a.Count, a.Kind, got)
		}

	case AssertStock:
		got, ok := s.Stock[a.ProductID]
		if !ok {
			return fmt.Errorf("no stock row for %s", a.ProductID)
		}
		if got != int64(*a.Quantity) {
			return fmt.Errorf("expected %s stock %d, got %d", a.ProductID, *a.Quantity, got)
		}

	case AssertToasts:
		if i := subsequence(a.Titles, s.Toasts); i >= 0 {
			return fmt.Errorf("toast %q not found in order; toasts were [%s]", a.Titles[i], strings.Join(s.Toasts, ", "))
		}

	case AssertCallOrder:
		if i := subsequence(a.Calls, r.Calls); i >= 0 {
			return fmt.Errorf("call %q not found in order; calls were:\n  %s", a.Calls[i], strings.Join(r.Calls, "\n  "))
		}

	case AssertCart:
		if s.CartLines != *a.Count {
			return fmt.Errorf("expected %d cart lines, got %d", *a.Count, s.CartLines)
		}
		if a.Total != "" {
			if msg := compareDecimal("cart total", a.Total, s.CartTotal); msg != "" {
				return fmt.Errorf("%s", msg)
			}
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// subsequence reports the index of the first element of want that does not
// appear in got after the previous match, or -1 when all appear in order.
func subsequence(want, got []string) int {
	j := 0
	for i, w := range want {
		for j < len(got) && got[j] != w {
			j++
		}
		if j == len(got) {
			return i
		}
		j++
	}
	return -1
}
