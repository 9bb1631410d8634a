package dberrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Storage, "io", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	if !Is(err, Storage) {
		t.Fatalf("expected Is(err, Storage) to be true")
	}
	if Is(err, Query) {
		t.Fatalf("expected Is(err, Query) to be false")
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	inner := New(Transaction, "closed-tx", "transaction is closed")
	outer := fmt.Errorf("commit failed: %w", inner)

	if !Is(outer, Transaction) {
		t.Fatalf("expected Is to see through fmt.Errorf wrapping")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Database:    "database",
		Transaction: "transaction",
		Query:       "query",
		Validation:  "validation",
		Storage:     "storage",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
