package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwraps(t *testing.T) {
	err := fmt.Errorf("unstake position 4: %w", ErrLockNotExpired)
	if got := KindOf(err); got != "LockNotExpired" {
		t.Fatalf("kind mismatch: %s", got)
	}
	if got := CategoryOf(err); got != CategoryState {
		t.Fatalf("category mismatch: %s", got)
	}
	if got := KindOf(errors.New("boom")); got != "Internal" {
		t.Fatalf("unknown kind mismatch: %s", got)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("nil kind mismatch: %s", got)
	}
	if got := CategoryOf(ErrUnauthorized); got != CategoryAuthorization {
		t.Fatalf("authorization category mismatch: %s", got)
	}
}
