package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWithRetryOnlyRetriesSerializationFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("commit: %w", &pgconn.PgError{Code: serializationFailure})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	calls = 0
	plain := errors.New("constraint")
	err = withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return plain
	})
	if !errors.Is(err, plain) || calls != 1 {
		t.Fatalf("err = %v calls = %d, want plain error after one call", err, calls)
	}
}

func TestAmountRoundTrip(t *testing.T) {
	v, err := parseAmount("vault", amount(18446744073709551615))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v != 18446744073709551615 {
		t.Fatalf("round trip = %d", v)
	}
	if _, err := parseAmount("vault", "-1"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
