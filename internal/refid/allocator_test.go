package refid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestFormat(t *testing.T) {
	if got := Format("GRV", 1); got != "GRV00000001" {
		t.Errorf("Format = %q, want GRV00000001", got)
	}
	if got := Format("APT", 12345678); got != "APT12345678" {
		t.Errorf("Format = %q, want APT12345678", got)
	}
}

func TestPostgresAllocator(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	alloc := newPostgresAllocatorWithQuerier(mock)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("GRV").
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(int64(41)))
	mock.ExpectExec("INSERT INTO case_references").
		WithArgs("GRV", int64(42)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ref, err := alloc.Allocate(context.Background(), "GRV")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if ref != "GRV00000042" {
		t.Errorf("ref = %q, want GRV00000042", ref)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresAllocatorRetriesOnCollision(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	alloc := newPostgresAllocatorWithQuerier(mock)

	// First attempt loses the race, second succeeds with the new maximum.
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("APT").
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(int64(7)))
	mock.ExpectExec("INSERT INTO case_references").
		WithArgs("APT", int64(8)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("APT").
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(int64(8)))
	mock.ExpectExec("INSERT INTO case_references").
		WithArgs("APT", int64(9)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ref, err := alloc.Allocate(context.Background(), "APT")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if ref != "APT00000009" {
		t.Errorf("ref = %q, want APT00000009", ref)
	}
}

func TestPostgresAllocatorExhaustion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	alloc := newPostgresAllocatorWithQuerier(mock)

	for i := 0; i < maxRetries; i++ {
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs("GRV").
			WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(int64(5)))
		mock.ExpectExec("INSERT INTO case_references").
			WithArgs("GRV", int64(6)).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
	}

	_, err = alloc.Allocate(context.Background(), "GRV")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestMemoryAllocator(t *testing.T) {
	alloc := NewMemoryAllocator()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ref, err := alloc.Allocate(ctx, "GRV")
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if want := fmt.Sprintf("GRV%08d", i); ref != want {
			t.Errorf("ref = %q, want %q", ref, want)
		}
	}

	// Prefixes number independently.
	ref, _ := alloc.Allocate(ctx, "APT")
	if ref != "APT00000001" {
		t.Errorf("ref = %q, want APT00000001", ref)
	}
}

func TestMemoryAllocatorConcurrent(t *testing.T) {
	alloc := NewMemoryAllocator()
	ctx := context.Background()

	const n = 50
	refs := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := alloc.Allocate(ctx, "GRV")
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			refs <- ref
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[string]bool, n)
	for ref := range refs {
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
	if len(seen) != n {
		t.Errorf("unique refs = %d, want %d", len(seen), n)
	}
}
