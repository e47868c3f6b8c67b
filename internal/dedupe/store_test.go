package dedupe

import (
	"context"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newStoreWithExec(mock, DefaultRetention)

	mock.ExpectQuery("SELECT 1 FROM processed_messages").
		WithArgs("whatsapp", "wamid.1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(1))
	processed, err := store.AlreadyProcessed(context.Background(), "whatsapp", "wamid.1")
	if err != nil || !processed {
		t.Fatalf("expected existing row, got processed=%v err=%v", processed, err)
	}

	mock.ExpectQuery("SELECT 1 FROM processed_messages").
		WithArgs("whatsapp", "wamid.miss", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)
	processed, err = store.AlreadyProcessed(context.Background(), "whatsapp", "wamid.miss")
	if err != nil || processed {
		t.Fatalf("expected missing row, got processed=%v err=%v", processed, err)
	}

	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("whatsapp", "wamid.new", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := store.MarkProcessed(context.Background(), "whatsapp", "wamid.new")
	if err != nil || !ok {
		t.Fatalf("expected mark processed success, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("whatsapp", "wamid.new", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = store.MarkProcessed(context.Background(), "whatsapp", "wamid.new")
	if err != nil || ok {
		t.Fatalf("expected duplicate to report false, got %v %v", ok, err)
	}

	mock.ExpectExec("DELETE FROM processed_messages").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))
	deleted, err := store.Sweep(context.Background())
	if err != nil || deleted != 7 {
		t.Fatalf("expected 7 swept, got %d %v", deleted, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryGuard(t *testing.T) {
	guard := NewMemoryGuard(DefaultRetention)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	guard.SetClock(func() time.Time { return now })

	ctx := context.Background()

	ok, err := guard.MarkProcessed(ctx, "whatsapp", "wamid.1")
	if err != nil || !ok {
		t.Fatalf("first mark: %v %v", ok, err)
	}
	ok, err = guard.MarkProcessed(ctx, "whatsapp", "wamid.1")
	if err != nil || ok {
		t.Fatalf("duplicate mark should fail: %v %v", ok, err)
	}

	seen, err := guard.AlreadyProcessed(ctx, "whatsapp", "wamid.1")
	if err != nil || !seen {
		t.Fatalf("expected seen: %v %v", seen, err)
	}
	seen, _ = guard.AlreadyProcessed(ctx, "sms", "wamid.1")
	if seen {
		t.Error("different channel should not collide")
	}

	// Past the retention window the id is forgotten and may repeat.
	now = base.Add(48*time.Hour + time.Second)
	seen, _ = guard.AlreadyProcessed(ctx, "whatsapp", "wamid.1")
	if seen {
		t.Error("expired entry still reported as processed")
	}
	ok, _ = guard.MarkProcessed(ctx, "whatsapp", "wamid.1")
	if !ok {
		t.Error("expired id should be markable again")
	}
}
