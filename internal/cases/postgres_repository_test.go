package cases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return newPostgresRepositoryWithQuerier(mock), mock
}

func TestPostgresCreateCase(t *testing.T) {
	repo, mock := newMockRepo(t)

	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO cases").
		WithArgs(
			pgxmock.AnyArg(), "GRV00000001", "grievance", "Asha Rao", "+919800000010",
			"water", "No water supply on Tilak Road.", "", "", "", "", StatusOpen,
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	created, err := repo.CreateCase(context.Background(), grievanceDraft("GRV00000001"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != StatusOpen || !created.CreatedAt.Equal(createdAt) {
		t.Errorf("created = %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreateCaseRejectsInvalidDraft(t *testing.T) {
	repo, _ := newMockRepo(t)

	draft := grievanceDraft("GRV00000001")
	draft.CitizenName = ""
	if _, err := repo.CreateCase(context.Background(), draft); !errors.Is(err, ErrMissingCitizen) {
		t.Fatalf("err = %v, want ErrMissingCitizen", err)
	}
}

func caseRow(reference string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "reference", "kind", "citizen_name", "citizen_phone", "department_id",
		"description", "media_ref", "purpose", "visit_date", "time_slot", "status", "created_at",
	}).AddRow(
		uuid.New(), reference, "grievance", "Asha Rao", "+919800000010",
		"water", "No water supply.", "", "", "", "", StatusOpen,
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	)
}

func TestPostgresFindByReference(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Input reference is normalized to uppercase before the query.
	mock.ExpectQuery("SELECT (.+) FROM cases WHERE reference").
		WithArgs("GRV00000001").
		WillReturnRows(caseRow("GRV00000001"))

	found, err := repo.FindByReference(context.Background(), " grv00000001 ")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Kind != KindGrievance || found.Reference != "GRV00000001" {
		t.Errorf("found = %+v", found)
	}

	mock.ExpectQuery("SELECT (.+) FROM cases WHERE reference").
		WithArgs("GRV99999999").
		WillReturnError(pgx.ErrNoRows)
	if _, err := repo.FindByReference(context.Background(), "GRV99999999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss = %v, want ErrNotFound", err)
	}
}

func TestPostgresFindLatestByPhone(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("+919800000010").
		WillReturnRows(caseRow("GRV00000002"))

	found, err := repo.FindLatestByPhone(context.Background(), "+919800000010")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Reference != "GRV00000002" {
		t.Errorf("found = %q", found.Reference)
	}
}

func TestPostgresListDepartments(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, name, active FROM departments").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "active"}).
			AddRow("sanitation", "sanitation", true).
			AddRow("water", "water", true))

	deps, err := repo.ListDepartments(context.Background(), true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(deps) != 2 || deps[0].ID != "sanitation" {
		t.Errorf("deps = %+v", deps)
	}
}
