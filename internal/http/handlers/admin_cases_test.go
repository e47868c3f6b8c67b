package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/civic-portal/internal/cases"
)

func seedRepo(t *testing.T) cases.Repository {
	t.Helper()
	repo := cases.NewInMemoryRepository(nil)
	_, err := repo.CreateCase(context.Background(), &cases.Draft{
		Reference:    "GRV00000001",
		Kind:         cases.KindGrievance,
		CitizenName:  "Asha Rao",
		CitizenPhone: "+919800000010",
		DepartmentID: "water",
		Description:  "No water supply.",
	})
	require.NoError(t, err)
	return repo
}

func newCasesRouter(repo cases.Repository) http.Handler {
	h := NewAdminCasesHandler(repo, nil)
	r := chi.NewRouter()
	r.Get("/admin/cases", h.GetLatest)
	r.Get("/admin/cases/{reference}", h.GetByReference)
	r.Get("/admin/departments", h.ListDepartments)
	return r
}

func TestGetByReference(t *testing.T) {
	router := newCasesRouter(seedRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/cases/grv00000001", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CaseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "GRV00000001", resp.Reference)
	assert.Equal(t, "Asha Rao", resp.CitizenName)
	assert.Equal(t, "open", resp.Status)
	assert.NotEmpty(t, resp.CreatedAt)
}

func TestGetByReferenceNotFound(t *testing.T) {
	router := newCasesRouter(seedRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/cases/GRV99999999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLatestByPhone(t *testing.T) {
	router := newCasesRouter(seedRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/cases?phone=%2B919800000010", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CaseResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "GRV00000001", resp.Reference)
}

func TestGetLatestRequiresPhone(t *testing.T) {
	router := newCasesRouter(seedRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/cases", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDepartments(t *testing.T) {
	router := newCasesRouter(seedRepo(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/departments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Departments []cases.Department `json:"departments"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Departments, 6)
}
