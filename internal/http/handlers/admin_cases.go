package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/civicdesk/civic-portal/internal/cases"
	"github.com/civicdesk/civic-portal/pkg/logging"
)

// AdminCasesHandler serves the staff dashboard's read-only case lookups.
type AdminCasesHandler struct {
	repo   cases.Repository
	logger *logging.Logger
}

// NewAdminCasesHandler creates a new admin cases handler.
func NewAdminCasesHandler(repo cases.Repository, logger *logging.Logger) *AdminCasesHandler {
	if repo == nil {
		panic("handlers: case repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminCasesHandler{repo: repo, logger: logger}
}

// CaseResponse represents a case in API responses.
type CaseResponse struct {
	ID           string `json:"id"`
	Reference    string `json:"reference"`
	Kind         string `json:"kind"`
	CitizenName  string `json:"citizen_name"`
	CitizenPhone string `json:"citizen_phone"`
	DepartmentID string `json:"department_id"`
	Description  string `json:"description,omitempty"`
	MediaRef     string `json:"media_ref,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
	Date         string `json:"date,omitempty"`
	TimeSlot     string `json:"time_slot,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

func toCaseResponse(c *cases.Case) CaseResponse {
	return CaseResponse{
		ID:           c.ID.String(),
		Reference:    c.Reference,
		Kind:         string(c.Kind),
		CitizenName:  c.CitizenName,
		CitizenPhone: c.CitizenPhone,
		DepartmentID: c.DepartmentID,
		Description:  c.Description,
		MediaRef:     c.MediaRef,
		Purpose:      c.Purpose,
		Date:         c.Date,
		TimeSlot:     c.TimeSlot,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// GetByReference handles GET /admin/cases/{reference}.
func (h *AdminCasesHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	c, err := h.repo.FindByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, cases.ErrNotFound) {
			http.Error(w, "case not found", http.StatusNotFound)
			return
		}
		h.logger.Error("case lookup failed", "reference", reference, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, toCaseResponse(c))
}

// GetLatest handles GET /admin/cases?phone=...
func (h *AdminCasesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		http.Error(w, "phone query parameter required", http.StatusBadRequest)
		return
	}
	c, err := h.repo.FindLatestByPhone(r.Context(), phone)
	if err != nil {
		if errors.Is(err, cases.ErrNotFound) {
			http.Error(w, "no cases for phone", http.StatusNotFound)
			return
		}
		h.logger.Error("phone lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, toCaseResponse(c))
}

// ListDepartments handles GET /admin/departments.
func (h *AdminCasesHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	deps, err := h.repo.ListDepartments(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("department listing failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"departments": deps})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
