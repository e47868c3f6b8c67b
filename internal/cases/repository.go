package cases

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for case and department storage
type Repository interface {
	CreateCase(ctx context.Context, draft *Draft) (*Case, error)
	FindByReference(ctx context.Context, reference string) (*Case, error)
	FindLatestByPhone(ctx context.Context, phone string) (*Case, error)
	FindDepartment(ctx context.Context, id string) (*Department, error)
	ListDepartments(ctx context.Context, activeOnly bool) ([]Department, error)
}

// InMemoryRepository is a Repository backed by in-memory maps, used by
// tests and USE_MEMORY_STORES deployments.
type InMemoryRepository struct {
	mu          sync.RWMutex
	cases       map[string]*Case // keyed by reference
	departments []Department
	now         func() time.Time
}

// NewInMemoryRepository creates a repository pre-seeded with the given
// departments (the default set when nil).
func NewInMemoryRepository(departments []Department) *InMemoryRepository {
	if departments == nil {
		departments = DefaultDepartments()
	}
	return &InMemoryRepository{
		cases:       make(map[string]*Case),
		departments: departments,
		now:         time.Now,
	}
}

// SetClock overrides the repository clock. Test use only.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// DefaultDepartments returns the seed departments a single-tenant
// deployment starts with.
func DefaultDepartments() []Department {
	return []Department{
		{ID: "sanitation", Name: "sanitation", Active: true},
		{ID: "water", Name: "water", Active: true},
		{ID: "roads", Name: "roads", Active: true},
		{ID: "health", Name: "health", Active: true},
		{ID: "revenue", Name: "revenue", Active: true},
		{ID: "general", Name: "general", Active: true},
	}
}

func (r *InMemoryRepository) CreateCase(_ context.Context, draft *Draft) (*Case, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Case{
		ID:           uuid.New(),
		Reference:    draft.Reference,
		Kind:         draft.Kind,
		CitizenName:  draft.CitizenName,
		CitizenPhone: draft.CitizenPhone,
		DepartmentID: draft.DepartmentID,
		Description:  draft.Description,
		MediaRef:     draft.MediaRef,
		Purpose:      draft.Purpose,
		Date:         draft.Date,
		TimeSlot:     draft.TimeSlot,
		Status:       draft.InitialStatus(),
		CreatedAt:    r.now().UTC(),
	}
	r.cases[c.Reference] = c

	clone := *c
	return &clone, nil
}

func (r *InMemoryRepository) FindByReference(_ context.Context, reference string) (*Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[strings.ToUpper(strings.TrimSpace(reference))]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *InMemoryRepository) FindLatestByPhone(_ context.Context, phone string) (*Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Case
	for _, c := range r.cases {
		if strings.EqualFold(c.CitizenPhone, phone) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	clone := *matches[0]
	return &clone, nil
}

func (r *InMemoryRepository) FindDepartment(_ context.Context, id string) (*Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.departments {
		if d.ID == id {
			clone := d
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) ListDepartments(_ context.Context, activeOnly bool) ([]Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Department, 0, len(r.departments))
	for _, d := range r.departments {
		if activeOnly && !d.Active {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
