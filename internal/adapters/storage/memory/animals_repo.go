package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"herd-reproduction/internal/domain/animals"
)

type animalsRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal
}

func NewAnimalsRepo() animals.Repository {
	return &animalsRepo{
		byID: make(map[string]animals.Animal),
	}
}

func (r *animalsRepo) Create(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("animal already exists")
	}
	r.byID[a.ID] = a
	return nil
}

func (r *animalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *animalsRepo) List(ctx context.Context, filter animals.ListFilter) ([]animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]animals.Animal, 0)
	for _, a := range r.byID {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Gender != "" && a.Gender != filter.Gender {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(a.Name), q) &&
			!strings.Contains(strings.ToLower(a.TagID), q) {
			continue
		}
		out = append(out, a)
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update aplica el merge parcial. Mismo contrato que mongo: los arrays de
// historial incluidos reemplazan al array completo (lost-update posible si
// dos writers pisan el mismo documento; el motor lo asume).
func (r *animalsRepo) Update(ctx context.Context, id string, fields animals.UpdateFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.ErrNotFound
	}

	if fields.Name != nil {
		a.Name = *fields.Name
	}
	if fields.Status != nil {
		a.Status = *fields.Status
	}
	if fields.Breed != nil {
		a.Breed = *fields.Breed
	}
	if fields.Notes != nil {
		a.Notes = *fields.Notes
	}
	if fields.SireID != nil {
		a.SireID = *fields.SireID
	}
	if fields.DamID != nil {
		a.DamID = *fields.DamID
	}
	if fields.UpdatedAt != nil {
		a.UpdatedAt = *fields.UpdatedAt
	}
	if fields.ReproductionRecords != nil {
		a.ReproductionRecords = append([]animals.ReproductionRecord{}, *fields.ReproductionRecords...)
	}
	if fields.HealthRecords != nil {
		a.HealthRecords = append([]animals.HealthRecord{}, *fields.HealthRecords...)
	}
	if fields.WeightRecords != nil {
		a.WeightRecords = append([]animals.WeightRecord{}, *fields.WeightRecords...)
	}

	r.byID[id] = a
	return nil
}
