package animals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotEligible  = errors.New("animal is not eligible for new records")
)

// BirthRecorder es el sintetizador de partos sobre la madre. Se inyecta como
// interfaz para no acoplar animals -> breeding (breeding ya importa animals).
type BirthRecorder interface {
	EnsureBirthRecorded(ctx context.Context, damID string, birthDate time.Time, newbornName, newbornTagID, sireID string) error
}

type Service struct {
	repo     Repository
	recorder BirthRecorder // puede ser nil (sin síntesis de partos)
	now      func() time.Time
}

func NewService(repo Repository, recorder BirthRecorder) *Service {
	return &Service{
		repo:     repo,
		recorder: recorder,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Name      string
	TagID     string
	Gender    Gender
	Breed     string
	BirthDate time.Time
	Status    Status
	SireID    string
	DamID     string
	Notes     string

	// Purchased marca animales comprados: no se sintetiza parto en la madre
	// aunque declaren dam_id (la madre no parió dentro del rebaño).
	Purchased bool
}

// Register crea el documento del animal y, si declara madre y no es
// comprado/external, asegura el registro de parto en la madre.
// La síntesis es posterior al create: si falla, el animal ya existe y el
// error se devuelve junto al animal creado (EnsureBirthRecorded es
// idempotente, el caller puede reintentar).
func (s *Service) Register(ctx context.Context, farmID string, in RegisterInput) (Animal, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.TagID) == "" {
		return Animal{}, ErrInvalidInput
	}
	if in.Gender != GenderMale && in.Gender != GenderFemale {
		return Animal{}, ErrInvalidInput
	}
	if in.BirthDate.IsZero() {
		return Animal{}, ErrInvalidInput
	}

	status := in.Status
	if status == "" {
		status = StatusActive
	}
	switch status {
	case StatusActive, StatusSold, StatusDeceased, StatusExternal:
	default:
		return Animal{}, ErrInvalidInput
	}

	now := s.now()
	a := Animal{
		ID:                  uuid.NewString(),
		FarmID:              strings.TrimSpace(farmID),
		Name:                strings.TrimSpace(in.Name),
		TagID:               strings.TrimSpace(in.TagID),
		Gender:              in.Gender,
		Breed:               strings.TrimSpace(in.Breed),
		BirthDate:           DateOnly(in.BirthDate),
		Status:              status,
		SireID:              strings.TrimSpace(in.SireID),
		DamID:               strings.TrimSpace(in.DamID),
		ReproductionRecords: []ReproductionRecord{},
		HealthRecords:       []HealthRecord{},
		WeightRecords:       []WeightRecord{},
		Notes:               strings.TrimSpace(in.Notes),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}

	if a.DamID != "" && !in.Purchased && status != StatusExternal && s.recorder != nil {
		if err := s.recorder.EnsureBirthRecorded(ctx, a.DamID, a.BirthDate, a.Name, a.TagID, a.SireID); err != nil {
			return a, fmt.Errorf("animal %s created but dam birth record failed: %w", a.ID, err)
		}
	}

	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Animal, error) {
	return s.repo.List(ctx, filter)
}

type UpdateProfileInput struct {
	Name   *string
	Breed  *string
	Status *Status
	Notes  *string
}

// UpdateProfile edita campos de identidad/estado. No toca historiales.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}
	if in.Status != nil {
		switch *in.Status {
		case StatusActive, StatusSold, StatusDeceased, StatusExternal:
		default:
			return Animal{}, ErrInvalidInput
		}
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return Animal{}, err
	}

	now := s.now()
	fields := UpdateFields{
		Name:      in.Name,
		Breed:     in.Breed,
		Status:    in.Status,
		Notes:     in.Notes,
		UpdatedAt: &now,
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return Animal{}, err
	}
	return s.repo.GetByID(ctx, id)
}

type HealthInput struct {
	Date        time.Time
	Kind        string
	Description string
	Notes       string
}

// AddHealthRecord agrega historial sanitario. Sin reglas reproductivas:
// solo chequeos básicos de fecha y elegibilidad.
func (s *Service) AddHealthRecord(ctx context.Context, animalID string, in HealthInput) (HealthRecord, error) {
	if strings.TrimSpace(in.Kind) == "" || in.Date.IsZero() {
		return HealthRecord{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, strings.TrimSpace(animalID))
	if err != nil {
		return HealthRecord{}, err
	}
	if err := s.checkRecordable(a, in.Date); err != nil {
		return HealthRecord{}, err
	}

	rec := HealthRecord{
		ID:          uuid.NewString(),
		Date:        DateOnly(in.Date),
		Kind:        strings.TrimSpace(in.Kind),
		Description: strings.TrimSpace(in.Description),
		Notes:       strings.TrimSpace(in.Notes),
	}

	records := append(append([]HealthRecord{}, a.HealthRecords...), rec)
	now := s.now()
	if err := s.repo.Update(ctx, a.ID, UpdateFields{HealthRecords: &records, UpdatedAt: &now}); err != nil {
		return HealthRecord{}, err
	}
	return rec, nil
}

type WeightInput struct {
	Date time.Time
	Kg   float64
}

// AddWeightRecord agrega un pesaje al historial de medidas.
func (s *Service) AddWeightRecord(ctx context.Context, animalID string, in WeightInput) (WeightRecord, error) {
	if in.Date.IsZero() || in.Kg <= 0 {
		return WeightRecord{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, strings.TrimSpace(animalID))
	if err != nil {
		return WeightRecord{}, err
	}
	if err := s.checkRecordable(a, in.Date); err != nil {
		return WeightRecord{}, err
	}

	rec := WeightRecord{
		ID:   uuid.NewString(),
		Date: DateOnly(in.Date),
		Kg:   in.Kg,
	}

	records := append(append([]WeightRecord{}, a.WeightRecords...), rec)
	now := s.now()
	if err := s.repo.Update(ctx, a.ID, UpdateFields{WeightRecords: &records, UpdatedAt: &now}); err != nil {
		return WeightRecord{}, err
	}
	return rec, nil
}

func (s *Service) checkRecordable(a Animal, date time.Time) error {
	if DateOnly(date).After(DateOnly(s.now())) {
		return fmt.Errorf("%w: date is in the future", ErrInvalidInput)
	}
	if DateOnly(date).Before(a.BirthDate) {
		return fmt.Errorf("%w: date precedes the animal's birth", ErrInvalidInput)
	}
	if !a.Status.IsEligibleForEvents() {
		return ErrNotEligible
	}
	return nil
}
