package breeding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"herd-reproduction/internal/domain/animals"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrPartialCommit: el registro del sujeto quedó escrito pero el espejo
	// en la pareja falló. No hay rollback automático; el caller decide si
	// reintenta la mitad faltante o alerta para reconciliación manual.
	ErrPartialCommit = errors.New("partial commit: mirror write failed")
)

// CommitResult reporta qué mitades del commit quedaron escritas.
// Mirrored indica si el evento requería espejo en la pareja.
type CommitResult struct {
	SubjectWritten bool
	PartnerWritten bool
	Mirrored       bool
}

// Service es el motor: validación -> commit -> espejo diádico, más la
// síntesis idempotente de partos. Lee y escribe contra el repositorio de
// animales; no guarda estado propio.
type Service struct {
	repo animals.Repository
	now  func() time.Time
}

func NewService(repo animals.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Validate evalúa un draft contra el estado actual del sujeto (y la pareja,
// si el evento es diádico). No escribe nada.
func (s *Service) Validate(ctx context.Context, subjectID string, draft Draft) (Decision, error) {
	subject, partner, err := s.loadParticipants(ctx, subjectID, draft)
	if err != nil {
		return Decision{}, err
	}
	return Validate(subject, partner, draft, s.now()), nil
}

// Record es el flujo completo: valida y, si el resultado lo permite,
// construye el registro y lo commitea. confirm autoriza explícitamente un
// needs_confirmation; sin confirm, la decisión se devuelve sin escribir.
func (s *Service) Record(ctx context.Context, subjectID string, draft Draft, confirm bool) (animals.ReproductionRecord, Decision, CommitResult, error) {
	if err := validateDraftFields(draft); err != nil {
		return animals.ReproductionRecord{}, Decision{}, CommitResult{}, err
	}
	if strings.TrimSpace(subjectID) == draft.MateID && draft.MateID != "" {
		return animals.ReproductionRecord{}, Decision{}, CommitResult{}, fmt.Errorf("%w: animal cannot mate with itself", ErrInvalidInput)
	}

	subject, partner, err := s.loadParticipants(ctx, subjectID, draft)
	if err != nil {
		return animals.ReproductionRecord{}, Decision{}, CommitResult{}, err
	}

	decision := Validate(subject, partner, draft, s.now())
	if decision.Rejected() {
		return animals.ReproductionRecord{}, decision, CommitResult{}, nil
	}
	if decision.Outcome == OutcomeNeedsConfirmation && !confirm {
		return animals.ReproductionRecord{}, decision, CommitResult{}, nil
	}

	rec := animals.ReproductionRecord{
		ID:               uuid.NewString(),
		Date:             animals.DateOnly(draft.Date),
		Type:             draft.Type,
		MateID:           draft.MateID,
		Notes:            strings.TrimSpace(draft.Notes),
		HeatIntensity:    draft.HeatIntensity,
		OffspringCount:   draft.OffspringCount,
		Outcome:          strings.TrimSpace(draft.Outcome),
		UltrasoundResult: draft.UltrasoundResult,
	}

	res, err := s.Commit(ctx, subject.ID, draft.MateID, rec)
	return rec, decision, res, err
}

// Commit agrega el registro al sujeto y, para montas con pareja, escribe el
// espejo (MateID invertido, misma fecha) en la pareja. Son dos updates
// independientes: si el segundo falla queda un registro asimétrico y se
// reporta como ErrPartialCommit.
func (s *Service) Commit(ctx context.Context, subjectID, partnerID string, rec animals.ReproductionRecord) (CommitResult, error) {
	res := CommitResult{}

	subject, err := s.repo.GetByID(ctx, strings.TrimSpace(subjectID))
	if err != nil {
		return res, err
	}

	if err := s.appendRecord(ctx, subject, rec); err != nil {
		return res, err
	}
	res.SubjectWritten = true

	if rec.Type != animals.RecordMating || rec.MateID == "" {
		return res, nil
	}
	res.Mirrored = true

	if partnerID == "" {
		partnerID = rec.MateID
	}
	partner, err := s.repo.GetByID(ctx, strings.TrimSpace(partnerID))
	if err != nil {
		return res, fmt.Errorf("%w: load partner %s: %v", ErrPartialCommit, partnerID, err)
	}

	mirror := animals.ReproductionRecord{
		ID:     uuid.NewString(),
		Date:   rec.Date,
		Type:   animals.RecordMating,
		MateID: subject.ID,
		Notes:  rec.Notes,
	}
	if err := s.appendRecord(ctx, partner, mirror); err != nil {
		return res, fmt.Errorf("%w: partner %s: %v", ErrPartialCommit, partner.ID, err)
	}
	res.PartnerWritten = true

	return res, nil
}

// EnsureBirthRecorded asegura que la madre tenga un parto registrado en esa
// fecha. Idempotente: si ya existe un birth con la misma fecha, no-op.
// Salta la validación de gestación a propósito: la cría registrada es la
// evidencia de que la gestación ocurrió.
func (s *Service) EnsureBirthRecorded(ctx context.Context, damID string, birthDate time.Time, newbornName, newbornTagID, sireID string) error {
	damID = strings.TrimSpace(damID)
	if damID == "" || birthDate.IsZero() {
		return ErrInvalidInput
	}

	dam, err := s.repo.GetByID(ctx, damID)
	if err != nil {
		return fmt.Errorf("load dam %s: %w", damID, err)
	}

	for _, rec := range dam.ReproductionRecords {
		if rec.Type == animals.RecordBirth && animals.SameDate(rec.Date, birthDate) {
			return nil
		}
	}

	rec := animals.ReproductionRecord{
		ID:             uuid.NewString(),
		Date:           animals.DateOnly(birthDate),
		Type:           animals.RecordBirth,
		MateID:         strings.TrimSpace(sireID),
		OffspringCount: 1,
		Outcome:        "alive",
		Notes:          fmt.Sprintf("auto-recorded birth of %s (tag %s)", strings.TrimSpace(newbornName), strings.TrimSpace(newbornTagID)),
	}

	// Partos sintetizados no se espejan (no son diádicos).
	_, err = s.Commit(ctx, dam.ID, "", rec)
	return err
}

// ListRecords devuelve el historial reproductivo del sujeto en orden de
// inserción, con filtros opcionales por tipo y rango de fechas.
func (s *Service) ListRecords(ctx context.Context, animalID string, filter ListFilter) ([]animals.ReproductionRecord, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(animalID))
	if err != nil {
		return nil, err
	}

	out := make([]animals.ReproductionRecord, 0, len(a.ReproductionRecords))
	for _, rec := range a.ReproductionRecords {
		if !filter.matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

type ListFilter struct {
	Types []animals.RecordType
	From  *time.Time
	To    *time.Time
	Limit int
}

func (f ListFilter) matches(rec animals.ReproductionRecord) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if rec.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && animals.DateOnly(rec.Date).Before(animals.DateOnly(*f.From)) {
		return false
	}
	if f.To != nil && animals.DateOnly(rec.Date).After(animals.DateOnly(*f.To)) {
		return false
	}
	return true
}

func (s *Service) loadParticipants(ctx context.Context, subjectID string, draft Draft) (animals.Animal, *animals.Animal, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return animals.Animal{}, nil, ErrInvalidInput
	}

	subject, err := s.repo.GetByID(ctx, subjectID)
	if err != nil {
		return animals.Animal{}, nil, err
	}

	// La pareja solo se resuelve para montas con referencia. Una referencia
	// que no resuelve NO es error del caller: es un rechazo del validador.
	var partner *animals.Animal
	if draft.Type == animals.RecordMating && draft.MateID != "" {
		p, err := s.repo.GetByID(ctx, draft.MateID)
		switch {
		case err == nil:
			partner = &p
		case errors.Is(err, animals.ErrNotFound):
			partner = nil
		default:
			return animals.Animal{}, nil, err
		}
	}

	return subject, partner, nil
}

func (s *Service) appendRecord(ctx context.Context, a animals.Animal, rec animals.ReproductionRecord) error {
	records := append(append([]animals.ReproductionRecord{}, a.ReproductionRecords...), rec)
	now := s.now()
	return s.repo.Update(ctx, a.ID, animals.UpdateFields{
		ReproductionRecords: &records,
		UpdatedAt:           &now,
	})
}

func validateDraftFields(draft Draft) error {
	if !draft.Type.IsValid() {
		return fmt.Errorf("%w: unknown record type %q", ErrInvalidInput, draft.Type)
	}
	if draft.Date.IsZero() {
		return fmt.Errorf("%w: date required", ErrInvalidInput)
	}

	switch draft.Type {
	case animals.RecordHeat:
		switch draft.HeatIntensity {
		case "", animals.HeatLow, animals.HeatMedium, animals.HeatHigh:
		default:
			return fmt.Errorf("%w: invalid heat_intensity %q", ErrInvalidInput, draft.HeatIntensity)
		}
	case animals.RecordBirth:
		if draft.OffspringCount < 1 {
			return fmt.Errorf("%w: offspring_count must be >= 1", ErrInvalidInput)
		}
	case animals.RecordUltrasound:
		switch draft.UltrasoundResult {
		case animals.UltrasoundPositive, animals.UltrasoundNegative:
		default:
			return fmt.Errorf("%w: ultrasound_result must be positive or negative", ErrInvalidInput)
		}
	}
	return nil
}
