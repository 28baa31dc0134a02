package breeding

import (
	"context"
	"errors"
	"testing"
	"time"

	"herd-reproduction/internal/domain/animals"
)

// testRepo implementa animals.Repository en memoria. failUpdateID permite
// simular la falla de la segunda mitad de un commit diádico.
type testRepo struct {
	items        map[string]animals.Animal
	failUpdateID string
}

func newTestRepo() *testRepo {
	return &testRepo{items: map[string]animals.Animal{}}
}

func (r *testRepo) Create(_ context.Context, a animals.Animal) error {
	r.items[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (animals.Animal, error) {
	a, ok := r.items[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *testRepo) List(_ context.Context, _ animals.ListFilter) ([]animals.Animal, error) {
	out := make([]animals.Animal, 0, len(r.items))
	for _, a := range r.items {
		out = append(out, a)
	}
	return out, nil
}

func (r *testRepo) Update(_ context.Context, id string, fields animals.UpdateFields) error {
	if id == r.failUpdateID {
		return errors.New("storage unavailable")
	}
	a, ok := r.items[id]
	if !ok {
		return animals.ErrNotFound
	}
	if fields.Status != nil {
		a.Status = *fields.Status
	}
	if fields.SireID != nil {
		a.SireID = *fields.SireID
	}
	if fields.DamID != nil {
		a.DamID = *fields.DamID
	}
	if fields.ReproductionRecords != nil {
		a.ReproductionRecords = *fields.ReproductionRecords
	}
	if fields.HealthRecords != nil {
		a.HealthRecords = *fields.HealthRecords
	}
	if fields.WeightRecords != nil {
		a.WeightRecords = *fields.WeightRecords
	}
	if fields.UpdatedAt != nil {
		a.UpdatedAt = *fields.UpdatedAt
	}
	r.items[id] = a
	return nil
}

func newTestService(t *testing.T, repo *testRepo) *Service {
	t.Helper()
	svc := NewService(repo)
	svc.now = func() time.Time { return date(t, "2024-01-15") }
	return svc
}

func seedPair(t *testing.T, repo *testRepo) (doe, buck animals.Animal) {
	t.Helper()
	doe = animals.Animal{
		ID: "doe-1", Name: "Luna", TagID: "A-001",
		Gender: animals.GenderFemale, Status: animals.StatusActive,
		BirthDate: date(t, "2022-01-01"),
	}
	buck = animals.Animal{
		ID: "buck-1", Name: "Thor", TagID: "A-002",
		Gender: animals.GenderMale, Status: animals.StatusActive,
		BirthDate: date(t, "2021-03-15"),
	}
	repo.items[doe.ID] = doe
	repo.items[buck.ID] = buck
	return doe, buck
}

func recordsOfType(a animals.Animal, typ animals.RecordType) []animals.ReproductionRecord {
	var out []animals.ReproductionRecord
	for _, rec := range a.ReproductionRecords {
		if rec.Type == typ {
			out = append(out, rec)
		}
	}
	return out
}

func TestRecord_Mating_MirrorsOnPartner(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, buck := seedPair(t, repo)

	draft := Draft{Type: animals.RecordMating, Date: date(t, "2023-06-01"), MateID: buck.ID, Notes: "corral 3"}
	rec, decision, res, err := svc.Record(context.Background(), doe.ID, draft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Accepted() {
		t.Fatalf("expected accepted, got %+v", decision)
	}
	if !res.SubjectWritten || !res.PartnerWritten || !res.Mirrored {
		t.Fatalf("expected full dyadic commit, got %+v", res)
	}

	gotDoe, _ := repo.GetByID(context.Background(), doe.ID)
	gotBuck, _ := repo.GetByID(context.Background(), buck.ID)

	doeMatings := recordsOfType(gotDoe, animals.RecordMating)
	buckMatings := recordsOfType(gotBuck, animals.RecordMating)
	if len(doeMatings) != 1 || len(buckMatings) != 1 {
		t.Fatalf("expected one mating on each side, got %d / %d", len(doeMatings), len(buckMatings))
	}
	if doeMatings[0].MateID != buck.ID {
		t.Fatalf("subject record should reference partner, got %q", doeMatings[0].MateID)
	}
	mirror := buckMatings[0]
	if mirror.MateID != doe.ID {
		t.Fatalf("mirror should reference subject, got %q", mirror.MateID)
	}
	if !animals.SameDate(mirror.Date, rec.Date) {
		t.Fatalf("mirror date %v != subject date %v", mirror.Date, rec.Date)
	}
	if mirror.ID == rec.ID {
		t.Fatalf("mirror must have its own id")
	}
	if mirror.Notes != "corral 3" {
		t.Fatalf("mirror should carry the same notes, got %q", mirror.Notes)
	}
}

func TestRecord_Mating_PartialCommit(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, buck := seedPair(t, repo)
	repo.failUpdateID = buck.ID

	draft := Draft{Type: animals.RecordMating, Date: date(t, "2023-06-01"), MateID: buck.ID}
	_, decision, res, err := svc.Record(context.Background(), doe.ID, draft, false)
	if !errors.Is(err, ErrPartialCommit) {
		t.Fatalf("expected ErrPartialCommit, got %v", err)
	}
	if !decision.Accepted() {
		t.Fatalf("expected accepted decision, got %+v", decision)
	}
	if !res.SubjectWritten || res.PartnerWritten || !res.Mirrored {
		t.Fatalf("expected asymmetric commit report, got %+v", res)
	}

	// La mitad del sujeto queda escrita; la pareja no.
	gotDoe, _ := repo.GetByID(context.Background(), doe.ID)
	gotBuck, _ := repo.GetByID(context.Background(), buck.ID)
	if len(gotDoe.ReproductionRecords) != 1 {
		t.Fatalf("subject half should be written, got %d records", len(gotDoe.ReproductionRecords))
	}
	if len(gotBuck.ReproductionRecords) != 0 {
		t.Fatalf("partner half should not be written, got %d records", len(gotBuck.ReproductionRecords))
	}
}

func TestRecord_SelfMating_Invalid(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, _ := seedPair(t, repo)

	draft := Draft{Type: animals.RecordMating, Date: date(t, "2023-06-01"), MateID: doe.ID}
	_, _, _, err := svc.Record(context.Background(), doe.ID, draft, false)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecord_Rejected_NothingWritten(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, _ := seedPair(t, repo)

	doe.ReproductionRecords = []animals.ReproductionRecord{mating(t, "2023-06-01")}
	repo.items[doe.ID] = doe

	// 131 días de gestación: rechazado
	draft := Draft{Type: animals.RecordBirth, Date: date(t, "2023-10-10"), OffspringCount: 1}
	_, decision, res, err := svc.Record(context.Background(), doe.ID, draft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Rejected() || decision.Code != CodeGestationTooShort {
		t.Fatalf("expected gestation_too_short, got %+v", decision)
	}
	if res.SubjectWritten {
		t.Fatalf("rejected event must not be written")
	}

	got, _ := repo.GetByID(context.Background(), doe.ID)
	if len(got.ReproductionRecords) != 1 {
		t.Fatalf("expected only the seeded mating, got %d records", len(got.ReproductionRecords))
	}
}

func TestRecord_NeedsConfirmation_Flow(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, _ := seedPair(t, repo)

	doe.ReproductionRecords = []animals.ReproductionRecord{mating(t, "2023-06-01")}
	repo.items[doe.ID] = doe

	// 167 días: requiere confirmación
	draft := Draft{Type: animals.RecordBirth, Date: date(t, "2023-11-15"), OffspringCount: 2}

	// Sin confirm: la decisión vuelve, pero no se escribe nada.
	_, decision, res, err := svc.Record(context.Background(), doe.ID, draft, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Outcome != OutcomeNeedsConfirmation || decision.Code != CodeGestationTooLong {
		t.Fatalf("expected needs_confirmation, got %+v", decision)
	}
	if res.SubjectWritten {
		t.Fatalf("unconfirmed event must not be written")
	}

	// Con confirm: se escribe.
	rec, decision, res, err := svc.Record(context.Background(), doe.ID, draft, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Outcome != OutcomeNeedsConfirmation {
		t.Fatalf("decision should still report the anomaly, got %+v", decision)
	}
	if !res.SubjectWritten {
		t.Fatalf("confirmed event should be written")
	}

	got, _ := repo.GetByID(context.Background(), doe.ID)
	births := recordsOfType(got, animals.RecordBirth)
	if len(births) != 1 || births[0].ID != rec.ID {
		t.Fatalf("expected the confirmed birth persisted, got %+v", births)
	}
	if births[0].OffspringCount != 2 {
		t.Fatalf("expected offspring_count 2, got %d", births[0].OffspringCount)
	}
}

func TestRecord_DraftFieldValidation(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, _ := seedPair(t, repo)

	cases := []struct {
		name  string
		draft Draft
	}{
		{"tipo desconocido", Draft{Type: "vaccination", Date: date(t, "2023-06-01")}},
		{"sin fecha", Draft{Type: animals.RecordHeat}},
		{"parto sin crías", Draft{Type: animals.RecordBirth, Date: date(t, "2023-06-01"), OffspringCount: 0}},
		{"ecografía sin resultado", Draft{Type: animals.RecordUltrasound, Date: date(t, "2023-06-01")}},
		{"celo con intensidad inventada", Draft{Type: animals.RecordHeat, Date: date(t, "2023-06-01"), HeatIntensity: "extreme"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := svc.Record(context.Background(), doe.ID, tc.draft, false)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestEnsureBirthRecorded_Idempotent(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, buck := seedPair(t, repo)

	birthDate := date(t, "2023-10-20")
	for i := 0; i < 2; i++ {
		if err := svc.EnsureBirthRecorded(context.Background(), doe.ID, birthDate, "Copo", "A-010", buck.ID); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}

	got, _ := repo.GetByID(context.Background(), doe.ID)
	births := recordsOfType(got, animals.RecordBirth)
	if len(births) != 1 {
		t.Fatalf("expected exactly one synthesized birth, got %d", len(births))
	}
	rec := births[0]
	if !animals.SameDate(rec.Date, birthDate) {
		t.Fatalf("expected birth date %v, got %v", birthDate, rec.Date)
	}
	if rec.OffspringCount != 1 || rec.Outcome != "alive" {
		t.Fatalf("unexpected synthesized fields: %+v", rec)
	}
	if rec.MateID != buck.ID {
		t.Fatalf("expected sire reference %q, got %q", buck.ID, rec.MateID)
	}

	// Un parto ya existente en esa fecha también cuenta como hecho.
	if err := svc.EnsureBirthRecorded(context.Background(), doe.ID, birthDate, "Otro", "A-011", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = repo.GetByID(context.Background(), doe.ID)
	if n := len(recordsOfType(got, animals.RecordBirth)); n != 1 {
		t.Fatalf("expected still one birth, got %d", n)
	}
}

func TestEnsureBirthRecorded_DamMissing(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)

	err := svc.EnsureBirthRecorded(context.Background(), "ghost", date(t, "2023-10-20"), "Copo", "A-010", "")
	if !errors.Is(err, animals.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecords_Filters(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(t, repo)
	doe, _ := seedPair(t, repo)

	doe.ReproductionRecords = []animals.ReproductionRecord{
		mating(t, "2023-01-10"),
		{ID: "h-1", Type: animals.RecordHeat, Date: date(t, "2023-01-05")},
		mating(t, "2023-06-01"),
		birth(t, "2023-10-20"),
	}
	repo.items[doe.ID] = doe

	// Por tipo
	got, err := svc.ListRecords(context.Background(), doe.ID, ListFilter{Types: []animals.RecordType{animals.RecordMating}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matings, got %d", len(got))
	}

	// Por rango de fechas
	from := date(t, "2023-05-01")
	got, err = svc.ListRecords(context.Background(), doe.ID, ListFilter{From: &from})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records from may on, got %d", len(got))
	}

	// Límite respeta orden de inserción
	got, err = svc.ListRecords(context.Background(), doe.ID, ListFilter{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m-2023-01-10" {
		t.Fatalf("expected first inserted record, got %+v", got)
	}
}
