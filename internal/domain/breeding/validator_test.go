package breeding

import (
	"testing"
	"time"

	"herd-reproduction/internal/domain/animals"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func newDoe(t *testing.T, birth string, records ...animals.ReproductionRecord) animals.Animal {
	t.Helper()
	return animals.Animal{
		ID:                  "doe-1",
		Name:                "Luna",
		TagID:               "A-001",
		Gender:              animals.GenderFemale,
		BirthDate:           date(t, birth),
		Status:              animals.StatusActive,
		ReproductionRecords: records,
	}
}

func mating(t *testing.T, d string) animals.ReproductionRecord {
	t.Helper()
	return animals.ReproductionRecord{ID: "m-" + d, Type: animals.RecordMating, Date: date(t, d)}
}

func birth(t *testing.T, d string) animals.ReproductionRecord {
	t.Helper()
	return animals.ReproductionRecord{ID: "b-" + d, Type: animals.RecordBirth, Date: date(t, d)}
}

func TestValidate_FutureDate_AlwaysRejected(t *testing.T) {
	subject := newDoe(t, "2022-01-01")
	today := date(t, "2024-01-15")

	for _, typ := range []animals.RecordType{
		animals.RecordHeat, animals.RecordMating, animals.RecordBirth,
		animals.RecordWeaning, animals.RecordLactation,
	} {
		d := Validate(subject, nil, Draft{Type: typ, Date: date(t, "2024-01-16")}, today)
		if !d.Rejected() || d.Code != CodeFutureDate {
			t.Fatalf("type %s: expected future_date rejection, got %+v", typ, d)
		}
	}
}

func TestValidate_PrecedesBirth_Rejected(t *testing.T) {
	subject := newDoe(t, "2022-01-01")

	d := Validate(subject, nil, Draft{Type: animals.RecordHeat, Date: date(t, "2021-12-31")}, date(t, "2024-01-15"))
	if !d.Rejected() || d.Code != CodePrecedesBirth {
		t.Fatalf("expected precedes_birth rejection, got %+v", d)
	}
}

func TestValidate_SubjectNotEligible(t *testing.T) {
	for _, status := range []animals.Status{animals.StatusSold, animals.StatusDeceased} {
		subject := newDoe(t, "2022-01-01")
		subject.Status = status

		d := Validate(subject, nil, Draft{Type: animals.RecordHeat, Date: date(t, "2023-06-01")}, date(t, "2024-01-15"))
		if !d.Rejected() || d.Code != CodeSubjectIneligible {
			t.Fatalf("status %s: expected subject_ineligible, got %+v", status, d)
		}
	}

	// external sí puede recibir eventos (solo sold/deceased quedan congelados)
	subject := newDoe(t, "2022-01-01")
	subject.Status = animals.StatusExternal
	d := Validate(subject, nil, Draft{Type: animals.RecordHeat, Date: date(t, "2023-06-01")}, date(t, "2024-01-15"))
	if !d.Accepted() {
		t.Fatalf("external subject: expected accepted, got %+v", d)
	}
}

func TestValidate_MatingPartner(t *testing.T) {
	subject := newDoe(t, "2022-01-01")
	today := date(t, "2024-01-15")
	draft := Draft{Type: animals.RecordMating, Date: date(t, "2023-06-01"), MateID: "buck-1"}

	// pareja que no resuelve
	d := Validate(subject, nil, draft, today)
	if !d.Rejected() || d.Code != CodePartnerNotFound {
		t.Fatalf("expected partner_not_found, got %+v", d)
	}

	// pareja vendida
	partner := animals.Animal{ID: "buck-1", Gender: animals.GenderMale, Status: animals.StatusSold, BirthDate: date(t, "2021-01-01")}
	d = Validate(subject, &partner, draft, today)
	if !d.Rejected() || d.Code != CodePartnerIneligible {
		t.Fatalf("expected partner_ineligible, got %+v", d)
	}

	// pareja activa
	partner.Status = animals.StatusActive
	d = Validate(subject, &partner, draft, today)
	if !d.Accepted() {
		t.Fatalf("expected accepted, got %+v", d)
	}

	// monta sin mate_id: no hay regla de pareja
	d = Validate(subject, nil, Draft{Type: animals.RecordMating, Date: date(t, "2023-06-01")}, today)
	if !d.Accepted() {
		t.Fatalf("mating without mate: expected accepted, got %+v", d)
	}
}

func TestValidate_BirthGestationWindow(t *testing.T) {
	// Escenario canónico: nacida 2022-01-01, monta 2023-06-01.
	subject := newDoe(t, "2022-01-01", mating(t, "2023-06-01"))
	today := date(t, "2024-01-15")

	cases := []struct {
		name    string
		date    string
		outcome Outcome
		code    Code
	}{
		{"141 días: aceptado", "2023-10-20", OutcomeAccepted, ""},
		{"131 días: rechazado", "2023-10-10", OutcomeRejected, CodeGestationTooShort},
		{"167 días: requiere confirmación", "2023-11-15", OutcomeNeedsConfirmation, CodeGestationTooLong},
		{"140 días exactos: aceptado", "2023-10-19", OutcomeAccepted, ""},
		{"160 días exactos: aceptado", "2023-11-08", OutcomeAccepted, ""},
		{"161 días: requiere confirmación", "2023-11-09", OutcomeNeedsConfirmation, CodeGestationTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Validate(subject, nil, Draft{Type: animals.RecordBirth, Date: date(t, tc.date), OffspringCount: 1}, today)
			if d.Outcome != tc.outcome {
				t.Fatalf("expected %s, got %+v", tc.outcome, d)
			}
			if tc.code != "" && d.Code != tc.code {
				t.Fatalf("expected code %s, got %s (%s)", tc.code, d.Code, d.Reason)
			}
		})
	}
}

func TestValidate_BirthWithoutPriorMating_Accepted(t *testing.T) {
	// Sin monta previa no hay regla bloqueante de gestación.
	subject := newDoe(t, "2022-01-01")

	d := Validate(subject, nil, Draft{Type: animals.RecordBirth, Date: date(t, "2023-10-20"), OffspringCount: 2}, date(t, "2024-01-15"))
	if !d.Accepted() {
		t.Fatalf("expected accepted, got %+v", d)
	}
}

func TestValidate_BirthUsesLatestPriorMating(t *testing.T) {
	// Dos montas previas: la ventana se mide contra la más reciente.
	subject := newDoe(t, "2022-01-01", mating(t, "2023-01-10"), mating(t, "2023-06-01"))

	d := Validate(subject, nil, Draft{Type: animals.RecordBirth, Date: date(t, "2023-10-20"), OffspringCount: 1}, date(t, "2024-01-15"))
	if !d.Accepted() {
		t.Fatalf("expected accepted against latest mating, got %+v", d)
	}
}

func TestValidate_TieBreak_LatestInsertionWins(t *testing.T) {
	// Dos montas el mismo día: gana la última insertada. Como comparten
	// fecha el resultado de la ventana es el mismo, pero el registro
	// elegido debe ser el segundo.
	first := mating(t, "2023-06-01")
	second := mating(t, "2023-06-01")
	second.ID = "m-later"

	subject := newDoe(t, "2022-01-01", first, second)
	rec, ok := lastRecordBefore(subject.ReproductionRecords, animals.RecordMating, date(t, "2023-10-20"))
	if !ok {
		t.Fatalf("expected a prior mating")
	}
	if rec.ID != "m-later" {
		t.Fatalf("expected latest-inserted record to win, got %s", rec.ID)
	}
}

func TestValidate_UltrasoundTiming(t *testing.T) {
	subject := newDoe(t, "2022-01-01", mating(t, "2023-06-01"))
	today := date(t, "2024-01-15")

	// 15 días: rechazado
	d := Validate(subject, nil, Draft{Type: animals.RecordUltrasound, Date: date(t, "2023-06-16"), UltrasoundResult: animals.UltrasoundPositive}, today)
	if !d.Rejected() || d.Code != CodeUltrasoundTooEarly {
		t.Fatalf("15 days: expected ultrasound_too_early, got %+v", d)
	}

	// 20 días exactos: aceptado
	d = Validate(subject, nil, Draft{Type: animals.RecordUltrasound, Date: date(t, "2023-06-21"), UltrasoundResult: animals.UltrasoundNegative}, today)
	if !d.Accepted() {
		t.Fatalf("20 days: expected accepted, got %+v", d)
	}

	// sin monta previa: sin regla
	noMating := newDoe(t, "2022-01-01")
	d = Validate(noMating, nil, Draft{Type: animals.RecordUltrasound, Date: date(t, "2023-06-16"), UltrasoundResult: animals.UltrasoundPositive}, today)
	if !d.Accepted() {
		t.Fatalf("no prior mating: expected accepted, got %+v", d)
	}
}

func TestValidate_Weaning(t *testing.T) {
	today := date(t, "2024-01-15")

	// Sin parto previo: rechazado siempre, sin importar fecha
	subject := newDoe(t, "2022-01-01")
	d := Validate(subject, nil, Draft{Type: animals.RecordWeaning, Date: date(t, "2023-12-01")}, today)
	if !d.Rejected() || d.Code != CodeNoPriorBirth {
		t.Fatalf("expected no_prior_birth, got %+v", d)
	}

	// Parto hace 20 días: muy pronto
	subject = newDoe(t, "2022-01-01", birth(t, "2023-11-11"))
	d = Validate(subject, nil, Draft{Type: animals.RecordWeaning, Date: date(t, "2023-12-01")}, today)
	if !d.Rejected() || d.Code != CodeWeaningTooSoon {
		t.Fatalf("expected weaning_too_soon, got %+v", d)
	}

	// Parto hace 30 días exactos: aceptado
	subject = newDoe(t, "2022-01-01", birth(t, "2023-11-01"))
	d = Validate(subject, nil, Draft{Type: animals.RecordWeaning, Date: date(t, "2023-12-01")}, today)
	if !d.Accepted() {
		t.Fatalf("30 days: expected accepted, got %+v", d)
	}
}

func TestValidate_OtherTypes_Accepted(t *testing.T) {
	subject := newDoe(t, "2022-01-01")
	today := date(t, "2024-01-15")

	for _, typ := range []animals.RecordType{animals.RecordHeat, animals.RecordAbortion, animals.RecordLactation} {
		d := Validate(subject, nil, Draft{Type: typ, Date: date(t, "2023-06-01")}, today)
		if !d.Accepted() {
			t.Fatalf("type %s: expected accepted, got %+v", typ, d)
		}
	}
}
