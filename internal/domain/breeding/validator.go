package breeding

import (
	"fmt"
	"time"

	"herd-reproduction/internal/domain/animals"
)

// Ventanas en días calendario.
const (
	GestationMinDays  = 140
	GestationMaxDays  = 160
	UltrasoundMinDays = 20
	WeaningMinDays    = 30
)

// Draft es un evento reproductivo propuesto, aún sin id ni persistencia.
type Draft struct {
	Type   animals.RecordType
	Date   time.Time
	MateID string
	Notes  string

	HeatIntensity    animals.HeatIntensity
	OffspringCount   int
	Outcome          string
	UltrasoundResult animals.UltrasoundResult
}

// Validate decide si un evento propuesto puede registrarse. Función pura:
// no toca el repositorio ni el reloj (today se inyecta), no muta inputs.
//
// partner solo importa para mating con MateID: nil significa que la
// referencia no resolvió a un animal real.
//
// Las reglas evalúan en orden fijo y cortan en el primer fallo.
func Validate(subject animals.Animal, partner *animals.Animal, draft Draft, today time.Time) Decision {
	date := animals.DateOnly(draft.Date)
	today = animals.DateOnly(today)

	// 1. Sin fechas futuras.
	if date.After(today) {
		return rejected(CodeFutureDate, fmt.Sprintf("event date %s is in the future", date.Format("2006-01-02")))
	}

	// 2. Nada antes de nacer.
	if date.Before(subject.BirthDate) {
		return rejected(CodePrecedesBirth, fmt.Sprintf("event date %s precedes the subject's birth (%s)",
			date.Format("2006-01-02"), subject.BirthDate.Format("2006-01-02")))
	}

	// 3. Vendidos y muertos no reciben eventos nuevos.
	if !subject.Status.IsEligibleForEvents() {
		return rejected(CodeSubjectIneligible, fmt.Sprintf("subject is not eligible for new events (status %s)", subject.Status))
	}

	// 4. Pareja de monta: debe existir y estar elegible.
	if draft.Type == animals.RecordMating && draft.MateID != "" {
		if partner == nil {
			return rejected(CodePartnerNotFound, fmt.Sprintf("mating partner %s not found", draft.MateID))
		}
		if !partner.Status.IsEligibleForEvents() {
			return rejected(CodePartnerIneligible, fmt.Sprintf("mating partner %s is not eligible (status %s)", partner.ID, partner.Status))
		}
	}

	switch draft.Type {
	case animals.RecordBirth:
		// 5. Ventana de gestación contra la última monta previa.
		// Sin monta previa no hay regla bloqueante: el parto se acepta.
		if mating, ok := lastRecordBefore(subject.ReproductionRecords, animals.RecordMating, date); ok {
			days := daysBetween(mating.Date, date)
			switch {
			case days < GestationMinDays:
				return rejected(CodeGestationTooShort,
					fmt.Sprintf("%d days since last mating, minimum %d", days, GestationMinDays))
			case days > GestationMaxDays:
				return needsConfirmation(CodeGestationTooLong,
					fmt.Sprintf("unusually long gestation: %d days since last mating (nominal %d-%d)", days, GestationMinDays, GestationMaxDays))
			}
		}

	case animals.RecordUltrasound:
		// 6. Muy cerca de la monta, el resultado no es confiable.
		if mating, ok := lastRecordBefore(subject.ReproductionRecords, animals.RecordMating, date); ok {
			if days := daysBetween(mating.Date, date); days < UltrasoundMinDays {
				return rejected(CodeUltrasoundTooEarly,
					fmt.Sprintf("too early for a reliable result: %d days since last mating, minimum %d", days, UltrasoundMinDays))
			}
		}

	case animals.RecordWeaning:
		// 7. Destete exige un parto previo y una edad mínima de cría.
		birth, ok := lastRecordBefore(subject.ReproductionRecords, animals.RecordBirth, date)
		if !ok {
			return rejected(CodeNoPriorBirth, "no prior birth on record")
		}
		if days := daysBetween(birth.Date, date); days < WeaningMinDays {
			return rejected(CodeWeaningTooSoon,
				fmt.Sprintf("too soon after birth: %d days, minimum %d", days, WeaningMinDays))
		}
	}

	// 8. Todo lo demás (heat, abortion, lactation, mating sin pareja...) pasa.
	return accepted()
}

// lastRecordBefore busca el registro de tipo typ más reciente con fecha
// estrictamente anterior a date. Empate de fechas: gana la última inserción
// (el array se guarda en orden de inserción, no cronológico).
func lastRecordBefore(records []animals.ReproductionRecord, typ animals.RecordType, date time.Time) (animals.ReproductionRecord, bool) {
	var best animals.ReproductionRecord
	found := false

	for _, rec := range records {
		d := animals.DateOnly(rec.Date)
		if rec.Type != typ || !d.Before(date) {
			continue
		}
		if !found || !d.Before(animals.DateOnly(best.Date)) {
			best = rec
			found = true
		}
	}
	return best, found
}

func daysBetween(from, to time.Time) int {
	return int(animals.DateOnly(to).Sub(animals.DateOnly(from)).Hours() / 24)
}
