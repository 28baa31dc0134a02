package animals

import "time"

// Animal es el documento por animal: identidad + estado + historiales
// embebidos. Los arrays se guardan en orden de inserción, no cronológico.
type Animal struct {
	ID     string
	FarmID string

	Name   string
	TagID  string
	Gender Gender
	Breed  string

	BirthDate time.Time
	Status    Status

	// Referencias débiles al pedigrí. Pueden apuntar a animales external
	// o, en data sucia, a ids inexistentes (el resolver lo tolera).
	SireID string
	DamID  string

	ReproductionRecords []ReproductionRecord
	HealthRecords       []HealthRecord
	WeightRecords       []WeightRecord

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReproductionRecord es un evento reproductivo ya aceptado.
// Inmutable una vez escrito; nunca se borra desde el motor.
type ReproductionRecord struct {
	ID   string
	Date time.Time
	Type RecordType

	// MateID referencia a la pareja en eventos diádicos (mating) o al
	// semental en un birth sintetizado.
	MateID string
	Notes  string

	// Campos por tipo. Cero-value cuando no aplican.
	HeatIntensity    HeatIntensity
	OffspringCount   int
	Outcome          string
	UltrasoundResult UltrasoundResult
}

// HealthRecord es historial sanitario co-residente. Sin reglas reproductivas.
type HealthRecord struct {
	ID          string
	Date        time.Time
	Kind        string
	Description string
	Notes       string
}

// WeightRecord es el historial de pesajes.
type WeightRecord struct {
	ID   string
	Date time.Time
	Kg   float64
}

// UpdateFields es el contrato de update parcial del repositorio: solo los
// campos no-nil se escriben. Los arrays de historial se reemplazan completos
// (no hay append atómico; ver adapters).
type UpdateFields struct {
	Name      *string
	Status    *Status
	Breed     *string
	Notes     *string
	SireID    *string
	DamID     *string
	UpdatedAt *time.Time

	ReproductionRecords *[]ReproductionRecord
	HealthRecords       *[]HealthRecord
	WeightRecords       *[]WeightRecord
}

// DateOnly normaliza a medianoche UTC. Todas las fechas de eventos y
// nacimientos se comparan a nivel de día calendario.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate compara dos instantes a nivel de día calendario.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
