package animals

// Gender define el sexo del animal.
// @Enum male, female
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Status define el estado del animal dentro del rebaño.
// "external" representa ancestros no inventariados (compras, padres desconocidos):
// nodos válidos del pedigrí pero sin membresía en el rebaño.
// @Enum active, sold, deceased, external
type Status string

const (
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusDeceased Status = "deceased"
	StatusExternal Status = "external"
)

// IsEligibleForEvents indica si el animal puede recibir nuevos registros.
// Vendidos y muertos quedan congelados.
func (s Status) IsEligibleForEvents() bool {
	return s != StatusSold && s != StatusDeceased
}

// RecordType define los tipos de evento reproductivo.
type RecordType string

const (
	RecordHeat       RecordType = "heat"
	RecordMating     RecordType = "mating"
	RecordUltrasound RecordType = "ultrasound"
	RecordBirth      RecordType = "birth"
	RecordAbortion   RecordType = "abortion"
	RecordWeaning    RecordType = "weaning"
	RecordLactation  RecordType = "lactation"
)

// IsValid acepta solo los tipos conocidos.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordHeat, RecordMating, RecordUltrasound, RecordBirth,
		RecordAbortion, RecordWeaning, RecordLactation:
		return true
	}
	return false
}

// HeatIntensity solo aplica a registros de tipo heat.
type HeatIntensity string

const (
	HeatLow    HeatIntensity = "low"
	HeatMedium HeatIntensity = "medium"
	HeatHigh   HeatIntensity = "high"
)

// UltrasoundResult solo aplica a registros de tipo ultrasound.
type UltrasoundResult string

const (
	UltrasoundPositive UltrasoundResult = "positive"
	UltrasoundNegative UltrasoundResult = "negative"
)

// ParentRole define el rol de un padre en el pedigrí.
// @Enum sire, dam
type ParentRole string

const (
	RoleSire ParentRole = "sire"
	RoleDam  ParentRole = "dam"
)
