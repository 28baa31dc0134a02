package breeding

// Outcome es el resultado de validar un evento propuesto.
// @Enum accepted, rejected, needs_confirmation
type Outcome string

const (
	OutcomeAccepted          Outcome = "accepted"
	OutcomeRejected          Outcome = "rejected"
	OutcomeNeedsConfirmation Outcome = "needs_confirmation"
)

// Code identifica la regla que disparó el rechazo/confirmación.
// Los rechazos de pareja (partner_*) se distinguen del resto para que el
// caller pueda tratarlos distinto (evento diádico mal referenciado).
type Code string

const (
	CodeFutureDate         Code = "future_date"
	CodePrecedesBirth      Code = "precedes_birth"
	CodeSubjectIneligible  Code = "subject_ineligible"
	CodePartnerNotFound    Code = "partner_not_found"
	CodePartnerIneligible  Code = "partner_ineligible"
	CodeGestationTooShort  Code = "gestation_too_short"
	CodeGestationTooLong   Code = "gestation_unusually_long"
	CodeUltrasoundTooEarly Code = "ultrasound_too_early"
	CodeNoPriorBirth       Code = "no_prior_birth"
	CodeWeaningTooSoon     Code = "weaning_too_soon"
)

// Decision nunca es un error de Go: rechazar un evento es un resultado
// normal del motor, con razón legible y regla identificada.
type Decision struct {
	Outcome Outcome
	Code    Code
	Reason  string
}

func (d Decision) Accepted() bool { return d.Outcome == OutcomeAccepted }
func (d Decision) Rejected() bool { return d.Outcome == OutcomeRejected }

func accepted() Decision {
	return Decision{Outcome: OutcomeAccepted}
}

func rejected(code Code, reason string) Decision {
	return Decision{Outcome: OutcomeRejected, Code: code, Reason: reason}
}

func needsConfirmation(code Code, reason string) Decision {
	return Decision{Outcome: OutcomeNeedsConfirmation, Code: code, Reason: reason}
}
