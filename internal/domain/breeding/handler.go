package breeding

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"herd-reproduction/internal/domain/animals"
	"herd-reproduction/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals/{animalID}/reproduction", func(rr chi.Router) {
		rr.Post("/", recordEventHandler(svc))
		rr.Get("/", listEventsHandler(svc))
	})
}

// recordEventRequest es el cuerpo para proponer un evento reproductivo.
type recordEventRequest struct {
	Type   animals.RecordType `json:"type" enums:"heat,mating,ultrasound,birth,abortion,weaning,lactation"`
	Date   string             `json:"date"` // YYYY-MM-DD
	MateID string             `json:"mate_id"`
	Notes  string             `json:"notes"`

	HeatIntensity    animals.HeatIntensity    `json:"heat_intensity" enums:"low,medium,high"`
	OffspringCount   int                      `json:"offspring_count"`
	Outcome          string                   `json:"outcome"`
	UltrasoundResult animals.UltrasoundResult `json:"ultrasound_result" enums:"positive,negative"`

	// Confirm autoriza explícitamente una decisión needs_confirmation
	// (ej. gestación inusualmente larga). Sin confirm no se escribe nada.
	Confirm bool `json:"confirm"`
}

type decisionResponse struct {
	Outcome Outcome `json:"outcome"`
	Code    Code    `json:"code,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

type commitResponse struct {
	SubjectWritten bool `json:"subject_written"`
	PartnerWritten bool `json:"partner_written"`
	Mirrored       bool `json:"mirrored"`
}

type recordResponse struct {
	ID     string             `json:"id,omitempty"`
	Date   string             `json:"date,omitempty"`
	Type   animals.RecordType `json:"type,omitempty"`
	MateID string             `json:"mate_id,omitempty"`
	Notes  string             `json:"notes,omitempty"`

	HeatIntensity    animals.HeatIntensity    `json:"heat_intensity,omitempty"`
	OffspringCount   int                      `json:"offspring_count,omitempty"`
	Outcome          string                   `json:"outcome,omitempty"`
	UltrasoundResult animals.UltrasoundResult `json:"ultrasound_result,omitempty"`
}

type recordEventResponse struct {
	Decision decisionResponse `json:"decision"`
	Record   *recordResponse  `json:"record,omitempty"`
	Commit   *commitResponse  `json:"commit,omitempty"`

	// Error se llena solo en commits parciales: el registro del sujeto
	// existe pero el espejo en la pareja falló.
	Error string `json:"error,omitempty"`
}

// recordEventHandler godoc
// @Summary Registrar evento reproductivo
// @Description Valida y registra un evento reproductivo (heat, mating, ultrasound, birth, abortion, weaning, lactation). Las montas con mate_id se espejan en la pareja. Una decisión needs_confirmation requiere reenviar con confirm=true.
// @Tags reproduction
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal sujeto"
// @Param payload body recordEventRequest true "Evento propuesto; date YYYY-MM-DD"
// @Success 201 {object} recordEventResponse "Aceptado y escrito"
// @Failure 400 {string} string "invalid json / campos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Failure 409 {object} recordEventResponse "Requiere confirmación del operador"
// @Failure 422 {object} recordEventResponse "Rechazado por regla, con razón específica"
// @Failure 500 {object} recordEventResponse "Commit parcial: espejo en la pareja falló"
// @Router /animals/{animalID}/reproduction [post]
func recordEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req recordEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		draft := Draft{
			Type:             req.Type,
			Date:             date,
			MateID:           strings.TrimSpace(req.MateID),
			Notes:            req.Notes,
			HeatIntensity:    req.HeatIntensity,
			OffspringCount:   req.OffspringCount,
			Outcome:          req.Outcome,
			UltrasoundResult: req.UltrasoundResult,
		}

		rec, decision, res, err := svc.Record(r.Context(), chi.URLParam(r, "animalID"), draft, req.Confirm)

		switch {
		case err == nil:
		case errors.Is(err, ErrPartialCommit):
			// Distinguible de una falla total: el caller tiene que saber
			// que puede existir una monta sin espejo.
			writeJSON(w, http.StatusInternalServerError, recordEventResponse{
				Decision: toDecisionResponse(decision),
				Record:   toRecordResponse(rec),
				Commit:   toCommitResponse(res),
				Error:    err.Error(),
			})
			return
		case errors.Is(err, ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, animals.ErrNotFound):
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		switch decision.Outcome {
		case OutcomeRejected:
			writeJSON(w, http.StatusUnprocessableEntity, recordEventResponse{
				Decision: toDecisionResponse(decision),
			})
		case OutcomeNeedsConfirmation:
			if !req.Confirm {
				writeJSON(w, http.StatusConflict, recordEventResponse{
					Decision: toDecisionResponse(decision),
				})
				return
			}
			// Confirmado: el registro ya quedó escrito.
			writeJSON(w, http.StatusCreated, recordEventResponse{
				Decision: toDecisionResponse(decision),
				Record:   toRecordResponse(rec),
				Commit:   toCommitResponse(res),
			})
		default:
			writeJSON(w, http.StatusCreated, recordEventResponse{
				Decision: toDecisionResponse(decision),
				Record:   toRecordResponse(rec),
				Commit:   toCommitResponse(res),
			})
		}
	}
}

// listEventsHandler godoc
// @Summary Listar historial reproductivo
// @Description Lista los registros reproductivos del animal en orden de inserción. Filtros por tipos (CSV), rango de fechas y límite.
// @Tags reproduction
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param types query string false "Lista CSV de tipos (ej: mating,birth)"
// @Param from query string false "Fecha mínima YYYY-MM-DD"
// @Param to query string false "Fecha máxima YYYY-MM-DD"
// @Param limit query int false "Máximo de registros (1-200). Por defecto 50"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string "Filtros inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/reproduction [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.ListRecords(r.Context(), chi.URLParam(r, "animalID"), filter)
		if err != nil {
			if errors.Is(err, animals.ErrNotFound) {
				http.Error(w, "animal not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, *toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("types")); v != "" {
		parts := strings.Split(v, ",")
		out := make([]animals.RecordType, 0, len(parts))
		for _, p := range parts {
			t := animals.RecordType(strings.TrimSpace(p))
			if t == "" {
				continue
			}
			if !t.IsValid() {
				return ListFilter{}, errors.New("unknown record type in types filter")
			}
			out = append(out, t)
		}
		if len(out) > 0 {
			filter.Types = out
		}
	}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return ListFilter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return ListFilter{}, errors.New("to must be YYYY-MM-DD")
		}
		filter.To = &t
	}

	return filter, nil
}

func toDecisionResponse(d Decision) decisionResponse {
	return decisionResponse{Outcome: d.Outcome, Code: d.Code, Reason: d.Reason}
}

func toCommitResponse(res CommitResult) *commitResponse {
	return &commitResponse{
		SubjectWritten: res.SubjectWritten,
		PartnerWritten: res.PartnerWritten,
		Mirrored:       res.Mirrored,
	}
}

func toRecordResponse(rec animals.ReproductionRecord) *recordResponse {
	if rec.ID == "" {
		return nil
	}
	return &recordResponse{
		ID:               rec.ID,
		Date:             rec.Date.Format("2006-01-02"),
		Type:             rec.Type,
		MateID:           rec.MateID,
		Notes:            rec.Notes,
		HeatIntensity:    rec.HeatIntensity,
		OffspringCount:   rec.OffspringCount,
		Outcome:          rec.Outcome,
		UltrasoundResult: rec.UltrasoundResult,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
