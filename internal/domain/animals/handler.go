package animals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"herd-reproduction/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/animals", func(ar chi.Router) {
		ar.Post("/", registerAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))
		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))

		// Historiales co-residentes sin reglas reproductivas.
		ar.Post("/{animalID}/health", addHealthHandler(svc))
		ar.Post("/{animalID}/weights", addWeightHandler(svc))
	})
}

// registerAnimalRequest es el cuerpo para registrar un animal.
// Las fechas van como YYYY-MM-DD (fechas calendario, sin hora).
type registerAnimalRequest struct {
	Name      string `json:"name"`
	TagID     string `json:"tag_id"`
	Gender    Gender `json:"gender" enums:"male,female"`
	Breed     string `json:"breed"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
	Status    Status `json:"status" enums:"active,sold,deceased,external"`
	SireID    string `json:"sire_id"`
	DamID     string `json:"dam_id"`
	Notes     string `json:"notes"`
	Purchased bool   `json:"purchased"`
}

type animalResponse struct {
	ID        string `json:"id"`
	FarmID    string `json:"farm_id,omitempty"`
	Name      string `json:"name"`
	TagID     string `json:"tag_id"`
	Gender    Gender `json:"gender"`
	Breed     string `json:"breed,omitempty"`
	BirthDate string `json:"birth_date"`
	Status    Status `json:"status"`
	SireID    string `json:"sire_id,omitempty"`
	DamID     string `json:"dam_id,omitempty"`
	Notes     string `json:"notes,omitempty"`

	ReproductionRecords int `json:"reproduction_records"`
	HealthRecords       int `json:"health_records"`
	WeightRecords       int `json:"weight_records"`

	// Warning se llena cuando el animal quedó creado pero la síntesis del
	// parto en la madre falló (reintentable, es idempotente).
	Warning string `json:"warning,omitempty"`
}

// registerAnimalHandler godoc
// @Summary Registrar animal
// @Description Registra un animal del rebaño (o un ancestro external). Si declara dam_id y no es comprado/external, sintetiza idempotentemente el registro de parto en la madre.
// @Tags animals
// @Accept json
// @Produce json
// @Param payload body registerAnimalRequest true "Datos del animal; fechas YYYY-MM-DD"
// @Success 201 {object} animalResponse
// @Failure 400 {string} string "invalid json / campos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Router /animals [post]
func registerAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req registerAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		birthDate, err := parseDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		farmID := claims.FarmID
		if farmID == "" {
			farmID = claims.UserID
		}

		a, err := svc.Register(r.Context(), farmID, RegisterInput{
			Name:      req.Name,
			TagID:     req.TagID,
			Gender:    req.Gender,
			Breed:     req.Breed,
			BirthDate: birthDate,
			Status:    req.Status,
			SireID:    req.SireID,
			DamID:     req.DamID,
			Notes:     req.Notes,
			Purchased: req.Purchased,
		})
		if err != nil {
			// El animal puede haber quedado creado aunque falle la síntesis
			// del parto: en ese caso devolvemos 201 con warning.
			if a.ID != "" {
				resp := toAnimalResponse(a)
				resp.Warning = err.Error()
				writeJSON(w, http.StatusCreated, resp)
				return
			}
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

// listAnimalsHandler godoc
// @Summary Listar animales
// @Description Lista animales del rebaño. Filtros opcionales por status, gender y texto libre.
// @Tags animals
// @Produce json
// @Param status query string false "Filtrar por status"
// @Param gender query string false "Filtrar por gender"
// @Param q query string false "Texto en name/tag_id"
// @Param limit query int false "Máximo de resultados (1-200). Por defecto 50"
// @Success 200 {array} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Router /animals [get]
func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}

		items, err := svc.List(r.Context(), ListFilter{
			Status: Status(strings.TrimSpace(r.URL.Query().Get("status"))),
			Gender: Gender(strings.TrimSpace(r.URL.Query().Get("gender"))),
			Query:  strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  limit,
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAnimalHandler godoc
// @Summary Obtener animal
// @Tags animals
// @Produce json
// @Param animalID path string true "ID del animal"
// @Success 200 {object} animalResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID} [get]
func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

type updateAnimalRequest struct {
	Name   *string `json:"name"`
	Breed  *string `json:"breed"`
	Status *Status `json:"status" enums:"active,sold,deceased,external"`
	Notes  *string `json:"notes"`
}

// updateAnimalHandler godoc
// @Summary Editar perfil del animal
// @Description Edita identidad/estado. No toca historiales (los registros son inmutables).
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body updateAnimalRequest true "Campos a actualizar (parcial)"
// @Success 200 {object} animalResponse
// @Failure 400 {string} string "invalid json / campos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID} [patch]
func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.UpdateProfile(r.Context(), chi.URLParam(r, "animalID"), UpdateProfileInput{
			Name:   req.Name,
			Breed:  req.Breed,
			Status: req.Status,
			Notes:  req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

type healthRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

type healthResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// addHealthHandler godoc
// @Summary Agregar registro sanitario
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body healthRequest true "Registro sanitario; date YYYY-MM-DD"
// @Success 201 {object} healthResponse
// @Failure 400 {string} string "invalid json / campos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Failure 422 {string} string "animal no elegible"
// @Router /animals/{animalID}/health [post]
func addHealthHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req healthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		rec, err := svc.AddHealthRecord(r.Context(), chi.URLParam(r, "animalID"), HealthInput{
			Date:        date,
			Kind:        req.Kind,
			Description: req.Description,
			Notes:       req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, healthResponse{
			ID:          rec.ID,
			Date:        rec.Date.Format("2006-01-02"),
			Kind:        rec.Kind,
			Description: rec.Description,
			Notes:       rec.Notes,
		})
	}
}

type weightRequest struct {
	Date string  `json:"date"` // YYYY-MM-DD
	Kg   float64 `json:"kg"`
}

type weightResponse struct {
	ID   string  `json:"id"`
	Date string  `json:"date"`
	Kg   float64 `json:"kg"`
}

// addWeightHandler godoc
// @Summary Agregar pesaje
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param payload body weightRequest true "Pesaje; date YYYY-MM-DD"
// @Success 201 {object} weightResponse
// @Failure 400 {string} string "invalid json / campos inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Failure 422 {string} string "animal no elegible"
// @Router /animals/{animalID}/weights [post]
func addWeightHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req weightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		rec, err := svc.AddWeightRecord(r.Context(), chi.URLParam(r, "animalID"), WeightInput{
			Date: date,
			Kg:   req.Kg,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, weightResponse{
			ID:   rec.ID,
			Date: rec.Date.Format("2006-01-02"),
			Kg:   rec.Kg,
		})
	}
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:                  a.ID,
		FarmID:              a.FarmID,
		Name:                a.Name,
		TagID:               a.TagID,
		Gender:              a.Gender,
		Breed:               a.Breed,
		BirthDate:           a.BirthDate.Format("2006-01-02"),
		Status:              a.Status,
		SireID:              a.SireID,
		DamID:               a.DamID,
		Notes:               a.Notes,
		ReproductionRecords: len(a.ReproductionRecords),
		HealthRecords:       len(a.HealthRecords),
		WeightRecords:       len(a.WeightRecords),
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotEligible):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
