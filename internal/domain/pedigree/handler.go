package pedigree

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"herd-reproduction/internal/domain/animals"
	"herd-reproduction/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, resolver *Resolver) {
	r.Get("/animals/{animalID}/ancestors", ancestorsHandler(resolver))
	r.Post("/animals/{animalID}/parents", linkParentHandler(resolver))
}

// ancestorsHandler godoc
// @Summary Árbol de ancestros
// @Description Resuelve la cadena sire/dam hasta depth generaciones. Referencias que no resuelven aparecen como hojas con known=false; animales external son nodos válidos.
// @Tags pedigree
// @Produce json
// @Param animalID path string true "ID del animal"
// @Param depth query int false "Generaciones hacia arriba (1-16). Por defecto 3"
// @Success 200 {object} Node
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Router /animals/{animalID}/ancestors [get]
func ancestorsHandler(resolver *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		depth := 0
		if v := r.URL.Query().Get("depth"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				depth = n
			}
		}

		tree, err := resolver.ResolveAncestors(r.Context(), chi.URLParam(r, "animalID"), depth)
		if err != nil {
			if errors.Is(err, animals.ErrNotFound) {
				http.Error(w, "animal not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, tree)
	}
}

type linkParentRequest struct {
	Role     animals.ParentRole `json:"role" enums:"sire,dam"`
	ParentID string             `json:"parent_id"`
}

type linkParentResponse struct {
	ChildID string `json:"child_id"`
	SireID  string `json:"sire_id,omitempty"`
	DamID   string `json:"dam_id,omitempty"`
}

// linkParentHandler godoc
// @Summary Enlazar padre/madre
// @Description Fija sire_id o dam_id del animal. Valida que el padre exista, que su sexo cuadre con el rol, y rechaza enlaces que cierren un ciclo en el pedigrí.
// @Tags pedigree
// @Accept json
// @Produce json
// @Param animalID path string true "ID del animal hijo"
// @Param payload body linkParentRequest true "Rol y id del padre"
// @Success 200 {object} linkParentResponse
// @Failure 400 {string} string "invalid json / rol inválido"
// @Failure 404 {string} string "animal o padre no encontrado"
// @Failure 409 {string} string "ciclo de pedigrí"
// @Failure 422 {string} string "sexo del padre no cuadra con el rol"
// @Router /animals/{animalID}/parents [post]
func linkParentHandler(resolver *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req linkParentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		child, err := resolver.LinkParent(r.Context(), chi.URLParam(r, "animalID"), req.Role, req.ParentID)
		if err != nil {
			switch {
			case errors.Is(err, ErrCycle):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, ErrGenderMismatch):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, animals.ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, linkParentResponse{
			ChildID: child.ID,
			SireID:  child.SireID,
			DamID:   child.DamID,
		})
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
