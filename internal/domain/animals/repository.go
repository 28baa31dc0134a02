package animals

import (
	"context"
	"errors"
)

// ErrNotFound lo devuelven todos los adapters de almacenamiento cuando un id
// no resuelve. Vive en el dominio porque el motor necesita distinguir
// "referencia rota" (rechazo de validación) de una falla real del repositorio.
var ErrNotFound = errors.New("animal not found")

type Repository interface {
	Create(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	List(ctx context.Context, filter ListFilter) ([]Animal, error)

	// Update aplica un merge parcial de campos sobre el documento.
	// Los arrays de historial incluidos se reemplazan completos.
	Update(ctx context.Context, id string, fields UpdateFields) error
}

type ListFilter struct {
	Status Status
	Gender Gender
	Query  string
	Limit  int
}
