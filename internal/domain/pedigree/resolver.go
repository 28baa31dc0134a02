package pedigree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"herd-reproduction/internal/domain/animals"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrCycle: el enlace propuesto haría al animal su propio ancestro.
	ErrCycle = errors.New("parent link would create a pedigree cycle")

	ErrGenderMismatch = errors.New("parent gender does not match role")
)

const (
	// DefaultDepth generaciones si el caller no pide otra cosa.
	DefaultDepth = 3
	// MaxDepth acota la recursión del resolver y el walk anti-ciclos.
	MaxDepth = 16
)

// Node es un nodo del árbol de ancestros. Known=false representa una
// referencia que no resolvió (id colgante): hoja explícita, nunca error.
// Animales external son nodos válidos con campos mínimos confiables.
type Node struct {
	ID    string `json:"id,omitempty"`
	Known bool   `json:"known"`

	Name      string         `json:"name,omitempty"`
	TagID     string         `json:"tag_id,omitempty"`
	Gender    animals.Gender `json:"gender,omitempty"`
	Breed     string         `json:"breed,omitempty"`
	BirthDate *time.Time     `json:"birth_date,omitempty"`
	Status    animals.Status `json:"status,omitempty"`

	Sire *Node `json:"sire,omitempty"`
	Dam  *Node `json:"dam,omitempty"`
}

// Resolver arma cadenas de ancestros bajo demanda leyendo las referencias
// sire/dam del repositorio. No cachea: el pedigrí cambia con linkParent.
type Resolver struct {
	repo animals.Repository
}

func NewResolver(repo animals.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveAncestors arma el árbol hasta depth generaciones hacia arriba.
func (r *Resolver) ResolveAncestors(ctx context.Context, animalID string, depth int) (*Node, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, ErrInvalidInput
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	a, err := r.repo.GetByID(ctx, animalID)
	if err != nil {
		return nil, err
	}
	return r.buildNode(ctx, a, depth), nil
}

func (r *Resolver) buildNode(ctx context.Context, a animals.Animal, depth int) *Node {
	bd := a.BirthDate
	node := &Node{
		ID:        a.ID,
		Known:     true,
		Name:      a.Name,
		TagID:     a.TagID,
		Gender:    a.Gender,
		Breed:     a.Breed,
		BirthDate: &bd,
		Status:    a.Status,
	}

	if depth <= 0 {
		return node
	}

	node.Sire = r.resolveRef(ctx, a.SireID, depth-1)
	node.Dam = r.resolveRef(ctx, a.DamID, depth-1)
	return node
}

// resolveRef tolera referencias colgantes: id que no resuelve => hoja unknown.
func (r *Resolver) resolveRef(ctx context.Context, id string, depth int) *Node {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	parent, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return &Node{ID: id, Known: false}
	}
	return r.buildNode(ctx, parent, depth)
}

// LinkParent fija sire_id o dam_id en el hijo. Escritura directa de campo,
// independiente del flujo de eventos. Antes de escribir valida que el padre
// exista, que el rol cuadre con su sexo, y que el enlace no cierre un ciclo.
func (r *Resolver) LinkParent(ctx context.Context, childID string, role animals.ParentRole, parentID string) (animals.Animal, error) {
	childID = strings.TrimSpace(childID)
	parentID = strings.TrimSpace(parentID)

	if childID == "" || parentID == "" {
		return animals.Animal{}, ErrInvalidInput
	}
	if role != animals.RoleSire && role != animals.RoleDam {
		return animals.Animal{}, fmt.Errorf("%w: role must be sire or dam", ErrInvalidInput)
	}
	if childID == parentID {
		return animals.Animal{}, ErrCycle
	}

	child, err := r.repo.GetByID(ctx, childID)
	if err != nil {
		return animals.Animal{}, err
	}

	// Las referencias son débiles en el documento, pero al momento de
	// escribir sí exigimos que el padre exista.
	parent, err := r.repo.GetByID(ctx, parentID)
	if err != nil {
		return animals.Animal{}, fmt.Errorf("parent %s: %w", parentID, err)
	}

	if role == animals.RoleSire && parent.Gender != animals.GenderMale {
		return animals.Animal{}, ErrGenderMismatch
	}
	if role == animals.RoleDam && parent.Gender != animals.GenderFemale {
		return animals.Animal{}, ErrGenderMismatch
	}

	if r.wouldCycle(ctx, child.ID, parent) {
		return animals.Animal{}, ErrCycle
	}

	now := time.Now().UTC()
	fields := animals.UpdateFields{UpdatedAt: &now}
	if role == animals.RoleSire {
		fields.SireID = &parentID
	} else {
		fields.DamID = &parentID
	}

	if err := r.repo.Update(ctx, child.ID, fields); err != nil {
		return animals.Animal{}, err
	}
	return r.repo.GetByID(ctx, child.ID)
}

// wouldCycle camina la cadena de ancestros del padre propuesto (acotada a
// MaxDepth generaciones) buscando el id del hijo. Referencias que no
// resuelven cortan esa rama.
func (r *Resolver) wouldCycle(ctx context.Context, childID string, parent animals.Animal) bool {
	type frame struct {
		id    string
		depth int
	}

	seen := map[string]struct{}{parent.ID: {}}
	queue := []frame{}

	for _, ref := range []string{parent.SireID, parent.DamID} {
		if ref != "" {
			queue = append(queue, frame{id: ref, depth: 1})
		}
	}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		if f.id == childID {
			return true
		}
		if f.depth >= MaxDepth {
			continue
		}
		if _, dup := seen[f.id]; dup {
			continue
		}
		seen[f.id] = struct{}{}

		ancestor, err := r.repo.GetByID(ctx, f.id)
		if err != nil {
			continue
		}
		for _, ref := range []string{ancestor.SireID, ancestor.DamID} {
			if ref != "" {
				queue = append(queue, frame{id: ref, depth: f.depth + 1})
			}
		}
	}

	return false
}
