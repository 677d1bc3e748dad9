package monkeys

import (
	"context"
	"strings"
)

// ListFilter acota el listado. Species es match exacto; Search es substring
// case-insensitive sobre name O species.
type ListFilter struct {
	Species string
	Search  string
}

// Matches informa si m pasa el filtro. Lo usan los backends que filtran en
// memoria (file, y el post-filtro de search en dynamo).
func (f ListFilter) Matches(m Monkey) bool {
	if f.Species != "" && string(m.Species) != f.Species {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(m.Name), q) &&
			!strings.Contains(strings.ToLower(string(m.Species)), q) {
			return false
		}
	}
	return true
}

// UpdateFields es el merge parcial de un update: nil = no tocar.
// UpdatedAt lo fija siempre el servicio y el backend lo aplica siempre.
type UpdateFields struct {
	Name           *string
	Species        *Species
	AgeYears       *int
	FavouriteFruit *string
	LastCheckupAt  *string

	UpdatedAt string
}

// Repository es el contrato uniforme de persistencia, idéntico para todos
// los backends. No lleva semántica de negocio: el servicio y el chequeo de
// duplicados dependen solo de esta interfaz, nunca de la mecánica de query
// de un backend concreto.
type Repository interface {
	// Get devuelve el registro o ErrNotFound.
	Get(ctx context.Context, id string) (Monkey, error)
	// Put hace upsert incondicional por id.
	Put(ctx context.Context, m Monkey) error
	// Update aplica el merge parcial y devuelve el registro resultante,
	// o ErrNotFound si el id no existe.
	Update(ctx context.Context, id string, fields UpdateFields) (Monkey, error)
	// Delete borra el registro (hard delete) o devuelve ErrNotFound.
	Delete(ctx context.Context, id string) error
	// List devuelve los registros que pasan el filtro. Vacío no es error.
	List(ctx context.Context, f ListFilter) ([]Monkey, error)
}
