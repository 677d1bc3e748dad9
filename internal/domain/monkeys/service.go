package monkeys

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultOpTimeout acota cada operación contra el backend. Ninguna request
// se queda colgada esperando un store que no responde.
const DefaultOpTimeout = 5 * time.Second

// Service orquesta validación, chequeo de duplicados y storage para las
// cinco operaciones públicas del registro. Es el único escritor del estado
// de los registros; los backends no llevan semántica de negocio.
type Service struct {
	repo Repository
	now  func() time.Time

	// mu serializa chequeo-de-duplicado + escritura en Create/Update.
	// Cierra la ventana de carrera dentro del proceso, válido bajo el
	// supuesto de instancia única del registro. Entre procesos el backend
	// dynamo (eventualmente consistente) puede igualmente admitir un
	// duplicado; no lo enmascaramos.
	mu sync.Mutex

	opTimeout time.Duration
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		now:       time.Now,
		opTimeout: DefaultOpTimeout,
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Create valida, chequea unicidad (fail closed), asigna id y timestamps y
// persiste. created_at == updated_at en el alta.
func (s *Service) Create(ctx context.Context, in CreateInput) (Monkey, error) {
	if err := validateCreate(in); err != nil {
		return Monkey{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	sp := Species(in.Species)
	dup, err := existsConflict(ctx, s.repo, in.Name, sp, "")
	if err != nil {
		return Monkey{}, err
	}
	if dup {
		return Monkey{}, &ConflictError{Name: in.Name, Species: sp}
	}

	now := s.timestamp()
	m := Monkey{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Species:        sp,
		AgeYears:       in.AgeYears,
		FavouriteFruit: in.FavouriteFruit,
		LastCheckupAt:  in.LastCheckupAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return Monkey{}, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (Monkey, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	return s.repo.Get(ctx, id)
}

// List es un pass-through al backend; lista vacía es respuesta válida.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Monkey, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	return s.repo.List(ctx, f)
}

// Update aplica un merge parcial: valida contra el registro efectivo,
// re-chequea unicidad solo si cambia name o species (excluyendo este id) y
// refresca updated_at.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Monkey, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Monkey{}, err
	}

	if err := validateUpdate(existing, in); err != nil {
		return Monkey{}, err
	}

	if in.Name != nil || in.Species != nil {
		newName := existing.Name
		if in.Name != nil {
			newName = *in.Name
		}
		newSpecies := existing.Species
		if in.Species != nil {
			newSpecies = Species(*in.Species)
		}
		dup, err := existsConflict(ctx, s.repo, newName, newSpecies, id)
		if err != nil {
			return Monkey{}, err
		}
		if dup {
			return Monkey{}, &ConflictError{Name: newName, Species: newSpecies}
		}
	}

	fields := UpdateFields{
		Name:           in.Name,
		AgeYears:       in.AgeYears,
		FavouriteFruit: in.FavouriteFruit,
		LastCheckupAt:  in.LastCheckupAt,
		UpdatedAt:      s.timestamp(),
	}
	if in.Species != nil {
		sp := Species(*in.Species)
		fields.Species = &sp
	}
	return s.repo.Update(ctx, id, fields)
}

// Delete es hard delete, sin tombstone.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
