package file

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"monkey-registry/internal/domain/monkeys"

	"github.com/spf13/afero"
)

// record es la forma persistida: mapa plano campo→valor. El documento
// completo es un único objeto JSON id→record.
type record struct {
	MonkeyID       string  `json:"monkey_id"`
	Name           string  `json:"name"`
	Species        string  `json:"species"`
	AgeYears       int     `json:"age_years"`
	FavouriteFruit string  `json:"favourite_fruit"`
	LastCheckupAt  *string `json:"last_checkup_at"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// Store persiste el set completo de registros como un solo documento JSON,
// con read-modify-write por operación. Supuesto de proceso único: el mutex
// cubre goroutines dentro del proceso, no hay lock entre procesos. Un crash
// entre lectura y escritura pierde la mutación en vuelo (no hay journal);
// aceptable con la concurrencia baja del registro.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

var _ monkeys.Repository = (*Store)(nil)

// New crea un store sobre fs. En producción fs es afero.NewOsFs(); los
// tests usan afero.NewMemMapFs().
func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

func (s *Store) Get(ctx context.Context, id string) (monkeys.Monkey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return monkeys.Monkey{}, err
	}
	rec, ok := all[id]
	if !ok {
		return monkeys.Monkey{}, monkeys.ErrNotFound
	}
	return toMonkey(rec), nil
}

func (s *Store) Put(ctx context.Context, m monkeys.Monkey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[m.ID] = toRecord(m)
	return s.save(all)
}

func (s *Store) Update(ctx context.Context, id string, f monkeys.UpdateFields) (monkeys.Monkey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return monkeys.Monkey{}, err
	}
	rec, ok := all[id]
	if !ok {
		return monkeys.Monkey{}, monkeys.ErrNotFound
	}

	if f.Name != nil {
		rec.Name = *f.Name
	}
	if f.Species != nil {
		rec.Species = string(*f.Species)
	}
	if f.AgeYears != nil {
		rec.AgeYears = *f.AgeYears
	}
	if f.FavouriteFruit != nil {
		rec.FavouriteFruit = *f.FavouriteFruit
	}
	if f.LastCheckupAt != nil {
		rec.LastCheckupAt = f.LastCheckupAt
	}
	rec.UpdatedAt = f.UpdatedAt

	all[id] = rec
	if err := s.save(all); err != nil {
		return monkeys.Monkey{}, err
	}
	return toMonkey(rec), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := all[id]; !ok {
		return monkeys.ErrNotFound
	}
	delete(all, id)
	return s.save(all)
}

func (s *Store) List(ctx context.Context, f monkeys.ListFilter) ([]monkeys.Monkey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]monkeys.Monkey, 0, len(all))
	for _, rec := range all {
		m := toMonkey(rec)
		if f.Matches(m) {
			out = append(out, m)
		}
	}

	// Orden estable por created_at asc (consistencia entre listados).
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (s *Store) load() (map[string]record, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]record{}, nil
		}
		return nil, &monkeys.StorageError{Op: "read file", Err: err}
	}
	if len(b) == 0 {
		return map[string]record{}, nil
	}

	var out map[string]record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, &monkeys.StorageError{Op: "decode file", Err: err}
	}
	if out == nil {
		out = map[string]record{}
	}
	return out, nil
}

// save escribe a un archivo temporal y renombra, para no dejar el documento
// a medio escribir si la escritura falla.
func (s *Store) save(all map[string]record) error {
	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return &monkeys.StorageError{Op: "encode file", Err: err}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		return &monkeys.StorageError{Op: "write file", Err: err}
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return &monkeys.StorageError{Op: "rename file", Err: err}
	}
	return nil
}

func toRecord(m monkeys.Monkey) record {
	return record{
		MonkeyID:       m.ID,
		Name:           m.Name,
		Species:        string(m.Species),
		AgeYears:       m.AgeYears,
		FavouriteFruit: m.FavouriteFruit,
		LastCheckupAt:  m.LastCheckupAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toMonkey(rec record) monkeys.Monkey {
	return monkeys.Monkey{
		ID:             rec.MonkeyID,
		Name:           rec.Name,
		Species:        monkeys.Species(rec.Species),
		AgeYears:       rec.AgeYears,
		FavouriteFruit: rec.FavouriteFruit,
		LastCheckupAt:  rec.LastCheckupAt,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}
