package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"monkey-registry/internal/domain/monkeys"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open abre un pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables para un registro chico
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Store persiste los registros en una tabla monkeys. Los timestamps se
// guardan como texto: el formato persistido es el string ISO-8601 opaco del
// dominio, no un tipo de fecha.
type Store struct {
	db *sql.DB
}

var _ monkeys.Repository = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema crea la tabla si no existe (aprovisionamiento al arrancar,
// para el modo dev).
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS monkeys (
			monkey_id       TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			species         TEXT NOT NULL,
			age_years       INTEGER NOT NULL,
			favourite_fruit TEXT NOT NULL,
			last_checkup_at TEXT,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)
	`)
	if err != nil {
		return &monkeys.StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

const selectColumns = `
	monkey_id, name, species, age_years,
	favourite_fruit, last_checkup_at, created_at, updated_at
`

func (s *Store) Get(ctx context.Context, id string) (monkeys.Monkey, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM monkeys
		WHERE monkey_id = $1
	`, id)

	m, err := scanMonkey(row)
	if err == sql.ErrNoRows {
		return monkeys.Monkey{}, monkeys.ErrNotFound
	}
	if err != nil {
		return monkeys.Monkey{}, &monkeys.StorageError{Op: "select", Err: err}
	}
	return m, nil
}

func (s *Store) Put(ctx context.Context, m monkeys.Monkey) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monkeys (
			monkey_id, name, species, age_years,
			favourite_fruit, last_checkup_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (monkey_id) DO UPDATE SET
			name = EXCLUDED.name,
			species = EXCLUDED.species,
			age_years = EXCLUDED.age_years,
			favourite_fruit = EXCLUDED.favourite_fruit,
			last_checkup_at = EXCLUDED.last_checkup_at,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`,
		m.ID,
		m.Name,
		string(m.Species),
		m.AgeYears,
		m.FavouriteFruit,
		toNullString(m.LastCheckupAt),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return &monkeys.StorageError{Op: "upsert", Err: err}
	}
	return nil
}

func (s *Store) Update(ctx context.Context, id string, f monkeys.UpdateFields) (monkeys.Monkey, error) {
	sets := []string{"updated_at = $2"}
	args := []any{id, f.UpdatedAt}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.Species != nil {
		add("species", string(*f.Species))
	}
	if f.AgeYears != nil {
		add("age_years", *f.AgeYears)
	}
	if f.FavouriteFruit != nil {
		add("favourite_fruit", *f.FavouriteFruit)
	}
	if f.LastCheckupAt != nil {
		add("last_checkup_at", *f.LastCheckupAt)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE monkeys
		SET `+strings.Join(sets, ", ")+`
		WHERE monkey_id = $1
	`, args...)
	if err != nil {
		return monkeys.Monkey{}, &monkeys.StorageError{Op: "update", Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return monkeys.Monkey{}, monkeys.ErrNotFound
	}

	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM monkeys WHERE monkey_id = $1`, id)
	if err != nil {
		return &monkeys.StorageError{Op: "delete", Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return monkeys.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, f monkeys.ListFilter) ([]monkeys.Monkey, error) {
	where := []string{}
	args := []any{}
	if f.Species != "" {
		args = append(args, f.Species)
		where = append(where, fmt.Sprintf("species = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR species ILIKE $%d)", len(args), len(args)))
	}

	q := `SELECT ` + selectColumns + ` FROM monkeys`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at ASC, monkey_id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &monkeys.StorageError{Op: "select", Err: err}
	}
	defer rows.Close()

	out := make([]monkeys.Monkey, 0)
	for rows.Next() {
		m, err := scanMonkey(rows)
		if err != nil {
			return nil, &monkeys.StorageError{Op: "scan row", Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &monkeys.StorageError{Op: "select", Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMonkey(row rowScanner) (monkeys.Monkey, error) {
	var m monkeys.Monkey
	var species string
	var checkup sql.NullString
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&species,
		&m.AgeYears,
		&m.FavouriteFruit,
		&checkup,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return monkeys.Monkey{}, err
	}
	m.Species = monkeys.Species(species)
	if checkup.Valid {
		v := checkup.String
		m.LastCheckupAt = &v
	}
	return m, nil
}

// last_checkup_at es opcional; lo pasamos como NullString para simplificar
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
