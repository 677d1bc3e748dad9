package monkeys

// Species define las especies soportadas por el registro.
// @Enum capuchin, macaque, marmoset, howler
type Species string

const (
	SpeciesCapuchin Species = "capuchin"
	SpeciesMacaque  Species = "macaque"
	SpeciesMarmoset Species = "marmoset"
	SpeciesHowler   Species = "howler"
)

// ValidSpecies indica si s es una de las especies soportadas.
func ValidSpecies(s Species) bool {
	switch s {
	case SpeciesCapuchin, SpeciesMacaque, SpeciesMarmoset, SpeciesHowler:
		return true
	}
	return false
}

// Límites de edad en años. El tope de marmoset está contenido dentro del
// límite general y se evalúa siempre contra la especie efectiva.
const (
	MinAgeYears         = 0
	MaxAgeYears         = 45
	MaxMarmosetAgeYears = 22
)

// Límites de longitud del nombre, en runas.
const (
	MinNameLen = 2
	MaxNameLen = 40
)

// Monkey representa un animal registrado en el sistema.
//
// Los timestamps viajan y se persisten como strings ISO-8601 opacos: ese es
// el formato que esperan los clientes y el documento en disco, así que no se
// convierten a time.Time en la frontera de storage.
type Monkey struct {
	ID      string
	Name    string
	Species Species

	AgeYears       int
	FavouriteFruit string
	LastCheckupAt  *string

	CreatedAt string
	UpdatedAt string
}
