package monkeys

import (
	"context"
	"strings"
)

// existsConflict reporta si ya existe otro registro con el mismo
// (name, species), comparando name sin distinguir mayúsculas y saltando
// excludeID para que un update no choque consigo mismo.
//
// Es un full scan deliberado vía List sin filtro: el store no garantiza un
// índice compuesto (name, species), así que la corrección exige recorrer el
// set completo en cada escritura (el species-index queda solo para listados).
// O(n) por write; ese es el techo de escala conocido del registro.
//
// Si el scan falla NO se asume ausencia de conflicto: el error se propaga y
// el caller debe abortar la escritura (fail closed).
func existsConflict(ctx context.Context, repo Repository, name string, species Species, excludeID string) (bool, error) {
	all, err := repo.List(ctx, ListFilter{})
	if err != nil {
		return false, err
	}
	for _, m := range all {
		if excludeID != "" && m.ID == excludeID {
			continue
		}
		if m.Species == species && strings.EqualFold(m.Name, name) {
			return true, nil
		}
	}
	return false, nil
}
