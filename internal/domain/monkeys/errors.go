package monkeys

import (
	"errors"
	"fmt"
)

// ErrNotFound indica que el id no existe en el store. Nunca se confunde con
// un fallo de backend: "no está" y "no se pudo determinar" son cosas
// distintas (StorageError cubre lo segundo).
var ErrNotFound = errors.New("monkey not found")

// ValidationError es un defecto de entrada corregible por el cliente.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError indica que ya existe otro registro con el mismo
// (name, species). El name se compara sin distinguir mayúsculas.
type ConflictError struct {
	Name    string
	Species Species
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("A monkey named '%s' already exists in species '%s'", e.Name, e.Species)
}

// StorageError envuelve un fallo de I/O o serialización del backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
