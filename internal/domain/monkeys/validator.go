package monkeys

import (
	"strings"
	"unicode/utf8"
)

// CreateInput es el payload de alta ya decodificado.
type CreateInput struct {
	Name           string
	Species        string
	AgeYears       int
	FavouriteFruit string
	LastCheckupAt  *string
}

// UpdateInput es un payload parcial: nil = no tocar el campo.
type UpdateInput struct {
	Name           *string
	Species        *string
	AgeYears       *int
	FavouriteFruit *string
	LastCheckupAt  *string
}

// validateCreate aplica las reglas en orden y corta en la primera violada.
func validateCreate(in CreateInput) error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	sp := Species(in.Species)
	if !ValidSpecies(sp) {
		return &ValidationError{Field: "species", Reason: "must be one of capuchin, macaque, marmoset, howler"}
	}
	if err := validateAge(in.AgeYears, sp); err != nil {
		return err
	}
	if strings.TrimSpace(in.FavouriteFruit) == "" {
		return &ValidationError{Field: "favourite_fruit", Reason: "is required"}
	}
	return nil
}

// validateUpdate valida el payload parcial contra el registro EFECTIVO, es
// decir, el que quedaría después del merge: la regla de edad de marmoset se
// evalúa con la especie final (la del payload si viene, si no la existente),
// incluso cuando el payload solo trae age_years.
func validateUpdate(existing Monkey, in UpdateInput) error {
	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return err
		}
	}

	effective := existing.Species
	if in.Species != nil {
		sp := Species(*in.Species)
		if !ValidSpecies(sp) {
			return &ValidationError{Field: "species", Reason: "must be one of capuchin, macaque, marmoset, howler"}
		}
		effective = sp
	}

	age := existing.AgeYears
	if in.AgeYears != nil {
		age = *in.AgeYears
	}
	return validateAge(age, effective)
}

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
		return &ValidationError{Field: "name", Reason: "must be between 2 and 40 characters"}
	}
	return nil
}

func validateAge(age int, sp Species) error {
	if age < MinAgeYears || age > MaxAgeYears {
		return &ValidationError{Field: "age_years", Reason: "must be between 0 and 45"}
	}
	if sp == SpeciesMarmoset && age > MaxMarmosetAgeYears {
		return &ValidationError{Field: "age_years", Reason: "marmoset age cannot exceed 22 years"}
	}
	return nil
}
