package monkeys

import (
	"encoding/json"
	"errors"
	"net/http"

	"monkey-registry/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Get("/", rootHandler())

	r.Route("/monkeys", func(mr chi.Router) {
		mr.Post("/", createMonkeyHandler(svc, log))
		mr.Get("/", listMonkeysHandler(svc, log))
		mr.Get("/{monkeyID}", getMonkeyHandler(svc, log))
		mr.Put("/{monkeyID}", updateMonkeyHandler(svc, log))
		mr.Delete("/{monkeyID}", deleteMonkeyHandler(svc, log))
	})
}

type createMonkeyRequest struct {
	Name           string  `json:"name"`
	Species        string  `json:"species"`
	AgeYears       *int    `json:"age_years"` // puntero para distinguir 0 de ausente
	FavouriteFruit string  `json:"favourite_fruit"`
	LastCheckupAt  *string `json:"last_checkup_at"`
}

type updateMonkeyRequest struct {
	// Punteros para update parcial real: nil = no tocar.
	Name           *string `json:"name"`
	Species        *string `json:"species"`
	AgeYears       *int    `json:"age_years"`
	FavouriteFruit *string `json:"favourite_fruit"`
	LastCheckupAt  *string `json:"last_checkup_at"`
}

type monkeyResponse struct {
	MonkeyID       string  `json:"monkey_id"`
	Name           string  `json:"name"`
	Species        string  `json:"species"`
	AgeYears       int     `json:"age_years"`
	FavouriteFruit string  `json:"favourite_fruit"`
	LastCheckupAt  *string `json:"last_checkup_at"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func rootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Monkey Registry API"})
	}
}

func createMonkeyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMonkeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.AgeYears == nil {
			writeError(w, http.StatusUnprocessableEntity, "age_years: is required")
			return
		}

		m, err := svc.Create(r.Context(), CreateInput{
			Name:           req.Name,
			Species:        req.Species,
			AgeYears:       *req.AgeYears,
			FavouriteFruit: req.FavouriteFruit,
			LastCheckupAt:  req.LastCheckupAt,
		})
		if err != nil {
			writeDomainError(w, log, "creating monkey", err)
			return
		}

		writeJSON(w, http.StatusCreated, toMonkeyResponse(m))
	}
}

func listMonkeysHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := ListFilter{
			Species: r.URL.Query().Get("species"),
			Search:  r.URL.Query().Get("search"),
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeDomainError(w, log, "fetching monkeys", err)
			return
		}

		out := make([]monkeyResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMonkeyResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getMonkeyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Get(r.Context(), chi.URLParam(r, "monkeyID"))
		if err != nil {
			writeDomainError(w, log, "fetching monkey", err)
			return
		}
		writeJSON(w, http.StatusOK, toMonkeyResponse(m))
	}
}

func updateMonkeyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateMonkeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		m, err := svc.Update(r.Context(), chi.URLParam(r, "monkeyID"), UpdateInput{
			Name:           req.Name,
			Species:        req.Species,
			AgeYears:       req.AgeYears,
			FavouriteFruit: req.FavouriteFruit,
			LastCheckupAt:  req.LastCheckupAt,
		})
		if err != nil {
			writeDomainError(w, log, "updating monkey", err)
			return
		}

		writeJSON(w, http.StatusOK, toMonkeyResponse(m))
	}
}

func deleteMonkeyHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "monkeyID")); err != nil {
			writeDomainError(w, log, "deleting monkey", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Monkey deleted successfully"})
	}
}

func toMonkeyResponse(m Monkey) monkeyResponse {
	return monkeyResponse{
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

// writeDomainError mapea la taxonomía de errores a códigos HTTP:
// 422 validación, 400 duplicado, 404 id desconocido, 500 el resto.
// El detalle del backend no se filtra al cliente; va solo al log.
func writeDomainError(w http.ResponseWriter, log logger.Logger, op string, err error) {
	var ve *ValidationError
	var ce *ConflictError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusBadRequest, ce.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Monkey not found")
	default:
		log.Error("storage failure", map[string]any{"op": op, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Error "+op)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
