package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"monkey-registry/internal/router"
)

func TestHTTP_MonkeyCRUD(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	// 1) liveness
	{
		st, body := doReq(t, ts.URL, "GET", "/api/", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 on liveness, got %d", st)
		}
		if !strings.Contains(string(body), "Monkey Registry API") {
			t.Fatalf("unexpected liveness body: %s", string(body))
		}
	}

	// 2) alta válida
	id := createMonkey(t, ts.URL, map[string]any{
		"name":            "Coco",
		"species":         "capuchin",
		"age_years":       12,
		"favourite_fruit": "banana",
	})

	// 3) duplicado (case-insensitive) dentro de la especie => 400
	{
		st, body := doReq(t, ts.URL, "POST", "/api/monkeys", map[string]any{
			"name":            "COCO",
			"species":         "capuchin",
			"age_years":       3,
			"favourite_fruit": "mango",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for duplicate, got %d body=%s", st, string(body))
		}
		if !strings.Contains(string(body), "already exists") {
			t.Fatalf("expected conflict detail, got %s", string(body))
		}
	}

	// 4) mismo nombre en otra especie => 201
	createMonkey(t, ts.URL, map[string]any{
		"name":            "Coco",
		"species":         "howler",
		"age_years":       3,
		"favourite_fruit": "mango",
	})

	// 5) validación: marmoset de 23 => 422
	{
		st, body := doReq(t, ts.URL, "POST", "/api/monkeys", map[string]any{
			"name":            "Mia",
			"species":         "marmoset",
			"age_years":       23,
			"favourite_fruit": "fig",
		})
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for marmoset over cap, got %d body=%s", st, string(body))
		}
	}

	// 6) get devuelve el registro completo
	{
		st, body := doReq(t, ts.URL, "GET", "/api/monkeys/"+id, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get monkey, got %d body=%s", st, string(body))
		}
		var resp struct {
			MonkeyID  string `json:"monkey_id"`
			Name      string `json:"name"`
			CreatedAt string `json:"created_at"`
			UpdatedAt string `json:"updated_at"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal get: %v", err)
		}
		if resp.MonkeyID != id || resp.Name != "Coco" {
			t.Fatalf("unexpected record: %s", string(body))
		}
		if resp.CreatedAt == "" || resp.CreatedAt != resp.UpdatedAt {
			t.Fatalf("expected created_at == updated_at at creation, got %s", string(body))
		}
	}

	// 7) update parcial: solo age_years
	{
		st, body := doReq(t, ts.URL, "PUT", "/api/monkeys/"+id, map[string]any{
			"age_years": 13,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update, got %d body=%s", st, string(body))
		}
		var resp struct {
			AgeYears       int    `json:"age_years"`
			Name           string `json:"name"`
			FavouriteFruit string `json:"favourite_fruit"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.AgeYears != 13 || resp.Name != "Coco" || resp.FavouriteFruit != "banana" {
			t.Fatalf("partial update touched unexpected fields: %s", string(body))
		}
	}

	// 8) id desconocido => 404 en get/update/delete
	for _, m := range []string{"GET", "PUT", "DELETE"} {
		var payload map[string]any
		if m == "PUT" {
			payload = map[string]any{"age_years": 1}
		}
		st, _ := doReq(t, ts.URL, m, "/api/monkeys/unknown-id", payload)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 %s unknown id, got %d", m, st)
		}
	}

	// 9) listado filtrado
	{
		st, body := doReq(t, ts.URL, "GET", "/api/monkeys?species=capuchin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d", st)
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 capuchin, got %d body=%s", len(items), string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/api/monkeys?search=how", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 search list, got %d", st)
		}
		items = nil
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected search to match species howler, got %s", string(body))
		}
	}

	// 10) delete y get posterior => 404
	{
		st, body := doReq(t, ts.URL, "DELETE", "/api/monkeys/"+id, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 delete, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "GET", "/api/monkeys/"+id, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}
}

func TestHTTP_UpdateMarmosetEffectiveSpecies(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	id := createMonkey(t, ts.URL, map[string]any{
		"name":            "Mia",
		"species":         "marmoset",
		"age_years":       10,
		"favourite_fruit": "fig",
	})

	// subir solo la edad sobre un marmoset existente debe respetar el tope
	st, body := doReq(t, ts.URL, "PUT", "/api/monkeys/"+id, map[string]any{
		"age_years": 25,
	})
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for marmoset age 25, got %d body=%s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "PUT", "/api/monkeys/"+id, map[string]any{
		"age_years": 22,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 for marmoset age 22, got %d body=%s", st, string(body))
	}
}

func TestHTTP_CreateRejectsMissingAge(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/monkeys", map[string]any{
		"name":            "Chico",
		"species":         "macaque",
		"favourite_fruit": "papaya",
	})
	if st != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing age_years, got %d body=%s", st, string(body))
	}
}

func TestHTTP_NameLengthBounds(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	for _, tc := range []struct {
		name string
		want int
	}{
		{"A", http.StatusUnprocessableEntity},
		{strings.Repeat("a", 41), http.StatusUnprocessableEntity},
		{"Bo", http.StatusCreated},
		{strings.Repeat("a", 40), http.StatusCreated},
	} {
		st, body := doReq(t, ts.URL, "POST", "/api/monkeys", map[string]any{
			"name":            tc.name,
			"species":         "macaque",
			"age_years":       4,
			"favourite_fruit": "papaya",
		})
		if st != tc.want {
			t.Fatalf("name %q: expected %d, got %d body=%s", tc.name, tc.want, st, string(body))
		}
	}
}

func createMonkey(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/monkeys", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create monkey, got %d body=%s", st, string(body))
	}

	var resp struct {
		MonkeyID string `json:"monkey_id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.MonkeyID == "" {
		t.Fatalf("create monkey: missing monkey_id body=%s", string(body))
	}
	return resp.MonkeyID
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
