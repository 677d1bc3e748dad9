package file

import (
	"context"
	"testing"

	"monkey-registry/internal/domain/monkeys"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(id, name string) monkeys.Monkey {
	return monkeys.Monkey{
		ID:             id,
		Name:           name,
		Species:        monkeys.SpeciesCapuchin,
		AgeYears:       7,
		FavouriteFruit: "banana",
		CreatedAt:      "2024-05-01T10:00:00Z",
		UpdatedAt:      "2024-05-01T10:00:00Z",
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	s1 := New(fs, "monkeys.json")
	require.NoError(t, s1.Put(ctx, sample("a1", "Coco")))

	// un store nuevo sobre el mismo fs ve el documento escrito
	s2 := New(fs, "monkeys.json")
	got, err := s2.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, sample("a1", "Coco"), got)
}

func TestStore_GetMissing(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, monkeys.ErrNotFound)
}

func TestStore_PutIsUpsert(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sample("a1", "Coco")))

	replaced := sample("a1", "Coco II")
	require.NoError(t, s.Put(ctx, replaced))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Coco II", got.Name)
}

func TestStore_UpdateMergesOnlyProvidedFields(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sample("a1", "Coco")))

	age := 9
	updated, err := s.Update(ctx, "a1", monkeys.UpdateFields{
		AgeYears:  &age,
		UpdatedAt: "2024-06-01T12:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, 9, updated.AgeYears)
	assert.Equal(t, "Coco", updated.Name)
	assert.Equal(t, "banana", updated.FavouriteFruit)
	assert.Equal(t, "2024-05-01T10:00:00Z", updated.CreatedAt)
	assert.Equal(t, "2024-06-01T12:00:00Z", updated.UpdatedAt)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")

	_, err := s.Update(context.Background(), "nope", monkeys.UpdateFields{UpdatedAt: "2024-06-01T12:00:00Z"})
	assert.ErrorIs(t, err, monkeys.ErrNotFound)
}

func TestStore_DeleteMissing(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")

	err := s.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, monkeys.ErrNotFound)
}

func TestStore_DeleteRemovesRecord(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, sample("a1", "Coco")))
	require.NoError(t, s.Delete(ctx, "a1"))

	_, err := s.Get(ctx, "a1")
	assert.ErrorIs(t, err, monkeys.ErrNotFound)
}

func TestStore_ListFilters(t *testing.T) {
	s := New(afero.NewMemMapFs(), "monkeys.json")
	ctx := context.Background()

	coco := sample("a1", "Coco")
	rita := sample("a2", "Rita")
	rita.Species = monkeys.SpeciesHowler
	rita.CreatedAt = "2024-05-02T10:00:00Z"
	require.NoError(t, s.Put(ctx, coco))
	require.NoError(t, s.Put(ctx, rita))

	all, err := s.List(ctx, monkeys.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// orden estable por created_at asc
	assert.Equal(t, "a1", all[0].ID)
	assert.Equal(t, "a2", all[1].ID)

	howlers, err := s.List(ctx, monkeys.ListFilter{Species: "howler"})
	require.NoError(t, err)
	require.Len(t, howlers, 1)
	assert.Equal(t, "Rita", howlers[0].Name)

	found, err := s.List(ctx, monkeys.ListFilter{Search: "coc"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Coco", found[0].Name)
}

func TestStore_CorruptDocumentIsStorageError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "monkeys.json", []byte("{not json"), 0o644))

	s := New(fs, "monkeys.json")
	_, err := s.Get(context.Background(), "a1")
	require.Error(t, err)

	// documento corrupto es fallo de storage, nunca "no existe"
	var se *monkeys.StorageError
	assert.ErrorAs(t, err, &se)
	assert.NotErrorIs(t, err, monkeys.ErrNotFound)

	_, err = s.List(context.Background(), monkeys.ListFilter{})
	assert.ErrorAs(t, err, &se)
}
